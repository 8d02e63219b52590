// Package export renders inventory snapshots for download.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/panupunsiamwishco-dotcom/it-asset-tracker/internal/core/domain"
)

const sheetName = "assets"

var headers = []string{
	"asset_id", "branch", "category", "description", "status",
	"holder", "version", "last_modified_at", "last_modified_by",
}

// WriteXLSX streams a workbook with one row per asset to w.
func WriteXLSX(w io.Writer, assets []domain.Asset) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	if err := f.SetSheetRow(sheetName, "A1", &headers); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, a := range assets {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("cell for row %d: %w", i+2, err)
		}
		row := []any{
			a.ID,
			a.Branch,
			a.Category,
			a.Description,
			string(a.Status),
			a.Holder,
			a.Version,
			a.LastModifiedAt.UTC().Format(time.RFC3339),
			a.LastModifiedBy,
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
