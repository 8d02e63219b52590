package sheets

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/panupunsiamwishco-dotcom/it-asset-tracker/internal/core/domain"
)

const (
	auditSheet = "asset_history"
	auditCols  = "A:H"
)

// AuditLog appends ledger rows to the history worksheet. Sheet rows are
// append-only by construction; nothing here rewrites existing cells.
type AuditLog struct {
	c *Client
}

func NewAuditLog(c *Client) *AuditLog {
	return &AuditLog{c: c}
}

func (l *AuditLog) Append(ctx context.Context, rec domain.AuditRecord) error {
	row := []string{
		rec.ID,
		rec.AssetID,
		rec.Action,
		rec.Actor,
		rec.Timestamp.UTC().Format(time.RFC3339),
		strconv.FormatInt(rec.PreviousVersion, 10),
		strconv.FormatInt(rec.NewVersion, 10),
		rec.Note,
	}
	if err := l.c.appendValues(ctx, dataRange(auditSheet, auditCols), [][]string{row}); err != nil {
		return fmt.Errorf("append audit row: %w", err)
	}
	return nil
}

func (l *AuditLog) List(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditRecord, error) {
	vr, err := l.c.getValues(ctx, dataRange(auditSheet, auditCols))
	if err != nil {
		return nil, fmt.Errorf("list audit rows: %w", err)
	}

	records := make([]domain.AuditRecord, 0, len(vr.Values))
	// Newest entries live at the bottom of the sheet; walk backwards so the
	// limit keeps the most recent ones.
	for i := len(vr.Values) - 1; i >= 0; i-- {
		cells := vr.Values[i]
		rec, err := decodeAuditRow(cells)
		if err != nil {
			return nil, fmt.Errorf("history row %d: %v: %w", firstDataRow+i, err, domain.ErrPermanentBackend)
		}
		if filter.AssetID != "" && rec.AssetID != filter.AssetID {
			continue
		}
		if filter.Action != "" && rec.Action != filter.Action {
			continue
		}
		if filter.Actor != "" && rec.Actor != filter.Actor {
			continue
		}
		records = append(records, rec)
		if filter.Limit > 0 && len(records) >= filter.Limit {
			break
		}
	}
	return records, nil
}

func decodeAuditRow(cells []string) (domain.AuditRecord, error) {
	get := func(i int) string {
		if i < len(cells) {
			return cells[i]
		}
		return ""
	}

	ts, err := time.Parse(time.RFC3339, get(4))
	if err != nil && get(4) != "" {
		return domain.AuditRecord{}, fmt.Errorf("parse timestamp %q: %v", get(4), err)
	}
	prev, err := strconv.ParseInt(get(5), 10, 64)
	if err != nil {
		return domain.AuditRecord{}, fmt.Errorf("parse previous_version %q: %v", get(5), err)
	}
	next, err := strconv.ParseInt(get(6), 10, 64)
	if err != nil {
		return domain.AuditRecord{}, fmt.Errorf("parse new_version %q: %v", get(6), err)
	}

	return domain.AuditRecord{
		ID:              get(0),
		AssetID:         get(1),
		Action:          get(2),
		Actor:           get(3),
		Timestamp:       ts,
		PreviousVersion: prev,
		NewVersion:      next,
		Note:            get(7),
	}, nil
}
