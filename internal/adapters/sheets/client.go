// Package sheets adapts the registry's storage ports to a remote
// spreadsheet backend speaking the Sheets values API. Rows are addressed by
// position, so the client keeps an asset_id → row index map, rebuilt from a
// full range read at startup and after every append.
//
// The backend has no transactions. ConditionalWrite narrows the race window
// to a single call: it re-reads the target row, compares the stored version,
// and only then issues the cell update.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/panupunsiamwishco-dotcom/it-asset-tracker/internal/core/domain"
)

const (
	defaultTimeout = 10 * time.Second

	assetSheet = "assets"
	assetCols  = "A:I"

	// Data starts at row 2; row 1 holds the column headers.
	firstDataRow = 2
)

type Client struct {
	baseURL string
	sheetID string
	token   string
	httpc   *http.Client

	mu   sync.Mutex
	rows map[string]int // asset_id → absolute sheet row
}

// NewClient targets baseURL (e.g. https://sheets.googleapis.com/v4/spreadsheets)
// with a pre-issued bearer token. A zero or negative timeout falls back to
// defaultTimeout.
func NewClient(baseURL, sheetID, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		sheetID: sheetID,
		token:   token,
		httpc:   &http.Client{Timeout: timeout},
		rows:    map[string]int{},
	}
}

type valueRange struct {
	Range  string     `json:"range,omitempty"`
	Values [][]string `json:"values"`
}

// RefreshIndex rebuilds the row index from a full range read. Called at
// startup and whenever row positions may have shifted.
func (c *Client) RefreshIndex(ctx context.Context) error {
	vr, err := c.getValues(ctx, dataRange(assetSheet, assetCols))
	if err != nil {
		return fmt.Errorf("refresh index: %w", err)
	}

	index := make(map[string]int, len(vr.Values))
	for i, row := range vr.Values {
		if len(row) == 0 || row[0] == "" {
			continue
		}
		index[row[0]] = firstDataRow + i
	}

	c.mu.Lock()
	c.rows = index
	c.mu.Unlock()
	return nil
}

func (c *Client) Read(ctx context.Context, assetID string) (domain.Asset, error) {
	row, err := c.rowFor(ctx, assetID)
	if err != nil {
		return domain.Asset{}, err
	}
	asset, _, err := c.readRow(ctx, row)
	if err != nil {
		return domain.Asset{}, err
	}
	if asset.ID != assetID {
		// Index was stale; rebuild and retry the lookup once.
		if err := c.RefreshIndex(ctx); err != nil {
			return domain.Asset{}, err
		}
		row, err = c.rowFor(ctx, assetID)
		if err != nil {
			return domain.Asset{}, err
		}
		asset, _, err = c.readRow(ctx, row)
		if err != nil {
			return domain.Asset{}, err
		}
	}
	return asset, nil
}

// ConditionalWrite re-reads the target row and compares the stored version
// before writing. False means another writer advanced the version first and
// nothing was written.
func (c *Client) ConditionalWrite(ctx context.Context, assetID string, expectedVersion int64, row domain.Asset) (bool, error) {
	sheetRow, err := c.rowFor(ctx, assetID)
	if err != nil {
		return false, err
	}

	current, _, err := c.readRow(ctx, sheetRow)
	if err != nil {
		return false, err
	}
	if current.ID != assetID {
		return false, fmt.Errorf("row index out of date for %s: %w", assetID, domain.ErrTransientBackend)
	}
	if current.Version != expectedVersion {
		return false, nil
	}

	if err := c.putValues(ctx, rowRange(assetSheet, sheetRow), [][]string{encodeAssetRow(row)}); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Client) Append(ctx context.Context, row domain.Asset) error {
	err := c.appendValues(ctx, dataRange(assetSheet, assetCols), [][]string{encodeAssetRow(row)})
	if err != nil {
		return err
	}
	// Appending shifts the tail of the sheet; rebuild rather than guess the
	// landed position.
	return c.RefreshIndex(ctx)
}

func (c *Client) List(ctx context.Context) ([]domain.Asset, error) {
	vr, err := c.getValues(ctx, dataRange(assetSheet, assetCols))
	if err != nil {
		return nil, err
	}

	assets := make([]domain.Asset, 0, len(vr.Values))
	for i, cells := range vr.Values {
		if len(cells) == 0 || cells[0] == "" {
			continue
		}
		asset, err := decodeAssetRow(cells)
		if err != nil {
			return nil, fmt.Errorf("row %d: %v: %w", firstDataRow+i, err, domain.ErrPermanentBackend)
		}
		assets = append(assets, asset)
	}
	return assets, nil
}

func (c *Client) rowFor(ctx context.Context, assetID string) (int, error) {
	c.mu.Lock()
	row, ok := c.rows[assetID]
	c.mu.Unlock()
	if ok {
		return row, nil
	}

	if err := c.RefreshIndex(ctx); err != nil {
		return 0, err
	}

	c.mu.Lock()
	row, ok = c.rows[assetID]
	c.mu.Unlock()
	if !ok {
		return 0, domain.ErrNotFound
	}
	return row, nil
}

func (c *Client) readRow(ctx context.Context, sheetRow int) (domain.Asset, int, error) {
	vr, err := c.getValues(ctx, rowRange(assetSheet, sheetRow))
	if err != nil {
		return domain.Asset{}, 0, err
	}
	if len(vr.Values) == 0 || len(vr.Values[0]) == 0 {
		return domain.Asset{}, 0, domain.ErrNotFound
	}
	asset, err := decodeAssetRow(vr.Values[0])
	if err != nil {
		return domain.Asset{}, 0, fmt.Errorf("row %d: %v: %w", sheetRow, err, domain.ErrPermanentBackend)
	}
	return asset, sheetRow, nil
}

func (c *Client) getValues(ctx context.Context, rng string) (valueRange, error) {
	var vr valueRange
	err := c.do(ctx, http.MethodGet, c.valuesURL(rng, ""), nil, &vr)
	return vr, err
}

func (c *Client) putValues(ctx context.Context, rng string, values [][]string) error {
	body := valueRange{Values: values}
	return c.do(ctx, http.MethodPut, c.valuesURL(rng, "valueInputOption=RAW"), body, nil)
}

func (c *Client) appendValues(ctx context.Context, rng string, values [][]string) error {
	body := valueRange{Values: values}
	u := c.baseURL + "/" + c.sheetID + "/values/" + url.PathEscape(rng) + ":append?valueInputOption=RAW"
	return c.do(ctx, http.MethodPost, u, body, nil)
}

func (c *Client) valuesURL(rng, query string) string {
	u := c.baseURL + "/" + c.sheetID + "/values/" + url.PathEscape(rng)
	if query != "" {
		u += "?" + query
	}
	return u
}

func (c *Client) do(ctx context.Context, method, u string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		// Timeouts and connection failures: retriable, outcome unknown.
		return fmt.Errorf("%s %s: %v: %w", method, u, err, domain.ErrTransientBackend)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: status %d: %w", method, u, resp.StatusCode, classifyStatus(resp.StatusCode))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %v: %w", err, domain.ErrPermanentBackend)
		}
	}
	return nil
}

// classifyStatus maps rate limits and server errors to transient; anything
// else (auth, malformed range) will not get better on retry.
func classifyStatus(code int) error {
	if code == http.StatusTooManyRequests || code >= 500 {
		return domain.ErrTransientBackend
	}
	return domain.ErrPermanentBackend
}

func dataRange(sheet, cols string) string {
	return sheet + "!" + cols
}

func rowRange(sheet string, row int) string {
	return fmt.Sprintf("%s!A%d:I%d", sheet, row, row)
}

func encodeAssetRow(a domain.Asset) []string {
	return []string{
		a.ID,
		a.Branch,
		a.Category,
		a.Description,
		string(a.Status),
		a.Holder,
		strconv.FormatInt(a.Version, 10),
		a.LastModifiedAt.UTC().Format(time.RFC3339),
		a.LastModifiedBy,
	}
}

func decodeAssetRow(cells []string) (domain.Asset, error) {
	get := func(i int) string {
		if i < len(cells) {
			return cells[i]
		}
		return ""
	}

	version, err := strconv.ParseInt(get(6), 10, 64)
	if err != nil {
		return domain.Asset{}, fmt.Errorf("parse version %q: %v", get(6), err)
	}
	modifiedAt, err := time.Parse(time.RFC3339, get(7))
	if err != nil && get(7) != "" {
		return domain.Asset{}, fmt.Errorf("parse last_modified_at %q: %v", get(7), err)
	}

	return domain.Asset{
		ID:             get(0),
		Branch:         get(1),
		Category:       get(2),
		Description:    get(3),
		Status:         domain.Status(get(4)),
		Holder:         get(5),
		Version:        version,
		LastModifiedAt: modifiedAt,
		LastModifiedBy: get(8),
	}, nil
}
