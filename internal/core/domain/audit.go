package domain

import "time"

const (
	ActionCreate   = "create"
	ActionCheckOut = "check_out"
	ActionCheckIn  = "check_in"
	ActionRetire   = "retire"
	ActionEdit     = "edit"
)

// AuditRecord is one immutable ledger entry. Records are only ever appended,
// never updated or deleted, so the version pair reconstructs the full
// mutation sequence of an asset.
type AuditRecord struct {
	ID              string
	AssetID         string
	Action          string
	Actor           string
	Timestamp       time.Time
	PreviousVersion int64
	NewVersion      int64
	Note            string
}

type AuditFilter struct {
	AssetID string
	Action  string
	Actor   string
	Limit   int
}
