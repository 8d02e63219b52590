package domain

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

var (
	ErrNotFound        = errors.New("asset not found")
	ErrInvalidState    = errors.New("transition not allowed from current status")
	ErrVersionConflict = errors.New("version conflict")
	ErrIndeterminate   = errors.New("write outcome unknown")
	ErrPermission      = errors.New("insufficient role")
	ErrTagExhausted    = errors.New("asset tag generation exhausted")
	ErrAuditWrite      = errors.New("audit append failed")

	// Backend error classes. Adapters wrap the underlying cause with one of
	// these so the registry can decide whether a retry is safe.
	ErrTransientBackend = errors.New("transient backend error")
	ErrPermanentBackend = errors.New("permanent backend error")
)

type Status string

const (
	StatusInStock  Status = "in_stock"
	StatusAssigned Status = "assigned"
	StatusRetired  Status = "retired"
)

func (s Status) Valid() bool {
	switch s {
	case StatusInStock, StatusAssigned, StatusRetired:
		return true
	}
	return false
}

// assetIDPattern matches generated tags: three branch digits, a two-digit
// year, and a running number.
var assetIDPattern = regexp.MustCompile(`^[0-9]{10}$`)

type Asset struct {
	ID             string
	Branch         string
	Category       string
	Description    string
	Status         Status
	Holder         string
	Version        int64
	LastModifiedAt time.Time
	LastModifiedBy string
}

// Validate checks structural well-formedness plus the holder/status
// invariant: holder is set if and only if the asset is assigned.
func (a Asset) Validate() error {
	if a.ID == "" {
		return errors.New("asset id must not be empty")
	}
	if !a.Status.Valid() {
		return fmt.Errorf("unknown status %q", a.Status)
	}
	if a.Status == StatusAssigned && a.Holder == "" {
		return errors.New("assigned asset must have a holder")
	}
	if a.Status != StatusAssigned && a.Holder != "" {
		return fmt.Errorf("%s asset must not have a holder", a.Status)
	}
	if a.Version < 0 {
		return errors.New("version must not be negative")
	}
	return nil
}

func ValidAssetID(id string) bool {
	return assetIDPattern.MatchString(id)
}
