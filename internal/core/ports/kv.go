package ports

import (
	"context"
	"encoding/json"
)

// ReplayCache stores idempotent response payloads keyed by the client's
// Idempotency-Key header. Lookups that miss return found=false, not an error.
type ReplayCache interface {
	Put(ctx context.Context, key string, value json.RawMessage) error
	Get(ctx context.Context, key string) (json.RawMessage, bool, error)
}
