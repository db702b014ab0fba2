package store

import (
	"context"
	"errors"
)

// Persisted slot keys.
const (
	KeyUsers    = "users"
	KeyProducts = "products"
	KeySales    = "sales"
	KeySettings = "settings"
	KeySession  = "session"
)

// ErrStorage marks read/write/parse failures against the persistence backend.
var ErrStorage = errors.New("storage access failure")

// KV is the raw persisted key-value backend under the typed slots.
type KV interface {
	Load(ctx context.Context, key string) (value []byte, ok bool, err error)
	Save(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Blob is a keyed binary value, kept out of the JSON slots so large images
// never bloat the product records.
type Blob struct {
	Data        []byte
	ContentType string
}

type Blobs interface {
	Put(ctx context.Context, key string, blob Blob) error
	Get(ctx context.Context, key string) (*Blob, bool, error)
	Delete(ctx context.Context, key string) error
}
