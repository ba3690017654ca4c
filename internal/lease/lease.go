package lease

import (
	"context"
	"time"
)

// Lease is a per-key mutual-exclusion lease held in a shared store, so the
// "one tailoring pipeline per user" guarantee holds across service instances,
// not just within one process.
type Lease interface {
	// Acquire returns acquired=false when another holder owns the key. The
	// release func is safe to call regardless and only frees the key when the
	// caller still holds it.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), acquired bool, err error)
}
