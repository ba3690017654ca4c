package embedding

import "context"

// Provider maps text to a fixed-length vector. Implementations must be
// deterministic: identical input yields an identical vector.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Close() error
}
