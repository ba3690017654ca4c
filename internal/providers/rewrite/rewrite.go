package rewrite

import "context"

// Provider rewrites an entry's bullet points against a job description. It is
// a black-box collaborator of the selection pipeline; callers must tolerate
// failures by keeping the original bullets.
type Provider interface {
	// RewriteBullets returns one rewritten string per input bullet, same order.
	RewriteBullets(ctx context.Context, jdSummary string, bullets []string) ([]string, error)
	Close() error
}
