package pipeline

import "context"

// Record is the common image shape yielded by every source.
type Record struct {
	ID        string
	Name      string
	Image     []byte
	Latitude  float64
	Longitude float64
	// KnownSeverity is set by fixture sources whose filenames encode the
	// score; the pipeline then skips live classification and creates a
	// ticket for the record regardless of the threshold policy.
	KnownSeverity *int
}

// Source yields a batch of image records. Implementations isolate
// per-image fetch failures and only return an error when the batch as a
// whole cannot be produced.
type Source interface {
	Images(ctx context.Context) ([]Record, error)
}
