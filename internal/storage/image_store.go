package storage

import "context"

// ImageStore hosts image bytes and returns a durable public URL.
// Failures are surfaced to the caller, never retried internally.
type ImageStore interface {
	Upload(ctx context.Context, image []byte) (string, error)
}
