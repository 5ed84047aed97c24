// Package storage abstracts the external photo store so handlers and
// services never talk to Cloudinary directly.
package storage

import (
	"context"
	"io"
)

// UploadedPhoto is the result of a successful upload. PublicID is the
// store's object key and is what Destroy expects back.
type UploadedPhoto struct {
	URL      string
	PublicID string
}

type PhotoStore interface {
	Upload(ctx context.Context, file io.Reader, publicID string) (*UploadedPhoto, error)
	Destroy(ctx context.Context, publicID string) error
}
