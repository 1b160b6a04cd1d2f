package media

import (
	"context"
	"io"
)

// ObjectStorage abstracts blob storage (S3/R2/MinIO/memory).
type ObjectStorage interface {
	Put(ctx context.Context, key string, data []byte, mimeType string) (StoredObject, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// StoredObject captures persisted blob metadata and a retrievable URL.
type StoredObject struct {
	Key      string `json:"key"`
	Size     int64  `json:"size"`
	MimeType string `json:"mimeType"`
	ETag     string `json:"etag,omitempty"`
	URL      string `json:"url"`
}

// Image is raw generated artwork.
type Image struct {
	Data     []byte
	MimeType string
}

// ImageGenerator turns a text prompt into image bytes.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) (Image, error)
}

// Config bounds uploads.
type Config struct {
	MaxBillBytes     int64
	AllowedBillTypes []string
}

// DefaultMaxBillBytes caps electricity bill uploads.
const DefaultMaxBillBytes = 10 << 20

// DefaultBillTypes are the accepted bill formats.
var DefaultBillTypes = []string{"application/pdf", "image/png", "image/jpeg", "image/webp"}
