package blobstore

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/yanqian/solarinfra/internal/domain/media"
)

// DefaultPublicBase is where the HTTP layer serves blobs when no bucket URL is configured.
const DefaultPublicBase = "/api/v1/media/"

// MemoryStorage keeps blobs in memory. Useful for tests and local dev.
type MemoryStorage struct {
	mu         sync.RWMutex
	blobs      map[string]storedBlob
	publicBase string
}

type storedBlob struct {
	data     []byte
	mimeType string
	etag     string
}

// NewMemoryStorage constructs storage; URLs are publicBase + key.
func NewMemoryStorage(publicBase string) *MemoryStorage {
	if strings.TrimSpace(publicBase) == "" {
		publicBase = DefaultPublicBase
	}
	return &MemoryStorage{blobs: make(map[string]storedBlob), publicBase: publicBase}
}

// Put stores a copy of the blob and returns metadata.
func (s *MemoryStorage) Put(_ context.Context, key string, data []byte, mimeType string) (media.StoredObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hash := md5.Sum(data)
	etag := hex.EncodeToString(hash[:])
	s.blobs[key] = storedBlob{data: bytes.Clone(data), mimeType: mimeType, etag: etag}
	return media.StoredObject{
		Key:      key,
		Size:     int64(len(data)),
		MimeType: mimeType,
		ETag:     etag,
		URL:      joinURL(s.publicBase, key),
	}, nil
}

// Get returns a reader for the stored blob.
func (s *MemoryStorage) Get(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	blob, ok := s.blobs[key]
	if !ok {
		return nil, fmt.Errorf("blob %q not found", key)
	}
	return io.NopCloser(bytes.NewReader(blob.data)), nil
}

// Delete removes the blob.
func (s *MemoryStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	return nil
}

var _ media.ObjectStorage = (*MemoryStorage)(nil)

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
