package media

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/yanqian/solarinfra/pkg/errors"
)

// Service stores customer bills and generated catalog artwork.
type Service interface {
	UploadBill(ctx context.Context, userID, filename string, data []byte, mimeType string) (StoredObject, error)
	GenerateArtwork(ctx context.Context, subjectID, prompt string) (StoredObject, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	ArtworkEnabled() bool
}

type service struct {
	cfg       Config
	storage   ObjectStorage
	generator ImageGenerator
	logger    *slog.Logger
	now       func() time.Time
}

// NewService wires the media domain. A nil generator disables artwork generation.
func NewService(cfg Config, storage ObjectStorage, generator ImageGenerator, logger *slog.Logger) Service {
	if cfg.MaxBillBytes <= 0 {
		cfg.MaxBillBytes = DefaultMaxBillBytes
	}
	if len(cfg.AllowedBillTypes) == 0 {
		cfg.AllowedBillTypes = DefaultBillTypes
	}
	return &service{
		cfg:       cfg,
		storage:   storage,
		generator: generator,
		logger:    logger.With("component", "media.service"),
		now:       time.Now,
	}
}

func (s *service) ArtworkEnabled() bool {
	return s.generator != nil && s.storage != nil
}

func (s *service) UploadBill(ctx context.Context, userID, filename string, data []byte, mimeType string) (StoredObject, error) {
	if s.storage == nil {
		return StoredObject{}, apperrors.Wrap(apperrors.CodeMediaDisabled, "blob storage is not configured", nil)
	}
	if strings.TrimSpace(userID) == "" {
		return StoredObject{}, apperrors.Wrap(apperrors.CodeUnauthorized, "user required", nil)
	}
	if len(data) == 0 {
		return StoredObject{}, apperrors.Wrap(apperrors.CodeInvalidInput, "bill file is empty", nil)
	}
	if int64(len(data)) > s.cfg.MaxBillBytes {
		return StoredObject{}, apperrors.Wrap(apperrors.CodeInvalidInput, fmt.Sprintf("bill exceeds %d bytes", s.cfg.MaxBillBytes), nil)
	}
	mimeType = baseMime(mimeType)
	if !slices.Contains(s.cfg.AllowedBillTypes, mimeType) {
		return StoredObject{}, apperrors.Wrap(apperrors.CodeInvalidInput, "unsupported bill format "+mimeType, nil)
	}

	key := path.Join("bills", userID, fmt.Sprintf("%d-%s", s.now().UTC().Unix(), sanitizeFilename(filename)))
	obj, err := s.storage.Put(ctx, key, data, mimeType)
	if err != nil {
		return StoredObject{}, apperrors.Wrap(apperrors.CodeMediaError, "failed to store bill", err)
	}
	s.logger.Info("bill stored", "userId", userID, "key", obj.Key, "size", obj.Size)
	return obj, nil
}

func (s *service) GenerateArtwork(ctx context.Context, subjectID, prompt string) (StoredObject, error) {
	if !s.ArtworkEnabled() {
		return StoredObject{}, apperrors.Wrap(apperrors.CodeMediaDisabled, "image generation is not configured", nil)
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return StoredObject{}, apperrors.Wrap(apperrors.CodeInvalidInput, "prompt cannot be empty", nil)
	}
	img, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return StoredObject{}, apperrors.Wrap(apperrors.CodeMediaError, "image generation failed", err)
	}
	if len(img.Data) == 0 {
		return StoredObject{}, apperrors.Wrap(apperrors.CodeMediaError, "image generator returned no data", nil)
	}
	mimeType := baseMime(img.MimeType)
	if mimeType == "" {
		mimeType = "image/png"
	}
	key := path.Join("artwork", subjectID, uuid.NewString()+extensionFor(mimeType))
	obj, err := s.storage.Put(ctx, key, img.Data, mimeType)
	if err != nil {
		return StoredObject{}, apperrors.Wrap(apperrors.CodeMediaError, "failed to store artwork", err)
	}
	s.logger.Info("artwork stored", "subject", subjectID, "key", obj.Key, "size", obj.Size)
	return obj, nil
}

func (s *service) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if s.storage == nil {
		return nil, apperrors.Wrap(apperrors.CodeMediaDisabled, "blob storage is not configured", nil)
	}
	clean := strings.TrimPrefix(path.Clean("/"+key), "/")
	if clean == "" || clean != strings.TrimPrefix(key, "/") {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "invalid object key", nil)
	}
	rc, err := s.storage.Get(ctx, clean)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeNotFound, "object not found", err)
	}
	return rc, nil
}

func baseMime(raw string) string {
	mimeType, _, _ := strings.Cut(raw, ";")
	return strings.ToLower(strings.TrimSpace(mimeType))
}

func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "bill"
	}
	return out
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}
