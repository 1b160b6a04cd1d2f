package media

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/solarinfra/pkg/errors"
)

func TestService_UploadBill(t *testing.T) {
	store := newStubStorage()
	svc := NewService(Config{MaxBillBytes: 16}, store, nil, newTestLogger())
	svc.(*service).now = func() time.Time { return time.Unix(1700000000, 0) }

	obj, err := svc.UploadBill(context.Background(), "u1", "../My Bill (May).pdf", []byte("%PDF-1.4"), "application/pdf; charset=binary")
	require.NoError(t, err)
	require.Equal(t, "bills/u1/1700000000-My_Bill__May_.pdf", obj.Key)
	require.Equal(t, "application/pdf", obj.MimeType)
	require.Equal(t, "mem://bills/u1/1700000000-My_Bill__May_.pdf", obj.URL)

	_, err = svc.UploadBill(context.Background(), "u1", "bill.pdf", bytes.Repeat([]byte("x"), 17), "application/pdf")
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))

	_, err = svc.UploadBill(context.Background(), "u1", "bill.exe", []byte("MZ"), "application/x-msdownload")
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))

	_, err = svc.UploadBill(context.Background(), "u1", "bill.pdf", nil, "application/pdf")
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
}

func TestService_GenerateArtwork(t *testing.T) {
	store := newStubStorage()
	gen := &stubGenerator{image: Image{Data: []byte{0x89, 'P', 'N', 'G'}, MimeType: "image/jpeg"}}
	svc := NewService(Config{}, store, gen, newTestLogger())
	require.True(t, svc.ArtworkEnabled())

	obj, err := svc.GenerateArtwork(context.Background(), "prod-1", "  rooftop solar kit at dawn ")
	require.NoError(t, err)
	require.Equal(t, "rooftop solar kit at dawn", gen.prompt)
	require.True(t, strings.HasPrefix(obj.Key, "artwork/prod-1/"))
	require.True(t, strings.HasSuffix(obj.Key, ".jpg"))

	gen.err = errors.New("quota exceeded")
	_, err = svc.GenerateArtwork(context.Background(), "prod-1", "x")
	require.True(t, apperrors.IsCode(err, apperrors.CodeMediaError))
}

func TestService_ArtworkDisabledWithoutGenerator(t *testing.T) {
	svc := NewService(Config{}, newStubStorage(), nil, newTestLogger())
	require.False(t, svc.ArtworkEnabled())
	_, err := svc.GenerateArtwork(context.Background(), "prod-1", "panels")
	require.True(t, apperrors.IsCode(err, apperrors.CodeMediaDisabled))
}

func TestService_OpenRejectsTraversal(t *testing.T) {
	store := newStubStorage()
	svc := NewService(Config{}, store, nil, newTestLogger())
	_, err := store.Put(context.Background(), "bills/u1/a.pdf", []byte("pdf"), "application/pdf")
	require.NoError(t, err)

	rc, err := svc.Open(context.Background(), "bills/u1/a.pdf")
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "pdf", string(body))

	_, err = svc.Open(context.Background(), "bills/../../etc/passwd")
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))

	_, err = svc.Open(context.Background(), "bills/u1/missing.pdf")
	require.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubStorage struct {
	blobs map[string][]byte
}

func newStubStorage() *stubStorage {
	return &stubStorage{blobs: make(map[string][]byte)}
}

func (s *stubStorage) Put(_ context.Context, key string, data []byte, mimeType string) (StoredObject, error) {
	s.blobs[key] = data
	return StoredObject{Key: key, Size: int64(len(data)), MimeType: mimeType, URL: "mem://" + key}, nil
}

func (s *stubStorage) Get(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := s.blobs[key]
	if !ok {
		return nil, errors.New("missing")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *stubStorage) Delete(_ context.Context, key string) error {
	delete(s.blobs, key)
	return nil
}

type stubGenerator struct {
	image  Image
	err    error
	prompt string
}

func (g *stubGenerator) Generate(_ context.Context, prompt string) (Image, error) {
	g.prompt = prompt
	if g.err != nil {
		return Image{}, g.err
	}
	return g.image, nil
}
