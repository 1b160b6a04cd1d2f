package blobstore

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryStorage_RoundTrip(t *testing.T) {
	store := NewMemoryStorage("")
	ctx := context.Background()
	data := []byte("%PDF-1.4 bill")

	obj, err := store.Put(ctx, "bills/u1/1-bill.pdf", data, "application/pdf")
	require.NoError(t, err)
	require.Equal(t, "/api/v1/media/bills/u1/1-bill.pdf", obj.URL)
	require.EqualValues(t, len(data), obj.Size)
	require.NotEmpty(t, obj.ETag)

	data[0] = 'X'
	rc, err := store.Get(ctx, obj.Key)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "%PDF-1.4 bill", string(got))

	require.NoError(t, store.Delete(ctx, obj.Key))
	_, err = store.Get(ctx, obj.Key)
	require.Error(t, err)
}

func TestMemoryStorage_PublicBase(t *testing.T) {
	store := NewMemoryStorage("https://cdn.example.com/solar/")
	obj, err := store.Put(context.Background(), "/artwork/p1/a.png", []byte{1}, "image/png")
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/solar/artwork/p1/a.png", obj.URL)
}

func TestSanitizeEndpoint(t *testing.T) {
	require.Equal(t, "acc.r2.cloudflarestorage.com", sanitizeEndpoint(" https://acc.r2.cloudflarestorage.com/bucket "))
	require.Equal(t, "localhost:9000", sanitizeEndpoint("http://localhost:9000"))
	require.Equal(t, "", sanitizeEndpoint(""))
}
