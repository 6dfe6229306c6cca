package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/RMBLOGG/StreamFliix/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentType(t *testing.T) {
	tests := []struct {
		filePath string
		wantType string
	}{
		{"proof.png", "image/png"},
		{"proof.JPG", "image/jpeg"},
		{"proof.jpeg", "image/jpeg"},
		{"proof.gif", "image/gif"},
		{"proof.webp", "image/webp"},
		{"proof.pdf", "application/pdf"},
		{"unknown.xyz", "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.filePath, func(t *testing.T) {
			assert.Equal(t, tt.wantType, ContentType(tt.filePath))
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"bukti transfer.png", "bukti_transfer.png"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\me\proof.jpg`, "proof.jpg"},
		{".hidden.pdf", "hidden.pdf"},
		{"名前.png", "png"},
		{"", "file"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFilename(tt.in))
		})
	}
}

func TestLocalRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, "1_20240501_120000_proof.png", strings.NewReader("png-bytes"), 9, "image/png"))

	rc, err := store.Open(ctx, "1_20240501_120000_proof.png")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "png-bytes", string(data))

	require.NoError(t, store.Delete(ctx, "1_20240501_120000_proof.png"))

	_, err = store.Open(ctx, "1_20240501_120000_proof.png")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestLocalOpenStaysInsideDir(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	_, err = store.Open(ctx, "../../etc/passwd")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestNewUnknownBackend(t *testing.T) {
	_, err := New(config.StorageConfig{Backend: "ftp"})
	assert.Error(t, err)
}
