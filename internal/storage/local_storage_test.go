package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (ImageStore, string, string) {
	t.Helper()
	root := t.TempDir()
	uploads := filepath.Join(root, "uploads")
	processed := filepath.Join(root, "processed")
	store, err := NewLocalStorage(uploads, processed)
	require.NoError(t, err)
	return store, uploads, processed
}

func TestLocalStorage_SaveAndOpen(t *testing.T) {
	store, uploads, _ := newTestStore(t)
	ctx := context.Background()

	n, err := store.Save(ctx, "a.jpg", strings.NewReader("jpeg-bytes"))
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)
	assert.FileExists(t, filepath.Join(uploads, "a.jpg"))

	rc, err := store.Open(ctx, "a.jpg")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))
	assert.Equal(t, "local", store.Backend())
}

func TestLocalStorage_LookupOrder(t *testing.T) {
	store, uploads, processed := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(filepath.Join(processed, "only-processed.png"), []byte("p"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(processed, "both.png"), []byte("p"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(uploads, "both.png"), []byte("u"), 0o644))

	read := func(name string) string {
		rc, err := store.Open(ctx, name)
		require.NoError(t, err)
		defer rc.Close()
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		return string(data)
	}

	assert.Equal(t, "p", read("only-processed.png"))
	assert.Equal(t, "u", read("both.png"))
}

func TestLocalStorage_NotFound(t *testing.T) {
	store, _, _ := newTestStore(t)

	_, err := store.Open(context.Background(), "missing.jpg")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrObjectNotFound))
}

func TestLocalStorage_RejectsUnsafeNames(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"", ".", "..", "../etc/passwd", "a/b.jpg", `a\b.jpg`, "x..jpg"} {
		_, err := store.Save(ctx, name, bytes.NewReader(nil))
		assert.ErrorIs(t, err, ErrInvalidName, "save %q", name)

		_, err = store.Open(ctx, name)
		assert.ErrorIs(t, err, ErrInvalidName, "open %q", name)
	}
}

func TestLocalStorage_SaveCancelled(t *testing.T) {
	store, uploads, _ := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Save(ctx, "c.jpg", strings.NewReader("x"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, filepath.Join(uploads, "c.jpg"))
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestLocalStorage_SaveFailureLeavesNoFile(t *testing.T) {
	store, uploads, _ := newTestStore(t)

	_, err := store.Save(context.Background(), "broken.jpg", failingReader{})
	require.Error(t, err)

	entries, err := os.ReadDir(uploads)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
