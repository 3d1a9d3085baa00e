package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exercise(t *testing.T, s BlobStore) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "temp/a.pdf", strings.NewReader("pdf"), 3))
	require.NoError(t, s.MoveToPermanent(ctx, "temp/a.pdf", "documents/b.pdf"))

	err := s.MoveToPermanent(ctx, "temp/a.pdf", "documents/c.pdf")
	assert.ErrorIs(t, err, ErrNotExist)

	require.NoError(t, s.Delete(ctx, "documents/b.pdf"))
	assert.NoError(t, s.Delete(ctx, "documents/b.pdf"), "delete is idempotent")

	assert.Error(t, s.Put(ctx, "../escape.pdf", strings.NewReader("x"), 1))
}

func TestLocal(t *testing.T) {
	root := t.TempDir()
	l, err := NewLocal(root)
	require.NoError(t, err)
	exercise(t, l)

	ctx := context.Background()
	require.NoError(t, l.Put(ctx, "temp/x.png", strings.NewReader("png"), 3))
	require.NoError(t, l.MoveToPermanent(ctx, "temp/x.png", "licenses/y.png"))

	_, err = os.Stat(filepath.Join(root, "temp", "x.png"))
	assert.True(t, os.IsNotExist(err))
	b, err := os.ReadFile(filepath.Join(root, "licenses", "y.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(b))
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	exercise(t, m)

	require.NoError(t, m.Put(context.Background(), "temp/z.pdf", strings.NewReader("z"), 1))
	b, ok := m.Get("temp/z.pdf")
	assert.True(t, ok)
	assert.Equal(t, "z", string(b))
	assert.Equal(t, []string{"temp/z.pdf"}, m.Keys())
}
