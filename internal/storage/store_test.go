package storage

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	root := filepath.Join(t.TempDir(), "uploads")
	store := NewLocalStore(root)
	ctx := context.Background()

	ref, err := store.Put(ctx, "../../etc/budget.pdf", strings.NewReader("pdf bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "uploads/"))
	assert.True(t, strings.HasSuffix(ref, "budget.pdf"))

	rc, err := store.Open(ctx, ref)
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "pdf bytes", string(body))

	require.NoError(t, store.Delete(ctx, ref))
	_, err = store.Open(ctx, ref)
	assert.Error(t, err)
}

func TestLocalStoreNamesAreUnique(t *testing.T) {
	store := NewLocalStore(filepath.Join(t.TempDir(), "uploads"))
	a, err := store.Put(context.Background(), "a.txt", strings.NewReader("1"))
	require.NoError(t, err)
	b, err := store.Put(context.Background(), "a.txt", strings.NewReader("2"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestLocalStoreRejectsEscapes(t *testing.T) {
	store := NewLocalStore(filepath.Join(t.TempDir(), "uploads"))
	_, err := store.Open(context.Background(), "uploads/../secret")
	assert.ErrorIs(t, err, ErrInvalidName)
	_, err = store.Put(context.Background(), "", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrInvalidName)
}
