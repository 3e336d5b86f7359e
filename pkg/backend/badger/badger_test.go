package badger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftlab/driftfs/pkg/backend/badger"
	"github.com/driftlab/driftfs/pkg/fs"
)

// newBackend opens an in-memory database so tests need no cleanup beyond
// Close.
func newBackend(t *testing.T) *badger.Backend {
	t.Helper()
	b, err := badger.New(context.Background(), badger.Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, b.Close()) })
	return b
}

func TestNew_RequiresPathOrInMemory(t *testing.T) {
	_, err := badger.New(context.Background(), badger.Config{})
	require.Error(t, err)
}

func TestNew_OnDisk(t *testing.T) {
	b, err := badger.New(context.Background(), badger.Config{Path: t.TempDir()})
	require.NoError(t, err)
	require.NoError(t, b.Close())
}

func TestCreateFile_EmptyValueExists(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)

	file, err := b.CreateFile(ctx, 0o644)
	require.NoError(t, err)

	h := file.Locked()
	defer h.Unlock()

	size, err := h.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), size)
}

func TestWriteRead_Roundtrip(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)

	file, err := b.CreateFile(ctx, 0o644)
	require.NoError(t, err)

	h := file.Locked()
	defer h.Unlock()

	data := []byte("persisted bytes")
	require.NoError(t, h.Write(ctx, data, 0))

	got := make([]byte, len(data))
	require.NoError(t, h.Read(ctx, got, 0))
	assert.Equal(t, data, got)

	size, err := h.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), size)
}

func TestWrite_GrowWithGap(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)

	file, err := b.CreateFile(ctx, 0o644)
	require.NoError(t, err)

	h := file.Locked()
	defer h.Unlock()

	require.NoError(t, h.Write(ctx, []byte("tail"), 8))

	size, err := h.Size(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(12), size)

	got := make([]byte, 12)
	require.NoError(t, h.Read(ctx, got, 0))
	assert.Equal(t, append(make([]byte, 8), []byte("tail")...), got)
}

func TestFiles_AreIsolated(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)

	first, err := b.CreateFile(ctx, 0o644)
	require.NoError(t, err)
	second, err := b.CreateFile(ctx, 0o644)
	require.NoError(t, err)

	h1 := first.Locked()
	require.NoError(t, h1.Write(ctx, []byte("one"), 0))
	h1.Unlock()

	h2 := second.Locked()
	defer h2.Unlock()
	size, err := h2.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), size, "writes to one file must not affect another")
}

func TestCreateDirectory(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)

	dir, err := b.CreateDirectory(ctx, 0o755)
	require.NoError(t, err)
	assert.Equal(t, fs.KindDirectory, dir.Kind())
}
