package proxy_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftlab/driftfs/pkg/backend/memory"
	"github.com/driftlab/driftfs/pkg/backend/proxy"
	"github.com/driftlab/driftfs/pkg/fs"
)

func newBackend(t *testing.T) *proxy.Backend {
	t.Helper()
	b := proxy.New(memory.New())
	t.Cleanup(func() { require.NoError(t, b.Close()) })
	return b
}

func TestCreateFile_ProxiedRoundtrip(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)

	file, err := b.CreateFile(ctx, 0o644)
	require.NoError(t, err)
	assert.Equal(t, fs.Backend(b), file.Backend(),
		"the node must report the proxy, not the inner backend")

	h := file.Locked()
	defer h.Unlock()

	data := []byte("through the worker")
	require.NoError(t, h.Write(ctx, data, 0))

	got := make([]byte, len(data))
	require.NoError(t, h.Read(ctx, got, 0))
	assert.Equal(t, data, got)

	size, err := h.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), size)
}

func TestCreateDirectory_NoWorkerInvolved(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)

	dir, err := b.CreateDirectory(ctx, 0o755)
	require.NoError(t, err)
	assert.Equal(t, fs.KindDirectory, dir.Kind())
}

func TestConcurrentFiles(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)

	const files = 8
	var wg sync.WaitGroup
	wg.Add(files)
	for i := 0; i < files; i++ {
		go func(n byte) {
			defer wg.Done()

			file, err := b.CreateFile(ctx, 0o644)
			if !assert.NoError(t, err) {
				return
			}
			h := file.Locked()
			defer h.Unlock()

			data := []byte{n, n, n}
			if !assert.NoError(t, h.Write(ctx, data, 0)) {
				return
			}
			got := make([]byte, len(data))
			if !assert.NoError(t, h.Read(ctx, got, 0)) {
				return
			}
			assert.Equal(t, data, got)
		}(byte(i))
	}
	wg.Wait()
}

func TestClose_StopsWorker(t *testing.T) {
	b := proxy.New(memory.New())
	require.NoError(t, b.Close())
}
