// Package proxy implements a storage backend that funnels every content
// operation of an inner backend through a sync-to-async bridge.
//
// The inner backend's files live on the bridge's dedicated worker; reads,
// writes and size queries block the calling goroutine until the worker
// has completed them. This is how a backend whose real I/O is
// asynchronous (an event-loop-driven host API, a remote store with
// callback completion) presents the synchronous fs.Content contract to
// the node model.
package proxy

import (
	"context"

	"github.com/driftlab/driftfs/pkg/bridge"
	"github.com/driftlab/driftfs/pkg/fs"
)

// Backend wraps an inner backend with a dedicated bridge worker.
type Backend struct {
	inner  fs.Backend
	bridge *bridge.Bridge
}

// New creates a proxy backend over inner. The bridge worker is started
// immediately; Close must be called to shut it down.
func New(inner fs.Backend) *Backend {
	return &Backend{
		inner:  inner,
		bridge: bridge.New(),
	}
}

// CreateFile creates the file in the inner backend on the worker, then
// wraps its content so all subsequent I/O is proxied as well.
func (b *Backend) CreateFile(ctx context.Context, mode uint32) (*fs.DataFile, error) {
	var (
		inner *fs.DataFile
		err   error
	)
	b.bridge.Invoke(func(resume *bridge.Resume) {
		inner, err = b.inner.CreateFile(ctx, mode)
		resume.Done()
	})
	if err != nil {
		return nil, err
	}
	return fs.NewDataFile(mode, b, &proxiedContent{bridge: b.bridge, file: inner}), nil
}

// CreateDirectory creates a plain directory node. Directory entries live
// in the node model, so nothing needs to run on the worker.
func (b *Backend) CreateDirectory(ctx context.Context, mode uint32) (*fs.Directory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return fs.NewDirectory(mode, b), nil
}

// Close shuts down the bridge worker. No operation on any file created
// by this backend may be in flight.
func (b *Backend) Close() error {
	b.bridge.Close()
	return nil
}

// proxiedContent forwards content operations to the file residing on the
// worker. Each call locks the inner file on the worker side, so the
// inner backend sees the same lock-held contract it would see if used
// directly.
type proxiedContent struct {
	bridge *bridge.Bridge
	file   *fs.DataFile
}

func (c *proxiedContent) ReadAt(ctx context.Context, p []byte, off int64) error {
	var err error
	c.bridge.Invoke(func(resume *bridge.Resume) {
		h := c.file.Locked()
		err = h.Read(ctx, p, off)
		h.Unlock()
		resume.Done()
	})
	return err
}

func (c *proxiedContent) WriteAt(ctx context.Context, p []byte, off int64) error {
	var err error
	c.bridge.Invoke(func(resume *bridge.Resume) {
		h := c.file.Locked()
		err = h.Write(ctx, p, off)
		h.Unlock()
		resume.Done()
	})
	return err
}

func (c *proxiedContent) Size(ctx context.Context) (int64, error) {
	var (
		size int64
		err  error
	)
	c.bridge.Invoke(func(resume *bridge.Resume) {
		h := c.file.Locked()
		size, err = h.Size(ctx)
		h.Unlock()
		resume.Done()
	})
	return size, err
}
