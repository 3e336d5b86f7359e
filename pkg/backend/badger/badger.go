// Package badger implements a storage backend persisting file content in
// BadgerDB, a fast embedded key-value store.
//
// This backend is suitable for:
//   - Filesystems whose content must survive process restarts
//   - Large working sets that should not live entirely in RAM
//
// Storage model: each data file owns one value in the database under a
// namespaced key ("content/<uuid>"). Ranged reads and writes are
// implemented read-modify-write inside Badger transactions; the owning
// node's lock already serializes operations per file, so transactions
// only guard against concurrent access to the shared database.
//
// Note: the node graph itself (names, hierarchy, metadata) is not
// persisted. The graph is an in-process structure; only content bytes
// outlive the process, keyed by IDs that a mounting layer can record.
package badger

import (
	"context"
	"fmt"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/driftlab/driftfs/pkg/fs"
	"github.com/driftlab/driftfs/pkg/metrics"
)

// contentKeyPrefix namespaces file content values in the database.
const contentKeyPrefix = "content/"

// Config contains configuration for the badger backend.
type Config struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string

	// InMemory runs the database without disk persistence. Useful for
	// tests and ephemeral deployments that still want Badger's
	// value-size handling.
	InMemory bool

	// Metrics receives storage operation observations. Nil disables
	// collection.
	Metrics metrics.StorageMetrics
}

// Backend creates files whose content is persisted in BadgerDB.
type Backend struct {
	db      *badgerdb.DB
	metrics metrics.StorageMetrics
}

// New opens the database and returns the backend. Close must be called
// to release the database lock directory.
func New(ctx context.Context, cfg Config) (*Backend, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !cfg.InMemory && cfg.Path == "" {
		return nil, fmt.Errorf("badger backend: path is required")
	}

	opts := badgerdb.DefaultOptions(cfg.Path).
		WithInMemory(cfg.InMemory).
		WithLogger(nil)
	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	m := cfg.Metrics
	if m == nil {
		m = metrics.NewNoopStorageMetrics()
	}
	return &Backend{db: db, metrics: m}, nil
}

// Close flushes and closes the database.
func (b *Backend) Close() error {
	return b.db.Close()
}

// CreateFile allocates a fresh content key and creates an empty value
// for it, so a file that is created and immediately statted reports
// size zero without a missing-key special case.
func (b *Backend) CreateFile(ctx context.Context, mode uint32) (*fs.DataFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := []byte(contentKeyPrefix + uuid.NewString())
	err := b.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(key, nil)
	})
	if err != nil {
		return nil, &fs.Error{Code: fs.ErrIOError, Message: fmt.Sprintf("failed to allocate content: %v", err)}
	}

	return fs.NewDataFile(mode, b, &content{db: b.db, key: key, metrics: b.metrics}), nil
}

// CreateDirectory creates a directory node. Directory entries live in
// the node model and are not persisted here.
func (b *Backend) CreateDirectory(ctx context.Context, mode uint32) (*fs.Directory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return fs.NewDirectory(mode, b), nil
}

// content is the byte store of one badger-backed file.
type content struct {
	db      *badgerdb.DB
	key     []byte
	metrics metrics.StorageMetrics
}

// load returns a copy of the current value inside the transaction.
func (c *content) load(txn *badgerdb.Txn) ([]byte, error) {
	item, err := txn.Get(c.key)
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

func (c *content) ReadAt(ctx context.Context, p []byte, off int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if off < 0 {
		return &fs.Error{Code: fs.ErrInvalidArgument, Message: "negative read offset"}
	}

	start := time.Now()
	err := c.db.View(func(txn *badgerdb.Txn) error {
		data, err := c.load(txn)
		if err != nil {
			return err
		}
		for i := range p {
			p[i] = 0
		}
		if off < int64(len(data)) {
			copy(p, data[off:])
		}
		return nil
	})
	c.metrics.RecordOperation("get", time.Since(start), err)
	if err != nil {
		return &fs.Error{Code: fs.ErrIOError, Message: fmt.Sprintf("badger read failed: %v", err)}
	}
	c.metrics.RecordBytes("out", len(p))
	return nil
}

func (c *content) WriteAt(ctx context.Context, p []byte, off int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if off < 0 {
		return &fs.Error{Code: fs.ErrInvalidArgument, Message: "negative write offset"}
	}

	start := time.Now()
	err := c.db.Update(func(txn *badgerdb.Txn) error {
		data, err := c.load(txn)
		if err != nil {
			return err
		}
		if need := off + int64(len(p)); need > int64(len(data)) {
			grown := make([]byte, need)
			copy(grown, data)
			data = grown
		}
		copy(data[off:], p)
		return txn.Set(c.key, data)
	})
	c.metrics.RecordOperation("set", time.Since(start), err)
	if err != nil {
		return &fs.Error{Code: fs.ErrIOError, Message: fmt.Sprintf("badger write failed: %v", err)}
	}
	c.metrics.RecordBytes("in", len(p))
	return nil
}

func (c *content) Size(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var size int64
	err := c.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(c.key)
		if err != nil {
			return err
		}
		size = item.ValueSize()
		return nil
	})
	if err != nil {
		return 0, &fs.Error{Code: fs.ErrIOError, Message: fmt.Sprintf("badger size lookup failed: %v", err)}
	}
	return size, nil
}
