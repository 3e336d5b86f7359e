package fs_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftlab/driftfs/pkg/backend/memory"
	"github.com/driftlab/driftfs/pkg/fs"
)

// newFS builds a filesystem over the in-memory backend.
func newFS(t *testing.T) *fs.FS {
	t.Helper()
	fsys, err := fs.New(context.Background(), memory.New())
	require.NoError(t, err)
	return fsys
}

// mkdir creates and links a directory under parent.
func mkdir(t *testing.T, fsys *fs.FS, parent *fs.Directory, name string) *fs.Directory {
	t.Helper()
	dir, err := fsys.Root().Backend().CreateDirectory(context.Background(), 0o755)
	require.NoError(t, err)
	h := parent.Locked()
	h.SetEntry(name, dir)
	h.Unlock()
	return dir
}

// mkfile creates and links a data file under parent.
func mkfile(t *testing.T, fsys *fs.FS, parent *fs.Directory, name string) *fs.DataFile {
	t.Helper()
	file, err := fsys.Root().Backend().CreateFile(context.Background(), 0o644)
	require.NoError(t, err)
	h := parent.Locked()
	h.SetEntry(name, file)
	h.Unlock()
	return file
}

func TestSplitPath(t *testing.T) {
	tests := []struct {
		name string
		path string
		want []string
	}{
		{"absolute", "/a/b/c", []string{"/", "a", "b", "c"}},
		{"relative", "a/b", []string{"a", "b"}},
		{"root", "/", []string{"/"}},
		{"empty", "", nil},
		{"duplicate separators", "//a///b", []string{"/", "a", "b"}},
		{"trailing separator", "/a/b/", []string{"/", "a", "b"}},
		{"single component", "a", []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fs.SplitPath(tt.path))
		})
	}
}

func TestParsePath_Root(t *testing.T) {
	fsys := newFS(t)

	parsed, err := fsys.ParsePath(fs.SplitPath("/"), nil)
	require.NoError(t, err)
	defer parsed.Parent.Unlock()

	// The root is its own parent.
	assert.Equal(t, fs.Node(fsys.Root()), parsed.Parent.Node())
	assert.Equal(t, fs.Node(fsys.Root()), parsed.Child)
}

func TestParsePath_EmptyPath(t *testing.T) {
	fsys := newFS(t)

	_, err := fsys.ParsePath(nil, nil)
	var fsErr *fs.Error
	require.ErrorAs(t, err, &fsErr)
	assert.Equal(t, fs.ErrInvalidArgument, fsErr.Code)
}

func TestParsePath_ExistingChild(t *testing.T) {
	fsys := newFS(t)
	dir := mkdir(t, fsys, fsys.Root(), "a")
	file := mkfile(t, fsys, dir, "f")

	parsed, err := fsys.ParsePath(fs.SplitPath("/a/f"), nil)
	require.NoError(t, err)
	defer parsed.Parent.Unlock()

	assert.Equal(t, fs.Node(dir), parsed.Parent.Node())
	assert.Equal(t, fs.Node(file), parsed.Child)
}

func TestParsePath_MissingFinalComponent(t *testing.T) {
	fsys := newFS(t)
	mkdir(t, fsys, fsys.Root(), "a")

	parsed, err := fsys.ParsePath(fs.SplitPath("/a/missing"), nil)
	require.NoError(t, err, "a missing final component is not an error")
	defer parsed.Parent.Unlock()

	assert.Nil(t, parsed.Child)
}

func TestParsePath_MissingIntermediate(t *testing.T) {
	fsys := newFS(t)

	_, err := fsys.ParsePath(fs.SplitPath("/missing/f"), nil)
	var fsErr *fs.Error
	require.ErrorAs(t, err, &fsErr)
	assert.Equal(t, fs.ErrNotFound, fsErr.Code)
}

func TestParsePath_FileAsIntermediate(t *testing.T) {
	fsys := newFS(t)
	mkfile(t, fsys, fsys.Root(), "f")

	_, err := fsys.ParsePath(fs.SplitPath("/f/x"), nil)
	var fsErr *fs.Error
	require.ErrorAs(t, err, &fsErr)
	assert.Equal(t, fs.ErrNotDirectory, fsErr.Code)
}

func TestParsePath_ForbiddenAncestor(t *testing.T) {
	fsys := newFS(t)
	a := mkdir(t, fsys, fsys.Root(), "a")
	mkdir(t, fsys, a, "b")

	_, err := fsys.ParsePath(fs.SplitPath("/a/b/c"), a)
	var fsErr *fs.Error
	require.ErrorAs(t, err, &fsErr)
	assert.Equal(t, fs.ErrInvalidArgument, fsErr.Code)
}

func TestParsePath_RelativeUsesCWD(t *testing.T) {
	fsys := newFS(t)
	a := mkdir(t, fsys, fsys.Root(), "a")
	file := mkfile(t, fsys, a, "f")

	fsys.SetCWD(a)
	parsed, err := fsys.ParsePath(fs.SplitPath("f"), nil)
	require.NoError(t, err)
	defer parsed.Parent.Unlock()

	assert.Equal(t, fs.Node(file), parsed.Child)
}

func TestResolveDir(t *testing.T) {
	fsys := newFS(t)
	a := mkdir(t, fsys, fsys.Root(), "a")
	b := mkdir(t, fsys, a, "b")

	got, err := fsys.ResolveDir(fs.SplitPath("/a/b"), nil)
	require.NoError(t, err)
	assert.Equal(t, b, got)
}

func TestResolveDir_FinalComponentMustBeDirectory(t *testing.T) {
	fsys := newFS(t)
	mkfile(t, fsys, fsys.Root(), "f")

	_, err := fsys.ResolveDir(fs.SplitPath("/f"), nil)
	var fsErr *fs.Error
	require.ErrorAs(t, err, &fsErr)
	assert.Equal(t, fs.ErrNotDirectory, fsErr.Code)
}

func TestResolveDir_ForbiddenFinalComponent(t *testing.T) {
	fsys := newFS(t)
	a := mkdir(t, fsys, fsys.Root(), "a")

	_, err := fsys.ResolveDir(fs.SplitPath("/a"), a)
	var fsErr *fs.Error
	require.ErrorAs(t, err, &fsErr)
	assert.Equal(t, fs.ErrInvalidArgument, fsErr.Code)
}
