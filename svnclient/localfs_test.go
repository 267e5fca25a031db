package svnclient

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSFileReader_ReadFileChecksums(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("hello world"), 0o644))

	reader := newFSFileReader(root, newFilePropStore(root))

	data, sum, err := reader.ReadFile(context.Background(), filepath.Join(root, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))
	assert.Equal(t, "sha1", sum.Algo)
	assert.True(t, sum.Present())
}

func TestFSFileReader_ReadPropChangesReflectsPropStore(t *testing.T) {
	root := t.TempDir()
	props := newFilePropStore(root)
	ctx := context.Background()
	require.NoError(t, props.SetProp(ctx, "a.txt", "svn:mime-type", []byte("text/plain")))

	reader := newFSFileReader(root, props)

	changes, err := reader.ReadPropChanges(ctx, filepath.Join(root, "a.txt"))
	require.NoError(t, err)
	require.Contains(t, changes, "svn:mime-type")
	assert.True(t, changes["svn:mime-type"].Set)
	assert.Equal(t, []byte("text/plain"), changes["svn:mime-type"].Value)
}

func TestFSModificationChecker_TextModifiedBeforeAnyBaseline(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("v1"), 0o644))

	checker := newFSModificationChecker(root, newFilePropStore(root))

	modified, err := checker.TextModified(context.Background(), "a.txt")
	require.NoError(t, err)
	assert.True(t, modified, "a file with no recorded baseline should read as modified")
}

func TestFSModificationChecker_RecordCleanThenUnmodified(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("v1"), 0o644))

	checker := newFSModificationChecker(root, newFilePropStore(root))
	require.NoError(t, checker.recordClean("a.txt"))

	modified, err := checker.TextModified(context.Background(), "a.txt")
	require.NoError(t, err)
	assert.False(t, modified)
}

func TestFSModificationChecker_EditAfterRecordCleanIsModified(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	checker := newFSModificationChecker(root, newFilePropStore(root))
	require.NoError(t, checker.recordClean("a.txt"))

	require.NoError(t, os.WriteFile(path, []byte("v2"), 0o644))

	modified, err := checker.TextModified(context.Background(), "a.txt")
	require.NoError(t, err)
	assert.True(t, modified)
}

func TestFSModificationChecker_PropsModifiedWhenAnyPropertySet(t *testing.T) {
	root := t.TempDir()
	props := newFilePropStore(root)
	checker := newFSModificationChecker(root, props)
	ctx := context.Background()

	unmodified, err := checker.PropsModified(ctx, "a.txt")
	require.NoError(t, err)
	assert.False(t, unmodified)

	require.NoError(t, props.SetProp(ctx, "a.txt", "svn:mime-type", []byte("text/plain")))

	modified, err := checker.PropsModified(ctx, "a.txt")
	require.NoError(t, err)
	assert.True(t, modified)
}
