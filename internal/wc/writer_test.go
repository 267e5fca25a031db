package wc

import (
	"context"
	"crypto/md5"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonimelisma/svngo/internal/editor"
)

func TestWriterMaterializesNewFile(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	root := t.TempDir()
	w := NewWriter(store, root)

	tr := editor.NewTokenTracker(w)

	rootTok, err := tr.OpenRoot(ctx, 10)
	require.NoError(t, err)

	fileTok, err := tr.AddFile(ctx, "a.txt", rootTok, "", -1)
	require.NoError(t, err)

	content := []byte("hello, world")
	sum := md5.Sum(content)

	handler, err := tr.ApplyTextDelta(ctx, fileTok, editor.Checksum{})
	require.NoError(t, err)
	require.NoError(t, handler(ctx, &editor.Window{
		TargetLength: int64(len(content)),
		Ops:          []editor.Op{{Kind: editor.OpLiteral, Data: content}},
	}))
	require.NoError(t, handler(ctx, nil))

	require.NoError(t, tr.CloseFile(ctx, fileTok, editor.Checksum{Algo: "md5", Sum: sum[:]}))
	require.NoError(t, tr.CloseEdit(ctx))

	got, err := os.ReadFile(filepath.Join(root, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, content, got)

	entry, err := store.ReadEntry(ctx, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, ScheduleAdd, entry.Schedule)
}

func TestWriterResultChecksumMismatchRejected(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	w := NewWriter(store, t.TempDir())
	tr := editor.NewTokenTracker(w)

	rootTok, err := tr.OpenRoot(ctx, 10)
	require.NoError(t, err)

	fileTok, err := tr.AddFile(ctx, "a.txt", rootTok, "", -1)
	require.NoError(t, err)

	handler, err := tr.ApplyTextDelta(ctx, fileTok, editor.Checksum{})
	require.NoError(t, err)
	require.NoError(t, handler(ctx, &editor.Window{
		TargetLength: 5,
		Ops:          []editor.Op{{Kind: editor.OpLiteral, Data: []byte("hello")}},
	}))
	require.NoError(t, handler(ctx, nil))

	wrongSum := md5.Sum([]byte("not hello"))
	err = tr.CloseFile(ctx, fileTok, editor.Checksum{Algo: "md5", Sum: wrongSum[:]})
	assert.Error(t, err)
}

func TestWriterDeleteEntry(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("x"), 0o644))
	require.NoError(t, store.ScheduleAdd(ctx, "a.txt", "file", "", -1))

	w := NewWriter(store, root)
	tr := editor.NewTokenTracker(w)

	rootTok, err := tr.OpenRoot(ctx, 10)
	require.NoError(t, err)

	require.NoError(t, tr.DeleteEntry(ctx, "a.txt", 10, rootTok))
	require.NoError(t, tr.CloseEdit(ctx))

	_, err = os.Stat(filepath.Join(root, "a.txt"))
	assert.True(t, os.IsNotExist(err))

	entry, err := store.ReadEntry(ctx, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, ScheduleDelete, entry.Schedule)
}
