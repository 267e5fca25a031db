package commit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonimelisma/svngo/internal/editor"
)

func TestDiffDriver_Diff_RendersAddedFile(t *testing.T) {
	session := newFakeSession()
	session.doDiffFn = func(ctx context.Context, target string, fromRev, toRev int64, recurse bool, ed editor.Editor) error {
		root, err := ed.OpenRoot(ctx, fromRev)
		if err != nil {
			return err
		}

		file, err := ed.AddFile(ctx, "new.txt", root, "", 0)
		if err != nil {
			return err
		}

		handler, err := ed.ApplyTextDelta(ctx, file, editor.Checksum{})
		if err != nil {
			return err
		}

		content := []byte("line one\nline two")
		if err := handler(ctx, &editor.Window{TargetLength: int64(len(content)), Ops: []editor.Op{{Kind: editor.OpLiteral, Data: content}}}); err != nil {
			return err
		}

		if err := handler(ctx, nil); err != nil {
			return err
		}

		if err := ed.CloseFile(ctx, file, editor.Checksum{}); err != nil {
			return err
		}

		if err := ed.CloseDirectory(ctx, root); err != nil {
			return err
		}

		return ed.CloseEdit(ctx)
	}

	d := NewDiffDriver(session)

	out, err := d.Diff(context.Background(), ".", 4, 5, true)
	require.NoError(t, err)

	assert.Contains(t, out, "Index: new.txt")
	assert.Contains(t, out, "--- a/new.txt\t(revision 4)")
	assert.Contains(t, out, "+++ b/new.txt\t(revision 5)")
	assert.Contains(t, out, "+line one")
	assert.Contains(t, out, "+line two")
}

func TestDiffDriver_Diff_RendersDeletedEntry(t *testing.T) {
	session := newFakeSession()
	session.doDiffFn = func(ctx context.Context, target string, fromRev, toRev int64, recurse bool, ed editor.Editor) error {
		root, err := ed.OpenRoot(ctx, fromRev)
		if err != nil {
			return err
		}

		if err := ed.DeleteEntry(ctx, "gone.txt", fromRev, root); err != nil {
			return err
		}

		if err := ed.CloseDirectory(ctx, root); err != nil {
			return err
		}

		return ed.CloseEdit(ctx)
	}

	d := NewDiffDriver(session)

	out, err := d.Diff(context.Background(), ".", 4, 5, true)
	require.NoError(t, err)

	assert.Contains(t, out, "--- a/gone.txt\t(revision 4)")
	assert.Contains(t, out, "+++ /dev/null")
}

func TestDiffDriver_Diff_PropagatesSessionError(t *testing.T) {
	session := newFakeSession()
	// doDiffFn left nil.

	d := NewDiffDriver(session)

	_, err := d.Diff(context.Background(), ".", 1, 2, true)
	require.Error(t, err)
}
