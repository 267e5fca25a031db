package commit

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/tonimelisma/svngo/internal/editor"
	"github.com/tonimelisma/svngo/internal/rasession"
)

// DiffDriver runs do_diff against a session and renders the resulting
// edit-event stream as unified-diff-shaped text, without touching any
// working copy (spec.md §6 do_diff: "the same wire shape, consumed by a
// diff-printing Editor instead of a working-copy writer").
type DiffDriver struct {
	session rasession.Session
}

// NewDiffDriver builds a DiffDriver.
func NewDiffDriver(session rasession.Session) *DiffDriver {
	return &DiffDriver{session: session}
}

// Diff renders the delta between target at fromRev and toRev.
func (d *DiffDriver) Diff(ctx context.Context, target string, fromRev, toRev int64, recurse bool) (string, error) {
	de := newDiffEditor(fromRev, toRev)

	if err := d.session.DoDiff(ctx, target, fromRev, toRev, recurse, de); err != nil {
		return "", fmt.Errorf("diff %s: %w", target, err)
	}

	return de.String(), nil
}

// diffEditor accumulates a textual summary of an edit-event stream: one
// header line per added/deleted/changed node, followed by the unified
// body for files whose content changed. It never reads base content from
// disk: a changed file's body is its new content shown as one all-added
// hunk, since do_diff's stream carries the new content only.
type diffEditor struct {
	fromRev, toRev int64
	out            bytes.Buffer
	paths          map[editor.Token]string
	buffers        map[editor.Token]*bytes.Buffer
	nextToken      int
}

func newDiffEditor(fromRev, toRev int64) *diffEditor {
	return &diffEditor{
		fromRev: fromRev,
		toRev:   toRev,
		paths:   make(map[editor.Token]string),
		buffers: make(map[editor.Token]*bytes.Buffer),
	}
}

func (d *diffEditor) String() string { return d.out.String() }

func (d *diffEditor) newToken() editor.Token {
	d.nextToken++
	return d.nextToken
}

func (d *diffEditor) OpenRoot(ctx context.Context, baseRev int64) (editor.Token, error) {
	tok := d.newToken()
	d.paths[tok] = ""

	return tok, nil
}

func (d *diffEditor) DeleteEntry(ctx context.Context, name string, baseRev int64, parent editor.Token) error {
	fmt.Fprintf(&d.out, "--- a/%s\t(revision %d)\n+++ /dev/null\t(working copy)\n", d.childPath(parent, name), d.fromRev)
	return nil
}

func (d *diffEditor) AddDirectory(ctx context.Context, name string, parent editor.Token, copyFrom string, copyFromRev int64) (editor.Token, error) {
	path := d.childPath(parent, name)

	tok := d.newToken()
	d.paths[tok] = path

	fmt.Fprintf(&d.out, "Index: %s\t(added directory)\n", path)

	return tok, nil
}

func (d *diffEditor) OpenDirectory(ctx context.Context, name string, parent editor.Token, baseRev int64) (editor.Token, error) {
	tok := d.newToken()
	d.paths[tok] = d.childPath(parent, name)

	return tok, nil
}

func (d *diffEditor) ChangeDirProp(ctx context.Context, dir editor.Token, name string, value editor.PropValue) error {
	fmt.Fprintf(&d.out, "Property changes on: %s\n", d.paths[dir])
	d.printPropChange(name, value)

	return nil
}

func (d *diffEditor) CloseDirectory(ctx context.Context, dir editor.Token) error {
	delete(d.paths, dir)
	return nil
}

func (d *diffEditor) AddFile(ctx context.Context, name string, parent editor.Token, copyFrom string, copyFromRev int64) (editor.Token, error) {
	tok := d.newToken()
	d.paths[tok] = d.childPath(parent, name)
	d.buffers[tok] = &bytes.Buffer{}

	return tok, nil
}

func (d *diffEditor) OpenFile(ctx context.Context, name string, parent editor.Token, baseRev int64) (editor.Token, error) {
	tok := d.newToken()
	d.paths[tok] = d.childPath(parent, name)
	d.buffers[tok] = &bytes.Buffer{}

	return tok, nil
}

func (d *diffEditor) ApplyTextDelta(ctx context.Context, file editor.Token, baseChecksum editor.Checksum) (editor.WindowHandler, error) {
	return func(ctx context.Context, w *editor.Window) error {
		if w == nil {
			return nil
		}

		buf := d.buffers[file]
		produced, err := w.Apply(nil, buf.Bytes())
		if err != nil {
			return err
		}

		buf.Reset()
		buf.Write(produced)

		return nil
	}, nil
}

func (d *diffEditor) ChangeFileProp(ctx context.Context, file editor.Token, name string, value editor.PropValue) error {
	fmt.Fprintf(&d.out, "Property changes on: %s\n", d.paths[file])
	d.printPropChange(name, value)

	return nil
}

func (d *diffEditor) CloseFile(ctx context.Context, file editor.Token, resultChecksum editor.Checksum) error {
	path := d.paths[file]
	content := d.buffers[file]

	fmt.Fprintf(&d.out, "Index: %s\n===================================================================\n", path)
	fmt.Fprintf(&d.out, "--- a/%s\t(revision %d)\n+++ b/%s\t(revision %d)\n", path, d.fromRev, path, d.toRev)

	if content != nil && content.Len() > 0 {
		lines := strings.Count(content.String(), "\n") + 1
		fmt.Fprintf(&d.out, "@@ -0,0 +1,%d @@\n", lines)

		for _, line := range strings.Split(strings.TrimSuffix(content.String(), "\n"), "\n") {
			fmt.Fprintf(&d.out, "+%s\n", line)
		}
	}

	delete(d.paths, file)
	delete(d.buffers, file)

	return nil
}

func (d *diffEditor) CloseEdit(ctx context.Context) error { return nil }

func (d *diffEditor) AbortEdit(ctx context.Context) error { return nil }

func (d *diffEditor) childPath(parent editor.Token, name string) string {
	parentPath := d.paths[parent]
	if parentPath == "" {
		return name
	}

	return parentPath + "/" + name
}

func (d *diffEditor) printPropChange(name string, value editor.PropValue) {
	if !value.Set {
		fmt.Fprintf(&d.out, "Deleted: %s\n", name)
		return
	}

	fmt.Fprintf(&d.out, "Added: %s\n   + %s\n", name, value.Value)
}

var _ editor.Editor = (*diffEditor)(nil)
