package commit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tonimelisma/svngo/internal/editor"
	"github.com/tonimelisma/svngo/internal/notify"
	"github.com/tonimelisma/svngo/internal/rasession"
	"github.com/tonimelisma/svngo/internal/wc"
)

// UpdateDriver drives do_update/do_switch against a working copy,
// materializing the server's edit-event stream through a wc.Writer and
// forwarding a notification per touched path so a long-running caller can
// render progress as it happens. Unlike the commit driver, the edit
// stream's stack discipline (spec.md §3.4 invariant 2: every token closed
// before its parent) rules out replaying the tree shape itself
// concurrently — update's own concurrency grounding lives in Status (see
// status.go), which fans local and remote reads out independently.
type UpdateDriver struct {
	session rasession.Session
	store   wc.Store
	root    string
	sink    notify.Sink
	logger  *slog.Logger
}

// NewUpdateDriver builds an UpdateDriver rooted at root (the working
// copy's top-level directory). sink may be nil, in which case
// notifications are dropped.
func NewUpdateDriver(session rasession.Session, store wc.Store, root string, sink notify.Sink, logger *slog.Logger) *UpdateDriver {
	if logger == nil {
		logger = slog.Default()
	}

	if sink == nil {
		sink = notify.SinkFunc(func(notify.Event) {})
	}

	return &UpdateDriver{session: session, store: store, root: root, sink: sink, logger: logger}
}

// Update brings target up to targetRev, starting from baseRev (spec.md §6
// do_update). Returns the server's reported target revision.
func (d *UpdateDriver) Update(ctx context.Context, target string, baseRev, targetRev int64, recurse bool) (int64, error) {
	w := wc.NewWriter(d.store, d.root)
	ne := newNotifyingEditor(w, d.sink, "update")

	d.logger.Info("update: starting", "target", target, "base_rev", baseRev, "target_rev", targetRev)

	if err := d.session.DoUpdate(ctx, target, baseRev, targetRev, recurse, ne); err != nil {
		return 0, fmt.Errorf("update %s: %w", target, err)
	}

	if err := d.store.BumpRevision(ctx, target, targetRev); err != nil {
		return 0, fmt.Errorf("update %s: bump revision: %w", target, err)
	}

	return targetRev, nil
}

// Switch relocates target onto switchURL, bringing it to targetRev
// (spec.md §6 do_switch). Otherwise identical to Update.
func (d *UpdateDriver) Switch(ctx context.Context, target, switchURL string, baseRev, targetRev int64, recurse bool) (int64, error) {
	w := wc.NewWriter(d.store, d.root)
	ne := newNotifyingEditor(w, d.sink, "switch")

	d.logger.Info("switch: starting", "target", target, "switch_url", switchURL, "target_rev", targetRev)

	if err := d.session.DoSwitch(ctx, target, switchURL, baseRev, targetRev, recurse, ne); err != nil {
		return 0, fmt.Errorf("switch %s to %s: %w", target, switchURL, err)
	}

	if err := d.store.BumpRevision(ctx, target, targetRev); err != nil {
		return 0, fmt.Errorf("switch %s: bump revision: %w", target, err)
	}

	return targetRev, nil
}

// notifyingEditor wraps another Editor, emitting a notify.Event for every
// node an update/switch touches. Delegation only — it never changes the
// stream's outcome, so it is safe to interpose without affecting the
// underlying Writer's stack-discipline bookkeeping. It keeps its own
// token-to-path map (independent of the wrapped Writer's private one)
// purely to label notifications with the path a token refers to.
type notifyingEditor struct {
	next  editor.Editor
	sink  notify.Sink
	op    string
	paths map[editor.Token]string
}

func newNotifyingEditor(next editor.Editor, sink notify.Sink, op string) *notifyingEditor {
	return &notifyingEditor{next: next, sink: sink, op: op, paths: make(map[editor.Token]string)}
}

func (n *notifyingEditor) OpenRoot(ctx context.Context, baseRev int64) (editor.Token, error) {
	tok, err := n.next.OpenRoot(ctx, baseRev)
	if err != nil {
		return nil, err
	}

	n.paths[tok] = ""

	return tok, nil
}

func (n *notifyingEditor) DeleteEntry(ctx context.Context, name string, baseRev int64, parent editor.Token) error {
	if err := n.next.DeleteEntry(ctx, name, baseRev, parent); err != nil {
		return err
	}

	n.notify(n.childPath(parent, name))

	return nil
}

func (n *notifyingEditor) AddDirectory(ctx context.Context, name string, parent editor.Token, copyFrom string, copyFromRev int64) (editor.Token, error) {
	tok, err := n.next.AddDirectory(ctx, name, parent, copyFrom, copyFromRev)
	if err != nil {
		return nil, err
	}

	path := n.childPath(parent, name)
	n.paths[tok] = path
	n.notify(path)

	return tok, nil
}

func (n *notifyingEditor) OpenDirectory(ctx context.Context, name string, parent editor.Token, baseRev int64) (editor.Token, error) {
	tok, err := n.next.OpenDirectory(ctx, name, parent, baseRev)
	if err != nil {
		return nil, err
	}

	n.paths[tok] = n.childPath(parent, name)

	return tok, nil
}

func (n *notifyingEditor) ChangeDirProp(ctx context.Context, dir editor.Token, name string, value editor.PropValue) error {
	return n.next.ChangeDirProp(ctx, dir, name, value)
}

func (n *notifyingEditor) CloseDirectory(ctx context.Context, dir editor.Token) error {
	if err := n.next.CloseDirectory(ctx, dir); err != nil {
		return err
	}

	delete(n.paths, dir)

	return nil
}

func (n *notifyingEditor) AddFile(ctx context.Context, name string, parent editor.Token, copyFrom string, copyFromRev int64) (editor.Token, error) {
	tok, err := n.next.AddFile(ctx, name, parent, copyFrom, copyFromRev)
	if err != nil {
		return nil, err
	}

	n.paths[tok] = n.childPath(parent, name)

	return tok, nil
}

func (n *notifyingEditor) OpenFile(ctx context.Context, name string, parent editor.Token, baseRev int64) (editor.Token, error) {
	tok, err := n.next.OpenFile(ctx, name, parent, baseRev)
	if err != nil {
		return nil, err
	}

	n.paths[tok] = n.childPath(parent, name)

	return tok, nil
}

func (n *notifyingEditor) ApplyTextDelta(ctx context.Context, file editor.Token, baseChecksum editor.Checksum) (editor.WindowHandler, error) {
	return n.next.ApplyTextDelta(ctx, file, baseChecksum)
}

func (n *notifyingEditor) ChangeFileProp(ctx context.Context, file editor.Token, name string, value editor.PropValue) error {
	return n.next.ChangeFileProp(ctx, file, name, value)
}

func (n *notifyingEditor) CloseFile(ctx context.Context, file editor.Token, resultChecksum editor.Checksum) error {
	if err := n.next.CloseFile(ctx, file, resultChecksum); err != nil {
		return err
	}

	path := n.paths[file]
	delete(n.paths, file)
	n.notify(path)

	return nil
}

func (n *notifyingEditor) CloseEdit(ctx context.Context) error {
	return n.next.CloseEdit(ctx)
}

func (n *notifyingEditor) AbortEdit(ctx context.Context) error {
	return n.next.AbortEdit(ctx)
}

func (n *notifyingEditor) childPath(parent editor.Token, name string) string {
	parentPath := n.paths[parent]
	if parentPath == "" {
		return name
	}

	return parentPath + "/" + name
}

func (n *notifyingEditor) notify(path string) {
	n.sink.Notify(notify.Event{Kind: notify.EventLocalChange, Path: path})
}

var _ editor.Editor = (*notifyingEditor)(nil)
