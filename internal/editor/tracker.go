package editor

import (
	"context"
	"sync"

	"github.com/tonimelisma/svngo/internal/svnerr"
)

// nodeKind distinguishes directory from file tokens for diagnostics and
// for rejecting a close_file on a directory token or vice versa.
type nodeKind int

const (
	nodeDir nodeKind = iota
	nodeFile
)

type nodeState struct {
	kind     nodeKind
	closed   bool
	deltaRun bool // true once ApplyTextDelta has been called for this file
}

// TokenTracker wraps an Editor and enforces the stack-discipline
// invariants of spec.md §3.4: exactly one open_root first and exactly one
// close_edit/abort_edit last; every opened token closed before its parent;
// at most one apply_textdelta per file token. It implements Editor itself,
// forwarding each checked event to the wrapped Editor; producers call
// through it instead of the wrapped Editor directly, so a misbehaving
// producer is caught here rather than corrupting consumer state.
//
// TokenTracker is safe for the single-producer use the protocol assumes
// (spec.md §5: "single-threaded cooperative within one operation"); the
// mutex guards against accidental concurrent misuse, not against the
// protocol itself being driven from multiple goroutines by design.
type TokenTracker struct {
	mu       sync.Mutex
	next     Editor
	rootOpen bool
	finished bool
	states   map[Token]*nodeState
	stack    []Token // currently open tokens, innermost last
}

// NewTokenTracker wraps next.
func NewTokenTracker(next Editor) *TokenTracker {
	return &TokenTracker{
		next:   next,
		states: make(map[Token]*nodeState),
	}
}

func (t *TokenTracker) checkNotFinished() error {
	if t.finished {
		return svnerr.New(svnerr.KindInvariant, "edit already closed or aborted")
	}
	return nil
}

// OpenRoot must be the first call, exactly once.
func (t *TokenTracker) OpenRoot(ctx context.Context, baseRev int64) (Token, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkNotFinished(); err != nil {
		return nil, err
	}
	if t.rootOpen {
		return nil, svnerr.New(svnerr.KindInvariant, "open_root called more than once")
	}

	tok, err := t.next.OpenRoot(ctx, baseRev)
	if err != nil {
		return nil, err
	}

	t.rootOpen = true
	t.states[tok] = &nodeState{kind: nodeDir}
	t.stack = append(t.stack, tok)
	return tok, nil
}

func (t *TokenTracker) requireOpenDir(parent Token) error {
	st, ok := t.states[parent]
	if !ok || st.closed {
		return svnerr.New(svnerr.KindInvariant, "parent token is not an open directory")
	}
	if st.kind != nodeDir {
		return svnerr.New(svnerr.KindInvariant, "parent token is not a directory")
	}
	return nil
}

func (t *TokenTracker) DeleteEntry(ctx context.Context, name string, baseRev int64, parent Token) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkNotFinished(); err != nil {
		return err
	}
	if err := t.requireOpenDir(parent); err != nil {
		return err
	}

	return t.next.DeleteEntry(ctx, name, baseRev, parent)
}

func (t *TokenTracker) AddDirectory(ctx context.Context, name string, parent Token, copyFrom string, copyFromRev int64) (Token, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkNotFinished(); err != nil {
		return nil, err
	}
	if err := t.requireOpenDir(parent); err != nil {
		return nil, err
	}
	if copyFrom != "" && copyFromRev < 0 {
		return nil, svnerr.New(svnerr.KindInvariant, "add_directory copy_from %q requires a concrete copy_from_rev", copyFrom)
	}

	tok, err := t.next.AddDirectory(ctx, name, parent, copyFrom, copyFromRev)
	if err != nil {
		return nil, err
	}

	t.states[tok] = &nodeState{kind: nodeDir}
	t.stack = append(t.stack, tok)
	return tok, nil
}

func (t *TokenTracker) OpenDirectory(ctx context.Context, name string, parent Token, baseRev int64) (Token, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkNotFinished(); err != nil {
		return nil, err
	}
	if err := t.requireOpenDir(parent); err != nil {
		return nil, err
	}

	tok, err := t.next.OpenDirectory(ctx, name, parent, baseRev)
	if err != nil {
		return nil, err
	}

	t.states[tok] = &nodeState{kind: nodeDir}
	t.stack = append(t.stack, tok)
	return tok, nil
}

func (t *TokenTracker) ChangeDirProp(ctx context.Context, dir Token, name string, value PropValue) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkNotFinished(); err != nil {
		return err
	}
	if err := t.requireOpenDir(dir); err != nil {
		return err
	}

	return t.next.ChangeDirProp(ctx, dir, name, value)
}

func (t *TokenTracker) CloseDirectory(ctx context.Context, dir Token) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkNotFinished(); err != nil {
		return err
	}
	if err := t.requireOpenDir(dir); err != nil {
		return err
	}
	if err := t.requireInnermost(dir); err != nil {
		return err
	}

	if err := t.next.CloseDirectory(ctx, dir); err != nil {
		return err
	}

	t.popClose(dir)
	return nil
}

func (t *TokenTracker) AddFile(ctx context.Context, name string, parent Token, copyFrom string, copyFromRev int64) (Token, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkNotFinished(); err != nil {
		return nil, err
	}
	if err := t.requireOpenDir(parent); err != nil {
		return nil, err
	}
	if copyFrom != "" && copyFromRev < 0 {
		return nil, svnerr.New(svnerr.KindInvariant, "add_file copy_from %q requires a concrete copy_from_rev", copyFrom)
	}

	tok, err := t.next.AddFile(ctx, name, parent, copyFrom, copyFromRev)
	if err != nil {
		return nil, err
	}

	t.states[tok] = &nodeState{kind: nodeFile}
	t.stack = append(t.stack, tok)
	return tok, nil
}

func (t *TokenTracker) OpenFile(ctx context.Context, name string, parent Token, baseRev int64) (Token, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkNotFinished(); err != nil {
		return nil, err
	}
	if err := t.requireOpenDir(parent); err != nil {
		return nil, err
	}

	tok, err := t.next.OpenFile(ctx, name, parent, baseRev)
	if err != nil {
		return nil, err
	}

	t.states[tok] = &nodeState{kind: nodeFile}
	t.stack = append(t.stack, tok)
	return tok, nil
}

func (t *TokenTracker) requireOpenFile(file Token) (*nodeState, error) {
	st, ok := t.states[file]
	if !ok || st.closed {
		return nil, svnerr.New(svnerr.KindInvariant, "file token is not open")
	}
	if st.kind != nodeFile {
		return nil, svnerr.New(svnerr.KindInvariant, "token is not a file")
	}
	return st, nil
}

func (t *TokenTracker) ApplyTextDelta(ctx context.Context, file Token, baseChecksum Checksum) (WindowHandler, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkNotFinished(); err != nil {
		return nil, err
	}
	st, err := t.requireOpenFile(file)
	if err != nil {
		return nil, err
	}
	if st.deltaRun {
		return nil, svnerr.New(svnerr.KindInvariant, "apply_textdelta called more than once for this file token")
	}
	st.deltaRun = true

	return t.next.ApplyTextDelta(ctx, file, baseChecksum)
}

func (t *TokenTracker) ChangeFileProp(ctx context.Context, file Token, name string, value PropValue) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkNotFinished(); err != nil {
		return err
	}
	if _, err := t.requireOpenFile(file); err != nil {
		return err
	}

	return t.next.ChangeFileProp(ctx, file, name, value)
}

func (t *TokenTracker) CloseFile(ctx context.Context, file Token, resultChecksum Checksum) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkNotFinished(); err != nil {
		return err
	}
	if _, err := t.requireOpenFile(file); err != nil {
		return err
	}
	if err := t.requireInnermost(file); err != nil {
		return err
	}

	if err := t.next.CloseFile(ctx, file, resultChecksum); err != nil {
		return err
	}

	t.popClose(file)
	return nil
}

func (t *TokenTracker) CloseEdit(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkNotFinished(); err != nil {
		return err
	}
	if len(t.stack) != 0 {
		return svnerr.New(svnerr.KindInvariant, "close_edit called with %d token(s) still open", len(t.stack))
	}

	t.finished = true
	return t.next.CloseEdit(ctx)
}

func (t *TokenTracker) AbortEdit(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.finished {
		return svnerr.New(svnerr.KindInvariant, "abort_edit called after edit already closed or aborted")
	}

	t.finished = true
	return t.next.AbortEdit(ctx)
}

// requireInnermost enforces stack discipline: tok must be the token
// currently on top of the open-token stack (spec.md §3.4 invariant 2).
func (t *TokenTracker) requireInnermost(tok Token) error {
	if len(t.stack) == 0 || t.stack[len(t.stack)-1] != tok {
		return svnerr.New(svnerr.KindInvariant, "token closed out of stack order")
	}
	return nil
}

// popClose marks tok closed and pops it off the open-token stack. Caller
// must already have verified tok is innermost.
func (t *TokenTracker) popClose(tok Token) {
	t.states[tok].closed = true
	t.stack = t.stack[:len(t.stack)-1]
}

var _ Editor = (*TokenTracker)(nil)
