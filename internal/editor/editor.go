// Package editor defines the tree-editor event-stream protocol: the single
// interface through which a tree of changes is described to a consumer —
// the working copy, the commit driver, a diff printer, or a status
// collector. Four distinct implementations satisfy Editor elsewhere in
// this module, mirroring the teacher's "accept interfaces, return
// structs" discipline.
package editor

import "context"

// Token is an opaque handle a producer receives from open_root/
// add_directory/open_directory/add_file/open_file and must present back
// on every subsequent event for that node. Tokens carry no meaning beyond
// identity; consumers assign their own representation.
type Token any

// PropValue models an optional property value: present with Set true
// means "set to Value"; absent (Set false) means "delete this property."
type PropValue struct {
	Value []byte
	Set   bool
}

// Deleted is the conventional absent PropValue (a property deletion).
var Deleted = PropValue{}

// PropSet builds a present PropValue.
func PropSet(value []byte) PropValue {
	return PropValue{Value: value, Set: true}
}

// Checksum is an optional content digest attached to apply_textdelta
// (expected base) and close_file (expected result). Algo names the
// digest (e.g. "md5", "sha1"); an empty Algo means "no checksum given."
type Checksum struct {
	Algo string
	Sum  []byte
}

// Present reports whether a checksum was actually supplied.
func (c Checksum) Present() bool { return c.Algo != "" }

// Editor is the tree-edit event-stream capability described in spec.md
// §3.4/§4.1. Implementations must accept any legal sequence; an event an
// implementation does not care about may be a no-op, but must not fail.
// The first handler to return an error aborts the stream: the producer
// must then call AbortEdit and propagate the failure.
//
// All methods take a context so that a suspension point (spec.md §5) can
// observe cancellation; implementations that perform no I/O may ignore it.
type Editor interface {
	// OpenRoot opens the single implicit root of the edit, based on
	// baseRev (Invalid if the edit has no meaningful base, e.g. a fresh
	// import). Exactly one call per edit, first.
	OpenRoot(ctx context.Context, baseRev int64) (Token, error)

	// DeleteEntry removes name from the directory identified by parent,
	// as it stood at baseRev.
	DeleteEntry(ctx context.Context, name string, baseRev int64, parent Token) error

	// AddDirectory begins a new directory named name under parent. If
	// copyFrom is non-empty the directory is a copy of that source path
	// at copyFromRev (which must then be a concrete revision number).
	AddDirectory(ctx context.Context, name string, parent Token, copyFrom string, copyFromRev int64) (Token, error)

	// OpenDirectory opens an existing directory named name under parent,
	// as it stood at baseRev.
	OpenDirectory(ctx context.Context, name string, parent Token, baseRev int64) (Token, error)

	// ChangeDirProp sets or deletes a property on dir.
	ChangeDirProp(ctx context.Context, dir Token, name string, value PropValue) error

	// CloseDirectory closes dir. Every token opened must be closed before
	// its parent closes (stack discipline, spec.md §3.4 invariant 2).
	CloseDirectory(ctx context.Context, dir Token) error

	// AddFile begins a new file named name under parent, analogous to
	// AddDirectory.
	AddFile(ctx context.Context, name string, parent Token, copyFrom string, copyFromRev int64) (Token, error)

	// OpenFile opens an existing file named name under parent, as it
	// stood at baseRev.
	OpenFile(ctx context.Context, name string, parent Token, baseRev int64) (Token, error)

	// ApplyTextDelta installs a window-consuming handler for file.
	// baseChecksum, if Present, is the digest of the producer's expected
	// base text; the consumer verifies it before applying any window. A
	// file token may receive at most one ApplyTextDelta sequence.
	ApplyTextDelta(ctx context.Context, file Token, baseChecksum Checksum) (WindowHandler, error)

	// ChangeFileProp sets or deletes a property on file.
	ChangeFileProp(ctx context.Context, file Token, name string, value PropValue) error

	// CloseFile closes file. resultChecksum, if Present, is the digest of
	// the full resulting text; the consumer verifies it after applying
	// all delta windows.
	CloseFile(ctx context.Context, file Token, resultChecksum Checksum) error

	// CloseEdit is the producer's signal that every event was delivered
	// successfully; after it returns, all effects are durable from the
	// consumer's perspective. Exactly one of CloseEdit or AbortEdit is
	// called, last.
	CloseEdit(ctx context.Context) error

	// AbortEdit is the producer's signal that no further events will come
	// and any partially applied state must be rolled back.
	AbortEdit(ctx context.Context) error
}

// WindowHandler consumes the ordered sequence of delta Windows for one
// ApplyTextDelta call. The sequence ends with a terminating call passing
// nil; the handler must be driven to completion before the next event for
// that file (spec.md §3.4 invariant 3).
type WindowHandler func(ctx context.Context, w *Window) error
