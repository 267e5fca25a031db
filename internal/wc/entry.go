// Package wc implements the working-copy store consumed by the core
// (spec.md §6 "Working-copy store interface"): versioned entries, their
// schedule and conflict state, and a tree-editor Writer that materializes
// a remote edit-event stream onto local storage.
package wc

import "github.com/tonimelisma/svngo/internal/revision"

// Schedule is the pending local mutation recorded against an entry
// (spec.md §3.5).
type Schedule int

const (
	ScheduleNormal Schedule = iota
	ScheduleAdd
	ScheduleDelete
	ScheduleReplace
)

func (s Schedule) String() string {
	switch s {
	case ScheduleAdd:
		return "add"
	case ScheduleDelete:
		return "delete"
	case ScheduleReplace:
		return "replace"
	default:
		return "normal"
	}
}

// ConflictState records, for one entry, which kinds of conflict are
// currently outstanding. Per-property conflicts are named individually
// since a node may carry conflicts on several properties at once.
type ConflictState struct {
	Text      bool
	Tree      bool
	PropNames []string
}

// HasAny reports whether the entry carries any outstanding conflict.
func (c ConflictState) HasAny() bool {
	return c.Text || c.Tree || len(c.PropNames) > 0
}

// Entry is a working-copy entry (spec.md §3.5): the locally recorded
// metadata for one versioned path.
type Entry struct {
	Path        string
	Kind        revision.NodeKind
	URL         string
	Revision    revision.Number
	CopyFromURL string
	CopyFromRev revision.Number // revision.Invalid if not a copy
	Schedule    Schedule
	Conflict    ConflictState
}
