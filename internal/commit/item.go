// Package commit implements the commit driver (spec.md §4.2): it turns a
// harvested set of working-copy changes into a single atomic server-side
// revision via activity → checkout → edit replay → check-in.
package commit

import "github.com/tonimelisma/svngo/internal/revision"

// StateFlags is the bitmask of schedule state a commit item carries
// (spec.md §3.7).
type StateFlags int

const (
	StateAdd StateFlags = 1 << iota
	StateDelete
	StateTextMods
	StatePropMods
	StateIsCopy
)

// Has reports whether every bit in flag is set.
func (f StateFlags) Has(flag StateFlags) bool { return f&flag == flag }

// Item is one harvested commit item (spec.md §3.7). Ancestor directories
// pulled in only so a descendant can be checked out into the activity
// carry a zero State.
type Item struct {
	Abspath       string
	Kind          revision.NodeKind
	URL           string
	Revision      revision.Number
	CopyFromURL   string
	CopyFromRev   revision.Number
	State         StateFlags
	WCPropChanges map[string]string
}

// IsMutating reports whether the item itself describes a change, as
// opposed to being present only to satisfy checkout-before-descendant
// ordering.
func (it Item) IsMutating() bool { return it.State != 0 }
