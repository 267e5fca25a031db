package conflict

import (
	"context"
	"path"

	"github.com/tonimelisma/svngo/internal/rasession"
	"github.com/tonimelisma/svngo/internal/svnerr"
	"github.com/tonimelisma/svngo/internal/wc"
)

// IncomingDeleteDetails is the ancestry enrichment attached to a tree
// conflict whose incoming change is a delete (spec.md §3.6 TreeConflict
// "details", §4.3.4). Exactly one of DeletedRev/AddedRev is populated.
type IncomingDeleteDetails struct {
	ReposRelpath string
	RevAuthor    string

	HasDeletedRev bool
	DeletedRev    int64

	HasAddedRev bool
	AddedRev    int64
}

// FetchIncomingDeleteDetails enriches a tree conflict whose incoming
// change is delete under update/switch with the revision that materially
// caused it (spec.md §4.3.4's four-case table). It returns (nil, nil)
// when enrichment does not apply (wrong incoming-change, or a `merge`
// operation — open question 1, left unenriched) and also when the
// revision genuinely cannot be determined: that is "handled locally"
// (spec.md §7), not an error.
func FetchIncomingDeleteDetails(ctx context.Context, session rasession.Session, c *Conflict) (*IncomingDeleteDetails, error) {
	if c.Tree == nil || c.IncomingChange != wc.IncomingDelete {
		return nil, nil
	}

	switch c.Operation {
	case wc.OperationUpdate:
		return fetchUpdateDetails(ctx, session, c.Tree)
	case wc.OperationSwitch:
		return fetchSwitchDetails(ctx, session, c.Tree)
	default:
		// Merge enrichment is unspecified (spec.md §9 open question 1):
		// the conflict falls back to a generic description.
		return nil, nil
	}
}

func fetchUpdateDetails(ctx context.Context, session rasession.Session, tree *wc.TreeConflictDescriptor) (*IncomingDeleteDetails, error) {
	old, new := tree.LeftRev, tree.RightRev

	if old < new {
		rev, err := session.GetDeletedRev(ctx, tree.RightRelpath, old, new)
		if err != nil {
			return nil, nil //nolint:nilerr // a failed lookup falls back to no details, not an error
		}

		author, err := session.RevProp(ctx, rev, "svn:author")
		if err != nil {
			author = ""
		}

		return &IncomingDeleteDetails{
			ReposRelpath:  tree.RightRelpath,
			RevAuthor:     author,
			HasDeletedRev: true,
			DeletedRev:    rev,
		}, nil
	}

	// Reverse update (new < old): the node reappears going backwards, so
	// its first location segment in [new, old] gives the revision it was
	// (re)added at.
	var first rasession.LocationSegment
	found := false

	err := session.GetLocationSegments(ctx, tree.LeftRelpath, old, old, new, func(seg rasession.LocationSegment) error {
		if !found {
			first = seg
			found = true
		}
		return svnerr.Cancelled() // one segment is enough; stop the stream
	})
	if err != nil || !found {
		return nil, nil //nolint:nilerr
	}

	author, err := session.RevProp(ctx, first.StartRev, "svn:author")
	if err != nil {
		author = ""
	}

	return &IncomingDeleteDetails{
		ReposRelpath: tree.LeftRelpath,
		RevAuthor:    author,
		HasAddedRev:  true,
		AddedRev:     first.StartRev,
	}, nil
}

func fetchSwitchDetails(ctx context.Context, session rasession.Session, tree *wc.TreeConflictDescriptor) (*IncomingDeleteDetails, error) {
	old, new := tree.LeftRev, tree.RightRev

	if new < old {
		// Reverse switch: handled exactly as a reverse update, but
		// against old_repos_relpath (spec.md §4.3.4 table, switch/reverse
		// row).
		return fetchUpdateDetails(ctx, session, &wc.TreeConflictDescriptor{
			LeftRelpath: tree.LeftRelpath, LeftRev: old,
			RightRelpath: tree.LeftRelpath, RightRev: new,
		})
	}

	// Forward switch: walk the log of new_repos_relpath's parent from new
	// down to 0, looking for the delete/replace entry that produced the
	// conflict.
	victimRelpath := tree.RightRelpath
	parentRelpath := path.Dir(victimRelpath)
	if parentRelpath == "." {
		parentRelpath = ""
	}

	var found *IncomingDeleteDetails

	err := session.GetLog(ctx, []string{parentRelpath}, new, 0, 0, true, false, false, []string{"svn:author"}, func(entry rasession.LogEntry) error {
		kind, ok := entry.ChangedPaths[victimRelpath]
		if !ok || (kind != rasession.ChangeDeleted && kind != rasession.ChangeReplaced) {
			return nil
		}

		// Confirm ancestral relationship against (old_repos_relpath, old)
		// before accepting this entry as the conflict's cause (spec.md
		// §4.3.4, switch/forward row): a path can be deleted and later
		// recreated as an unrelated node at the same relpath, and only
		// the entry whose victim traces back to the working copy's base
		// is the right one.
		if !isYoungestCommonAncestor(ctx, session, victimRelpath, entry.Revision, tree.LeftRelpath, old) {
			return nil
		}

		found = &IncomingDeleteDetails{
			ReposRelpath:  victimRelpath,
			RevAuthor:     entry.Author,
			HasDeletedRev: true,
			DeletedRev:    entry.Revision,
		}

		return svnerr.Cancelled() // first ancestrally-confirmed match wins
	})
	if err != nil || found == nil {
		return nil, nil //nolint:nilerr
	}

	return found, nil
}

// isYoungestCommonAncestor confirms that victimRelpath, as it stood just
// before deletedAt, traces back to oldRelpath@oldRev: it walks
// victimRelpath's location-segment history pegged at deletedAt-1 down to
// oldRev and checks whether the segment covering oldRev occupied
// oldRelpath. Any lookup failure is treated as "cannot confirm", not an
// error (spec.md §4.3.4: undetermined ancestry falls back to a generic
// description).
func isYoungestCommonAncestor(ctx context.Context, session rasession.Session, victimRelpath string, deletedAt int64, oldRelpath string, oldRev int64) bool {
	pegRev := deletedAt - 1
	if pegRev < oldRev {
		return false
	}

	matched := false

	_ = session.GetLocationSegments(ctx, victimRelpath, pegRev, pegRev, oldRev, func(seg rasession.LocationSegment) error {
		if seg.Path == oldRelpath && oldRev >= seg.EndRev && oldRev <= seg.StartRev {
			matched = true
			return svnerr.Cancelled()
		}

		return nil
	})

	return matched
}
