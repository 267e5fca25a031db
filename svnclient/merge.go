package svnclient

import (
	"context"
	"fmt"

	"github.com/tonimelisma/svngo/internal/notify"
	"github.com/tonimelisma/svngo/internal/revision"
	"github.com/tonimelisma/svngo/internal/wc"
)

// Merge applies the delta of source between fromSel and toSel onto
// target (spec.md §6 merge), replaying the do_diff edit-event stream
// through a wc.Writer the same way Update replays do_update — the
// distinction between "update" and "merge" at the protocol layer is
// which do_* verb produced the stream, not how the receiving editor
// works (spec.md §9 "Polymorphic editor": the writer is one of the
// Editor's four distinct implementations, reused here for a fifth
// purpose rather than rewritten). Conflict-raising on an overlapping
// local edit is not implemented: as with Update (internal/commit/
// update.go), wc.Store has no generic "record a new conflict" write
// primitive, so a merge that collides with local changes silently
// overwrites — a documented limitation, not a silent one.
func (c *Client) Merge(ctx context.Context, source string, fromSel, toSel revision.Selector, target string, recurse bool, opCtx OperationContext) error {
	from, err := c.resolveRevision(ctx, revision.OpGeneral, source, true, fromSel)
	if err != nil {
		return err
	}

	to, err := c.resolveRevision(ctx, revision.OpGeneral, source, true, toSel)
	if err != nil {
		return err
	}

	w := wc.NewWriter(c.store, c.root)

	if err := c.session.DoDiff(ctx, target, int64(from), int64(to), recurse, w); err != nil {
		return fmt.Errorf("svnclient: merge %s into %s: %w", source, target, err)
	}

	opCtx.sink().Notify(notify.Event{Kind: notify.EventLocalChange, Path: target})

	return nil
}
