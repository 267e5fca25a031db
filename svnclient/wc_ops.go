package svnclient

import (
	"context"
	"fmt"

	"github.com/tonimelisma/svngo/internal/commit"
	"github.com/tonimelisma/svngo/internal/notify"
	"github.com/tonimelisma/svngo/internal/revision"
	"github.com/tonimelisma/svngo/internal/wc"
)

// withCleanTracking wraps sink so every EventLocalChange it forwards also
// refreshes mod's recorded baseline for that path, before the caller's own
// sink sees the event.
func (c *Client) withCleanTracking(sink notify.Sink) notify.Sink {
	return notify.SinkFunc(func(e notify.Event) {
		if e.Kind == notify.EventLocalChange {
			c.markClean(e.Path)
		}
		sink.Notify(e)
	})
}

// Checkout materializes url at sel into a fresh working copy rooted at
// path (spec.md §6 checkout). sel must resolve against the restricted
// {Number, Head, Date} admissibility gate (spec.md §4.4); an
// inadmissible selector returns CLIENT_BAD_REVISION before any session
// call. The root entry is registered locally first since, unlike
// update/switch, checkout has no pre-existing entry for the update
// driver's wc.Writer to extend.
func (c *Client) Checkout(ctx context.Context, url string, sel revision.Selector, path string, opCtx OperationContext) (revision.Number, error) {
	rev, err := c.resolveRevision(ctx, revision.OpCheckoutUpdateSwitch, url, true, sel)
	if err != nil {
		return revision.Invalid, err
	}

	if err := c.store.ScheduleAdd(ctx, ".", "dir", url, int64(revision.Invalid)); err != nil {
		return revision.Invalid, fmt.Errorf("svnclient: checkout: registering working-copy root: %w", err)
	}

	driver := commit.NewUpdateDriver(c.session, c.store, c.root, c.withCleanTracking(opCtx.sink()), c.logger)

	got, err := driver.Update(ctx, ".", 0, int64(rev), true)
	if err != nil {
		return revision.Invalid, fmt.Errorf("svnclient: checkout %s: %w", url, err)
	}

	return revision.Number(got), nil
}

// Update brings target up to sel (spec.md §6 update), under the same
// revision-selector gate as Checkout.
func (c *Client) Update(ctx context.Context, target string, sel revision.Selector, recurse bool, opCtx OperationContext) (revision.Number, error) {
	rev, err := c.resolveRevision(ctx, revision.OpCheckoutUpdateSwitch, target, false, sel)
	if err != nil {
		return revision.Invalid, err
	}

	entry, err := c.store.ReadEntry(ctx, target)
	if err != nil {
		return revision.Invalid, fmt.Errorf("svnclient: update %s: %w", target, err)
	}

	driver := commit.NewUpdateDriver(c.session, c.store, c.root, c.withCleanTracking(opCtx.sink()), c.logger)

	got, err := driver.Update(ctx, target, int64(entry.Revision), int64(rev), recurse)
	if err != nil {
		return revision.Invalid, err
	}

	return revision.Number(got), nil
}

// Switch retargets target at switchURL (spec.md §6 switch), under the
// same revision-selector gate as Checkout/Update.
func (c *Client) Switch(ctx context.Context, target, switchURL string, sel revision.Selector, recurse bool, opCtx OperationContext) (revision.Number, error) {
	rev, err := c.resolveRevision(ctx, revision.OpCheckoutUpdateSwitch, switchURL, true, sel)
	if err != nil {
		return revision.Invalid, err
	}

	entry, err := c.store.ReadEntry(ctx, target)
	if err != nil {
		return revision.Invalid, fmt.Errorf("svnclient: switch %s: %w", target, err)
	}

	driver := commit.NewUpdateDriver(c.session, c.store, c.root, c.withCleanTracking(opCtx.sink()), c.logger)

	got, err := driver.Switch(ctx, target, switchURL, int64(entry.Revision), int64(rev), recurse)
	if err != nil {
		return revision.Invalid, err
	}

	return revision.Number(got), nil
}

// Status reports target's local schedule/conflict state merged with
// whether the server-side tree has moved past it (spec.md §6 status).
func (c *Client) Status(ctx context.Context, target string, sel revision.Selector, recurse bool) ([]commit.StatusEntry, error) {
	rev, err := c.resolveRevision(ctx, revision.OpGeneral, target, false, sel)
	if err != nil {
		return nil, err
	}

	return c.statusDriver.Status(ctx, c.root, target, int64(rev), recurse)
}

// Diff renders the delta between fromSel and toSel against target as
// unified-diff text (spec.md §6 diff); it touches no working-copy state.
func (c *Client) Diff(ctx context.Context, target string, fromSel, toSel revision.Selector, recurse bool) (string, error) {
	from, err := c.resolveRevision(ctx, revision.OpGeneral, target, false, fromSel)
	if err != nil {
		return "", err
	}

	to, err := c.resolveRevision(ctx, revision.OpGeneral, target, false, toSel)
	if err != nil {
		return "", err
	}

	return c.diffDriver.Diff(ctx, target, int64(from), int64(to), recurse)
}

// Revert discards target's local schedule and conflict markers (spec.md
// §6 revert). It does not rewrite the file's content on disk and does not
// contact the server: reverting a text/prop edit means
// discarding the local change and is purely a local-store operation,
// grounded the same way the teacher treats a reverted local file —
// clearing bookkeeping rather than re-downloading content the store
// already has pristinely.
func (c *Client) Revert(ctx context.Context, target string) error {
	if err := c.store.ClearSchedule(ctx, target); err != nil {
		return fmt.Errorf("svnclient: revert %s: %w", target, err)
	}

	if err := c.store.DeleteTreeConflict(ctx, target); err != nil {
		return fmt.Errorf("svnclient: revert %s: clearing tree conflict: %w", target, err)
	}

	text, props, _, err := c.store.ReadConflictDescriptions(ctx, target)
	if err != nil {
		return fmt.Errorf("svnclient: revert %s: reading conflicts: %w", target, err)
	}

	if text != nil {
		if err := c.store.MarkTextResolved(ctx, target, wc.ChoiceBase); err != nil {
			return fmt.Errorf("svnclient: revert %s: clearing text conflict: %w", target, err)
		}
	}

	for name := range props {
		if err := c.store.MarkPropResolved(ctx, target, name, wc.ChoiceBase); err != nil {
			return fmt.Errorf("svnclient: revert %s: clearing property conflict %q: %w", target, name, err)
		}
	}

	return nil
}
