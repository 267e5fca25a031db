package conflict

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tonimelisma/svngo/internal/svnerr"
	"github.com/tonimelisma/svngo/internal/wc"
)

// mtimeSleep is the filesystem-timestamp collision guard requested by
// spec.md §4.3.3 step 4 ("release the lock and request a
// filesystem-timestamp sleep"): long enough to push past most
// filesystems' one-second mtime resolution.
const mtimeSleep = 1100 * time.Millisecond

// Resolver applies a chosen Option to a Conflict, under a working-copy
// write lock, mutating store state (spec.md §4.3.3).
type Resolver struct {
	store     wc.Store
	logger    *slog.Logger
	sleepFunc func(time.Duration)
}

// NewResolver builds a Resolver over store.
func NewResolver(store wc.Store, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}

	return &Resolver{store: store, logger: logger, sleepFunc: time.Sleep}
}

// ResolveText applies option to c's text conflict. Idempotent: if c has
// no outstanding text conflict, this is a no-op (spec.md §4.3.3
// "Idempotence").
func (r *Resolver) ResolveText(ctx context.Context, c *Conflict, option Option) error {
	if c.Text == nil {
		return nil
	}

	if option == OptionPostpone {
		return nil
	}

	choice, ok := textOrPropChoice(option)
	if !ok {
		return svnerr.New(svnerr.KindConflictOptionNotApplicable, "option %s is not applicable to a text conflict", option)
	}

	lock, err := r.store.AcquireWriteLockForResolve(ctx, c.Path)
	if err != nil {
		return fmt.Errorf("conflict: acquiring write lock for %s: %w", c.Path, err)
	}
	defer r.release(ctx, lock)

	if err := r.store.MarkTextResolved(ctx, c.Path, choice); err != nil {
		return fmt.Errorf("conflict: resolving text conflict at %s: %w", c.Path, err)
	}

	c.ResolutionText = option
	c.Text = nil

	return nil
}

// ResolveProp applies option to the property conflict named propname (or
// every currently conflicted property, when propname is ""; spec.md
// §4.3.3 step 2, scenario S5). Idempotent.
func (r *Resolver) ResolveProp(ctx context.Context, c *Conflict, propname string, option Option) error {
	if len(c.Props) == 0 {
		return nil
	}

	if propname != "" {
		if _, ok := c.Props[propname]; !ok {
			return nil
		}
	}

	if option == OptionPostpone {
		return nil
	}

	choice, ok := textOrPropChoice(option)
	if !ok {
		return svnerr.New(svnerr.KindConflictOptionNotApplicable, "option %s is not applicable to a property conflict", option)
	}

	lock, err := r.store.AcquireWriteLockForResolve(ctx, c.Path)
	if err != nil {
		return fmt.Errorf("conflict: acquiring write lock for %s: %w", c.Path, err)
	}
	defer r.release(ctx, lock)

	if err := r.store.MarkPropResolved(ctx, c.Path, propname, choice); err != nil {
		return fmt.Errorf("conflict: resolving property conflict %q at %s: %w", propname, c.Path, err)
	}

	if propname == "" {
		for name := range c.Props {
			c.ResolvedProps[name] = option
		}
		c.Props = map[string]*wc.PropConflictDescriptor{}
	} else {
		c.ResolvedProps[propname] = option
		delete(c.Props, propname)
	}

	return nil
}

// ResolveTree applies option to c's tree conflict, remapping legacy
// option ids first (spec.md §4.3.3's "Backwards-compatible mapping").
// movedAwayChildren supplies the set of children to raise fresh tree
// conflicts on when option resolves to
// update-any-moved-away-children; it is ignored otherwise. Idempotent.
func (r *Resolver) ResolveTree(ctx context.Context, c *Conflict, option Option, movedAwayChildren []string) error {
	if c.Tree == nil {
		return nil
	}

	option = remapLegacyTreeOption(option, c)

	if option == OptionPostpone {
		return nil
	}

	lock, err := r.store.AcquireWriteLockForResolve(ctx, c.Path)
	if err != nil {
		return fmt.Errorf("conflict: acquiring write lock for %s: %w", c.Path, err)
	}
	defer r.release(ctx, lock)

	switch option {
	case OptionAcceptCurrentWCState:
		// The core's correctness invariant: accepting the current state
		// must never leave a half-completed move (spec.md §4.3.3).
		if (c.LocalChange == wc.LocalMovedAway || c.LocalChange == wc.LocalDeleted || c.LocalChange == wc.LocalReplaced) && c.IncomingChange == wc.IncomingEdit {
			if err := r.store.UpdateBreakMovedAway(ctx, c.Path); err != nil {
				return fmt.Errorf("conflict: breaking moved-away state at %s: %w", c.Path, err)
			}
		}

		if err := r.store.DeleteTreeConflict(ctx, c.Path); err != nil {
			return fmt.Errorf("conflict: clearing tree conflict at %s: %w", c.Path, err)
		}

	case OptionUpdateMoveDestination:
		if err := r.store.UpdateMovedAwayNode(ctx, c.Path, c.Tree.RightRelpath); err != nil {
			return fmt.Errorf("conflict: replaying incoming edit onto move destination of %s: %w", c.Path, err)
		}

		if err := r.store.DeleteTreeConflict(ctx, c.Path); err != nil {
			return fmt.Errorf("conflict: clearing tree conflict at %s: %w", c.Path, err)
		}

	case OptionUpdateAnyMovedAwayChildren:
		for _, child := range movedAwayChildren {
			if err := r.store.UpdateRaiseMovedAway(ctx, c.Path, child); err != nil {
				return fmt.Errorf("conflict: raising moved-away conflict on %s: %w", child, err)
			}
		}

		if err := r.store.DeleteTreeConflict(ctx, c.Path); err != nil {
			return fmt.Errorf("conflict: clearing tree conflict at %s: %w", c.Path, err)
		}

	default:
		return svnerr.New(svnerr.KindConflictOptionNotApplicable, "option %s is not applicable to a tree conflict", option)
	}

	c.ResolutionTree = option
	c.Tree = nil

	return nil
}

func (r *Resolver) release(ctx context.Context, lock *wc.WriteLock) {
	if err := r.store.ReleaseWriteLock(ctx, lock); err != nil {
		r.logger.Warn("conflict: releasing write lock failed", "error", err)
	}

	r.sleepFunc(mtimeSleep)
}
