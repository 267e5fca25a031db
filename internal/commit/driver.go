package commit

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tonimelisma/svngo/internal/editor"
	"github.com/tonimelisma/svngo/internal/rasession"
	"github.com/tonimelisma/svngo/internal/revision"
	"github.com/tonimelisma/svngo/internal/svnerr"
	"github.com/tonimelisma/svngo/internal/wc"
)

// LogMessageFunc is invoked with the harvested items before any network
// I/O (spec.md §4.2 step 2). Returning ok=false aborts the commit with no
// network effect, modelling "a null message aborts the commit."
type LogMessageFunc func(items []Item) (message string, ok bool, err error)

// FileReader supplies the content of a working file for upload, and its
// checksum once fully read. Defined at the consumer so the driver never
// needs to know how working content is staged on disk.
type FileReader interface {
	ReadFile(ctx context.Context, abspath string) (content []byte, checksum editor.Checksum, err error)
	ReadPropChanges(ctx context.Context, abspath string) (map[string]editor.PropValue, error)
}

// PostCommitWarning wraps a post-commit bookkeeping failure. The remote
// commit already succeeded — Info is populated — but the working copy's
// local revision/schedule bookkeeping could not be updated to match
// (spec.md §4.2 "Failure model").
type PostCommitWarning struct {
	Info rasession.CommitInfo
	Err  error
}

func (w *PostCommitWarning) Error() string {
	return fmt.Sprintf("commit: succeeded as r%d but post-commit bookkeeping failed: %v", w.Info.Revision, w.Err)
}

func (w *PostCommitWarning) Unwrap() error { return w.Err }

// Driver orchestrates a commit: harvest, log message, activity, edit
// replay, check-in, post-commit (spec.md §4.2). It is single-threaded
// with respect to the edit stream, matching the protocol's stack
// discipline (spec.md §5).
type Driver struct {
	session rasession.Session
	store   wc.Store
	harvest *Harvester
	files   FileReader
	logger  *slog.Logger
}

// NewDriver builds a Driver. harvester supplies the commit item set;
// files supplies upload content for items with text/prop modifications.
func NewDriver(session rasession.Session, store wc.Store, harvester *Harvester, files FileReader, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}

	return &Driver{session: session, store: store, harvest: harvester, files: files, logger: logger}
}

// Commit drives the full protocol against targets. On a no-op commit (no
// mutating items harvested) it returns CommitInfo{Revision: Invalid} and
// performs zero session calls (spec.md §8 property 3 / scenario S1).
func (d *Driver) Commit(ctx context.Context, targets []string, logMessage LogMessageFunc) (rasession.CommitInfo, error) {
	items, err := d.harvest.Harvest(ctx, targets)
	if err != nil {
		return rasession.CommitInfo{}, err
	}

	if !anyMutating(items) {
		d.logger.Info("commit: no-op, nothing to commit")
		return rasession.CommitInfo{Revision: int64(revision.Invalid)}, nil
	}

	message, ok, err := logMessage(items)
	if err != nil {
		return rasession.CommitInfo{}, fmt.Errorf("commit: log message callback: %w", err)
	}
	if !ok {
		d.logger.Info("commit: aborted by log message callback")
		return rasession.CommitInfo{Revision: int64(revision.Invalid)}, nil
	}

	activityID := uuid.New().String()

	d.logger.Info("commit: beginning activity", "activity_id", activityID, "items", len(items))

	activityID, err = d.session.BeginActivity(ctx, activityID)
	if err != nil {
		return rasession.CommitInfo{}, svnerr.Wrap(svnerr.KindMkactivityFailed, err, "begin activity %s", activityID)
	}

	if err := d.replay(ctx, activityID, items, message); err != nil {
		abortErr := d.session.AbortActivity(ctx, activityID)
		return rasession.CommitInfo{}, svnerr.ChainCleanup(err, abortErr)
	}

	info, err := d.session.Checkin(ctx, activityID)
	if err != nil {
		// Check-in failure: the activity may linger server-side;
		// server-side cleanup is out of scope (spec.md §4.2).
		return rasession.CommitInfo{}, fmt.Errorf("commit: check-in: %w", err)
	}

	d.logger.Info("commit: checked in", "revision", info.Revision)

	if err := d.postCommit(ctx, items, info); err != nil {
		return info, &PostCommitWarning{Info: info, Err: err}
	}

	return info, nil
}

// replay walks items parent-before-child, checking each out into the
// activity and issuing copy/delete/put/proppatch/mkcol per its state
// flags (spec.md §4.2 step 4).
func (d *Driver) replay(ctx context.Context, activityID string, items []Item, message string) error {
	for _, item := range items {
		resource, err := d.session.CheckoutResource(ctx, item.URL, activityID)
		if err != nil {
			return fmt.Errorf("commit: checkout %s: %w", item.Abspath, err)
		}

		if !item.IsMutating() {
			continue
		}

		if item.State.Has(StateDelete) {
			if err := d.session.Delete(ctx, resource); err != nil {
				return fmt.Errorf("commit: delete %s: %w", item.Abspath, err)
			}
		}

		if item.State.Has(StateAdd) {
			switch {
			case item.State.Has(StateIsCopy):
				if err := d.session.Copy(ctx, item.CopyFromURL, int64(item.CopyFromRev), resource); err != nil {
					return fmt.Errorf("commit: copy %s from %s: %w", item.Abspath, item.CopyFromURL, err)
				}
			case item.Kind == revision.NodeDir:
				if err := d.session.Mkcol(ctx, resource); err != nil {
					return fmt.Errorf("commit: mkcol %s: %w", item.Abspath, err)
				}
			}
		}

		if item.State.Has(StateTextMods) {
			content, checksum, err := d.files.ReadFile(ctx, item.Abspath)
			if err != nil {
				return fmt.Errorf("commit: reading %s: %w", item.Abspath, err)
			}
			if err := d.session.Put(ctx, resource, bytes.NewReader(content), checksum); err != nil {
				return fmt.Errorf("commit: put %s: %w", item.Abspath, err)
			}
		}

		if item.State.Has(StatePropMods) {
			changes, err := d.files.ReadPropChanges(ctx, item.Abspath)
			if err != nil {
				return fmt.Errorf("commit: reading property changes for %s: %w", item.Abspath, err)
			}
			if err := d.session.Proppatch(ctx, resource, changes); err != nil {
				return fmt.Errorf("commit: proppatch %s: %w", item.Abspath, err)
			}
		}
	}

	_ = message // reserved: a real session would attach svn:log during begin_activity/checkin

	return nil
}

// postCommit bumps each mutated item's working-copy revision to the new
// commit and clears its schedule (spec.md §4.2 step 6). The first
// failure stops the loop, leaving later items un-bumped; it does not undo
// the remote commit, and Commit surfaces it as a PostCommitWarning.
func (d *Driver) postCommit(ctx context.Context, items []Item, info rasession.CommitInfo) error {
	for _, item := range items {
		if !item.IsMutating() {
			continue
		}

		if item.State.Has(StateDelete) && !item.State.Has(StateAdd) {
			continue // deleted nodes have no post-commit bookkeeping left to update
		}

		if err := d.store.BumpRevision(ctx, item.Abspath, info.Revision); err != nil {
			return fmt.Errorf("bump revision for %s: %w", item.Abspath, err)
		}
	}

	return nil
}

func anyMutating(items []Item) bool {
	for _, it := range items {
		if it.IsMutating() {
			return true
		}
	}
	return false
}
