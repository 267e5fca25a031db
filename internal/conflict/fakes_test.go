package conflict

import (
	"context"
	"fmt"
	"sync"

	"github.com/tonimelisma/svngo/internal/rasession"
	"github.com/tonimelisma/svngo/internal/svnerr"
	"github.com/tonimelisma/svngo/internal/wc"
)

// fakeStore is a minimal in-memory wc.Store sufficient to drive the
// resolver tests: conflict descriptors plus a call log for every
// resolution-relevant method.
type fakeStore struct {
	mu sync.Mutex

	text  *wc.TextConflictDescriptor
	props map[string]*wc.PropConflictDescriptor
	tree  *wc.TreeConflictDescriptor

	calls []string

	lockErr    error
	unlockErr  error
	raisedOn   []string
	movedDest  string
}

func newFakeStore() *fakeStore {
	return &fakeStore{props: map[string]*wc.PropConflictDescriptor{}}
}

func (s *fakeStore) record(call string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
}

func (s *fakeStore) ReadEntry(ctx context.Context, path string) (*wc.Entry, error) {
	return nil, fmt.Errorf("fakeStore: ReadEntry not implemented")
}

func (s *fakeStore) AcquireWriteLockForResolve(ctx context.Context, path string) (*wc.WriteLock, error) {
	s.record("acquire_write_lock:" + path)
	if s.lockErr != nil {
		return nil, s.lockErr
	}
	return &wc.WriteLock{}, nil
}

func (s *fakeStore) ReleaseWriteLock(ctx context.Context, lock *wc.WriteLock) error {
	s.record("release_write_lock")
	return s.unlockErr
}

func (s *fakeStore) ReadConflictDescriptions(ctx context.Context, path string) (*wc.TextConflictDescriptor, map[string]*wc.PropConflictDescriptor, *wc.TreeConflictDescriptor, error) {
	return s.text, s.props, s.tree, nil
}

func (s *fakeStore) MarkTextResolved(ctx context.Context, path string, choice wc.ResolutionChoice) error {
	s.record(fmt.Sprintf("mark_text_resolved:%d", choice))
	return nil
}

func (s *fakeStore) MarkPropResolved(ctx context.Context, path, propname string, choice wc.ResolutionChoice) error {
	s.record(fmt.Sprintf("mark_prop_resolved:%s:%d", propname, choice))
	return nil
}

func (s *fakeStore) DeleteTreeConflict(ctx context.Context, path string) error {
	s.record("delete_tree_conflict")
	return nil
}

func (s *fakeStore) UpdateBreakMovedAway(ctx context.Context, path string) error {
	s.record("update_break_moved_away")
	return nil
}

func (s *fakeStore) UpdateRaiseMovedAway(ctx context.Context, parent, child string) error {
	s.record("update_raise_moved_away:" + child)
	s.mu.Lock()
	s.raisedOn = append(s.raisedOn, child)
	s.mu.Unlock()
	return nil
}

func (s *fakeStore) UpdateMovedAwayNode(ctx context.Context, path, moveDestination string) error {
	s.record("update_moved_away_node:" + moveDestination)
	s.mu.Lock()
	s.movedDest = moveDestination
	s.mu.Unlock()
	return nil
}

func (s *fakeStore) ScheduleAdd(ctx context.Context, path, kind, copyFromURL string, copyFromRev int64) error {
	return nil
}
func (s *fakeStore) ScheduleDelete(ctx context.Context, path string) error  { return nil }
func (s *fakeStore) ScheduleReplace(ctx context.Context, path string) error { return nil }
func (s *fakeStore) ClearSchedule(ctx context.Context, path string) error   { return nil }
func (s *fakeStore) BumpRevision(ctx context.Context, path string, newRev int64) error {
	return nil
}
func (s *fakeStore) Close() error { return nil }

var _ wc.Store = (*fakeStore)(nil)

// fakeSession is a minimal rasession.Session for details_test.go, fixed
// to answer the ancestry lookups FetchIncomingDeleteDetails drives.
type fakeSession struct {
	rasession.Session

	deletedRev    int64
	deletedRevErr error

	segments []rasession.LocationSegment
	segErr   error

	logEntries []rasession.LogEntry
	logErr     error

	authors map[int64]string
}

func (s *fakeSession) GetDeletedRev(ctx context.Context, path string, start, end int64) (int64, error) {
	if s.deletedRevErr != nil {
		return 0, s.deletedRevErr
	}
	return s.deletedRev, nil
}

func (s *fakeSession) GetLocationSegments(ctx context.Context, path string, peg, start, end int64, receive func(rasession.LocationSegment) error) error {
	if s.segErr != nil {
		return s.segErr
	}
	for _, seg := range s.segments {
		if err := receive(seg); err != nil {
			if svnerr.Is(err, svnerr.KindCancelled) {
				return nil
			}
			return err
		}
	}
	return nil
}

func (s *fakeSession) GetLog(ctx context.Context, paths []string, start, end int64, limit int, discoverChangedPaths, strictNodeHistory, includeMerged bool, revProps []string, receive func(rasession.LogEntry) error) error {
	if s.logErr != nil {
		return s.logErr
	}
	for _, entry := range s.logEntries {
		if err := receive(entry); err != nil {
			if svnerr.Is(err, svnerr.KindCancelled) {
				return nil
			}
			return err
		}
	}
	return nil
}

func (s *fakeSession) RevProp(ctx context.Context, rev int64, name string) (string, error) {
	if s.authors == nil {
		return "", nil
	}
	return s.authors[rev], nil
}

var _ rasession.Session = (*fakeSession)(nil)
