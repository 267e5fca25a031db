package commit

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/tonimelisma/svngo/internal/editor"
	"github.com/tonimelisma/svngo/internal/rasession"
	"github.com/tonimelisma/svngo/internal/revision"
	"github.com/tonimelisma/svngo/internal/wc"
)

// fakeStore is a minimal in-memory wc.Store sufficient to drive the
// commit tests: entries plus schedule/revision bookkeeping.
type fakeStore struct {
	mu      sync.Mutex
	entries map[string]*wc.Entry

	bumpCalls      []string
	bumpShouldFail bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: make(map[string]*wc.Entry)}
}

func (s *fakeStore) put(e wc.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := e
	s.entries[e.Path] = &cp
}

func (s *fakeStore) ReadEntry(ctx context.Context, path string) (*wc.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[path]
	if !ok {
		return nil, fmt.Errorf("fakeStore: no entry at %s", path)
	}
	cp := *e
	return &cp, nil
}

func (s *fakeStore) AcquireWriteLockForResolve(ctx context.Context, path string) (*wc.WriteLock, error) {
	return nil, nil
}
func (s *fakeStore) ReleaseWriteLock(ctx context.Context, lock *wc.WriteLock) error { return nil }
func (s *fakeStore) ReadConflictDescriptions(ctx context.Context, path string) (*wc.TextConflictDescriptor, map[string]*wc.PropConflictDescriptor, *wc.TreeConflictDescriptor, error) {
	return nil, nil, nil, nil
}
func (s *fakeStore) MarkTextResolved(ctx context.Context, path string, choice wc.ResolutionChoice) error {
	return nil
}
func (s *fakeStore) MarkPropResolved(ctx context.Context, path, propname string, choice wc.ResolutionChoice) error {
	return nil
}
func (s *fakeStore) DeleteTreeConflict(ctx context.Context, path string) error { return nil }
func (s *fakeStore) UpdateBreakMovedAway(ctx context.Context, path string) error { return nil }
func (s *fakeStore) UpdateRaiseMovedAway(ctx context.Context, parent, child string) error {
	return nil
}
func (s *fakeStore) UpdateMovedAwayNode(ctx context.Context, path, moveDestination string) error {
	return nil
}
func (s *fakeStore) ScheduleAdd(ctx context.Context, path string, kind string, copyFromURL string, copyFromRev int64) error {
	return nil
}
func (s *fakeStore) ScheduleDelete(ctx context.Context, path string) error  { return nil }
func (s *fakeStore) ScheduleReplace(ctx context.Context, path string) error { return nil }
func (s *fakeStore) ClearSchedule(ctx context.Context, path string) error  { return nil }

func (s *fakeStore) BumpRevision(ctx context.Context, path string, newRev int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bumpCalls = append(s.bumpCalls, path)
	if s.bumpShouldFail {
		return fmt.Errorf("fakeStore: bump revision failed")
	}
	if e, ok := s.entries[path]; ok {
		e.Revision = revision.Number(newRev)
		e.Schedule = wc.ScheduleNormal
	}
	return nil
}

func (s *fakeStore) Close() error { return nil }

// fakeModChecker lets tests fix which paths report as modified.
type fakeModChecker struct {
	textModified  map[string]bool
	propsModified map[string]bool
}

func newFakeModChecker() *fakeModChecker {
	return &fakeModChecker{textModified: map[string]bool{}, propsModified: map[string]bool{}}
}

func (c *fakeModChecker) TextModified(ctx context.Context, path string) (bool, error) {
	return c.textModified[path], nil
}

func (c *fakeModChecker) PropsModified(ctx context.Context, path string) (bool, error) {
	return c.propsModified[path], nil
}

// fakeFiles supplies fixed content/checksum/prop-changes per path.
type fakeFiles struct {
	content map[string][]byte
	sums    map[string]editor.Checksum
	props   map[string]map[string]editor.PropValue
}

func newFakeFiles() *fakeFiles {
	return &fakeFiles{content: map[string][]byte{}, sums: map[string]editor.Checksum{}, props: map[string]map[string]editor.PropValue{}}
}

func (f *fakeFiles) ReadFile(ctx context.Context, abspath string) ([]byte, editor.Checksum, error) {
	return f.content[abspath], f.sums[abspath], nil
}

func (f *fakeFiles) ReadPropChanges(ctx context.Context, abspath string) (map[string]editor.PropValue, error) {
	return f.props[abspath], nil
}

// fakeSession is a minimal rasession.Session recording every call it
// receives, so tests can assert the exact commit-protocol call sequence
// (spec.md §8 scenario S2).
type fakeSession struct {
	rasession.Session // embed nil: only the methods below are implemented; others panic if called

	mu    sync.Mutex
	calls []string

	nextResource     int
	beginActivityErr error
	checkinErr       error
	checkinInfo      rasession.CommitInfo
	puts             map[string][]byte

	// doUpdateFn/doSwitchFn/doDiffFn/doStatusFn, when set, replace the
	// default "not wired for this test" behavior of the corresponding
	// do_* verb — tests drive ed directly to simulate a server event
	// stream.
	doUpdateFn func(ctx context.Context, target string, baseRev, targetRev int64, recurse bool, ed editor.Editor) error
	doSwitchFn func(ctx context.Context, target, switchURL string, baseRev, targetRev int64, recurse bool, ed editor.Editor) error
	doDiffFn   func(ctx context.Context, target string, fromRev, toRev int64, recurse bool, ed editor.Editor) error
	doStatusFn func(ctx context.Context, target string, targetRev int64, recurse bool, ed editor.Editor) error
}

func newFakeSession() *fakeSession {
	return &fakeSession{puts: map[string][]byte{}, checkinInfo: rasession.CommitInfo{Revision: 11, Date: time.Now(), Author: "alice"}}
}

func (s *fakeSession) record(call string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
}

func (s *fakeSession) BeginActivity(ctx context.Context, id string) (string, error) {
	s.record("begin_activity")
	if s.beginActivityErr != nil {
		return "", s.beginActivityErr
	}
	return id, nil
}

func (s *fakeSession) CheckoutResource(ctx context.Context, srcURL string, activityID string) (string, error) {
	s.record("checkout:" + srcURL)
	s.mu.Lock()
	s.nextResource++
	n := s.nextResource
	s.mu.Unlock()
	return fmt.Sprintf("res-%d", n), nil
}

func (s *fakeSession) Put(ctx context.Context, resource string, content io.Reader, contentChecksum editor.Checksum) error {
	s.record("put:" + resource)
	data, _ := io.ReadAll(content)
	s.mu.Lock()
	s.puts[resource] = data
	s.mu.Unlock()
	return nil
}

func (s *fakeSession) Proppatch(ctx context.Context, resource string, changes map[string]editor.PropValue) error {
	s.record("proppatch:" + resource)
	return nil
}

func (s *fakeSession) Mkcol(ctx context.Context, resource string) error {
	s.record("mkcol:" + resource)
	return nil
}

func (s *fakeSession) Copy(ctx context.Context, srcURL string, srcRev int64, dstResource string) error {
	s.record("copy:" + dstResource)
	return nil
}

func (s *fakeSession) Delete(ctx context.Context, resource string) error {
	s.record("delete:" + resource)
	return nil
}

func (s *fakeSession) Checkin(ctx context.Context, activityID string) (rasession.CommitInfo, error) {
	s.record("checkin")
	return s.checkinInfo, s.checkinErr
}

func (s *fakeSession) AbortActivity(ctx context.Context, id string) error {
	s.record("abort_activity")
	return nil
}

func (s *fakeSession) DoUpdate(ctx context.Context, target string, baseRev, targetRev int64, recurse bool, ed editor.Editor) error {
	s.record("do_update")
	if s.doUpdateFn == nil {
		return fmt.Errorf("fakeSession: DoUpdate not wired for this test")
	}
	return s.doUpdateFn(ctx, target, baseRev, targetRev, recurse, ed)
}

func (s *fakeSession) DoSwitch(ctx context.Context, target, switchURL string, baseRev, targetRev int64, recurse bool, ed editor.Editor) error {
	s.record("do_switch")
	if s.doSwitchFn == nil {
		return fmt.Errorf("fakeSession: DoSwitch not wired for this test")
	}
	return s.doSwitchFn(ctx, target, switchURL, baseRev, targetRev, recurse, ed)
}

func (s *fakeSession) DoDiff(ctx context.Context, target string, fromRev, toRev int64, recurse bool, ed editor.Editor) error {
	s.record("do_diff")
	if s.doDiffFn == nil {
		return fmt.Errorf("fakeSession: DoDiff not wired for this test")
	}
	return s.doDiffFn(ctx, target, fromRev, toRev, recurse, ed)
}

func (s *fakeSession) DoStatus(ctx context.Context, target string, targetRev int64, recurse bool, ed editor.Editor) error {
	s.record("do_status")
	if s.doStatusFn == nil {
		return fmt.Errorf("fakeSession: DoStatus not wired for this test")
	}
	return s.doStatusFn(ctx, target, targetRev, recurse, ed)
}

var (
	_ wc.Store            = (*fakeStore)(nil)
	_ rasession.Session   = (*fakeSession)(nil)
	_ ModificationChecker = (*fakeModChecker)(nil)
	_ FileReader          = (*fakeFiles)(nil)
)
