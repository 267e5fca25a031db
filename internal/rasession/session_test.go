package rasession

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonimelisma/svngo/internal/editor"
)

type staticAuth struct{ header string }

func (a staticAuth) AuthHeader(ctx context.Context) (string, error) { return a.header, nil }

func newTestSession(t *testing.T, handler http.HandlerFunc) (*DAVSession, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	sess, err := Open(context.Background(), srv.URL, "uuid-1", srv.Client(), staticAuth{header: "Bearer tok"}, nil)
	require.NoError(t, err)

	return sess, srv
}

func TestLatestRevision(t *testing.T) {
	sess, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/latest-revision", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(latestRevisionResponse{Revision: 42})
	})

	rev, err := sess.LatestRevision(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 42, rev)
}

func TestDatedRevision(t *testing.T) {
	want := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	sess, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/dated-revision", r.URL.Path)
		json.NewEncoder(w).Encode(datedRevisionResponse{Revision: 7})
	})

	rev, err := sess.DatedRevision(context.Background(), want)
	require.NoError(t, err)
	assert.EqualValues(t, 7, rev)
}

func TestGetFile(t *testing.T) {
	sess, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/files/trunk/a.txt", r.URL.Path)
		w.Header().Set("X-Svn-Prop-Svn-Mime-Type", "text/plain")
		w.Write([]byte("hello"))
	})

	rc, props, err := sess.GetFile(context.Background(), "/trunk/a.txt", 5)
	require.NoError(t, err)
	defer rc.Close()

	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(content))
	assert.Equal(t, "text/plain", props["Svn-Mime-Type"])
}

func TestGetDir(t *testing.T) {
	sess, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(dirResponse{
			Entries:    []DirEntry{{Name: "a.txt", Kind: "file", Size: 5}},
			Properties: map[string]string{"svn:ignore": "*.o"},
		})
	})

	entries, props, err := sess.GetDir(context.Background(), "/trunk", 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.txt", entries[0].Name)
	assert.Equal(t, "*.o", props["svn:ignore"])
}

func TestGetLogStreamsEntriesAndStopsOnCancel(t *testing.T) {
	sess, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		enc := json.NewEncoder(w)
		for _, rev := range []int64{3, 2, 1} {
			enc.Encode(logEntryWire{Revision: rev, Author: "alice", Message: "m", ChangedPaths: map[string]string{"/a": "M"}})
		}
	})

	var seen []int64
	err := sess.GetLog(context.Background(), []string{"/"}, 3, 0, 0, true, false, false, nil, func(e LogEntry) error {
		seen = append(seen, e.Revision)
		assert.Equal(t, ChangeModified, e.ChangedPaths["/a"])
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 2, 1}, seen)
}

func TestGetLogReceiveErrorPropagates(t *testing.T) {
	sess, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(logEntryWire{Revision: 1})
		json.NewEncoder(w).Encode(logEntryWire{Revision: 2})
	})

	boom := fmt.Errorf("boom")
	err := sess.GetLog(context.Background(), nil, 2, 0, 0, false, false, false, nil, func(e LogEntry) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestGetLocationSegments(t *testing.T) {
	sess, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(locationSegmentWire{StartRev: 1, EndRev: 5, Path: "/trunk/a.txt"})
	})

	var got []LocationSegment
	err := sess.GetLocationSegments(context.Background(), "/trunk/a.txt", 5, 1, 5, func(seg LocationSegment) error {
		got = append(got, seg)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "/trunk/a.txt", got[0].Path)
}

func TestGetDeletedRev(t *testing.T) {
	sess, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(deletedRevResponse{Revision: 9})
	})

	rev, err := sess.GetDeletedRev(context.Background(), "/trunk/old.txt", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 9, rev)
}

func TestRevProp(t *testing.T) {
	sess, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/revprops/5/svn:log", r.URL.Path)
		json.NewEncoder(w).Encode(revPropResponse{Value: "a commit message"})
	})

	val, err := sess.RevProp(context.Background(), 5, "svn:log")
	require.NoError(t, err)
	assert.Equal(t, "a commit message", val)
}

func TestCommitSequence(t *testing.T) {
	var gotPutChecksum string

	sess, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/activities/act-1":
			w.WriteHeader(http.StatusCreated)
		case r.Method == http.MethodPost && r.URL.Path == "/checkout":
			json.NewEncoder(w).Encode(map[string]string{"resource": "res-1"})
		case r.Method == http.MethodPut && r.URL.Path == "/resources/res-1":
			gotPutChecksum = r.Header.Get("X-Svn-Checksum")
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodPatch && r.URL.Path == "/resources/res-1/props":
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodPost && r.URL.Path == "/copy":
			w.WriteHeader(http.StatusCreated)
		case r.Method == http.MethodDelete && r.URL.Path == "/resources/res-1":
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodPost && r.URL.Path == "/checkin":
			json.NewEncoder(w).Encode(checkinResponse{Revision: 11, Author: "alice", Date: time.Now()})
		case r.Method == http.MethodDelete && r.URL.Path == "/activities/act-1":
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	ctx := context.Background()
	gotActivityID, err := sess.BeginActivity(ctx, "act-1")
	require.NoError(t, err)
	assert.Equal(t, "act-1", gotActivityID)

	resource, err := sess.CheckoutResource(ctx, "/trunk/a.txt", "act-1")
	require.NoError(t, err)
	assert.Equal(t, "res-1", resource)

	require.NoError(t, sess.Put(ctx, resource, io.NopCloser(stringReader("hello")), editor.Checksum{Algo: "md5", Sum: []byte{0xde, 0xad}}))
	assert.Equal(t, "dead", gotPutChecksum)

	require.NoError(t, sess.Proppatch(ctx, resource, map[string]editor.PropValue{"svn:mime-type": editor.PropSet([]byte("text/plain"))}))
	require.NoError(t, sess.Copy(ctx, "/trunk/b.txt", 3, "res-2"))
	require.NoError(t, sess.Delete(ctx, resource))

	info, err := sess.Checkin(ctx, "act-1")
	require.NoError(t, err)
	assert.EqualValues(t, 11, info.Revision)

	require.NoError(t, sess.AbortActivity(ctx, "act-1"))
}

func TestBeginActivityRetriesOnCollision(t *testing.T) {
	sess, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut && r.URL.Path == "/activities/taken-id" {
			w.WriteHeader(http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusCreated)
	})

	gotID, err := sess.BeginActivity(context.Background(), "taken-id")
	require.NoError(t, err)
	assert.NotEqual(t, "taken-id", gotID)
}

func TestBeginActivityGivesUpAfterMaxRetries(t *testing.T) {
	sess, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})

	_, err := sess.BeginActivity(context.Background(), "always-taken")
	require.Error(t, err)
}

type stringReader string

func (s stringReader) Read(p []byte) (int, error) {
	n := copy(p, []byte(s))
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}
