package rasession

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/tonimelisma/svngo/internal/editor"
	"github.com/tonimelisma/svngo/internal/revision"
	"github.com/tonimelisma/svngo/internal/svnerr"
)

// Session is the repository-access capability consumed by the core
// (spec.md §6). It satisfies revision.ServerClock so the revision
// resolver can depend on it directly.
type Session interface {
	revision.ServerClock

	Reparent(ctx context.Context, newRootURL string) error

	GetFile(ctx context.Context, path string, rev int64) (io.ReadCloser, map[string]string, error)
	GetDir(ctx context.Context, path string, rev int64) ([]DirEntry, map[string]string, error)

	GetLog(ctx context.Context, paths []string, start, end int64, limit int, discoverChangedPaths, strictNodeHistory, includeMerged bool, revProps []string, receive func(LogEntry) error) error

	GetLocationSegments(ctx context.Context, path string, peg, start, end int64, receive func(LocationSegment) error) error
	GetDeletedRev(ctx context.Context, path string, start, end int64) (int64, error)

	RevProp(ctx context.Context, rev int64, name string) (string, error)

	// do_update/do_switch/do_diff/do_status: the server drives ed with an
	// edit-event stream describing the requested delta (spec.md §6).
	DoUpdate(ctx context.Context, target string, baseRev, targetRev int64, recurse bool, ed editor.Editor) error
	DoSwitch(ctx context.Context, target, switchURL string, baseRev, targetRev int64, recurse bool, ed editor.Editor) error
	DoDiff(ctx context.Context, target string, fromRev, toRev int64, recurse bool, ed editor.Editor) error
	DoStatus(ctx context.Context, target string, targetRev int64, recurse bool, ed editor.Editor) error

	// Commit-family verbs (spec.md §6, "For commit:").
	// BeginActivity returns the activity id actually used: on a 409
	// collision against an existing activity URL it regenerates and
	// retries rather than failing the commit outright, so the returned
	// id may differ from the one requested.
	BeginActivity(ctx context.Context, id string) (string, error)
	CheckoutResource(ctx context.Context, url string, activityID string) (resource string, err error)
	Put(ctx context.Context, resource string, content io.Reader, contentChecksum editor.Checksum) error
	Proppatch(ctx context.Context, resource string, changes map[string]editor.PropValue) error
	Mkcol(ctx context.Context, resource string) error
	Copy(ctx context.Context, srcURL string, srcRev int64, dstResource string) error
	Delete(ctx context.Context, resource string) error
	Checkin(ctx context.Context, activityID string) (CommitInfo, error)
	AbortActivity(ctx context.Context, id string) error
}

// DAVSession is the concrete HTTP-backed Session implementation.
type DAVSession struct {
	client    *httpClient
	rootURL   string
	reposUUID string
	logger    *slog.Logger
}

// Open establishes a session rooted at rootURL (spec.md §6 "open(url,
// auth) -> session").
func Open(ctx context.Context, rootURL, reposUUID string, hc *http.Client, auth Authenticator, logger *slog.Logger) (*DAVSession, error) {
	if logger == nil {
		logger = slog.Default()
	}

	return &DAVSession{
		client:    newHTTPClient(rootURL, hc, auth, logger),
		rootURL:   rootURL,
		reposUUID: reposUUID,
		logger:    logger,
	}, nil
}

// Reparent retargets the session at a new root URL within the same
// repository, without re-authenticating.
func (s *DAVSession) Reparent(ctx context.Context, newRootURL string) error {
	s.client.baseURL = newRootURL
	s.rootURL = newRootURL
	return nil
}

func (s *DAVSession) LatestRevision(ctx context.Context) (revision.Number, error) {
	resp, err := s.client.do(ctx, http.MethodGet, "/latest-revision", nil, nil)
	if err != nil {
		return revision.Invalid, err
	}
	defer resp.Body.Close()

	var out latestRevisionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return revision.Invalid, fmt.Errorf("rasession: decode latest-revision: %w", err)
	}

	return revision.Number(out.Revision), nil
}

func (s *DAVSession) DatedRevision(ctx context.Context, t time.Time) (revision.Number, error) {
	path := "/dated-revision?t=" + url.QueryEscape(t.Format(time.RFC3339))

	resp, err := s.client.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return revision.Invalid, err
	}
	defer resp.Body.Close()

	var out datedRevisionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return revision.Invalid, fmt.Errorf("rasession: decode dated-revision: %w", err)
	}

	return revision.Number(out.Revision), nil
}

func (s *DAVSession) GetFile(ctx context.Context, path string, rev int64) (io.ReadCloser, map[string]string, error) {
	reqPath := fmt.Sprintf("/files%s?rev=%d", ensureLeadingSlash(path), rev)

	resp, err := s.client.do(ctx, http.MethodGet, reqPath, nil, http.Header{"Accept": {"application/octet-stream"}})
	if err != nil {
		return nil, nil, err
	}

	props := parsePropertyHeaders(resp.Header)
	return resp.Body, props, nil
}

func (s *DAVSession) GetDir(ctx context.Context, path string, rev int64) ([]DirEntry, map[string]string, error) {
	reqPath := fmt.Sprintf("/dirs%s?rev=%d", ensureLeadingSlash(path), rev)

	resp, err := s.client.do(ctx, http.MethodGet, reqPath, nil, nil)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	var out dirResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, nil, fmt.Errorf("rasession: decode dir %q: %w", path, err)
	}

	return out.Entries, out.Properties, nil
}

func (s *DAVSession) GetLog(ctx context.Context, paths []string, start, end int64, limit int, discoverChangedPaths, strictNodeHistory, includeMerged bool, revProps []string, receive func(LogEntry) error) error {
	body, err := json.Marshal(map[string]any{
		"paths":                  paths,
		"start":                  start,
		"end":                    end,
		"limit":                  limit,
		"discover_changed_paths": discoverChangedPaths,
		"strict_node_history":    strictNodeHistory,
		"include_merged":         includeMerged,
		"revprops":               revProps,
	})
	if err != nil {
		return fmt.Errorf("rasession: marshal get-log request: %w", err)
	}

	resp, err := s.client.do(ctx, http.MethodPost, "/log", body, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	dec := json.NewDecoder(resp.Body)
	for dec.More() {
		var wire logEntryWire
		if err := dec.Decode(&wire); err != nil {
			return fmt.Errorf("rasession: decode log entry: %w", err)
		}

		entry := LogEntry{Revision: wire.Revision, Author: wire.Author, Date: wire.Date, Message: wire.Message}
		if len(wire.ChangedPaths) > 0 {
			entry.ChangedPaths = make(map[string]ChangeKind, len(wire.ChangedPaths))
			for p, k := range wire.ChangedPaths {
				if len(k) > 0 {
					entry.ChangedPaths[p] = ChangeKind(k[0])
				}
			}
		}

		if err := receive(entry); err != nil {
			if svnerr.Is(err, svnerr.KindCancelled) {
				// Cancellation used as an early-termination signal
				// (spec.md §7 "handled locally"): stop iterating, report
				// success to the caller with whatever was accumulated.
				return nil
			}
			return err
		}
	}

	return nil
}

func (s *DAVSession) GetLocationSegments(ctx context.Context, path string, peg, start, end int64, receive func(LocationSegment) error) error {
	reqPath := fmt.Sprintf("/location-segments?path=%s&peg=%d&start=%d&end=%d", url.QueryEscape(path), peg, start, end)

	resp, err := s.client.do(ctx, http.MethodGet, reqPath, nil, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	dec := json.NewDecoder(resp.Body)
	for dec.More() {
		var wire locationSegmentWire
		if err := dec.Decode(&wire); err != nil {
			return fmt.Errorf("rasession: decode location segment: %w", err)
		}

		if err := receive(LocationSegment(wire)); err != nil {
			if svnerr.Is(err, svnerr.KindCancelled) {
				// Same early-termination contract as GetLog.
				return nil
			}
			return err
		}
	}

	return nil
}

func (s *DAVSession) GetDeletedRev(ctx context.Context, path string, start, end int64) (int64, error) {
	reqPath := fmt.Sprintf("/deleted-rev?path=%s&start=%d&end=%d", url.QueryEscape(path), start, end)

	resp, err := s.client.do(ctx, http.MethodGet, reqPath, nil, nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	var out deletedRevResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("rasession: decode deleted-rev: %w", err)
	}

	return out.Revision, nil
}

func (s *DAVSession) RevProp(ctx context.Context, rev int64, name string) (string, error) {
	reqPath := fmt.Sprintf("/revprops/%d/%s", rev, url.PathEscape(name))

	resp, err := s.client.do(ctx, http.MethodGet, reqPath, nil, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out revPropResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("rasession: decode revprop: %w", err)
	}

	return out.Value, nil
}

// maxActivityCollisionRetries bounds MKACTIVITY's retry-on-collision loop
// (a 409 means the activity URL is already taken, not a transient fault —
// a small, fixed bound is enough since a UUID collision is vanishingly
// unlikely twice in a row).
const maxActivityCollisionRetries = 3

// BeginActivity creates a server-side commit transaction (MKACTIVITY,
// spec.md §4.2 "begin_activity"). On a 409 Conflict — the activity URL
// already exists — it regenerates id and retries, mirroring
// libsvn_ra_dav/commit.c's MKACTIVITY-retry-on-collision behavior; unlike
// the transport's own doRetry, which backs off on transient 5xx, this
// retries immediately on a fresh id since the fault is a name collision,
// not server load.
func (s *DAVSession) BeginActivity(ctx context.Context, id string) (string, error) {
	for attempt := 0; ; attempt++ {
		resp, err := s.client.do(ctx, http.MethodPut, "/activities/"+url.PathEscape(id), nil, nil)
		if err == nil {
			resp.Body.Close()
			return id, nil
		}

		if !svnerr.Is(err, svnerr.KindConflict) || attempt >= maxActivityCollisionRetries {
			return "", err
		}

		s.logger.Warn("activity id collided, regenerating", "id", id, "attempt", attempt+1)
		id = uuid.New().String()
	}
}

// CheckoutResource checks out a working resource for srcURL within the
// given activity (CHECKOUT), returning the resulting working-resource URL.
func (s *DAVSession) CheckoutResource(ctx context.Context, srcURL string, activityID string) (string, error) {
	body, err := json.Marshal(map[string]string{"activity_id": activityID, "url": srcURL})
	if err != nil {
		return "", fmt.Errorf("rasession: marshal checkout request: %w", err)
	}

	resp, err := s.client.do(ctx, http.MethodPost, "/checkout", body, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out struct {
		Resource string `json:"resource"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("rasession: decode checkout response: %w", err)
	}

	return out.Resource, nil
}

// Put uploads file content to a checked-out working resource (PUT).
// contentChecksum, if Present, is sent so the server can verify the body
// it received matches what the producer's delta application produced.
func (s *DAVSession) Put(ctx context.Context, resource string, content io.Reader, contentChecksum editor.Checksum) error {
	body, err := io.ReadAll(content)
	if err != nil {
		return fmt.Errorf("rasession: reading put content: %w", err)
	}

	headers := http.Header{}
	if contentChecksum.Present() {
		headers.Set("X-Svn-Checksum-Algo", contentChecksum.Algo)
		headers.Set("X-Svn-Checksum", fmt.Sprintf("%x", contentChecksum.Sum))
	}

	resp, err := s.client.do(ctx, http.MethodPut, "/resources/"+url.PathEscape(resource), body, headers)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}

// Proppatch applies property changes to a checked-out resource
// (PROPPATCH). A Set-false PropValue deletes the named property.
func (s *DAVSession) Proppatch(ctx context.Context, resource string, changes map[string]editor.PropValue) error {
	wire := make(map[string]map[string]any, len(changes))
	for name, v := range changes {
		if v.Set {
			wire[name] = map[string]any{"set": true, "value": string(v.Value)}
		} else {
			wire[name] = map[string]any{"set": false}
		}
	}

	body, err := json.Marshal(map[string]any{"properties": wire})
	if err != nil {
		return fmt.Errorf("rasession: marshal proppatch request: %w", err)
	}

	resp, err := s.client.do(ctx, http.MethodPatch, "/resources/"+url.PathEscape(resource)+"/props", body, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}

// Mkcol creates a new checked-out collection resource (MKCOL).
func (s *DAVSession) Mkcol(ctx context.Context, resource string) error {
	resp, err := s.client.do(ctx, http.MethodPut, "/resources/"+url.PathEscape(resource)+"?mkcol=1", nil, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}

// Copy server-side copies srcURL at srcRev onto dstResource (COPY).
func (s *DAVSession) Copy(ctx context.Context, srcURL string, srcRev int64, dstResource string) error {
	body, err := json.Marshal(map[string]any{"source": srcURL, "source_rev": srcRev, "destination": dstResource})
	if err != nil {
		return fmt.Errorf("rasession: marshal copy request: %w", err)
	}

	resp, err := s.client.do(ctx, http.MethodPost, "/copy", body, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}

// Delete removes a checked-out resource (DELETE).
func (s *DAVSession) Delete(ctx context.Context, resource string) error {
	resp, err := s.client.do(ctx, http.MethodDelete, "/resources/"+url.PathEscape(resource), nil, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}

// Checkin merges the activity's checked-out resources into a new
// revision (MERGE), the final step of a commit (spec.md §4.2).
func (s *DAVSession) Checkin(ctx context.Context, activityID string) (CommitInfo, error) {
	body, err := json.Marshal(checkinRequest{ActivityID: activityID})
	if err != nil {
		return CommitInfo{}, fmt.Errorf("rasession: marshal checkin request: %w", err)
	}

	resp, err := s.client.do(ctx, http.MethodPost, "/checkin", body, nil)
	if err != nil {
		return CommitInfo{}, err
	}
	defer resp.Body.Close()

	var out checkinResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return CommitInfo{}, fmt.Errorf("rasession: decode checkin response: %w", err)
	}

	return CommitInfo{Revision: out.Revision, Date: out.Date, Author: out.Author}, nil
}

// AbortActivity discards an in-progress commit activity, releasing every
// working resource it checked out.
func (s *DAVSession) AbortActivity(ctx context.Context, id string) error {
	resp, err := s.client.do(ctx, http.MethodDelete, "/activities/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}

func ensureLeadingSlash(p string) string {
	if len(p) > 0 && p[0] == '/' {
		return p
	}
	return "/" + p
}

func parsePropertyHeaders(h http.Header) map[string]string {
	const prefix = "X-Svn-Prop-"

	props := make(map[string]string)
	for key, vals := range h {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			props[key[len(prefix):]] = firstOrEmpty(vals)
		}
	}

	return props
}

func firstOrEmpty(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}

var _ Session = (*DAVSession)(nil)
