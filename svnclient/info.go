package svnclient

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/tonimelisma/svngo/internal/rasession"
	"github.com/tonimelisma/svngo/internal/revision"
	"github.com/tonimelisma/svngo/internal/svnerr"
)

// Log streams target's revision history from fromSel to toSel (spec.md
// §6 log) through receive, stopping early without error if receive
// returns a cancellation (spec.md §7 "handled locally" — already
// enforced inside GetLog itself).
func (c *Client) Log(ctx context.Context, target string, fromSel, toSel revision.Selector, limit int, discoverChangedPaths bool, receive func(rasession.LogEntry) error) error {
	from, err := c.resolveRevision(ctx, revision.OpGeneral, target, false, fromSel)
	if err != nil {
		return err
	}

	to, err := c.resolveRevision(ctx, revision.OpGeneral, target, false, toSel)
	if err != nil {
		return err
	}

	return c.session.GetLog(ctx, []string{target}, int64(from), int64(to), limit, discoverChangedPaths, false, false, nil, receive)
}

// BlameLine is one annotated line of Blame's output: the revision and
// author that last touched it, and its text.
type BlameLine struct {
	Revision int64
	Author   string
	Text     string
}

// Blame annotates every line of target at sel with the revision and
// author that last changed it (spec.md §6 blame). It reads only the
// newest log entry of target at or before sel and attributes every line
// of the content at sel to that entry — a whole-file "last revision that
// changed the file touched every line" approximation rather than a true
// per-line diff/merge
// history walk (the latter needs a content differ the module does not
// have — see DESIGN.md). For a file only ever touched once, this is
// exact; for files edited incrementally it over-attributes unchanged
// lines to the most recent touching revision.
func (c *Client) Blame(ctx context.Context, target string, sel revision.Selector) ([]BlameLine, error) {
	rev, err := c.resolveRevision(ctx, revision.OpGeneral, target, false, sel)
	if err != nil {
		return nil, err
	}

	rc, _, err := c.session.GetFile(ctx, target, int64(rev))
	if err != nil {
		return nil, fmt.Errorf("svnclient: blame %s: %w", target, err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("svnclient: blame %s: reading content: %w", target, err)
	}

	var lastRev int64
	var lastAuthor string
	found := false

	if err := c.session.GetLog(ctx, []string{target}, int64(rev), 0, 1, false, false, false, []string{"svn:author"}, func(entry rasession.LogEntry) error {
		lastRev = entry.Revision
		lastAuthor = entry.Author
		found = true
		return svnerr.Cancelled() // one entry is enough; stop the log early (spec.md §7 "handled locally")
	}); err != nil {
		return nil, fmt.Errorf("svnclient: blame %s: %w", target, err)
	}

	lines := bufio.NewScanner(bytes.NewReader(content))
	lines.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var out []BlameLine
	for lines.Scan() {
		bl := BlameLine{Text: lines.Text()}
		if found {
			bl.Revision = lastRev
			bl.Author = lastAuthor
		}
		out = append(out, bl)
	}

	return out, nil
}

// Ls lists target's immediate children at sel (spec.md §6 ls).
func (c *Client) Ls(ctx context.Context, target string, sel revision.Selector) ([]rasession.DirEntry, error) {
	rev, err := c.resolveRevision(ctx, revision.OpGeneral, target, false, sel)
	if err != nil {
		return nil, err
	}

	entries, _, err := c.session.GetDir(ctx, target, int64(rev))
	return entries, err
}

// Cat streams target's content at sel (spec.md §6 cat).
func (c *Client) Cat(ctx context.Context, target string, sel revision.Selector) (io.ReadCloser, error) {
	rev, err := c.resolveRevision(ctx, revision.OpGeneral, target, false, sel)
	if err != nil {
		return nil, err
	}

	rc, _, err := c.session.GetFile(ctx, target, int64(rev))
	return rc, err
}

// Export writes target's tree at sel to destPath on local disk, with no
// working-copy bookkeeping attached (spec.md §6 export — an unversioned
// copy, distinct from checkout).
func (c *Client) Export(ctx context.Context, target string, sel revision.Selector, destPath string) error {
	rev, err := c.resolveRevision(ctx, revision.OpGeneral, target, false, sel)
	if err != nil {
		return err
	}

	return c.exportDir(ctx, target, int64(rev), destPath)
}

func (c *Client) exportDir(ctx context.Context, reposPath string, rev int64, destPath string) error {
	entries, _, err := c.session.GetDir(ctx, reposPath, rev)
	if err != nil {
		return fmt.Errorf("svnclient: export %s: %w", reposPath, err)
	}

	if err := os.MkdirAll(destPath, 0o755); err != nil {
		return fmt.Errorf("svnclient: export %s: %w", reposPath, err)
	}

	for _, e := range entries {
		childRepos := reposPath + "/" + e.Name
		childDest := filepath.Join(destPath, e.Name)

		if e.Kind == "dir" {
			if err := c.exportDir(ctx, childRepos, rev, childDest); err != nil {
				return err
			}
			continue
		}

		rc, _, err := c.session.GetFile(ctx, childRepos, rev)
		if err != nil {
			return fmt.Errorf("svnclient: export %s: %w", childRepos, err)
		}

		if err := writeExportedFile(childDest, rc); err != nil {
			return err
		}
	}

	return nil
}

func writeExportedFile(destPath string, rc io.ReadCloser) error {
	defer rc.Close()

	f, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("svnclient: export: creating %s: %w", destPath, err)
	}
	defer f.Close()

	_, err = io.Copy(f, rc)
	if err != nil {
		return fmt.Errorf("svnclient: export: writing %s: %w", destPath, err)
	}

	return nil
}
