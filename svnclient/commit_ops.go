package svnclient

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/tonimelisma/svngo/internal/commit"
	"github.com/tonimelisma/svngo/internal/rasession"
	"github.com/tonimelisma/svngo/internal/revision"
)

// Add schedules path for addition at its next commit (spec.md §6 add).
// kind is "file", "dir", or "symlink"; the path must already exist on
// disk (add never creates content, only schedules what is there).
func (c *Client) Add(ctx context.Context, path, kind string) error {
	if _, err := os.Lstat(c.abspath(path)); err != nil {
		return fmt.Errorf("svnclient: add %s: %w", path, err)
	}

	return c.store.ScheduleAdd(ctx, path, kind, "", int64(revision.Invalid))
}

// Mkdir creates a new directory on disk and schedules it for addition
// (spec.md §6 mkdir).
func (c *Client) Mkdir(ctx context.Context, path string) error {
	if err := os.MkdirAll(c.abspath(path), 0o755); err != nil {
		return fmt.Errorf("svnclient: mkdir %s: %w", path, err)
	}

	return c.store.ScheduleAdd(ctx, path, "dir", "", int64(revision.Invalid))
}

// Delete schedules path for deletion (spec.md §6 delete). When keepLocal
// is false (the common case) the on-disk content is removed immediately,
// matching `svn delete` (as opposed to `svn delete --keep-local`).
func (c *Client) Delete(ctx context.Context, path string, keepLocal bool) error {
	if !keepLocal {
		if err := os.RemoveAll(c.abspath(path)); err != nil {
			return fmt.Errorf("svnclient: delete %s: %w", path, err)
		}
	}

	return c.store.ScheduleDelete(ctx, path)
}

// Copy duplicates srcPath's on-disk content at dstPath and schedules
// dstPath as an add-with-history (spec.md §6 copy), so the commit driver
// uploads it as a server-side COPY rather than a fresh PUT. Only the
// working-copy-to-working-copy form is implemented; copying directly
// between two repository URLs (no working copy involved at all) would
// bypass the harvester entirely and is left undone — see DESIGN.md.
func (c *Client) Copy(ctx context.Context, srcPath, dstPath string) error {
	srcEntry, err := c.store.ReadEntry(ctx, srcPath)
	if err != nil {
		return fmt.Errorf("svnclient: copy %s: %w", srcPath, err)
	}

	if err := copyTree(c.abspath(srcPath), c.abspath(dstPath)); err != nil {
		return fmt.Errorf("svnclient: copy %s to %s: %w", srcPath, dstPath, err)
	}

	kind := "file"
	if srcEntry.Kind == revision.NodeDir {
		kind = "dir"
	}

	return c.store.ScheduleAdd(ctx, dstPath, kind, srcEntry.URL, int64(srcEntry.Revision))
}

// Move is Copy followed by Delete of the source (spec.md §6 move):
// add-with-history at the destination, schedule-delete at the source.
func (c *Client) Move(ctx context.Context, srcPath, dstPath string) error {
	if err := c.Copy(ctx, srcPath, dstPath); err != nil {
		return err
	}

	return c.Delete(ctx, srcPath, false)
}

// Import schedules localPath (recorded against url) and every file and
// directory under it for addition, then commits immediately (spec.md §6
// import). The scheduled entries stay in the store afterwards; the commit
// bumps them to the new revision like any other committed item.
func (c *Client) Import(ctx context.Context, localPath, url, message string) (rasession.CommitInfo, error) {
	if err := c.store.ScheduleAdd(ctx, localPath, "dir", url, int64(revision.Invalid)); err != nil {
		return rasession.CommitInfo{}, fmt.Errorf("svnclient: import %s: %w", localPath, err)
	}

	root := c.abspath(localPath)
	err := filepath.WalkDir(root, func(p string, e fs.DirEntry, walkErr error) error {
		if walkErr != nil || p == root {
			return walkErr
		}
		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return relErr
		}
		kind := "file"
		if e.IsDir() {
			kind = "dir"
		}
		childPath := localPath + "/" + filepath.ToSlash(rel)
		if err := c.store.ScheduleAdd(ctx, childPath, kind, "", int64(revision.Invalid)); err != nil {
			return fmt.Errorf("%s: %w", childPath, err)
		}
		return nil
	})
	if err != nil {
		return rasession.CommitInfo{}, fmt.Errorf("svnclient: import %s: %w", localPath, err)
	}

	return c.commitDriver.Commit(ctx, []string{localPath}, func(items []commit.Item) (string, bool, error) {
		return message, true, nil
	})
}

// Commit harvests and checks in every mutating change under targets
// (spec.md §6 commit), driven by opCtx's log-message callback. With no
// callback supplied, the commit proceeds with an empty log message
// rather than silently aborting — "a null message aborts the commit"
// (spec.md §4.2) describes the callback returning ok=false, not the
// absence of a callback.
func (c *Client) Commit(ctx context.Context, targets []string, opCtx OperationContext) (rasession.CommitInfo, error) {
	logMsg := opCtx.LogMessage
	if logMsg == nil {
		logMsg = func(items []commit.Item) (string, bool, error) { return "", true, nil }
	}

	info, err := c.commitDriver.Commit(ctx, targets, logMsg)
	if err != nil {
		return info, err
	}

	c.markCleanUnder(targets)
	return info, nil
}

// markCleanUnder refreshes mod's recorded baseline for every regular file
// under targets after a successful commit, so the next status/commit
// harvest doesn't see the just-uploaded content as still locally modified.
func (c *Client) markCleanUnder(targets []string) {
	for _, target := range targets {
		root := c.abspath(target)
		_ = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			relpath, relErr := filepath.Rel(c.root, p)
			if relErr != nil {
				return nil
			}
			c.markClean(filepath.ToSlash(relpath))
			return nil
		})
	}
}

func copyTree(src, dst string) error {
	info, err := os.Lstat(src)
	if err != nil {
		return err
	}

	if info.IsDir() {
		if err := os.MkdirAll(dst, info.Mode()); err != nil {
			return err
		}
		entries, err := os.ReadDir(src)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if err := copyTree(src+"/"+e.Name(), dst+"/"+e.Name()); err != nil {
				return err
			}
		}
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
