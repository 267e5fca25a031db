package commit

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"

	"github.com/tonimelisma/svngo/internal/editor"
	"github.com/tonimelisma/svngo/internal/rasession"
	"github.com/tonimelisma/svngo/internal/wc"
)

// StatusEntry reports one versioned path's combined local and remote
// state (spec.md §6 do_status: "local schedule/conflict state plus
// whether the repository has moved since the working copy's base").
type StatusEntry struct {
	Path      string
	Schedule  wc.Schedule
	Conflict  wc.ConflictState
	OutOfDate bool
}

// StatusDriver computes status by fanning the local working-copy scan and
// the remote do_status call out concurrently — the two reads are
// independent of each other (one touches the local Store, the other the
// network), giving status its own errgroup-based concurrency distinct
// from the commit driver's strictly sequential replay (spec.md §5).
type StatusDriver struct {
	session rasession.Session
	store   wc.Store
}

// NewStatusDriver builds a StatusDriver.
func NewStatusDriver(session rasession.Session, store wc.Store) *StatusDriver {
	return &StatusDriver{session: session, store: store}
}

// Status walks root (the working copy's local tree) and target (its
// repository counterpart) concurrently, returning one StatusEntry per
// versioned local path.
func (d *StatusDriver) Status(ctx context.Context, root, target string, targetRev int64, recurse bool) ([]StatusEntry, error) {
	var (
		localPaths []string
		touched    map[string]bool
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		paths, err := d.scanLocal(gctx, root)
		if err != nil {
			return fmt.Errorf("status: local scan: %w", err)
		}

		localPaths = paths

		return nil
	})

	g.Go(func() error {
		se := newStatusEditor()

		if err := d.session.DoStatus(gctx, target, targetRev, recurse, se); err != nil {
			return fmt.Errorf("status: do_status: %w", err)
		}

		touched = se.touched

		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	entries := make([]StatusEntry, 0, len(localPaths))

	for _, relpath := range localPaths {
		entry, err := d.store.ReadEntry(ctx, relpath)
		if err != nil {
			return nil, fmt.Errorf("status: reading entry %q: %w", relpath, err)
		}

		entries = append(entries, StatusEntry{
			Path:      relpath,
			Schedule:  entry.Schedule,
			Conflict:  entry.Conflict,
			OutOfDate: touched[relpath],
		})
	}

	return entries, nil
}

// scanLocal walks root, returning every path recorded in the Store (an
// fs.ErrNotExist from ReadEntry means the path isn't versioned and is
// skipped, not fatal).
func (d *StatusDriver) scanLocal(ctx context.Context, root string) ([]string, error) {
	var paths []string

	err := filepath.WalkDir(root, func(fsPath string, de fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if de.IsDir() {
			if de.Name() == ".svn" {
				return filepath.SkipDir
			}

			return nil
		}

		relpath, err := filepath.Rel(root, fsPath)
		if err != nil {
			return err
		}

		// NFC normalize to match the store's recorded path: a macOS
		// filesystem returns NFD-decomposed names, but every path this
		// module ever wrote to the store came in already NFC (editor
		// writers, propset, schedule) or from a DAV response (already
		// NFC) — comparing decomposed against composed would otherwise
		// report a versioned file on Darwin as perpetually unversioned.
		relpath = norm.NFC.String(filepath.ToSlash(relpath))

		if _, err := d.store.ReadEntry(ctx, relpath); err != nil {
			return nil // unversioned or unreadable: not status-relevant here
		}

		paths = append(paths, relpath)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return paths, nil
}

// statusEditor records which paths the server's do_status stream touched,
// discarding everything else — do_status exists purely to say "this path
// changed since your base," not to transfer content (spec.md §6).
type statusEditor struct {
	paths   map[editor.Token]string
	touched map[string]bool
	next    int
}

func newStatusEditor() *statusEditor {
	return &statusEditor{paths: make(map[editor.Token]string), touched: make(map[string]bool)}
}

func (s *statusEditor) newToken() editor.Token {
	s.next++
	return s.next
}

func (s *statusEditor) childPath(parent editor.Token, name string) string {
	parentPath := s.paths[parent]
	if parentPath == "" {
		return name
	}

	return parentPath + "/" + name
}

func (s *statusEditor) OpenRoot(ctx context.Context, baseRev int64) (editor.Token, error) {
	tok := s.newToken()
	s.paths[tok] = ""

	return tok, nil
}

func (s *statusEditor) DeleteEntry(ctx context.Context, name string, baseRev int64, parent editor.Token) error {
	s.touched[s.childPath(parent, name)] = true
	return nil
}

func (s *statusEditor) AddDirectory(ctx context.Context, name string, parent editor.Token, copyFrom string, copyFromRev int64) (editor.Token, error) {
	path := s.childPath(parent, name)
	tok := s.newToken()
	s.paths[tok] = path
	s.touched[path] = true

	return tok, nil
}

func (s *statusEditor) OpenDirectory(ctx context.Context, name string, parent editor.Token, baseRev int64) (editor.Token, error) {
	tok := s.newToken()
	s.paths[tok] = s.childPath(parent, name)

	return tok, nil
}

func (s *statusEditor) ChangeDirProp(ctx context.Context, dir editor.Token, name string, value editor.PropValue) error {
	s.touched[s.paths[dir]] = true
	return nil
}

func (s *statusEditor) CloseDirectory(ctx context.Context, dir editor.Token) error {
	delete(s.paths, dir)
	return nil
}

func (s *statusEditor) AddFile(ctx context.Context, name string, parent editor.Token, copyFrom string, copyFromRev int64) (editor.Token, error) {
	path := s.childPath(parent, name)
	tok := s.newToken()
	s.paths[tok] = path
	s.touched[path] = true

	return tok, nil
}

func (s *statusEditor) OpenFile(ctx context.Context, name string, parent editor.Token, baseRev int64) (editor.Token, error) {
	tok := s.newToken()
	s.paths[tok] = s.childPath(parent, name)

	return tok, nil
}

func (s *statusEditor) ApplyTextDelta(ctx context.Context, file editor.Token, baseChecksum editor.Checksum) (editor.WindowHandler, error) {
	s.touched[s.paths[file]] = true

	return func(ctx context.Context, w *editor.Window) error { return nil }, nil
}

func (s *statusEditor) ChangeFileProp(ctx context.Context, file editor.Token, name string, value editor.PropValue) error {
	s.touched[s.paths[file]] = true
	return nil
}

func (s *statusEditor) CloseFile(ctx context.Context, file editor.Token, resultChecksum editor.Checksum) error {
	delete(s.paths, file)
	return nil
}

func (s *statusEditor) CloseEdit(ctx context.Context) error { return nil }

func (s *statusEditor) AbortEdit(ctx context.Context) error { return nil }

var _ editor.Editor = (*statusEditor)(nil)
