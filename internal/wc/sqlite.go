package wc

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // pure-Go SQLite driver, registers as "sqlite"

	"github.com/tonimelisma/svngo/internal/revision"
	"github.com/tonimelisma/svngo/internal/svnerr"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const walJournalSizeLimit = 67108864 // 64 MiB

// SQLiteStore implements Store on an embedded SQLite database in WAL
// mode. Write locks are coordinated in-process (spec.md §5: "the
// repository session is owned by exactly one operation at a time" — the
// working copy's per-subtree write lock is the same kind of single-
// process coordination, so it does not need to survive a process
// restart and is kept in memory rather than persisted).
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger

	locksMu sync.Mutex
	locks   map[string]struct{}
}

// NewStore opens dbPath (use ":memory:" for tests), applies pending
// migrations, and configures WAL mode.
func NewStore(ctx context.Context, dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	logger.Info("opening working-copy store", "path", dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("wc: open sqlite: %w", err)
	}

	if err := setPragmas(ctx, db, logger); err != nil {
		db.Close()
		return nil, err
	}

	if err := runMigrations(ctx, db, logger); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db, logger: logger, locks: make(map[string]struct{})}, nil
}

func setPragmas(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	pragmas := []struct{ sql, desc string }{
		{"PRAGMA journal_mode = WAL", "WAL mode"},
		{"PRAGMA synchronous = FULL", "synchronous FULL"},
		{"PRAGMA foreign_keys = ON", "foreign keys"},
		{fmt.Sprintf("PRAGMA journal_size_limit = %d", walJournalSizeLimit), "journal size limit"},
	}

	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p.sql); err != nil {
			return fmt.Errorf("wc: set pragma %s: %w", p.desc, err)
		}
		logger.Debug("pragma set", "pragma", p.desc)
	}

	return nil
}

// runMigrations applies embedded migrations via goose's Provider API.
func runMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	subFS, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("wc: creating migration sub-filesystem: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db, subFS)
	if err != nil {
		return fmt.Errorf("wc: creating migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("wc: running migrations: %w", err)
	}

	for _, r := range results {
		logger.Info("applied migration", slog.String("source", r.Source.Path), slog.Int64("duration_ms", r.Duration.Milliseconds()))
	}

	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) ReadEntry(ctx context.Context, path string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT kind, url, revision, copy_from_url, copy_from_rev, schedule
		FROM entries WHERE path = ?`, path)

	var (
		kind        int
		url         string
		rev         int64
		copyFromURL string
		copyFromRev int64
		schedule    int
	)

	if err := row.Scan(&kind, &url, &rev, &copyFromURL, &copyFromRev, &schedule); err != nil {
		if err == sql.ErrNoRows {
			return nil, svnerr.New(svnerr.KindEntryNotFound, "no working-copy entry at %q", path)
		}
		return nil, fmt.Errorf("wc: read entry %q: %w", path, err)
	}

	entry := &Entry{
		Path:        path,
		Kind:        revision.NodeKind(kind),
		URL:         url,
		Revision:    revision.Number(rev),
		CopyFromURL: copyFromURL,
		CopyFromRev: revision.Number(copyFromRev),
		Schedule:    Schedule(schedule),
	}

	if err := s.fillConflictState(ctx, entry); err != nil {
		return nil, err
	}

	return entry, nil
}

func (s *SQLiteStore) fillConflictState(ctx context.Context, entry *Entry) error {
	var textCount, treeCount int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM text_conflicts WHERE path = ?`, entry.Path).Scan(&textCount); err != nil {
		return fmt.Errorf("wc: count text conflicts: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tree_conflicts WHERE path = ?`, entry.Path).Scan(&treeCount); err != nil {
		return fmt.Errorf("wc: count tree conflicts: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT propname FROM prop_conflicts WHERE path = ?`, entry.Path)
	if err != nil {
		return fmt.Errorf("wc: list prop conflicts: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("wc: scan prop conflict name: %w", err)
		}
		names = append(names, name)
	}

	entry.Conflict = ConflictState{Text: textCount > 0, Tree: treeCount > 0, PropNames: names}
	return rows.Err()
}

func (s *SQLiteStore) AcquireWriteLockForResolve(ctx context.Context, path string) (*WriteLock, error) {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	if _, held := s.locks[path]; held {
		return nil, svnerr.New(svnerr.KindIllegalTarget, "working-copy path %q is already locked", path)
	}

	s.locks[path] = struct{}{}
	return &WriteLock{root: path}, nil
}

func (s *SQLiteStore) ReleaseWriteLock(ctx context.Context, lock *WriteLock) error {
	if lock == nil {
		return nil
	}

	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	delete(s.locks, lock.root)
	return nil
}

func (s *SQLiteStore) ReadConflictDescriptions(ctx context.Context, path string) (*TextConflictDescriptor, map[string]*PropConflictDescriptor, *TreeConflictDescriptor, error) {
	text, err := s.readTextConflict(ctx, path)
	if err != nil {
		return nil, nil, nil, err
	}

	props, err := s.readPropConflicts(ctx, path)
	if err != nil {
		return nil, nil, nil, err
	}

	tree, err := s.readTreeConflict(ctx, path)
	if err != nil {
		return nil, nil, nil, err
	}

	return text, props, tree, nil
}

func (s *SQLiteStore) readTextConflict(ctx context.Context, path string) (*TextConflictDescriptor, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT mime_type, base_path, working_path, incoming_old_path, incoming_new_path
		FROM text_conflicts WHERE path = ?`, path)

	var d TextConflictDescriptor
	if err := row.Scan(&d.MimeType, &d.BasePath, &d.WorkingPath, &d.IncomingOldPath, &d.IncomingNewPath); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("wc: read text conflict %q: %w", path, err)
	}

	return &d, nil
}

func (s *SQLiteStore) readPropConflicts(ctx context.Context, path string) (map[string]*PropConflictDescriptor, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT propname, base_value, has_base, working_value, has_working,
		       incoming_old_value, has_incoming_old, incoming_new_value, has_incoming_new, reject_path
		FROM prop_conflicts WHERE path = ?`, path)
	if err != nil {
		return nil, fmt.Errorf("wc: read prop conflicts %q: %w", path, err)
	}
	defer rows.Close()

	out := make(map[string]*PropConflictDescriptor)
	for rows.Next() {
		var name string
		var d PropConflictDescriptor

		if err := rows.Scan(&name, &d.BaseValue, &d.HasBase, &d.WorkingValue, &d.HasWorking,
			&d.IncomingOldValue, &d.HasIncomingOld, &d.IncomingNewValue, &d.HasIncomingNew, &d.RejectPath); err != nil {
			return nil, fmt.Errorf("wc: scan prop conflict %q: %w", path, err)
		}

		out[name] = &d
	}

	return out, rows.Err()
}

func (s *SQLiteStore) readTreeConflict(ctx context.Context, path string) (*TreeConflictDescriptor, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT operation, incoming_change, local_change, victim_kind, left_relpath, left_rev, right_relpath, right_rev
		FROM tree_conflicts WHERE path = ?`, path)

	var d TreeConflictDescriptor
	var op, incoming, local int

	if err := row.Scan(&op, &incoming, &local, &d.VictimKind, &d.LeftRelpath, &d.LeftRev, &d.RightRelpath, &d.RightRev); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("wc: read tree conflict %q: %w", path, err)
	}

	d.Operation = Operation(op)
	d.IncomingChange = IncomingChange(incoming)
	d.LocalChange = LocalChange(local)

	return &d, nil
}

func (s *SQLiteStore) MarkTextResolved(ctx context.Context, path string, choice ResolutionChoice) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM text_conflicts WHERE path = ?`, path)
	if err != nil {
		return fmt.Errorf("wc: mark text resolved %q: %w", path, err)
	}
	return nil
}

func (s *SQLiteStore) MarkPropResolved(ctx context.Context, path, propname string, choice ResolutionChoice) error {
	var err error
	if propname == "" {
		_, err = s.db.ExecContext(ctx, `DELETE FROM prop_conflicts WHERE path = ?`, path)
	} else {
		_, err = s.db.ExecContext(ctx, `DELETE FROM prop_conflicts WHERE path = ? AND propname = ?`, path, propname)
	}
	if err != nil {
		return fmt.Errorf("wc: mark prop resolved %q/%q: %w", path, propname, err)
	}
	return nil
}

func (s *SQLiteStore) DeleteTreeConflict(ctx context.Context, path string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM tree_conflicts WHERE path = ?`, path); err != nil {
		return fmt.Errorf("wc: delete tree conflict %q: %w", path, err)
	}
	return nil
}

func (s *SQLiteStore) UpdateBreakMovedAway(ctx context.Context, path string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE entries SET copy_from_url = '', copy_from_rev = -1 WHERE path = ?`, path)
	if err != nil {
		return fmt.Errorf("wc: break moved-away %q: %w", path, err)
	}
	return nil
}

func (s *SQLiteStore) UpdateRaiseMovedAway(ctx context.Context, parent, child string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tree_conflicts (path, operation, incoming_change, local_change, victim_kind)
		VALUES (?, ?, ?, ?, '')
		ON CONFLICT(path) DO UPDATE SET local_change = excluded.local_change`,
		child, OperationUpdate, IncomingEdit, LocalMovedAway)
	if err != nil {
		return fmt.Errorf("wc: raise moved-away conflict on %q (parent %q): %w", child, parent, err)
	}
	return nil
}

func (s *SQLiteStore) UpdateMovedAwayNode(ctx context.Context, path, moveDestination string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE entries SET path = ? WHERE path = ?`, moveDestination, path)
	if err != nil {
		return fmt.Errorf("wc: replay move destination %q -> %q: %w", path, moveDestination, err)
	}
	return nil
}

func (s *SQLiteStore) ScheduleAdd(ctx context.Context, path string, kind string, copyFromURL string, copyFromRev int64) error {
	nodeKind := nodeKindFromString(kind)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entries (path, kind, url, revision, copy_from_url, copy_from_rev, schedule, updated_at)
		VALUES (?, ?, '', -1, ?, ?, ?, unixepoch())
		ON CONFLICT(path) DO UPDATE SET
			kind = excluded.kind, copy_from_url = excluded.copy_from_url,
			copy_from_rev = excluded.copy_from_rev, schedule = excluded.schedule, updated_at = excluded.updated_at`,
		path, nodeKind, copyFromURL, copyFromRev, ScheduleAdd)
	if err != nil {
		return fmt.Errorf("wc: schedule add %q: %w", path, err)
	}
	return nil
}

func (s *SQLiteStore) ScheduleDelete(ctx context.Context, path string) error {
	return s.setSchedule(ctx, path, ScheduleDelete)
}

func (s *SQLiteStore) ScheduleReplace(ctx context.Context, path string) error {
	return s.setSchedule(ctx, path, ScheduleReplace)
}

func (s *SQLiteStore) ClearSchedule(ctx context.Context, path string) error {
	return s.setSchedule(ctx, path, ScheduleNormal)
}

func (s *SQLiteStore) setSchedule(ctx context.Context, path string, sched Schedule) error {
	_, err := s.db.ExecContext(ctx, `UPDATE entries SET schedule = ?, updated_at = unixepoch() WHERE path = ?`, sched, path)
	if err != nil {
		return fmt.Errorf("wc: set schedule %v on %q: %w", sched, path, err)
	}
	return nil
}

func (s *SQLiteStore) BumpRevision(ctx context.Context, path string, newRev int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE entries SET revision = ?, schedule = ?, updated_at = unixepoch() WHERE path = ?`,
		newRev, ScheduleNormal, path)
	if err != nil {
		return fmt.Errorf("wc: bump revision %q to %d: %w", path, newRev, err)
	}
	return nil
}

func nodeKindFromString(kind string) revision.NodeKind {
	switch kind {
	case "dir":
		return revision.NodeDir
	case "symlink":
		return revision.NodeSymlink
	default:
		return revision.NodeFile
	}
}

var _ Store = (*SQLiteStore)(nil)
