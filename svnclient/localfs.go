package svnclient

import (
	"context"
	"crypto/sha1"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tonimelisma/svngo/internal/commit"
	"github.com/tonimelisma/svngo/internal/editor"
)

// fsFileReader is the default commit.FileReader: it reads a working
// file's content straight off disk under root and checksums it with
// sha1, the same digest internal/rasession.DAVSession.Checkin verifies
// against (internal/editor/delta.go's newHash supports md5 and sha1).
// Property changes come from the same PropStore propset/propget uses.
type fsFileReader struct {
	root  string
	props PropStore
}

func newFSFileReader(root string, props PropStore) *fsFileReader {
	return &fsFileReader{root: root, props: props}
}

func (f *fsFileReader) ReadFile(ctx context.Context, abspath string) ([]byte, editor.Checksum, error) {
	data, err := os.ReadFile(abspath)
	if err != nil {
		return nil, editor.Checksum{}, fmt.Errorf("svnclient: reading %s: %w", abspath, err)
	}

	sum := sha1.Sum(data)
	return data, editor.Checksum{Algo: "sha1", Sum: sum[:]}, nil
}

func (f *fsFileReader) ReadPropChanges(ctx context.Context, abspath string) (map[string]editor.PropValue, error) {
	relpath, err := filepath.Rel(f.root, abspath)
	if err != nil {
		return nil, fmt.Errorf("svnclient: resolving relative path for %s: %w", abspath, err)
	}

	props, err := f.props.ListProps(ctx, relpath)
	if err != nil {
		return nil, fmt.Errorf("svnclient: reading property changes for %s: %w", relpath, err)
	}

	out := make(map[string]editor.PropValue, len(props))
	for name, value := range props {
		out[name] = editor.PropSet(value)
	}
	return out, nil
}

var _ commit.FileReader = (*fsFileReader)(nil)

// fsModificationChecker is the default commit.ModificationChecker: it
// compares a working file's current sha1 against the digest recorded the
// last time the file was harvested clean (checked out, updated, or
// committed), caching that digest in a sidecar file next to where
// filePropStore keeps its property sidecars — wc.Store has no pristine
// text-base read primitive to compare against directly (spec.md §6 lists
// no such verb), so the sidecar is the working copy's only record of
// "what did we last see."
type fsModificationChecker struct {
	root  string
	props PropStore
}

func newFSModificationChecker(root string, props PropStore) *fsModificationChecker {
	return &fsModificationChecker{root: root, props: props}
}

func (m *fsModificationChecker) hashSidecarPath(relpath string) string {
	escaped := filepath.Join(m.root, ".svn", "text-hash", filepath.FromSlash(relpath)+".sha1")
	return escaped
}

func (m *fsModificationChecker) TextModified(ctx context.Context, path string) (bool, error) {
	abspath := filepath.Join(m.root, filepath.FromSlash(path))

	data, err := os.ReadFile(abspath)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, fmt.Errorf("svnclient: reading %s: %w", path, err)
	}

	sum := sha1.Sum(data)

	recorded, err := os.ReadFile(m.hashSidecarPath(path))
	if os.IsNotExist(err) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("svnclient: reading recorded hash for %s: %w", path, err)
	}

	return string(recorded) != fmt.Sprintf("%x", sum), nil
}

func (m *fsModificationChecker) PropsModified(ctx context.Context, path string) (bool, error) {
	props, err := m.props.ListProps(ctx, path)
	if err != nil {
		return false, fmt.Errorf("svnclient: reading properties for %s: %w", path, err)
	}
	return len(props) > 0, nil
}

// recordClean stamps path's current content hash as the new pristine
// baseline, called after a successful checkout/update/commit of that
// path so the next TextModified comparison has a fresh reference point.
func (m *fsModificationChecker) recordClean(path string) error {
	abspath := filepath.Join(m.root, filepath.FromSlash(path))

	data, err := os.ReadFile(abspath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("svnclient: reading %s: %w", path, err)
	}

	sum := sha1.Sum(data)
	target := m.hashSidecarPath(path)

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("svnclient: creating text-hash directory: %w", err)
	}

	return os.WriteFile(target, []byte(fmt.Sprintf("%x", sum)), 0o644)
}

var _ commit.ModificationChecker = (*fsModificationChecker)(nil)
