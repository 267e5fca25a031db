package svnclient

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tonimelisma/svngo/internal/editor"
)

// PropStore is the local pending-property-change collaborator (defined
// at the consumer, the same "accept interfaces" discipline
// internal/commit uses for FileReader/ModificationChecker): PropSet/
// PropGet/PropList read and write the property edits a working-copy path
// carries until its next commit uploads them via Proppatch. wc.Store
// itself has no opinion on property storage — only on schedule and
// conflict state — so this lives beside it rather than inside it.
type PropStore interface {
	SetProp(ctx context.Context, path, name string, value []byte) error
	RemoveProp(ctx context.Context, path, name string) error
	GetProp(ctx context.Context, path, name string) ([]byte, bool, error)
	ListProps(ctx context.Context, path string) (map[string][]byte, error)
}

// PropSet records a pending local property change (spec.md §6 propset).
func (c *Client) PropSet(ctx context.Context, path, name string, value []byte) error {
	return c.props.SetProp(ctx, path, name, value)
}

// PropGet reads a path's current property value, local pending change
// taking precedence over nothing else — the store has no separate
// pristine-property read path in this module (spec.md §6 propget).
func (c *Client) PropGet(ctx context.Context, path, name string) ([]byte, bool, error) {
	return c.props.GetProp(ctx, path, name)
}

// PropList lists every property currently set on path (spec.md §6
// proplist).
func (c *Client) PropList(ctx context.Context, path string) (map[string][]byte, error) {
	return c.props.ListProps(ctx, path)
}

// RevPropSet sets a revision property directly against the repository
// (spec.md §6 revprop_set). Unlike PropSet, this is not staged locally —
// revision properties are not versioned and take effect immediately, so
// it goes straight through Proppatch against a synthetic
// "revprops/<rev>" resource rather than through an activity.
func (c *Client) RevPropSet(ctx context.Context, rev int64, name, value string) error {
	resource := fmt.Sprintf("revprops/%d", rev)
	changes := map[string]editor.PropValue{name: {Set: true, Value: []byte(value)}}
	return c.session.Proppatch(ctx, resource, changes)
}

// RevPropGet reads a revision property (spec.md §6 revprop_get).
func (c *Client) RevPropGet(ctx context.Context, rev int64, name string) (string, error) {
	return c.session.RevProp(ctx, rev, name)
}

// RevPropList lists a revision's standard properties: author, date,
// and log message — the three every SVN revision always carries. A full
// arbitrary-revprop enumeration would need a dedicated session verb the
// Session interface does not expose (spec.md §6 only names RevProp, a
// single-property getter); this is documented in DESIGN.md rather than
// invented.
func (c *Client) RevPropList(ctx context.Context, rev int64) (map[string]string, error) {
	out := map[string]string{}
	for _, name := range []string{"svn:author", "svn:date", "svn:log"} {
		v, err := c.session.RevProp(ctx, rev, name)
		if err != nil {
			continue
		}
		out[name] = v
	}
	return out, nil
}

// filePropStore is the default PropStore: one JSON file per versioned
// path under root/.svn/props, atomically written, grounded on
// internal/tokenfile's write-to-temp-then-rename convention.
type filePropStore struct {
	root string
}

func newFilePropStore(root string) *filePropStore {
	return &filePropStore{root: root}
}

func (s *filePropStore) propsPath(path string) string {
	escaped := strings.ReplaceAll(strings.Trim(path, "/"), "/", "_")
	if escaped == "" {
		escaped = "_root_"
	}
	return filepath.Join(s.root, ".svn", "props", escaped+".json")
}

func (s *filePropStore) load(path string) (map[string]string, error) {
	data, err := os.ReadFile(s.propsPath(path))
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("svnclient: reading properties for %s: %w", path, err)
	}

	props := map[string]string{}
	if err := json.Unmarshal(data, &props); err != nil {
		return nil, fmt.Errorf("svnclient: decoding properties for %s: %w", path, err)
	}
	return props, nil
}

func (s *filePropStore) save(path string, props map[string]string) error {
	target := s.propsPath(path)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("svnclient: creating properties directory: %w", err)
	}

	data, err := json.MarshalIndent(props, "", "  ")
	if err != nil {
		return fmt.Errorf("svnclient: encoding properties for %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".props-*.tmp")
	if err != nil {
		return fmt.Errorf("svnclient: creating temp properties file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("svnclient: writing properties: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("svnclient: closing properties file: %w", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		return fmt.Errorf("svnclient: renaming properties file: %w", err)
	}

	success = true
	return nil
}

func (s *filePropStore) SetProp(ctx context.Context, path, name string, value []byte) error {
	props, err := s.load(path)
	if err != nil {
		return err
	}
	props[name] = string(value)
	return s.save(path, props)
}

func (s *filePropStore) RemoveProp(ctx context.Context, path, name string) error {
	props, err := s.load(path)
	if err != nil {
		return err
	}
	delete(props, name)
	return s.save(path, props)
}

func (s *filePropStore) GetProp(ctx context.Context, path, name string) ([]byte, bool, error) {
	props, err := s.load(path)
	if err != nil {
		return nil, false, err
	}
	v, ok := props[name]
	if !ok {
		return nil, false, nil
	}
	return []byte(v), true, nil
}

func (s *filePropStore) ListProps(ctx context.Context, path string) (map[string][]byte, error) {
	props, err := s.load(path)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(props))
	for k, v := range props {
		out[k] = []byte(v)
	}
	return out, nil
}

var _ PropStore = (*filePropStore)(nil)
