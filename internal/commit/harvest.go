package commit

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/tonimelisma/svngo/internal/revision"
	"github.com/tonimelisma/svngo/internal/wc"
)

// ModificationChecker reports whether a normally-scheduled working file's
// content or properties differ from their pristine base. Defined at the
// consumer (the harvester) so the actual comparison strategy — hash
// compare, mtime heuristic, or otherwise — stays a pluggable collaborator,
// mirroring the teacher's narrow-interface discipline.
type ModificationChecker interface {
	TextModified(ctx context.Context, path string) (bool, error)
	PropsModified(ctx context.Context, path string) (bool, error)
}

// Harvester walks the working copy rooted at a set of target paths and
// produces the commit items feeding the driver (spec.md §4.2 step 1).
type Harvester struct {
	store wc.Store
	mod   ModificationChecker
}

// NewHarvester builds a Harvester over store, using mod to detect
// content/property modification on normally-scheduled entries.
func NewHarvester(store wc.Store, mod ModificationChecker) *Harvester {
	return &Harvester{store: store, mod: mod}
}

// Harvest produces the deduplicated, parent-before-child ordered item set
// for targets. Ancestor directories of a mutated target are included as
// open-only entries (zero State) so the driver can check them out before
// their descendants.
func (h *Harvester) Harvest(ctx context.Context, targets []string) ([]Item, error) {
	seen := make(map[string]Item)

	for _, target := range targets {
		clean := path.Clean(target)

		item, err := h.harvestOne(ctx, clean)
		if err != nil {
			return nil, err
		}

		seen[clean] = item

		for ancestor := normalizeAncestor(path.Dir(clean)); ancestor != clean; ancestor = normalizeAncestor(path.Dir(ancestor)) {
			if _, ok := seen[ancestor]; ok {
				break
			}

			ancestorItem, err := h.harvestAncestor(ctx, ancestor)
			if err != nil {
				return nil, err
			}

			seen[ancestor] = ancestorItem

			if ancestor == "/" {
				break
			}
		}
	}

	// The commit base ancestor (the root) is always checked out first,
	// even when no target's own ancestor chain reaches it as a distinct
	// path component (spec.md §4.2 step 4, "check the containing
	// collection out into the activity").
	if _, ok := seen["/"]; !ok {
		rootItem, err := h.harvestAncestor(ctx, "/")
		if err != nil {
			return nil, err
		}
		seen["/"] = rootItem
	}

	items := make([]Item, 0, len(seen))
	for _, it := range seen {
		items = append(items, it)
	}

	sort.Slice(items, func(i, j int) bool {
		return parentBeforeChildLess(items[i].Abspath, items[j].Abspath)
	})

	return items, nil
}

func (h *Harvester) harvestOne(ctx context.Context, abspath string) (Item, error) {
	entry, err := h.store.ReadEntry(ctx, abspath)
	if err != nil {
		return Item{}, fmt.Errorf("commit: harvest %s: %w", abspath, err)
	}

	item := Item{
		Abspath:     abspath,
		Kind:        entry.Kind,
		URL:         entry.URL,
		Revision:    entry.Revision,
		CopyFromURL: entry.CopyFromURL,
		CopyFromRev: entry.CopyFromRev,
	}

	switch entry.Schedule {
	case wc.ScheduleAdd:
		item.State |= StateAdd
		if entry.CopyFromURL != "" {
			item.State |= StateIsCopy
		} else if entry.Kind == revision.NodeFile {
			item.State |= StateTextMods
		}
	case wc.ScheduleDelete:
		item.State |= StateDelete
	case wc.ScheduleReplace:
		item.State |= StateDelete | StateAdd
		if entry.CopyFromURL != "" {
			item.State |= StateIsCopy
		} else if entry.Kind == revision.NodeFile {
			item.State |= StateTextMods
		}
	case wc.ScheduleNormal:
		if entry.Kind == revision.NodeFile {
			modified, err := h.mod.TextModified(ctx, abspath)
			if err != nil {
				return Item{}, fmt.Errorf("commit: checking text modification of %s: %w", abspath, err)
			}
			if modified {
				item.State |= StateTextMods
			}
		}

		propsModified, err := h.mod.PropsModified(ctx, abspath)
		if err != nil {
			return Item{}, fmt.Errorf("commit: checking property modification of %s: %w", abspath, err)
		}
		if propsModified {
			item.State |= StatePropMods
		}
	}

	return item, nil
}

// harvestAncestor reads an ancestor directory purely so it can be
// checked out ahead of a mutated descendant; its own schedule state is
// irrelevant to the commit (spec.md §4.2 "ancestors are included as
// open-only entries").
func (h *Harvester) harvestAncestor(ctx context.Context, abspath string) (Item, error) {
	entry, err := h.store.ReadEntry(ctx, abspath)
	if err != nil {
		return Item{}, fmt.Errorf("commit: harvest ancestor %s: %w", abspath, err)
	}

	return Item{
		Abspath:  abspath,
		Kind:     entry.Kind,
		URL:      entry.URL,
		Revision: entry.Revision,
	}, nil
}

// normalizeAncestor maps path.Dir's "." (no containing path component)
// to "/", the repository-relative root's own entry path.
func normalizeAncestor(dir string) string {
	if dir == "." {
		return "/"
	}
	return dir
}

// parentBeforeChildLess orders a by shallower-path-first, then
// lexicographically, so every ancestor sorts before its descendants.
func parentBeforeChildLess(a, b string) bool {
	da, db := pathDepth(a), pathDepth(b)
	if da != db {
		return da < db
	}
	return a < b
}

// pathDepth is 0 for the repository root ("/"), and otherwise one more
// than the number of path separators (so "a.txt" is depth 1, "dir/a.txt"
// depth 2).
func pathDepth(p string) int {
	if p == "/" {
		return 0
	}
	return strings.Count(p, "/") + 1
}
