package conflict

import (
	"context"
	"fmt"
	"sort"

	"github.com/tonimelisma/svngo/internal/wc"
)

// Conflict aggregates the text/property/tree conflict descriptors
// recorded for one working-copy path (spec.md §3.6). A Conflict is
// created on demand and has no identity beyond its path; recreating it
// yields the same object modulo lazily populated Details.
type Conflict struct {
	Path string

	Operation      wc.Operation
	IncomingChange wc.IncomingChange
	LocalChange    wc.LocalChange

	Text  *wc.TextConflictDescriptor
	Props map[string]*wc.PropConflictDescriptor
	Tree  *wc.TreeConflictDescriptor

	// Details is the lazily fetched incoming-delete enrichment (spec.md
	// §4.3.4); nil until a caller stores FetchIncomingDeleteDetails'
	// result here (svnclient's ConflictTreeGetDetails does), and remains
	// nil if enrichment could not determine a revision.
	Details *IncomingDeleteDetails

	ResolutionText Option
	ResolvedProps  map[string]Option
	ResolutionTree Option
}

// Load reads path's raw conflict descriptors from store and builds the
// aggregate Conflict object (spec.md §4.3.1).
func Load(ctx context.Context, store wc.Store, path string) (*Conflict, error) {
	text, props, tree, err := store.ReadConflictDescriptions(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("conflict: loading %s: %w", path, err)
	}

	c := &Conflict{
		Path:          path,
		Text:          text,
		Props:         props,
		Tree:          tree,
		ResolvedProps: make(map[string]Option),
	}

	if tree != nil {
		c.Operation = tree.Operation
		c.IncomingChange = tree.IncomingChange
		c.LocalChange = tree.LocalChange
	}

	return c, nil
}

// GetConflicted reports the currently outstanding conflicts on this
// node, mirroring the client-facade verb `get_conflicted(path) ->
// (text?, [props], tree?)`.
func (c *Conflict) GetConflicted() (hasText bool, propNames []string, hasTree bool) {
	names := make([]string, 0, len(c.Props))
	for name := range c.Props {
		names = append(names, name)
	}
	sort.Strings(names)

	return c.Text != nil, names, c.Tree != nil
}

// IsBinary reports whether the text conflict's recorded MIME type marks
// it as binary (non-text), gating which option set TextOptions offers.
func (c *Conflict) IsBinary() bool {
	if c.Text == nil {
		return false
	}
	return isBinaryMimeType(c.Text.MimeType)
}

func isBinaryMimeType(mimeType string) bool {
	if mimeType == "" {
		return false
	}
	return len(mimeType) < 5 || mimeType[:5] != "text/"
}
