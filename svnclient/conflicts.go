package svnclient

import (
	"context"
	"fmt"

	"github.com/tonimelisma/svngo/internal/conflict"
	"github.com/tonimelisma/svngo/internal/wc"
)

// ConflictGet loads path's current aggregate conflict state (spec.md §6
// conflict surface "get(path)").
func (c *Client) ConflictGet(ctx context.Context, path string) (*conflict.Conflict, error) {
	return conflict.Load(ctx, c.store, path)
}

// ConflictGetConflicted reports which conflict kinds are outstanding on
// an already-loaded Conflict ("get_conflicted").
func (c *Client) ConflictGetConflicted(cf *conflict.Conflict) (hasText bool, propNames []string, hasTree bool) {
	return cf.GetConflicted()
}

// ConflictGetOperation returns the remote operation that produced a tree
// conflict ("get_operation").
func (c *Client) ConflictGetOperation(cf *conflict.Conflict) wc.Operation {
	return cf.Operation
}

// ConflictGetIncomingChange returns the remote side's change kind
// ("get_incoming_change").
func (c *Client) ConflictGetIncomingChange(cf *conflict.Conflict) wc.IncomingChange {
	return cf.IncomingChange
}

// ConflictGetLocalChange returns the local side's change kind
// ("get_local_change").
func (c *Client) ConflictGetLocalChange(cf *conflict.Conflict) wc.LocalChange {
	return cf.LocalChange
}

// ConflictGetReposInfo returns the repository UUID the conflicted node
// belongs to ("get_repos_info"), via the same synthetic-revprop mechanism
// as UuidFromPath. It does not return the repository root URL.
func (c *Client) ConflictGetReposInfo(ctx context.Context) (uuid string, err error) {
	return c.session.RevProp(ctx, 0, "svn:entry:uuid")
}

// ConflictGetIncomingOldNewReposLocation returns the two repository-side
// locations bracketing a tree conflict ("get_incoming_old/
// new_repos_location"): the left (old) and right (new) coordinates the
// descriptor recorded.
func (c *Client) ConflictGetIncomingOldNewReposLocation(cf *conflict.Conflict) (oldRelpath string, oldRev int64, newRelpath string, newRev int64, ok bool) {
	if cf.Tree == nil {
		return "", 0, "", 0, false
	}
	return cf.Tree.LeftRelpath, cf.Tree.LeftRev, cf.Tree.RightRelpath, cf.Tree.RightRev, true
}

// ConflictTextGetMimeType returns a text conflict's recorded MIME type
// ("text_get_mime_type").
func (c *Client) ConflictTextGetMimeType(cf *conflict.Conflict) (string, bool) {
	if cf.Text == nil {
		return "", false
	}
	return cf.Text.MimeType, true
}

// ConflictTextGetContents returns the four paths a text conflict
// recorded — base, working, incoming-old, incoming-new — whose content a
// caller reads directly from disk ("text_get_contents").
func (c *Client) ConflictTextGetContents(cf *conflict.Conflict) (base, working, incomingOld, incomingNew string, ok bool) {
	if cf.Text == nil {
		return "", "", "", "", false
	}
	return cf.Text.BasePath, cf.Text.WorkingPath, cf.Text.IncomingOldPath, cf.Text.IncomingNewPath, true
}

// ConflictPropGetPropvals returns the four recorded values for one
// conflicted property ("prop_get_propvals(name)").
func (c *Client) ConflictPropGetPropvals(cf *conflict.Conflict, name string) (*wc.PropConflictDescriptor, bool) {
	d, ok := cf.Props[name]
	return d, ok
}

// ConflictTreeGetVictimNodeKind returns the kind of the conflicted tree
// node ("tree_get_victim_node_kind").
func (c *Client) ConflictTreeGetVictimNodeKind(cf *conflict.Conflict) (string, bool) {
	if cf.Tree == nil {
		return "", false
	}
	return cf.Tree.VictimKind, true
}

// ConflictTreeGetDetails lazily fetches and returns a tree conflict's
// incoming-delete enrichment ("tree_get_details", spec.md §4.3.4),
// caching the result on cf.
func (c *Client) ConflictTreeGetDetails(ctx context.Context, cf *conflict.Conflict) (*conflict.IncomingDeleteDetails, error) {
	if cf.Details != nil {
		return cf.Details, nil
	}

	details, err := conflict.FetchIncomingDeleteDetails(ctx, c.session, cf)
	if err != nil {
		return nil, fmt.Errorf("svnclient: fetching tree conflict details for %s: %w", cf.Path, err)
	}

	cf.Details = details
	return details, nil
}

// ConflictTextGetResolutionOptions enumerates the options offered for
// cf's text conflict ("text_get_resolution_options").
func (c *Client) ConflictTextGetResolutionOptions(cf *conflict.Conflict) []conflict.Option {
	return conflict.TextOptions(cf.IsBinary())
}

// ConflictPropGetResolutionOptions enumerates the options offered for a
// property conflict ("prop_get_resolution_options").
func (c *Client) ConflictPropGetResolutionOptions() []conflict.Option {
	return conflict.PropOptions()
}

// ConflictTreeGetResolutionOptions enumerates the options offered for
// cf's tree conflict ("tree_get_resolution_options"), gated on whether
// the victim is a directory.
func (c *Client) ConflictTreeGetResolutionOptions(cf *conflict.Conflict, victimIsDir bool) []conflict.Option {
	return conflict.TreeOptions(cf.Operation, cf.LocalChange, cf.IncomingChange, victimIsDir)
}

// ConflictOptionGetID returns option's stable numeric identifier
// ("option_get_id").
func (c *Client) ConflictOptionGetID(option conflict.Option) conflict.OptionID {
	return option.ID()
}

// ConflictOptionDescribe returns option's human-readable name
// ("describe").
func (c *Client) ConflictOptionDescribe(option conflict.Option) string {
	return option.Describe()
}

// ConflictSetMergedPropval records propname's merged resolution value for
// cf ("set_merged_propval"). The value itself is staged through the same
// PropStore propset/propget uses, since wc.Store has no dedicated
// merged-property-value slot; ResolveProp with OptionMerged then applies
// it.
func (c *Client) ConflictSetMergedPropval(ctx context.Context, cf *conflict.Conflict, propname string, value []byte) error {
	return c.props.SetProp(ctx, cf.Path, propname, value)
}

// ConflictTextResolve resolves cf's text conflict with option
// ("text_resolve").
func (c *Client) ConflictTextResolve(ctx context.Context, cf *conflict.Conflict, option conflict.Option) error {
	return c.resolver.ResolveText(ctx, cf, option)
}

// ConflictTextResolveByID resolves by numeric id ("text_resolve_by_id").
func (c *Client) ConflictTextResolveByID(ctx context.Context, cf *conflict.Conflict, id conflict.OptionID) error {
	return c.resolver.ResolveText(ctx, cf, conflict.Option(id))
}

// ConflictPropResolve resolves the property conflict named propname (or
// every conflicted property, if propname is "") with option
// ("prop_resolve").
func (c *Client) ConflictPropResolve(ctx context.Context, cf *conflict.Conflict, propname string, option conflict.Option) error {
	return c.resolver.ResolveProp(ctx, cf, propname, option)
}

// ConflictPropResolveByID is ConflictPropResolve by numeric id
// ("prop_resolve_by_id").
func (c *Client) ConflictPropResolveByID(ctx context.Context, cf *conflict.Conflict, propname string, id conflict.OptionID) error {
	return c.resolver.ResolveProp(ctx, cf, propname, conflict.Option(id))
}

// ConflictTreeResolve resolves cf's tree conflict with option,
// optionally raising fresh conflicts on movedAwayChildren when option
// resolves to update-any-moved-away-children ("tree_resolve").
func (c *Client) ConflictTreeResolve(ctx context.Context, cf *conflict.Conflict, option conflict.Option, movedAwayChildren []string) error {
	return c.resolver.ResolveTree(ctx, cf, option, movedAwayChildren)
}

// ConflictTreeResolveByID is ConflictTreeResolve by numeric id
// ("tree_resolve_by_id").
func (c *Client) ConflictTreeResolveByID(ctx context.Context, cf *conflict.Conflict, id conflict.OptionID, movedAwayChildren []string) error {
	return c.resolver.ResolveTree(ctx, cf, conflict.Option(id), movedAwayChildren)
}

// ConflictTextGetResolution returns the option a text conflict was
// resolved with, if any ("text_get_resolution").
func (c *Client) ConflictTextGetResolution(cf *conflict.Conflict) (conflict.Option, bool) {
	if cf.Text != nil {
		return 0, false
	}
	return cf.ResolutionText, true
}

// ConflictPropGetResolution returns the option propname's conflict was
// resolved with, if any ("prop_get_resolution").
func (c *Client) ConflictPropGetResolution(cf *conflict.Conflict, propname string) (conflict.Option, bool) {
	option, ok := cf.ResolvedProps[propname]
	return option, ok
}

// ConflictTreeGetResolution returns the option a tree conflict was
// resolved with, if any ("tree_get_resolution").
func (c *Client) ConflictTreeGetResolution(cf *conflict.Conflict) (conflict.Option, bool) {
	if cf.Tree != nil {
		return 0, false
	}
	return cf.ResolutionTree, true
}

// Resolved is the spec.md §6 top-level convenience verb: resolve every
// outstanding conflict on path with a single option, covering text, all
// properties, and tree uniformly ("resolved"). Each call is independently
// idempotent (spec.md §4.3.3 "Idempotence").
func (c *Client) Resolved(ctx context.Context, path string, option conflict.Option) error {
	cf, err := conflict.Load(ctx, c.store, path)
	if err != nil {
		return fmt.Errorf("svnclient: resolved %s: %w", path, err)
	}

	if err := c.resolver.ResolveText(ctx, cf, option); err != nil {
		return fmt.Errorf("svnclient: resolved %s: text: %w", path, err)
	}

	if err := c.resolver.ResolveProp(ctx, cf, "", option); err != nil {
		return fmt.Errorf("svnclient: resolved %s: properties: %w", path, err)
	}

	if err := c.resolver.ResolveTree(ctx, cf, option, nil); err != nil {
		return fmt.Errorf("svnclient: resolved %s: tree: %w", path, err)
	}

	return nil
}
