// Package conflict implements the conflict model and resolver (spec.md
// §4.3): classification, option enumeration, resolution dispatch, and
// lazy incoming-delete enrichment, built on top of internal/wc's raw
// conflict descriptors.
package conflict

import "github.com/tonimelisma/svngo/internal/wc"

// Option is a resolution option a caller may choose for a conflicted
// path (spec.md §4.3.2).
type Option int

const (
	OptionPostpone Option = iota
	OptionBase
	OptionIncoming
	OptionWorking
	OptionIncomingWhereConflicted
	OptionWorkingWhereConflicted
	OptionMerged

	// Tree-conflict-only options.
	OptionAcceptCurrentWCState
	OptionUpdateMoveDestination
	OptionUpdateAnyMovedAwayChildren
)

// OptionID mirrors svn_client.h's svn_client_conflict_option_id_t: a stable
// numeric identifier for each Option, independent of the string name
// returned by Describe ([SUPPLEMENT], grounded on
// svn_client_conflict_option_get_id/_describe).
type OptionID int

const (
	OptionIDPostpone OptionID = iota
	OptionIDBase
	OptionIDIncoming
	OptionIDWorking
	OptionIDIncomingWhereConflicted
	OptionIDWorkingWhereConflicted
	OptionIDMerged
	OptionIDAcceptCurrentWCState
	OptionIDUpdateMoveDestination
	OptionIDUpdateAnyMovedAwayChildren
)

// ID returns o's stable numeric identifier.
func (o Option) ID() OptionID { return OptionID(o) }

// Describe returns o's human-readable name, identical to String — kept as
// a distinct method so callers mirroring svn_client_conflict_option_describe
// have a like-named entry point.
func (o Option) Describe() string { return o.String() }

func (o Option) String() string {
	switch o {
	case OptionPostpone:
		return "postpone"
	case OptionBase:
		return "base"
	case OptionIncoming:
		return "incoming"
	case OptionWorking:
		return "working"
	case OptionIncomingWhereConflicted:
		return "incoming-where-conflicted"
	case OptionWorkingWhereConflicted:
		return "working-where-conflicted"
	case OptionMerged:
		return "merged"
	case OptionAcceptCurrentWCState:
		return "accept-current-wc-state"
	case OptionUpdateMoveDestination:
		return "update-move-destination"
	case OptionUpdateAnyMovedAwayChildren:
		return "update-any-moved-away-children"
	default:
		return "unknown"
	}
}

// TextOptions enumerates the options offered for a text conflict
// (spec.md §4.3.2): the full set for non-binary files, a narrower subset
// for binary ones.
func TextOptions(isBinary bool) []Option {
	if isBinary {
		return []Option{OptionPostpone, OptionIncoming, OptionWorking, OptionMerged}
	}

	return []Option{
		OptionPostpone, OptionBase, OptionIncoming, OptionWorking,
		OptionIncomingWhereConflicted, OptionWorkingWhereConflicted, OptionMerged,
	}
}

// PropOptions enumerates the options offered for a property conflict —
// the same set as a non-binary text conflict (spec.md §4.3.2).
func PropOptions() []Option {
	return TextOptions(false)
}

// TreeOptions enumerates the options offered for a tree conflict
// (spec.md §4.3.2): postpone and accept-current-wc-state always, plus
// situational options gated on operation/local-change/incoming-change/
// victim-kind.
func TreeOptions(operation wc.Operation, local wc.LocalChange, incoming wc.IncomingChange, victimIsDir bool) []Option {
	opts := []Option{OptionPostpone, OptionAcceptCurrentWCState}

	underUpdateOrSwitch := operation == wc.OperationUpdate || operation == wc.OperationSwitch

	if underUpdateOrSwitch && local == wc.LocalMovedAway && incoming == wc.IncomingEdit {
		opts = append(opts, OptionUpdateMoveDestination)
	}

	if underUpdateOrSwitch && (local == wc.LocalDeleted || local == wc.LocalReplaced) && incoming == wc.IncomingEdit && victimIsDir {
		opts = append(opts, OptionUpdateAnyMovedAwayChildren)
	}

	return opts
}

// remapLegacyTreeOption implements spec.md §4.3.3's "Backwards-compatible
// mapping": a caller requesting the legacy working-where-conflicted or
// merged option against a tree conflict is remapped to whichever modern
// option actually applies.
func remapLegacyTreeOption(option Option, c *Conflict) Option {
	if option != OptionWorkingWhereConflicted && option != OptionMerged {
		return option
	}

	underUpdateOrSwitch := c.Operation == wc.OperationUpdate || c.Operation == wc.OperationSwitch
	if underUpdateOrSwitch && c.LocalChange == wc.LocalMovedAway && c.IncomingChange == wc.IncomingEdit {
		return OptionUpdateMoveDestination
	}

	return OptionAcceptCurrentWCState
}

// textOrPropChoice maps a text/property resolution Option onto the
// coarser wc.ResolutionChoice the store records. incoming-where-conflicted
// and working-where-conflicted narrow the resolution to the conflicted
// region only — a distinction the store's whole-entry resolution markers
// do not model, so both collapse onto the corresponding whole-value
// choice.
func textOrPropChoice(option Option) (wc.ResolutionChoice, bool) {
	switch option {
	case OptionBase:
		return wc.ChoiceBase, true
	case OptionIncoming, OptionIncomingWhereConflicted:
		return wc.ChoiceIncoming, true
	case OptionWorking, OptionWorkingWhereConflicted:
		return wc.ChoiceWorking, true
	case OptionMerged:
		return wc.ChoiceMerged, true
	default:
		return 0, false
	}
}
