package revision

import (
	"context"
	"time"

	"github.com/tonimelisma/svngo/internal/svnerr"
)

// ServerClock is the minimal session-layer capability the resolver needs
// to turn Head/Date selectors into concrete numbers (spec.md §6's
// get_latest_revision/get_dated_revision). Concrete sessions (internal/
// rasession) implement this alongside their larger surface; the resolver
// only depends on this narrow slice — "accept interfaces, return structs."
type ServerClock interface {
	LatestRevision(ctx context.Context) (Number, error)
	DatedRevision(ctx context.Context, t time.Time) (Number, error)
}

// EntryReader is the minimal working-copy capability the resolver needs
// for Base/Working/Committed selectors, which are illegal against a URL
// target.
type EntryReader interface {
	// CommittedRevision returns the entry's last-changed revision (the
	// basis for Committed and Previous).
	CommittedRevision(path string) (Number, error)
	// BaseRevision returns the entry's checked-out revision.
	BaseRevision(path string) (Number, error)
}

// Op names the family of operation a resolve is performed for, since
// checkout/update/switch additionally gate which Selector kinds are
// admissible (spec.md §4.4 "Checkout/update/switch reject any selector
// not in {Number, Head, Date}").
type Op int

const (
	// OpGeneral covers every operation other than checkout/update/switch:
	// no additional admissibility gate beyond what Resolve itself enforces.
	OpGeneral Op = iota
	// OpCheckoutUpdateSwitch is the restricted family.
	OpCheckoutUpdateSwitch
)

// checkoutAdmitted is the {Number, Head, Date} gate from spec.md §4.4.
func checkoutAdmitted(k Kind) bool {
	return k == KindNumber || k == KindHead || k == KindDate
}

// Resolve maps a Selector against a target to a concrete Number, per
// spec.md §4.4:
//
//	Head            -> server's latest
//	Date(t)         -> server's youngest-revision-not-after-t
//	Previous        -> committed-1 of the peg path
//	Base/Working/Committed -> read from the working-copy entry; illegal
//	                   for a URL target
//	Number(n)       -> passthrough
//
// path is the peg target the selector is relative to (a URL or a
// working-copy path, per isURL). Argument validation happens before any
// I/O: an inadmissible selector for op returns CLIENT_BAD_REVISION with
// zero calls to clock or entries (spec.md §7, §8 property 6).
func Resolve(ctx context.Context, op Op, path string, isURL bool, sel Selector, clock ServerClock, entries EntryReader) (Number, error) {
	if op == OpCheckoutUpdateSwitch && !checkoutAdmitted(sel.Kind()) {
		return Invalid, svnerr.New(svnerr.KindBadRevision,
			"revision selector %q is not admissible for checkout/update/switch", sel)
	}

	switch sel.Kind() {
	case KindNumber:
		return sel.Number(), nil

	case KindHead:
		return clock.LatestRevision(ctx)

	case KindDate:
		return clock.DatedRevision(ctx, sel.Date())

	case KindCommitted:
		if isURL {
			return Invalid, svnerr.New(svnerr.KindBadRevision,
				"revision selector %q is not valid against a URL target", sel)
		}
		return entries.CommittedRevision(path)

	case KindPrevious:
		if isURL {
			return Invalid, svnerr.New(svnerr.KindBadRevision,
				"revision selector %q is not valid against a URL target", sel)
		}
		committed, err := entries.CommittedRevision(path)
		if err != nil {
			return Invalid, err
		}
		return committed - 1, nil

	case KindBase:
		if isURL {
			return Invalid, svnerr.New(svnerr.KindBadRevision,
				"revision selector %q is not valid against a URL target", sel)
		}
		return entries.BaseRevision(path)

	case KindWorking:
		if isURL {
			return Invalid, svnerr.New(svnerr.KindBadRevision,
				"revision selector %q is not valid against a URL target", sel)
		}
		// "Working" names the in-progress local state rather than a
		// numbered revision; callers that reach here (e.g. a diff
		// against the working copy) treat Invalid as "no repository
		// revision, read locally instead."
		return Invalid, nil

	default: // KindUnspecified
		return Invalid, svnerr.New(svnerr.KindBadRevision, "revision selector is unspecified")
	}
}

// ResolvePeg defaults an unspecified peg (DefaultPeg) and resolves it to a
// concrete Number in one step, the shape the public operation surface
// uses before dereferencing a Location.
func ResolvePeg(ctx context.Context, op Op, loc Location, clock ServerClock, entries EntryReader) (Location, Number, error) {
	loc = DefaultPeg(loc)
	n, err := Resolve(ctx, op, loc.PathOrURL, loc.IsURL, loc.Peg, clock, entries)
	return loc, n, err
}
