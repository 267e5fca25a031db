package main

import (
	"fmt"
	"strconv"

	"github.com/tonimelisma/svngo/internal/revision"
)

// parseRevision parses a `-r`/`--revision` argument into a Selector:
// "HEAD", "BASE", "COMMITTED", "PREV", a bare integer, or "" for
// Unspecified (falls back to the operation's own default, usually HEAD).
func parseRevision(s string) (revision.Selector, error) {
	switch s {
	case "":
		return revision.Unspecified, nil
	case "HEAD":
		return revision.Head, nil
	case "BASE":
		return revision.Base, nil
	case "COMMITTED":
		return revision.Committed, nil
	case "PREV":
		return revision.Previous, nil
	case "WORKING":
		return revision.Working, nil
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return revision.Selector{}, fmt.Errorf("invalid revision %q: HEAD, BASE, COMMITTED, PREV, WORKING, or a revision number", s)
	}

	return revision.OfNumber(revision.Number(n)), nil
}
