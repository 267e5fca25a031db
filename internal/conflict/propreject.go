package conflict

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// maxRejectSuffix bounds the numeric suffix tried during reject-path
// collision avoidance, mirroring the working copy's own conflict-copy
// naming scheme.
const maxRejectSuffix = 1000

// WriteRejectFile writes a property conflict's incoming value(s) to a new
// reject file next to nodePath and returns its path (spec.md's PropConflict
// "reject_path" field; [SUPPLEMENT] grounded on svn_client.h's
// svn_client_conflict_prop_get_reject_path — the original writes one
// reject file per conflicted property name, at detection time). The file
// records whichever of the incoming old/new values are present, in a
// human-readable "propname: value" form.
func WriteRejectFile(nodePath, propname string, incomingOld, incomingNew []byte, hasOld, hasNew bool) (string, error) {
	path := generateRejectPath(nodePath, propname)

	var b strings.Builder
	fmt.Fprintf(&b, "Property conflict on %q, property %q:\n", nodePath, propname)

	if hasOld {
		fmt.Fprintf(&b, "--- incoming (old) value ---\n%s\n", incomingOld)
	}

	if hasNew {
		fmt.Fprintf(&b, "--- incoming (new) value ---\n%s\n", incomingNew)
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("conflict: writing reject file for property %q on %s: %w", propname, nodePath, err)
	}

	return path, nil
}

// DeleteRejectFile removes a reject file written by WriteRejectFile, once
// the property conflict it describes has been resolved. Missing files are
// not an error: resolution is idempotent.
func DeleteRejectFile(rejectPath string) error {
	if rejectPath == "" {
		return nil
	}

	if err := os.Remove(rejectPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("conflict: removing reject file %s: %w", rejectPath, err)
	}

	return nil
}

// generateRejectPath builds a reject-file path for propname on nodePath,
// following the same timestamp-plus-numeric-suffix collision avoidance as
// the working copy's text conflict-copy naming, adapted to the
// svn ".prej" reject-file suffix and scoped per property name so two
// conflicted properties on the same node never collide.
func generateRejectPath(nodePath, propname string) string {
	stem, ext := conflictStemExt(nodePath)
	ts := time.Now().UTC().Format("20060102-150405")

	base := fmt.Sprintf("%s.%s.prej-%s%s", stem, propname, ts, ext)
	if _, err := os.Stat(base); os.IsNotExist(err) {
		return base
	}

	for i := 1; i <= maxRejectSuffix; i++ {
		candidate := fmt.Sprintf("%s.%s.prej-%s-%d%s", stem, propname, ts, i, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}

	return base
}

// conflictStemExt splits nodePath into a (stem, ext) pair, treating a
// dotfile's leading dot as part of the stem rather than as an extension
// marker (grounded on the teacher's internal/sync/conflict.go
// conflictStemExt, reused here for reject-file naming).
func conflictStemExt(nodePath string) (stem, ext string) {
	base := filepath.Base(nodePath)
	dir := nodePath[:len(nodePath)-len(base)]

	if strings.HasPrefix(base, ".") && strings.Count(base, ".") == 1 {
		return dir + base, ""
	}

	ext = filepath.Ext(base)
	stem = dir + base[:len(base)-len(ext)]

	return stem, ext
}
