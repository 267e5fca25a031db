package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// tomlDecode decodes s into cfg and returns the decode metadata, which
// checkUnknownKeys uses to reject typos rather than silently ignoring them.
func tomlDecode(s string, cfg *Config) (*toml.MetaData, error) {
	md, err := toml.Decode(s, cfg)
	if err != nil {
		return nil, err
	}

	return &md, nil
}

// checkUnknownKeys rejects any key present in the config file that
// BurntSushi/toml could not map onto a known Config field, with a
// "did you mean?" suggestion when one is obvious. An unrecognized key is
// far more likely a typo than an intentional extension (spec.md §7
// "argument validation runs before side effects").
func checkUnknownKeys(md *toml.MetaData) error {
	undecoded := md.Undecoded()
	if len(undecoded) == 0 {
		return nil
	}

	known := knownTopLevelKeys()

	var msgs []string
	for _, key := range undecoded {
		path := key.String()
		top := strings.SplitN(path, ".", 2)[0]

		msg := fmt.Sprintf("unknown config key %q", path)
		if suggestion := closestKey(top, known); suggestion != "" {
			msg += fmt.Sprintf(" (did you mean %q?)", suggestion)
		}

		msgs = append(msgs, msg)
	}

	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}

func knownTopLevelKeys() []string {
	return []string{"auth", "filter", "network", "commit", "conflict", "logging"}
}

// closestKey returns the first known key sharing a 3-character prefix with
// candidate, a cheap typo-detection heuristic that avoids pulling in a
// full edit-distance library for a cosmetic error message.
func closestKey(candidate string, known []string) string {
	for _, k := range known {
		n := min(3, len(k), len(candidate))
		if n > 0 && strings.EqualFold(candidate[:n], k[:n]) {
			return k
		}
	}

	return ""
}
