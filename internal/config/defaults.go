package config

// DefaultConfig returns a Config populated with every default value, so the
// client works with zero configuration (spec.md §7 "argument validation
// runs before side effects" implies every field must have a sane default).
func DefaultConfig() *Config {
	return &Config{
		Auth: AuthConfig{
			Provider:  "basic",
			TokenFile: "",
		},
		Filter: FilterConfig{
			SkipDotfiles: false,
			SkipSymlinks: false,
			MaxFileSize:  "0", // 0 = unlimited
			IgnoreMarker: ".svnignore",
		},
		Network: NetworkConfig{
			ConnectTimeout: "10s",
			DataTimeout:    "60s",
			UserAgent:      "svngo/0.1",
			ForceHTTP11:    false,
		},
		Commit: CommitConfig{
			RequireLogMessage: true,
			MaxItemsPerCommit: 0, // 0 = unlimited
		},
		Conflict: ConflictConfig{
			AutoAccept: "", // require interaction by default
		},
		Logging: LoggingConfig{
			Level:            "info",
			Format:           "text",
			LogRetentionDays: 30,
		},
	}
}
