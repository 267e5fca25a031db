package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/svngo/internal/auth"
	"github.com/tonimelisma/svngo/internal/config"
	"github.com/tonimelisma/svngo/internal/rasession"
	"github.com/tonimelisma/svngo/internal/wc"
	"github.com/tonimelisma/svngo/svnclient"
)

var version = "dev"

// skipConfigAnnotation marks commands that load configuration themselves
// (or need none), mirroring the teacher's own opt-out convention in
// PersistentPreRunE.
const skipConfigAnnotation = "skipConfig"

var (
	flagConfigPath string
	flagRoot       string
	flagJSON       bool
	flagVerbose    bool
	flagDebug      bool
	flagQuiet      bool
)

// CLIContext bundles resolved config and logger, built once in
// PersistentPreRunE and threaded through RunE handlers via the command
// context (grounded on the teacher's own CLIContext pattern).
type CLIContext struct {
	Cfg    *config.Config
	Logger *slog.Logger
}

type cliContextKey struct{}

func cliContextFrom(ctx context.Context) *CLIContext {
	cc, _ := ctx.Value(cliContextKey{}).(*CLIContext)
	return cc
}

func mustCLIContext(ctx context.Context) *CLIContext {
	cc := cliContextFrom(ctx)
	if cc == nil {
		panic("BUG: CLIContext missing — PersistentPreRunE did not run")
	}
	return cc
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "svngo",
		Short:         "Subversion client",
		Long:          "A Subversion version-control client: checkout, update, commit, and conflict resolution against a DAV repository.",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations[skipConfigAnnotation] == "true" {
				return nil
			}
			return loadConfig(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path")
	cmd.PersistentFlags().StringVar(&flagRoot, "root", ".", "working-copy root directory")
	cmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output in JSON format")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "show detailed output")
	cmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress informational output")
	cmd.MarkFlagsMutuallyExclusive("verbose", "debug", "quiet")

	cmd.AddCommand(newCheckoutCmd())
	cmd.AddCommand(newUpdateCmd())
	cmd.AddCommand(newSwitchCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newDiffCmd())
	cmd.AddCommand(newMergeCmd())
	cmd.AddCommand(newCommitCmd())
	cmd.AddCommand(newAddCmd())
	cmd.AddCommand(newMkdirCmd())
	cmd.AddCommand(newDeleteCmd())
	cmd.AddCommand(newCopyCmd())
	cmd.AddCommand(newMoveCmd())
	cmd.AddCommand(newImportCmd())
	cmd.AddCommand(newRevertCmd())
	cmd.AddCommand(newLogCmd())
	cmd.AddCommand(newBlameCmd())
	cmd.AddCommand(newLsCmd())
	cmd.AddCommand(newCatCmd())
	cmd.AddCommand(newExportCmd())
	cmd.AddCommand(newInfoCmd())
	cmd.AddCommand(newPropsetCmd())
	cmd.AddCommand(newPropgetCmd())
	cmd.AddCommand(newProplistCmd())
	cmd.AddCommand(newConflictsCmd())
	cmd.AddCommand(newResolveCmd())
	cmd.AddCommand(newCleanupCmd())
	cmd.AddCommand(newRelocateCmd())

	return cmd
}

func loadConfig(cmd *cobra.Command) error {
	logger := buildLogger(nil)

	path := config.ResolveConfigPath(config.ReadEnvOverrides(), flagConfigPath, logger)

	cfg, err := config.LoadOrDefault(path, logger)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	config.ApplyEnvOverrides(cfg, config.ReadEnvOverrides())

	finalLogger := buildLoggerFromConfig(cfg)
	cc := &CLIContext{Cfg: cfg, Logger: finalLogger}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, cliContextKey{}, cc))

	return nil
}

func buildLogger(cfg *config.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel(cfg)}))
}

func buildLoggerFromConfig(cfg *config.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel(cfg)}))
}

func logLevel(cfg *config.Config) slog.Level {
	level := slog.LevelWarn

	if cfg != nil {
		switch cfg.Logging.Level {
		case "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "error":
			level = slog.LevelError
		}
	}

	if flagVerbose {
		level = slog.LevelInfo
	}
	if flagDebug {
		level = slog.LevelDebug
	}
	if flagQuiet {
		level = slog.LevelError
	}

	return level
}

// wcDBPath is where the local working-copy store lives, relative to the
// working-copy root — grounded on the teacher's own convention of a
// dotdir under the tree it manages.
const wcDBName = "wc.db"

func wcDBPath(root string) string {
	return filepath.Join(root, ".svn", wcDBName)
}

// openStore opens (creating if absent) the sqlite-backed working-copy
// store rooted at flagRoot.
func openStore(ctx context.Context, logger *slog.Logger) (wc.Store, error) {
	root, err := filepath.Abs(flagRoot)
	if err != nil {
		return nil, fmt.Errorf("resolving working-copy root: %w", err)
	}

	if err := os.MkdirAll(filepath.Join(root, ".svn"), 0o755); err != nil {
		return nil, fmt.Errorf("creating working-copy metadata directory: %w", err)
	}

	return wc.NewStore(ctx, wcDBPath(root), logger)
}

// openSession builds the repository-access session. url is the root URL
// to connect to; for commands operating against an already-checked-out
// tree this is read from the working copy's recorded entry rather than
// passed explicitly.
func openSession(ctx context.Context, cfg *config.Config, url string, logger *slog.Logger) (rasession.Session, error) {
	authCfg := auth.ProviderConfig{
		Provider:     cfg.Auth.Provider,
		Username:     cfg.Auth.Username,
		Password:     config.ReadEnvOverrides().Password,
		TokenFile:    cfg.Auth.TokenFile,
		ClientID:     cfg.Auth.ClientID,
		ClientSecret: cfg.Auth.ClientSecret,
		AuthURL:      cfg.Auth.AuthURL,
		TokenURL:     cfg.Auth.TokenURL,
	}

	authenticator, err := auth.NewAuthenticator(ctx, authCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("building authenticator: %w", err)
	}

	hc := &http.Client{Timeout: 0}
	if cfg.Network.DataTimeout != "" {
		if d, err := time.ParseDuration(cfg.Network.DataTimeout); err == nil {
			hc.Timeout = d
		}
	}

	return rasession.Open(ctx, url, "", hc, authenticator, logger)
}

// newClient builds an svnclient.Client rooted at flagRoot, reading the
// repository URL from the already-checked-out working copy's root entry.
// Use for every command except checkout, which has no entry yet and
// builds its session directly against the user-supplied URL.
func newClient(ctx context.Context, cc *CLIContext) (*svnclient.Client, wc.Store, error) {
	store, err := openStore(ctx, cc.Logger)
	if err != nil {
		return nil, nil, err
	}

	root, err := filepath.Abs(flagRoot)
	if err != nil {
		return nil, nil, err
	}

	entry, err := store.ReadEntry(ctx, ".")
	if err != nil {
		return nil, nil, fmt.Errorf("%s is not a working copy (run checkout first): %w", root, err)
	}

	session, err := openSession(ctx, cc.Cfg, entry.URL, cc.Logger)
	if err != nil {
		return nil, nil, err
	}

	client := svnclient.New(session, store, root, nil, nil, nil, cc.Logger)
	return client, store, nil
}
