package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rshade/pubscope/internal/cache"
	"github.com/rshade/pubscope/internal/config"
	"github.com/rshade/pubscope/internal/logging"
)

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// logger is the package-level logger for CLI operations.
var logger = zerolog.Nop() //nolint:gochecknoglobals // Required for zerolog context integration

// rootFlags are the persistent flags shared by every command.
type rootFlags struct {
	debug      bool
	configPath string
	projectDir string
	cacheTTL   string
}

// NewRootCmd creates the root Cobra command for the pubscope CLI.
// It loads configuration, sets up logging and tracing, and wires the subcommands.
func NewRootCmd(ver string) *cobra.Command {
	var (
		flags     rootFlags
		logResult *logging.LogPathResult
	)

	cmd := &cobra.Command{
		Use:           "pubscope",
		Short:         "Search and page through a publications catalog",
		Long:          "pubscope: a filtered, paginated view of a remote publications API, in the terminal or as text/JSON",
		Version:       ver,
		Example:       rootCmdExample,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			config.SetGlobalConfig(cfg)

			result := setupLogging(cmd, cfg, flags.debug)
			logResult = &result
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return cleanupLogging(logResult)
		},
	}

	cmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "enable debug logging")
	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "",
		"config file (default $PUBSCOPE_HOME/config.yaml or ~/.pubscope/config.yaml)")
	cmd.PersistentFlags().StringVar(&flags.projectDir, "project-dir", "",
		"project directory holding a .pubscope/config.yaml overlay")
	cmd.PersistentFlags().StringVar(&flags.cacheTTL, "cache-ttl", "",
		"vocabulary cache lifetime for this run, in seconds or as a duration (e.g. 3600, 1h)")

	cmd.AddCommand(NewBrowseCmd(), NewListCmd(), newVocabCmd(), newCacheCmd(), newConfigCmd())
	return cmd
}

// loadConfig resolves the project overlay, loads the layered configuration and
// validates it.
func loadConfig(cmd *cobra.Command, flags rootFlags) (*config.Config, error) {
	ctx := cmd.Context()
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	config.SetResolvedProjectDir(config.ResolveProjectDir(ctx, flags.projectDir, cwd))

	cfg, err := config.Load(ctx, flags.configPath)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if flags.cacheTTL != "" {
		ttl, ttlErr := cache.ParseTTL(flags.cacheTTL)
		if ttlErr != nil {
			return nil, fmt.Errorf("--cache-ttl: %w", ttlErr)
		}
		cfg.Cache.TTLSeconds = ttl
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

const rootCmdExample = `  # Browse publications interactively
  pubscope browse

  # Start on a filtered view
  pubscope browse --search "dark matter" --project icecube --show-dates

  # Print the second page of theses as JSON
  pubscope list --type thesis --page 2 --output json

  # Show the known publication types
  pubscope vocab types

  # Drop cached vocabularies
  pubscope cache clear

  # Write a default configuration file
  pubscope config init`

// newConfigCmd creates the config command group.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Configuration management commands"}
	cmd.AddCommand(NewConfigInitCmd(), NewConfigShowCmd(), NewConfigValidateCmd())
	return cmd
}
