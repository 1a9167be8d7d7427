package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/pubscope/internal/config"
	"github.com/rshade/pubscope/internal/tui"
)

// NewConfigValidateCmd creates the config validate command for validating configuration.
func NewConfigValidateCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		Long: `Validates the effective configuration for syntax and semantic correctness.

This includes:
- API base URL, timeout and rate limit
- Default mount, page size and debounce
- Cache TTL
- Logging format
- Theme colours`,
		Example: `  # Validate current configuration
  pubscope config validate

  # Validate and show detailed information
  pubscope config validate --verbose`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigValidate(cmd, verbose)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show detailed validation information")

	return cmd
}

// runConfigValidate executes the configuration validation logic.
func runConfigValidate(cmd *cobra.Command, verbose bool) error {
	cfg := config.GetGlobalConfig()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	if _, err := tui.LoadTheme(cfg.Theme); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	cmd.Printf("Configuration is valid\n")

	if verbose {
		printVerboseDetails(cmd, cfg)
	}
	return nil
}

// printVerboseDetails prints detailed configuration information.
func printVerboseDetails(cmd *cobra.Command, cfg *config.Config) {
	cmd.Println()
	cmd.Println("Configuration details:")
	cmd.Printf("  API base URL: %s\n", cfg.API.BaseURL)
	cmd.Printf("  Request timeout: %s\n", cfg.API.Timeout)
	cmd.Printf("  Default mount: %s\n", cfg.View.Mount)
	cmd.Printf("  Page size: %d\n", cfg.View.PageSize)
	cmd.Printf("  Debounce: %s\n", cfg.View.Debounce)
	cmd.Printf("  Logging level: %s\n", cfg.Logging.Level)
	cmd.Printf("  Log file: %s\n", cfg.Logging.File)

	if dir := config.GetResolvedProjectDir(); dir != "" {
		cmd.Printf("  Project directory: %s\n", dir)
	}

	if cfg.View.Filters.IsZero() {
		cmd.Println("  No filter overrides configured")
		return
	}
	cmd.Printf("  Filter overrides: %d\n", cfg.View.Filters.Len())
	for _, key := range cfg.View.Filters.Keys() {
		cmd.Printf("    - %s\n", key)
	}
}
