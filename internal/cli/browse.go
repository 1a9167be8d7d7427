package cli

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rshade/pubscope/internal/config"
	"github.com/rshade/pubscope/internal/logging"
	"github.com/rshade/pubscope/internal/tui"
	"github.com/rshade/pubscope/internal/widget"
)

// NewBrowseCmd creates the browse command, which mounts the publication list.
func NewBrowseCmd() *cobra.Command {
	var (
		filters filterFlags
		baseURL string
		mount   string
	)

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse publications interactively",
		Long: `Mounts the publication list on a surface and keeps it in sync with the filters.

The #terminal surface is an interactive browser: edit the filters and the list refreshes
after a short pause; page keys fetch immediately. #plain and #json print one page and exit.`,
		Example: `  # Interactive browser
  pubscope browse

  # Start on page 3 with 50 publications per page
  pubscope browse --limit 50 --page 3

  # One page of JSON from a different server
  pubscope browse --base-url http://localhost:8080 --mount '#json'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.GetGlobalConfig()
			return runMount(cmd, cfg, &filters, baseURL, resolveMount(cmd, mount, cfg.View.Mount))
		},
	}

	filters.register(cmd)
	cmd.Flags().StringVar(&baseURL, "base-url", "", "publications API root (default from config)")
	cmd.Flags().StringVar(&mount, "mount", config.DefaultMount, "mount point: #terminal, #plain or #json")
	return cmd
}

// runMount resolves flags against cfg and mounts the list on the chosen surface.
func runMount(cmd *cobra.Command, cfg *config.Config, filters *filterFlags, baseURL, mount string) error {
	ctx := cmd.Context()

	theme, err := tui.LoadTheme(cfg.Theme)
	if err != nil {
		return &widget.ConfigurationError{Mount: mount, Err: err}
	}
	overrides, err := filters.overrides(cmd, cfg)
	if err != nil {
		return err
	}
	pageSize, err := filters.pageSize(cmd, cfg)
	if err != nil {
		return err
	}
	page, err := filters.startPage()
	if err != nil {
		return err
	}

	client, err := newClient(ctx, cfg, baseURL)
	if err != nil {
		return &widget.ConfigurationError{Mount: mount, Err: err}
	}

	// Log lines would tear the interactive screen unless they go to a file.
	viewLogger := *logging.FromContext(ctx)
	if mount == MountTerminal && cfg.Logging.File == "" {
		viewLogger = zerolog.Nop()
	}

	logger.Debug().Ctx(ctx).
		Str("mount", mount).
		Str("base_url", client.BaseURL()).
		Int("page_size", pageSize).
		Int("page", page).
		Msg("mounting publication list")

	err = widget.Mount(ctx, newHost(cmd, theme), client, widget.Options{
		Mount:     mount,
		BaseURL:   client.BaseURL(),
		Filters:   overrides,
		ShowDates: filters.dates(cmd, cfg),
		PageSize:  pageSize,
		Page:      page,
		Debounce:  cfg.View.Debounce.Std(),
		Logger:    viewLogger,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", cmd.Name(), err)
	}
	return nil
}
