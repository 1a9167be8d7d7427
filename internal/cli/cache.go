package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rshade/pubscope/internal/cache"
	"github.com/rshade/pubscope/internal/config"
	"github.com/rshade/pubscope/internal/gateway"
)

// vocabEndpoints maps vocabulary names to the API paths whose responses are cached.
var vocabEndpoints = []struct { //nolint:gochecknoglobals // Read-only lookup table.
	name string
	path string
}{
	{"types", gateway.PathTypes},
	{"projects", gateway.PathProjects},
}

func vocabEndpoint(name string) (string, error) {
	for _, e := range vocabEndpoints {
		if e.name == name {
			return e.path, nil
		}
	}
	return "", fmt.Errorf("unknown vocabulary %q: use types or projects", name)
}

// newCacheCmd creates the cache command group.
func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "cache", Short: "Inspect or clear the vocabulary cache"}
	cmd.AddCommand(newCacheStatusCmd(), newCacheClearCmd())
	return cmd
}

func newCacheStatusCmd() *cobra.Command {
	var baseURL string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the cache directory, entry lifetime and cached vocabularies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.GetGlobalConfig()
			store, err := openCache(cfg)
			if err != nil {
				return err
			}
			if !store.Enabled() {
				cmd.Println("Cache is disabled (cache.enabled: false)")
				return nil
			}

			count, err := store.Count()
			if err != nil {
				return err
			}
			cmd.Printf("Cache directory: %s\n", store.Directory())
			cmd.Printf("Entry lifetime: %s\n", cache.FormatDuration(store.TTL()))
			cmd.Printf("Entries: %d\n", count)

			if baseURL == "" {
				baseURL = cfg.API.BaseURL
			}
			now := time.Now()
			for _, e := range vocabEndpoints {
				entry, getErr := store.Get(cache.Key(baseURL, e.path))
				switch {
				case getErr == nil:
					cmd.Printf("  %s: fresh for %s\n", e.name, cache.FormatDuration(entry.Remaining(now)))
				case errors.Is(getErr, cache.ErrExpired):
					cmd.Printf("  %s: expired\n", e.name)
				case errors.Is(getErr, cache.ErrNotFound):
					cmd.Printf("  %s: not cached\n", e.name)
				default:
					cmd.Printf("  %s: unreadable (%v)\n", e.name, getErr)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&baseURL, "base-url", "", "publications API root (default from config)")
	return cmd
}

func newCacheClearCmd() *cobra.Command {
	var baseURL string

	cmd := &cobra.Command{
		Use:   "clear [types|projects]",
		Short: "Remove cached vocabularies",
		Long: `Removes every cached response, or only the named vocabulary of the API at
--base-url. The next command that needs it fetches it again.`,
		Example: `  # Drop everything
  pubscope cache clear

  # Refetch project labels on the next run
  pubscope cache clear projects`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetGlobalConfig()
			store, err := openCache(cfg)
			if err != nil {
				return err
			}
			if !store.Enabled() {
				cmd.Println("Cache is disabled (cache.enabled: false)")
				return nil
			}

			if len(args) == 0 {
				if err := store.Clear(); err != nil {
					return err
				}
				cmd.Printf("Cleared cache at %s\n", store.Directory())
				return nil
			}

			path, err := vocabEndpoint(args[0])
			if err != nil {
				return err
			}
			if baseURL == "" {
				baseURL = cfg.API.BaseURL
			}
			if err := store.Delete(cache.Key(baseURL, path)); err != nil {
				return err
			}
			cmd.Printf("Cleared cached %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&baseURL, "base-url", "", "publications API root (default from config)")
	return cmd
}
