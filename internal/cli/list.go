package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/pubscope/internal/config"
)

// Output formats accepted by list and vocab.
const (
	outputTable = "table"
	outputJSON  = "json"
)

// NewListCmd creates the list command, a one-shot query that prints a single page.
func NewListCmd() *cobra.Command {
	var (
		filters filterFlags
		baseURL string
		output  string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print one page of publications",
		Long: `Queries the publications API once and prints the requested page, the pagination
links and the total count.`,
		Example: `  # First page with the configured filters
  pubscope list

  # Second page of IceCube theses as JSON
  pubscope list --type thesis --project icecube --page 2 --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mount, err := outputMount(output)
			if err != nil {
				return err
			}
			return runMount(cmd, config.GetGlobalConfig(), &filters, baseURL, mount)
		},
	}

	filters.register(cmd)
	cmd.Flags().StringVar(&baseURL, "base-url", "", "publications API root (default from config)")
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format: table or json")
	return cmd
}

func outputMount(output string) (string, error) {
	switch output {
	case outputTable:
		return MountPlain, nil
	case outputJSON:
		return MountJSON, nil
	default:
		return "", fmt.Errorf("unsupported output %q: use %s or %s", output, outputTable, outputJSON)
	}
}
