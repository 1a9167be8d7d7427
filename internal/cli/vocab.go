package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rshade/pubscope/internal/config"
	"github.com/rshade/pubscope/internal/gateway"
	"github.com/rshade/pubscope/internal/model"
)

const tabPadding = 2

// newVocabCmd creates the vocab command group.
func newVocabCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "vocab", Short: "Show the codes accepted by --type and --project"}
	cmd.AddCommand(
		newVocabListCmd("types", "Publication types", (*gateway.Client).FetchTypeVocabulary),
		newVocabListCmd("projects", "Projects", (*gateway.Client).FetchProjectVocabulary),
	)
	return cmd
}

type vocabFetch func(*gateway.Client, context.Context) (model.Vocabulary, error)

func newVocabListCmd(use, short string, fetch vocabFetch) *cobra.Command {
	var (
		baseURL string
		output  string
	)

	cmd := &cobra.Command{
		Use:   use,
		Short: short + " known to the server",
		Long: short + ` known to the server, in server order. Responses are cached on disk
for cache.ttl_seconds.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			client, err := newClient(ctx, config.GetGlobalConfig(), baseURL)
			if err != nil {
				return err
			}
			vocab, err := fetch(client, ctx)
			if err != nil {
				return fmt.Errorf("loading %s: %w", use, err)
			}
			return writeVocabulary(cmd, vocab, output)
		},
	}

	cmd.Flags().StringVar(&baseURL, "base-url", "", "publications API root (default from config)")
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format: table or json")
	return cmd
}

func writeVocabulary(cmd *cobra.Command, vocab model.Vocabulary, output string) error {
	switch output {
	case outputJSON:
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(vocab)
	case outputTable:
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, tabPadding, ' ', 0)
		fmt.Fprintln(w, "Code\tLabel")
		fmt.Fprintln(w, "----\t-----")
		for _, e := range vocab.Entries() {
			fmt.Fprintf(w, "%s\t%s\n", e.Code, e.Label)
		}
		return w.Flush()
	default:
		return fmt.Errorf("unsupported output %q: use %s or %s", output, outputTable, outputJSON)
	}
}
