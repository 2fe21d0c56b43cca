package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/tag-search/internal/config"
	"github.com/kozaktomas/tag-search/internal/searcher"
)

var similarCmd = &cobra.Command{
	Use:   "similar [image-path]",
	Short: "Rank images by tag similarity to a reference image",
	Long: `Rank images by exact Jaccard similarity of their tag sets against a
reference image.

The reference image is excluded from the results. An optional boolean
query narrows the candidate pool before ranking.

Examples:
  # Top 20 images most similar to a reference
  tag-search similar /photos/2023/beach.jpg --limit 20

  # Only rank candidates matching a query
  tag-search similar /photos/2023/beach.jpg --query "NOT screenshot"`,
	Args: cobra.ExactArgs(1),
	RunE: runSimilar,
}

func init() {
	rootCmd.AddCommand(similarCmd)

	similarCmd.Flags().String("query", "", "Boolean tag query narrowing the candidate pool")
	similarCmd.Flags().StringSlice("scope", nil, "Restrict candidates to images under this directory (repeatable)")
	similarCmd.Flags().Int("limit", 50, "Maximum number of results (0 = unlimited)")
	similarCmd.Flags().Bool("json", false, "Output as JSON")
}

func runSimilar(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	matches, err := searcher.New(st).SimilarToImage(
		cmd.Context(),
		args[0],
		mustGetString(cmd, "query"),
		scopeFlag(cmd),
		mustGetInt(cmd, "limit"),
	)
	if err != nil {
		return err
	}

	if mustGetBool(cmd, "json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(matches)
	}

	if len(matches) == 0 {
		fmt.Println("No similar images found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tIMAGE")
	for _, m := range matches {
		fmt.Fprintf(w, "%.3f\t%s\n", m.Score, m.ID)
	}
	return w.Flush()
}
