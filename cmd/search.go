package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/tag-search/internal/config"
	"github.com/kozaktomas/tag-search/internal/query"
	"github.com/kozaktomas/tag-search/internal/searcher"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search images with a boolean tag query",
	Long: `Search images with a boolean tag expression.

Operators AND, OR and NOT are case-insensitive and bind in the order
NOT > AND > OR. Square brackets group sub-expressions. Anything that is
not an operator or a bracket is a tag, so tags may contain spaces
without quoting. An empty query matches every image in scope.

Examples:
  # All images tagged both cat and indoor
  tag-search search "cat AND indoor"

  # Everything except screenshots, restricted to one directory
  tag-search search "NOT screenshot" --scope /photos/2023

  # Grouping with brackets
  tag-search search "[cat OR dog] AND NOT blurry"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringSlice("scope", nil, "Restrict results to images under this directory (repeatable)")
	searchCmd.Flags().Bool("json", false, "Output as JSON")
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	q := ""
	if len(args) > 0 {
		q = args[0]
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	results, err := searcher.New(st).SearchSorted(cmd.Context(), q, scopeFlag(cmd))
	if err != nil {
		var syntaxErr *query.SyntaxError
		if errors.As(err, &syntaxErr) {
			return fmt.Errorf("invalid query: %w", syntaxErr)
		}
		return err
	}

	if mustGetBool(cmd, "json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	for _, path := range results {
		fmt.Println(path)
	}
	fmt.Fprintf(os.Stderr, "%d images\n", len(results))
	return nil
}
