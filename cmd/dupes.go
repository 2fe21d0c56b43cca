package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/tag-search/internal/config"
	"github.com/kozaktomas/tag-search/internal/dupefinder"
)

var dupesCmd = &cobra.Command{
	Use:   "dupes",
	Short: "Find near-duplicate images by tag-set similarity",
	Long: `Find pairs of images whose tag sets are nearly identical.

Each image gets a MinHash signature of its tag set. Signatures are
bucketed with locality-sensitive hashing so only likely pairs are
scored, which keeps large collections tractable. Two thresholds apply:
--catch controls which pairs become candidates (lower = more recall,
more work) and --display filters the scored pairs shown (higher = more
precision).

Examples:
  tag-search dupes
  tag-search dupes --scope /photos/2023 --display 0.95
  tag-search dupes --catch 0.6 --json`,
	RunE: runDupes,
}

func init() {
	rootCmd.AddCommand(dupesCmd)

	dupesCmd.Flags().StringSlice("scope", nil, "Restrict the scan to images under this directory (repeatable)")
	dupesCmd.Flags().Float64("catch", 0, "Candidate threshold for LSH bucketing (default from config)")
	dupesCmd.Flags().Float64("display", 0, "Minimum estimated similarity to report (default from config)")
	dupesCmd.Flags().Bool("json", false, "Output as JSON")
}

func runDupes(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	catch := mustGetFloat64(cmd, "catch")
	if catch == 0 {
		catch = cfg.Search.CatchThreshold
	}
	display := mustGetFloat64(cmd, "display")
	if display == 0 {
		display = cfg.Search.DisplayThreshold
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	images, err := st.AllImages(ctx, scopeFlag(cmd))
	if err != nil {
		return fmt.Errorf("listing images: %w", err)
	}
	if len(images) == 0 {
		fmt.Println("No images in scope")
		return nil
	}

	ids := make([]string, 0, len(images))
	for id := range images {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	bar := progressbar.NewOptions(len(ids),
		progressbar.OptionSetDescription("Computing signatures"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("images"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionFullWidth(),
	)

	finder := dupefinder.New(st, st, cfg.Search.NumPermutations)
	report, err := finder.FindDuplicates(ctx, ids, dupefinder.Options{
		CatchThreshold:   catch,
		DisplayThreshold: display,
		NumPermutations:  cfg.Search.NumPermutations,
		OnProgress: func(p dupefinder.Progress) {
			if p.Phase == dupefinder.PhaseSignatures {
				bar.Set(p.Current)
			}
		},
	})
	if err != nil {
		return err
	}
	fmt.Println()

	if mustGetBool(cmd, "json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	if report.ClampNote != "" {
		fmt.Fprintln(os.Stderr, report.ClampNote)
	}

	if len(report.Pairs) == 0 {
		fmt.Printf("No duplicate pairs found (%d images indexed, %d candidates scored)\n",
			report.Indexed, report.CandidatesScored)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SIMILARITY\tIMAGE A\tIMAGE B")
	for _, p := range report.Pairs {
		fmt.Fprintf(w, "%.3f\t%s\t%s\n", p.Similarity, p.A, p.B)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\n%d pairs from %d images (%d candidates scored", len(report.Pairs), report.Indexed, report.CandidatesScored)
	if report.SkippedNoTags > 0 {
		fmt.Printf(", %d untagged skipped", report.SkippedNoTags)
	}
	if report.SkippedErrors > 0 {
		fmt.Printf(", %d errors", report.SkippedErrors)
	}
	fmt.Println(")")
	return nil
}
