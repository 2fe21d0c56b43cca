package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/tag-search/internal/config"
	"github.com/kozaktomas/tag-search/internal/minhash"
)

var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "Precompute MinHash signatures for all images",
	Long: `Compute and cache the MinHash signature of every tagged image in scope.

Signatures are otherwise computed lazily during a duplicate scan, so
this command is optional. Running it ahead of time makes the first
'dupes' run on a large collection much faster.`,
	RunE: runSign,
}

func init() {
	rootCmd.AddCommand(signCmd)

	signCmd.Flags().StringSlice("scope", nil, "Restrict to images under this directory (repeatable)")
	signCmd.Flags().Bool("force", false, "Recompute signatures even if already cached")
}

func runSign(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

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

	force := mustGetBool(cmd, "force")
	gen := minhash.NewGenerator(cfg.Search.NumPermutations)

	bar := progressbar.NewOptions(len(ids),
		progressbar.OptionSetDescription("Signing"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("images"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionFullWidth(),
	)

	var computed, cached, untagged, failed int
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}

		if !force {
			sig, err := st.GetSignature(ctx, id)
			if err == nil && len(sig) == cfg.Search.NumPermutations {
				cached++
				bar.Add(1)
				continue
			}
		}

		tags, err := st.TagsForImage(ctx, id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "\nFailed to read tags for %s: %v\n", id, err)
			failed++
			bar.Add(1)
			continue
		}
		if len(tags) == 0 {
			untagged++
			bar.Add(1)
			continue
		}

		if err := st.PutSignature(ctx, id, gen.Signature(tags)); err != nil {
			fmt.Fprintf(os.Stderr, "\nFailed to store signature for %s: %v\n", id, err)
			failed++
			bar.Add(1)
			continue
		}
		computed++
		bar.Add(1)
	}
	fmt.Println()

	fmt.Printf("Computed %d signatures (%d already cached, %d untagged", computed, cached, untagged)
	if failed > 0 {
		fmt.Printf(", %d failed", failed)
	}
	fmt.Println(")")
	return nil
}
