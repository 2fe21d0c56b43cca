package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/tag-search/internal/config"
)

var importCmd = &cobra.Command{
	Use:   "import [tags-file]",
	Short: "Import image tags from a JSON file",
	Long: `Import image tags into the database from a JSON file.

The file maps image paths to their tag lists:

  {
    "/photos/2023/beach.jpg": ["beach", "sunset", "ocean"],
    "/photos/2023/cat.jpg": ["cat", "indoor"]
  }

Re-importing an image replaces its tags and invalidates its cached
MinHash signature.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading tags file: %w", err)
	}

	var images map[string][]string
	if err := json.Unmarshal(data, &images); err != nil {
		return fmt.Errorf("parsing tags file: %w", err)
	}

	if len(images) == 0 {
		fmt.Println("No images to import")
		return nil
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	paths := make([]string, 0, len(images))
	for path := range images {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	bar := progressbar.NewOptions(len(paths),
		progressbar.OptionSetDescription("Importing"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("images"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionFullWidth(),
	)

	ctx := cmd.Context()
	var failed int
	for _, path := range paths {
		if err := st.AddImage(ctx, path, images[path]); err != nil {
			fmt.Fprintf(os.Stderr, "\nFailed to import %s: %v\n", path, err)
			failed++
		}
		bar.Add(1)
	}
	fmt.Println()

	fmt.Printf("Imported %d images", len(paths)-failed)
	if failed > 0 {
		fmt.Printf(" (%d failed)", failed)
	}
	fmt.Println()
	return nil
}
