package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tag-search",
	Short: "A CLI tool for searching and deduplicating tagged image collections",
	Long: `Tag Search indexes images by their tags and lets you query the collection
with boolean expressions (AND, OR, NOT, brackets), rank images by tag
similarity, and find near-duplicate images using MinHash signatures.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
