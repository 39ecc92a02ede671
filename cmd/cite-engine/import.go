// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file>...",
	Short: "Import items and collections into the library",
	Long: `Import reads library files and stores their items and collections in the
library database. A library file is YAML (or JSON) with a library id, a list
of items holding CSL records, and nested collections. Items are keyed by
library id and item key; importing the same file twice replaces the earlier
rows.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	store, _, err := openLibrary()
	if err != nil {
		return err
	}
	defer store.Close()

	for _, path := range args {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("opening %s: %w", path, err)
		}
		summary, err := store.Import(context.Background(), f)
		f.Close()
		if err != nil {
			return fmt.Errorf("importing %s: %w", path, err)
		}
		fmt.Fprintf(os.Stderr, "%s: %d items, %d collections\n", path, summary.Items, summary.Collections)
	}

	n, err := store.Count(context.Background())
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Library holds %d items\n", n)
	return nil
}
