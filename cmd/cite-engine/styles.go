// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/cite-engine/internal/citeproc"
)

var stylesCmd = &cobra.Command{
	Use:   "styles",
	Short: "List installed citation styles and locales",
	RunE:  runStyles,
}

func init() {
	stylesCmd.Flags().Bool("json", false, "output as JSON")
	rootCmd.AddCommand(stylesCmd)
}

func runStyles(cmd *cobra.Command, args []string) error {
	reg, err := citeproc.Builtin()
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"styles": reg.Styles(), "locales": reg.Locales()})
	}

	fmt.Fprintf(os.Stdout, "%-60s  %-14s  %s\n", "Style", "Category", "Title")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 110))
	for _, s := range reg.Styles() {
		fmt.Fprintf(os.Stdout, "%-60s  %-14s  %s\n", s.StyleID, s.Categories, s.Title)
	}

	locales := reg.Locales()
	codes := make([]string, 0, len(locales))
	for code := range locales {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	fmt.Fprintln(os.Stdout)
	for _, code := range codes {
		fmt.Fprintf(os.Stdout, "%-8s  %s\n", code, locales[code])
	}
	return nil
}
