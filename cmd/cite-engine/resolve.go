// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/cite-engine/internal/citeproc"
	"github.com/pdiddy/cite-engine/internal/export"
	"github.com/pdiddy/cite-engine/internal/format"
	"github.com/pdiddy/cite-engine/internal/resolve"
	"github.com/pdiddy/cite-engine/internal/stylepool"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <key>...",
	Short: "Resolve citation keys against the library",
	Long: `Resolve looks up easy keys (doe:2006article, DoeArticle2006), library
keys (1_ZBZQ4KMP) or citation keys and prints the items in the requested
format, exactly as /items would return them.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().String("scheme", "easykey", "key scheme: easykey, key, citekey")
	resolveCmd.Flags().String("format", "quickBib", "output format (key, easykey, bibtex, bibliography, quickBib, json, ...)")
	resolveCmd.Flags().String("style", "", "citation style for the bibliography format")
	resolveCmd.Flags().String("locale", "", "locale for the bibliography format")

	rootCmd.AddCommand(resolveCmd)
}

func parseScheme(s string) (resolve.Scheme, error) {
	switch s {
	case "easykey":
		return resolve.SchemeEasyKey, nil
	case "key":
		return resolve.SchemeKey, nil
	case "citekey", "betterbibtexkey":
		return resolve.SchemeCiteKey, nil
	default:
		return 0, fmt.Errorf("unknown scheme %q (want easykey, key or citekey)", s)
	}
}

func runResolve(cmd *cobra.Command, args []string) error {
	schemeName, _ := cmd.Flags().GetString("scheme")
	scheme, err := parseScheme(schemeName)
	if err != nil {
		return err
	}
	formatName, _ := cmd.Flags().GetString("format")
	style, _ := cmd.Flags().GetString("style")
	locale, _ := cmd.Flags().GetString("locale")

	store, cfg, err := openLibrary()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	hs, err := resolve.New(store, cfg.Resolver.MaxConcurrency).ResolveBatch(ctx, args, scheme)
	if err != nil {
		return err
	}
	items, err := store.Items(ctx, hs)
	if err != nil {
		return err
	}

	styles, err := citeproc.Builtin()
	if err != nil {
		return err
	}
	pool := stylepool.New(func(styleURL, loc string) (citeproc.Engine, error) {
		return styles.NewEngine(styleURL, loc, store)
	}, cfg.Styles, stylepool.WithLocaleResolver(styles.CanonicalLocale))
	f := format.New(export.NewRegistry(cfg.Exporters), pool)

	resp, err := f.Format(ctx, items, format.Options{Format: formatName, Style: style, Locale: locale})
	if err != nil {
		return err
	}
	if _, err := os.Stdout.Write(resp.Body); err != nil {
		return err
	}
	fmt.Println()
	return nil
}
