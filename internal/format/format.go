// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package format renders a list of library items in the output format a
// request names: key lists, exporter output, per-item bibliographies or
// the default structured JSON.
package format

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/cite-engine/internal/apperr"
	"github.com/pdiddy/cite-engine/internal/citeproc"
	"github.com/pdiddy/cite-engine/internal/export"
	"github.com/pdiddy/cite-engine/internal/response"
	"github.com/pdiddy/cite-engine/internal/stylepool"
	"github.com/pdiddy/cite-engine/pkg/types"
)

// Format names accepted by Formatter.Format.
const (
	FormatKey             = "key"
	FormatEasyKey         = "easykey"
	FormatBetterBibTeXKey = "betterbibtexkey"
	FormatCiteKey         = "citekey"
	FormatBibTeX          = "bibtex"
	FormatBibliography    = "bibliography"
	FormatQuickBib        = "quickBib"
	FormatPaths           = "paths"
	FormatJSON            = "json"
)

// MsgBetterBibTeXMissing is returned for citation-key formats when the
// citation-key exporter is not installed.
const MsgBetterBibTeXMissing = "BetterBibTex not installed."

// Options selects the output of one request.
type Options struct {
	Format string
	Style  string
	Locale string
}

// Formatter renders item lists.
type Formatter struct {
	exporters *export.Registry
	pool      *stylepool.Pool
}

// New returns a Formatter.
func New(exporters *export.Registry, pool *stylepool.Pool) *Formatter {
	return &Formatter{exporters: exporters, pool: pool}
}

// BibliographyEntry is one item of the bibliography format.
type BibliographyEntry struct {
	Key  string `json:"key"`
	HTML string `json:"html"`
	Text string `json:"text"`
}

// QuickBibEntry is one item of the quickBib format.
type QuickBibEntry struct {
	Key      string `json:"key"`
	QuickBib string `json:"quickBib"`
}

// PathsEntry is one item of the paths format.
type PathsEntry struct {
	Key   string   `json:"key"`
	Paths []string `json:"paths"`
}

// Format renders items as opt.Format names. An empty item list never
// reaches an exporter or style engine.
func (f *Formatter) Format(ctx context.Context, items []types.Item, opt Options) (response.Response, error) {
	switch opt.Format {
	case FormatKey:
		if len(items) == 0 {
			return emptyJSON(), nil
		}
		keys := make([]string, len(items))
		for i, it := range items {
			keys[i] = it.Handle.String()
		}
		return response.JSON(keys)

	case FormatEasyKey:
		return f.keys(ctx, items, export.IDEasyKey)

	case FormatBetterBibTeXKey, FormatCiteKey:
		if !f.exporters.Installed(export.IDBetterCiteKeys) {
			return response.Response{}, apperr.UserInput(MsgBetterBibTeXMissing)
		}
		return f.keys(ctx, items, export.IDBetterCiteKeys)

	case FormatBibTeX:
		return f.text(ctx, items, export.IDBibTeX)

	case FormatBibliography:
		if len(items) == 0 {
			return emptyJSON(), nil
		}
		return f.bibliography(ctx, items, opt)

	case FormatQuickBib:
		if len(items) == 0 {
			return emptyJSON(), nil
		}
		out := make([]QuickBibEntry, len(items))
		for i, it := range items {
			out[i] = QuickBibEntry{Key: it.Handle.String(), QuickBib: QuickBib(it)}
		}
		return response.JSON(out)

	case FormatPaths:
		if len(items) == 0 {
			return emptyJSON(), nil
		}
		out := make([]PathsEntry, len(items))
		for i, it := range items {
			paths := it.Attachments
			if paths == nil {
				paths = []string{}
			}
			out[i] = PathsEntry{Key: it.Handle.String(), Paths: paths}
		}
		return response.JSON(out)
	}

	if export.IsExporterID(opt.Format) {
		if !f.exporters.Installed(opt.Format) {
			return response.Response{}, apperr.UserInput(fmt.Sprintf("Exporter %s is not installed.", opt.Format))
		}
		return f.text(ctx, items, opt.Format)
	}

	id := export.IDCSLJSON
	if f.exporters.Installed(export.IDBetterCSL) {
		id = export.IDBetterCSL
	}
	if len(items) == 0 {
		return emptyJSON(), nil
	}
	body, err := f.run(ctx, items, id)
	if err != nil {
		return response.Response{}, err
	}
	return response.RawJSON(body), nil
}

// keys runs a key exporter and returns its keys as a JSON array.
func (f *Formatter) keys(ctx context.Context, items []types.Item, id string) (response.Response, error) {
	if len(items) == 0 {
		return emptyJSON(), nil
	}
	raw, err := f.run(ctx, items, id)
	if err != nil {
		return response.Response{}, err
	}
	return response.JSON(export.SplitKeys(raw))
}

// text returns an exporter's output verbatim as plain text.
func (f *Formatter) text(ctx context.Context, items []types.Item, id string) (response.Response, error) {
	if len(items) == 0 {
		return response.Text(nil), nil
	}
	body, err := f.run(ctx, items, id)
	if err != nil {
		return response.Response{}, err
	}
	return response.Text(body), nil
}

func (f *Formatter) run(ctx context.Context, items []types.Item, id string) ([]byte, error) {
	e, ok := f.exporters.Lookup(id)
	if !ok {
		return nil, apperr.UserInput(fmt.Sprintf("Exporter %s is not installed.", id))
	}
	out, err := e.Export(ctx, items)
	if err != nil {
		return nil, apperr.Unexpected(fmt.Errorf("%s export: %w", e.Label(), err))
	}
	return out, nil
}

// bibliography renders each item on its own under one lease: the engine is
// loaded with that item alone, then formatted as HTML and as text.
func (f *Formatter) bibliography(ctx context.Context, items []types.Item, opt Options) (response.Response, error) {
	out := make([]BibliographyEntry, 0, len(items))
	err := f.pool.Do(ctx, opt.Style, opt.Locale, func(e citeproc.Engine) error {
		for _, it := range items {
			key := it.Handle.String()
			if err := e.UpdateItems(ctx, []string{key}); err != nil {
				return apperr.Unexpected(err)
			}
			html, err := e.FormattedBibliography(citeproc.FormatHTML)
			if err != nil {
				return apperr.Unexpected(err)
			}
			text, err := e.FormattedBibliography(citeproc.FormatText)
			if err != nil {
				return apperr.Unexpected(err)
			}
			out = append(out, BibliographyEntry{Key: key, HTML: html, Text: stripNewlines(text)})
		}
		return nil
	})
	if err != nil {
		return response.Response{}, err
	}
	return response.JSON(out)
}

// QuickBib returns a one-line summary, "Doe, John - 2006 - Article".
func QuickBib(it types.Item) string {
	var parts []string
	if cs := it.CSL.Creators(); len(cs) > 0 {
		c := cs[0]
		switch {
		case c.Family != "" && c.Given != "":
			parts = append(parts, c.Family+", "+c.Given)
		case c.FamilyOrLiteral() != "":
			parts = append(parts, c.FamilyOrLiteral())
		}
	}
	if y := it.Year(); y != "" {
		parts = append(parts, y)
	}
	if it.CSL.Title != "" {
		parts = append(parts, it.CSL.Title)
	}
	return strings.Join(parts, " - ")
}

func stripNewlines(s string) string {
	return strings.NewReplacer("\r\n", "", "\n", "", "\r", "").Replace(s)
}

func emptyJSON() response.Response {
	return response.RawJSON([]byte("[]"))
}
