// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package format

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/cite-engine/internal/apperr"
	"github.com/pdiddy/cite-engine/internal/citeproc"
	"github.com/pdiddy/cite-engine/internal/export"
	"github.com/pdiddy/cite-engine/internal/response"
	"github.com/pdiddy/cite-engine/internal/stylepool"
	"github.com/pdiddy/cite-engine/pkg/types"
)

// --- test helpers ---

type mapSource map[string]types.Item

func (m mapSource) ItemsByID(_ context.Context, ids []string) ([]types.Item, error) {
	out := make([]types.Item, len(ids))
	for i, id := range ids {
		it, ok := m[id]
		if !ok {
			return nil, fmt.Errorf("item %s no longer exists", id)
		}
		out[i] = it
	}
	return out, nil
}

func firstBook() types.Item {
	return types.Item{
		Handle:  types.ItemHandle{LibraryID: 1, Key: "ZBZQ4KMP"},
		CiteKey: "doe:2005first",
		CSL: types.CSLItem{
			ID:             "1_ZBZQ4KMP",
			Type:           "book",
			Title:          "First Book",
			Publisher:      "Cambridge University Press",
			PublisherPlace: "Cambridge",
			Author:         []types.CSLName{{Family: "Doe", Given: "John"}},
			Issued:         &types.CSLDate{DateParts: [][]int{{2005}}},
		},
	}
}

func article() types.Item {
	return types.Item{
		Handle:      types.ItemHandle{LibraryID: 1, Key: "4T8MCITQ"},
		CiteKey:     "doe:2006article",
		Attachments: []string{"storage/4T8MCITQ/doe"},
		CSL: types.CSLItem{
			ID:             "1_4T8MCITQ",
			Type:           "article-journal",
			Title:          "Article",
			ContainerTitle: "Journal of Generic Studies",
			Volume:         "6",
			Page:           "33-34",
			Author:         []types.CSLName{{Family: "Doe", Given: "John"}},
			Issued:         &types.CSLDate{DateParts: [][]int{{2006}}},
		},
	}
}

// newFormatter returns a formatter over the builtin styles. created counts
// engines built.
func newFormatter(t *testing.T, betterBibTeX bool, created *int) *Formatter {
	t.Helper()
	r, err := citeproc.Builtin()
	require.NoError(t, err)
	src := mapSource{"1_ZBZQ4KMP": firstBook(), "1_4T8MCITQ": article()}
	pool := stylepool.New(func(u, l string) (citeproc.Engine, error) {
		if created != nil {
			*created++
		}
		return r.NewEngine(u, l, src)
	}, types.StylesConfig{})
	return New(export.NewRegistry(types.ExportersConfig{BetterBibTeX: betterBibTeX}), pool)
}

func format(t *testing.T, f *Formatter, opt Options, items ...types.Item) response.Response {
	t.Helper()
	r, err := f.Format(context.Background(), items, opt)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, r.Status)
	return r
}

// --- tests ---

func TestKeyFormat(t *testing.T) {
	r := format(t, newFormatter(t, false, nil), Options{Format: FormatKey}, firstBook(), article())
	assert.Equal(t, response.ContentTypeJSON, r.ContentType)
	assert.JSONEq(t, `["1_ZBZQ4KMP","1_4T8MCITQ"]`, string(r.Body))
}

func TestEasyKeyFormat(t *testing.T) {
	r := format(t, newFormatter(t, false, nil), Options{Format: FormatEasyKey}, article(), firstBook())
	assert.JSONEq(t, `["doe:2006article","doe:2005first"]`, string(r.Body))
}

func TestCiteKeyFormat(t *testing.T) {
	f := newFormatter(t, true, nil)
	for _, name := range []string{FormatBetterBibTeXKey, FormatCiteKey} {
		r := format(t, f, Options{Format: name}, firstBook(), article())
		assert.JSONEq(t, `["doe:2005first","doe:2006article"]`, string(r.Body), name)
	}
}

func TestCiteKeyFormatWithoutBetterBibTeX(t *testing.T) {
	f := newFormatter(t, false, nil)
	for _, name := range []string{FormatBetterBibTeXKey, FormatCiteKey} {
		_, err := f.Format(context.Background(), []types.Item{firstBook()}, Options{Format: name})
		require.Error(t, err)
		assert.Equal(t, MsgBetterBibTeXMissing, err.Error())
		assert.True(t, apperr.IsClientError(err))
	}
}

func TestBibTeXFormat(t *testing.T) {
	r := format(t, newFormatter(t, false, nil), Options{Format: FormatBibTeX}, firstBook())
	assert.Equal(t, response.ContentTypeText, r.ContentType)
	assert.Contains(t, string(r.Body), "@book{doe:2005first,\n")
}

func TestBibliographyFormat(t *testing.T) {
	r := format(t, newFormatter(t, false, nil), Options{Format: FormatBibliography, Style: "ieee"}, firstBook())

	var entries []BibliographyEntry
	require.NoError(t, json.Unmarshal(r.Body, &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "1_ZBZQ4KMP", entries[0].Key)
	assert.Equal(t, "[1] J. Doe, First Book. Cambridge: Cambridge University Press, 2005.", entries[0].Text)
	assert.Contains(t, entries[0].HTML, `<div class="csl-bib-body"`)
	assert.NotContains(t, entries[0].Text, "\n")
}

func TestBibliographyFormatRendersItemsSeparately(t *testing.T) {
	r := format(t, newFormatter(t, false, nil), Options{Format: FormatBibliography, Style: "ieee"}, firstBook(), article())

	var entries []BibliographyEntry
	require.NoError(t, json.Unmarshal(r.Body, &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "1_4T8MCITQ", entries[1].Key)
	assert.Regexp(t, `^\[1\] J\. Doe, `, entries[1].Text, "each item is numbered alone")
}

func TestBibliographyFormatUnknownStyle(t *testing.T) {
	f := newFormatter(t, false, nil)
	_, err := f.Format(context.Background(), []types.Item{firstBook()}, Options{Format: FormatBibliography, Style: "no-such-style"})
	require.Error(t, err)
	assert.Equal(t, "Style http://www.zotero.org/styles/no-such-style is not installed.", err.Error())
}

func TestQuickBibFormat(t *testing.T) {
	r := format(t, newFormatter(t, false, nil), Options{Format: FormatQuickBib}, article())
	assert.JSONEq(t, `[{"key":"1_4T8MCITQ","quickBib":"Doe, John - 2006 - Article"}]`, string(r.Body))
}

func TestQuickBib(t *testing.T) {
	un := types.Item{CSL: types.CSLItem{
		Title:  "A Wonderful Book",
		Author: []types.CSLName{{Literal: "United Nations"}},
		Issued: &types.CSLDate{DateParts: [][]int{{2005}}},
	}}
	assert.Equal(t, "United Nations - 2005 - A Wonderful Book", QuickBib(un))
	assert.Equal(t, "Untitled", QuickBib(types.Item{CSL: types.CSLItem{Title: "Untitled"}}))
}

func TestPathsFormat(t *testing.T) {
	r := format(t, newFormatter(t, false, nil), Options{Format: FormatPaths}, article(), firstBook())
	assert.JSONEq(t, `[
		{"key":"1_4T8MCITQ","paths":["storage/4T8MCITQ/doe"]},
		{"key":"1_ZBZQ4KMP","paths":[]}
	]`, string(r.Body))
}

func TestExporterIDFormat(t *testing.T) {
	f := newFormatter(t, false, nil)
	r := format(t, f, Options{Format: export.IDBibTeX}, firstBook())
	assert.Equal(t, response.ContentTypeText, r.ContentType)
	assert.Contains(t, string(r.Body), "@book{")

	_, err := f.Format(context.Background(), []types.Item{firstBook()}, Options{Format: export.IDBetterCSL})
	require.Error(t, err)
	assert.Equal(t, "Exporter f4b52ab0-f878-4556-85a0-c7aeedd09dfc is not installed.", err.Error())
	assert.True(t, apperr.IsClientError(err))
}

func TestDefaultJSONFormat(t *testing.T) {
	for _, name := range []string{"", FormatJSON, "no-such-format"} {
		r := format(t, newFormatter(t, false, nil), Options{Format: name}, firstBook())
		assert.Equal(t, response.ContentTypeJSON, r.ContentType)
		var recs []map[string]any
		require.NoError(t, json.Unmarshal(r.Body, &recs), name)
		require.Len(t, recs, 1)
		assert.Equal(t, "1_ZBZQ4KMP", recs[0]["id"])
		assert.NotContains(t, recs[0], "citation-key")
	}

	r := format(t, newFormatter(t, true, nil), Options{Format: FormatJSON}, firstBook())
	var recs []map[string]any
	require.NoError(t, json.Unmarshal(r.Body, &recs))
	assert.Equal(t, "doe:2005first", recs[0]["citation-key"])
}

func TestEmptyItemsShortCircuit(t *testing.T) {
	created := 0
	f := newFormatter(t, true, &created)

	jsonFormats := []string{FormatKey, FormatEasyKey, FormatCiteKey, FormatBibliography, FormatQuickBib, FormatPaths, FormatJSON, ""}
	for _, name := range jsonFormats {
		r := format(t, f, Options{Format: name, Style: "ieee"})
		assert.Equal(t, "[]", string(r.Body), name)
		assert.Equal(t, response.ContentTypeJSON, r.ContentType, name)
	}
	for _, name := range []string{FormatBibTeX, export.IDBibTeX} {
		r := format(t, f, Options{Format: name})
		assert.Empty(t, r.Body, name)
		assert.Equal(t, response.ContentTypeText, r.ContentType, name)
	}
	assert.Zero(t, created, "no style engine for an empty list")
}
