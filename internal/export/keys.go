// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"context"
	"strings"

	"github.com/pdiddy/cite-engine/internal/easykey"
	"github.com/pdiddy/cite-engine/pkg/types"
)

// EasyKeys writes the easy key of each item as a Pandoc citation,
// "@doe:2005first @doe:2006article".
type EasyKeys struct{}

func (EasyKeys) ID() string    { return IDEasyKey }
func (EasyKeys) Label() string { return "Easy Citekey" }

func (EasyKeys) Export(_ context.Context, items []types.Item) ([]byte, error) {
	keys := make([]string, len(items))
	for i, it := range items {
		keys[i] = "@" + easykey.Generate(it)
	}
	return []byte(strings.Join(keys, " ")), nil
}

// CiteKeys writes the citation keys of items as one bracketed Pandoc
// citation, "[@doe:2005first, @doe:2006article]". Items without a stored
// key use their easy key.
type CiteKeys struct{}

func (CiteKeys) ID() string    { return IDBetterCiteKeys }
func (CiteKeys) Label() string { return "Better BibTeX Citation Key Quick Copy" }

func (CiteKeys) Export(_ context.Context, items []types.Item) ([]byte, error) {
	keys := make([]string, len(items))
	for i, it := range items {
		k := it.CiteKey
		if k == "" {
			k = easykey.Generate(it)
		}
		keys[i] = "@" + k
	}
	return []byte("[" + strings.Join(keys, ", ") + "]"), nil
}

// SplitKeys splits exporter key output into bare keys: runs of whitespace
// and commas separate keys, and "[", "]" and "@" are removed.
func SplitKeys(raw []byte) []string {
	fields := strings.FieldsFunc(string(raw), func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Map(func(r rune) rune {
			if r == '[' || r == ']' || r == '@' {
				return -1
			}
			return r
		}, f)
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
