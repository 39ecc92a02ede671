// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/cite-engine/pkg/types"
)

// CSLJSON writes items as a CSL-JSON array. With CitationKeys set it also
// fills "citation-key" and registers under the citation-key JSON id.
type CSLJSON struct {
	CitationKeys bool
}

func (e CSLJSON) ID() string {
	if e.CitationKeys {
		return IDBetterCSL
	}
	return IDCSLJSON
}

func (e CSLJSON) Label() string {
	if e.CitationKeys {
		return "Better CSL JSON"
	}
	return "CSL JSON"
}

func (e CSLJSON) Export(_ context.Context, items []types.Item) ([]byte, error) {
	data, err := json.MarshalIndent(cslRecords(items, e.CitationKeys), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding CSL-JSON: %w", err)
	}
	return data, nil
}

// CSLYAML writes items as a CSL-YAML list, the form Pandoc reads as a
// bibliography file.
type CSLYAML struct{}

func (CSLYAML) ID() string    { return IDCSLYAML }
func (CSLYAML) Label() string { return "CSL YAML" }

func (CSLYAML) Export(_ context.Context, items []types.Item) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(map[string]any{"references": cslRecords(items, true)}); err != nil {
		return nil, fmt.Errorf("encoding CSL-YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding CSL-YAML: %w", err)
	}
	return buf.Bytes(), nil
}

// cslRecords returns the CSL records of items with ids set to the
// library-qualified key. citationKeys controls whether "citation-key" is
// carried.
func cslRecords(items []types.Item, citationKeys bool) []types.CSLItem {
	out := make([]types.CSLItem, len(items))
	for i, it := range items {
		rec := it.CSL
		rec.ID = it.Handle.String()
		rec.CitationKey = ""
		if citationKeys {
			rec.CitationKey = it.CiteKey
		}
		out[i] = rec
	}
	return out
}
