// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export turns library items into interchange formats. Each
// exporter is addressed by a translator UUID so that clients can request
// any installed exporter by id.
package export

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/pdiddy/cite-engine/pkg/types"
)

// Built-in exporter ids.
const (
	IDBibTeX         = "9cb70025-a888-4a29-a210-93ec52da40d4"
	IDCSLJSON        = "bc03b4fe-436d-4a1f-ba59-de4d2d7a63f7"
	IDBetterCSL      = "f4b52ab0-f878-4556-85a0-c7aeedd09dfc"
	IDCSLYAML        = "0f4a8b21-7c3e-4d55-9a61-2b8e5c1d7f30"
	IDEasyKey        = "9d774afe-a51d-4055-a6c7-23bc96d19fe7"
	IDBetterCiteKeys = "a515a220-6fef-45ea-9842-8025dfebcc8f"
)

// Exporter serializes a list of items.
type Exporter interface {
	ID() string
	Label() string
	Export(ctx context.Context, items []types.Item) ([]byte, error)
}

// Registry holds the installed exporters.
type Registry struct {
	byID map[string]Exporter
}

// NewRegistry returns a registry holding the built-in exporters. The
// citation-key exporters are installed only when cfg enables them.
func NewRegistry(cfg types.ExportersConfig) *Registry {
	r := &Registry{byID: make(map[string]Exporter)}
	r.Register(BibTeX{})
	r.Register(CSLJSON{})
	r.Register(CSLYAML{})
	r.Register(EasyKeys{})
	if cfg.BetterBibTeX {
		r.Register(CSLJSON{CitationKeys: true})
		r.Register(CiteKeys{})
	}
	return r
}

// Register installs e, replacing any exporter with the same id.
func (r *Registry) Register(e Exporter) {
	r.byID[strings.ToLower(e.ID())] = e
}

// Lookup returns the exporter with id. Ids compare case-insensitively.
func (r *Registry) Lookup(id string) (Exporter, bool) {
	e, ok := r.byID[strings.ToLower(id)]
	return e, ok
}

// Installed reports whether the exporter with id is registered.
func (r *Registry) Installed(id string) bool {
	_, ok := r.Lookup(id)
	return ok
}

// Exporters returns the installed exporters sorted by label.
func (r *Registry) Exporters() []Exporter {
	out := make([]Exporter, 0, len(r.byID))
	for _, e := range r.byID {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label() < out[j].Label() })
	return out
}

// IsExporterID reports whether s has the shape of an exporter id.
func IsExporterID(s string) bool {
	return uuid.Validate(s) == nil && len(s) == 36
}
