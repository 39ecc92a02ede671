// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package citation resolves the citation groups of a bibliography request
// and assembles citation clusters and the bibliography through a leased
// style engine.
package citation

import (
	"context"
	"fmt"
	"maps"

	"github.com/pdiddy/cite-engine/internal/apperr"
	"github.com/pdiddy/cite-engine/internal/citeproc"
	"github.com/pdiddy/cite-engine/internal/resolve"
	"github.com/pdiddy/cite-engine/internal/stylepool"
	"github.com/pdiddy/cite-engine/pkg/types"
)

// referenceFields lists the key fields of a citation item in preference
// order, with the scheme each is resolved under.
var referenceFields = []struct {
	name   string
	scheme resolve.Scheme
}{
	{types.CitationFieldEasyKey, resolve.SchemeEasyKey},
	{types.CitationFieldKey, resolve.SchemeKey},
	{types.CitationFieldCiteKey, resolve.SchemeCiteKey},
}

// Resolver resolves a mixed-scheme batch in input order.
type Resolver interface {
	ResolveAll(ctx context.Context, reqs []resolve.Request) ([]types.ItemHandle, error)
}

// Service handles bibliography requests.
type Service struct {
	resolver Resolver
	pool     *stylepool.Pool
}

// New returns a Service.
func New(resolver Resolver, pool *stylepool.Pool) *Service {
	return &Service{resolver: resolver, pool: pool}
}

// Process resolves every citation item of every group. All lookups run
// concurrently; the result keeps group and item order. A resolved item
// keeps its caller properties, gains "id" and loses its key fields. Items
// without a key field are copied unchanged. The first failure in (group,
// item) order is returned.
func (s *Service) Process(ctx context.Context, groups []types.CitationGroup) ([]types.CitationGroup, error) {
	type slot struct{ group, item int }
	var (
		reqs  []resolve.Request
		slots []slot
	)
	for gi, g := range groups {
		for ii, ci := range g.CitationItems {
			for _, f := range referenceFields {
				if raw, ok := ci.StringField(f.name); ok {
					reqs = append(reqs, resolve.Request{Raw: raw, Scheme: f.scheme})
					slots = append(slots, slot{gi, ii})
					break
				}
			}
		}
	}

	handles, err := s.resolver.ResolveAll(ctx, reqs)
	if err != nil {
		return nil, err
	}

	out := make([]types.CitationGroup, len(groups))
	for gi, g := range groups {
		items := make([]types.CitationItem, len(g.CitationItems))
		for ii, ci := range g.CitationItems {
			items[ii] = maps.Clone(ci)
		}
		out[gi] = types.CitationGroup{CitationItems: items, Properties: maps.Clone(g.Properties)}
	}
	for i, sl := range slots {
		ci := out[sl.group].CitationItems[sl.item]
		for _, f := range referenceFields {
			delete(ci, f.name)
		}
		ci[types.CitationFieldID] = handles[i].String()
	}
	return out, nil
}

// Bibliography resolves req's citation groups and renders them under an
// exclusive lease on the engine for req's style and locale: the engine is
// loaded with exactly the cited items, each group is appended as a cluster
// in request order, then the bibliography is made. Cluster output is
// written at the positions the engine reports; positions it never reports
// stay nil.
func (s *Service) Bibliography(ctx context.Context, req types.BibliographyRequest) (types.BibliographyResult, error) {
	groups, err := s.Process(ctx, req.CitationGroups)
	if err != nil {
		return types.BibliographyResult{}, err
	}
	ids, err := citedIDs(groups)
	if err != nil {
		return types.BibliographyResult{}, err
	}

	lease, err := s.pool.Acquire(ctx, req.StyleID, req.Locale)
	if err != nil {
		return types.BibliographyResult{}, err
	}
	defer lease.Release()

	return assemble(ctx, lease.Engine(), ids, groups)
}

func assemble(ctx context.Context, e citeproc.Engine, ids []string, groups []types.CitationGroup) (types.BibliographyResult, error) {
	e.SetOutputFormat(citeproc.FormatHTML)
	if err := e.UpdateItems(ctx, ids); err != nil {
		return types.BibliographyResult{}, apperr.Unexpected(err)
	}

	clusters := []*string{}
	for i, g := range groups {
		updates, err := e.AppendCitationCluster(g)
		if err != nil {
			return types.BibliographyResult{}, apperr.Unexpected(fmt.Errorf("citation group %d: %w", i, err))
		}
		for _, u := range updates {
			if u.Position < 0 {
				return types.BibliographyResult{}, apperr.Unexpected(fmt.Errorf("engine reported position %d", u.Position))
			}
			for len(clusters) <= u.Position {
				clusters = append(clusters, nil)
			}
			text := u.Text
			clusters[u.Position] = &text
		}
	}

	bib, err := e.MakeBibliography()
	if err != nil {
		return types.BibliographyResult{}, apperr.Unexpected(err)
	}
	return types.BibliographyResult{Bibliography: bib, CitationClusters: clusters}, nil
}

// citedIDs returns the distinct item ids of groups in first-seen order.
func citedIDs(groups []types.CitationGroup) ([]string, error) {
	var ids []string
	seen := make(map[string]bool)
	for gi, g := range groups {
		for ii, ci := range g.CitationItems {
			id := ci.ID()
			if id == "" {
				return nil, apperr.UserInput(fmt.Sprintf("citation item %d of group %d has no easyKey, key, citekey or id", ii, gi))
			}
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}
