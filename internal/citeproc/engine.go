// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package citeproc

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/cite-engine/internal/easykey"
	"github.com/pdiddy/cite-engine/pkg/types"
)

// ItemSource loads item records by id ("<libraryID>_<KEY>").
type ItemSource interface {
	ItemsByID(ctx context.Context, ids []string) ([]types.Item, error)
}

// ClusterUpdate is a rendered citation cluster at its position in the
// document.
type ClusterUpdate struct {
	Position int
	Text     string
}

// BibliographyParams describes how bibliography entries are laid out.
type BibliographyParams struct {
	MaxOffset        int        `json:"maxoffset"`
	EntrySpacing     int        `json:"entryspacing"`
	LineSpacing      int        `json:"linespacing"`
	HangingIndent    int        `json:"hangingindent"`
	SecondFieldAlign any        `json:"second-field-align"`
	BibStart         string     `json:"bibstart"`
	BibEnd           string     `json:"bibend"`
	EntryIDs         [][]string `json:"entry_ids"`
}

// Bibliography is a rendered bibliography. It encodes as the two-element
// array [params, entries].
type Bibliography struct {
	Params  BibliographyParams
	Entries []string
}

func (b Bibliography) MarshalJSON() ([]byte, error) {
	entries := b.Entries
	if entries == nil {
		entries = []string{}
	}
	return json.Marshal([]any{b.Params, entries})
}

// Engine is a stateful citation processor bound to one style and locale.
// UpdateItems resets the engine: it replaces the working set and forgets
// previously appended clusters.
type Engine interface {
	SetOutputFormat(f OutputFormat)
	UpdateItems(ctx context.Context, ids []string) error
	AppendCitationCluster(cluster types.CitationGroup) ([]ClusterUpdate, error)
	MakeBibliography() (Bibliography, error)
	FormattedBibliography(f OutputFormat) (string, error)
}

type engine struct {
	style  *Style
	locale *Locale
	src    ItemSource
	format OutputFormat

	ids        []string
	items      map[string]types.Item
	forms      map[string][]givenForm
	yearSuffix map[string]string

	clusters []types.CitationGroup
	rendered []string
}

func newEngine(s *Style, l *Locale, src ItemSource) *engine {
	return &engine{style: s, locale: l, src: src, format: FormatHTML}
}

func (e *engine) SetOutputFormat(f OutputFormat) {
	if f != e.format {
		e.format = f
		e.rendered = nil
	}
}

func (e *engine) UpdateItems(ctx context.Context, ids []string) error {
	items, err := e.src.ItemsByID(ctx, ids)
	if err != nil {
		return fmt.Errorf("loading items: %w", err)
	}

	e.ids = e.ids[:0]
	e.items = make(map[string]types.Item, len(items))
	for i, it := range items {
		id := ids[i]
		it.CSL.ID = id
		if _, dup := e.items[id]; dup {
			continue
		}
		e.ids = append(e.ids, id)
		e.items[id] = it
	}
	e.clusters = nil
	e.rendered = nil
	e.disambiguate()
	return nil
}

// disambiguate computes given-name forms and year suffixes for the working
// set.
func (e *engine) disambiguate() {
	e.forms = nil
	e.yearSuffix = make(map[string]string)
	if !e.style.DisambiguateNames {
		return
	}

	loaded := e.loaded()
	e.forms = disambiguateNames(loaded)

	// Items whose citation still reads the same get a, b, c... in
	// bibliography order.
	w := writer{format: FormatText, loc: e.locale}
	groups := make(map[string][]string)
	for _, it := range e.sorted() {
		c := cite{item: it, forms: e.forms[it.CSL.ID]}
		key := easykey.Fold(strings.Join(citeNames(c), "|")) + "|" + year(w, it, "")
		groups[key] = append(groups[key], it.CSL.ID)
	}
	for _, ids := range groups {
		if len(ids) < 2 {
			continue
		}
		for i, id := range ids {
			e.yearSuffix[id] = string(rune('a' + i%26))
		}
	}
}

func (e *engine) loaded() []types.Item {
	out := make([]types.Item, len(e.ids))
	for i, id := range e.ids {
		out[i] = e.items[id]
	}
	return out
}

// sorted returns the working set in bibliography order: by creator, year
// and title, or by citation number for numeric styles.
func (e *engine) sorted() []types.Item {
	items := e.loaded()
	if e.style.Citation == "numeric" {
		numbers := e.numbers()
		sort.SliceStable(items, func(i, j int) bool {
			return numbers[items[i].CSL.ID] < numbers[items[j].CSL.ID]
		})
		return items
	}
	key := func(it types.Item) string {
		var parts []string
		for _, n := range it.CSL.Creators() {
			parts = append(parts, n.FamilyOrLiteral(), n.Given)
		}
		if len(parts) == 0 {
			parts = append(parts, it.CSL.Title)
		}
		return easykey.Fold(strings.Join(parts, " ")) + "\x00" + it.Year() + "\x00" + easykey.Fold(it.CSL.Title)
	}
	sort.SliceStable(items, func(i, j int) bool { return key(items[i]) < key(items[j]) })
	return items
}

// numbers assigns citation numbers in order of first citation; uncited
// items follow in load order.
func (e *engine) numbers() map[string]int {
	numbers := make(map[string]int, len(e.ids))
	next := 1
	assign := func(id string) {
		if _, ok := e.items[id]; !ok {
			return
		}
		if _, ok := numbers[id]; !ok {
			numbers[id] = next
			next++
		}
	}
	for _, cl := range e.clusters {
		for _, ci := range cl.CitationItems {
			assign(ci.ID())
		}
	}
	for _, id := range e.ids {
		assign(id)
	}
	return numbers
}

func (e *engine) AppendCitationCluster(cluster types.CitationGroup) ([]ClusterUpdate, error) {
	for _, ci := range cluster.CitationItems {
		id := ci.ID()
		if id == "" {
			return nil, fmt.Errorf("citation item has no id")
		}
		if _, ok := e.items[id]; !ok {
			return nil, fmt.Errorf("item %s is not loaded", id)
		}
	}
	e.clusters = append(e.clusters, cluster)

	texts := e.renderClusters()
	var updates []ClusterUpdate
	for i, t := range texts {
		if i < len(e.rendered) && e.rendered[i] == t {
			continue
		}
		updates = append(updates, ClusterUpdate{Position: i, Text: t})
	}
	e.rendered = texts
	return updates, nil
}

// renderClusters renders every appended cluster in order. Numbering and
// ibid tracking depend on all earlier clusters, so later appends can change
// earlier output.
func (e *engine) renderClusters() []string {
	w := writer{format: e.format, loc: e.locale}
	layout := citationLayouts[e.style.Citation]
	numbers := e.numbers()
	seen := make(map[string]bool)

	var prev []string
	out := make([]string, len(e.clusters))
	for i, cl := range e.clusters {
		cites := make([]cite, len(cl.CitationItems))
		ids := make([]string, len(cl.CitationItems))
		for j, ci := range cl.CitationItems {
			id := ci.ID()
			ids[j] = id
			c := cite{
				item:           e.items[id],
				forms:          e.forms[id],
				yearSuffix:     e.yearSuffix[id],
				number:         numbers[id],
				locator:        stringProp(ci, "locator"),
				prefix:         stringProp(ci, "prefix"),
				suffix:         stringProp(ci, "suffix"),
				suppressAuthor: boolProp(ci, "suppress-author"),
			}
			switch {
			case !seen[id]:
				c.position = positionFirst
			case j == 0 && len(prev) == 1 && prev[0] == id:
				c.position = positionIbid
			case j > 0 && ids[j-1] == id:
				c.position = positionIbid
			default:
				c.position = positionSubsequent
			}
			seen[id] = true
			cites[j] = c
		}
		out[i] = layout(w, cites)
		prev = ids
	}
	return out
}

func (e *engine) MakeBibliography() (Bibliography, error) {
	w := writer{format: e.format, loc: e.locale}
	items := e.sorted()

	params := BibliographyParams{
		EntrySpacing: 0,
		LineSpacing:  0,
		BibStart:     "<div class=\"csl-bib-body\">\n",
		BibEnd:       "</div>",
		EntryIDs:     make([][]string, len(items)),
	}
	if e.style.HangingIndent {
		params.HangingIndent = 2
	}
	if e.style.Citation == "numeric" {
		params.SecondFieldAlign = "flush"
		params.MaxOffset = len(fmt.Sprintf("[%d]", len(items)))
	} else {
		params.SecondFieldAlign = false
	}

	entries := make([]string, len(items))
	for i, it := range items {
		params.EntryIDs[i] = []string{it.CSL.ID}
		entries[i] = e.entry(w, it, i+1)
	}
	if w.format == FormatHTML {
		for i, s := range entries {
			entries[i] = "  <div class=\"csl-entry\">" + s + "</div>\n"
		}
	}
	return Bibliography{Params: params, Entries: entries}, nil
}

func (e *engine) entry(w writer, it types.Item, number int) string {
	body := bibliographyLayouts[e.style.Bibliography](w, it, e.yearSuffix[it.CSL.ID])
	if e.style.Citation == "numeric" {
		return "[" + fmt.Sprint(number) + "] " + body
	}
	return body
}

func (e *engine) FormattedBibliography(f OutputFormat) (string, error) {
	saved := e.format
	e.format = f
	defer func() { e.format = saved }()

	b, err := e.MakeBibliography()
	if err != nil {
		return "", err
	}
	if f == FormatText {
		var sb strings.Builder
		for _, s := range b.Entries {
			sb.WriteString(s)
			sb.WriteString("\n")
		}
		return sb.String(), nil
	}

	style := ""
	if e.style.HangingIndent {
		style = ` style="line-height: 1.35; margin-left: 2em; text-indent:-2em;"`
	}
	var sb strings.Builder
	sb.WriteString(`<div class="csl-bib-body"` + style + ">\n")
	for _, s := range b.Entries {
		sb.WriteString(s)
	}
	sb.WriteString("</div>")
	return sb.String(), nil
}

func stringProp(ci types.CitationItem, name string) string {
	switch v := ci[name].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprint(v)
	case int:
		return fmt.Sprint(v)
	default:
		return ""
	}
}

func boolProp(ci types.CitationItem, name string) bool {
	v, _ := ci[name].(bool)
	return v
}
