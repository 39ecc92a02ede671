// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package citeproc is a small citation processor. It knows a fixed set of
// styles and locales and follows the stateful engine contract used by
// citation editors: load a working set of items, append citation clusters one
// at a time, then render the bibliography. Engines are not safe for
// concurrent use; callers serialize access (see internal/stylepool).
package citeproc

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"
)

//go:embed styles.yaml
var stylesYAML []byte

//go:embed locales.yaml
var localesYAML []byte

// StyleURLPrefix is the namespace of canonical style ids.
const StyleURLPrefix = "http://www.zotero.org/styles/"

// DefaultLocale is used when a requested locale is not installed.
const DefaultLocale = "en-US"

// ErrStyleNotInstalled is returned by NewEngine for unknown styles.
var ErrStyleNotInstalled = errors.New("style not installed")

// CanonicalStyleURL expands a short style id ("ieee") to its canonical URL.
// URLs are returned unchanged, except that https is folded to http.
func CanonicalStyleURL(id string) string {
	id = strings.TrimSpace(id)
	switch {
	case strings.HasPrefix(id, "http://"):
		return id
	case strings.HasPrefix(id, "https://"):
		return "http://" + strings.TrimPrefix(id, "https://")
	default:
		return StyleURLPrefix + id
	}
}

// Style describes an installed style.
type Style struct {
	ID                string `yaml:"id"`
	Title             string `yaml:"title"`
	Categories        string `yaml:"categories"`
	Citation          string `yaml:"citation"`
	Bibliography      string `yaml:"bibliography"`
	DisambiguateNames bool   `yaml:"disambiguate_names"`
	HangingIndent     bool   `yaml:"hanging_indent"`
}

// StyleInfo is the public description of a style.
type StyleInfo struct {
	StyleID    string `json:"styleID"`
	Title      string `json:"title"`
	Categories string `json:"categories"`
}

// Locale holds the punctuation and terms of one language.
type Locale struct {
	Code               string            `yaml:"code"`
	Name               string            `yaml:"name"`
	OpenQuote          string            `yaml:"open_quote"`
	CloseQuote         string            `yaml:"close_quote"`
	PunctuationInQuote bool              `yaml:"punctuation_in_quote"`
	PageRangeDelimiter string            `yaml:"page_range_delimiter"`
	Terms              map[string]string `yaml:"terms"`
}

// Term returns the named term.
func (l *Locale) Term(name string) string {
	return l.Terms[name]
}

// Registry holds the installed styles and locales.
type Registry struct {
	styles  []Style
	byURL   map[string]*Style
	locales []Locale
	byCode  map[string]*Locale
}

// Builtin returns the registry of styles and locales compiled into the
// binary.
func Builtin() (*Registry, error) {
	var styles []Style
	if err := yaml.Unmarshal(stylesYAML, &styles); err != nil {
		return nil, fmt.Errorf("parsing styles: %w", err)
	}
	var locales []Locale
	if err := yaml.Unmarshal(localesYAML, &locales); err != nil {
		return nil, fmt.Errorf("parsing locales: %w", err)
	}
	return NewRegistry(styles, locales)
}

// NewRegistry builds a registry. One locale must be DefaultLocale; terms
// missing from other locales are filled from it.
func NewRegistry(styles []Style, locales []Locale) (*Registry, error) {
	r := &Registry{
		styles:  styles,
		byURL:   make(map[string]*Style, len(styles)),
		locales: locales,
		byCode:  make(map[string]*Locale, len(locales)),
	}
	for i := range r.styles {
		s := &r.styles[i]
		if _, ok := citationLayouts[s.Citation]; !ok {
			return nil, fmt.Errorf("style %s: unknown citation layout %q", s.ID, s.Citation)
		}
		if _, ok := bibliographyLayouts[s.Bibliography]; !ok {
			return nil, fmt.Errorf("style %s: unknown bibliography layout %q", s.ID, s.Bibliography)
		}
		r.byURL[s.ID] = s
	}
	for i := range r.locales {
		r.byCode[r.locales[i].Code] = &r.locales[i]
	}

	base, ok := r.byCode[DefaultLocale]
	if !ok {
		return nil, fmt.Errorf("locale %s is required", DefaultLocale)
	}
	for i := range r.locales {
		l := &r.locales[i]
		if l.Terms == nil {
			l.Terms = make(map[string]string, len(base.Terms))
		}
		for k, v := range base.Terms {
			if _, ok := l.Terms[k]; !ok {
				l.Terms[k] = v
			}
		}
		if l.PageRangeDelimiter == "" {
			l.PageRangeDelimiter = base.PageRangeDelimiter
		}
	}
	return r, nil
}

// Style returns the style with the given canonical URL.
func (r *Registry) Style(url string) (*Style, bool) {
	s, ok := r.byURL[url]
	return s, ok
}

// Styles lists installed styles in title order.
func (r *Registry) Styles() []StyleInfo {
	out := make([]StyleInfo, 0, len(r.styles))
	for _, s := range r.styles {
		out = append(out, StyleInfo{StyleID: s.ID, Title: s.Title, Categories: s.Categories})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out
}

// Locales maps each installed locale code to its display name.
func (r *Registry) Locales() map[string]string {
	out := make(map[string]string, len(r.locales))
	for _, l := range r.locales {
		out[l.Code] = l.Name
	}
	return out
}

// Locale returns the best installed match for code: an exact match, then a
// locale of the same language, then DefaultLocale.
func (r *Registry) Locale(code string) *Locale {
	if l, ok := r.byCode[code]; ok {
		return l
	}
	lang, _, _ := strings.Cut(strings.ReplaceAll(code, "_", "-"), "-")
	if lang != "" {
		for i := range r.locales {
			if l, _, _ := strings.Cut(r.locales[i].Code, "-"); strings.EqualFold(l, lang) {
				return &r.locales[i]
			}
		}
	}
	return r.byCode[DefaultLocale]
}

// CanonicalLocale returns the code of the installed locale that Locale
// picks for code.
func (r *Registry) CanonicalLocale(code string) string {
	return r.Locale(code).Code
}

// NewEngine creates an engine for the style with canonical URL styleURL.
func (r *Registry) NewEngine(styleURL, locale string, src ItemSource) (Engine, error) {
	s, ok := r.Style(styleURL)
	if !ok {
		return nil, fmt.Errorf("%s: %w", styleURL, ErrStyleNotInstalled)
	}
	return newEngine(s, r.Locale(locale), src), nil
}
