// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Reference fields a CitationItem may carry, in resolution preference order.
const (
	CitationFieldEasyKey = "easyKey"
	CitationFieldKey     = "key"
	CitationFieldCiteKey = "citekey"
	CitationFieldID      = "id"
)

// CitationItem is one reference inside a citation group. Besides the
// reference field it may carry arbitrary caller properties (locator, prefix,
// suffix, ...) which are preserved verbatim.
type CitationItem map[string]any

// StringField returns the named field if it is a non-empty string.
func (ci CitationItem) StringField(name string) (string, bool) {
	v, ok := ci[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// ID returns the resolved item id, if present.
func (ci CitationItem) ID() string {
	switch v := ci[CitationFieldID].(type) {
	case string:
		return v
	default:
		return ""
	}
}

// CitationGroup is an ordered set of citation items sharing rendering
// context, typically one footnote or one in-text cluster.
type CitationGroup struct {
	CitationItems []CitationItem `json:"citationItems"`
	Properties    map[string]any `json:"properties"`
}

// BibliographyRequest is the body of a bibliography request.
type BibliographyRequest struct {
	StyleID        string          `json:"styleId"`
	Locale         string          `json:"locale,omitempty"`
	CitationGroups []CitationGroup `json:"citationGroups"`
}

// BibliographyResult is the response of a bibliography request.
// CitationClusters is indexed by the positions reported by the style engine;
// positions never written are null.
type BibliographyResult struct {
	Bibliography     any       `json:"bibliography"`
	CitationClusters []*string `json:"citationClusters"`
}
