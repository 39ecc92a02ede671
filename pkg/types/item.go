// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for cite-engine.
// Implements: item identity (ItemHandle, Item), CSL records (CSLItem),
//
//	citation requests (CitationGroup, CitationItem),
//	configuration (Config and its sections).
package types

import (
	"fmt"
	"strconv"
	"strings"
)

// ItemHandle identifies one bibliographic record in the library. Handles are
// produced by the library store; callers never build them from request input.
type ItemHandle struct {
	LibraryID int64  `json:"libraryID" yaml:"library_id"`
	Key       string `json:"key" yaml:"key"`
}

// String returns the library-qualified key, e.g. "1_ZBZQ4KMP".
func (h ItemHandle) String() string {
	return fmt.Sprintf("%d_%s", h.LibraryID, h.Key)
}

// IsZero reports whether h is the zero handle.
func (h ItemHandle) IsZero() bool {
	return h.LibraryID == 0 && h.Key == ""
}

// SplitLibraryKey splits a library-qualified key ("1_ABCD1234") into its
// library id and item key. A key without a numeric library prefix returns
// libraryID 0 and the key unchanged, meaning "any library".
func SplitLibraryKey(s string) (int64, string) {
	s = strings.TrimSpace(s)
	idx := strings.Index(s, "_")
	if idx <= 0 {
		return 0, s
	}
	id, err := strconv.ParseInt(s[:idx], 10, 64)
	if err != nil {
		return 0, s
	}
	return id, s[idx+1:]
}

// Item is a full bibliographic record as stored in the library.
type Item struct {
	Handle ItemHandle `json:"handle" yaml:"handle"`

	// CSL is the record in CSL-JSON form.
	CSL CSLItem `json:"csl" yaml:"csl"`

	// CiteKey is the third-party citation key (BetterBibTeX style), if any.
	CiteKey string `json:"citekey,omitempty" yaml:"citekey,omitempty"`

	// Attachments lists local file paths attached to the item.
	Attachments []string `json:"attachments,omitempty" yaml:"attachments,omitempty"`
}

// Year returns the four-digit issued year, or "" when unknown.
func (it Item) Year() string {
	if it.CSL.Issued == nil || len(it.CSL.Issued.DateParts) == 0 || len(it.CSL.Issued.DateParts[0]) == 0 {
		return ""
	}
	return fmt.Sprintf("%04d", it.CSL.Issued.DateParts[0][0])
}

// CSLItem represents a bibliographic entry in CSL (Citation Style Language)
// format. The field names and structure follow the CSL-JSON/CSL-YAML schema
// so that output is consumable by Pandoc and reference managers.
type CSLItem struct {
	ID             string    `json:"id" yaml:"id"`
	Type           string    `json:"type" yaml:"type"`
	CitationKey    string    `json:"citation-key,omitempty" yaml:"citation-key,omitempty"`
	Title          string    `json:"title,omitempty" yaml:"title,omitempty"`
	TitleShort     string    `json:"title-short,omitempty" yaml:"title-short,omitempty"`
	ContainerTitle string    `json:"container-title,omitempty" yaml:"container-title,omitempty"`
	Publisher      string    `json:"publisher,omitempty" yaml:"publisher,omitempty"`
	PublisherPlace string    `json:"publisher-place,omitempty" yaml:"publisher-place,omitempty"`
	EventPlace     string    `json:"event-place,omitempty" yaml:"event-place,omitempty"`
	Volume         string    `json:"volume,omitempty" yaml:"volume,omitempty"`
	Issue          string    `json:"issue,omitempty" yaml:"issue,omitempty"`
	Page           string    `json:"page,omitempty" yaml:"page,omitempty"`
	Author         []CSLName `json:"author,omitempty" yaml:"author,omitempty"`
	Editor         []CSLName `json:"editor,omitempty" yaml:"editor,omitempty"`
	Issued         *CSLDate  `json:"issued,omitempty" yaml:"issued,omitempty"`
	Abstract       string    `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	Note           string    `json:"note,omitempty" yaml:"note,omitempty"`
	DOI            string    `json:"DOI,omitempty" yaml:"DOI,omitempty"`
	URL            string    `json:"URL,omitempty" yaml:"URL,omitempty"`
}

// Creators returns authors, falling back to editors when there are none.
func (c CSLItem) Creators() []CSLName {
	if len(c.Author) > 0 {
		return c.Author
	}
	return c.Editor
}

// CSLName represents a person's name in CSL format.
type CSLName struct {
	Family  string `json:"family,omitempty" yaml:"family,omitempty"`
	Given   string `json:"given,omitempty" yaml:"given,omitempty"`
	Literal string `json:"literal,omitempty" yaml:"literal,omitempty"`
}

// FamilyOrLiteral returns the family name, or the literal name for
// institutional creators.
func (n CSLName) FamilyOrLiteral() string {
	if n.Family != "" {
		return n.Family
	}
	return n.Literal
}

// CSLDate represents a date in CSL format using date-parts.
type CSLDate struct {
	DateParts [][]int `json:"date-parts" yaml:"date-parts"`
}
