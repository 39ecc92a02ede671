// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package easykey parses and generates easy keys: compact citation keys
// built from creator surnames, a four-digit year and an optional short-title
// token. Two surface forms are accepted:
//
//	doe:2005first        colon form, lower case; creators joined by "_"
//	DoeFirst2005         CamelCase form; also Doe2005first
//
// Parsing is pure; it never consults the library.
package easykey

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrMalformed is returned for input that is not an easy key.
var ErrMalformed = errors.New("easy key must be of the form DoeTitle2000 or doe:2000title")

var (
	colonRe = regexp.MustCompile(`^([\p{L}\p{M}'’-]+(?:_[\p{L}\p{M}'’-]+)*):(\d{4})(\p{L}[\p{L}\p{M}\p{N}-]*)?$`)
	camelRe = regexp.MustCompile(`^(\p{Lu}[\p{Ll}\p{M}'’-]*)(\p{Lu}[\p{L}\p{M}]*)?(\d{4})(\p{L}[\p{L}\p{M}\p{N}-]*)?$`)
)

// Key is a parsed easy key. Tokens are NFC-normalized and lower-cased.
// Key is a value type; its accessors return copies.
type Key struct {
	creators []string
	year     string
	title    string
}

// Creators returns the creator tokens in key order.
func (k Key) Creators() []string {
	return append([]string(nil), k.creators...)
}

// Year returns the four-digit year.
func (k Key) Year() string { return k.year }

// Title returns the short-title token, or "".
func (k Key) Title() string { return k.title }

// String renders the canonical colon form, e.g. "roe_doe:2015double".
func (k Key) String() string {
	return strings.Join(k.creators, "_") + ":" + k.year + k.title
}

// Equal reports whether k and o denote the same logical key, ignoring case
// and diacritics.
func (k Key) Equal(o Key) bool {
	return Fold(k.String()) == Fold(o.String())
}

// Parse parses raw in either surface form.
func Parse(raw string) (Key, error) {
	s := norm.NFC.String(strings.TrimSpace(raw))
	if m := colonRe.FindStringSubmatch(s); m != nil {
		return Key{
			creators: lowerAll(strings.Split(m[1], "_")),
			year:     m[2],
			title:    lower(m[3]),
		}, nil
	}
	if m := camelRe.FindStringSubmatch(s); m != nil {
		if m[2] != "" && m[4] != "" {
			return Key{}, fmt.Errorf("%q: %w", raw, ErrMalformed)
		}
		title := m[2]
		if title == "" {
			title = m[4]
		}
		return Key{
			creators: []string{lower(m[1])},
			year:     m[3],
			title:    lower(title),
		}, nil
	}
	return Key{}, fmt.Errorf("%q: %w", raw, ErrMalformed)
}

// Fold returns s with combining marks removed and case folded, so that
// "Hüning", "HÜNING" and "huning" compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return cases.Fold().String(out)
}

// FoldToken folds s like Fold and then drops every rune that cannot appear
// in an easy-key token, keeping letters, digits, hyphens and spaces. Stored
// creator and title columns and the patterns matched against them both go
// through FoldToken, so "O'Brien" and the generated "obrien" agree.
func FoldToken(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-':
			return r
		case unicode.IsSpace(r):
			return ' '
		}
		return -1
	}, Fold(s))
}

func lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

func lowerAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = lower(s)
	}
	return out
}
