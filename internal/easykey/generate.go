// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package easykey

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/pdiddy/cite-engine/pkg/types"
)

// stopWords are skipped when choosing the title token.
var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "on": true, "in": true, "of": true,
	"and": true, "for": true, "to": true, "at": true, "by": true,
	"with": true, "from": true,
}

// Generate returns the colon-form easy key for item, e.g. "doe:2006article".
// Diacritics are kept; multi-word surnames are joined with "_".
func Generate(item types.Item) string {
	creator := "anon"
	if cs := item.CSL.Creators(); len(cs) > 0 {
		if c := keyToken(cs[0].FamilyOrLiteral(), "_", false); c != "" {
			creator = c
		}
	}

	year := item.Year()
	if year == "" {
		year = "0000"
	}

	return creator + ":" + year + titleToken(item.CSL.Title)
}

// titleToken returns the first significant word of title, lower-cased and
// stripped of punctuation. It must start with a letter to stay parseable.
func titleToken(title string) string {
	for _, w := range strings.Fields(title) {
		tok := keyToken(w, "", true)
		tok = strings.TrimLeftFunc(tok, func(r rune) bool { return !unicode.IsLetter(r) })
		if tok == "" || stopWords[tok] {
			continue
		}
		return tok
	}
	return ""
}

// keyToken lower-cases s, keeps letters, marks and inner hyphens (and
// digits when digits is set), and joins whitespace-separated words with sep.
// Words left empty are dropped.
func keyToken(s, sep string, digits bool) string {
	s = lower(norm.NFC.String(s))
	var words []string
	for _, w := range strings.Fields(s) {
		w = strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsMark(r) || r == '-' || (digits && unicode.IsDigit(r)) {
				return r
			}
			return -1
		}, w)
		if w = strings.Trim(w, "-"); w != "" {
			words = append(words, w)
		}
	}
	return strings.Join(words, sep)
}
