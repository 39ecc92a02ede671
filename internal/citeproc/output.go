// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package citeproc

import (
	"html"
	"strings"
	"unicode"
	"unicode/utf8"
)

// OutputFormat selects text or HTML rendering.
type OutputFormat string

const (
	FormatHTML OutputFormat = "html"
	FormatText OutputFormat = "text"
)

// ParseOutputFormat returns FormatText for "text" and FormatHTML otherwise.
func ParseOutputFormat(s string) OutputFormat {
	if s == string(FormatText) {
		return FormatText
	}
	return FormatHTML
}

// writer renders one piece of output in a format and locale.
type writer struct {
	format OutputFormat
	loc    *Locale
}

// text escapes plain content.
func (w writer) text(s string) string {
	if w.format == FormatHTML {
		return html.EscapeString(s)
	}
	return s
}

func (w writer) italic(s string) string {
	if s == "" {
		return ""
	}
	if w.format == FormatHTML {
		return "<i>" + html.EscapeString(s) + "</i>"
	}
	return s
}

func (w writer) quote(s string) string {
	if s == "" {
		return ""
	}
	return w.text(w.loc.OpenQuote) + w.text(s) + w.text(w.loc.CloseQuote)
}

// punct appends p to s unless s already ends with it. When the locale puts
// punctuation inside quotation marks and s ends with a closing quote, p goes
// before the quote.
func (w writer) punct(s, p string) string {
	if s == "" || p == "" {
		return s
	}
	closeQ := w.text(w.loc.CloseQuote)
	if w.loc.PunctuationInQuote && closeQ != "" && strings.HasSuffix(s, closeQ) {
		inner := strings.TrimSuffix(s, closeQ)
		if endsWithPunct(inner) {
			return s
		}
		return inner + p + closeQ
	}
	if strings.HasSuffix(stripTags(s), p) || (p == "." && endsWithPunct(stripTags(s))) {
		return s
	}
	return s + p
}

// pages renders a page range with the locale delimiter.
func (w writer) pages(p string) string {
	p = strings.TrimSpace(p)
	for _, sep := range []string{"--", "–", "—", "-"} {
		if a, b, ok := strings.Cut(p, sep); ok {
			return w.text(strings.TrimSpace(a) + w.loc.PageRangeDelimiter + strings.TrimSpace(b))
		}
	}
	return w.text(p)
}

// join concatenates non-empty parts with sep.
func join(sep string, parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}

func endsWithPunct(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	return r == '.' || r == '?' || r == '!'
}

func stripTags(s string) string {
	for _, t := range []string{"<i>", "</i>"} {
		s = strings.ReplaceAll(s, t, "")
	}
	return s
}

// initials abbreviates given names: "John Philip" is "J. P.", "Jean-Paul" is
// "J.-P.".
func initials(given string) string {
	words := strings.Fields(given)
	for i, w := range words {
		parts := strings.Split(w, "-")
		for j, p := range parts {
			r, _ := utf8.DecodeRuneInString(p)
			if r == utf8.RuneError {
				continue
			}
			parts[j] = string(unicode.ToUpper(r)) + "."
		}
		words[i] = strings.Join(parts, "-")
	}
	return strings.Join(words, " ")
}
