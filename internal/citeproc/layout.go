// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package citeproc

import (
	"strconv"
	"strings"

	"github.com/pdiddy/cite-engine/pkg/types"
)

// position is where a cite falls relative to earlier cites of the same item.
type position int

const (
	positionFirst position = iota
	positionSubsequent
	positionIbid
)

// cite is one item of a cluster with everything the layouts need.
type cite struct {
	item           types.Item
	forms          []givenForm
	yearSuffix     string
	number         int
	position       position
	locator        string
	prefix         string
	suffix         string
	suppressAuthor bool
}

type citationLayout func(w writer, cites []cite) string

type bibliographyLayout func(w writer, it types.Item, yearSuffix string) string

var citationLayouts = map[string]citationLayout{
	"author-date":     authorDateCitation,
	"author-date-apa": apaCitation,
	"author":          mlaCitation,
	"numeric":         numericCitation,
	"note-short":      noteCitation(false),
	"note-full":       noteCitation(true),
}

var bibliographyLayouts = map[string]bibliographyLayout{
	"chicago":             chicagoBibliography,
	"chicago-author-date": chicagoAuthorDateBibliography,
	"apa":                 apaBibliography,
	"mla":                 mlaBibliography,
	"ieee":                ieeeBibliography,
}

// --- shared pieces ---

func isArticle(t string) bool {
	switch t {
	case "article", "article-journal", "article-magazine", "article-newspaper", "review":
		return true
	}
	return false
}

func isContained(t string) bool {
	switch t {
	case "chapter", "paper-conference", "entry-encyclopedia", "entry-dictionary":
		return true
	}
	return false
}

func year(w writer, it types.Item, suffix string) string {
	y := strings.TrimLeft(it.Year(), "0")
	if y == "" {
		y = w.loc.Term("no-date")
	}
	return w.text(y + suffix)
}

// title renders the title italic for standalone works and quoted for parts.
func title(w writer, it types.Item, short bool) string {
	t := it.CSL.Title
	if short && it.CSL.TitleShort != "" {
		t = it.CSL.TitleShort
	}
	if isArticle(it.CSL.Type) || isContained(it.CSL.Type) {
		return w.quote(t)
	}
	return w.italic(t)
}

func names(it types.Item, f func(types.CSLName) string) []string {
	creators := it.CSL.Creators()
	out := make([]string, len(creators))
	for i, n := range creators {
		out[i] = f(n)
	}
	return out
}

func citeNames(c cite) []string {
	creators := c.item.CSL.Creators()
	out := make([]string, len(creators))
	for i, n := range creators {
		form := givenNone
		if i < len(c.forms) {
			form = c.forms[i]
		}
		out[i] = citeName(n, form)
	}
	return out
}

// decorate wraps a rendered cite in its prefix and suffix.
func decorate(w writer, c cite, s string) string {
	if c.prefix != "" {
		p := w.text(c.prefix)
		if !strings.HasSuffix(p, " ") {
			p += " "
		}
		s = p + s
	}
	if c.suffix != "" {
		sfx := w.text(c.suffix)
		if !strings.HasPrefix(sfx, " ") && !strings.HasPrefix(sfx, ",") {
			sfx = " " + sfx
		}
		s += sfx
	}
	return s
}

// publication renders "Place: Publisher, Year" with missing parts dropped.
func publication(w writer, it types.Item, withYear bool) string {
	pub := w.text(it.CSL.Publisher)
	if it.CSL.PublisherPlace != "" {
		pub = join(": ", w.text(it.CSL.PublisherPlace), pub)
	}
	if withYear {
		return join(", ", pub, year(w, it, ""))
	}
	return pub
}

func sentences(w writer, parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, w.punct(p, "."))
		}
	}
	return strings.Join(out, " ")
}

// --- citations ---

func authorDateCitation(w writer, cites []cite) string {
	parts := make([]string, len(cites))
	for i, c := range cites {
		who := w.text(etAlList(citeNames(c), 4, w.loc.Term("and"), w.loc.Term("et-al"), true))
		if who == "" {
			who = title(w, c.item, true)
		}
		s := year(w, c.item, c.yearSuffix)
		if !c.suppressAuthor {
			s = who + " " + s
		}
		if c.locator != "" {
			s += ", " + w.pages(c.locator)
		}
		parts[i] = decorate(w, c, s)
	}
	return "(" + strings.Join(parts, "; ") + ")"
}

func apaCitation(w writer, cites []cite) string {
	parts := make([]string, len(cites))
	for i, c := range cites {
		who := w.text(etAlList(citeNames(c), 3, "&", w.loc.Term("et-al"), false))
		if who == "" {
			who = title(w, c.item, true)
		}
		s := year(w, c.item, c.yearSuffix)
		if !c.suppressAuthor {
			s = who + ", " + s
		}
		if c.locator != "" {
			s += ", " + w.text(w.loc.Term("page")) + " " + w.pages(c.locator)
		}
		parts[i] = decorate(w, c, s)
	}
	return "(" + strings.Join(parts, "; ") + ")"
}

func mlaCitation(w writer, cites []cite) string {
	parts := make([]string, len(cites))
	for i, c := range cites {
		s := w.text(etAlList(citeNames(c), 3, w.loc.Term("and"), w.loc.Term("et-al"), true))
		if s == "" || c.suppressAuthor {
			s = title(w, c.item, true)
		}
		if c.locator != "" {
			s += " " + w.pages(c.locator)
		}
		parts[i] = decorate(w, c, s)
	}
	return "(" + strings.Join(parts, "; ") + ")"
}

func numericCitation(w writer, cites []cite) string {
	parts := make([]string, len(cites))
	for i, c := range cites {
		s := strconv.Itoa(c.number)
		if c.locator != "" {
			s += ", " + w.text(w.loc.Term("page")) + " " + w.pages(c.locator)
		}
		parts[i] = decorate(w, c, "["+s+"]")
	}
	return strings.Join(parts, ", ")
}

func noteCitation(fullFirst bool) citationLayout {
	return func(w writer, cites []cite) string {
		parts := make([]string, len(cites))
		for i, c := range cites {
			var s string
			switch {
			case c.position == positionIbid:
				s = w.text(w.loc.Term("ibid"))
				if c.locator != "" {
					s = w.punct(s, ",") + " " + w.pages(c.locator)
				}
			case c.position == positionFirst && fullFirst:
				s = fullNote(w, c)
			default:
				s = shortNote(w, c)
			}
			parts[i] = decorate(w, c, s)
		}
		return w.punct(strings.Join(parts, "; "), ".")
	}
}

func shortNote(w writer, c cite) string {
	who := w.text(etAlList(citeNames(c), 4, w.loc.Term("and"), w.loc.Term("et-al"), true))
	s := title(w, c.item, true)
	if who != "" {
		s = who + ", " + s
	}
	if c.locator != "" {
		s = w.punct(s, ",") + " " + w.pages(c.locator)
	}
	return s
}

func fullNote(w writer, c cite) string {
	it := c.item
	who := w.text(etAlList(names(it, displayName), 4, w.loc.Term("and"), w.loc.Term("et-al"), true))
	switch {
	case isArticle(it.CSL.Type):
		src := join(" ", w.italic(it.CSL.ContainerTitle), w.text(it.CSL.Volume))
		src = join(" ", src, "("+year(w, it, "")+")")
		pages := it.CSL.Page
		if c.locator != "" {
			pages = c.locator
		}
		if pages != "" {
			src += ": " + w.pages(pages)
		}
		return join(", ", who, w.punct(title(w, it, false), ",")+" "+src)
	default:
		s := join(", ", who, title(w, it, false))
		s += " (" + publication(w, it, true) + ")"
		if c.locator != "" {
			s += ", " + w.pages(c.locator)
		}
		return s
	}
}

// --- bibliographies ---

func chicagoNames(w writer, it types.Item) string {
	ns := names(it, displayName)
	if len(ns) > 0 {
		ns[0] = invertedName(it.CSL.Creators()[0])
	}
	return w.text(seriesList(ns, w.loc.Term("and"), true))
}

// chicagoSource renders the container part of an entry: journal, volume and
// pages for articles, "In" clauses for chapters, publisher for books.
func chicagoSource(w writer, it types.Item, withYear bool) []string {
	c := it.CSL
	switch {
	case isArticle(c.Type):
		src := join(" ", w.italic(c.ContainerTitle), w.text(c.Volume))
		if c.Issue != "" {
			src += ", " + w.text(w.loc.Term("issue")) + " " + w.text(c.Issue)
		}
		if withYear {
			src = join(" ", src, "("+year(w, it, "")+")")
		}
		if c.Page != "" {
			src += ": " + w.pages(c.Page)
		}
		return []string{src}
	case isContained(c.Type):
		in := w.text(w.loc.Term("in")) + " " + w.italic(c.ContainerTitle)
		if len(c.Editor) > 0 && len(c.Author) > 0 {
			eds := make([]string, len(c.Editor))
			for i, n := range c.Editor {
				eds[i] = displayName(n)
			}
			in += ", " + w.text(w.loc.Term("edited-by")+" "+seriesList(eds, w.loc.Term("and"), true))
		}
		if c.Page != "" {
			in += ", " + w.pages(c.Page)
		}
		return []string{in, publication(w, it, withYear)}
	default:
		return []string{publication(w, it, withYear)}
	}
}

func chicagoBibliography(w writer, it types.Item, _ string) string {
	parts := append([]string{chicagoNames(w, it), title(w, it, false)}, chicagoSource(w, it, true)...)
	return sentences(w, parts...)
}

func chicagoAuthorDateBibliography(w writer, it types.Item, yearSuffix string) string {
	parts := append([]string{chicagoNames(w, it), year(w, it, yearSuffix), title(w, it, false)}, chicagoSource(w, it, false)...)
	return sentences(w, parts...)
}

func apaBibliography(w writer, it types.Item, yearSuffix string) string {
	c := it.CSL
	ns := names(it, initialsInvertedName)
	who := ""
	switch len(ns) {
	case 0:
	case 1:
		who = ns[0]
	default:
		who = strings.Join(ns[:len(ns)-1], ", ") + ", & " + ns[len(ns)-1]
	}
	date := "(" + year(w, it, yearSuffix) + ")"
	head := join(" ", w.text(who), date)

	if isArticle(c.Type) {
		src := join(", ", w.italic(c.ContainerTitle), w.italic(c.Volume))
		if c.Issue != "" {
			src += "(" + w.text(c.Issue) + ")"
		}
		if c.Page != "" {
			src = join(", ", src, w.pages(c.Page))
		}
		return sentences(w, head, w.text(c.Title), src)
	}
	return sentences(w, head, w.italic(c.Title), w.text(c.Publisher))
}

func mlaBibliography(w writer, it types.Item, _ string) string {
	c := it.CSL
	ns := names(it, displayName)
	if len(ns) > 0 {
		ns[0] = invertedName(c.Creators()[0])
	}
	who := w.text(etAlList(ns, 3, w.loc.Term("and"), w.loc.Term("et-al"), true))

	if isArticle(c.Type) {
		src := w.italic(c.ContainerTitle)
		if c.Volume != "" {
			src = join(", ", src, w.text(w.loc.Term("volume")+" "+c.Volume))
		}
		if c.Issue != "" {
			src = join(", ", src, w.text(w.loc.Term("issue")+" "+c.Issue))
		}
		src = join(", ", src, year(w, it, ""))
		if c.Page != "" {
			src = join(", ", src, w.text(w.loc.Term("pages"))+" "+w.pages(c.Page))
		}
		return sentences(w, who, title(w, it, false), src)
	}
	return sentences(w, who, title(w, it, false), join(", ", w.text(c.Publisher), year(w, it, "")))
}

func ieeeBibliography(w writer, it types.Item, _ string) string {
	c := it.CSL
	who := w.text(seriesList(names(it, initialsName), w.loc.Term("and"), true))

	if isArticle(c.Type) {
		s := join(", ", who, w.punct(w.quote(c.Title), ","))
		src := w.italic(c.ContainerTitle)
		if c.Volume != "" {
			src = join(", ", src, w.text(w.loc.Term("volume")+" "+c.Volume))
		}
		if c.Issue != "" {
			src = join(", ", src, w.text(w.loc.Term("issue")+" "+c.Issue))
		}
		if c.Page != "" {
			src = join(", ", src, w.text(w.loc.Term("pages"))+" "+w.pages(c.Page))
		}
		src = join(", ", src, year(w, it, ""))
		return w.punct(join(" ", s, src), ".")
	}
	head := join(", ", who, w.italic(c.Title))
	return sentences(w, head, publication(w, it, true))
}
