// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/cite-engine/internal/easykey"
	"github.com/pdiddy/cite-engine/pkg/types"
)

// BibTeX writes one BibTeX record per item, in input order.
type BibTeX struct{}

func (BibTeX) ID() string    { return IDBibTeX }
func (BibTeX) Label() string { return "BibTeX" }

func (BibTeX) Export(_ context.Context, items []types.Item) ([]byte, error) {
	var buf bytes.Buffer
	for i, it := range items {
		if i > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString(bibRecord(it))
	}
	return buf.Bytes(), nil
}

// bibRecord renders one item as a BibTeX record.
func bibRecord(it types.Item) string {
	c := it.CSL
	w := func(k, v string) string {
		v = strings.TrimSpace(v)
		if v == "" {
			return ""
		}
		return fmt.Sprintf("\t%s = {%s},\n", k, escapeBib(v))
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "@%s{%s,\n", bibType(c.Type), bibKey(it))
	b.WriteString(w("title", c.Title))
	switch bibType(c.Type) {
	case "article":
		b.WriteString(w("journal", c.ContainerTitle))
		b.WriteString(w("volume", c.Volume))
		b.WriteString(w("number", c.Issue))
		b.WriteString(w("pages", bibPages(c.Page)))
	case "book":
		b.WriteString(w("publisher", c.Publisher))
		b.WriteString(w("address", c.PublisherPlace))
	case "incollection", "inproceedings":
		b.WriteString(w("booktitle", c.ContainerTitle))
		b.WriteString(w("publisher", c.Publisher))
		b.WriteString(w("address", c.PublisherPlace))
		b.WriteString(w("pages", bibPages(c.Page)))
	default:
		b.WriteString(w("howpublished", c.Publisher))
	}
	b.WriteString(w("author", bibNames(c.Author)))
	b.WriteString(w("editor", bibNames(c.Editor)))
	b.WriteString(w("year", it.Year()))
	b.WriteString(w("doi", c.DOI))
	b.WriteString(w("url", c.URL))
	b.WriteString(w("abstract", c.Abstract))
	b.WriteString(w("note", c.Note))

	out := strings.TrimRight(b.String(), "\n")
	out = strings.TrimRight(out, ",")
	return out + "\n}\n"
}

// bibKey prefers the item's citation key and falls back to the easy key
// with the colon replaced.
func bibKey(it types.Item) string {
	if it.CiteKey != "" {
		return it.CiteKey
	}
	return strings.Replace(easykey.Generate(it), ":", "_", 1)
}

func bibType(cslType string) string {
	switch cslType {
	case "article-journal", "article-magazine", "article-newspaper", "article":
		return "article"
	case "book":
		return "book"
	case "chapter":
		return "incollection"
	case "paper-conference":
		return "inproceedings"
	case "thesis":
		return "phdthesis"
	case "report":
		return "techreport"
	default:
		return "misc"
	}
}

func bibNames(names []types.CSLName) string {
	parts := make([]string, 0, len(names))
	for _, n := range names {
		switch {
		case n.Literal != "":
			parts = append(parts, "{"+n.Literal+"}")
		case n.Given == "":
			parts = append(parts, n.Family)
		case n.Family == "":
			parts = append(parts, n.Given)
		default:
			parts = append(parts, n.Family+", "+n.Given)
		}
	}
	return strings.Join(parts, " and ")
}

// bibPages writes page ranges with the BibTeX double hyphen.
func bibPages(p string) string {
	if strings.Contains(p, "--") {
		return p
	}
	return strings.Replace(p, "-", "--", 1)
}

func escapeBib(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	for _, c := range []string{"&", "%", "$", "#", "_"} {
		s = strings.ReplaceAll(s, c, `\`+c)
	}
	return strings.TrimSpace(s)
}
