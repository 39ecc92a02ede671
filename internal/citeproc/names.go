// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package citeproc

import (
	"strings"

	"github.com/pdiddy/cite-engine/internal/easykey"
	"github.com/pdiddy/cite-engine/pkg/types"
)

// givenForm is how much of a given name a citation shows.
type givenForm int

const (
	givenNone givenForm = iota
	givenInitials
	givenFull
)

// citeName renders n for an in-text citation.
func citeName(n types.CSLName, form givenForm) string {
	family := n.FamilyOrLiteral()
	if n.Family == "" || n.Given == "" {
		return family
	}
	switch form {
	case givenInitials:
		return initials(n.Given) + " " + family
	case givenFull:
		return n.Given + " " + family
	default:
		return family
	}
}

// displayName renders n given name first: "John Doe".
func displayName(n types.CSLName) string {
	if n.Family == "" || n.Given == "" {
		return n.FamilyOrLiteral()
	}
	return n.Given + " " + n.Family
}

// invertedName renders n family name first: "Doe, John".
func invertedName(n types.CSLName) string {
	if n.Family == "" || n.Given == "" {
		return n.FamilyOrLiteral()
	}
	return n.Family + ", " + n.Given
}

// initialsInvertedName renders n as "Doe, J."
func initialsInvertedName(n types.CSLName) string {
	if n.Family == "" || n.Given == "" {
		return n.FamilyOrLiteral()
	}
	return n.Family + ", " + initials(n.Given)
}

// initialsName renders n as "J. Doe".
func initialsName(n types.CSLName) string {
	if n.Family == "" || n.Given == "" {
		return n.FamilyOrLiteral()
	}
	return initials(n.Given) + " " + n.Family
}

// seriesList joins names: "A", "A and B", "A, B, and C". serial controls
// the comma before the final conjunction of three or more.
func seriesList(names []string, and string, serial bool) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	case 2:
		return names[0] + " " + and + " " + names[1]
	}
	head := strings.Join(names[:len(names)-1], ", ")
	if serial {
		head += ","
	}
	return head + " " + and + " " + names[len(names)-1]
}

// etAlList is seriesList truncated to the first name plus "et al." once
// there are at least min names.
func etAlList(names []string, min int, and, etAl string, serial bool) string {
	if len(names) >= min {
		return names[0] + " " + etAl
	}
	return seriesList(names, and, serial)
}

// disambiguateNames chooses, for every creator of every item, the given-name
// form that tells it apart from creators of other items sharing its family
// name. Creators with identical given names are the same person.
func disambiguateNames(items []types.Item) map[string][]givenForm {
	type person struct {
		item  string
		given string
	}
	byFamily := make(map[string][]person)
	for _, it := range items {
		for _, n := range it.CSL.Creators() {
			if n.Family == "" {
				continue
			}
			f := easykey.Fold(n.Family)
			byFamily[f] = append(byFamily[f], person{item: it.CSL.ID, given: n.Given})
		}
	}

	forms := make(map[string][]givenForm, len(items))
	for _, it := range items {
		creators := it.CSL.Creators()
		fs := make([]givenForm, len(creators))
		for i, n := range creators {
			if n.Family == "" || n.Given == "" {
				continue
			}
			mine := easykey.Fold(n.Given)
			myInitials := easykey.Fold(initials(n.Given))
			for _, p := range byFamily[easykey.Fold(n.Family)] {
				other := easykey.Fold(p.given)
				if p.given == "" || other == mine {
					continue
				}
				if easykey.Fold(initials(p.given)) == myInitials {
					fs[i] = givenFull
					break
				}
				fs[i] = givenInitials
			}
		}
		forms[it.CSL.ID] = fs
	}
	return forms
}
