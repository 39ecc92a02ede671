// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package easykey

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	colonPrefixRe = regexp.MustCompile(`^([\p{L}\p{M}'’-]+(?:_[\p{L}\p{M}'’-]+)*)(?::(\d{0,4})(\p{L}[\p{L}\p{M}\p{N}-]*)?)?$`)
	camelPrefixRe = regexp.MustCompile(`^(\p{Lu}[\p{Ll}\p{M}'’-]*)(\p{Lu}[\p{L}\p{M}]*)?(\d{0,4})$`)
)

// Prefix is a partially typed easy key used for completion. Year holds zero
// to four digits. In colon form Title is only accepted after a full year.
type Prefix struct {
	Creators []string
	Year     string
	Title    string
}

// ParsePrefix parses a completion prefix such as "doe:", "doe:20",
// "doe:2006art" or "DoeArt".
func ParsePrefix(raw string) (Prefix, error) {
	s := norm.NFC.String(strings.TrimSpace(raw))
	if !strings.Contains(s, ":") {
		if m := camelPrefixRe.FindStringSubmatch(s); m != nil {
			return Prefix{
				Creators: []string{lower(m[1])},
				Year:     m[3],
				Title:    lower(m[2]),
			}, nil
		}
	}
	if m := colonPrefixRe.FindStringSubmatch(s); m != nil {
		if m[3] != "" && len(m[2]) != 4 {
			return Prefix{}, fmt.Errorf("%q: %w", raw, ErrMalformed)
		}
		return Prefix{
			Creators: lowerAll(strings.Split(m[1], "_")),
			Year:     m[2],
			Title:    lower(m[3]),
		}, nil
	}
	return Prefix{}, fmt.Errorf("%q: %w", raw, ErrMalformed)
}
