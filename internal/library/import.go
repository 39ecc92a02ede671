// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package library

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/cite-engine/pkg/types"
)

// File is the on-disk library format. It is YAML; JSON files parse as well.
//
//	library: 1
//	items:
//	  - key: ZBZQ4KMP
//	    citekey: doe:2005first
//	    csl: {type: book, title: First Book, author: [{family: Doe, given: John}]}
//	collections:
//	  - name: zotxt test
//	    items: [ZBZQ4KMP]
type File struct {
	Library     int64            `yaml:"library"`
	Items       []FileItem       `yaml:"items"`
	Collections []FileCollection `yaml:"collections"`
}

// FileItem is one item of a library file. Library overrides the file-level
// library id; an empty Key is generated.
type FileItem struct {
	Library     int64         `yaml:"library,omitempty"`
	Key         string        `yaml:"key,omitempty"`
	CiteKey     string        `yaml:"citekey,omitempty"`
	Attachments []string      `yaml:"attachments,omitempty"`
	CSL         types.CSLItem `yaml:"csl"`
}

// FileCollection is a named collection with member keys and sub-collections.
type FileCollection struct {
	Name        string           `yaml:"name"`
	Items       []string         `yaml:"items,omitempty"`
	Collections []FileCollection `yaml:"collections,omitempty"`
}

// ImportSummary holds counts from an import run.
type ImportSummary struct {
	Items       int
	Collections int
}

// keyAlphabet is the character set of generated item keys.
const keyAlphabet = "23456789ABCDEFGHIJKLMNPQRSTUVWXYZ"

// newItemKey returns a random eight-character item key.
func newItemKey() string {
	id := uuid.New()
	var b strings.Builder
	for i := 0; i < 8; i++ {
		b.WriteByte(keyAlphabet[int(id[i])%len(keyAlphabet)])
	}
	return b.String()
}

// Import reads a library file from r and stores its items and collections
// in one transaction. Items are upserted by (library, key). Collections of
// every library mentioned in the file are replaced.
func (s *Store) Import(ctx context.Context, r io.Reader) (ImportSummary, error) {
	var f File
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return ImportSummary{}, fmt.Errorf("parsing library file: %w", err)
	}
	if f.Library <= 0 {
		f.Library = s.userLibraryID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ImportSummary{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var summary ImportSummary
	rowids := make(map[types.ItemHandle]int64)
	for _, fi := range f.Items {
		lib := fi.Library
		if lib <= 0 {
			lib = f.Library
		}
		key := fi.Key
		if key == "" {
			key = newItemKey()
		}
		it := types.Item{
			Handle:      types.ItemHandle{LibraryID: lib, Key: key},
			CSL:         fi.CSL,
			CiteKey:     fi.CiteKey,
			Attachments: fi.Attachments,
		}
		if it.CiteKey == "" {
			it.CiteKey = fi.CSL.CitationKey
		}
		if it.CSL.Type == "" {
			it.CSL.Type = "document"
		}
		it.CSL.ID = it.Handle.String()

		rowid, err := putItem(ctx, tx, it)
		if err != nil {
			return summary, err
		}
		rowids[it.Handle] = rowid
		summary.Items++
	}

	if len(f.Collections) > 0 {
		if _, err := tx.ExecContext(ctx, `DELETE FROM collections WHERE library_id = ?`, f.Library); err != nil {
			return summary, fmt.Errorf("clearing collections: %w", err)
		}
		n, err := putCollections(ctx, tx, f.Library, nil, f.Collections, rowids)
		if err != nil {
			return summary, err
		}
		summary.Collections = n
	}

	if err := tx.Commit(); err != nil {
		return summary, fmt.Errorf("committing import: %w", err)
	}
	return summary, nil
}

func putCollections(ctx context.Context, tx *sql.Tx, libraryID int64, parent *int64, cols []FileCollection, rowids map[types.ItemHandle]int64) (int, error) {
	count := 0
	for _, c := range cols {
		var id int64
		err := tx.QueryRowContext(ctx,
			`INSERT INTO collections (library_id, name, parent_id) VALUES (?, ?, ?) RETURNING id`,
			libraryID, c.Name, parent,
		).Scan(&id)
		if err != nil {
			return count, fmt.Errorf("inserting collection %q: %w", c.Name, err)
		}
		count++

		for pos, k := range c.Items {
			h := types.ItemHandle{LibraryID: libraryID, Key: k}
			if lib, key := types.SplitLibraryKey(k); lib != 0 {
				h = types.ItemHandle{LibraryID: lib, Key: key}
			}
			rowid, ok := rowids[h]
			if !ok {
				if err := tx.QueryRowContext(ctx,
					`SELECT rowid FROM items WHERE library_id = ? AND key = ?`, h.LibraryID, h.Key,
				).Scan(&rowid); err != nil {
					return count, fmt.Errorf("collection %q references unknown item %s", c.Name, h)
				}
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO collection_items (collection_id, item_rowid, position) VALUES (?, ?, ?)`,
				id, rowid, pos,
			); err != nil {
				return count, fmt.Errorf("adding %s to collection %q: %w", h, c.Name, err)
			}
		}

		n, err := putCollections(ctx, tx, libraryID, &id, c.Collections, rowids)
		count += n
		if err != nil {
			return count, err
		}
	}
	return count, nil
}
