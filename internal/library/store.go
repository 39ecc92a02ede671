// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package library is the local bibliographic store: a SQLite database of
// items, creators and collections populated from CSL-JSON/YAML library
// files. It answers the lookups the resolver and dispatcher need (easy key,
// library key, citation key, collection, free text) and returns full item
// records for formatting. Ranking is insertion order; the store does not
// try to be clever about relevance.
package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/cite-engine/internal/easykey"
	"github.com/pdiddy/cite-engine/pkg/types"
)

// SearchMethod selects which fields free-text search looks at.
type SearchMethod string

const (
	// MethodTitleCreatorYear searches titles, creator names and years.
	MethodTitleCreatorYear SearchMethod = "titleCreatorYear"
	// MethodFields adds container, publisher, place, DOI and citation key.
	MethodFields SearchMethod = "fields"
	// MethodEverything adds abstracts and notes.
	MethodEverything SearchMethod = "everything"
)

// ParseSearchMethod maps a request value to a method. Empty or unknown
// values select MethodTitleCreatorYear.
func ParseSearchMethod(s string) SearchMethod {
	switch SearchMethod(s) {
	case MethodFields:
		return MethodFields
	case MethodEverything:
		return MethodEverything
	default:
		return MethodTitleCreatorYear
	}
}

func (m SearchMethod) column() string {
	switch m {
	case MethodFields:
		return "search_fields"
	case MethodEverything:
		return "search_all"
	default:
		return "search_basic"
	}
}

// Store manages the library SQLite database.
type Store struct {
	db            *sql.DB
	userLibraryID int64
}

// Open opens or creates the library database at cfg.Path and creates the
// schema if it does not exist.
func Open(cfg types.LibraryConfig) (*Store, error) {
	if dir := filepath.Dir(cfg.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating library directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	userLibraryID := cfg.UserLibraryID
	if userLibraryID <= 0 {
		userLibraryID = 1
	}

	s := &Store{db: db, userLibraryID: userLibraryID}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// UserLibraryID returns the id of the personal library.
func (s *Store) UserLibraryID() int64 {
	return s.userLibraryID
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS items (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			library_id INTEGER NOT NULL,
			key TEXT NOT NULL,
			item_type TEXT NOT NULL,
			year TEXT,
			title_folded TEXT,
			citekey TEXT,
			search_basic TEXT,
			search_fields TEXT,
			search_all TEXT,
			data TEXT NOT NULL,
			UNIQUE(library_id, key)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_items_year ON items(year)`,
		`CREATE INDEX IF NOT EXISTS idx_items_citekey ON items(citekey)`,
		`CREATE INDEX IF NOT EXISTS idx_items_key ON items(key)`,
		`CREATE TABLE IF NOT EXISTS creators (
			item_rowid INTEGER NOT NULL REFERENCES items(rowid) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			family TEXT,
			family_folded TEXT,
			given TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_creators_item ON creators(item_rowid)`,
		`CREATE TABLE IF NOT EXISTS collections (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			library_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			parent_id INTEGER REFERENCES collections(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS collection_items (
			collection_id INTEGER NOT NULL REFERENCES collections(id) ON DELETE CASCADE,
			item_rowid INTEGER NOT NULL REFERENCES items(rowid) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			PRIMARY KEY (collection_id, item_rowid)
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// searchColumns builds the folded text of the three search columns.
func searchColumns(it types.Item) (basic, fields, all string) {
	c := it.CSL
	parts := []string{c.Title, c.TitleShort, it.Year()}
	for _, n := range c.Author {
		parts = append(parts, n.Given, n.FamilyOrLiteral())
	}
	for _, n := range c.Editor {
		parts = append(parts, n.Given, n.FamilyOrLiteral())
	}
	basic = easykey.Fold(strings.Join(parts, " "))

	parts = append(parts, c.ContainerTitle, c.Publisher, c.PublisherPlace, c.DOI, it.CiteKey, c.Type)
	fields = easykey.Fold(strings.Join(parts, " "))

	parts = append(parts, c.Abstract, c.Note)
	all = easykey.Fold(strings.Join(parts, " "))
	return basic, fields, all
}

// putItem inserts or replaces one item and its creators inside tx.
func putItem(ctx context.Context, tx *sql.Tx, it types.Item) (int64, error) {
	data, err := json.Marshal(it)
	if err != nil {
		return 0, fmt.Errorf("encoding item %s: %w", it.Handle, err)
	}
	basic, fields, all := searchColumns(it)

	var rowid int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO items (library_id, key, item_type, year, title_folded, citekey, search_basic, search_fields, search_all, data)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(library_id, key) DO UPDATE SET
			item_type=excluded.item_type, year=excluded.year, title_folded=excluded.title_folded,
			citekey=excluded.citekey, search_basic=excluded.search_basic,
			search_fields=excluded.search_fields, search_all=excluded.search_all, data=excluded.data
		 RETURNING rowid`,
		it.Handle.LibraryID, it.Handle.Key, it.CSL.Type, it.Year(),
		easykey.FoldToken(it.CSL.Title), nullable(it.CiteKey), basic, fields, all, string(data),
	).Scan(&rowid)
	if err != nil {
		return 0, fmt.Errorf("upserting item %s: %w", it.Handle, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM creators WHERE item_rowid = ?`, rowid); err != nil {
		return 0, fmt.Errorf("clearing creators of %s: %w", it.Handle, err)
	}
	for i, n := range it.CSL.Creators() {
		family := n.FamilyOrLiteral()
		_, err := tx.ExecContext(ctx,
			`INSERT INTO creators (item_rowid, position, family, family_folded, given) VALUES (?, ?, ?, ?, ?)`,
			rowid, i, family, easykey.FoldToken(family), n.Given,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting creator of %s: %w", it.Handle, err)
		}
	}
	return rowid, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
