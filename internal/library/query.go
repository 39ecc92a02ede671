// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdiddy/cite-engine/internal/easykey"
	"github.com/pdiddy/cite-engine/pkg/types"
)

// FindByEasyKey returns every item whose creators contain each creator
// token, whose year equals the key year, and whose title contains the title
// token. Matching is case- and diacritic-insensitive.
func (s *Store) FindByEasyKey(ctx context.Context, key easykey.Key) ([]types.ItemHandle, error) {
	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(`SELECT i.library_id, i.key FROM items i WHERE i.year = ?`)
	args = append(args, key.Year())

	for _, c := range key.Creators() {
		qb.WriteString(` AND EXISTS (SELECT 1 FROM creators c WHERE c.item_rowid = i.rowid AND c.family_folded LIKE ? ESCAPE '\')`)
		args = append(args, tokenPattern(c))
	}
	if t := key.Title(); t != "" {
		qb.WriteString(` AND i.title_folded LIKE ? ESCAPE '\'`)
		args = append(args, tokenPattern(t))
	}
	qb.WriteString(` ORDER BY i.library_id, i.rowid`)

	return s.queryHandles(ctx, qb.String(), args...)
}

// CompleteEasyKey returns items matching a partially typed easy key.
func (s *Store) CompleteEasyKey(ctx context.Context, p easykey.Prefix) ([]types.ItemHandle, error) {
	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(`SELECT i.library_id, i.key FROM items i WHERE 1=1`)
	for _, c := range p.Creators {
		qb.WriteString(` AND EXISTS (SELECT 1 FROM creators c WHERE c.item_rowid = i.rowid AND c.family_folded LIKE ? ESCAPE '\')`)
		args = append(args, tokenPattern(c))
	}
	if p.Year != "" {
		qb.WriteString(` AND i.year LIKE ? ESCAPE '\'`)
		args = append(args, escapeLike(p.Year)+"%")
	}
	if p.Title != "" {
		qb.WriteString(` AND i.title_folded LIKE ? ESCAPE '\'`)
		args = append(args, tokenPattern(p.Title))
	}
	qb.WriteString(` ORDER BY i.library_id, i.rowid`)

	return s.queryHandles(ctx, qb.String(), args...)
}

// FindByKey looks up a library key. "1_ABCD1234" is scoped to library 1;
// a bare "ABCD1234" matches that key in any library.
func (s *Store) FindByKey(ctx context.Context, key string) ([]types.ItemHandle, error) {
	libraryID, itemKey := types.SplitLibraryKey(key)
	if itemKey == "" {
		return nil, nil
	}
	if libraryID == 0 {
		return s.queryHandles(ctx,
			`SELECT library_id, key FROM items WHERE key = ? ORDER BY library_id, rowid`, itemKey)
	}
	return s.queryHandles(ctx,
		`SELECT library_id, key FROM items WHERE library_id = ? AND key = ?`, libraryID, itemKey)
}

// FindByCiteKey looks up a third-party citation key. Citation keys are
// matched exactly.
func (s *Store) FindByCiteKey(ctx context.Context, citekey string) ([]types.ItemHandle, error) {
	return s.queryHandles(ctx,
		`SELECT library_id, key FROM items WHERE citekey = ? ORDER BY library_id, rowid`, citekey)
}

// Search runs a free-text query. Every whitespace-separated term must
// appear in the fields selected by method.
func (s *Store) Search(ctx context.Context, query string, method SearchMethod) ([]types.ItemHandle, error) {
	terms := strings.Fields(easykey.Fold(query))
	if len(terms) == 0 {
		return nil, nil
	}

	col := method.column()
	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(`SELECT library_id, key FROM items WHERE 1=1`)
	for _, t := range terms {
		fmt.Fprintf(&qb, ` AND %s LIKE ? ESCAPE '\'`, col)
		args = append(args, containsPattern(t))
	}
	qb.WriteString(` ORDER BY library_id, rowid`)

	return s.queryHandles(ctx, qb.String(), args...)
}

// AllItems returns every item of the personal library.
func (s *Store) AllItems(ctx context.Context) ([]types.ItemHandle, error) {
	return s.queryHandles(ctx,
		`SELECT library_id, key FROM items WHERE library_id = ? ORDER BY rowid`, s.userLibraryID)
}

// CollectionItems returns the items of the first collection named name,
// searching collections depth first, each library in id order. The boolean
// is false when no collection has that name. Names are case-sensitive.
func (s *Store) CollectionItems(ctx context.Context, name string) ([]types.ItemHandle, bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, parent_id FROM collections ORDER BY library_id, id`)
	if err != nil {
		return nil, false, fmt.Errorf("listing collections: %w", err)
	}
	defer rows.Close()

	type node struct {
		id   int64
		name string
	}
	var roots []node
	children := make(map[int64][]node)
	for rows.Next() {
		var (
			n      node
			parent sql.NullInt64
		)
		if err := rows.Scan(&n.id, &n.name, &parent); err != nil {
			return nil, false, fmt.Errorf("scanning collection: %w", err)
		}
		if parent.Valid {
			children[parent.Int64] = append(children[parent.Int64], n)
		} else {
			roots = append(roots, n)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("listing collections: %w", err)
	}

	var find func(ns []node) (int64, bool)
	find = func(ns []node) (int64, bool) {
		for _, n := range ns {
			if n.name == name {
				return n.id, true
			}
			if id, ok := find(children[n.id]); ok {
				return id, true
			}
		}
		return 0, false
	}

	id, ok := find(roots)
	if !ok {
		return nil, false, nil
	}

	handles, err := s.queryHandles(ctx,
		`SELECT i.library_id, i.key FROM collection_items ci
		 JOIN items i ON i.rowid = ci.item_rowid
		 WHERE ci.collection_id = ? ORDER BY ci.position`, id)
	if err != nil {
		return nil, true, err
	}
	return handles, true, nil
}

// Items returns the full records for handles, in the same order.
func (s *Store) Items(ctx context.Context, handles []types.ItemHandle) ([]types.Item, error) {
	items := make([]types.Item, len(handles))
	for i, h := range handles {
		var data string
		err := s.db.QueryRowContext(ctx,
			`SELECT data FROM items WHERE library_id = ? AND key = ?`, h.LibraryID, h.Key,
		).Scan(&data)
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("item %s no longer exists", h)
		}
		if err != nil {
			return nil, fmt.Errorf("loading item %s: %w", h, err)
		}
		if err := json.Unmarshal([]byte(data), &items[i]); err != nil {
			return nil, fmt.Errorf("decoding item %s: %w", h, err)
		}
	}
	return items, nil
}

// ItemsByID is Items for library-qualified ids ("1_ZBZQ4KMP").
func (s *Store) ItemsByID(ctx context.Context, ids []string) ([]types.Item, error) {
	handles := make([]types.ItemHandle, len(ids))
	for i, id := range ids {
		lib, key := types.SplitLibraryKey(id)
		if lib == 0 {
			lib = s.userLibraryID
		}
		handles[i] = types.ItemHandle{LibraryID: lib, Key: key}
	}
	return s.Items(ctx, handles)
}

// Count returns the number of items in the store.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM items`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting items: %w", err)
	}
	return n, nil
}

func (s *Store) queryHandles(ctx context.Context, query string, args ...any) ([]types.ItemHandle, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying items: %w", err)
	}
	defer rows.Close()

	var handles []types.ItemHandle
	for rows.Next() {
		var h types.ItemHandle
		if err := rows.Scan(&h.LibraryID, &h.Key); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		handles = append(handles, h)
	}
	return handles, rows.Err()
}

func containsPattern(s string) string {
	return "%" + escapeLike(easykey.Fold(s)) + "%"
}

// tokenPattern matches easy-key tokens against the token-folded creator and
// title columns.
func tokenPattern(s string) string {
	return "%" + escapeLike(easykey.FoldToken(s)) + "%"
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
