// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package selector turns request parameters into an ordered list of items.
// Exactly one selector is honoured per request. When several are present
// the first in this order wins:
//
//	key, easykey, betterbibtexkey (alias citekey), collection, selected, all, q
package selector

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/pdiddy/cite-engine/internal/apperr"
	"github.com/pdiddy/cite-engine/internal/library"
	"github.com/pdiddy/cite-engine/internal/resolve"
	"github.com/pdiddy/cite-engine/pkg/types"
)

// Messages returned for missing parameters.
const (
	MsgNoParam       = "No param supplied!"
	MsgQueryRequired = "q param required."
)

// Strategy is the selector chosen for a request.
type Strategy int

const (
	StrategyNone Strategy = iota
	StrategyKey
	StrategyEasyKey
	StrategyCiteKey
	StrategyCollection
	StrategySelected
	StrategyAll
	StrategyQuery
)

func (s Strategy) String() string {
	switch s {
	case StrategyKey:
		return "key"
	case StrategyEasyKey:
		return "easykey"
	case StrategyCiteKey:
		return "betterbibtexkey"
	case StrategyCollection:
		return "collection"
	case StrategySelected:
		return "selected"
	case StrategyAll:
		return "all"
	case StrategyQuery:
		return "q"
	default:
		return "none"
	}
}

// Params are the selector parameters of a request. Empty strings mean
// absent.
type Params struct {
	Key        string
	EasyKey    string
	CiteKey    string
	Collection string
	Selected   bool
	All        bool

	// HasQuery is set when q was supplied, even if empty.
	HasQuery bool
	Query    string
	Method   library.SearchMethod
}

// ParamsFromValues reads Params from URL query values. selected and all
// count when present with any value.
func ParamsFromValues(v url.Values) Params {
	citekey := strings.TrimSpace(v.Get("betterbibtexkey"))
	if citekey == "" {
		citekey = strings.TrimSpace(v.Get("citekey"))
	}
	return Params{
		Key:        strings.TrimSpace(v.Get("key")),
		EasyKey:    strings.TrimSpace(v.Get("easykey")),
		CiteKey:    citekey,
		Collection: v.Get("collection"),
		Selected:   v.Has("selected"),
		All:        v.Has("all"),
		HasQuery:   v.Has("q"),
		Query:      v.Get("q"),
		Method:     library.ParseSearchMethod(v.Get("method")),
	}
}

// Strategy returns the selector that Dispatch will use. A key list that
// holds only separators counts as absent.
func (p Params) Strategy() Strategy {
	switch {
	case hasKeys(p.Key):
		return StrategyKey
	case hasKeys(p.EasyKey):
		return StrategyEasyKey
	case hasKeys(p.CiteKey):
		return StrategyCiteKey
	case p.Collection != "":
		return StrategyCollection
	case p.Selected:
		return StrategySelected
	case p.All:
		return StrategyAll
	case p.HasQuery:
		return StrategyQuery
	default:
		return StrategyNone
	}
}

// Resolver resolves key lists.
type Resolver interface {
	ResolveBatch(ctx context.Context, keys []string, scheme resolve.Scheme) ([]types.ItemHandle, error)
}

// Store answers the structural selectors.
type Store interface {
	CollectionItems(ctx context.Context, name string) ([]types.ItemHandle, bool, error)
	AllItems(ctx context.Context) ([]types.ItemHandle, error)
	Search(ctx context.Context, query string, method library.SearchMethod) ([]types.ItemHandle, error)
}

// Pane is the host UI: its current selection and the ability to reveal an
// item.
type Pane interface {
	Selected(ctx context.Context) ([]types.ItemHandle, error)
	Reveal(ctx context.Context, h types.ItemHandle) error
}

// Dispatcher maps Params to items.
type Dispatcher struct {
	resolver Resolver
	store    Store
	pane     Pane
}

// New returns a Dispatcher.
func New(resolver Resolver, store Store, pane Pane) *Dispatcher {
	return &Dispatcher{resolver: resolver, store: store, pane: pane}
}

// Dispatch returns the items selected by p, in selector order.
func (d *Dispatcher) Dispatch(ctx context.Context, p Params) ([]types.ItemHandle, error) {
	switch p.Strategy() {
	case StrategyKey:
		return d.resolver.ResolveBatch(ctx, SplitKeys(p.Key), resolve.SchemeKey)
	case StrategyEasyKey:
		return d.resolver.ResolveBatch(ctx, SplitKeys(p.EasyKey), resolve.SchemeEasyKey)
	case StrategyCiteKey:
		return d.resolver.ResolveBatch(ctx, SplitKeys(p.CiteKey), resolve.SchemeCiteKey)
	case StrategyCollection:
		hs, ok, err := d.store.CollectionItems(ctx, p.Collection)
		if err != nil {
			return nil, apperr.Unexpected(fmt.Errorf("loading collection %s: %w", p.Collection, err))
		}
		if !ok {
			return nil, apperr.CollectionNotFound(p.Collection)
		}
		return hs, nil
	case StrategySelected:
		hs, err := d.pane.Selected(ctx)
		if err != nil {
			return nil, apperr.Unexpected(fmt.Errorf("reading selection: %w", err))
		}
		return hs, nil
	case StrategyAll:
		hs, err := d.store.AllItems(ctx)
		if err != nil {
			return nil, apperr.Unexpected(fmt.Errorf("listing items: %w", err))
		}
		return hs, nil
	case StrategyQuery:
		if strings.TrimSpace(p.Query) == "" {
			return nil, apperr.UserInput(MsgQueryRequired)
		}
		hs, err := d.store.Search(ctx, p.Query, p.Method)
		if err != nil {
			return nil, apperr.Unexpected(fmt.Errorf("searching %q: %w", p.Query, err))
		}
		return hs, nil
	default:
		return nil, apperr.UserInput(MsgNoParam)
	}
}

// Select resolves the key selectors of p and reveals the first item in the
// pane. Structural selectors are not accepted.
func (d *Dispatcher) Select(ctx context.Context, p Params) (types.ItemHandle, error) {
	switch p.Strategy() {
	case StrategyKey, StrategyEasyKey, StrategyCiteKey:
	default:
		return types.ItemHandle{}, apperr.UserInput(MsgNoParam)
	}

	hs, err := d.Dispatch(ctx, p)
	if err != nil {
		return types.ItemHandle{}, err
	}
	if len(hs) == 0 {
		return types.ItemHandle{}, apperr.UserInput(MsgNoParam)
	}
	if err := d.pane.Reveal(ctx, hs[0]); err != nil {
		return types.ItemHandle{}, apperr.Unexpected(fmt.Errorf("revealing %s: %w", hs[0], err))
	}
	return hs[0], nil
}

func hasKeys(list string) bool {
	return len(SplitKeys(list)) > 0
}

// SplitKeys splits a comma-separated key list. Blank entries are dropped.
func SplitKeys(s string) []string {
	parts := strings.Split(s, ",")
	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			keys = append(keys, p)
		}
	}
	return keys
}
