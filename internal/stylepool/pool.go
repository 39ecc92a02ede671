// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package stylepool caches citation engines by (style, locale) and hands
// them out under exclusive leases. Engines carry mutable state between
// calls, so a lease must be held from the first state-changing call until
// the last read of its output. Different (style, locale) pairs never block
// each other.
package stylepool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/pdiddy/cite-engine/internal/apperr"
	"github.com/pdiddy/cite-engine/internal/citeproc"
	"github.com/pdiddy/cite-engine/pkg/types"
)

// Factory creates an engine for a canonical style URL and locale.
type Factory func(styleURL, locale string) (citeproc.Engine, error)

type key struct {
	style  string
	locale string
}

func (k key) String() string { return k.style + "|" + k.locale }

// slot is one cached engine. sem holds a token while the engine is leased.
type slot struct {
	key    key
	engine citeproc.Engine
	sem    chan struct{}
}

// Pool is the engine cache. It is safe for concurrent use.
type Pool struct {
	factory       Factory
	defaultStyle  string
	defaultLocale string
	locale        func(string) string

	mu     sync.Mutex
	slots  map[key]*slot
	flight singleflight.Group
}

// Option configures a Pool.
type Option func(*Pool)

// WithLocaleResolver maps requested locale codes to the installed locale
// that will serve them. Engines are cached under the resolved code, so
// requests for unknown locales share the fallback engine.
func WithLocaleResolver(resolve func(string) string) Option {
	return func(p *Pool) { p.locale = resolve }
}

// New returns an empty pool. Requests that name no style or locale use the
// defaults from cfg.
func New(factory Factory, cfg types.StylesConfig, opts ...Option) *Pool {
	p := &Pool{
		factory:       factory,
		defaultStyle:  cfg.DefaultStyle,
		defaultLocale: cfg.DefaultLocale,
		slots:         make(map[key]*slot),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.defaultStyle == "" {
		p.defaultStyle = "chicago-note-bibliography"
	}
	if p.defaultLocale == "" {
		p.defaultLocale = citeproc.DefaultLocale
	}
	return p
}

// Lease is exclusive access to one engine. Release must be called exactly
// once the caller is done; further calls are no-ops.
type Lease struct {
	slot *slot
	once sync.Once
}

// Engine returns the leased engine.
func (l *Lease) Engine() citeproc.Engine {
	return l.slot.engine
}

// StyleURL returns the canonical style URL of the leased engine.
func (l *Lease) StyleURL() string {
	return l.slot.key.style
}

// Release returns the engine to the pool.
func (l *Lease) Release() {
	l.once.Do(func() { <-l.slot.sem })
}

// Acquire leases the engine for style and locale, creating it on first use.
// It blocks while another request holds the same engine and fails if ctx is
// done first. Unknown styles fail with a not-installed error naming the
// canonical style URL.
func (p *Pool) Acquire(ctx context.Context, style, locale string) (*Lease, error) {
	if style == "" {
		style = p.defaultStyle
	}
	if locale == "" {
		locale = p.defaultLocale
	}
	if p.locale != nil {
		locale = p.locale(locale)
	}
	k := key{style: citeproc.CanonicalStyleURL(style), locale: locale}

	s, err := p.slot(k)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, apperr.Unexpected(fmt.Errorf("waiting for style engine %s: %w", k.style, ctx.Err()))
	}
	leaseWait.WithLabelValues(k.style).Observe(time.Since(start).Seconds())
	return &Lease{slot: s}, nil
}

// Do runs fn with a leased engine and releases it afterwards, also when fn
// fails or panics.
func (p *Pool) Do(ctx context.Context, style, locale string, fn func(citeproc.Engine) error) error {
	l, err := p.Acquire(ctx, style, locale)
	if err != nil {
		return err
	}
	defer l.Release()
	return fn(l.Engine())
}

// Len returns the number of cached engines.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.slots)
}

func (p *Pool) lookup(k key) (*slot, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.slots[k]
	return s, ok
}

// slot returns the cached slot for k, creating the engine once even under
// concurrent first use. Failed creations are not cached.
func (p *Pool) slot(k key) (*slot, error) {
	if s, ok := p.lookup(k); ok {
		return s, nil
	}

	v, err, _ := p.flight.Do(k.String(), func() (any, error) {
		if s, ok := p.lookup(k); ok {
			return s, nil
		}
		e, err := p.factory(k.style, k.locale)
		if err != nil {
			if errors.Is(err, citeproc.ErrStyleNotInstalled) {
				return nil, apperr.StyleNotInstalled(k.style, err)
			}
			return nil, apperr.Unexpected(fmt.Errorf("creating style engine %s: %w", k.style, err))
		}
		s := &slot{key: k, engine: e, sem: make(chan struct{}, 1)}
		p.mu.Lock()
		p.slots[k] = s
		p.mu.Unlock()
		enginesCreated.WithLabelValues(k.style).Inc()
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*slot), nil
}
