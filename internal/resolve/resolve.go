// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resolve maps keys to library items. A key resolves to exactly one
// item or fails: zero matches is NotFound, more than one is Ambiguous. The
// resolver never picks the first of several matches.
package resolve

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/cite-engine/internal/apperr"
	"github.com/pdiddy/cite-engine/internal/easykey"
	"github.com/pdiddy/cite-engine/pkg/types"
)

// Scheme names the kind of key being resolved.
type Scheme int

const (
	// SchemeKey is a library key, "1_ABCD1234" or "ABCD1234".
	SchemeKey Scheme = iota
	// SchemeEasyKey is an easy key in either surface form.
	SchemeEasyKey
	// SchemeCiteKey is a third-party citation key.
	SchemeCiteKey
)

func (s Scheme) String() string {
	switch s {
	case SchemeKey:
		return "key"
	case SchemeEasyKey:
		return "easykey"
	case SchemeCiteKey:
		return "citekey"
	default:
		return fmt.Sprintf("Scheme(%d)", int(s))
	}
}

// Finder is the store lookup the resolver delegates to.
type Finder interface {
	FindByEasyKey(ctx context.Context, key easykey.Key) ([]types.ItemHandle, error)
	FindByKey(ctx context.Context, key string) ([]types.ItemHandle, error)
	FindByCiteKey(ctx context.Context, citekey string) ([]types.ItemHandle, error)
}

// Status classifies an Outcome.
type Status int

const (
	Found Status = iota
	NotFound
	Ambiguous
)

func (s Status) String() string {
	switch s {
	case Found:
		return "found"
	case NotFound:
		return "not_found"
	default:
		return "ambiguous"
	}
}

// Outcome is the classified result of one lookup.
type Outcome struct {
	Status Status
	Scheme Scheme
	Query  string
	Items  []types.ItemHandle
	Count  int
}

// Err returns nil for Found and the user-facing error otherwise.
func (o Outcome) Err() error {
	switch o.Status {
	case Found:
		return nil
	case Ambiguous:
		return apperr.Ambiguous(o.Query, o.Count)
	default:
		if o.Scheme == SchemeKey {
			return apperr.KeyNotFound(o.Query)
		}
		return apperr.NoResults(o.Query, nil)
	}
}

// Handle returns the single resolved handle. It is only meaningful for Found.
func (o Outcome) Handle() types.ItemHandle {
	if len(o.Items) == 0 {
		return types.ItemHandle{}
	}
	return o.Items[0]
}

// Resolver resolves keys against a Finder.
type Resolver struct {
	finder         Finder
	maxConcurrency int
}

// New returns a Resolver. maxConcurrency bounds concurrent lookups per batch;
// values below 1 mean unbounded.
func New(finder Finder, maxConcurrency int) *Resolver {
	return &Resolver{finder: finder, maxConcurrency: maxConcurrency}
}

// Resolve looks up raw under scheme and classifies the result. An error is
// returned only when the store itself fails or an easy key does not parse;
// NotFound and Ambiguous are reported through the Outcome.
func (r *Resolver) Resolve(ctx context.Context, raw string, scheme Scheme) (Outcome, error) {
	out := Outcome{Scheme: scheme, Query: raw}

	var (
		handles []types.ItemHandle
		err     error
	)
	switch scheme {
	case SchemeEasyKey:
		k, perr := easykey.Parse(raw)
		if perr != nil {
			resolutions.WithLabelValues(scheme.String(), "malformed").Inc()
			return out, apperr.NoResults(raw, perr)
		}
		handles, err = r.finder.FindByEasyKey(ctx, k)
	case SchemeKey:
		handles, err = r.finder.FindByKey(ctx, raw)
	case SchemeCiteKey:
		handles, err = r.finder.FindByCiteKey(ctx, raw)
	default:
		return out, apperr.Unexpected(fmt.Errorf("unknown key scheme %v", scheme))
	}
	if err != nil {
		resolutions.WithLabelValues(scheme.String(), "error").Inc()
		return out, apperr.Unexpected(fmt.Errorf("looking up %s: %w", raw, err))
	}

	out.Items = handles
	out.Count = len(handles)
	switch {
	case out.Count == 0:
		out.Status = NotFound
	case out.Count > 1:
		out.Status = Ambiguous
	default:
		out.Status = Found
	}
	resolutions.WithLabelValues(scheme.String(), out.Status.String()).Inc()
	return out, nil
}

// ResolveOne resolves raw and returns its single handle, or the error that
// describes why there is not exactly one.
func (r *Resolver) ResolveOne(ctx context.Context, raw string, scheme Scheme) (types.ItemHandle, error) {
	out, err := r.Resolve(ctx, raw, scheme)
	if err != nil {
		return types.ItemHandle{}, err
	}
	if err := out.Err(); err != nil {
		return types.ItemHandle{}, err
	}
	return out.Handle(), nil
}

// Request is one entry of a mixed-scheme batch.
type Request struct {
	Raw    string
	Scheme Scheme
}

// ResolveBatch resolves every key concurrently. The result is in input
// order. If any key fails, the failure of the earliest key in input order
// is returned and no handles are.
func (r *Resolver) ResolveBatch(ctx context.Context, keys []string, scheme Scheme) ([]types.ItemHandle, error) {
	reqs := make([]Request, len(keys))
	for i, k := range keys {
		reqs[i] = Request{Raw: k, Scheme: scheme}
	}
	return r.ResolveAll(ctx, reqs)
}

// ResolveAll is ResolveBatch for requests that may mix schemes.
func (r *Resolver) ResolveAll(ctx context.Context, reqs []Request) ([]types.ItemHandle, error) {
	handles := make([]types.ItemHandle, len(reqs))
	errs := make([]error, len(reqs))

	// Lookups are not cancelled on the first failure: the reported error
	// must be the earliest in input order, not the earliest to finish.
	var g errgroup.Group
	if r.maxConcurrency > 0 {
		g.SetLimit(r.maxConcurrency)
	}
	for i, req := range reqs {
		g.Go(func() error {
			handles[i], errs[i] = r.ResolveOne(ctx, req.Raw, req.Scheme)
			return nil
		})
	}
	_ = g.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return handles, nil
}
