// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package library

import (
	"context"
	"sync"

	"github.com/pdiddy/cite-engine/pkg/types"
)

// Pane is the process-local stand-in for the reference manager's item pane.
// It holds the current selection; Reveal focuses an item and makes it the
// selection, as clicking it in a UI would.
type Pane struct {
	mu       sync.RWMutex
	selected []types.ItemHandle
}

// NewPane returns a pane with an empty selection.
func NewPane() *Pane {
	return &Pane{}
}

// Selected returns a snapshot of the current selection.
func (p *Pane) Selected(_ context.Context) ([]types.ItemHandle, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]types.ItemHandle(nil), p.selected...), nil
}

// Reveal selects h.
func (p *Pane) Reveal(_ context.Context, h types.ItemHandle) error {
	p.mu.Lock()
	p.selected = []types.ItemHandle{h}
	p.mu.Unlock()
	return nil
}

// Select replaces the selection with hs.
func (p *Pane) Select(hs []types.ItemHandle) {
	p.mu.Lock()
	p.selected = append([]types.ItemHandle(nil), hs...)
	p.mu.Unlock()
}
