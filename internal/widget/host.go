// Package widget mounts a publication list view onto a host surface.
//
// A Host maps mount ids such as "#terminal" to Surfaces. Mount resolves the id, loads
// the initial data from the publications API, builds the query controller and hands it
// to the surface, which renders snapshots until it returns.
package widget

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/samber/lo"

	"github.com/rshade/pubscope/internal/controller"
	"github.com/rshade/pubscope/internal/model"
)

// View carries the read-only data a surface needs besides the controller.
type View struct {
	Types     model.Vocabulary
	Projects  model.Vocabulary
	ShowDates bool
	BaseURL   string
}

// Surface renders a controller. Attach blocks until the surface is done.
type Surface interface {
	Attach(ctx context.Context, c *controller.Controller, view View) error
}

// SurfaceFunc adapts a function to Surface.
type SurfaceFunc func(ctx context.Context, c *controller.Controller, view View) error

// Attach calls f.
func (f SurfaceFunc) Attach(ctx context.Context, c *controller.Controller, view View) error {
	return f(ctx, c, view)
}

// Host is a registry of mount points local to one program.
type Host struct {
	mu       sync.RWMutex
	surfaces map[string]Surface
}

// NewHost returns an empty host.
func NewHost() *Host {
	return &Host{surfaces: map[string]Surface{}}
}

// Register binds id to s, replacing any previous binding.
func (h *Host) Register(id string, s Surface) error {
	if !strings.HasPrefix(id, "#") || len(id) < 2 {
		return &ConfigurationError{Mount: id, Err: ErrInvalidMount}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.surfaces[id] = s
	return nil
}

// Lookup resolves id.
func (h *Host) Lookup(id string) (Surface, error) {
	if !strings.HasPrefix(id, "#") {
		return nil, &ConfigurationError{Mount: id, Err: ErrInvalidMount}
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.surfaces[id]
	if !ok {
		return nil, &ConfigurationError{Mount: id, Err: ErrMountNotFound}
	}
	return s, nil
}

// Mounts lists the registered ids in sorted order.
func (h *Host) Mounts() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := lo.Keys(h.surfaces)
	slices.Sort(ids)
	return ids
}
