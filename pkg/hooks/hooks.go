// Package hooks is an in-process implementation of the admin host's filter and
// action chains, used by the HTTP and COMMS surfaces.
package hooks

import (
	"context"
	"net/url"
	"sort"
	"sync"

	"github.com/morezero/bulk-actions/pkg/adapters"
	"github.com/morezero/bulk-actions/pkg/dispatcher"
	"github.com/morezero/bulk-actions/pkg/feedback"
)

// Hooks stores callbacks per hook name and runs them in registration order.
type Hooks struct {
	mu       sync.RWMutex
	collect  map[string][]adapters.CollectFunc
	dispatch map[string][]adapters.DispatchFunc
	notices  map[string][]adapters.NoticeFunc
}

// New creates an empty Hooks.
func New() *Hooks {
	return &Hooks{
		collect:  make(map[string][]adapters.CollectFunc),
		dispatch: make(map[string][]adapters.DispatchFunc),
		notices:  make(map[string][]adapters.NoticeFunc),
	}
}

// AddCollectFilter implements adapters.Host.
func (h *Hooks) AddCollectFilter(hook string, fn adapters.CollectFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.collect[hook] = append(h.collect[hook], fn)
}

// AddDispatchFilter implements adapters.Host.
func (h *Hooks) AddDispatchFilter(hook string, fn adapters.DispatchFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dispatch[hook] = append(h.dispatch[hook], fn)
}

// AddNoticeAction implements adapters.Host.
func (h *Hooks) AddNoticeAction(hook string, fn adapters.NoticeFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.notices[hook] = append(h.notices[hook], fn)
}

// Menu runs the collect chain for screen, starting from an empty menu.
func (h *Hooks) Menu(ctx context.Context, screen string, actor dispatcher.Actor) []dispatcher.Available {
	h.mu.RLock()
	chain := h.collect[adapters.CollectHook(screen)]
	h.mu.RUnlock()

	menu := []dispatcher.Available{}
	for _, fn := range chain {
		menu = fn(ctx, actor, menu)
	}
	return menu
}

// Submit runs the dispatch chain for screen. Each callback sees the redirect
// returned by the one before it. handled is true when any callback ran the action.
func (h *Hooks) Submit(ctx context.Context, screen, redirectTo, action string, ids []interface{}, actor dispatcher.Actor) (redirect string, handled bool) {
	h.mu.RLock()
	chain := h.dispatch[adapters.DispatchHook(screen)]
	h.mu.RUnlock()

	redirect = redirectTo
	for _, fn := range chain {
		var ok bool
		redirect, ok = fn(ctx, redirect, action, ids, actor)
		handled = handled || ok
	}
	return redirect, handled
}

// Notices runs the notice actions for screen and returns what they produced.
func (h *Hooks) Notices(ctx context.Context, screen string, query url.Values) []*feedback.Notice {
	h.mu.RLock()
	chain := h.notices[adapters.HookNotices]
	h.mu.RUnlock()

	var out []*feedback.Notice
	for _, fn := range chain {
		if n := fn(ctx, screen, query); n != nil {
			out = append(out, n)
		}
	}
	return out
}

// HasScreen reports whether any dispatch filter is attached to screen.
func (h *Hooks) HasScreen(screen string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.dispatch[adapters.DispatchHook(screen)]) > 0
}

// Names returns every hook name with at least one callback, sorted.
func (h *Hooks) Names() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var names []string
	for n := range h.collect {
		names = append(names, n)
	}
	for n := range h.dispatch {
		names = append(names, n)
	}
	for n := range h.notices {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of callbacks registered under hook.
func (h *Hooks) Count(hook string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.collect[hook]) + len(h.dispatch[hook]) + len(h.notices[hook])
}
