package adapters

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"github.com/morezero/bulk-actions/pkg/dispatcher"
	"github.com/morezero/bulk-actions/pkg/feedback"
	"github.com/morezero/bulk-actions/pkg/registry"
)

const logPrefix = "adapters:wiring"

var (
	// ErrActivated is returned when registering after Activate.
	ErrActivated = errors.New("adapters: wiring already activated")
	// ErrNoSubtypes is returned when a subtype-bearing adapter gets none.
	ErrNoSubtypes = errors.New("adapters: at least one subtype is required")
)

// Binding is one scope wired onto one admin screen.
type Binding struct {
	Adapter Adapter
	Subtype string
}

// Scope returns the binding's registry scope.
func (b Binding) Scope() registry.Scope {
	return b.Adapter.Scope(b.Subtype)
}

// Screen returns the binding's admin screen ID.
func (b Binding) Screen() string {
	return b.Adapter.Screen(b.Subtype)
}

// Wiring collects registrations during startup and attaches them to a host
// once, in Activate.
type Wiring struct {
	mu        sync.Mutex
	registry  *registry.Registry
	disp      *dispatcher.Dispatcher
	bindings  []Binding
	bound     map[registry.Scope]bool
	activated bool
}

// NewWiring creates a Wiring over the shared registry and dispatcher.
func NewWiring(reg *registry.Registry, disp *dispatcher.Dispatcher) *Wiring {
	return &Wiring{
		registry: reg,
		disp:     disp,
		bound:    make(map[registry.Scope]bool),
	}
}

// Register adds entries for every subtype of adapter a.
func (w *Wiring) Register(a Adapter, subtypes []string, entries []registry.Entry) error {
	if err := a.Validate(); err != nil {
		return err
	}
	subtypes = a.Subtypes(subtypes)
	if len(subtypes) == 0 {
		return ErrNoSubtypes
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.activated {
		return ErrActivated
	}

	for _, st := range subtypes {
		// Bind first: entries before an invalid key stay registered and must be wired.
		scope := a.Scope(st)
		if !w.bound[scope] {
			w.bound[scope] = true
			w.bindings = append(w.bindings, Binding{Adapter: a, Subtype: st})
		}
		if err := w.registry.AddActions(scope, entries); err != nil {
			return fmt.Errorf("%s - %s: %w", logPrefix, scope, err)
		}
	}
	return nil
}

// RegisterPostBulkActions registers entries for each post type.
func (w *Wiring) RegisterPostBulkActions(postTypes []string, entries []registry.Entry) error {
	return w.Register(Post, postTypes, entries)
}

// RegisterUserBulkActions registers entries on the users screen.
func (w *Wiring) RegisterUserBulkActions(entries []registry.Entry) error {
	return w.Register(User, nil, entries)
}

// RegisterTaxonomyBulkActions registers entries for each taxonomy.
func (w *Wiring) RegisterTaxonomyBulkActions(taxonomies []string, entries []registry.Entry) error {
	return w.Register(Taxonomy, taxonomies, entries)
}

// RegisterCommentBulkActions registers entries on the comments screen.
func (w *Wiring) RegisterCommentBulkActions(entries []registry.Entry) error {
	return w.Register(Comment, nil, entries)
}

// RegisterMediaBulkActions registers entries on the media library screen.
func (w *Wiring) RegisterMediaBulkActions(entries []registry.Entry) error {
	return w.Register(Media, nil, entries)
}

// Bindings returns the distinct scopes registered so far, in first-seen order.
func (w *Wiring) Bindings() []Binding {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Binding, len(w.bindings))
	copy(out, w.bindings)
	return out
}

// Activate attaches three callbacks per binding to host. It may run once.
func (w *Wiring) Activate(host Host) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.activated {
		return ErrActivated
	}
	w.activated = true

	for _, b := range w.bindings {
		screen := b.Screen()
		host.AddCollectFilter(CollectHook(screen), w.collect(b))
		host.AddDispatchFilter(DispatchHook(screen), w.dispatch(b))
		host.AddNoticeAction(HookNotices, w.notice(b))
	}
	slog.Info(fmt.Sprintf("%s - activated %d binding(s)", logPrefix, len(w.bindings)))
	return nil
}

func (w *Wiring) collect(b Binding) CollectFunc {
	scope := b.Scope()
	return func(ctx context.Context, actor dispatcher.Actor, menu []dispatcher.Available) []dispatcher.Available {
		for _, a := range w.disp.ListAvailable(ctx, scope, actor) {
			menu = mergeMenu(menu, a)
		}
		return menu
	}
}

// mergeMenu sets a in menu, replacing an entry with the same key in place.
func mergeMenu(menu []dispatcher.Available, a dispatcher.Available) []dispatcher.Available {
	for i := range menu {
		if menu[i].Key == a.Key {
			menu[i] = a
			return menu
		}
	}
	return append(menu, a)
}

func (w *Wiring) dispatch(b Binding) DispatchFunc {
	scope := b.Scope()
	return func(ctx context.Context, redirectTo, action string, ids []interface{}, actor dispatcher.Actor) (string, bool) {
		outcome := w.disp.Dispatch(ctx, scope, action, ids, actor)
		return feedback.Encode(outcome, redirectTo), outcome.Handled()
	}
}

func (w *Wiring) notice(b Binding) NoticeFunc {
	scope, own := b.Scope(), b.Screen()
	return func(_ context.Context, screen string, query url.Values) *feedback.Notice {
		if screen != own {
			return nil
		}
		return feedback.Decode(query, w.registry.List(scope))
	}
}
