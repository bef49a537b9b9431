package registry

import (
	"fmt"
	"log/slog"
	"regexp"
	"sync"
)

const logPrefix = "registry:registry"

var keyPattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

// Registry maps scopes to their ordered action definitions.
type Registry struct {
	mu     sync.RWMutex
	scopes map[Scope]*scopeActions
}

type scopeActions struct {
	order []string
	defs  map[string]ActionDefinition
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{scopes: make(map[Scope]*scopeActions)}
}

// ValidateKey returns an INVALID_KEY error unless key is a non-empty token of
// lowercase letters, digits, underscores and dashes.
func ValidateKey(key string) error {
	if key == "" {
		return NewRegistryError(CodeInvalidKey, "Invalid action key. It must be a non-empty string.")
	}
	if !keyPattern.MatchString(key) {
		return &RegistryError{
			Code:    CodeInvalidKey,
			Message: fmt.Sprintf("Invalid action key %q. Use lowercase letters, digits, '_' or '-'.", key),
			Details: map[string]string{"key": key},
		}
	}
	return nil
}

// Register inserts def under scope, replacing any definition with the same key.
// A replaced key keeps its original position.
func (r *Registry) Register(scope Scope, def ActionDefinition) error {
	if err := ValidateKey(def.Key); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	sa, ok := r.scopes[scope]
	if !ok {
		sa = &scopeActions{defs: make(map[string]ActionDefinition)}
		r.scopes[scope] = sa
	}
	if _, exists := sa.defs[def.Key]; exists {
		slog.Debug(fmt.Sprintf("%s - overwriting %s in %s", logPrefix, def.Key, scope))
	} else {
		sa.order = append(sa.order, def.Key)
	}
	sa.defs[def.Key] = def
	return nil
}

// List returns a snapshot of the actions registered under scope. Unknown
// scopes yield an empty snapshot.
func (r *Registry) List(scope Scope) *Actions {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sa, ok := r.scopes[scope]
	if !ok {
		return &Actions{}
	}
	out := &Actions{
		defs: make([]ActionDefinition, 0, len(sa.order)),
		idx:  make(map[string]int, len(sa.order)),
	}
	for i, key := range sa.order {
		out.defs = append(out.defs, sa.defs[key])
		out.idx[key] = i
	}
	return out
}

// Lookup returns the definition registered for key under scope.
func (r *Registry) Lookup(scope Scope, key string) (ActionDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sa, ok := r.scopes[scope]
	if !ok {
		return ActionDefinition{}, false
	}
	def, ok := sa.defs[key]
	return def, ok
}

// Scopes returns every scope that has at least one action.
func (r *Registry) Scopes() []Scope {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Scope, 0, len(r.scopes))
	for s := range r.scopes {
		out = append(out, s)
	}
	return out
}

// Actions is an immutable, ordered view of one scope's definitions.
type Actions struct {
	defs []ActionDefinition
	idx  map[string]int
}

// Len returns the number of actions.
func (a *Actions) Len() int {
	return len(a.defs)
}

// Has reports whether key is present.
func (a *Actions) Has(key string) bool {
	_, ok := a.idx[key]
	return ok
}

// Get returns the definition for key.
func (a *Actions) Get(key string) (ActionDefinition, bool) {
	i, ok := a.idx[key]
	if !ok {
		return ActionDefinition{}, false
	}
	return a.defs[i], true
}

// All returns the definitions in registration order. The slice is a copy.
func (a *Actions) All() []ActionDefinition {
	out := make([]ActionDefinition, len(a.defs))
	copy(out, a.defs)
	return out
}

// Keys returns the action keys in registration order.
func (a *Actions) Keys() []string {
	out := make([]string, len(a.defs))
	for i, d := range a.defs {
		out[i] = d.Key
	}
	return out
}
