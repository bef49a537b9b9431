package registry

import (
	"fmt"
	"log/slog"
)

const addActionsLogPrefix = "registry:add_actions"

// AddActions defaults and registers each entry under scope, in order. The first
// invalid key aborts the call and is returned; entries before it remain registered.
func (r *Registry) AddActions(scope Scope, entries []Entry) error {
	if scope.ObjectType == "" {
		return NewRegistryError(CodeMissingObjectType, "object type must be set before adding actions")
	}

	for _, e := range entries {
		def := withDefaults(e.Key, e.Action)
		if err := r.Register(scope, def); err != nil {
			slog.Error(fmt.Sprintf("%s - rejected action in %s: %v", addActionsLogPrefix, scope, err))
			return err
		}
	}

	slog.Debug(fmt.Sprintf("%s - registered %d action(s) in %s", addActionsLogPrefix, len(entries), scope))
	return nil
}

func withDefaults(key string, p PartialDefinition) ActionDefinition {
	def := ActionDefinition{
		Key:        key,
		Capability: DefaultCapability,
		Handler:    p.Handler,
	}
	if p.Label != nil {
		def.Label = *p.Label
	}
	if p.Capability != nil {
		def.Capability = *p.Capability
	}
	return def
}

// Action is a convenience constructor for an Entry with every field set.
func Action(key, label, capability string, h Handler) Entry {
	return Entry{
		Key: key,
		Action: PartialDefinition{
			Label:      &label,
			Capability: &capability,
			Handler:    h,
		},
	}
}
