// Package adapters binds object types to the host admin screens and wires the
// registry and dispatcher into the host's hook points.
package adapters

import (
	"fmt"
	"strings"

	"github.com/morezero/bulk-actions/pkg/registry"
)

const subtypePlaceholder = "{subtype}"

// Adapter describes one object type: its registry type string and the admin
// screen its list table lives on.
type Adapter struct {
	Name           string
	ObjectType     string
	ScreenTemplate string
	// FixedSubtype is set for object types without subtypes.
	FixedSubtype string
}

// The closed set of supported object types.
var (
	Post     = Adapter{Name: "post", ObjectType: "post", ScreenTemplate: "edit-" + subtypePlaceholder}
	User     = Adapter{Name: "user", ObjectType: "user", ScreenTemplate: "users", FixedSubtype: "user"}
	Taxonomy = Adapter{Name: "taxonomy", ObjectType: "term", ScreenTemplate: "edit-" + subtypePlaceholder}
	Comment  = Adapter{Name: "comment", ObjectType: "comment", ScreenTemplate: "edit-comments", FixedSubtype: "comment"}
	Media    = Adapter{Name: "media", ObjectType: "attachment", ScreenTemplate: "upload", FixedSubtype: "attachment"}
)

// All returns every adapter.
func All() []Adapter {
	return []Adapter{Post, User, Taxonomy, Comment, Media}
}

// ByName finds an adapter by its name ("post", "user", "taxonomy", "comment", "media").
func ByName(name string) (Adapter, bool) {
	for _, a := range All() {
		if a.Name == name {
			return a, true
		}
	}
	return Adapter{}, false
}

// Validate fails with MISSING_OBJECT_TYPE when the adapter declares no object type.
func (a Adapter) Validate() error {
	if a.ObjectType == "" {
		return &registry.RegistryError{
			Code:    registry.CodeMissingObjectType,
			Message: fmt.Sprintf("adapter %q must declare an object type", a.Name),
		}
	}
	return nil
}

// Subtypes returns the subtypes to register under: the fixed one if any,
// otherwise the caller's list.
func (a Adapter) Subtypes(requested []string) []string {
	if a.FixedSubtype != "" {
		return []string{a.FixedSubtype}
	}
	return requested
}

// Scope returns the registry scope for subtype.
func (a Adapter) Scope(subtype string) registry.Scope {
	return registry.Scope{ObjectType: a.ObjectType, ObjectSubtype: subtype}
}

// Screen returns the admin screen ID for subtype, e.g. "edit-page" or "users".
func (a Adapter) Screen(subtype string) string {
	return strings.ReplaceAll(a.ScreenTemplate, subtypePlaceholder, subtype)
}

// Hook names used by the host.
const HookNotices = "admin_notices"

// CollectHook is the filter that builds the bulk action menu for screen.
func CollectHook(screen string) string {
	return "bulk_actions-" + screen
}

// DispatchHook is the filter that handles a submitted bulk action on screen.
func DispatchHook(screen string) string {
	return "handle_bulk_actions-" + screen
}
