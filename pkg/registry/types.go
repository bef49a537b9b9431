// Package registry holds the bulk action definitions registered per object scope.
package registry

import (
	"context"
	"errors"
)

// DefaultCapability is the permission token applied when a definition omits one.
// It is the most privileged built-in token of the host admin.
const DefaultCapability = "manage_options"

// Error codes returned by registration.
const (
	CodeInvalidKey        = "INVALID_KEY"
	CodeMissingObjectType = "MISSING_OBJECT_TYPE"
)

// Scope identifies where an action is registered: an object type ("post", "user",
// "term", "comment", "attachment") and its subtype (post type, taxonomy, or a
// fixed literal for types without subtypes).
type Scope struct {
	ObjectType    string `json:"objectType"`
	ObjectSubtype string `json:"objectSubtype"`
}

// String returns "type/subtype".
func (s Scope) String() string {
	return s.ObjectType + "/" + s.ObjectSubtype
}

// Result is what a handler may return to customise the notice.
// A nil *Result means success with no custom message.
type Result struct {
	Message *string `json:"message,omitempty"`
	// Success nil means success.
	Success *bool `json:"success,omitempty"`
}

// Message builds a Result carrying only a message.
func Message(msg string) *Result {
	return &Result{Message: &msg}
}

// Failure builds a Result that marks the run as unsuccessful with the given message.
func Failure(msg string) *Result {
	ok := false
	return &Result{Message: &msg, Success: &ok}
}

// Handler performs a bulk action over the selected object IDs.
type Handler func(ctx context.Context, ids []int) (*Result, error)

// ActionDefinition is a fully defaulted action stored in the registry.
type ActionDefinition struct {
	Key        string  `json:"key"`
	Label      string  `json:"label"`
	Capability string  `json:"capability"`
	Handler    Handler `json:"-"`
}

// Invocable reports whether dispatching this action would call anything.
func (d ActionDefinition) Invocable() bool {
	return d.Handler != nil
}

// PartialDefinition is the caller-supplied configuration for one action.
// Nil fields are filled from defaults by AddActions.
type PartialDefinition struct {
	Label      *string `json:"label,omitempty"`
	Capability *string `json:"capability,omitempty"`
	Handler    Handler `json:"-"`
}

// Entry pairs an action key with its partial definition. AddActions takes a
// slice of entries so registration order is the caller's order.
type Entry struct {
	Key    string
	Action PartialDefinition
}

// RegistryError is a structured configuration error from the registry.
type RegistryError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (e *RegistryError) Error() string {
	return e.Code + ": " + e.Message
}

// NewRegistryError creates a new RegistryError.
func NewRegistryError(code, message string) *RegistryError {
	return &RegistryError{Code: code, Message: message}
}

// IsCode reports whether err is a *RegistryError with the given code.
func IsCode(err error, code string) bool {
	var regErr *RegistryError
	return errors.As(err, &regErr) && regErr.Code == code
}
