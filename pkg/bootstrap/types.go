// Package bootstrap loads the action manifest that declares which bulk actions
// a deployment enables, and applies it to the adapter wiring.
package bootstrap

// ManifestAction declares one action. A nil Capability takes the registry
// default; an empty Handler registers an action that is listed but inert.
type ManifestAction struct {
	Key        string  `json:"key"`
	Label      *string `json:"label,omitempty"`
	Capability *string `json:"capability,omitempty"`
	Handler    string  `json:"handler,omitempty"`
}

// ManifestGroup declares actions for one adapter and its subtypes. Subtypes
// are ignored for adapters with a fixed subtype (user, comment, media).
type ManifestGroup struct {
	Adapter  string           `json:"adapter"`
	Subtypes []string         `json:"subtypes,omitempty"`
	Actions  []ManifestAction `json:"actions"`
}

// Manifest is the root of an action manifest file.
type Manifest struct {
	Name        string          `json:"name"`
	Version     string          `json:"version"`
	Description string          `json:"description,omitempty"`
	Groups      []ManifestGroup `json:"groups"`
}

// HandlerNames returns every handler the manifest references, in first-seen order.
func (m *Manifest) HandlerNames() []string {
	seen := make(map[string]bool)
	var out []string
	for _, g := range m.Groups {
		for _, a := range g.Actions {
			if a.Handler != "" && !seen[a.Handler] {
				seen[a.Handler] = true
				out = append(out, a.Handler)
			}
		}
	}
	return out
}
