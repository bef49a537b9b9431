package dispatcher

// Actor is the permission oracle for the current user.
type Actor interface {
	HasCapability(capability string) bool
}

// ActorFunc adapts a function to the Actor interface.
type ActorFunc func(capability string) bool

// HasCapability calls f.
func (f ActorFunc) HasCapability(capability string) bool {
	return f(capability)
}

// Capabilities is a fixed set of granted capability tokens.
type Capabilities map[string]bool

// NewCapabilities builds a Capabilities set from tokens.
func NewCapabilities(tokens ...string) Capabilities {
	c := make(Capabilities, len(tokens))
	for _, tok := range tokens {
		if tok != "" {
			c[tok] = true
		}
	}
	return c
}

// HasCapability reports whether capability was granted.
func (c Capabilities) HasCapability(capability string) bool {
	return c[capability]
}

// allowed treats an empty capability as open to everyone; a nil actor holds nothing.
func allowed(actor Actor, capability string) bool {
	if capability == "" {
		return true
	}
	if actor == nil {
		return false
	}
	return actor.HasCapability(capability)
}
