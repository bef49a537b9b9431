package builtin

import (
	"sort"

	"github.com/morezero/bulk-actions/pkg/registry"
)

// Handler names in the catalog.
const (
	NameMarkFeatured     = "mark_featured"
	NameUnmarkFeatured   = "unmark_featured"
	NameSendWelcome      = "send_welcome"
	NameMarkHelpful      = "mark_helpful"
	NameFeatureTerms     = "feature_terms"
	NameRegenerateThumbs = "regenerate_thumbs"
)

// Catalog resolves handlers by name.
type Catalog map[string]registry.Handler

// NewCatalog returns the catalog of built-in handlers over store.
func NewCatalog(store Store) Catalog {
	h := NewHandlers(store)
	return Catalog{
		NameMarkFeatured:     h.MarkFeatured,
		NameUnmarkFeatured:   h.UnmarkFeatured,
		NameSendWelcome:      h.SendWelcome,
		NameMarkHelpful:      h.MarkHelpful,
		NameFeatureTerms:     h.FeatureTerms,
		NameRegenerateThumbs: h.RegenerateThumbs,
	}
}

// Lookup returns the handler registered under name.
func (c Catalog) Lookup(name string) (registry.Handler, bool) {
	h, ok := c[name]
	return h, ok
}

// Names returns the handler names, sorted.
func (c Catalog) Names() []string {
	out := make([]string, 0, len(c))
	for name := range c {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
