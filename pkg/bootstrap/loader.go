package bootstrap

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/morezero/bulk-actions/pkg/adapters"
	"github.com/morezero/bulk-actions/pkg/registry"
)

const logPrefix = "bootstrap:loader"

// Error codes returned while applying a manifest.
const (
	CodeUnknownAdapter = "UNKNOWN_ADAPTER"
	CodeUnknownHandler = "UNKNOWN_HANDLER"
)

// DefaultManifestPaths are tried when no explicit manifest path is configured.
var DefaultManifestPaths = []string{"config/bulk-actions.json", "bulk-actions.json"}

// HandlerCatalog resolves manifest handler names.
type HandlerCatalog interface {
	Lookup(name string) (registry.Handler, bool)
}

// LoadManifest reads the manifest. An explicit path must exist and parse.
// Without one, the default paths are tried and the built-in manifest is
// returned when none is readable.
func LoadManifest(path string) (*Manifest, error) {
	if path != "" {
		m, err := readManifest(path)
		if err != nil {
			return nil, err
		}
		slog.Info(fmt.Sprintf("%s - Loaded manifest from %s", logPrefix, path))
		return m, nil
	}

	for _, p := range DefaultManifestPaths {
		m, err := readManifest(p)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			slog.Warn(fmt.Sprintf("%s - Skipping manifest %s: %v", logPrefix, p, err))
			continue
		}
		slog.Info(fmt.Sprintf("%s - Loaded manifest from %s", logPrefix, p))
		return m, nil
	}

	slog.Info(fmt.Sprintf("%s - Using default manifest", logPrefix))
	return DefaultManifest(), nil
}

func readManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to read manifest %s: %w", logPrefix, path, err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%s - failed to parse manifest %s: %w", logPrefix, path, err)
	}
	return &m, nil
}

// Apply registers every group of m on w, resolving handlers through catalog.
// It stops at the first group that fails.
func Apply(m *Manifest, w *adapters.Wiring, catalog HandlerCatalog) error {
	for i, g := range m.Groups {
		a, ok := adapters.ByName(g.Adapter)
		if !ok {
			return &registry.RegistryError{
				Code:    CodeUnknownAdapter,
				Message: fmt.Sprintf("group %d: unknown adapter %q", i, g.Adapter),
			}
		}

		entries := make([]registry.Entry, 0, len(g.Actions))
		for _, act := range g.Actions {
			var h registry.Handler
			if act.Handler != "" {
				if h, ok = catalog.Lookup(act.Handler); !ok {
					return &registry.RegistryError{
						Code:    CodeUnknownHandler,
						Message: fmt.Sprintf("group %d: action %q references unknown handler %q", i, act.Key, act.Handler),
					}
				}
			}
			entries = append(entries, registry.Entry{
				Key:    act.Key,
				Action: registry.PartialDefinition{Label: act.Label, Capability: act.Capability, Handler: h},
			})
		}

		if err := w.Register(a, g.Subtypes, entries); err != nil {
			return fmt.Errorf("%s - group %d (%s): %w", logPrefix, i, g.Adapter, err)
		}
	}

	slog.Info(fmt.Sprintf("%s - Applied manifest %s@%s (%d group(s))", logPrefix, m.Name, m.Version, len(m.Groups)))
	return nil
}

func strPtr(s string) *string { return &s }

// DefaultManifest returns the built-in manifest enabling the stock handlers.
func DefaultManifest() *Manifest {
	return &Manifest{
		Name:        "bulk-actions-default",
		Version:     "1.0.0",
		Description: "Stock bulk actions for posts, users, comments, terms and media",
		Groups: []ManifestGroup{
			{
				Adapter:  "post",
				Subtypes: []string{"post"},
				Actions: []ManifestAction{
					{Key: "mark_featured", Label: strPtr("Mark as Featured"), Capability: strPtr("edit_posts"), Handler: "mark_featured"},
					{Key: "unmark_featured", Label: strPtr("Unmark Featured"), Capability: strPtr("edit_posts"), Handler: "unmark_featured"},
				},
			},
			{
				Adapter: "user",
				Actions: []ManifestAction{
					{Key: "send_welcome", Label: strPtr("Send Welcome Email"), Capability: strPtr("edit_users"), Handler: "send_welcome"},
				},
			},
			{
				Adapter: "comment",
				Actions: []ManifestAction{
					{Key: "mark_helpful", Label: strPtr("Mark as Helpful"), Capability: strPtr("moderate_comments"), Handler: "mark_helpful"},
				},
			},
			{
				Adapter:  "taxonomy",
				Subtypes: []string{"category", "post_tag"},
				Actions: []ManifestAction{
					{Key: "feature_terms", Label: strPtr("Mark as Featured"), Capability: strPtr("manage_categories"), Handler: "feature_terms"},
				},
			},
			{
				Adapter: "media",
				Actions: []ManifestAction{
					{Key: "regenerate_thumbs", Label: strPtr("Regenerate Thumbnails"), Capability: strPtr("upload_files"), Handler: "regenerate_thumbs"},
				},
			},
		},
	}
}
