package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/morezero/bulk-actions/pkg/db"
	"github.com/morezero/bulk-actions/pkg/registry"
)

const logPrefix = "builtin:handlers"

// Meta keys written by the handlers.
const (
	MetaFeatured   = "_featured"
	MetaHelpful    = "_helpful"
	MetaThumbnails = "_thumbnails"
)

// StatusPublish is the only post status mark_featured touches.
const StatusPublish = "publish"

// ThumbnailSizes are the renditions recorded by regenerate_thumbs.
var ThumbnailSizes = []string{"thumbnail", "medium", "large"}

// Handlers builds handlers over a Store.
type Handlers struct {
	store Store
	now   func() time.Time
}

// NewHandlers creates Handlers backed by store.
func NewHandlers(store Store) *Handlers {
	return &Handlers{store: store, now: time.Now}
}

// MarkFeatured flags published posts as featured and skips the rest.
func (h *Handlers) MarkFeatured(ctx context.Context, ids []int) (*registry.Result, error) {
	objs, err := h.store.GetObjects(ctx, "post", ids)
	if err != nil {
		return nil, err
	}
	var published []int
	for _, id := range ids {
		if o, ok := objs[id]; ok && o.Status == StatusPublish {
			published = append(published, id)
		}
	}
	n, err := h.store.SetMeta(ctx, "post", published, MetaFeatured, "1")
	if err != nil {
		return nil, err
	}
	return registry.Message(fmt.Sprintf("%d post(s) marked as featured", n)), nil
}

// UnmarkFeatured clears the featured flag. The message counts the selection.
func (h *Handlers) UnmarkFeatured(ctx context.Context, ids []int) (*registry.Result, error) {
	if _, err := h.store.DeleteMeta(ctx, "post", ids, MetaFeatured); err != nil {
		return nil, err
	}
	return registry.Message(fmt.Sprintf("%d post(s) unmarked", len(ids))), nil
}

// SendWelcome queues a welcome mail for every known user with an address.
func (h *Handlers) SendWelcome(ctx context.Context, ids []int) (*registry.Result, error) {
	users, err := h.store.GetObjects(ctx, "user", ids)
	if err != nil {
		return nil, err
	}
	sent := 0
	for _, id := range ids {
		u, ok := users[id]
		if !ok || strings.TrimSpace(u.Email) == "" {
			continue
		}
		uid := id
		if _, err := h.store.EnqueueMail(ctx, &db.Mail{
			Recipient: u.Email,
			Subject:   "Welcome!",
			Body:      "Welcome message",
			ObjectID:  &uid,
		}); err != nil {
			slog.Warn(fmt.Sprintf("%s - welcome mail for user %d not queued: %v", logPrefix, id, err))
			continue
		}
		sent++
	}
	return registry.Message(fmt.Sprintf("Welcome email sent to %d user(s)", sent)), nil
}

// MarkHelpful flags comments as helpful.
func (h *Handlers) MarkHelpful(ctx context.Context, ids []int) (*registry.Result, error) {
	if _, err := h.store.SetMeta(ctx, "comment", ids, MetaHelpful, "1"); err != nil {
		return nil, err
	}
	return registry.Message(fmt.Sprintf("%d comment(s) marked as helpful", len(ids))), nil
}

// FeatureTerms flags terms as featured.
func (h *Handlers) FeatureTerms(ctx context.Context, ids []int) (*registry.Result, error) {
	if _, err := h.store.SetMeta(ctx, "term", ids, MetaFeatured, "1"); err != nil {
		return nil, err
	}
	return registry.Message(fmt.Sprintf("%d term(s) marked as featured", len(ids))), nil
}

type thumbnailMeta struct {
	Sizes       []string `json:"sizes"`
	Regenerated string   `json:"regenerated"`
}

// RegenerateThumbs records fresh rendition metadata for image attachments.
func (h *Handlers) RegenerateThumbs(ctx context.Context, ids []int) (*registry.Result, error) {
	objs, err := h.store.GetObjects(ctx, "attachment", ids)
	if err != nil {
		return nil, err
	}
	var images []int
	for _, id := range ids {
		if o, ok := objs[id]; ok && IsImage(o.MimeType) {
			images = append(images, id)
		}
	}

	meta, err := json.Marshal(thumbnailMeta{Sizes: ThumbnailSizes, Regenerated: h.now().UTC().Format(time.RFC3339)})
	if err != nil {
		return nil, err
	}
	n, err := h.store.SetMeta(ctx, "attachment", images, MetaThumbnails, string(meta))
	if err != nil {
		return nil, err
	}
	return registry.Message(fmt.Sprintf("Regenerated thumbnails for %d image(s)", n)), nil
}

// IsImage reports whether mimeType is a raster image type thumbnails can be
// made from.
func IsImage(mimeType string) bool {
	switch strings.ToLower(strings.TrimSpace(mimeType)) {
	case "image/jpeg", "image/png", "image/gif", "image/webp", "image/bmp", "image/tiff":
		return true
	}
	return false
}
