package adapters

import (
	"context"
	"net/url"

	"github.com/morezero/bulk-actions/pkg/dispatcher"
	"github.com/morezero/bulk-actions/pkg/feedback"
)

// CollectFunc extends the action menu the host is building.
type CollectFunc func(ctx context.Context, actor dispatcher.Actor, menu []dispatcher.Available) []dispatcher.Available

// DispatchFunc handles a submitted bulk action and returns the (possibly
// rewritten) redirect destination. handled reports whether the callback ran the
// action, whatever it did to the destination.
type DispatchFunc func(ctx context.Context, redirectTo, action string, ids []interface{}, actor dispatcher.Actor) (redirect string, handled bool)

// NoticeFunc renders the notice for a completed action on screen, or nil.
type NoticeFunc func(ctx context.Context, screen string, query url.Values) *feedback.Notice

// Host is the admin framework's hook registry.
type Host interface {
	AddCollectFilter(hook string, fn CollectFunc)
	AddDispatchFilter(hook string, fn DispatchFunc)
	AddNoticeAction(hook string, fn NoticeFunc)
}
