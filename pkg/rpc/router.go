package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/morezero/bulk-actions/pkg/dispatcher"
	"github.com/morezero/bulk-actions/pkg/hooks"
	"github.com/morezero/bulk-actions/pkg/semver"
)

const logPrefix = "rpc:router"

// Error codes.
const (
	CodeInvalidArgument = "INVALID_ARGUMENT"
	CodeMethodNotFound  = "METHOD_NOT_FOUND"
	CodeVersionMismatch = "VERSION_MISMATCH"
	CodeScreenNotFound  = "SCREEN_NOT_FOUND"
)

// Router routes COMMS requests to the hook host.
type Router struct {
	host *hooks.Hooks
}

// NewRouter creates a new Router.
func NewRouter(host *hooks.Hooks) *Router {
	return &Router{host: host}
}

// Handle routes a request to the matching method and returns a response.
func (r *Router) Handle(ctx context.Context, req *Request) *Response {
	slog.Debug(fmt.Sprintf("%s - method=%s id=%s", logPrefix, req.Method, req.ID))

	if req.Ver != "" {
		ok, err := semver.CheckProtocol(req.Ver)
		if err != nil {
			return errorResponse(req.ID, CodeInvalidArgument, err.Error(), false)
		}
		if !ok {
			return &Response{
				ID: req.ID,
				Ok: false,
				Error: &ErrorDetail{
					Code:    CodeVersionMismatch,
					Message: fmt.Sprintf("protocol %s does not satisfy %s", semver.ProtocolVersion, req.Ver),
					Details: map[string]string{"protocolVersion": semver.ProtocolVersion},
				},
			}
		}
	}

	actor := actorFrom(req.Ctx)
	if req.Ctx != nil && req.Ctx.UserID != "" {
		ctx = dispatcher.WithActorID(ctx, req.Ctx.UserID)
	}

	switch req.Method {
	case "list":
		return r.handleList(ctx, req, actor)
	case "dispatch":
		return r.handleDispatch(ctx, req, actor)
	case "notice":
		return r.handleNotice(ctx, req)
	case "health":
		return r.handleHealth(req)
	default:
		return errorResponse(req.ID, CodeMethodNotFound, fmt.Sprintf("Unknown method: %s", req.Method), false)
	}
}

func (r *Router) handleList(ctx context.Context, req *Request, actor dispatcher.Actor) *Response {
	var p ListParams
	if err := decodeParams(req.Params, &p); err != nil || p.Screen == "" {
		return errorResponse(req.ID, CodeInvalidArgument, "Failed to parse list params", false)
	}

	menu := r.host.Menu(ctx, p.Screen, actor)
	out := ListResult{Screen: p.Screen, Actions: make([]MenuEntry, len(menu))}
	for i, a := range menu {
		out.Actions[i] = MenuEntry{Key: a.Key, Label: a.Label}
	}
	return &Response{ID: req.ID, Ok: true, Result: out}
}

func (r *Router) handleDispatch(ctx context.Context, req *Request, actor dispatcher.Actor) *Response {
	var p DispatchParams
	if err := decodeParams(req.Params, &p); err != nil || p.Screen == "" || p.Action == "" {
		return errorResponse(req.ID, CodeInvalidArgument, "Failed to parse dispatch params", false)
	}
	if !r.host.HasScreen(p.Screen) {
		return errorResponse(req.ID, CodeScreenNotFound, fmt.Sprintf("No bulk actions on screen: %s", p.Screen), false)
	}

	redirect, handled := r.host.Submit(ctx, p.Screen, p.RedirectTo, p.Action, p.IDs, actor)
	return &Response{ID: req.ID, Ok: true, Result: DispatchResult{
		RedirectTo: redirect,
		Handled:    handled,
	}}
}

func (r *Router) handleNotice(ctx context.Context, req *Request) *Response {
	var p NoticeParams
	if err := decodeParams(req.Params, &p); err != nil || p.Screen == "" {
		return errorResponse(req.ID, CodeInvalidArgument, "Failed to parse notice params", false)
	}
	query, err := url.ParseQuery(p.Query)
	if err != nil {
		return errorResponse(req.ID, CodeInvalidArgument, "Invalid notice query", false)
	}

	out := NoticeResult{Notices: []NoticeEntry{}}
	for _, n := range r.host.Notices(ctx, p.Screen, query) {
		out.Notices = append(out.Notices, NoticeEntry{Action: n.Action, Class: n.Class, Text: n.Text, Count: n.Count})
	}
	return &Response{ID: req.ID, Ok: true, Result: out}
}

func (r *Router) handleHealth(req *Request) *Response {
	return &Response{ID: req.ID, Ok: true, Result: HealthResult{
		Status:          "healthy",
		ProtocolVersion: semver.ProtocolVersion,
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
	}}
}

// --- helpers ---

func decodeParams(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return fmt.Errorf("%s - missing params", logPrefix)
	}
	return decodeJSON(raw, v)
}

func errorResponse(id, code, message string, retryable bool) *Response {
	return &Response{
		ID: id,
		Ok: false,
		Error: &ErrorDetail{
			Code:      code,
			Message:   message,
			Retryable: retryable,
		},
	}
}

func actorFrom(invCtx *InvocationContext) dispatcher.Actor {
	if invCtx == nil {
		return dispatcher.Capabilities{}
	}
	return dispatcher.NewCapabilities(invCtx.Capabilities...)
}
