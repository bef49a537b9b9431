package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/morezero/bulk-actions/pkg/commsutil"
	"github.com/morezero/bulk-actions/pkg/dispatcher"
	"github.com/morezero/bulk-actions/pkg/feedback"
	"github.com/morezero/bulk-actions/pkg/rpc"
)

const httpLogPrefix = "server:http"

// Request headers identifying the acting user.
const (
	HeaderUserID       = "X-User-ID"
	HeaderCapabilities = "X-User-Capabilities"
)

const maxBodyBytes = 1 << 20

// HealthChecks holds the individual dependency checks. Nil means not configured.
type HealthChecks struct {
	Comms    *bool `json:"comms,omitempty"`
	Database *bool `json:"database,omitempty"`
	Screens  int   `json:"screens"`
}

// HealthOutput is the body of GET /health.
type HealthOutput struct {
	Status    string       `json:"status"`
	Checks    HealthChecks `json:"checks"`
	Timestamp string       `json:"timestamp"`
}

// Handler builds the chi router for the HTTP surface.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/", s.handleHome())
	r.Get("/health", s.handleHealth)
	r.Get("/ready", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	r.Route("/screens/{screen}", func(r chi.Router) {
		r.Get("/actions", s.handleActions)
		r.Post("/bulk", s.handleBulk)
		r.Get("/notices", s.handleNotices)
	})
	return r
}

// Health checks every configured dependency.
func (s *Server) Health(ctx context.Context) *HealthOutput {
	out := &HealthOutput{
		Status:    "healthy",
		Checks:    HealthChecks{Screens: len(s.wiring.Bindings())},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if s.nc != nil {
		ok := s.nc.IsConnected()
		out.Checks.Comms = &ok
		if !ok {
			out.Status = "unhealthy"
		}
	}
	if s.pool != nil {
		ok := s.pool.Ping(ctx) == nil
		out.Checks.Database = &ok
		if !ok {
			out.Status = "unhealthy"
		}
	}
	return out
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.HealthCheckTimeout)
	defer cancel()

	h := s.Health(ctx)
	status := http.StatusOK
	if h.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, h)
}

func (s *Server) handleActions(w http.ResponseWriter, r *http.Request) {
	screen := chi.URLParam(r, "screen")
	if !s.host.HasScreen(screen) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no bulk actions on screen %q", screen))
		return
	}

	menu := s.host.Menu(r.Context(), screen, actorFromRequest(r))
	out := rpc.ListResult{Screen: screen, Actions: make([]rpc.MenuEntry, len(menu))}
	for i, a := range menu {
		out.Actions[i] = rpc.MenuEntry{Key: a.Key, Label: a.Label}
	}
	writeJSON(w, http.StatusOK, out)
}

// handleBulk accepts either a JSON body {action, ids, redirectTo} answered with
// JSON, or a form post (action, ids, redirect_to) answered with a 303 redirect.
func (s *Server) handleBulk(w http.ResponseWriter, r *http.Request) {
	screen := chi.URLParam(r, "screen")
	if !s.host.HasScreen(screen) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no bulk actions on screen %q", screen))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	ctx := r.Context()
	if id := r.Header.Get(HeaderUserID); id != "" {
		ctx = dispatcher.WithActorID(ctx, id)
	}
	actor := actorFromRequest(r)

	if mt := formType(r); mt != "" {
		var err error
		if mt == "multipart/form-data" {
			err = r.ParseMultipartForm(maxBodyBytes)
		} else {
			err = r.ParseForm()
		}
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid form: %v", err))
			return
		}
		ids := r.PostForm["ids"]
		if len(ids) == 0 {
			ids = r.PostForm["ids[]"]
		}
		target := r.PostForm.Get("redirect_to")
		if target == "" {
			target = r.Referer()
		}
		redirect, _ := s.host.Submit(ctx, screen, safeRedirect(r, target), r.PostForm.Get("action"), dispatcher.StringIDs(ids), actor)
		http.Redirect(w, r, safeRedirect(r, redirect), http.StatusSeeOther)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to read body: %v", err))
		return
	}
	var p rpc.DispatchParams
	if err := commsutil.DecodePayload(body, &p); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if p.Action == "" {
		writeError(w, http.StatusBadRequest, "action is required")
		return
	}

	redirect, handled := s.host.Submit(ctx, screen, p.RedirectTo, p.Action, p.IDs, actor)
	writeJSON(w, http.StatusOK, rpc.DispatchResult{RedirectTo: redirect, Handled: handled})
}

func (s *Server) handleNotices(w http.ResponseWriter, r *http.Request) {
	screen := chi.URLParam(r, "screen")
	notices := s.host.Notices(r.Context(), screen, r.URL.Query())
	if notices == nil {
		notices = []*feedback.Notice{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"notices":  notices,
		"cleanUrl": feedback.Strip(r.URL.RequestURI()),
	})
}

// --- helpers ---

func actorFromRequest(r *http.Request) dispatcher.Capabilities {
	raw := r.Header.Get(HeaderCapabilities)
	if raw == "" {
		return dispatcher.Capabilities{}
	}
	tokens := strings.Split(raw, ",")
	for i := range tokens {
		tokens[i] = strings.TrimSpace(tokens[i])
	}
	return dispatcher.NewCapabilities(tokens...)
}

// formType returns the request's form media type, or "" for anything else.
func formType(r *http.Request) string {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || (mt != "application/x-www-form-urlencoded" && mt != "multipart/form-data") {
		return ""
	}
	return mt
}

// safeRedirect keeps target when it is relative or points at the request's own
// host, and falls back to "/" otherwise.
func safeRedirect(r *http.Request, target string) string {
	if target == "" || strings.ContainsAny(target, "\\\r\n") {
		return "/"
	}
	u, err := url.Parse(target)
	if err != nil {
		return "/"
	}
	if u.Scheme == "" && u.Host == "" && u.Opaque == "" {
		return target
	}
	if (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" && strings.EqualFold(u.Host, r.Host) {
		return target
	}
	slog.Warn(fmt.Sprintf("%s - refusing off-site redirect to %q", httpLogPrefix, target))
	return "/"
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error(fmt.Sprintf("%s - encode response: %v", httpLogPrefix, err))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
