// Package dispatcher lists the bulk actions an actor may run and executes them.
package dispatcher

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/morezero/bulk-actions/pkg/events"
	"github.com/morezero/bulk-actions/pkg/registry"
)

const logPrefix = "dispatcher:dispatch"

// Options configures a Dispatcher.
type Options struct {
	// LooseIdentifiers coerces non-numeric IDs to 0 instead of failing the dispatch.
	LooseIdentifiers bool
}

// Dispatcher routes bulk action requests to registered handlers.
type Dispatcher struct {
	registry  *registry.Registry
	publisher events.EventPublisher
	opts      Options
	now       func() time.Time
}

// NewDispatcherParams holds parameters for NewDispatcher.
type NewDispatcherParams struct {
	Registry  *registry.Registry
	Publisher events.EventPublisher
	Options   Options
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(params NewDispatcherParams) *Dispatcher {
	pub := params.Publisher
	if pub == nil {
		pub = &events.NoOpPublisher{}
	}
	return &Dispatcher{
		registry:  params.Registry,
		publisher: pub,
		opts:      params.Options,
		now:       time.Now,
	}
}

// Available is one selectable entry of a bulk action menu.
type Available struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// ListAvailable returns the actions in scope that actor may perform, in
// registration order.
func (d *Dispatcher) ListAvailable(_ context.Context, scope registry.Scope, actor Actor) []Available {
	actions := d.registry.List(scope)
	out := make([]Available, 0, actions.Len())
	for _, def := range actions.All() {
		if !allowed(actor, def.Capability) {
			continue
		}
		out = append(out, Available{Key: def.Key, Label: def.Label})
	}
	return out
}

// LabelMap converts a ListAvailable result into key → label.
func LabelMap(available []Available) map[string]string {
	m := make(map[string]string, len(available))
	for _, a := range available {
		m[a.Key] = a.Label
	}
	return m
}

// Dispatch runs action key in scope over rawIDs on behalf of actor. Unknown,
// forbidden and handler-less actions are Unhandled. Handler errors and panics
// become a Failed outcome; they never propagate.
func (d *Dispatcher) Dispatch(ctx context.Context, scope registry.Scope, key string, rawIDs []interface{}, actor Actor) Outcome {
	def, ok := d.registry.Lookup(scope, key)
	if !ok {
		slog.Debug(fmt.Sprintf("%s - %s not registered in %s", logPrefix, key, scope))
		return Outcome{Status: Unhandled}
	}
	if !allowed(actor, def.Capability) {
		slog.Debug(fmt.Sprintf("%s - actor lacks %s for %s in %s", logPrefix, def.Capability, key, scope))
		return Outcome{Status: Unhandled}
	}
	if !def.Invocable() {
		return Outcome{Status: Unhandled}
	}

	ids, err := ParseIDs(rawIDs, d.opts.LooseIdentifiers)
	if err != nil {
		slog.Warn(fmt.Sprintf("%s - %s in %s: %v", logPrefix, key, scope, err))
		outcome := Outcome{Status: Failed, Action: key, Count: len(rawIDs), Message: err.Error(), Error: true}
		d.publish(ctx, scope, nil, outcome, 0)
		return outcome
	}

	start := d.now()
	result, err := invoke(ctx, def.Handler, ids)
	elapsed := d.now().Sub(start)

	var outcome Outcome
	if err != nil {
		slog.Error(fmt.Sprintf("%s - handler %s in %s failed: %v", logPrefix, key, scope, err))
		outcome = Outcome{Status: Failed, Action: key, Count: len(ids), Message: err.Error(), Error: true}
	} else {
		outcome = Outcome{Status: Completed, Action: key, Count: len(ids)}
		if result != nil {
			if result.Message != nil {
				outcome.Message = *result.Message
			}
			if result.Success != nil && !*result.Success {
				outcome.Error = true
			}
		}
		slog.Info(fmt.Sprintf("%s - %s in %s processed %d id(s) in %s", logPrefix, key, scope, len(ids), elapsed))
	}

	d.publish(ctx, scope, ids, outcome, elapsed)
	return outcome
}

// invoke calls h and converts a panic into an error.
func invoke(ctx context.Context, h registry.Handler, ids []int) (result *registry.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Debug(fmt.Sprintf("%s - handler panic stack: %s", logPrefix, debug.Stack()))
			result = nil
			if e, ok := r.(error); ok {
				err = e
				return
			}
			err = fmt.Errorf("%v", r)
		}
	}()
	return h(ctx, ids)
}

func (d *Dispatcher) publish(ctx context.Context, scope registry.Scope, ids []int, o Outcome, elapsed time.Duration) {
	status := events.StatusCompleted
	if o.Status == Failed {
		status = events.StatusFailed
	}
	event := &events.BulkActionEvent{
		ObjectType:    scope.ObjectType,
		ObjectSubtype: scope.ObjectSubtype,
		Action:        o.Action,
		Status:        status,
		Count:         o.Count,
		IDs:           ids,
		Message:       o.Message,
		ActorID:       actorID(ctx),
		DurationMs:    elapsed.Milliseconds(),
		Timestamp:     d.now().UTC().Format(time.RFC3339),
	}
	if err := d.publisher.PublishDispatched(ctx, event); err != nil {
		slog.Warn(fmt.Sprintf("%s - failed to publish dispatch event: %v", logPrefix, err))
	}
}
