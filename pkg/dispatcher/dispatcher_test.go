package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/morezero/bulk-actions/pkg/events"
	"github.com/morezero/bulk-actions/pkg/registry"
)

var postScope = registry.Scope{ObjectType: "post", ObjectSubtype: "post"}

func newTestDispatcher(t *testing.T, opts Options) (*Dispatcher, *registry.Registry, *[]*events.BulkActionEvent) {
	t.Helper()
	reg := registry.NewRegistry()
	var captured []*events.BulkActionEvent
	pub := events.NewCallbackPublisher(func(_ context.Context, e *events.BulkActionEvent) error {
		captured = append(captured, e)
		return nil
	})
	d := NewDispatcher(NewDispatcherParams{Registry: reg, Publisher: pub, Options: opts})
	return d, reg, &captured
}

func mustAdd(t *testing.T, reg *registry.Registry, scope registry.Scope, entries ...registry.Entry) {
	t.Helper()
	if err := reg.AddActions(scope, entries); err != nil {
		t.Fatalf("dispatcher:dispatcher_test - AddActions failed: %v", err)
	}
}

func TestDispatch_EndToEndFeature(t *testing.T) {
	d, reg, captured := newTestDispatcher(t, Options{})

	marked := map[int]bool{}
	var received []int
	mustAdd(t, reg, postScope, registry.Action("feature", "Feature", "edit_posts",
		func(_ context.Context, ids []int) (*registry.Result, error) {
			received = ids
			for _, id := range ids {
				marked[id] = true
			}
			return registry.Message(fmt.Sprintf("%d done", len(ids))), nil
		}))

	out := d.Dispatch(context.Background(), postScope, "feature", []interface{}{1, 2, 2}, NewCapabilities("edit_posts"))

	if out.Status != Completed {
		t.Fatalf("dispatcher:dispatcher_test - Status = %v, want completed", out.Status)
	}
	if !reflect.DeepEqual(received, []int{1, 2, 2}) {
		t.Errorf("dispatcher:dispatcher_test - handler received %v, want [1 2 2]", received)
	}
	if out.Message != "3 done" || out.Count != 3 || out.Error {
		t.Errorf("dispatcher:dispatcher_test - outcome = %+v, want message=3 done count=3 error=false", out)
	}
	if out.Action != "feature" {
		t.Errorf("dispatcher:dispatcher_test - Action = %q, want feature", out.Action)
	}
	if !marked[1] || !marked[2] {
		t.Errorf("dispatcher:dispatcher_test - marked = %v", marked)
	}
	if len(*captured) != 1 || (*captured)[0].Status != events.StatusCompleted {
		t.Errorf("dispatcher:dispatcher_test - expected one completed event, got %d", len(*captured))
	}
}

func TestDispatch_Unhandled(t *testing.T) {
	d, reg, captured := newTestDispatcher(t, Options{})
	mustAdd(t, reg, postScope,
		registry.Action("guarded", "Guarded", "manage_options", func(context.Context, []int) (*registry.Result, error) { return nil, nil }),
		registry.Action("no_handler", "No handler", "", nil),
	)

	tests := []struct {
		name  string
		scope registry.Scope
		key   string
		actor Actor
	}{
		{"unknown key", postScope, "nonexistent", NewCapabilities("manage_options")},
		{"other subtype", registry.Scope{ObjectType: "post", ObjectSubtype: "page"}, "guarded", NewCapabilities("manage_options")},
		{"missing capability", postScope, "guarded", NewCapabilities("edit_posts")},
		{"nil actor", postScope, "guarded", nil},
		{"no handler", postScope, "no_handler", NewCapabilities("manage_options")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := d.Dispatch(context.Background(), tt.scope, tt.key, []interface{}{1}, tt.actor)
			if out.Status != Unhandled || out.Handled() {
				t.Errorf("dispatcher:dispatcher_test - Status = %v, want unhandled", out.Status)
			}
		})
	}
	if len(*captured) != 0 {
		t.Errorf("dispatcher:dispatcher_test - unhandled dispatch published %d event(s)", len(*captured))
	}
}

func TestDispatch_IDCoercionEquivalence(t *testing.T) {
	d, reg, _ := newTestDispatcher(t, Options{})
	var calls [][]int
	mustAdd(t, reg, postScope, registry.Action("collect", "Collect", "", func(_ context.Context, ids []int) (*registry.Result, error) {
		calls = append(calls, ids)
		return nil, nil
	}))

	d.Dispatch(context.Background(), postScope, "collect", []interface{}{"3", "7", "9"}, nil)
	d.Dispatch(context.Background(), postScope, "collect", []interface{}{3, 7, 9}, nil)

	if len(calls) != 2 {
		t.Fatalf("dispatcher:dispatcher_test - handler called %d times, want 2", len(calls))
	}
	if !reflect.DeepEqual(calls[0], []int{3, 7, 9}) || !reflect.DeepEqual(calls[0], calls[1]) {
		t.Errorf("dispatcher:dispatcher_test - calls = %v, want identical [3 7 9]", calls)
	}
}

func TestDispatch_InvalidIdentifier(t *testing.T) {
	called := false
	h := func(_ context.Context, ids []int) (*registry.Result, error) {
		called = true
		return nil, nil
	}

	t.Run("strict", func(t *testing.T) {
		d, reg, captured := newTestDispatcher(t, Options{})
		mustAdd(t, reg, postScope, registry.Action("a", "A", "", h))
		called = false

		out := d.Dispatch(context.Background(), postScope, "a", []interface{}{"1", "x"}, nil)
		if out.Status != Failed || !out.Error {
			t.Errorf("dispatcher:dispatcher_test - outcome = %+v, want failed", out)
		}
		if called {
			t.Error("dispatcher:dispatcher_test - handler must not run with invalid ids")
		}
		if len(*captured) != 1 {
			t.Fatalf("dispatcher:dispatcher_test - events = %d, want 1", len(*captured))
		}
		if ev := (*captured)[0]; ev.Status != events.StatusFailed || ev.Count != 2 || ev.Action != "a" {
			t.Errorf("dispatcher:dispatcher_test - event = %+v, want failed a count=2", ev)
		}
	})

	t.Run("loose", func(t *testing.T) {
		d, reg, _ := newTestDispatcher(t, Options{LooseIdentifiers: true})
		var got []int
		mustAdd(t, reg, postScope, registry.Action("a", "A", "", func(_ context.Context, ids []int) (*registry.Result, error) {
			got = ids
			return nil, nil
		}))

		out := d.Dispatch(context.Background(), postScope, "a", []interface{}{"1", "x"}, nil)
		if out.Status != Completed {
			t.Errorf("dispatcher:dispatcher_test - Status = %v, want completed", out.Status)
		}
		if !reflect.DeepEqual(got, []int{1, 0}) {
			t.Errorf("dispatcher:dispatcher_test - ids = %v, want [1 0]", got)
		}
	})
}

func TestDispatch_HandlerFailureContained(t *testing.T) {
	d, reg, captured := newTestDispatcher(t, Options{})
	mustAdd(t, reg, postScope,
		registry.Action("errs", "Errs", "", func(context.Context, []int) (*registry.Result, error) {
			return nil, errors.New("database unavailable")
		}),
		registry.Action("panics", "Panics", "", func(context.Context, []int) (*registry.Result, error) {
			panic("boom")
		}),
		registry.Action("panics_err", "Panics with error", "", func(context.Context, []int) (*registry.Result, error) {
			panic(errors.New("wrapped boom"))
		}),
	)

	tests := []struct {
		key     string
		message string
	}{
		{"errs", "database unavailable"},
		{"panics", "boom"},
		{"panics_err", "wrapped boom"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			out := d.Dispatch(context.Background(), postScope, tt.key, []interface{}{5}, nil)
			if out.Status != Failed || !out.Error {
				t.Fatalf("dispatcher:dispatcher_test - outcome = %+v, want failed with error", out)
			}
			if out.Message != tt.message {
				t.Errorf("dispatcher:dispatcher_test - Message = %q, want %q", out.Message, tt.message)
			}
			if out.Action != tt.key || out.Count != 1 {
				t.Errorf("dispatcher:dispatcher_test - Action/Count = %q/%d", out.Action, out.Count)
			}
		})
	}
	for _, e := range *captured {
		if e.Status != events.StatusFailed {
			t.Errorf("dispatcher:dispatcher_test - event status = %q, want failed", e.Status)
		}
	}
}

func TestDispatch_ResultSuccessFalse(t *testing.T) {
	d, reg, _ := newTestDispatcher(t, Options{})
	mustAdd(t, reg, postScope, registry.Action("partial", "Partial", "", func(context.Context, []int) (*registry.Result, error) {
		return registry.Failure("nothing to do"), nil
	}))

	out := d.Dispatch(context.Background(), postScope, "partial", []interface{}{1, 2}, nil)
	if out.Status != Completed {
		t.Fatalf("dispatcher:dispatcher_test - Status = %v, want completed", out.Status)
	}
	if !out.Error || out.Message != "nothing to do" || out.Count != 2 {
		t.Errorf("dispatcher:dispatcher_test - outcome = %+v", out)
	}
}

func TestDispatch_PublishErrorIgnored(t *testing.T) {
	reg := registry.NewRegistry()
	pub := events.NewCallbackPublisher(func(context.Context, *events.BulkActionEvent) error {
		return errors.New("nats down")
	})
	d := NewDispatcher(NewDispatcherParams{Registry: reg, Publisher: pub})
	mustAdd(t, reg, postScope, registry.Action("ok", "OK", "", func(context.Context, []int) (*registry.Result, error) { return nil, nil }))

	out := d.Dispatch(context.Background(), postScope, "ok", nil, nil)
	if out.Status != Completed || out.Error || out.Count != 0 {
		t.Errorf("dispatcher:dispatcher_test - outcome = %+v, want clean completion", out)
	}
}

func TestDispatch_EventCarriesActor(t *testing.T) {
	d, reg, captured := newTestDispatcher(t, Options{})
	mustAdd(t, reg, postScope, registry.Action("ok", "OK", "", func(context.Context, []int) (*registry.Result, error) { return nil, nil }))

	ctx := WithActorID(context.Background(), "editor-7")
	d.Dispatch(ctx, postScope, "ok", []interface{}{1}, nil)

	if len(*captured) != 1 {
		t.Fatalf("dispatcher:dispatcher_test - events = %d, want 1", len(*captured))
	}
	if got := (*captured)[0].ActorID; got != "editor-7" {
		t.Errorf("dispatcher:dispatcher_test - ActorID = %q, want editor-7", got)
	}
}

func TestListAvailable(t *testing.T) {
	d, reg, _ := newTestDispatcher(t, Options{})
	mustAdd(t, reg, postScope,
		registry.Action("edit", "Edit", "edit_posts", nil),
		registry.Entry{Key: "admin_only", Action: registry.PartialDefinition{}},
		registry.Action("open", "Open", "", nil),
		registry.Action("upload", "Upload", "upload_files", nil),
	)

	tests := []struct {
		name  string
		actor Actor
		want  []string
	}{
		{"editor", NewCapabilities("edit_posts"), []string{"edit", "open"}},
		{"administrator", NewCapabilities("edit_posts", "manage_options", "upload_files"), []string{"edit", "admin_only", "open", "upload"}},
		{"anonymous", nil, []string{"open"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.ListAvailable(context.Background(), postScope, tt.actor)
			keys := make([]string, len(got))
			for i, a := range got {
				keys[i] = a.Key
			}
			if !reflect.DeepEqual(keys, tt.want) {
				t.Errorf("dispatcher:dispatcher_test - keys = %v, want %v", keys, tt.want)
			}
		})
	}

	labels := LabelMap(d.ListAvailable(context.Background(), postScope, NewCapabilities("edit_posts")))
	if labels["edit"] != "Edit" {
		t.Errorf("dispatcher:dispatcher_test - LabelMap[edit] = %q, want Edit", labels["edit"])
	}
}

func TestListAvailable_OverwriteVisible(t *testing.T) {
	d, reg, _ := newTestDispatcher(t, Options{})
	var hit string
	mustAdd(t, reg, postScope, registry.Action("a", "Old", "", func(context.Context, []int) (*registry.Result, error) {
		hit = "old"
		return nil, nil
	}))
	mustAdd(t, reg, postScope, registry.Action("a", "New", "", func(context.Context, []int) (*registry.Result, error) {
		hit = "new"
		return nil, nil
	}))

	got := d.ListAvailable(context.Background(), postScope, nil)
	if len(got) != 1 || got[0].Label != "New" {
		t.Errorf("dispatcher:dispatcher_test - ListAvailable = %+v, want single New", got)
	}
	d.Dispatch(context.Background(), postScope, "a", nil, nil)
	if hit != "new" {
		t.Errorf("dispatcher:dispatcher_test - handler = %q, want new", hit)
	}
}

func TestStatusString(t *testing.T) {
	for s, want := range map[Status]string{Unhandled: "unhandled", Completed: "completed", Failed: "failed"} {
		if s.String() != want {
			t.Errorf("dispatcher:dispatcher_test - %d.String() = %q, want %q", s, s.String(), want)
		}
	}
}
