package dispatcher

import "testing"

func TestCapabilities(t *testing.T) {
	caps := NewCapabilities("edit_posts", "", "upload_files")

	if !caps.HasCapability("edit_posts") {
		t.Error("dispatcher:actor_test - expected edit_posts")
	}
	if caps.HasCapability("manage_options") {
		t.Error("dispatcher:actor_test - unexpected manage_options")
	}
	if len(caps) != 2 {
		t.Errorf("dispatcher:actor_test - len = %d, want 2 (empty token dropped)", len(caps))
	}
}

func TestAllowed(t *testing.T) {
	tests := []struct {
		name       string
		actor      Actor
		capability string
		want       bool
	}{
		{"empty capability is open", nil, "", true},
		{"nil actor holds nothing", nil, "edit_posts", false},
		{"granted", NewCapabilities("edit_posts"), "edit_posts", true},
		{"denied", NewCapabilities("read"), "edit_posts", false},
		{"func actor", ActorFunc(func(c string) bool { return c == "x" }), "x", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := allowed(tt.actor, tt.capability); got != tt.want {
				t.Errorf("dispatcher:actor_test - allowed(%q) = %v, want %v", tt.capability, got, tt.want)
			}
		})
	}
}
