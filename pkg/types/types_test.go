package types

import (
	"testing"
)

func TestListItem_FilterValue(t *testing.T) {
	item := ListItem{
		Title:       "my-pod",
		Description: "Running",
		Metadata:    map[string]string{"status": "Running", "uid": "abc"},
	}

	if item.FilterValue() != "my-pod" {
		t.Errorf("FilterValue() = %s, want %s", item.FilterValue(), "my-pod")
	}
	if item.UID() != "abc" {
		t.Errorf("UID() = %s, want abc", item.UID())
	}
}

func TestListItem_NoMetadata(t *testing.T) {
	var item ListItem
	if item.UID() != "" {
		t.Errorf("UID() = %q, want empty", item.UID())
	}
}

func TestMode_String(t *testing.T) {
	tests := []struct {
		mode Mode
		want string
	}{
		{ModeBrowsing, "browsing"},
		{ModePickingKind, "picking-kind"},
		{ModeViewingDetail, "viewing-detail"},
		{ModeError, "error"},
		{Mode(42), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.mode.String(); got != tt.want {
			t.Errorf("Mode(%d).String() = %s, want %s", tt.mode, got, tt.want)
		}
	}
}
