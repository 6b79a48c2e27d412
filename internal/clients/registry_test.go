package clients

import (
	"testing"
	"time"
)

func TestRegisterAndTouch(t *testing.T) {
	r := NewRegistry()
	id := r.Register("", Info{Transport: "sse"})
	if id == "" {
		t.Fatalf("expected generated id")
	}
	r.Touch(id, Info{Name: "inspector"})
	list := r.List()
	if len(list) != 1 {
		t.Fatalf("expected 1 client, got %d", len(list))
	}
	if list[0].Name != "inspector" || list[0].Transport != "sse" {
		t.Fatalf("touch should merge fields: %+v", list[0])
	}
}

func TestTouchRegistersUnknown(t *testing.T) {
	r := NewRegistry()
	r.Touch("c1", Info{Transport: "streamable"})
	if r.Count() != 1 {
		t.Fatalf("expected touch to register unseen client")
	}
}

func TestPrune(t *testing.T) {
	r := NewRegistry()
	id := r.Register("", Info{})
	r.mu.Lock()
	r.entries[id].LastSeen = time.Now().Add(-time.Hour)
	r.mu.Unlock()
	r.Prune(30 * time.Minute)
	if r.Count() != 0 {
		t.Fatalf("expected idle client pruned")
	}
}
