package history

import "testing"

func TestLogAppendAndTail(t *testing.T) {
	l := NewLog(3)
	for _, to := range []string{"h1", "h2", "h3", "h4"} {
		l.Append("s1", Entry{To: to, Cause: "switchToWindow"})
	}
	entries := l.Entries("s1")
	if len(entries) != 3 {
		t.Fatalf("expected trail capped at 3, got %d", len(entries))
	}
	if entries[0].To != "h2" || entries[2].To != "h4" {
		t.Fatalf("expected oldest entries evicted: %v", entries)
	}
	tail := l.Tail("s1", 1)
	if len(tail) != 1 || tail[0].To != "h4" {
		t.Fatalf("expected most recent entry, got %v", tail)
	}
}

func TestLogDrop(t *testing.T) {
	l := NewLog(0)
	l.Append("s1", Entry{To: "h1", Cause: "initialize"})
	l.Drop("s1")
	if len(l.Entries("s1")) != 0 {
		t.Fatalf("expected trail discarded")
	}
	if len(l.Sessions()) != 0 {
		t.Fatalf("expected no sessions after drop")
	}
}
