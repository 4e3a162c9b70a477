package syncq

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestQueuePushLoadClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "queue.json")
	q, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	got, err := q.Load()
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty queue, got %d", len(got))
	}

	cmds := []Command{
		{Method: "POST", Path: "/v1/orders", Body: json.RawMessage(`{"symbol":"NLSY","side":"buy","quantity":2}`), IdempotencyKey: "a"},
		{Method: "POST", Path: "/v1/day/close", IdempotencyKey: "b"},
	}
	for _, c := range cmds {
		if err := q.Push(c); err != nil {
			t.Fatalf("push: %v", err)
		}
	}

	got, err = q.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 || got[0].IdempotencyKey != "a" || got[1].Path != "/v1/day/close" {
		t.Fatalf("unexpected queue: %+v", got)
	}
	if string(got[0].Body) != `{"symbol":"NLSY","side":"buy","quantity":2}` {
		t.Fatalf("body not preserved: %s", got[0].Body)
	}

	if err := q.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := q.Clear(); err != nil {
		t.Fatalf("clear twice: %v", err)
	}
	got, _ = q.Load()
	if len(got) != 0 {
		t.Fatalf("expected empty after clear, got %d", len(got))
	}
}

func TestQueueLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.json")
	if err := os.WriteFile(path, []byte("{nope"), 0o600); err != nil {
		t.Fatal(err)
	}
	q, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := q.Load(); err == nil {
		t.Fatal("expected error for corrupt queue")
	}
}
