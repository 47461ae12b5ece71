package tracestore

import (
	"path/filepath"
	"testing"
	"time"
)

func TestRecordAndGet(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "traces.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	tr := &Trace{
		EventType: "object-added",
		Priority:  5,
		Hooks: []HookRecord{
			{Hook: "link-audio", Async: true, Steps: []string{"s1", "s2"}, Duration: time.Millisecond},
		},
	}
	if err := s.Record("evt-1", tr); err != nil {
		t.Fatal(err)
	}

	got, found, err := s.Get("evt-1")
	if err != nil {
		t.Fatal(err)
	}
	if !found {
		t.Fatalf("expected trace to be found")
	}
	if got.EventType != "object-added" || len(got.Hooks) != 1 || got.Hooks[0].Hook != "link-audio" {
		t.Fatalf("unexpected trace: %+v", got)
	}
}

func TestGetMissing(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "traces.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	_, found, err := s.Get("nope")
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Fatalf("expected not found")
	}
}

func TestEach(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "traces.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	for _, id := range []string{"a", "b", "c"} {
		if err := s.Record(id, &Trace{EventType: id}); err != nil {
			t.Fatal(err)
		}
	}

	seen := map[string]bool{}
	if err := s.Each(func(id string, tr *Trace) error {
		seen[id] = true
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if len(seen) != 3 {
		t.Fatalf("expected 3 traces, got %d", len(seen))
	}
}
