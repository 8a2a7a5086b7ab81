package dedup

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "dedup.db"))
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSeen(t *testing.T) {
	s := openTestStore(t)

	seen, err := s.Seen("delivery-1")
	if err != nil {
		t.Fatalf("Seen error: %v", err)
	}
	if seen {
		t.Fatal("first sighting reported as seen")
	}

	seen, err = s.Seen("delivery-1")
	if err != nil {
		t.Fatalf("Seen error: %v", err)
	}
	if !seen {
		t.Fatal("redelivery not reported as seen")
	}

	// A different ID is its own first sighting.
	seen, err = s.Seen("delivery-2")
	if err != nil || seen {
		t.Fatalf("delivery-2: seen=%v err=%v", seen, err)
	}
}

func TestSeenEmptyID(t *testing.T) {
	s := openTestStore(t)

	// Deliveries without an ID cannot be deduplicated; treat each as new.
	for i := 0; i < 2; i++ {
		seen, err := s.Seen("")
		if err != nil || seen {
			t.Fatalf("empty id round %d: seen=%v err=%v", i, seen, err)
		}
	}
}

func TestForget(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.Seen("d1"); err != nil {
		t.Fatal(err)
	}
	if err := s.Forget("d1"); err != nil {
		t.Fatalf("Forget error: %v", err)
	}

	// A forgotten delivery is a first sighting again.
	seen, err := s.Seen("d1")
	if err != nil || seen {
		t.Fatalf("after forget: seen=%v err=%v", seen, err)
	}

	// Unknown and empty IDs are no-ops.
	if err := s.Forget("never-seen"); err != nil {
		t.Errorf("Forget(unknown) error: %v", err)
	}
	if err := s.Forget(""); err != nil {
		t.Errorf("Forget(empty) error: %v", err)
	}
}

func TestPrune(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.Seen("old-delivery"); err != nil {
		t.Fatal(err)
	}

	// Nothing is older than an hour yet.
	n, err := s.Prune(time.Hour)
	if err != nil {
		t.Fatalf("Prune error: %v", err)
	}
	if n != 0 {
		t.Errorf("pruned %d rows, want 0", n)
	}

	// A zero retention prunes everything recorded before now.
	time.Sleep(5 * time.Millisecond)
	n, err = s.Prune(0)
	if err != nil {
		t.Fatalf("Prune error: %v", err)
	}
	if n != 1 {
		t.Errorf("pruned %d rows, want 1", n)
	}

	seen, err := s.Seen("old-delivery")
	if err != nil || seen {
		t.Fatalf("pruned delivery still seen: seen=%v err=%v", seen, err)
	}
}
