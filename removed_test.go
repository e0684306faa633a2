package depot

import (
	"testing"
)

// TestRemovedEvents verifies recording, cursor consumption and the one-cycle
// retention window of the removal log.
func TestRemovedEvents(t *testing.T) {
	storage := Factory.NewStorage()
	healthID := RegisterComponent[Health](storage)

	e1, _ := storage.Spawn(Position{}, Health{Current: 1, Max: 1})
	e2, _ := storage.Spawn(Position{}, Health{Current: 2, Max: 2})

	var cursor RemovedCursor

	if err := storage.Remove(e1, healthID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	got := storage.Removed(healthID, &cursor)
	if len(got) != 1 || got[0] != e1 {
		t.Fatalf("First read %v, expected [%v]", got, e1)
	}

	// A second read with the same cursor sees nothing new.
	if got := storage.Removed(healthID, &cursor); len(got) != 0 {
		t.Errorf("Repeated read returned %v, expected none", got)
	}

	// Despawn records removals for every component the entity carried.
	if err := storage.Despawn(e2); err != nil {
		t.Fatalf("Despawn failed: %v", err)
	}
	got = storage.Removed(healthID, &cursor)
	if len(got) != 1 || got[0] != e2 {
		t.Errorf("Read after despawn %v, expected [%v]", got, e2)
	}
}

// TestRemovedEventsRotation verifies events survive exactly one Update.
func TestRemovedEventsRotation(t *testing.T) {
	storage := Factory.NewStorage()
	healthID := RegisterComponent[Health](storage)

	e, _ := storage.Spawn(Health{Current: 1, Max: 1})
	if err := storage.Remove(e, healthID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	// A reader that polls after one rotation still sees the event.
	storage.Update()
	var lateCursor RemovedCursor
	if got := storage.Removed(healthID, &lateCursor); len(got) != 1 {
		t.Errorf("Read after one rotation %v, expected one event", got)
	}

	// After a second rotation the event is gone, and a fresh cursor does not
	// replay it.
	storage.Update()
	var freshCursor RemovedCursor
	if got := storage.Removed(healthID, &freshCursor); len(got) != 0 {
		t.Errorf("Read after two rotations %v, expected none", got)
	}
}

// TestClearTrackers verifies explicit clearing discards retained events.
func TestClearTrackers(t *testing.T) {
	storage := Factory.NewStorage()
	healthID := RegisterComponent[Health](storage)

	e, _ := storage.Spawn(Health{Current: 1, Max: 1})
	if err := storage.Remove(e, healthID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	storage.ClearTrackers()
	var cursor RemovedCursor
	if got := storage.Removed(healthID, &cursor); len(got) != 0 {
		t.Errorf("Read after ClearTrackers %v, expected none", got)
	}
}
