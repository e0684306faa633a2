package depot

import (
	"testing"
)

// Test component types
type Position struct {
	X, Y float64
}

type Velocity struct {
	X, Y float64
}

type Health struct {
	Current, Max int
}

func TestEntityCreation(t *testing.T) {
	tests := []struct {
		name        string
		components  []any
		entityCount int
	}{
		{"Empty entity", []any{}, 1},
		{"Single component", []any{Position{X: 1}}, 10},
		{"Multiple components", []any{Position{X: 1}, Velocity{X: 2}}, 5},
		{"Large batch", []any{Position{}, Velocity{}, Health{Current: 5, Max: 10}}, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := Factory.NewStorage()

			entities, err := storage.SpawnBatch(tt.entityCount, tt.components...)
			if err != nil {
				t.Fatalf("SpawnBatch failed: %v", err)
			}
			if len(entities) != tt.entityCount {
				t.Fatalf("Spawned %d entities, expected %d", len(entities), tt.entityCount)
			}
			for _, e := range entities {
				if !storage.Alive(e) {
					t.Errorf("Entity %v not alive after spawn", e)
				}
			}
		})
	}
}

func TestEntityDespawnAndStaleHandles(t *testing.T) {
	storage := Factory.NewStorage()
	posComp := FactoryNewComponent[Position](storage)

	e, err := storage.Spawn(Position{X: 1})
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}

	if err := storage.Despawn(e); err != nil {
		t.Fatalf("Despawn failed: %v", err)
	}
	if storage.Alive(e) {
		t.Error("Entity alive after despawn")
	}

	// Every structural operation on the stale handle must fail.
	if err := storage.Insert(e, Position{}); err == nil {
		t.Error("Insert on stale handle succeeded")
	} else if _, ok := err.(StaleEntityError); !ok {
		t.Errorf("Insert on stale handle returned %T, expected StaleEntityError", err)
	}
	if err := storage.Remove(e, posComp.ID()); err == nil {
		t.Error("Remove on stale handle succeeded")
	}
	if err := storage.Despawn(e); err == nil {
		t.Error("Double despawn succeeded")
	}

	// Reuse of the entity id must bump the generation so the old handle stays
	// stale.
	e2, err := storage.Spawn(Position{X: 2})
	if err != nil {
		t.Fatalf("Respawn failed: %v", err)
	}
	if e2.ID != e.ID {
		t.Fatalf("Expected id reuse, got id %d (was %d)", e2.ID, e.ID)
	}
	if e2.Gen == e.Gen {
		t.Error("Generation not bumped on id reuse")
	}
	if storage.Alive(e) {
		t.Error("Stale handle resolves after id reuse")
	}
	if !storage.Alive(e2) {
		t.Error("Fresh handle does not resolve")
	}
}

// TestSwapRemoveConsistency verifies that removing an entity from the middle
// of an archetype leaves every surviving entity resolving to its own data.
func TestSwapRemoveConsistency(t *testing.T) {
	storage := Factory.NewStorage()
	posComp := FactoryNewComponent[Position](storage)

	const n = 5
	entities := make([]Entity, n)
	for i := range entities {
		e, err := storage.Spawn(Position{X: float64(i)})
		if err != nil {
			t.Fatalf("Spawn %d failed: %v", i, err)
		}
		entities[i] = e
	}

	// Despawn from the middle; the last row is swapped into its place.
	if err := storage.Despawn(entities[1]); err != nil {
		t.Fatalf("Despawn failed: %v", err)
	}

	for i, e := range entities {
		if i == 1 {
			continue
		}
		pos, ok := posComp.GetFromEntity(e)
		if !ok {
			t.Fatalf("Entity %d lost its component after unrelated despawn", i)
		}
		if pos.X != float64(i) {
			t.Errorf("Entity %d resolves to value %v, expected %v", i, pos.X, float64(i))
		}
	}

	// Structural removal (not despawn) must patch locations the same way.
	velComp := FactoryNewComponent[Velocity](storage)
	for i, e := range entities {
		if i == 1 {
			continue
		}
		if err := storage.Insert(e, Velocity{X: float64(i) * 10}); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}
	if err := storage.Remove(entities[0], velComp.ID()); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	for i, e := range entities {
		if i == 1 {
			continue
		}
		pos, ok := posComp.GetFromEntity(e)
		if !ok || pos.X != float64(i) {
			t.Errorf("Entity %d position corrupted after remove", i)
		}
		if i != 0 {
			vel, ok := velComp.GetFromEntity(e)
			if !ok || vel.X != float64(i)*10 {
				t.Errorf("Entity %d velocity corrupted after remove", i)
			}
		}
	}
}
