package depot

import (
	"testing"
)

type Team struct {
	Name string
}

type Group struct {
	ID int
}

// TestFragmentingSeparatesArchetypes verifies that entities with identical
// component sets but different fragmenting values live in different
// archetypes sharing one table.
func TestFragmentingSeparatesArchetypes(t *testing.T) {
	storage := Factory.NewStorage()
	RegisterFragmentingComponent[Team](storage)

	red1, err := storage.Spawn(Position{}, Team{Name: "red"})
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}
	blue, err := storage.Spawn(Position{}, Team{Name: "blue"})
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}
	red2, err := storage.Spawn(Position{}, Team{Name: "red"})
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}

	locRed1, _ := storage.EntityLocation(red1)
	locBlue, _ := storage.EntityLocation(blue)
	locRed2, _ := storage.EntityLocation(red2)

	if locRed1.ArchetypeID != locRed2.ArchetypeID {
		t.Error("Equal fragmenting values split into different archetypes")
	}
	if locRed1.ArchetypeID == locBlue.ArchetypeID {
		t.Error("Unequal fragmenting values share an archetype")
	}
	if locRed1.TableID != locBlue.TableID {
		t.Error("Fragmented archetypes with equal component sets use different tables")
	}

	arch := storage.Archetype(locRed1.ArchetypeID)
	v, ok := arch.FragmentValue(FactoryNewComponent[Team](storage).ID())
	if !ok || v.(Team).Name != "red" {
		t.Errorf("Archetype fragment value %v, expected red", v)
	}
}

// TestFragmentingPathsAgree verifies that the typed, insert and by-id paths
// all resolve equal values to the same archetype.
func TestFragmentingPathsAgree(t *testing.T) {
	storage := Factory.NewStorage()
	teamID := RegisterFragmentingComponent[Team](storage)

	spawned, _ := storage.Spawn(Position{}, Team{Name: "red"})

	inserted, _ := storage.Spawn(Position{})
	if err := storage.Insert(inserted, Team{Name: "red"}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	byID, _ := storage.Spawn(Position{})
	if err := storage.InsertByID(byID, []ComponentID{teamID}, []any{Team{Name: "red"}}); err != nil {
		t.Fatalf("InsertByID failed: %v", err)
	}

	batched, _ := storage.SpawnBatch(2, Position{})
	if err := storage.InsertBatch(batched, Team{Name: "red"}); err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}

	locSpawned, _ := storage.EntityLocation(spawned)
	locInserted, _ := storage.EntityLocation(inserted)
	locByID, _ := storage.EntityLocation(byID)

	if locSpawned.ArchetypeID != locInserted.ArchetypeID {
		t.Errorf("Insert path archetype %d, spawn path %d", locInserted.ArchetypeID, locSpawned.ArchetypeID)
	}
	if locSpawned.ArchetypeID != locByID.ArchetypeID {
		t.Errorf("By-id path archetype %d, spawn path %d", locByID.ArchetypeID, locSpawned.ArchetypeID)
	}
	for _, e := range batched {
		locBatched, _ := storage.EntityLocation(e)
		if locSpawned.ArchetypeID != locBatched.ArchetypeID {
			t.Errorf("Batch path archetype %d, spawn path %d", locBatched.ArchetypeID, locSpawned.ArchetypeID)
		}
	}
}

// TestFragmentingReplaceMovesArchetype verifies that overwriting a
// fragmenting value moves the entity to the archetype of the new value, and
// that keep-mode inserts leave it where it is.
func TestFragmentingReplaceMovesArchetype(t *testing.T) {
	storage := Factory.NewStorage()
	RegisterFragmentingComponent[Team](storage)

	red, _ := storage.Spawn(Position{}, Team{Name: "red"})
	blue, _ := storage.Spawn(Position{}, Team{Name: "blue"})
	locBlue, _ := storage.EntityLocation(blue)

	if err := storage.Insert(red, Team{Name: "blue"}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	locMoved, _ := storage.EntityLocation(red)
	if locMoved.ArchetypeID != locBlue.ArchetypeID {
		t.Errorf("Value overwrite landed in archetype %d, expected %d", locMoved.ArchetypeID, locBlue.ArchetypeID)
	}

	// Keep mode: the existing value stays in force, no move.
	if err := storage.InsertIfNew(red, Team{Name: "green"}); err != nil {
		t.Fatalf("InsertIfNew failed: %v", err)
	}
	locKept, _ := storage.EntityLocation(red)
	if locKept.ArchetypeID != locBlue.ArchetypeID {
		t.Error("Keep-mode insert moved a fragmenting entity")
	}
}

// TestFragmentingRemoveRoundTrip verifies that removing a fragmenting
// component clears its value from the archetype identity, and that re-adding
// the same value returns to the original archetype.
func TestFragmentingRemoveRoundTrip(t *testing.T) {
	storage := Factory.NewStorage()
	RegisterFragmentingComponent[Team](storage)
	teamComp := FactoryNewComponent[Team](storage)

	e, _ := storage.Spawn(Position{}, Team{Name: "red"})
	before, _ := storage.EntityLocation(e)

	if err := storage.Remove(e, teamComp.ID()); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	mid, _ := storage.EntityLocation(e)
	if _, ok := storage.Archetype(mid.ArchetypeID).FragmentValue(teamComp.ID()); ok {
		t.Error("Fragment value survives component removal")
	}

	if err := storage.Insert(e, Team{Name: "red"}); err != nil {
		t.Fatalf("Re-insert failed: %v", err)
	}
	after, _ := storage.EntityLocation(e)
	if after.ArchetypeID != before.ArchetypeID {
		t.Errorf("Round trip landed in archetype %d, expected %d", after.ArchetypeID, before.ArchetypeID)
	}
}

// TestFragmentingBatch spawns a batch whose fragment values repeat (1,2,1,3,1)
// and verifies the resulting archetype population and table sharing.
func TestFragmentingBatch(t *testing.T) {
	storage := Factory.NewStorage()
	RegisterFragmentingComponent[Group](storage)

	groups := []int{1, 2, 1, 3, 1}
	entities := make([]Entity, len(groups))
	for i, g := range groups {
		e, err := storage.Spawn(Position{X: float64(i)}, Group{ID: g})
		if err != nil {
			t.Fatalf("Spawn %d failed: %v", i, err)
		}
		entities[i] = e
	}

	locs := make([]EntityLocation, len(entities))
	for i, e := range entities {
		locs[i], _ = storage.EntityLocation(e)
	}

	// Group 1 entities share one archetype; groups 2 and 3 get their own.
	if locs[0].ArchetypeID != locs[2].ArchetypeID || locs[0].ArchetypeID != locs[4].ArchetypeID {
		t.Error("Entities with equal fragment values split across archetypes")
	}
	distinct := map[ArchetypeID]int{}
	for _, loc := range locs {
		distinct[loc.ArchetypeID]++
	}
	if len(distinct) != 3 {
		t.Fatalf("Batch produced %d archetypes, expected 3", len(distinct))
	}
	if distinct[locs[0].ArchetypeID] != 3 || distinct[locs[1].ArchetypeID] != 1 || distinct[locs[3].ArchetypeID] != 1 {
		t.Errorf("Archetype populations %v, expected 3/1/1", distinct)
	}

	// All five share one table regardless of fragmentation.
	for i := 1; i < len(locs); i++ {
		if locs[i].TableID != locs[0].TableID {
			t.Error("Fragmented batch split across tables")
		}
	}

	// Replaying the same batch must be creation-free.
	created := storage.ArchetypesCreated()
	for i, g := range groups {
		if _, err := storage.Spawn(Position{X: float64(i)}, Group{ID: g}); err != nil {
			t.Fatalf("Replay spawn failed: %v", err)
		}
	}
	if storage.ArchetypesCreated() != created {
		t.Errorf("Replaying the batch created archetypes: %d -> %d", created, storage.ArchetypesCreated())
	}
}
