package depot

import "fmt"

// Entity is a generation-checked handle to one stored object. The zero Entity
// is never valid.
type Entity struct {
	ID  uint32
	Gen uint32
}

func (e Entity) String() string {
	return fmt.Sprintf("%dv%d", e.ID, e.Gen)
}

// Valid reports whether the handle could refer to a live entity. A valid
// handle may still be stale; resolve through the storage for certainty.
func (e Entity) Valid() bool {
	return e.Gen != 0
}

// EntityLocation is the single source of truth for where an entity's data
// lives. It is mutated only by the insertion/removal engine, in the same step
// as the physical data move.
type EntityLocation struct {
	ArchetypeID  ArchetypeID
	ArchetypeRow int
	TableID      TableID
	TableRow     int
}

type entityMeta struct {
	gen      uint32
	loc      EntityLocation
	spawned  bool
}

// entityIndex allocates entity ids and resolves handles to locations.
// Generations start at 1 so the zero Entity never resolves.
type entityIndex struct {
	metas []entityMeta
	free  []uint32
}

func (idx *entityIndex) alloc() Entity {
	if n := len(idx.free); n > 0 {
		id := idx.free[n-1]
		idx.free = idx.free[:n-1]
		idx.metas[id].spawned = true
		return Entity{ID: id, Gen: idx.metas[id].gen}
	}
	id := uint32(len(idx.metas))
	idx.metas = append(idx.metas, entityMeta{gen: 1, spawned: true})
	return Entity{ID: id, Gen: 1}
}

func (idx *entityIndex) resolve(e Entity) (EntityLocation, bool) {
	if int(e.ID) >= len(idx.metas) {
		return EntityLocation{}, false
	}
	meta := &idx.metas[e.ID]
	if !meta.spawned || meta.gen != e.Gen {
		return EntityLocation{}, false
	}
	return meta.loc, true
}

func (idx *entityIndex) set(e Entity, loc EntityLocation) {
	idx.metas[e.ID].loc = loc
}

// setByID patches the location of a displaced entity after a swap-remove.
// The handle generation is untouched.
func (idx *entityIndex) setByID(id uint32, loc EntityLocation) {
	idx.metas[id].loc = loc
}

func (idx *entityIndex) locByID(id uint32) EntityLocation {
	return idx.metas[id].loc
}

func (idx *entityIndex) release(e Entity) {
	meta := &idx.metas[e.ID]
	meta.spawned = false
	meta.gen++
	meta.loc = EntityLocation{}
	idx.free = append(idx.free, e.ID)
}

func (idx *entityIndex) alive(e Entity) bool {
	_, ok := idx.resolve(e)
	return ok
}
