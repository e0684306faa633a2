package depot

import "reflect"

// componentSparseSet is entity-keyed storage for one sparse-set component.
// Insert, get and remove are O(1) and never move table data, which is the
// point: archetype changes for sparse components skip the table move.
type componentSparseSet struct {
	typ      reflect.Type
	drop     DropFn
	dense    reflect.Value
	entities []Entity
	added    []Tick
	changed  []Tick
	sparse   []int32
}

func newComponentSparseSet(info *ComponentInfo) *componentSparseSet {
	return &componentSparseSet{
		typ:   info.typ,
		drop:  info.drop,
		dense: reflect.MakeSlice(reflect.SliceOf(info.typ), 0, 0),
	}
}

func (s *componentSparseSet) denseIndex(e Entity) (int, bool) {
	if int(e.ID) >= len(s.sparse) {
		return 0, false
	}
	idx := s.sparse[e.ID]
	if idx < 0 || s.entities[idx] != e {
		return 0, false
	}
	return int(idx), true
}

func (s *componentSparseSet) contains(e Entity) bool {
	_, ok := s.denseIndex(e)
	return ok
}

// insert stores or overwrites the value for e. Overwriting drops the old
// value first.
func (s *componentSparseSet) insert(e Entity, value any, tick Tick) {
	if idx, ok := s.denseIndex(e); ok {
		s.dropAt(idx)
		s.dense.Index(idx).Set(reflect.ValueOf(value))
		s.changed[idx] = tick
		return
	}
	for int(e.ID) >= len(s.sparse) {
		s.sparse = append(s.sparse, -1)
	}
	s.sparse[e.ID] = int32(len(s.entities))
	s.entities = append(s.entities, e)
	s.dense = reflect.Append(s.dense, reflect.ValueOf(value))
	s.added = append(s.added, tick)
	s.changed = append(s.changed, tick)
}

// get returns an addressable pointer to e's value via reflect, or false.
func (s *componentSparseSet) get(e Entity) (reflect.Value, bool) {
	idx, ok := s.denseIndex(e)
	if !ok {
		return reflect.Value{}, false
	}
	return s.dense.Index(idx).Addr(), true
}

func (s *componentSparseSet) dropAt(idx int) {
	if s.drop != nil {
		s.drop(s.dense.Index(idx).Interface())
	}
}

func (s *componentSparseSet) dropIncoming(value any) {
	if s.drop != nil {
		s.drop(value)
	}
}

// remove deletes e's value by swap-removal. dropValue selects whether the
// destructor runs; moves that hand the value elsewhere pass false.
func (s *componentSparseSet) remove(e Entity, dropValue bool) bool {
	idx, ok := s.denseIndex(e)
	if !ok {
		return false
	}
	if dropValue {
		s.dropAt(idx)
	}
	last := len(s.entities) - 1
	if idx != last {
		moved := s.entities[last]
		s.entities[idx] = moved
		s.dense.Index(idx).Set(s.dense.Index(last))
		s.added[idx] = s.added[last]
		s.changed[idx] = s.changed[last]
		s.sparse[moved.ID] = int32(idx)
	}
	s.entities = s.entities[:last]
	s.dense = s.dense.Slice(0, last)
	s.added = s.added[:last]
	s.changed = s.changed[:last]
	s.sparse[e.ID] = -1
	return true
}

func (s *componentSparseSet) len() int {
	return len(s.entities)
}

// sparseSets owns one set per sparse-stored component, created eagerly at
// bundle registration.
type sparseSets struct {
	sets map[ComponentID]*componentSparseSet
}

func newSparseSets() sparseSets {
	return sparseSets{sets: make(map[ComponentID]*componentSparseSet)}
}

func (s *sparseSets) get(id ComponentID) (*componentSparseSet, bool) {
	set, ok := s.sets[id]
	return set, ok
}

func (s *sparseSets) getOrCreate(info *ComponentInfo) *componentSparseSet {
	if set, ok := s.sets[info.id]; ok {
		return set
	}
	set := newComponentSparseSet(info)
	s.sets[info.id] = set
	return set
}
