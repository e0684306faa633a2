package depot

import (
	"hash/maphash"
	"slices"
)

// FragmentingVTable gives a component value-based archetype identity. Two
// entities with identical component sets but unequal values of a fragmenting
// component live in different archetypes. The three operations work on
// type-erased values so that statically registered components and dynamic
// (reflection-driven) ones compare through the same code path.
type FragmentingVTable struct {
	Eq    func(a, b any) bool
	Hash  func(v any) uint64
	Clone func(v any) any
}

var fragSeed = maphash.MakeSeed()

// fragmentingVTableOf derives the vtable for a comparable component type.
func fragmentingVTableOf[T comparable]() *FragmentingVTable {
	return &FragmentingVTable{
		Eq: func(a, b any) bool {
			av, aok := a.(T)
			bv, bok := b.(T)
			return aok && bok && av == bv
		},
		Hash: func(v any) uint64 {
			return maphash.Comparable(fragSeed, v.(T))
		},
		Clone: func(v any) any {
			return v
		},
	}
}

// fragmentingValue is one (component id, value) pair contributing to
// archetype identity. The hash is precomputed via the component's vtable.
type fragmentingValue struct {
	id    ComponentID
	value any
	hash  uint64
	vt    *FragmentingVTable
}

func (v fragmentingValue) equal(other fragmentingValue) bool {
	return v.id == other.id && v.hash == other.hash && v.vt.Eq(v.value, other.value)
}

// fragmentingValues is a canonically id-sorted list of fragmenting values,
// usable as an identity key through (hash, equal).
type fragmentingValues struct {
	values []fragmentingValue
	hash   uint64
}

func newFragmentingValues(values []fragmentingValue) fragmentingValues {
	// An empty list normalizes to the zero value so that identities reached
	// by removing the last fragmenting value match archetypes that never
	// fragmented at all.
	if len(values) == 0 {
		return fragmentingValues{}
	}
	slices.SortFunc(values, func(a, b fragmentingValue) int {
		return int(a.id) - int(b.id)
	})
	return fragmentingValues{values: values, hash: combineFragHashes(values)}
}

func combineFragHashes(values []fragmentingValue) uint64 {
	// FNV-1a style fold over the sorted (id, hash) pairs.
	h := uint64(14695981039346656037)
	for _, v := range values {
		h ^= uint64(v.id)
		h *= 1099511628211
		h ^= v.hash
		h *= 1099511628211
	}
	return h
}

func (f fragmentingValues) empty() bool {
	return len(f.values) == 0
}

func (f fragmentingValues) equal(other fragmentingValues) bool {
	if f.hash != other.hash || len(f.values) != len(other.values) {
		return false
	}
	for i := range f.values {
		if !f.values[i].equal(other.values[i]) {
			return false
		}
	}
	return true
}

// get returns the value recorded for id, if any.
func (f fragmentingValues) get(id ComponentID) (fragmentingValue, bool) {
	for _, v := range f.values {
		if v.id == id {
			return v, true
		}
	}
	return fragmentingValue{}, false
}

// merge returns f with the given values inserted or replaced. Values are
// cloned through their vtable so the resulting identity owns its data.
func (f fragmentingValues) merge(incoming []fragmentingValue) fragmentingValues {
	merged := make([]fragmentingValue, 0, len(f.values)+len(incoming))
	for _, v := range f.values {
		replaced := false
		for _, in := range incoming {
			if in.id == v.id {
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, v)
		}
	}
	for _, in := range incoming {
		merged = append(merged, fragmentingValue{
			id:    in.id,
			value: in.vt.Clone(in.value),
			hash:  in.hash,
			vt:    in.vt,
		})
	}
	return newFragmentingValues(merged)
}

// without returns f with the given component ids removed.
func (f fragmentingValues) without(ids []ComponentID) fragmentingValues {
	remaining := make([]fragmentingValue, 0, len(f.values))
	for _, v := range f.values {
		if !slices.Contains(ids, v.id) {
			remaining = append(remaining, v)
		}
	}
	return newFragmentingValues(remaining)
}
