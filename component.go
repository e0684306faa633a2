package depot

import (
	"fmt"
	"reflect"
)

// ComponentID is a dense identifier for a registered component type. IDs are
// stable for the lifetime of one storage and are never reused across storages.
type ComponentID uint32

// StorageType selects the physical layout for a component's data.
type StorageType uint8

const (
	// StorageTypeTable stores the component in the columnar table of the
	// entity's archetype. Adding or removing it moves the entity's table row.
	StorageTypeTable StorageType = iota
	// StorageTypeSparseSet stores the component in a per-component sparse set
	// keyed by entity, so add/remove never moves table data.
	StorageTypeSparseSet
)

// MaxComponentTypes caps registrations per storage at the bit width of the
// interning mask.
const MaxComponentTypes = 64

// DropFn releases resources held by a discarded component value. It runs when
// a value is replaced, removed, or rejected by InsertModeKeep.
type DropFn func(value any)

// RequiredComponent declares a component that is automatically attached
// whenever the requiring component is inserted and the entity does not
// already have it.
type RequiredComponent struct {
	ID        ComponentID
	Construct func() any
}

// ComponentDescriptor configures registration beyond the defaults
// (table storage, no drop function, no requirements).
type ComponentDescriptor struct {
	Storage     StorageType
	Drop        DropFn
	Requires    []RequiredComponent
	Fragmenting *FragmentingVTable
}

// ComponentInfo is the per-id metadata record.
type ComponentInfo struct {
	id          ComponentID
	name        string
	typ         reflect.Type
	storage     StorageType
	drop        DropFn
	requires    []RequiredComponent
	fragmenting *FragmentingVTable
	hooks       ComponentHooks
}

func (info *ComponentInfo) ID() ComponentID        { return info.id }
func (info *ComponentInfo) Name() string           { return info.name }
func (info *ComponentInfo) Type() reflect.Type     { return info.typ }
func (info *ComponentInfo) Storage() StorageType   { return info.storage }
func (info *ComponentInfo) IsFragmenting() bool    { return info.fragmenting != nil }
func (info *ComponentInfo) Hooks() *ComponentHooks { return &info.hooks }

// components is the per-storage component registry.
type components struct {
	infos  []*ComponentInfo
	byType map[reflect.Type]ComponentID
}

func newComponents() components {
	return components{byType: make(map[reflect.Type]ComponentID)}
}

func (c *components) get(id ComponentID) (*ComponentInfo, bool) {
	if int(id) >= len(c.infos) {
		return nil, false
	}
	return c.infos[id], true
}

// getUnchecked is the hot internal path; callers guarantee id validity.
func (c *components) getUnchecked(id ComponentID) *ComponentInfo {
	return c.infos[id]
}

func (c *components) idByType(t reflect.Type) (ComponentID, bool) {
	id, ok := c.byType[t]
	return id, ok
}

func (c *components) register(t reflect.Type, desc ComponentDescriptor) ComponentID {
	if id, ok := c.byType[t]; ok {
		return id
	}
	if len(c.infos) >= MaxComponentTypes {
		panic(fmt.Sprintf("depot: cannot register component %s: maximum of %d component types reached", t, MaxComponentTypes))
	}
	id := ComponentID(len(c.infos))
	info := &ComponentInfo{
		id:          id,
		name:        t.String(),
		typ:         t,
		storage:     desc.Storage,
		drop:        desc.Drop,
		requires:    desc.Requires,
		fragmenting: desc.Fragmenting,
	}
	c.infos = append(c.infos, info)
	c.byType[t] = id
	return id
}

// RegisterComponent registers T with default settings and returns its id.
// Registering the same type twice returns the existing id.
func RegisterComponent[T any](sto *Storage) ComponentID {
	return RegisterComponentWith[T](sto, ComponentDescriptor{})
}

// RegisterComponentWith registers T using the given descriptor. The descriptor
// is ignored if T is already registered.
func RegisterComponentWith[T any](sto *Storage, desc ComponentDescriptor) ComponentID {
	t := reflect.TypeFor[T]()
	id := sto.components.register(t, desc)
	sto.prepareComponentStorage(id)
	return id
}

// RegisterFragmentingComponent registers T as an immutable fragmenting
// component: its value participates in archetype identity. T must be
// comparable; equality, hashing and cloning are derived.
func RegisterFragmentingComponent[T comparable](sto *Storage) ComponentID {
	return RegisterComponentWith[T](sto, ComponentDescriptor{
		Fragmenting: fragmentingVTableOf[T](),
	})
}
