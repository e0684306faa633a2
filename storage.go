package depot

import (
	"reflect"

	"go.uber.org/zap"
)

// Storage owns every registry and data structure for one independent world of
// entities: component and bundle registries, tables, sparse sets, the
// archetype graph, the entity index, lifecycle observers, and removal events.
// Storages never share state; ids from one storage are meaningless in another.
type Storage struct {
	components components
	bundles    bundles
	tables     tables
	sparseSets sparseSets
	archetypes archetypes
	entities   entityIndex
	observers  observers
	removed    removedComponentEvents
	queue      operationQueue
	locked     bool
	tick       Tick
	log        *zap.Logger
}

func newStorage() *Storage {
	sto := &Storage{
		components: newComponents(),
		bundles:    newBundles(),
		tables:     newTables(),
		sparseSets: newSparseSets(),
		archetypes: newArchetypes(),
		removed:    newRemovedComponentEvents(),
		log:        Config.logger,
	}
	// Table 0 and archetype 0 are the empty shapes every entity starts from.
	emptyTable, _ := sto.getTableIDOrInsert(nil)
	sto.getArchetypeIDOrInsert(emptyTable, nil, nil, fragmentingValues{})
	return sto
}

// prepareComponentStorage makes the physical backing for a component exist.
// Sparse sets are created eagerly at registration; tables are interned when an
// archetype first needs them.
func (sto *Storage) prepareComponentStorage(id ComponentID) {
	info := sto.components.getUnchecked(id)
	if info.storage == StorageTypeSparseSet {
		sto.sparseSets.getOrCreate(info)
	}
}

// Locked reports whether the storage is mid-operation. Structural calls made
// while locked fail with LockedStorageError; use the Enqueue variants instead.
func (sto *Storage) Locked() bool { return sto.locked }

func (sto *Storage) lock() { sto.locked = true }

// unlock releases the storage and drains any operations hooks enqueued.
func (sto *Storage) unlock() {
	sto.locked = false
	sto.drainQueue()
}

func (sto *Storage) advanceTick() Tick {
	sto.tick++
	return sto.tick
}

// Tick returns the current change counter.
func (sto *Storage) Tick() Tick { return sto.tick }

// Component returns the metadata record for a registered component id.
func (sto *Storage) Component(id ComponentID) (*ComponentInfo, bool) {
	return sto.components.get(id)
}

// ComponentIDByType resolves a reflect type to its registered id.
func (sto *Storage) ComponentIDByType(t reflect.Type) (ComponentID, bool) {
	return sto.components.idByType(t)
}

// Archetype returns the archetype node for an id.
func (sto *Storage) Archetype(id ArchetypeID) *Archetype {
	return sto.archetypes.get(id)
}

// Table returns the table for an id.
func (sto *Storage) Table(id TableID) *Table {
	return sto.tables.get(id)
}

func (sto *Storage) ArchetypeCount() int { return len(sto.archetypes.all) }

func (sto *Storage) TableCount() int { return len(sto.tables.all) }

// ArchetypesCreated returns the monotonic creation counter. It only moves
// when a genuinely new archetype is interned, so repeating an operation with
// the same shapes leaves it unchanged.
func (sto *Storage) ArchetypesCreated() int { return sto.archetypes.created }

// Alive reports whether the handle refers to a live entity.
func (sto *Storage) Alive(e Entity) bool {
	return sto.entities.alive(e)
}

// EntityLocation resolves a handle to its current location.
func (sto *Storage) EntityLocation(e Entity) (EntityLocation, bool) {
	return sto.entities.resolve(e)
}

// ContainsComponent reports whether a live entity has the component.
func (sto *Storage) ContainsComponent(e Entity, id ComponentID) bool {
	loc, ok := sto.entities.resolve(e)
	if !ok {
		return false
	}
	return sto.archetypes.get(loc.ArchetypeID).Contains(id)
}

// Get returns a copy of the entity's value for a component id.
func (sto *Storage) Get(e Entity, id ComponentID) (any, bool) {
	ptr, ok := sto.componentPtr(e, id)
	if !ok {
		return nil, false
	}
	return ptr.Elem().Interface(), true
}

// componentPtr resolves an addressable pointer to the stored value, whichever
// layout backs the component.
func (sto *Storage) componentPtr(e Entity, id ComponentID) (reflect.Value, bool) {
	loc, ok := sto.entities.resolve(e)
	if !ok {
		return reflect.Value{}, false
	}
	info, ok := sto.components.get(id)
	if !ok {
		return reflect.Value{}, false
	}
	if info.storage == StorageTypeSparseSet {
		set, ok := sto.sparseSets.get(id)
		if !ok {
			return reflect.Value{}, false
		}
		return set.get(e)
	}
	if !sto.archetypes.get(loc.ArchetypeID).Contains(id) {
		return reflect.Value{}, false
	}
	c := sto.tables.get(loc.TableID).column(id)
	return c.data.Index(loc.TableRow).Addr(), true
}

// AddObserver registers an observer for a lifecycle event on a component.
// Observer flags of existing archetypes containing the component are updated
// so dispatch stays a flag check on the hot path.
func (sto *Storage) AddObserver(ev LifecycleEvent, id ComponentID, fn ObserverFn) {
	sto.observers.add(ev, id, fn)
	for _, arch := range sto.archetypes.all {
		if arch.Contains(id) {
			arch.observerFlags[ev] = true
		}
	}
}

// Spawn creates an entity carrying the given component values.
func (sto *Storage) Spawn(values ...any) (Entity, error) {
	if sto.locked {
		return Entity{}, LockedStorageError{}
	}
	pb := sto.prepareBundle(values)
	sto.lock()
	e := sto.spawnPrepared(&pb)
	sto.unlock()
	return e, nil
}

// SpawnBatch creates count entities all carrying the same bundle. The bundle
// is prepared once; every spawn after the first reuses the cached transition.
func (sto *Storage) SpawnBatch(count int, values ...any) ([]Entity, error) {
	if sto.locked {
		return nil, LockedStorageError{}
	}
	pb := sto.prepareBundle(values)
	out := make([]Entity, count)
	sto.lock()
	for i := range out {
		out[i] = sto.spawnPrepared(&pb)
	}
	sto.unlock()
	return out, nil
}

// spawnPrepared allocates a handle in the empty archetype and runs the
// insertion engine from there, so spawning and inserting share one move path.
func (sto *Storage) spawnPrepared(pb *preparedBundle) Entity {
	e := sto.entities.alloc()
	emptyArch := sto.archetypes.get(emptyArchetypeID)
	tableRow := sto.tables.get(emptyArch.tableID).allocate(e)
	loc := emptyArch.allocate(e, tableRow)
	sto.entities.set(e, loc)
	sto.runInsert(e, loc, pb, InsertModeReplace)
	return e
}

// Insert adds or overwrites the given component values on a live entity.
func (sto *Storage) Insert(e Entity, values ...any) error {
	return sto.insertValues(e, InsertModeReplace, values)
}

// InsertIfNew adds the given component values, keeping any existing values
// untouched. Incoming values for components the entity already has are
// dropped, not stored.
func (sto *Storage) InsertIfNew(e Entity, values ...any) error {
	return sto.insertValues(e, InsertModeKeep, values)
}

func (sto *Storage) insertValues(e Entity, mode InsertMode, values []any) error {
	if sto.locked {
		return LockedStorageError{}
	}
	loc, ok := sto.entities.resolve(e)
	if !ok {
		return StaleEntityError{Entity: e}
	}
	pb := sto.prepareBundle(values)
	sto.lock()
	sto.runInsert(e, loc, &pb, mode)
	sto.unlock()
	return nil
}

// InsertBatch inserts the same bundle on every given entity, preparing it
// once. Stale handles abort the batch before any entity is touched.
func (sto *Storage) InsertBatch(entities []Entity, values ...any) error {
	if sto.locked {
		return LockedStorageError{}
	}
	for _, e := range entities {
		if !sto.entities.alive(e) {
			return StaleEntityError{Entity: e}
		}
	}
	pb := sto.prepareBundle(values)
	sto.lock()
	for _, e := range entities {
		// Earlier inserts in the batch may have moved this entity.
		loc, _ := sto.entities.resolve(e)
		sto.runInsert(e, loc, &pb, InsertModeReplace)
	}
	sto.unlock()
	return nil
}

// InsertByID is the dynamic mirror of Insert: values arrive paired with
// explicit component ids. Unregistered ids and mismatched types panic.
func (sto *Storage) InsertByID(e Entity, ids []ComponentID, values []any) error {
	return sto.insertByID(e, InsertModeReplace, ids, values)
}

// InsertByIDIfNew is InsertByID with keep semantics for existing components.
func (sto *Storage) InsertByIDIfNew(e Entity, ids []ComponentID, values []any) error {
	return sto.insertByID(e, InsertModeKeep, ids, values)
}

func (sto *Storage) insertByID(e Entity, mode InsertMode, ids []ComponentID, values []any) error {
	if sto.locked {
		return LockedStorageError{}
	}
	loc, ok := sto.entities.resolve(e)
	if !ok {
		return StaleEntityError{Entity: e}
	}
	pb := sto.prepareBundleByIDs(ids, values)
	sto.lock()
	sto.runInsert(e, loc, &pb, mode)
	sto.unlock()
	return nil
}

// Remove deletes the given components from a live entity. Ids the entity does
// not have are skipped; removing nothing is a no-op.
func (sto *Storage) Remove(e Entity, ids ...ComponentID) error {
	if sto.locked {
		return LockedStorageError{}
	}
	loc, ok := sto.entities.resolve(e)
	if !ok {
		return StaleEntityError{Entity: e}
	}
	for _, id := range ids {
		if _, registered := sto.components.get(id); !registered {
			return UnregisteredComponentError{ID: id}
		}
	}
	info := sto.registerBundle(ids)
	sto.lock()
	sto.runRemove(e, loc, info)
	sto.unlock()
	return nil
}

// Despawn deletes the entity and every component it carries. The handle's
// generation is retired, so stale copies of it no longer resolve.
func (sto *Storage) Despawn(e Entity) error {
	if sto.locked {
		return LockedStorageError{}
	}
	loc, ok := sto.entities.resolve(e)
	if !ok {
		return StaleEntityError{Entity: e}
	}
	sto.lock()
	sto.runDespawn(e, loc)
	sto.unlock()
	return nil
}

// triggerAddInsert dispatches OnAdd or OnInsert for ids: the component's own
// hook first, then matching observers.
func (sto *Storage) triggerAddInsert(ev LifecycleEvent, e Entity, ids []ComponentID, arch *Archetype) {
	watched := arch.hasObserver(ev)
	for _, id := range ids {
		ctx := HookContext{Entity: e, ComponentID: id}
		if hook := sto.components.getUnchecked(id).hooks.hook(ev); hook != nil {
			hook(sto, ctx)
		}
		if watched {
			for _, fn := range sto.observers.get(ev, id) {
				fn(sto, ctx)
			}
		}
	}
}

// triggerTeardown dispatches OnReplace, OnRemove or OnDespawn for ids:
// observers first, then the component's own hook, mirroring the add-side
// order so paired acquire/release hooks nest correctly.
func (sto *Storage) triggerTeardown(ev LifecycleEvent, e Entity, ids []ComponentID, arch *Archetype) {
	watched := arch.hasObserver(ev)
	for _, id := range ids {
		ctx := HookContext{Entity: e, ComponentID: id}
		if watched {
			for _, fn := range sto.observers.get(ev, id) {
				fn(sto, ctx)
			}
		}
		if hook := sto.components.getUnchecked(id).hooks.hook(ev); hook != nil {
			hook(sto, ctx)
		}
	}
}
