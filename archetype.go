package depot

import (
	"iter"
	"slices"

	"github.com/TheBitDrifter/mask"
	iter_util "github.com/TheBitDrifter/util/iter"
	"go.uber.org/zap"
)

// ArchetypeID identifies one archetype node. Archetype 0 is the empty
// archetype every spawned entity starts from.
type ArchetypeID uint32

const emptyArchetypeID ArchetypeID = 0

// componentStatus classifies an explicit bundle component against the source
// archetype of a transition.
type componentStatus uint8

const (
	statusAdded componentStatus = iota
	statusExisting
)

// archetypeAfterBundleInsert is one cached insertion edge: everything the
// engine needs to repeat the same (archetype, bundle) transition without
// recomputation.
type archetypeAfterBundleInsert struct {
	target ArchetypeID
	// statuses is aligned with the bundle's explicit components.
	statuses []componentStatus
	// requiredConstructors are the required components the transition must
	// construct because the source archetype lacks them.
	requiredConstructors []RequiredComponent
	added                []ComponentID
	existing             []ComponentID
	inserted             []ComponentID
	// fragments is the bundle-side fragmenting key this edge was computed
	// for; zero for bundles without fragmenting components.
	fragments fragmentingValues
}

// archetypeAfterBundleRemove is the cached removal mirror.
type archetypeAfterBundleRemove struct {
	target        ArchetypeID
	removed       []ComponentID
	removedTable  []ComponentID
	removedSparse []ComponentID
}

// archetypeEdges caches transition results per bundle. Entries are never
// invalidated: archetypes are immutable in shape once created, so a cached
// destination stays correct for the storage's lifetime.
type archetypeEdges struct {
	insert map[BundleID]*archetypeAfterBundleInsert
	// insertFragmented additionally keys on the bundle's fragmenting values;
	// one entry exists per value combination actually observed.
	insertFragmented map[BundleID][]*archetypeAfterBundleInsert
	remove           map[BundleID]*archetypeAfterBundleRemove
}

func (e *archetypeEdges) cachedInsert(id BundleID, frags fragmentingValues) (*archetypeAfterBundleInsert, bool) {
	if frags.empty() {
		edge, ok := e.insert[id]
		return edge, ok
	}
	for _, edge := range e.insertFragmented[id] {
		if edge.fragments.equal(frags) {
			return edge, true
		}
	}
	return nil, false
}

func (e *archetypeEdges) cacheInsert(id BundleID, edge *archetypeAfterBundleInsert) {
	if edge.fragments.empty() {
		if e.insert == nil {
			e.insert = make(map[BundleID]*archetypeAfterBundleInsert)
		}
		e.insert[id] = edge
		return
	}
	if e.insertFragmented == nil {
		e.insertFragmented = make(map[BundleID][]*archetypeAfterBundleInsert)
	}
	e.insertFragmented[id] = append(e.insertFragmented[id], edge)
}

func (e *archetypeEdges) cachedRemove(id BundleID) (*archetypeAfterBundleRemove, bool) {
	edge, ok := e.remove[id]
	return edge, ok
}

func (e *archetypeEdges) cacheRemove(id BundleID, edge *archetypeAfterBundleRemove) {
	if e.remove == nil {
		e.remove = make(map[BundleID]*archetypeAfterBundleRemove)
	}
	e.remove[id] = edge
}

type archetypeEntity struct {
	entity   Entity
	tableRow int
}

// Archetype is one immutable-shape node of the transition graph: a unique
// combination of component ids (and fragmenting values), backed by one table
// for its table-stored components.
type Archetype struct {
	id               ArchetypeID
	tableID          TableID
	componentIDs     []ComponentID
	tableComponents  []ComponentID
	sparseComponents []ComponentID
	slots            [MaxComponentTypes]bool
	fragments        fragmentingValues
	entities         []archetypeEntity
	edges            archetypeEdges
	observerFlags    [numLifecycleEvents]bool
}

func (a *Archetype) ID() ArchetypeID { return a.id }

func (a *Archetype) TableID() TableID { return a.tableID }

func (a *Archetype) Len() int { return len(a.entities) }

// Contains reports whether the archetype's component set includes id.
func (a *Archetype) Contains(id ComponentID) bool {
	return int(id) < len(a.slots) && a.slots[id]
}

// Components yields the archetype's component ids in sorted order.
func (a *Archetype) Components() iter.Seq[ComponentID] {
	return func(yield func(ComponentID) bool) {
		for _, id := range a.componentIDs {
			if !yield(id) {
				return
			}
		}
	}
}

// ComponentIDs returns the archetype's component ids as a fresh slice.
func (a *Archetype) ComponentIDs() []ComponentID {
	return iter_util.Collect(a.Components())
}

// FragmentValue returns the fragmenting value recorded for id, if the
// archetype fragments on it.
func (a *Archetype) FragmentValue(id ComponentID) (any, bool) {
	v, ok := a.fragments.get(id)
	if !ok {
		return nil, false
	}
	return v.value, true
}

// Entity returns the entity occupying an archetype row.
func (a *Archetype) Entity(row int) Entity {
	return a.entities[row].entity
}

func (a *Archetype) hasObserver(ev LifecycleEvent) bool {
	return a.observerFlags[ev]
}

// allocate appends an entity row backed by the given table row.
func (a *Archetype) allocate(entity Entity, tableRow int) EntityLocation {
	row := len(a.entities)
	a.entities = append(a.entities, archetypeEntity{entity: entity, tableRow: tableRow})
	return EntityLocation{
		ArchetypeID:  a.id,
		ArchetypeRow: row,
		TableID:      a.tableID,
		TableRow:     tableRow,
	}
}

// swapRemove removes an archetype row, returning its table row and, if the
// swap displaced another entity, that entity for location patching.
func (a *Archetype) swapRemove(row int) (tableRow int, swapped Entity, swappedOK bool) {
	tableRow = a.entities[row].tableRow
	last := len(a.entities) - 1
	if row != last {
		a.entities[row] = a.entities[last]
		swapped = a.entities[row].entity
		swappedOK = true
	}
	a.entities = a.entities[:last]
	return tableRow, swapped, swappedOK
}

// setEntityTableRow repoints an archetype row at a new table row after a
// cross-table swap displaced its backing row.
func (a *Archetype) setEntityTableRow(row, tableRow int) {
	a.entities[row].tableRow = tableRow
}

// archetypes is the append-only archetype arena, interned by
// {table id, component mask, fragmenting values}.
type archetypes struct {
	all     []*Archetype
	byKey   map[archetypeKey][]ArchetypeID
	created int
}

type archetypeKey struct {
	tableID  TableID
	m        mask.Mask
	fragHash uint64
}

func newArchetypes() archetypes {
	return archetypes{byKey: make(map[archetypeKey][]ArchetypeID)}
}

func (as *archetypes) get(id ArchetypeID) *Archetype {
	return as.all[id]
}

// getArchetypeIDOrInsert resolves the archetype for the given shape, creating
// it on first encounter. Component id slices must be sorted. The bool reports
// whether a new archetype was created.
func (sto *Storage) getArchetypeIDOrInsert(
	tableID TableID,
	tableComponents, sparseComponents []ComponentID,
	frags fragmentingValues,
) (ArchetypeID, bool) {
	all := make([]ComponentID, 0, len(tableComponents)+len(sparseComponents))
	all = append(all, tableComponents...)
	all = append(all, sparseComponents...)
	slices.Sort(all)

	var m mask.Mask
	for _, id := range all {
		m.Mark(uint32(id))
	}
	key := archetypeKey{tableID: tableID, m: m, fragHash: frags.hash}
	for _, id := range sto.archetypes.byKey[key] {
		if sto.archetypes.all[id].fragments.equal(frags) {
			return id, false
		}
	}

	arch := &Archetype{
		id:               ArchetypeID(len(sto.archetypes.all)),
		tableID:          tableID,
		componentIDs:     all,
		tableComponents:  slices.Clone(tableComponents),
		sparseComponents: slices.Clone(sparseComponents),
		fragments:        frags,
	}
	for _, id := range all {
		arch.slots[id] = true
	}
	for ev := range numLifecycleEvents {
		arch.observerFlags[ev] = sto.observers.watches(ev, all)
	}

	sto.archetypes.all = append(sto.archetypes.all, arch)
	sto.archetypes.byKey[key] = append(sto.archetypes.byKey[key], arch.id)
	sto.archetypes.created++

	sto.log.Debug("archetype created",
		zap.Uint32("archetype", uint32(arch.id)),
		zap.Uint32("table", uint32(tableID)),
		zap.Int("components", len(all)),
		zap.Bool("fragmented", !frags.empty()),
	)
	if Config.onArchetypeCreated != nil {
		Config.onArchetypeCreated(arch.id)
	}
	return arch.id, true
}

// insertBundleIntoArchetype resolves the destination of inserting a bundle
// into an archetype, consulting the edge cache first. Cache hits dominate at
// steady state; only the first encounter of a (archetype, bundle[, values])
// combination pays for classification and interning.
//
// Fragmenting values participate in the destination only when they will
// actually be written: keep-mode inserts on an entity that already has the
// fragmenting component leave the archetype's value in force, so the incoming
// value is excluded from the key.
func (sto *Storage) insertBundleIntoArchetype(archetypeID ArchetypeID, pb *preparedBundle, mode InsertMode) (*archetypeAfterBundleInsert, bool) {
	arch := sto.archetypes.get(archetypeID)
	info := pb.info

	incomingFrags := pb.frags
	if mode == InsertModeKeep && len(incomingFrags) > 0 {
		kept := make([]fragmentingValue, 0, len(incomingFrags))
		for _, fv := range incomingFrags {
			if !arch.Contains(fv.id) {
				kept = append(kept, fv)
			}
		}
		incomingFrags = kept
	}
	var bundleFrags fragmentingValues
	if len(incomingFrags) > 0 {
		bundleFrags = newFragmentingValues(slices.Clone(incomingFrags))
	}
	if edge, ok := arch.edges.cachedInsert(info.id, bundleFrags); ok {
		return edge, false
	}

	edge := &archetypeAfterBundleInsert{fragments: bundleFrags}
	var newTableComponents, newSparseSetComponents []ComponentID

	for _, id := range info.ExplicitComponents() {
		if arch.Contains(id) {
			edge.statuses = append(edge.statuses, statusExisting)
			edge.existing = append(edge.existing, id)
		} else {
			edge.statuses = append(edge.statuses, statusAdded)
			edge.added = append(edge.added, id)
			switch sto.components.getUnchecked(id).storage {
			case StorageTypeTable:
				newTableComponents = append(newTableComponents, id)
			case StorageTypeSparseSet:
				newSparseSetComponents = append(newSparseSetComponents, id)
			}
		}
	}
	for i, id := range info.RequiredComponents() {
		if arch.Contains(id) {
			continue
		}
		edge.requiredConstructors = append(edge.requiredConstructors, info.requiredConstructors[i])
		edge.added = append(edge.added, id)
		switch sto.components.getUnchecked(id).storage {
		case StorageTypeTable:
			newTableComponents = append(newTableComponents, id)
		case StorageTypeSparseSet:
			newSparseSetComponents = append(newSparseSetComponents, id)
		}
	}
	edge.inserted = append(slices.Clone(edge.added), edge.existing...)

	destFrags := arch.fragments
	if len(incomingFrags) > 0 {
		destFrags = arch.fragments.merge(incomingFrags)
	}

	noNewComponents := len(newTableComponents) == 0 && len(newSparseSetComponents) == 0
	if noNewComponents && destFrags.equal(arch.fragments) {
		// Shape and values unchanged: the destination is the source.
		edge.target = archetypeID
		arch.edges.cacheInsert(info.id, edge)
		return edge, false
	}

	tableID := arch.tableID
	tableComponents := arch.tableComponents
	if len(newTableComponents) > 0 {
		tableComponents = append(newTableComponents, arch.tableComponents...)
		slices.Sort(tableComponents)
		tableID, _ = sto.getTableIDOrInsert(tableComponents)
	}
	sparseComponents := arch.sparseComponents
	if len(newSparseSetComponents) > 0 {
		sparseComponents = append(newSparseSetComponents, arch.sparseComponents...)
		slices.Sort(sparseComponents)
	}

	target, created := sto.getArchetypeIDOrInsert(tableID, tableComponents, sparseComponents, destFrags)
	edge.target = target
	// Cache on the source archetype; re-fetch in case interning grew the arena.
	sto.archetypes.get(archetypeID).edges.cacheInsert(info.id, edge)
	return edge, created
}

// removeBundleFromArchetype is the structural mirror: the archetype reachable
// by deleting a bundle's explicit components, with the same caching
// discipline. Components the archetype does not have are skipped.
func (sto *Storage) removeBundleFromArchetype(archetypeID ArchetypeID, info *BundleInfo) (*archetypeAfterBundleRemove, bool) {
	arch := sto.archetypes.get(archetypeID)
	if edge, ok := arch.edges.cachedRemove(info.id); ok {
		return edge, false
	}

	edge := &archetypeAfterBundleRemove{}
	for _, id := range info.ExplicitComponents() {
		if !arch.Contains(id) {
			continue
		}
		edge.removed = append(edge.removed, id)
		switch sto.components.getUnchecked(id).storage {
		case StorageTypeTable:
			edge.removedTable = append(edge.removedTable, id)
		case StorageTypeSparseSet:
			edge.removedSparse = append(edge.removedSparse, id)
		}
	}

	if len(edge.removed) == 0 {
		edge.target = archetypeID
		arch.edges.cacheRemove(info.id, edge)
		return edge, false
	}

	tableComponents := without(arch.tableComponents, edge.removedTable)
	sparseComponents := without(arch.sparseComponents, edge.removedSparse)
	tableID := arch.tableID
	if len(edge.removedTable) > 0 {
		tableID, _ = sto.getTableIDOrInsert(tableComponents)
	}
	frags := arch.fragments.without(edge.removed)

	target, created := sto.getArchetypeIDOrInsert(tableID, tableComponents, sparseComponents, frags)
	edge.target = target
	sto.archetypes.get(archetypeID).edges.cacheRemove(info.id, edge)
	return edge, created
}

// without filters sorted ids, preserving order.
func without(ids, removed []ComponentID) []ComponentID {
	out := make([]ComponentID, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(removed, id) {
			out = append(out, id)
		}
	}
	return out
}
