package depot

import (
	"runtime"
	"strconv"
	"strings"
)

// InsertMode controls what happens to components the entity already has.
type InsertMode uint8

const (
	// InsertModeReplace overwrites existing values, dropping the old value.
	InsertModeReplace InsertMode = iota
	// InsertModeKeep leaves existing values untouched and drops the incoming
	// value without storing it.
	InsertModeKeep
)

// moveKind classifies a transition by how much data has to move.
type moveKind uint8

const (
	// moveSameArchetype: shape and values unchanged, rows stay put.
	moveSameArchetype moveKind = iota
	// moveNewArchetypeSameTable: archetype changes but its table is the same,
	// so only the archetype row moves.
	moveNewArchetypeSameTable
	// moveNewArchetypeNewTable: the table row relocates too.
	moveNewArchetypeNewTable
)

// runInsert applies one bundle insertion: resolve the cached transition,
// fire pre-overwrite triggers, move the entity, write values, fire add and
// insert triggers. The caller holds the storage lock.
func (sto *Storage) runInsert(e Entity, loc EntityLocation, pb *preparedBundle, mode InsertMode) {
	edge, _ := sto.insertBundleIntoArchetype(loc.ArchetypeID, pb, mode)
	srcArch := sto.archetypes.get(loc.ArchetypeID)

	// Replaced components announce the overwrite while the old value is still
	// readable. Keep mode never overwrites, so nothing fires.
	if mode == InsertModeReplace && len(edge.existing) > 0 {
		sto.triggerTeardown(OnReplace, e, edge.existing, srcArch)
	}

	tick := sto.advanceTick()
	newLoc := sto.moveForInsert(e, loc, edge)
	sto.writeBundle(e, newLoc, pb, edge, mode, tick)

	dstArch := sto.archetypes.get(newLoc.ArchetypeID)
	if len(edge.added) > 0 {
		sto.triggerAddInsert(OnAdd, e, edge.added, dstArch)
	}
	inserted := edge.inserted
	if mode == InsertModeKeep {
		// Kept components were not written, so they are not "inserted".
		inserted = edge.added
	}
	if len(inserted) > 0 {
		sto.triggerAddInsert(OnInsert, e, inserted, dstArch)
	}
}

// moveForInsert relocates the entity's rows for a transition and patches the
// locations of any entities displaced by swap-removal.
func (sto *Storage) moveForInsert(e Entity, loc EntityLocation, edge *archetypeAfterBundleInsert) EntityLocation {
	if edge.target == loc.ArchetypeID {
		return loc
	}
	srcArch := sto.archetypes.get(loc.ArchetypeID)
	dstArch := sto.archetypes.get(edge.target)

	switch classifyMove(srcArch, dstArch) {
	case moveNewArchetypeSameTable:
		tableRow, swapped, swappedOK := srcArch.swapRemove(loc.ArchetypeRow)
		if swappedOK {
			sto.patchArchetypeRow(swapped, loc.ArchetypeRow)
		}
		newLoc := dstArch.allocate(e, tableRow)
		sto.entities.set(e, newLoc)
		return newLoc

	default: // moveNewArchetypeNewTable
		srcTable := sto.tables.get(srcArch.tableID)
		dstTable := sto.tables.get(dstArch.tableID)
		newRow, tableSwapped, tableSwappedOK := srcTable.moveToSupersetUnchecked(loc.TableRow, dstTable)
		if tableSwappedOK {
			sto.patchTableRow(tableSwapped, loc.TableRow)
		}
		_, archSwapped, archSwappedOK := srcArch.swapRemove(loc.ArchetypeRow)
		if archSwappedOK {
			sto.patchArchetypeRow(archSwapped, loc.ArchetypeRow)
		}
		newLoc := dstArch.allocate(e, newRow)
		sto.entities.set(e, newLoc)
		return newLoc
	}
}

func classifyMove(src, dst *Archetype) moveKind {
	if src.id == dst.id {
		return moveSameArchetype
	}
	if src.tableID == dst.tableID {
		return moveNewArchetypeSameTable
	}
	return moveNewArchetypeNewTable
}

// patchArchetypeRow repoints a displaced entity's archetype row.
func (sto *Storage) patchArchetypeRow(displaced Entity, row int) {
	dloc := sto.entities.locByID(displaced.ID)
	dloc.ArchetypeRow = row
	sto.entities.setByID(displaced.ID, dloc)
}

// patchTableRow repoints a displaced entity's table row, in both the entity
// index and its archetype's row record. The displaced entity may live in a
// different archetype than the mover when archetypes share a table.
func (sto *Storage) patchTableRow(displaced Entity, row int) {
	dloc := sto.entities.locByID(displaced.ID)
	dloc.TableRow = row
	sto.entities.setByID(displaced.ID, dloc)
	sto.archetypes.get(dloc.ArchetypeID).setEntityTableRow(dloc.ArchetypeRow, row)
}

// writeBundle stores the bundle's values at the entity's (post-move) location
// according to the per-component status and the insert mode, then constructs
// any required components the entity lacked.
func (sto *Storage) writeBundle(e Entity, loc EntityLocation, pb *preparedBundle, edge *archetypeAfterBundleInsert, mode InsertMode, tick Tick) {
	caller := ""
	if Config.trackCallers {
		caller = callerString()
	}
	table := sto.tables.get(loc.TableID)

	for i, id := range pb.info.ExplicitComponents() {
		value := pb.values[i]
		info := sto.components.getUnchecked(id)
		existing := edge.statuses[i] == statusExisting

		if info.storage == StorageTypeSparseSet {
			set, _ := sto.sparseSets.get(id)
			if existing && mode == InsertModeKeep {
				set.dropIncoming(value)
				continue
			}
			set.insert(e, value, tick)
			continue
		}

		c := table.column(id)
		switch {
		case !existing:
			c.initialize(loc.TableRow, value, tick, caller)
		case mode == InsertModeReplace:
			c.replace(loc.TableRow, value, tick, caller)
		default:
			c.dropIncoming(value)
		}
	}

	// Required components are always freshly added on this transition.
	for _, req := range edge.requiredConstructors {
		value := req.Construct()
		info := sto.components.getUnchecked(req.ID)
		if info.storage == StorageTypeSparseSet {
			set, _ := sto.sparseSets.get(req.ID)
			set.insert(e, value, tick)
			continue
		}
		table.column(req.ID).initialize(loc.TableRow, value, tick, caller)
	}
}

const pkgFuncPrefix = "github.com/TheBitDrifter/depot."

// callerString resolves the first frame outside this package, so write
// diagnostics point at the user's call site no matter which entry path
// (spawn, insert, batch, enqueued) led to the write.
func callerString() string {
	var pcs [16]uintptr
	n := runtime.Callers(2, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if frame.Function == "" {
			return ""
		}
		if !strings.HasPrefix(frame.Function, pkgFuncPrefix) || strings.HasSuffix(frame.File, "_test.go") {
			return frame.File + ":" + strconv.Itoa(frame.Line)
		}
		if !more {
			return ""
		}
	}
}
