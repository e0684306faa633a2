package depot

// runRemove applies one bundle removal: resolve the cached mirror transition,
// fire teardown triggers while values are still readable, record removal
// events, then move the entity and drop the removed values. The caller holds
// the storage lock.
func (sto *Storage) runRemove(e Entity, loc EntityLocation, info *BundleInfo) {
	edge, _ := sto.removeBundleFromArchetype(loc.ArchetypeID, info)
	if len(edge.removed) == 0 {
		return
	}
	srcArch := sto.archetypes.get(loc.ArchetypeID)

	sto.triggerTeardown(OnReplace, e, edge.removed, srcArch)
	sto.triggerTeardown(OnRemove, e, edge.removed, srcArch)
	for _, id := range edge.removed {
		sto.removed.record(id, e)
	}

	for _, id := range edge.removedSparse {
		set, _ := sto.sparseSets.get(id)
		set.remove(e, true)
	}

	dstArch := sto.archetypes.get(edge.target)
	if len(edge.removedTable) == 0 {
		// Table unchanged; only the archetype row moves.
		tableRow, swapped, swappedOK := srcArch.swapRemove(loc.ArchetypeRow)
		if swappedOK {
			sto.patchArchetypeRow(swapped, loc.ArchetypeRow)
		}
		sto.entities.set(e, dstArch.allocate(e, tableRow))
		return
	}

	srcTable := sto.tables.get(srcArch.tableID)
	dstTable := sto.tables.get(dstArch.tableID)
	newRow, tableSwapped, tableSwappedOK := srcTable.moveToAndDropMissing(loc.TableRow, dstTable)
	if tableSwappedOK {
		sto.patchTableRow(tableSwapped, loc.TableRow)
	}
	_, archSwapped, archSwappedOK := srcArch.swapRemove(loc.ArchetypeRow)
	if archSwappedOK {
		sto.patchArchetypeRow(archSwapped, loc.ArchetypeRow)
	}
	sto.entities.set(e, dstArch.allocate(e, newRow))
}

// runDespawn tears the entity down completely. Triggers see the entity with
// all of its components still present; teardown happens only after the last
// trigger returns.
func (sto *Storage) runDespawn(e Entity, loc EntityLocation) {
	arch := sto.archetypes.get(loc.ArchetypeID)
	ids := arch.componentIDs

	sto.triggerTeardown(OnDespawn, e, ids, arch)
	sto.triggerTeardown(OnReplace, e, ids, arch)
	sto.triggerTeardown(OnRemove, e, ids, arch)
	for _, id := range ids {
		sto.removed.record(id, e)
	}

	for _, id := range arch.sparseComponents {
		set, _ := sto.sparseSets.get(id)
		set.remove(e, true)
	}

	table := sto.tables.get(loc.TableID)
	for _, c := range table.columns {
		c.dropAt(loc.TableRow)
	}
	tableSwapped, tableSwappedOK := table.swapRemove(loc.TableRow)
	if tableSwappedOK {
		sto.patchTableRow(tableSwapped, loc.TableRow)
	}
	_, archSwapped, archSwappedOK := arch.swapRemove(loc.ArchetypeRow)
	if archSwappedOK {
		sto.patchArchetypeRow(archSwapped, loc.ArchetypeRow)
	}
	sto.entities.release(e)
}
