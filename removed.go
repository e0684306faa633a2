package depot

// removedComponentEvents is a per-component log of entities that lost the
// component (by Remove or Despawn). Each component's log is double-buffered:
// events survive exactly one Update rotation, so readers polling once per
// frame never miss a removal and never see one twice.
type removedComponentEvents struct {
	buffers map[ComponentID]*removedComponentBuffer
}

type removedComponentBuffer struct {
	previous []Entity
	current  []Entity
	// base is the absolute index of previous[0] since storage creation;
	// cursors are absolute so a reader can't be replayed by rotation.
	base uint64
}

func newRemovedComponentEvents() removedComponentEvents {
	return removedComponentEvents{buffers: make(map[ComponentID]*removedComponentBuffer)}
}

func (r *removedComponentEvents) buffer(id ComponentID) *removedComponentBuffer {
	b, ok := r.buffers[id]
	if !ok {
		b = &removedComponentBuffer{}
		r.buffers[id] = b
	}
	return b
}

func (r *removedComponentEvents) record(id ComponentID, e Entity) {
	b := r.buffer(id)
	b.current = append(b.current, e)
}

func (r *removedComponentEvents) update() {
	for _, b := range r.buffers {
		b.base += uint64(len(b.previous))
		b.previous = b.current
		b.current = nil
	}
}

func (r *removedComponentEvents) clear() {
	for _, b := range r.buffers {
		b.base += uint64(len(b.previous) + len(b.current))
		b.previous = nil
		b.current = nil
	}
}

// RemovedCursor tracks how far one reader has consumed a component's removal
// log. The zero value reads from the beginning of the retained window.
type RemovedCursor struct {
	next uint64
}

// Removed returns the entities that lost the component since the cursor's
// last read, advancing the cursor. Events older than one Update rotation are
// gone; a reader that polls at least once per rotation sees every removal
// exactly once.
func (sto *Storage) Removed(id ComponentID, cursor *RemovedCursor) []Entity {
	b, ok := sto.removed.buffers[id]
	if !ok {
		return nil
	}
	end := b.base + uint64(len(b.previous)+len(b.current))
	if cursor.next >= end {
		return nil
	}
	if cursor.next < b.base {
		cursor.next = b.base
	}
	var out []Entity
	offset := cursor.next - b.base
	if offset < uint64(len(b.previous)) {
		out = append(out, b.previous[offset:]...)
		out = append(out, b.current...)
	} else {
		out = append(out, b.current[offset-uint64(len(b.previous)):]...)
	}
	cursor.next = end
	return out
}

// Update rotates the removal logs: events recorded since the previous Update
// stay readable for one more rotation, older events are discarded.
func (sto *Storage) Update() {
	sto.removed.update()
}

// ClearTrackers discards all retained removal events immediately.
func (sto *Storage) ClearTrackers() {
	sto.removed.clear()
}
