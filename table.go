package depot

import (
	"reflect"

	"github.com/TheBitDrifter/mask"
	"go.uber.org/zap"
)

// TableID identifies one columnar table. Tables are interned by their
// component set: every archetype family with the same table-stored components
// shares one table.
type TableID uint32

// Tick is the change counter stamped on component writes. The storage bumps
// it once per structural operation.
type Tick uint32

// column is a type-erased growable buffer for one table-stored component,
// with parallel change-tick arrays. The backing store is a reflect slice of
// the concrete component type, so values stay visible to the garbage
// collector while remaining contiguous.
type column struct {
	typ     reflect.Type
	drop    DropFn
	data    reflect.Value
	added   []Tick
	changed []Tick
	callers []string
}

func newColumn(info *ComponentInfo) *column {
	return &column{
		typ:  info.typ,
		drop: info.drop,
		data: reflect.MakeSlice(reflect.SliceOf(info.typ), 0, 0),
	}
}

func (c *column) pushZero() {
	c.data = reflect.Append(c.data, reflect.Zero(c.typ))
	c.added = append(c.added, 0)
	c.changed = append(c.changed, 0)
	if Config.trackCallers {
		c.callers = append(c.callers, "")
	}
}

// initialize writes a value into a freshly allocated slot.
func (c *column) initialize(row int, value any, tick Tick, caller string) {
	c.data.Index(row).Set(reflect.ValueOf(value))
	c.added[row] = tick
	c.changed[row] = tick
	if row < len(c.callers) {
		c.callers[row] = caller
	}
}

// replace drops the old value, then overwrites the slot. The added tick is
// preserved; only the changed tick advances.
func (c *column) replace(row int, value any, tick Tick, caller string) {
	c.dropAt(row)
	c.data.Index(row).Set(reflect.ValueOf(value))
	c.changed[row] = tick
	if row < len(c.callers) {
		c.callers[row] = caller
	}
}

func (c *column) dropAt(row int) {
	if c.drop != nil {
		c.drop(c.data.Index(row).Interface())
	}
}

// dropIncoming releases a value that was rejected before ever being stored.
func (c *column) dropIncoming(value any) {
	if c.drop != nil {
		c.drop(value)
	}
}

func (c *column) copyRowTo(dst *column, srcRow, dstRow int) {
	dst.data.Index(dstRow).Set(c.data.Index(srcRow))
	dst.added[dstRow] = c.added[srcRow]
	dst.changed[dstRow] = c.changed[srcRow]
	if Config.trackCallers && srcRow < len(c.callers) && dstRow < len(dst.callers) {
		dst.callers[dstRow] = c.callers[srcRow]
	}
}

// swapRemoveRow removes a slot without dropping its value; callers that need
// the destructor run dropAt first.
func (c *column) swapRemoveRow(row int) {
	last := c.data.Len() - 1
	if row != last {
		c.data.Index(row).Set(c.data.Index(last))
		c.added[row] = c.added[last]
		c.changed[row] = c.changed[last]
		if last < len(c.callers) {
			c.callers[row] = c.callers[last]
		}
	}
	c.data = c.data.Slice(0, last)
	c.added = c.added[:last]
	c.changed = c.changed[:last]
	if last < len(c.callers) {
		c.callers = c.callers[:last]
	}
}

// Table is columnar storage for one unique table-component set. Rows are
// dense indices invalidated by swap-removal; any swap must be paired with an
// entity-index patch for the displaced occupant.
type Table struct {
	id           TableID
	componentIDs []ComponentID
	columns      []*column
	slots        [MaxComponentTypes]int16
	entities     []Entity
}

func newTable(id TableID, infos []*ComponentInfo) *Table {
	t := &Table{id: id}
	for i := range t.slots {
		t.slots[i] = -1
	}
	for i, info := range infos {
		t.componentIDs = append(t.componentIDs, info.id)
		t.columns = append(t.columns, newColumn(info))
		t.slots[info.id] = int16(i)
	}
	return t
}

func (t *Table) ID() TableID { return t.id }

func (t *Table) Len() int { return len(t.entities) }

func (t *Table) Contains(id ComponentID) bool {
	return int(id) < len(t.slots) && t.slots[id] >= 0
}

// ComponentIDs returns the table's component set in sorted order.
func (t *Table) ComponentIDs() []ComponentID {
	return t.componentIDs
}

func (t *Table) column(id ComponentID) *column {
	return t.columns[t.slots[id]]
}

// Entity returns the entity occupying a row.
func (t *Table) Entity(row int) Entity {
	return t.entities[row]
}

// allocate reserves a zero-initialized row for entity across all columns.
func (t *Table) allocate(entity Entity) int {
	row := len(t.entities)
	t.entities = append(t.entities, entity)
	for _, c := range t.columns {
		c.pushZero()
	}
	return row
}

// swapRemove removes a row, moving the last row into its place. It returns
// the displaced entity (the former last row) so the caller can patch its
// location; ok is false when the removed row was the last one.
func (t *Table) swapRemove(row int) (swapped Entity, ok bool) {
	last := len(t.entities) - 1
	if row != last {
		swapped = t.entities[last]
		ok = true
		t.entities[row] = swapped
	}
	t.entities = t.entities[:last]
	for _, c := range t.columns {
		c.swapRemoveRow(row)
	}
	return swapped, ok
}

// moveToSupersetUnchecked relocates a row into dst, which the caller
// guarantees contains every column of t. It returns the new row in dst and
// the entity displaced in t by the swap-removal, if any.
func (t *Table) moveToSupersetUnchecked(row int, dst *Table) (newRow int, swapped Entity, swappedOK bool) {
	entity := t.entities[row]
	newRow = dst.allocate(entity)
	for i, id := range t.componentIDs {
		t.columns[i].copyRowTo(dst.column(id), row, newRow)
	}
	swapped, swappedOK = t.swapRemove(row)
	return newRow, swapped, swappedOK
}

// moveToAndDropMissing relocates a row into dst, dropping values of columns
// dst does not have. Used by the removal mirror.
func (t *Table) moveToAndDropMissing(row int, dst *Table) (newRow int, swapped Entity, swappedOK bool) {
	entity := t.entities[row]
	newRow = dst.allocate(entity)
	for i, id := range t.componentIDs {
		if dst.Contains(id) {
			t.columns[i].copyRowTo(dst.column(id), row, newRow)
		} else {
			t.columns[i].dropAt(row)
		}
	}
	swapped, swappedOK = t.swapRemove(row)
	return newRow, swapped, swappedOK
}

// tables interns Tables by component-set mask.
type tables struct {
	all    []*Table
	byMask map[mask.Mask]TableID
}

func newTables() tables {
	return tables{byMask: make(map[mask.Mask]TableID)}
}

func (ts *tables) get(id TableID) *Table {
	return ts.all[id]
}

// getIDOrInsert resolves the table for a sorted component-id set, creating it
// on first encounter. The bool reports whether a new table was created.
func (sto *Storage) getTableIDOrInsert(ids []ComponentID) (TableID, bool) {
	var m mask.Mask
	for _, id := range ids {
		m.Mark(uint32(id))
	}
	if id, ok := sto.tables.byMask[m]; ok {
		return id, false
	}
	infos := make([]*ComponentInfo, len(ids))
	for i, id := range ids {
		infos[i] = sto.components.getUnchecked(id)
	}
	id := TableID(len(sto.tables.all))
	sto.tables.all = append(sto.tables.all, newTable(id, infos))
	sto.tables.byMask[m] = id
	sto.log.Debug("table created",
		zap.Uint32("table", uint32(id)),
		zap.Int("components", len(ids)),
	)
	return id, true
}
