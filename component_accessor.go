package depot

// AccessibleComponent is a typed handle to one registered component within one
// storage. It carries the resolved id so per-call type lookups are avoided.
type AccessibleComponent[T any] struct {
	id  ComponentID
	sto *Storage
}

// FactoryNewComponent registers T (if needed) and returns its typed accessor.
func FactoryNewComponent[T any](sto *Storage) AccessibleComponent[T] {
	return AccessibleComponent[T]{id: RegisterComponent[T](sto), sto: sto}
}

func (a AccessibleComponent[T]) ID() ComponentID { return a.id }

// CheckEntity reports whether the entity currently has the component.
func (a AccessibleComponent[T]) CheckEntity(e Entity) bool {
	return a.sto.ContainsComponent(e, a.id)
}

// GetFromEntity returns a pointer into the live storage for the entity's
// value. The pointer is invalidated by the next structural change.
func (a AccessibleComponent[T]) GetFromEntity(e Entity) (*T, bool) {
	ptr, ok := a.sto.componentPtr(e, a.id)
	if !ok {
		return nil, false
	}
	return ptr.Interface().(*T), true
}

// InsertOnEntity adds or overwrites the component on the entity.
func (a AccessibleComponent[T]) InsertOnEntity(e Entity, value T) error {
	return a.sto.Insert(e, value)
}

// RemoveFromEntity deletes the component from the entity.
func (a AccessibleComponent[T]) RemoveFromEntity(e Entity) error {
	return a.sto.Remove(e, a.id)
}
