package depot

// Factory is the package's constructor access point.
var Factory factory

type factory struct{}

// NewStorage creates an empty storage with its own registries, the empty
// table and the empty archetype.
func (factory) NewStorage() *Storage {
	return newStorage()
}

// FactoryNewCache creates a bounded intern cache.
func FactoryNewCache[T any](maxCapacity int) Cache[T] {
	return &SimpleCache[T]{
		itemIndices: make(map[string]int),
		maxCapacity: maxCapacity,
	}
}
