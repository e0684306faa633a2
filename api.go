package depot

// Cache provides indexed lookups for registered items. Registration order
// determines the index.
type Cache[T any] interface {
	GetIndex(key string) (int, bool)
	GetItem(index int) *T
	Register(key string, item T) (int, error)
	Clear()
}

// EntityResolver is the read-only slice of Storage most consumers need: turn
// a handle into a location, or find out it is stale.
type EntityResolver interface {
	Alive(e Entity) bool
	EntityLocation(e Entity) (EntityLocation, bool)
	ContainsComponent(e Entity, id ComponentID) bool
}

// ComponentGetter reads component values without exposing mutation.
type ComponentGetter interface {
	EntityResolver
	Get(e Entity, id ComponentID) (any, bool)
}

var (
	_ EntityResolver  = &Storage{}
	_ ComponentGetter = &Storage{}
)
