package depot

import "fmt"

type LockedStorageError struct{}

func (e LockedStorageError) Error() string {
	return "storage is currently locked"
}

type StaleEntityError struct {
	Entity Entity
}

func (e StaleEntityError) Error() string {
	return fmt.Sprintf("entity %v is despawned or stale", e.Entity)
}

type UnregisteredComponentError struct {
	ID ComponentID
}

func (e UnregisteredComponentError) Error() string {
	return fmt.Sprintf("component id %d is not registered", e.ID)
}

type ComponentNotFoundError struct {
	ID ComponentID
}

func (e ComponentNotFoundError) Error() string {
	return fmt.Sprintf("component id %d does not exist on entity", e.ID)
}

type ComponentTypeError struct {
	ID       ComponentID
	Expected string
	Got      string
}

func (e ComponentTypeError) Error() string {
	return fmt.Sprintf("component id %d expects type %s, got %s", e.ID, e.Expected, e.Got)
}
