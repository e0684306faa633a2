package depot_test

import (
	"fmt"

	"github.com/TheBitDrifter/depot"
)

// Position is a simple component for 2D coordinates
type Position struct {
	X float64
	Y float64
}

// Velocity is a simple component for 2D movement
type Velocity struct {
	X float64
	Y float64
}

// Faction is a fragmenting component: its value is part of archetype identity
type Faction struct {
	Name string
}

// Example shows basic depot usage with spawning and structural changes
func Example_basic() {
	// Create storage
	storage := depot.Factory.NewStorage()

	// Define components
	position := depot.FactoryNewComponent[Position](storage)
	velocity := depot.FactoryNewComponent[Velocity](storage)

	// Spawn entities
	storage.SpawnBatch(5, Position{})
	entities, _ := storage.SpawnBatch(3, Position{}, Velocity{})

	// Read and write component data in place
	pos, _ := position.GetFromEntity(entities[0])
	vel, _ := velocity.GetFromEntity(entities[0])
	pos.X, pos.Y = 10.0, 20.0
	vel.X, vel.Y = 1.0, 2.0

	// Removing a component moves the entity to a smaller archetype
	storage.Remove(entities[0], velocity.ID())
	fmt.Printf("Entity has velocity: %v\n", velocity.CheckEntity(entities[0]))
	fmt.Printf("Entity has position: %v\n", position.CheckEntity(entities[0]))

	// Output:
	// Entity has velocity: false
	// Entity has position: true
}

// Example_fragmenting shows value-keyed archetypes
func Example_fragmenting() {
	storage := depot.Factory.NewStorage()
	depot.RegisterFragmentingComponent[Faction](storage)

	red, _ := storage.Spawn(Position{}, Faction{Name: "red"})
	blue, _ := storage.Spawn(Position{}, Faction{Name: "blue"})
	red2, _ := storage.Spawn(Position{}, Faction{Name: "red"})

	locRed, _ := storage.EntityLocation(red)
	locBlue, _ := storage.EntityLocation(blue)
	locRed2, _ := storage.EntityLocation(red2)

	fmt.Printf("red entities share an archetype: %v\n", locRed.ArchetypeID == locRed2.ArchetypeID)
	fmt.Printf("red and blue share an archetype: %v\n", locRed.ArchetypeID == locBlue.ArchetypeID)
	fmt.Printf("red and blue share a table: %v\n", locRed.TableID == locBlue.TableID)

	// Output:
	// red entities share an archetype: true
	// red and blue share an archetype: false
	// red and blue share a table: true
}

// Example_hooks shows lifecycle triggers around structural changes
func Example_hooks() {
	storage := depot.Factory.NewStorage()
	velID := depot.RegisterComponent[Velocity](storage)

	info, _ := storage.Component(velID)
	info.Hooks().OnAdd(func(sto *depot.Storage, ctx depot.HookContext) {
		fmt.Println("velocity added")
	})
	info.Hooks().OnRemove(func(sto *depot.Storage, ctx depot.HookContext) {
		fmt.Println("velocity removed")
	})

	e, _ := storage.Spawn(Position{}, Velocity{X: 1})
	storage.Remove(e, velID)

	// Output:
	// velocity added
	// velocity removed
}
