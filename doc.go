/*
Package depot provides the archetype/bundle storage core for an Entity-Component-System.

Depot decides, for any set of component types attached to an entity, which physical
archetype that entity belongs to, lays component data out in columnar tables or
per-component sparse sets, and moves entities between archetypes as components are
added and removed. Lifecycle triggers (add/insert/replace/remove/despawn) fire in a
fixed order around every structural change.

Core Concepts:

  - Entity: a generation-checked handle identifying a game object.
  - Component: a data value attached to entities, registered once per storage.
  - Bundle: an ordered set of component values inserted or removed together.
  - Archetype: the interned combination of component types (and fragmenting
    values) shared by a group of entities, backed by one columnar table.
  - Transition edge: the cached result of inserting or removing a bundle on an
    archetype, so repeated structural operations are O(1) after the first.

Basic Usage:

	// Create storage
	storage := depot.Factory.NewStorage()

	// Define components
	position := depot.FactoryNewComponent[Position](storage)
	velocity := depot.FactoryNewComponent[Velocity](storage)

	// Spawn an entity
	entity, _ := storage.Spawn(Position{X: 10}, Velocity{X: 1})

	// Read and write component data
	pos, _ := position.GetFromEntity(entity)
	pos.X += 5

	// Structural changes move the entity between archetypes
	storage.Remove(entity, velocity.ID())

Depot assumes exclusive single-threaded access during structural changes. Query
execution, scheduling and serialization live in higher layers that consume the
lookup surface (EntityLocation, Archetype, Table) declared in api.go.
*/
package depot
