package bench

import (
	"testing"

	"github.com/TheBitDrifter/depot"
)

type Position struct {
	X float64
	Y float64
}

type Velocity struct {
	X float64
	Y float64
}

const (
	nPos    = 9000
	nPosVel = 1000
)

func BenchmarkDepotSpawnBatch(b *testing.B) {
	for i := 0; i < b.N; i++ {
		storage := depot.Factory.NewStorage()
		storage.SpawnBatch(nPos, Position{})
		storage.SpawnBatch(nPosVel, Position{}, Velocity{})
	}
}

func BenchmarkDepotGet(b *testing.B) {
	b.StopTimer()

	storage := depot.Factory.NewStorage()
	position := depot.FactoryNewComponent[Position](storage)
	velocity := depot.FactoryNewComponent[Velocity](storage)

	storage.SpawnBatch(nPos, Position{})
	entities, _ := storage.SpawnBatch(nPosVel, Position{}, Velocity{})

	b.StartTimer()

	for i := 0; i < b.N; i++ {
		for _, e := range entities {
			pos, _ := position.GetFromEntity(e)
			vel, _ := velocity.GetFromEntity(e)

			pos.X += vel.X
			pos.Y += vel.Y
		}
	}
}

func BenchmarkDepotInsertRemoveChurn(b *testing.B) {
	b.StopTimer()

	storage := depot.Factory.NewStorage()
	velocity := depot.FactoryNewComponent[Velocity](storage)
	entities, _ := storage.SpawnBatch(nPosVel, Position{})

	b.StartTimer()

	for i := 0; i < b.N; i++ {
		for _, e := range entities {
			storage.Insert(e, Velocity{X: 1})
		}
		for _, e := range entities {
			storage.Remove(e, velocity.ID())
		}
	}
}
