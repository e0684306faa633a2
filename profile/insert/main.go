// Profiling:
// go build ./profile/insert
// go tool pprof -http=":8000" -nodefraction=0.001 ./insert mem.pprof

package main

import (
	"github.com/TheBitDrifter/depot"
	"github.com/pkg/profile"
)

type comp1 struct {
	V int64
	W int64
}

type comp2 struct {
	V int64
	W int64
}

func main() {
	count := 50
	iters := 1000
	entities := 1000
	p := profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook)
	run(count, iters, entities)
	p.Stop()
}

func run(rounds, iters, numEntities int) {
	for range rounds {
		storage := depot.Factory.NewStorage()
		c2 := depot.FactoryNewComponent[comp2](storage)

		for range iters {
			entities, _ := storage.SpawnBatch(numEntities, comp1{V: 1, W: 1})
			for _, e := range entities {
				storage.Insert(e, comp2{V: 2, W: 2})
			}
			for _, e := range entities {
				storage.Remove(e, c2.ID())
			}
			for _, e := range entities {
				storage.Despawn(e)
			}
		}
	}
}
