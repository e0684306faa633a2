package depot

import "go.uber.org/zap"

// queuedOperation is a structural change deferred until the storage unlocks.
type queuedOperation func(sto *Storage) error

type operationQueue struct {
	ops []queuedOperation
}

// enqueueOrRun applies the operation immediately when the storage is open,
// and defers it when a hook or observer is currently running.
func (sto *Storage) enqueueOrRun(op queuedOperation) error {
	if sto.locked {
		sto.queue.ops = append(sto.queue.ops, op)
		return nil
	}
	return op(sto)
}

// drainQueue applies deferred operations until none remain. Operations that
// enqueue further operations are drained in the same pass.
func (sto *Storage) drainQueue() {
	for len(sto.queue.ops) > 0 {
		ops := sto.queue.ops
		sto.queue.ops = nil
		for _, op := range ops {
			if err := op(sto); err != nil {
				sto.log.Warn("queued operation failed", zap.Error(err))
			}
		}
	}
}

// EnqueueSpawn spawns an entity with the given values once the storage is
// open. The handle is not observable until the operation applies.
func (sto *Storage) EnqueueSpawn(values ...any) {
	sto.enqueueOrRun(func(sto *Storage) error {
		_, err := sto.Spawn(values...)
		return err
	})
}

// EnqueueInsert defers Insert when the storage is locked.
func (sto *Storage) EnqueueInsert(e Entity, values ...any) {
	sto.enqueueOrRun(func(sto *Storage) error {
		return sto.Insert(e, values...)
	})
}

// EnqueueInsertIfNew defers InsertIfNew when the storage is locked.
func (sto *Storage) EnqueueInsertIfNew(e Entity, values ...any) {
	sto.enqueueOrRun(func(sto *Storage) error {
		return sto.InsertIfNew(e, values...)
	})
}

// EnqueueRemove defers Remove when the storage is locked.
func (sto *Storage) EnqueueRemove(e Entity, ids ...ComponentID) {
	sto.enqueueOrRun(func(sto *Storage) error {
		return sto.Remove(e, ids...)
	})
}

// EnqueueDespawn defers Despawn when the storage is locked. A stale handle at
// apply time is ignored; the entity is already gone.
func (sto *Storage) EnqueueDespawn(e Entity) {
	sto.enqueueOrRun(func(sto *Storage) error {
		err := sto.Despawn(e)
		if _, stale := err.(StaleEntityError); stale {
			return nil
		}
		return err
	})
}
