package depot

import "fmt"

// LifecycleEvent identifies one of the transient triggers dispatched around
// structural changes. Events are not stored; they exist only while their
// hooks and observers run.
type LifecycleEvent uint8

const (
	// OnAdd fires when a component the entity did not have is added.
	OnAdd LifecycleEvent = iota
	// OnInsert fires after OnAdd for every component written by an insert.
	OnInsert
	// OnReplace fires before an existing component value is overwritten or
	// removed, while the old value is still readable.
	OnReplace
	// OnRemove fires when a component is removed from a live entity.
	OnRemove
	// OnDespawn fires once per component when the owning entity despawns.
	OnDespawn

	numLifecycleEvents
)

func (ev LifecycleEvent) String() string {
	switch ev {
	case OnAdd:
		return "OnAdd"
	case OnInsert:
		return "OnInsert"
	case OnReplace:
		return "OnReplace"
	case OnRemove:
		return "OnRemove"
	case OnDespawn:
		return "OnDespawn"
	}
	return fmt.Sprintf("LifecycleEvent(%d)", uint8(ev))
}

// HookContext carries the subject of a lifecycle trigger.
type HookContext struct {
	Entity      Entity
	ComponentID ComponentID
}

// ComponentHook is a per-component lifecycle callback. Hooks run with the
// storage locked; structural changes made inside a hook must go through the
// Enqueue variants and are applied when the triggering operation completes.
type ComponentHook func(sto *Storage, ctx HookContext)

// ComponentHooks holds at most one hook per lifecycle slot. Each slot is
// set-once; registering a slot twice panics.
type ComponentHooks struct {
	onAdd     ComponentHook
	onInsert  ComponentHook
	onReplace ComponentHook
	onRemove  ComponentHook
	onDespawn ComponentHook
}

// OnAdd sets the on-add hook. An on-add hook always runs before on-insert.
func (h *ComponentHooks) OnAdd(hook ComponentHook) *ComponentHooks {
	if h.onAdd != nil {
		panic("depot: component already has an OnAdd hook")
	}
	h.onAdd = hook
	return h
}

// OnInsert sets the on-insert hook.
func (h *ComponentHooks) OnInsert(hook ComponentHook) *ComponentHooks {
	if h.onInsert != nil {
		panic("depot: component already has an OnInsert hook")
	}
	h.onInsert = hook
	return h
}

// OnReplace sets the on-replace hook. An on-replace hook always runs before
// the old value is overwritten and before any on-remove hook.
func (h *ComponentHooks) OnReplace(hook ComponentHook) *ComponentHooks {
	if h.onReplace != nil {
		panic("depot: component already has an OnReplace hook")
	}
	h.onReplace = hook
	return h
}

// OnRemove sets the on-remove hook.
func (h *ComponentHooks) OnRemove(hook ComponentHook) *ComponentHooks {
	if h.onRemove != nil {
		panic("depot: component already has an OnRemove hook")
	}
	h.onRemove = hook
	return h
}

// OnDespawn sets the on-despawn hook.
func (h *ComponentHooks) OnDespawn(hook ComponentHook) *ComponentHooks {
	if h.onDespawn != nil {
		panic("depot: component already has an OnDespawn hook")
	}
	h.onDespawn = hook
	return h
}

func (h *ComponentHooks) hook(ev LifecycleEvent) ComponentHook {
	switch ev {
	case OnAdd:
		return h.onAdd
	case OnInsert:
		return h.onInsert
	case OnReplace:
		return h.onReplace
	case OnRemove:
		return h.onRemove
	case OnDespawn:
		return h.onDespawn
	}
	return nil
}

// ObserverFn is a general-purpose observer keyed by event type and component.
type ObserverFn func(sto *Storage, ctx HookContext)

// observers is the registry behind Storage.AddObserver. Unlike hooks, any
// number of observers may watch the same (event, component) pair.
type observers struct {
	byEvent [numLifecycleEvents]map[ComponentID][]ObserverFn
}

func (o *observers) add(ev LifecycleEvent, id ComponentID, fn ObserverFn) {
	if o.byEvent[ev] == nil {
		o.byEvent[ev] = make(map[ComponentID][]ObserverFn)
	}
	o.byEvent[ev][id] = append(o.byEvent[ev][id], fn)
}

func (o *observers) get(ev LifecycleEvent, id ComponentID) []ObserverFn {
	return o.byEvent[ev][id]
}

// watches reports whether any observer watches ev for any of ids. Archetype
// observer flags are derived from this at creation time.
func (o *observers) watches(ev LifecycleEvent, ids []ComponentID) bool {
	m := o.byEvent[ev]
	if len(m) == 0 {
		return false
	}
	for _, id := range ids {
		if len(m[id]) > 0 {
			return true
		}
	}
	return false
}
