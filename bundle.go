package depot

import (
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// BundleID identifies one registered bundle shape within a storage.
type BundleID uint32

// BundleInfo describes the full component contribution of a bundle:
// the explicit components in declared order, followed by every transitively
// required component exactly once, in first-discovered depth-first order.
type BundleInfo struct {
	id BundleID
	// componentIDs is [explicit..., required...]; the explicit prefix is in
	// the same order the bundle's values are written.
	componentIDs []ComponentID
	explicitLen  int
	// requiredConstructors is aligned with componentIDs[explicitLen:].
	requiredConstructors []RequiredComponent
}

func (info *BundleInfo) ID() BundleID { return info.id }

// ExplicitComponents returns the ids declared by the bundle itself.
func (info *BundleInfo) ExplicitComponents() []ComponentID {
	return info.componentIDs[:info.explicitLen]
}

// RequiredComponents returns the ids attached automatically, excluding any
// that are already explicit.
func (info *BundleInfo) RequiredComponents() []ComponentID {
	return info.componentIDs[info.explicitLen:]
}

// ContributedComponents returns every id the bundle writes, explicit first.
func (info *BundleInfo) ContributedComponents() []ComponentID {
	return info.componentIDs
}

// bundles interns BundleInfos. Dynamic multi-component bundles are cached by
// their sorted id-list key; single-component bundles have a dedicated fast
// path that skips the key allocation.
type bundles struct {
	infos           []*BundleInfo
	dynamicIDs      Cache[BundleID]
	singleComponent map[ComponentID]BundleID
}

func newBundles() bundles {
	return bundles{
		dynamicIDs:      FactoryNewCache[BundleID](maxBundleRegistrations),
		singleComponent: make(map[ComponentID]BundleID),
	}
}

const maxBundleRegistrations = 4096

func (b *bundles) get(id BundleID) *BundleInfo {
	return b.infos[id]
}

func canonicalIDKey(ids []ComponentID) string {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	var sb strings.Builder
	for i, id := range sorted {
		if i > 0 {
			sb.WriteByte(':')
		}
		sb.WriteString(strconv.FormatUint(uint64(id), 10))
	}
	return sb.String()
}

// registerBundle interns the bundle shape for the given explicit ids.
// Registering the same id set twice returns the same BundleID regardless of
// declaration order. Every id must already be registered; duplicates panic
// with a diagnostic naming the offending types.
func (sto *Storage) registerBundle(ids []ComponentID) *BundleInfo {
	for _, id := range ids {
		if _, ok := sto.components.get(id); !ok {
			panic(fmt.Sprintf("depot: bundle registered with component id %d which does not exist in this storage", id))
		}
	}
	if len(ids) == 1 {
		return sto.registerSingleComponentBundle(ids[0])
	}

	key := canonicalIDKey(ids)
	if idx, ok := sto.bundles.dynamicIDs.GetIndex(key); ok {
		return sto.bundles.infos[*sto.bundles.dynamicIDs.GetItem(idx)]
	}

	info := sto.newBundleInfo(ids)
	if _, err := sto.bundles.dynamicIDs.Register(key, info.id); err != nil {
		panic(fmt.Sprintf("depot: %v", err))
	}
	return info
}

// registerSingleComponentBundle avoids the multi-component path's sorting and
// key allocation for the common one-component case.
func (sto *Storage) registerSingleComponentBundle(id ComponentID) *BundleInfo {
	if bundleID, ok := sto.bundles.singleComponent[id]; ok {
		return sto.bundles.infos[bundleID]
	}
	if _, ok := sto.components.get(id); !ok {
		panic(fmt.Sprintf("depot: bundle registered with component id %d which does not exist in this storage", id))
	}
	info := sto.newBundleInfo([]ComponentID{id})
	sto.bundles.singleComponent[id] = info.id
	return info
}

func (sto *Storage) newBundleInfo(ids []ComponentID) *BundleInfo {
	// Reject duplicate explicit components, naming the offending types.
	seen := make(map[ComponentID]struct{}, len(ids))
	var dups []string
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			dups = append(dups, sto.components.getUnchecked(id).Name())
		}
		seen[id] = struct{}{}
	}
	if len(dups) > 0 {
		panic(fmt.Sprintf("depot: bundle has duplicate components: %v", dups))
	}

	info := &BundleInfo{
		id:           BundleID(len(sto.bundles.infos)),
		componentIDs: slices.Clone(ids),
		explicitLen:  len(ids),
	}

	// Collect required components depth-first; the first discovery of an id
	// wins, and anything already explicit is skipped. Storage for every
	// contributed component is prepared here, not at first use.
	for _, id := range ids {
		sto.prepareComponentStorage(id)
		sto.collectRequired(id, seen, info)
	}

	sto.bundles.infos = append(sto.bundles.infos, info)
	sto.log.Debug("bundle registered",
		zap.Uint32("bundle", uint32(info.id)),
		zap.Int("explicit", info.explicitLen),
		zap.Int("required", len(info.requiredConstructors)),
	)
	return info
}

func (sto *Storage) collectRequired(id ComponentID, seen map[ComponentID]struct{}, info *BundleInfo) {
	for _, req := range sto.components.getUnchecked(id).requires {
		if _, ok := seen[req.ID]; ok {
			continue
		}
		seen[req.ID] = struct{}{}
		sto.prepareComponentStorage(req.ID)
		info.componentIDs = append(info.componentIDs, req.ID)
		info.requiredConstructors = append(info.requiredConstructors, req)
		sto.collectRequired(req.ID, seen, info)
	}
}

// preparedBundle pairs a BundleInfo with concrete values aligned to its
// explicit component order. The alignment happens exactly once, here, so the
// write path and the registration path can never disagree about ordering.
type preparedBundle struct {
	info   *BundleInfo
	values []any
	frags  []fragmentingValue
}

func (pb *preparedBundle) hasFragments() bool {
	return len(pb.frags) > 0
}

// prepareBundle resolves component values to a registered bundle. Types not
// yet registered are registered with defaults, mirroring first-use
// registration of component types.
func (sto *Storage) prepareBundle(values []any) preparedBundle {
	ids := make([]ComponentID, len(values))
	for i, v := range values {
		t := reflect.TypeOf(v)
		if t == nil {
			panic("depot: bundle contains an untyped nil value")
		}
		id, ok := sto.components.idByType(t)
		if !ok {
			id = sto.components.register(t, ComponentDescriptor{})
			sto.prepareComponentStorage(id)
		}
		ids[i] = id
	}
	info := sto.registerBundle(ids)
	return sto.alignBundle(info, ids, values)
}

// prepareBundleByIDs is the dynamic path: values arrive pre-paired with ids.
func (sto *Storage) prepareBundleByIDs(ids []ComponentID, values []any) preparedBundle {
	if len(ids) != len(values) {
		panic(fmt.Sprintf("depot: %d component ids paired with %d values", len(ids), len(values)))
	}
	for i, id := range ids {
		info, ok := sto.components.get(id)
		if !ok {
			panic(fmt.Sprintf("depot: insert by id called with component id %d which does not exist in this storage", id))
		}
		if got := reflect.TypeOf(values[i]); got != info.typ {
			panic(ComponentTypeError{ID: id, Expected: info.typ.String(), Got: fmt.Sprintf("%v", got)}.Error())
		}
	}
	info := sto.registerBundle(ids)
	return sto.alignBundle(info, ids, values)
}

// alignBundle reorders values to match info's stored explicit order (the
// interned info may have been declared in a different order) and extracts
// fragmenting values.
func (sto *Storage) alignBundle(info *BundleInfo, ids []ComponentID, values []any) preparedBundle {
	aligned := values
	if !slices.Equal(ids, info.ExplicitComponents()) {
		byID := make(map[ComponentID]any, len(ids))
		for i, id := range ids {
			byID[id] = values[i]
		}
		aligned = make([]any, len(ids))
		for i, id := range info.ExplicitComponents() {
			aligned[i] = byID[id]
		}
	}

	var frags []fragmentingValue
	for i, id := range info.ExplicitComponents() {
		comp := sto.components.getUnchecked(id)
		if comp.fragmenting != nil {
			frags = append(frags, fragmentingValue{
				id:    id,
				value: aligned[i],
				hash:  comp.fragmenting.Hash(aligned[i]),
				vt:    comp.fragmenting,
			})
		}
	}
	return preparedBundle{info: info, values: aligned, frags: frags}
}
