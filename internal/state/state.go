// Package state defines the mutable domain snapshot passed between loaders,
// tools and the reward validator.
package state

// Snapshot holds the full mutable data of a domain at a point in time.
// The nesting is arbitrary: values are maps, slices and scalars as produced
// by a data loader.
type Snapshot map[string]any

// Clone returns a deep copy of the snapshot. Loaders that keep a template
// in memory must hand out clones so callers never alias each other's state.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	return deepCopyMap(s)
}

func deepCopyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch tv := v.(type) {
	case Snapshot:
		return Snapshot(deepCopyMap(tv))
	case map[string]any:
		return deepCopyMap(tv)
	case []any:
		out := make([]any, len(tv))
		for i, e := range tv {
			out[i] = deepCopyValue(e)
		}
		return out
	default:
		return v
	}
}
