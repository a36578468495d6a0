package types

// JSONMap is a free-form JSON object persisted through GORM's json serializer.
type JSONMap map[string]any

// Clone returns a shallow copy so callers can annotate without aliasing the
// stored map.
func (m JSONMap) Clone() JSONMap {
	if m == nil {
		return nil
	}
	out := make(JSONMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
