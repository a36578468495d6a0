package types

import "time"

// PatchAnnotation records one ORDER_PATCHED delivery against an order.
type PatchAnnotation struct {
	Type      string    `json:"type"`
	Changes   JSONMap   `json:"changes,omitempty"`
	PatchedAt time.Time `json:"patched_at"`
}

// OrderDocument is the stored representation of a marketplace order payload:
// the last-known full snapshot plus an ordered list of patch annotations.
// Annotations accumulate; they never replace or erase the snapshot.
type OrderDocument struct {
	Snapshot   JSONMap           `json:"snapshot,omitempty"`
	Patches    []PatchAnnotation `json:"patches,omitempty"`
	ReturnCode string            `json:"return_code,omitempty"`
}

// AppendPatch adds a patch annotation, preserving prior entries.
func (d *OrderDocument) AppendPatch(patchType string, changes JSONMap, at time.Time) {
	d.Patches = append(d.Patches, PatchAnnotation{
		Type:      patchType,
		Changes:   changes.Clone(),
		PatchedAt: at,
	})
}

// Patched reports whether any patch annotation has been recorded.
func (d *OrderDocument) Patched() bool {
	return len(d.Patches) > 0
}
