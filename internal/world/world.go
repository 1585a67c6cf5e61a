// Package world loads and saves named slime worlds through a store, keeping
// extra data providers and world properties in step with the codec.
package world

import (
	"github.com/Tnze/go-mc/nbt"

	"github.com/astei/slimeworld/internal/properties"
	"github.com/astei/slimeworld/internal/slime"
)

// World is a loaded slime world. Snapshot is owned by the caller between
// saves. The Manager serializes saves by world name.
type World struct {
	Name       string
	Properties properties.Properties
	Snapshot   *slime.Snapshot

	extra map[string]nbt.RawMessage
}

func newWorld(name string, props properties.Properties, snap *slime.Snapshot) *World {
	return &World{
		Name:       name,
		Properties: props,
		Snapshot:   snap,
		extra:      make(map[string]nbt.RawMessage),
	}
}

// Extra returns the stored extra data entry of a provider that may not be
// registered.
func (w *World) Extra(name string) (nbt.RawMessage, bool) {
	raw, ok := w.extra[name]
	return raw, ok
}
