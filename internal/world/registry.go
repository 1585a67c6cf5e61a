package world

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Tnze/go-mc/nbt"
)

// DataProvider owns one named entry of a world's extra data compound. It is
// asked for its value on every save and handed the stored value on load.
type DataProvider interface {
	Name() string
	Serialize(w *World) (any, error)
	Deserialize(w *World, data nbt.RawMessage) error
}

// Registry holds the providers consulted by a Manager.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]DataProvider
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]DataProvider)}
}

func (r *Registry) Register(providers ...DataProvider) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range providers {
		if _, ok := r.providers[p.Name()]; ok {
			return fmt.Errorf("world: data provider %q is already registered", p.Name())
		}
	}
	for _, p := range providers {
		r.providers[p.Name()] = p
	}
	return nil
}

func (r *Registry) Unregister(names ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range names {
		delete(r.providers, name)
	}
}

func (r *Registry) UnregisterAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers = make(map[string]DataProvider)
}

func (r *Registry) IsRegistered(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.providers[name]
	return ok
}

// Registered returns the providers sorted by name.
func (r *Registry) Registered() []DataProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	providers := make([]DataProvider, 0, len(r.providers))
	for _, p := range r.providers {
		providers = append(providers, p)
	}
	sort.Slice(providers, func(i, j int) bool { return providers[i].Name() < providers[j].Name() })
	return providers
}

// readExtra splits an extra data document into its named entries.
func readExtra(data []byte) (map[string]nbt.RawMessage, error) {
	entries := make(map[string]nbt.RawMessage)
	if len(data) == 0 {
		return entries, nil
	}
	if err := nbt.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("world: reading extra data: %w", err)
	}
	return entries, nil
}

// writeExtra collects every provider's value on top of the entries read at
// load time, so that data of providers not registered now is kept.
func (r *Registry) writeExtra(w *World) ([]byte, error) {
	entries := make(map[string]nbt.RawMessage, len(w.extra))
	for name, raw := range w.extra {
		entries[name] = raw
	}
	for _, p := range r.Registered() {
		v, err := p.Serialize(w)
		if err != nil {
			return nil, fmt.Errorf("world: serializing %q: %w", p.Name(), err)
		}
		data, err := nbt.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("world: serializing %q: %w", p.Name(), err)
		}
		var raw nbt.RawMessage
		if err = nbt.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("world: serializing %q: %w", p.Name(), err)
		}
		entries[p.Name()] = raw
	}
	return nbt.Marshal(entries)
}

func (r *Registry) readExtra(w *World, entries map[string]nbt.RawMessage) error {
	for _, p := range r.Registered() {
		raw, ok := entries[p.Name()]
		if !ok {
			continue
		}
		if err := p.Deserialize(w, raw); err != nil {
			return fmt.Errorf("world: deserializing %q: %w", p.Name(), err)
		}
	}
	return nil
}
