package world

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/astei/slimeworld/internal/properties"
	"github.com/astei/slimeworld/internal/slime"
	"github.com/astei/slimeworld/internal/store"
)

var (
	ErrWorldExists = errors.New("world: world already exists")
	ErrNotLoaded   = errors.New("world: world is not loaded")
)

type Options struct {
	Compression slime.Compression

	// Target is the world version of the host. Older worlds are converted
	// on load through Remap; newer ones fail to load.
	Target slime.WorldVersion
	Remap  slime.LegacyRemap

	Registry   *Registry
	Registerer prometheus.Registerer
	Logger     *slog.Logger
}

// Manager owns the loaded worlds of one store.
type Manager struct {
	store    store.Store
	registry *Registry
	encoder  slime.Encoder
	decoder  *slime.Decoder
	metrics  *Metrics
	logger   *slog.Logger

	mu     sync.Mutex
	worlds map[string]*World

	// saveLocks outlive the World values they guard, so a reset or reloaded
	// world still shares the lock of its name.
	locksMu   sync.Mutex
	saveLocks map[string]*sync.Mutex
}

func NewManager(s store.Store, opts Options) (*Manager, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	registry := opts.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	metrics, err := newMetrics(opts.Registerer)
	if err != nil {
		return nil, fmt.Errorf("world: registering metrics: %w", err)
	}
	return &Manager{
		store:    s,
		registry: registry,
		encoder:  slime.Encoder{Compression: opts.Compression, Logger: logger},
		decoder: &slime.Decoder{
			Compression: opts.Compression,
			Target:      opts.Target,
			Remap:       opts.Remap,
			Logger:      logger,
		},
		metrics: metrics,
		logger:  logger,
		worlds:  make(map[string]*World),

		saveLocks: make(map[string]*sync.Mutex),
	}, nil
}

func (m *Manager) saveLock(name string) *sync.Mutex {
	m.locksMu.Lock()
	defer m.locksMu.Unlock()
	lock, ok := m.saveLocks[name]
	if !ok {
		lock = new(sync.Mutex)
		m.saveLocks[name] = lock
	}
	return lock
}

func (m *Manager) Registry() *Registry {
	return m.registry
}

// Create stores snap as a new world and loads it. The first write happens
// whatever ShouldSave says.
func (m *Manager) Create(ctx context.Context, name string, props properties.Properties, snap *slime.Snapshot) (*World, error) {
	if err := props.Validate(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.worlds[name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrWorldExists, name)
	}
	exists, err := m.store.Exists(ctx, name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", ErrWorldExists, name)
	}

	w := newWorld(name, props, snap)
	if err = m.write(ctx, w); err != nil {
		return nil, err
	}
	m.worlds[name] = w
	m.metrics.loaded.Set(float64(len(m.worlds)))
	m.logger.Info("created world", "world", name, "columns", len(snap.Columns))
	return w, nil
}

// Load returns the loaded world of that name, reading it from the store
// first if needed. props apply only when the world is read.
func (m *Manager) Load(ctx context.Context, name string, props properties.Properties) (*World, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w, ok := m.worlds[name]; ok {
		return w, nil
	}
	w, err := m.read(ctx, name, props)
	if err != nil {
		return nil, err
	}
	m.worlds[name] = w
	m.metrics.loaded.Set(float64(len(m.worlds)))
	return w, nil
}

func (m *Manager) read(ctx context.Context, name string, props properties.Properties) (w *World, err error) {
	start := time.Now()
	defer func() {
		m.metrics.loads.WithLabelValues(result(err)).Inc()
		m.metrics.duration.WithLabelValues("load").Observe(time.Since(start).Seconds())
	}()

	if err = props.Validate(); err != nil {
		return
	}
	data, err := m.store.Load(ctx, name)
	if err != nil {
		return
	}
	snap, err := m.decoder.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("world: decoding %s: %w", name, err)
	}
	for _, dangling := range snap.Dangling {
		m.logger.Warn("dropped record while loading", "world", name, "error", dangling)
	}

	w = newWorld(name, props, snap)
	if props.HasExtraData {
		if w.extra, err = readExtra(snap.Extra); err != nil {
			return nil, err
		}
		if err = m.registry.readExtra(w, w.extra); err != nil {
			return nil, err
		}
	}
	m.logger.Info("loaded world", "world", name, "version", snap.Version,
		"columns", len(snap.Columns), "bytes", len(data))
	return w, nil
}

// Save writes w back to the store unless its ShouldSave property is off.
func (m *Manager) Save(ctx context.Context, w *World) error {
	if !w.Properties.ShouldSave {
		m.metrics.saves.WithLabelValues("skipped").Inc()
		m.logger.Debug("not saving read-only world", "world", w.Name)
		return nil
	}
	return m.write(ctx, w)
}

func (m *Manager) write(ctx context.Context, w *World) (err error) {
	lock := m.saveLock(w.Name)
	lock.Lock()
	defer lock.Unlock()

	start := time.Now()
	defer func() {
		m.metrics.saves.WithLabelValues(result(err)).Inc()
		m.metrics.duration.WithLabelValues("save").Observe(time.Since(start).Seconds())
	}()

	if w.Properties.HasExtraData {
		if w.Snapshot.Extra, err = m.registry.writeExtra(w); err != nil {
			return
		}
	}
	encoder := m.encoder
	encoder.IncludeMobiles = w.Properties.HasEntities
	encoder.IncludeExtra = w.Properties.HasExtraData

	var buf bytes.Buffer
	if err = encoder.Encode(&buf, w.Snapshot); err != nil {
		return fmt.Errorf("world: encoding %s: %w", w.Name, err)
	}
	if err = m.store.Save(ctx, w.Name, buf.Bytes()); err != nil {
		return
	}
	m.metrics.size.Observe(float64(buf.Len()))
	m.logger.Info("saved world", "world", w.Name, "bytes", buf.Len(), "took", time.Since(start))
	return nil
}

// Unload saves the world, honoring ShouldSave, and forgets it.
func (m *Manager) Unload(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.worlds[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotLoaded, name)
	}
	if err := m.Save(ctx, w); err != nil {
		return err
	}
	delete(m.worlds, name)
	m.metrics.loaded.Set(float64(len(m.worlds)))
	m.logger.Info("unloaded world", "world", name)
	return nil
}

// Reset throws away the loaded copy of a world and reads it again from the
// store.
func (m *Manager) Reset(ctx context.Context, name string) (*World, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.worlds[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotLoaded, name)
	}
	w, err := m.read(ctx, name, old.Properties)
	if err != nil {
		return nil, err
	}
	m.worlds[name] = w
	m.logger.Info("reset world", "world", name)
	return w, nil
}

// Delete forgets the world without saving it and removes it from the store.
func (m *Manager) Delete(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.worlds, name)
	m.metrics.loaded.Set(float64(len(m.worlds)))
	return m.store.Delete(ctx, name)
}

// Loaded returns the names of the loaded worlds in ascending order.
func (m *Manager) Loaded() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.worlds))
	for name := range m.worlds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func result(err error) string {
	if err != nil {
		return "failed"
	}
	return "ok"
}
