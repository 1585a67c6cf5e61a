package world

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Tnze/go-mc/nbt"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astei/slimeworld/internal/properties"
	"github.com/astei/slimeworld/internal/slime"
	"github.com/astei/slimeworld/internal/store"
)

type visits struct {
	Count int32 `nbt:"count"`
}

// visitCounter keeps a per world counter in the extra data compound.
type visitCounter struct {
	counts map[string]int32
}

func (v *visitCounter) Name() string { return "visits" }

func (v *visitCounter) Serialize(w *World) (any, error) {
	return visits{Count: v.counts[w.Name]}, nil
}

func (v *visitCounter) Deserialize(w *World, data nbt.RawMessage) error {
	var stored visits
	if err := data.Unmarshal(&stored); err != nil {
		return err
	}
	v.counts[w.Name] = stored.Count
	return nil
}

func testSnapshot(t *testing.T) *slime.Snapshot {
	snap := slime.NewSnapshot(slime.V1_8)
	column := slime.NewColumn(0, 0)
	column.Sections[3] = slime.NewSection()
	column.Sections[3].SetBlock(1, 1, 1, 1<<4)
	pig, err := slime.NewMobileRecord(struct {
		ID  string    `nbt:"id"`
		Pos []float64 `nbt:"Pos"`
	}{ID: "Pig", Pos: []float64{2, 50, 2}})
	require.NoError(t, err)
	column.Mobiles = []*slime.MobileRecord{pig}
	snap.Put(column)
	return snap
}

func newManager(t *testing.T, s store.Store, registry *Registry) (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	m, err := NewManager(s, Options{Registry: registry, Registerer: reg})
	require.NoError(t, err)
	return m, reg
}

func saving() properties.Properties {
	p := properties.Default()
	p.ShouldSave = true
	return p
}

func TestCreateAndLoad(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	m, _ := newManager(t, s, nil)

	w, err := m.Create(ctx, "lobby", properties.Default(), testSnapshot(t))
	require.NoError(t, err)
	loaded, err := m.Load(ctx, "lobby", properties.Default())
	require.NoError(t, err)
	assert.Same(t, w, loaded)

	_, err = m.Create(ctx, "lobby", properties.Default(), testSnapshot(t))
	assert.ErrorIs(t, err, ErrWorldExists)

	other, _ := newManager(t, s, nil)
	_, err = other.Create(ctx, "lobby", properties.Default(), testSnapshot(t))
	assert.ErrorIs(t, err, ErrWorldExists, "stored worlds count as existing")

	w, err = other.Load(ctx, "lobby", properties.Default())
	require.NoError(t, err)
	assert.EqualValues(t, 1<<4, w.Snapshot.Column(0, 0).Sections[3].Block(1, 1, 1))
	assert.Empty(t, w.Snapshot.Column(0, 0).Mobiles, "entities are not stored by default")

	_, err = other.Load(ctx, "missing", properties.Default())
	assert.ErrorIs(t, err, store.ErrWorldNotFound)
}

func TestSaveHonorsShouldSave(t *testing.T) {
	ctx := context.Background()
	m, reg := newManager(t, store.NewMemoryStore(), nil)

	w, err := m.Create(ctx, "arena", properties.Default(), testSnapshot(t))
	require.NoError(t, err)
	w.Snapshot.Column(0, 0).Sections[3].SetBlock(1, 1, 1, 2<<4)
	require.NoError(t, m.Save(ctx, w))

	w, err = m.Reset(ctx, "arena")
	require.NoError(t, err)
	assert.EqualValues(t, 1<<4, w.Snapshot.Column(0, 0).Sections[3].Block(1, 1, 1))

	w.Properties.ShouldSave = true
	w.Snapshot.Column(0, 0).Sections[3].SetBlock(1, 1, 1, 2<<4)
	require.NoError(t, m.Save(ctx, w))
	w, err = m.Reset(ctx, "arena")
	require.NoError(t, err)
	assert.EqualValues(t, 2<<4, w.Snapshot.Column(0, 0).Sections[3].Block(1, 1, 1))

	saves, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, saves)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.metrics.saves.WithLabelValues("skipped")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.metrics.saves.WithLabelValues("ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.metrics.loads.WithLabelValues("ok")))
}

func TestEntitiesFollowProperties(t *testing.T) {
	ctx := context.Background()
	props := saving()
	props.HasEntities = true
	s := store.NewMemoryStore()
	m, _ := newManager(t, s, nil)
	_, err := m.Create(ctx, "farm", props, testSnapshot(t))
	require.NoError(t, err)

	other, _ := newManager(t, s, nil)
	w, err := other.Load(ctx, "farm", props)
	require.NoError(t, err)
	require.Len(t, w.Snapshot.Column(0, 0).Mobiles, 1)
	assert.Equal(t, 2.0, w.Snapshot.Column(0, 0).Mobiles[0].X)
}

func TestExtraDataProviders(t *testing.T) {
	ctx := context.Background()
	props := saving()
	props.HasExtraData = true
	s := store.NewMemoryStore()

	counter := &visitCounter{counts: map[string]int32{"hub": 41}}
	registry := NewRegistry()
	require.NoError(t, registry.Register(counter))
	assert.Error(t, registry.Register(counter), "names are unique")

	m, _ := newManager(t, s, registry)
	_, err := m.Create(ctx, "hub", props, testSnapshot(t))
	require.NoError(t, err)

	// A manager without the provider keeps its entry when saving.
	plain, _ := newManager(t, s, nil)
	w, err := plain.Load(ctx, "hub", props)
	require.NoError(t, err)
	_, ok := w.Extra("visits")
	assert.True(t, ok)
	require.NoError(t, plain.Save(ctx, w))

	fresh := &visitCounter{counts: map[string]int32{}}
	registry = NewRegistry()
	require.NoError(t, registry.Register(fresh))
	reader, _ := newManager(t, s, registry)
	_, err = reader.Load(ctx, "hub", props)
	require.NoError(t, err)
	assert.EqualValues(t, 41, fresh.counts["hub"])
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&visitCounter{}))
	assert.True(t, r.IsRegistered("visits"))
	assert.Len(t, r.Registered(), 1)
	r.Unregister("visits")
	assert.False(t, r.IsRegistered("visits"))
	require.NoError(t, r.Register(&visitCounter{}))
	r.UnregisterAll()
	assert.Empty(t, r.Registered())
}

func TestConcurrentSaves(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t, store.NewMemoryStore(), nil)
	w, err := m.Create(ctx, "busy", saving(), testSnapshot(t))
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- m.Save(ctx, w)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
}

// overlapStore records the most saves it saw in flight at once.
type overlapStore struct {
	store.Store
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (s *overlapStore) Save(ctx context.Context, name string, data []byte) error {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		peak := s.peak.Load()
		if n <= peak || s.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	time.Sleep(time.Millisecond)
	return s.Store.Save(ctx, name, data)
}

func TestSavesShareLockAcrossReset(t *testing.T) {
	ctx := context.Background()
	s := &overlapStore{Store: store.NewMemoryStore()}
	m, _ := newManager(t, s, nil)
	old, err := m.Create(ctx, "busy", saving(), testSnapshot(t))
	require.NoError(t, err)
	reset, err := m.Reset(ctx, "busy")
	require.NoError(t, err)
	require.NotSame(t, old, reset)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 8; i++ {
		for _, w := range []*World{old, reset} {
			w := w
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- m.Save(ctx, w)
			}()
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), s.peak.Load())
}

func TestUnloadAndDelete(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	m, _ := newManager(t, s, nil)
	_, err := m.Create(ctx, "a", saving(), testSnapshot(t))
	require.NoError(t, err)
	_, err = m.Create(ctx, "b", saving(), testSnapshot(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, m.Loaded())
	assert.Equal(t, 2.0, testutil.ToFloat64(m.metrics.loaded))

	require.NoError(t, m.Unload(ctx, "a"))
	assert.ErrorIs(t, m.Unload(ctx, "a"), ErrNotLoaded)
	_, err = m.Reset(ctx, "a")
	assert.ErrorIs(t, err, ErrNotLoaded)
	assert.Equal(t, []string{"b"}, m.Loaded())

	require.NoError(t, m.Delete(ctx, "b"))
	assert.Empty(t, m.Loaded())
	names, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, names)
}

func TestMetricsRegisterOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewManager(store.NewMemoryStore(), Options{Registerer: reg})
	require.NoError(t, err)
	_, err = NewManager(store.NewMemoryStore(), Options{Registerer: reg})
	assert.Error(t, err)
}
