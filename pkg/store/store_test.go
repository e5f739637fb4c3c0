package store

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/midgard-scene/pkg/handle"
)

type mesh struct {
	Vertices int
	Weights  []float32
}

func newMeshStore() *Store[mesh] {
	return New[mesh](Config{Name: "mesh", Capacity: 2})
}

func TestCreateDefaults(t *testing.T) {
	s := newMeshStore()
	h := s.Create()

	require.True(t, s.Has(h))
	assert.Equal(t, mesh{}, *s.Get(h))

	m := s.Metadata(h)
	require.NotNil(t, m)
	assert.True(t, m.Valid)
	assert.Empty(t, m.AssetPath)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, "mesh", s.Name())
}

func TestDestroy(t *testing.T) {
	s := newMeshStore()
	h := s.Create()
	s.Get(h).Vertices = 12

	require.NoError(t, s.Destroy(h))
	assert.False(t, s.Has(h))
	assert.Nil(t, s.Get(h))
	assert.Nil(t, s.Metadata(h))
	assert.Equal(t, 0, s.Len())

	err := s.Destroy(h)
	assert.True(t, errors.Is(err, ErrInvalidOperation))

	err = s.Destroy(handle.Nil)
	assert.True(t, errors.Is(err, ErrInvalidParameter))
}

func TestDestroyHook(t *testing.T) {
	s := newMeshStore()
	h := s.Create()
	s.Get(h).Vertices = 3

	var seen []int
	s.OnDestroy(func(got handle.Handle, m *mesh) {
		assert.Equal(t, h, got)
		seen = append(seen, m.Vertices)
	})

	require.NoError(t, s.Destroy(h))
	assert.Equal(t, []int{3}, seen)
}

func TestEnumerationStaysAligned(t *testing.T) {
	s := newMeshStore()
	var hs []handle.Handle
	for i := 0; i < 5; i++ {
		h := s.Create()
		s.Get(h).Vertices = i
		hs = append(hs, h)
	}

	require.NoError(t, s.Destroy(hs[1]))
	require.NoError(t, s.Destroy(hs[3]))

	require.Equal(t, 3, s.Len())
	for i := 0; i < s.Len(); i++ {
		h := s.HandleAt(i)
		assert.Equal(t, s.Get(h), s.At(i), "dense position %d", i)
	}

	count := 0
	for h, m := range s.All() {
		assert.Same(t, s.Get(h), m)
		count++
	}
	assert.Equal(t, 3, count)
	assert.Len(t, s.Handles(), 3)

	assert.Equal(t, handle.Nil, s.HandleAt(10))
	assert.Nil(t, s.At(-1))
}

func TestClear(t *testing.T) {
	s := newMeshStore()
	var hs []handle.Handle
	for i := 0; i < 10; i++ {
		hs = append(hs, s.Create())
	}

	destroyed := 0
	s.OnDestroy(func(handle.Handle, *mesh) { destroyed++ })
	s.Clear()

	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 10, destroyed)
	for _, h := range hs {
		assert.False(t, s.Has(h))
	}
}

func TestMetadataLookup(t *testing.T) {
	s := newMeshStore()
	a := s.Create()
	b := s.Create()
	require.NoError(t, s.SetAssetPath(a, "models/a.glb#mesh0"))
	require.NoError(t, s.SetAssetPath(b, "models/b.glb#mesh0"))
	require.NoError(t, s.SetName(b, "crate"))

	assert.Equal(t, b, s.FindByAssetPath("models/b.glb#mesh0"))
	assert.Equal(t, handle.Nil, s.FindByAssetPath("missing"))
	assert.Equal(t, b, s.FindByName("crate"))

	require.NoError(t, s.Destroy(b))
	assert.Equal(t, handle.Nil, s.FindByAssetPath("models/b.glb#mesh0"))
	assert.True(t, errors.Is(s.SetName(b, "x"), ErrInvalidOperation))
	assert.True(t, errors.Is(s.SetAssetPath(b, "x"), ErrInvalidOperation))
}

func TestCreateAt(t *testing.T) {
	s := newMeshStore()
	h := handle.Make(9, 4)

	require.NoError(t, s.CreateAt(h))
	assert.True(t, s.Has(h))
	assert.True(t, s.Metadata(h).Valid)

	assert.True(t, errors.Is(s.CreateAt(h), ErrInvalidOperation))
	assert.True(t, errors.Is(s.CreateAt(handle.Nil), ErrInvalidParameter))
	assert.True(t, errors.Is(s.CreateAt(handle.Make(0xFFFFFFFF, 1)), ErrInvalidParameter))
	assert.True(t, errors.Is(s.CreateAt(handle.Make(3, 0)), ErrInvalidParameter))

	other := s.Create()
	assert.NotEqual(t, h.Slot(), other.Slot())
}

func TestStaleHandleAfterReuse(t *testing.T) {
	s := newMeshStore()
	h := s.Create()
	require.NoError(t, s.Destroy(h))

	h2 := s.Create()
	assert.Equal(t, h.Slot(), h2.Slot())
	assert.False(t, s.Has(h))
	assert.Nil(t, s.Get(h))
	assert.NotNil(t, s.Get(h2))
}

func TestReleaseReportsLeaks(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	s := New[mesh](Config{Name: "mesh", Logger: zap.New(core)})
	s.Create()

	s.Release()
	require.NotZero(t, logs.Len())
	assert.Equal(t, "mesh", logs.All()[0].ContextMap()["kind"])

	s.Clear()
	before := logs.Len()
	s.Release()
	assert.Equal(t, before, logs.Len())
}
