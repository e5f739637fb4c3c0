package slot

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertAt(t *testing.T) {
	var a Array[string]
	a.InsertValue(3, "three")
	a.InsertValue(0, "zero")

	v, ok := a.At(3)
	require.True(t, ok)
	assert.Equal(t, "three", *v)
	assert.Equal(t, 2, a.Len())

	_, ok = a.At(1)
	assert.False(t, ok)
	_, ok = a.At(1000)
	assert.False(t, ok)
}

func TestInsertIsIdempotent(t *testing.T) {
	var a Array[[]int]
	a.InsertValue(1, []int{1, 2, 3})
	a.InsertValue(1, []int{9})

	v, _ := a.At(1)
	assert.Equal(t, []int{9}, *v)
	assert.Equal(t, 1, a.Len())

	p := a.Insert(1)
	assert.Nil(t, *p, "Insert resets the payload")
	assert.Equal(t, 1, a.Len())
}

func TestEraseSwapsWithLast(t *testing.T) {
	var a Array[int]
	for i := uint32(0); i < 4; i++ {
		a.InsertValue(i, int(i)*10)
	}

	require.True(t, a.Erase(1))
	assert.Equal(t, 3, a.Len())
	assert.Equal(t, []int{0, 30, 20}, a.Dense())
	assert.Equal(t, uint32(3), a.IndexAt(1))

	v, ok := a.At(3)
	require.True(t, ok)
	assert.Equal(t, 30, *v)
}

func TestEraseMissing(t *testing.T) {
	var a Array[int]
	a.InsertValue(2, 5)

	assert.False(t, a.Erase(0))
	assert.False(t, a.Erase(99))
	assert.Equal(t, 1, a.Len())

	assert.True(t, a.Erase(2))
	assert.False(t, a.Erase(2))
	assert.Equal(t, 0, a.Len())
}

func TestClear(t *testing.T) {
	var a Array[int]
	a.InsertValue(0, 1)
	a.InsertValue(5, 2)
	a.Clear()

	assert.Equal(t, 0, a.Len())
	assert.False(t, a.Has(0))
	assert.False(t, a.Has(5))

	a.InsertValue(5, 7)
	v, _ := a.At(5)
	assert.Equal(t, 7, *v)
}

// Random operations checked against a map model.
func TestArrayMatchesModel(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	var a Array[int]
	model := map[uint32]int{}

	for step := 0; step < 5000; step++ {
		idx := uint32(rng.Intn(64))
		switch rng.Intn(3) {
		case 0, 1:
			a.InsertValue(idx, step)
			model[idx] = step
		case 2:
			_, live := model[idx]
			require.Equal(t, live, a.Erase(idx))
			delete(model, idx)
		}

		require.Equal(t, len(model), a.Len())
	}

	for idx := uint32(0); idx < 64; idx++ {
		want, live := model[idx]
		got, ok := a.At(idx)
		require.Equal(t, live, ok, "index %d", idx)
		if live {
			require.Equal(t, want, *got, "index %d", idx)
		}
	}
}
