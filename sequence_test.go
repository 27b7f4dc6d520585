package growth

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSequence(t *testing.T) {
	seq := NewSequence[int](NewArena())
	assert.Equal(t, 0, seq.Len())
	assert.Equal(t, 0, seq.Cap())
	assert.Equal(t, 0, seq.Reallocations())

	seq = NewSequence[int](nil, WithCapacity(8))
	assert.Equal(t, 0, seq.Len())
	assert.Equal(t, 8, seq.Cap())
	assert.Equal(t, 0, seq.Reallocations())
}

func TestNewSequence_NegativeCapacity(t *testing.T) {
	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		assert.True(t, errors.Is(err, ErrInvalidCapacity))
	}()
	NewSequence[int](NewArena(), WithCapacity(-1))
	t.Fatal("negative capacity accepted")
}

func TestSequence_Append(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "growth")
	defer teardown()

	seq := NewSequence[int](NewArena())
	seq.Append(1, 2, 3)
	assert.Equal(t, 3, seq.Len())
	assert.Equal(t, 3, seq.Cap())
	seq.Append(4)
	assert.Equal(t, 6, seq.Cap())
	seq.Append(5).Append(6).Append(7)
	assert.Equal(t, 7, seq.Len())
	assert.Equal(t, 12, seq.Cap())
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7}, seq.Values())
}

func TestSequence_Doubling(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "growth")
	defer teardown()

	var caps []int
	seq := NewSequence[int](NewArena())
	for i := 0; i < 50; i++ {
		seq.Append(i * i)
		if len(caps) == 0 || caps[len(caps)-1] != seq.Cap() {
			caps = append(caps, seq.Cap())
		}
	}
	assert.Equal(t, []int{1, 2, 4, 8, 16, 32, 64}, caps)
	assert.Equal(t, 7, seq.Reallocations())
}

func TestSequence_ReleasesOldStorage(t *testing.T) {
	ar := NewArena()
	seq := NewSequence[int64](ar)
	for i := int64(0); i < 200; i++ {
		seq.Append(i)
		require.Equal(t, 1, ar.Stats().Live)
	}
	for i := 0; i < seq.Len(); i++ {
		v, err := seq.At(i)
		require.NoError(t, err)
		assert.Equal(t, int64(i), v)
	}

	seq.Release()
	assert.Equal(t, 0, seq.Len())
	assert.Equal(t, 0, seq.Cap())
	assert.Equal(t, 0, ar.Stats().Live)
}

func TestSequence_At(t *testing.T) {
	seq := NewSequence[int](NewArena())
	seq.Append(0, 1, 2, 3)
	for i := 0; i < seq.Len(); i++ {
		v, err := seq.At(i)
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}

	_, err := seq.At(4)
	assert.True(t, errors.Is(err, ErrOutOfBounds))
	assert.Contains(t, err.Error(), "index 4 with length 4")

	_, err = seq.At(-1)
	assert.True(t, errors.Is(err, ErrOutOfBounds))

	_, err = NewSequence[float64](nil).At(0)
	assert.True(t, errors.Is(err, ErrOutOfBounds))
}

func TestSequence_Reserve(t *testing.T) {
	seq := NewSequence[int](NewArena())
	require.NoError(t, seq.Reserve(50))
	assert.Equal(t, 50, seq.Cap())
	assert.Equal(t, 1, seq.Reallocations())

	for i := 0; i < 50; i++ {
		seq.Append(i * i)
		assert.Equal(t, 50, seq.Cap())
	}
	assert.Equal(t, 1, seq.Reallocations())

	require.NoError(t, seq.Reserve(10))
	assert.Equal(t, 50, seq.Cap())

	err := seq.Reserve(-1)
	assert.True(t, errors.Is(err, ErrInvalidCapacity))
	assert.Equal(t, 50, seq.Len())
}

func TestSequence_PolicyIsClamped(t *testing.T) {
	shrinking := func(capacity, required int) int { return 0 }
	ar := NewArena()
	seq := NewSequence[uint8](ar, WithPolicy(shrinking))
	for i := 0; i < 20; i++ {
		seq.Append(uint8(i))
		assert.Equal(t, i+1, seq.Cap())
	}
	assert.Equal(t, 20, seq.Reallocations())
	assert.Equal(t, 1, ar.Stats().Live)
}

func TestSequence_OnGrow(t *testing.T) {
	type change struct{ from, to int }
	var changes []change
	seq := NewSequence[int](NewArena(),
		WithPolicy(Quarter),
		OnGrow(func(from, to int) {
			changes = append(changes, change{from, to})
		}))
	for i := 0; i < 10; i++ {
		seq.Append(i)
	}
	require.NotEmpty(t, changes)
	assert.Equal(t, change{0, 1}, changes[0])
	for i := 1; i < len(changes); i++ {
		assert.Equal(t, changes[i-1].to, changes[i].from)
		assert.Greater(t, changes[i].to, changes[i].from)
	}
	assert.Equal(t, seq.Cap(), changes[len(changes)-1].to)
	assert.Equal(t, len(changes), seq.Reallocations())
}

func TestSequence_Range(t *testing.T) {
	seq := NewSequence[int](NewArena())
	seq.Append(0, 1, 2, 3, 4, 5, 6, 7, 8, 9)

	var visited int
	seq.Range(func(index int, v int) bool {
		assert.Equal(t, index, v)
		visited++
		return index < 4
	})
	assert.Equal(t, 5, visited)

	visited = 0
	for index, v := range seq.Iter() {
		assert.Equal(t, index, v)
		visited++
	}
	assert.Equal(t, 10, visited)
}

func TestSequence_ValuesAreCopies(t *testing.T) {
	seq := NewSequence[int](NewArena())
	seq.Append(1, 2, 3)
	values := seq.Values()
	values[0] = 100
	v, err := seq.At(0)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestSequence_ReleaseAfterReset(t *testing.T) {
	ar := NewArena()
	seq := NewSequence[int](ar)
	seq.Append(1, 2, 3)

	ar.Reset()
	assert.NotPanics(t, seq.Release)
	assert.Equal(t, 0, seq.Len())
	assert.Equal(t, 0, seq.Cap())
	assert.Equal(t, 0, ar.Stats().Live)

	// storage taken after the reset is freed again
	seq.Append(4, 5)
	assert.Equal(t, 1, ar.Stats().Live)
	seq.Release()
	assert.Equal(t, 0, ar.Stats().Live)
}

func TestSequence_GrowAfterReset(t *testing.T) {
	ar := NewArena()
	seq := NewSequence[int](ar)
	seq.Append(1, 2)

	ar.Reset()
	assert.NotPanics(t, func() {
		seq.Append(3, 4, 5)
	})
	assert.Equal(t, 1, ar.Stats().Live)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, seq.Values())
}
