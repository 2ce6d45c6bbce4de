package credentials

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reelgen/internal/services"
)

func TestRingAdvanceWraps(t *testing.T) {
	for _, size := range []int{1, 2, 3, 5} {
		entries := make([]int, size)
		for i := range entries {
			entries[i] = i * 10
		}
		for start := 0; start < size; start++ {
			for n := 0; n <= 2*size+1; n++ {
				ring := New(entries)
				for i := 0; i < start; i++ {
					_, err := ring.Advance()
					require.NoError(t, err)
				}
				require.Equal(t, start, ring.Index())

				for i := 0; i < n; i++ {
					_, err := ring.Advance()
					require.NoError(t, err)
				}
				want := (start + n) % size
				assert.Equal(t, want, ring.Index(), "size=%d start=%d n=%d", size, start, n)
				current, err := ring.Current()
				require.NoError(t, err)
				assert.Equal(t, entries[want], current)
			}
		}
	}
}

func TestRingAdvanceReturnsNewEntry(t *testing.T) {
	ring := New([]string{"a", "b", "c"})
	next, err := ring.Advance()
	require.NoError(t, err)
	assert.Equal(t, "b", next)
	next, err = ring.Advance()
	require.NoError(t, err)
	assert.Equal(t, "c", next)
	next, err = ring.Advance()
	require.NoError(t, err)
	assert.Equal(t, "a", next)
}

func TestEmptyRing(t *testing.T) {
	ring := New[string](nil)
	assert.Equal(t, 0, ring.Len())

	_, err := ring.Current()
	require.ErrorIs(t, err, services.ErrNoCredentials)
	_, err = ring.Advance()
	require.ErrorIs(t, err, services.ErrNoCredentials)
	assert.Equal(t, "configuration", services.Classify(err))
}

func TestRingCopiesEntries(t *testing.T) {
	entries := []string{"a", "b"}
	ring := New(entries)
	entries[0] = "mutated"
	current, err := ring.Current()
	require.NoError(t, err)
	assert.Equal(t, "a", current)
}

func TestRingConcurrentAdvance(t *testing.T) {
	ring := New([]int{0, 1, 2, 3})
	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = ring.Advance()
			_, _ = ring.Current()
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, ring.Index())
}

func TestMask(t *testing.T) {
	assert.Equal(t, "****", Mask("abc"))
	assert.Equal(t, "****wxyz", Mask("key-abcdwxyz"))
}
