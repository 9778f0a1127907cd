package unique_test

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"asset-exporter/core/unique"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lastSegment(s string) string {
	if i := strings.LastIndex(s, "/"); i >= 0 {
		return s[i+1:]
	}
	return s
}

func TestResolver_Resolve(t *testing.T) {
	t.Run("DistinctInputsSameCandidate", func(t *testing.T) {
		r := unique.New(lastSegment, func(s string) string { return s + "_" })

		a, newA := r.Resolve("x/icon")
		b, newB := r.Resolve("y/icon")

		assert.True(t, newA)
		assert.True(t, newB)
		assert.Equal(t, "icon", a)
		assert.Equal(t, "icon_", b)
		assert.NotEqual(t, a, b)
	})

	t.Run("RepeatedInputIsCached", func(t *testing.T) {
		var mutations int
		r := unique.New(lastSegment, func(s string) string {
			mutations++
			return s + "_"
		})

		first, isNew := r.Resolve("x/icon")
		require.True(t, isNew)
		_, _ = r.Resolve("y/icon")
		before := mutations

		again, isNew := r.Resolve("x/icon")
		assert.False(t, isNew)
		assert.Equal(t, first, again)
		assert.Equal(t, before, mutations, "cached lookups must not mutate")
	})

	t.Run("CollisionWithMutatedKey", func(t *testing.T) {
		r := unique.New(lastSegment, func(s string) string { return s + "_" })

		_, _ = r.Resolve("a/icon")
		_, _ = r.Resolve("b/icon")
		// "icon_" is now taken by b, so an input whose own candidate is
		// "icon_" must move on.
		got, isNew := r.Resolve("c/icon_")
		assert.True(t, isNew)
		assert.Equal(t, "icon__", got)
		assert.Equal(t, 3, r.Len())
	})

	t.Run("KeyFoldsCase", func(t *testing.T) {
		r := unique.New(lastSegment, func(s string) string { return s + "_" }, unique.WithKey(strings.ToLower))

		a, _ := r.Resolve("x/T_Icon")
		b, _ := r.Resolve("y/t_icon")
		assert.Equal(t, "T_Icon", a)
		assert.Equal(t, "t_icon_", b)
	})
}

func TestResolver_Concurrent(t *testing.T) {
	r := unique.New(func(i int) int { return i % 10 }, func(o int) int { return o + 10 })

	const inputs = 200
	var newCount atomic.Int64

	var wg sync.WaitGroup
	for worker := 0; worker < 8; worker++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < inputs; i++ {
				if _, isNew := r.Resolve(i); isNew {
					newCount.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(inputs), newCount.Load(), "each input is new exactly once")

	seen := make(map[int]string)
	for i := 0; i < inputs; i++ {
		out, isNew := r.Resolve(i)
		assert.False(t, isNew)
		if prev, dup := seen[out]; dup {
			t.Fatalf("output %d assigned to both %s and %d", out, prev, i)
		}
		seen[out] = fmt.Sprint(i)
	}
}
