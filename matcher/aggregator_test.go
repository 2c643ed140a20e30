package matcher

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imagematcher/types"
)

func TestAggregatorConcurrentPush(t *testing.T) {
	agg := NewAggregator()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				agg.Push(types.MatchResult{
					Path:  fmt.Sprintf("/c/%d-%03d.jpg", w, i),
					Score: float64((w*100 + i) % 37),
				})
			}
		}(w)
	}
	wg.Wait()

	require.Equal(t, 800, agg.Len())
	out := agg.Drain()
	require.Len(t, out, 800)
	for i := 1; i < len(out); i++ {
		prev, cur := out[i-1], out[i]
		if prev.Score == cur.Score {
			assert.Less(t, prev.Path, cur.Path)
		} else {
			assert.Less(t, prev.Score, cur.Score)
		}
	}
}

func TestAggregatorRejectsDuplicatePath(t *testing.T) {
	agg := NewAggregator()
	assert.True(t, agg.Push(types.MatchResult{Path: "/a.jpg", Score: 3}))
	assert.False(t, agg.Push(types.MatchResult{Path: "/a.jpg", Score: 1}))

	out := agg.Drain()
	require.Len(t, out, 1)
	assert.Equal(t, 3.0, out[0].Score)
}

func TestAggregatorDrainOnce(t *testing.T) {
	agg := NewAggregator()
	agg.Push(types.MatchResult{Path: "/b.jpg", Score: 2})
	agg.Push(types.MatchResult{Path: "/a.jpg", Score: 2})
	agg.Push(types.MatchResult{Path: "/c.jpg", Score: 0.5})

	out := agg.Drain()
	assert.Equal(t, []string{"/c.jpg", "/a.jpg", "/b.jpg"}, []string{out[0].Path, out[1].Path, out[2].Path})

	assert.False(t, agg.Push(types.MatchResult{Path: "/d.jpg"}))
	assert.Empty(t, agg.Drain())
}

func TestAggregatorEmptyDrain(t *testing.T) {
	out := NewAggregator().Drain()
	assert.NotNil(t, out)
	assert.Empty(t, out)
}
