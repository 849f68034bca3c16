package render

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunBlock_VisitsEveryRowExactlyOnce(t *testing.T) {
	const rows = 97

	var mu sync.Mutex
	seen := make(map[uint]int)

	err := RunBlock(context.Background(), ClampThreads(8), rows, func(row uint) error {
		mu.Lock()
		seen[row]++
		mu.Unlock()
		return nil
	})
	require.NoError(t, err)

	assert.Len(t, seen, rows)
	for row, count := range seen {
		assert.Equal(t, 1, count, "row %d visited %d times", row, count)
	}
}

func TestClampThreads_Bounds(t *testing.T) {
	assert.Equal(t, uint(MinThreads), ClampThreads(-5))
	assert.Equal(t, uint(MaxThreads), ClampThreads(100000))
	assert.Equal(t, uint(4), ClampThreads(4))
}
