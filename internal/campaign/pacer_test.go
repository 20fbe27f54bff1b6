package campaign

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacerSpacesCalls(t *testing.T) {
	const interval = 20 * time.Millisecond
	p := NewPacer(interval)
	ctx := context.Background()

	start := time.Now()
	for range 3 {
		require.NoError(t, p.Wait(ctx))
	}
	// first call passes immediately, the next two wait one interval each
	assert.GreaterOrEqual(t, time.Since(start), 2*interval)
}

func TestPacerHonoursCancellation(t *testing.T) {
	p := NewPacer(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, p.Wait(ctx))

	cancel()
	assert.Error(t, p.Wait(ctx))
}

func TestNopPacer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, NopPacer{}.Wait(ctx))

	cancel()
	assert.Error(t, NopPacer{}.Wait(ctx))
}
