package profiler

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfiler_RecordPass(t *testing.T) {
	p := NewProfiler()
	p.RecordPass("skinning", 2*time.Millisecond)
	p.RecordPass("shadow", time.Millisecond)
	p.RecordPass("skinning", 4*time.Millisecond)

	stats := p.Passes()
	require.Len(t, stats, 2)
	assert.Equal(t, "skinning", stats[0].Name)
	assert.Equal(t, 2, stats[0].Count)
	assert.Equal(t, 3*time.Millisecond, stats[0].Average())
	assert.Equal(t, 4*time.Millisecond, stats[0].Max)
	assert.Equal(t, "shadow", stats[1].Name)
}

func TestProfiler_RecordPassConcurrent(t *testing.T) {
	p := NewProfiler()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				p.RecordPass("raster", time.Microsecond)
			}
		}()
	}
	wg.Wait()

	stats := p.Passes()
	require.Len(t, stats, 1)
	assert.Equal(t, 800, stats[0].Count)
}

func TestProfiler_NilIgnoresRecord(t *testing.T) {
	var p *Profiler
	assert.NotPanics(t, func() { p.RecordPass("x", time.Second) })
}

func TestProfiler_TickResetsAfterInterval(t *testing.T) {
	now := time.Unix(0, 0)
	p := NewProfiler(WithUpdateInterval(time.Second), WithClock(func() time.Time { return now }))
	p.RecordPass("post", time.Millisecond)

	now = now.Add(500 * time.Millisecond)
	assert.False(t, p.Tick())
	assert.Len(t, p.Passes(), 1)

	now = now.Add(600 * time.Millisecond)
	assert.True(t, p.Tick())
	assert.Empty(t, p.Passes())
}

func TestPassStat_AverageEmpty(t *testing.T) {
	assert.Equal(t, time.Duration(0), PassStat{}.Average())
}
