package renderer

import (
	"context"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-viewer/engine/framegraph"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResizeGate_AbandonsFrameInFlight(t *testing.T) {
	gate := newResizeGate()
	g := framegraph.NewGraph(framegraph.WithStrictBarriers(false))
	var ran []string
	g.AddPass(framegraph.Pass{Name: "skin", Run: func(context.Context) error {
		ran = append(ran, "skin")
		gate.request(16, 8)
		return nil
	}})
	g.AddPass(framegraph.Pass{Name: "model", Run: func(context.Context) error {
		ran = append(ran, "model")
		return nil
	}})
	frame, err := g.Compile()
	require.NoError(t, err)

	gate.begin(frame)
	assert.True(t, gate.running())
	err = frame.Execute(context.Background())
	gate.end(frame)

	assert.ErrorIs(t, err, framegraph.ErrFrameAbandoned)
	assert.Equal(t, []string{"skin"}, ran)
	assert.False(t, gate.running())

	width, height, ok := gate.take()
	require.True(t, ok)
	assert.Equal(t, 16, width)
	assert.Equal(t, 8, height)
	_, _, ok = gate.take()
	assert.False(t, ok)
}

func TestResizeGate_PendingResizeAbandonsNextFrame(t *testing.T) {
	gate := newResizeGate()
	gate.request(16, 8)

	frame, err := framegraph.NewGraph().Compile()
	require.NoError(t, err)
	gate.begin(frame)

	assert.True(t, frame.Abandoned())
	assert.False(t, gate.running())
}

func TestSoftwareRenderer_ResizeDoesNotWaitForFrame(t *testing.T) {
	r := newSoftwareRenderer(t)
	require.NoError(t, r.SetModel(quadModel()))
	backend := r.(*renderer).backend.(*softwareRendererBackend)

	// Holding the backend lock stands in for a frame that is still rendering.
	backend.mu.Lock()
	done := make(chan struct{})
	go func() {
		r.Resize(16, 8)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		backend.mu.Unlock()
		t.Fatal("Resize waited for the running frame")
	}
	backend.mu.Unlock()

	require.NoError(t, r.RenderFrame(context.Background(), nil))
	out := r.Output()
	assert.Equal(t, 16, out.Width)
	assert.Equal(t, 8, out.Height)
}
