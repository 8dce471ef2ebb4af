package framegraph

import (
	"context"
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-viewer/engine/profiler"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recorder(log *[]string, name string) PassFunc {
	return func(context.Context) error {
		*log = append(*log, name)
		return nil
	}
}

func TestGraph_ExecutesInOrderWithBarriers(t *testing.T) {
	g := NewGraph(WithStrictBarriers(false))
	bind := g.Import("bind_pose", ResourceBuffer)
	skinned := g.Create("skinned", ResourceBuffer)
	color := g.Create("color", ResourceTexture)

	var ran []string
	g.AddPass(Pass{Name: "skin", Kind: PassCompute, Reads: []ResourceID{bind.ID}, Writes: []ResourceID{skinned.ID}, Run: recorder(&ran, "skin")})
	g.AddPass(Pass{Name: "model", Kind: PassRender, Reads: []ResourceID{skinned.ID}, Writes: []ResourceID{color.ID}, Run: recorder(&ran, "model")})
	g.AddPass(Pass{Name: "post", Kind: PassRender, Reads: []ResourceID{color.ID}, Run: recorder(&ran, "post")})

	frame, err := g.Compile()
	require.NoError(t, err)
	require.NoError(t, frame.Execute(context.Background()))

	assert.Equal(t, []string{"skin", "model", "post"}, ran)
	assert.Equal(t, []string{"skin", "model", "post"}, g.Passes())
	assert.Equal(t, []Barrier{
		{Resource: skinned.ID, Name: "skinned", From: "skin", To: "model"},
		{Resource: color.ID, Name: "color", From: "model", To: "post"},
	}, frame.Barriers())
}

func TestGraph_CompileViolations(t *testing.T) {
	tests := []struct {
		name  string
		build func(g Graph)
		want  error
	}{
		{
			name: "read before producer",
			build: func(g Graph) {
				r := g.Create("color", ResourceTexture)
				g.AddPass(Pass{Name: "post", Reads: []ResourceID{r.ID}})
				g.AddPass(Pass{Name: "model", Writes: []ResourceID{r.ID}})
			},
			want: ErrBarrierViolation,
		},
		{
			name: "double write",
			build: func(g Graph) {
				r := g.Create("color", ResourceTexture)
				g.AddPass(Pass{Name: "a", Writes: []ResourceID{r.ID}})
				g.AddPass(Pass{Name: "b", Writes: []ResourceID{r.ID}})
			},
			want: ErrBarrierViolation,
		},
		{
			name: "unknown resource",
			build: func(g Graph) {
				g.AddPass(Pass{Name: "a", Reads: []ResourceID{uuid.New()}})
			},
			want: ErrUnknownResource,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGraph(WithStrictBarriers(false))
			tt.build(g)
			_, err := g.Compile()
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestGraph_StrictBarriersPanic(t *testing.T) {
	g := NewGraph(WithStrictBarriers(true))
	r := g.Create("color", ResourceTexture)
	g.AddPass(Pass{Name: "post", Reads: []ResourceID{r.ID}})

	assert.Panics(t, func() { _, _ = g.Compile() })
}

func TestGraph_ImportedResourceNeedsNoProducer(t *testing.T) {
	g := NewGraph(WithStrictBarriers(true))
	lut := g.Import("lut", ResourceTexture)
	g.AddPass(Pass{Name: "post", Reads: []ResourceID{lut.ID}})

	frame, err := g.Compile()
	require.NoError(t, err)
	assert.Empty(t, frame.Barriers())
}

func TestFrame_ExecuteStopsOnError(t *testing.T) {
	g := NewGraph()
	boom := errors.New("boom")
	var ran []string
	g.AddPass(Pass{Name: "a", Run: func(context.Context) error { return boom }})
	g.AddPass(Pass{Name: "b", Run: recorder(&ran, "b")})

	frame, err := g.Compile()
	require.NoError(t, err)
	err = frame.Execute(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "pass a")
	assert.Empty(t, ran)
}

func TestFrame_ExecuteCanceledBeforeStart(t *testing.T) {
	g := NewGraph()
	var ran []string
	g.AddPass(Pass{Name: "a", Run: recorder(&ran, "a")})
	frame, err := g.Compile()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, frame.Execute(ctx), context.Canceled)
	assert.Empty(t, ran)
}

func TestFrame_AbandonDropsTransientResources(t *testing.T) {
	g := NewGraph()
	g.Import("lut", ResourceTexture)
	g.Create("bloom", ResourceTexture)
	frame, err := g.Compile()
	require.NoError(t, err)

	frame.Abandon()

	assert.True(t, frame.Abandoned())
	assert.ErrorIs(t, frame.Execute(context.Background()), ErrFrameAbandoned)
	_, ok := g.Resource("bloom")
	assert.False(t, ok)
	_, ok = g.Resource("lut")
	assert.True(t, ok)
}

func TestFrame_AbandonStopsAtNextPass(t *testing.T) {
	g := NewGraph()
	var ran []string
	var frame *Frame
	g.AddPass(Pass{Name: "skin", Run: func(context.Context) error {
		ran = append(ran, "skin")
		frame.Abandon()
		return nil
	}})
	g.AddPass(Pass{Name: "model", Run: recorder(&ran, "model")})
	g.AddPass(Pass{Name: "post", Run: recorder(&ran, "post")})

	var err error
	frame, err = g.Compile()
	require.NoError(t, err)

	assert.ErrorIs(t, frame.Execute(context.Background()), ErrFrameAbandoned)
	assert.Equal(t, []string{"skin"}, ran)
}

func TestFrame_ReportsPassTiming(t *testing.T) {
	p := profiler.NewProfiler()
	g := NewGraph(WithProfiler(p))
	g.AddPass(Pass{Name: "shadow", Run: func(context.Context) error { return nil }})
	frame, err := g.Compile()
	require.NoError(t, err)
	require.NoError(t, frame.Execute(context.Background()))

	stats := p.Passes()
	require.Len(t, stats, 1)
	assert.Equal(t, "shadow", stats[0].Name)
}

func TestPingPong_AlternatesSlots(t *testing.T) {
	p := NewPingPong("a", "b")
	assert.Equal(t, "a", p.Current())
	assert.Equal(t, "b", p.Previous())

	p.Advance()
	assert.Equal(t, uint64(1), p.Frame())
	assert.Equal(t, "b", p.Current())
	assert.Equal(t, "a", p.Previous())

	p.Advance()
	assert.Equal(t, "a", p.Current())
}
