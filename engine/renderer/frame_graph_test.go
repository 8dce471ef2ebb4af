package renderer

import (
	"context"
	"testing"

	"github.com/Carmen-Shannon/oxy-viewer/engine/framegraph"
	"github.com/Carmen-Shannon/oxy-viewer/engine/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var standardPasses = []string{
	PassSkinning, PassRenormal,
	PassShadowDepth, PassVarianceShadow,
	"model_opaque", PassFloorGrid, "model_far", "model_sort", "model_near",
	PassOutlineMask,
	PassBloomThreshold, "bloom_blur_0", "bloom_blur_1", "bloom_blur_2", "bloom_blur_3",
	PassBloomCombine, PassBloomUpscale,
	PassPostProcess, PassOutlineComposite, PassSkeleton, PassPresent,
}

func TestNewTargetChain(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		scale         float32
		threshold     Extent
		mips          [4]Extent
		upscale       Extent
	}{
		{
			name: "720p", width: 1280, height: 720, scale: 1,
			threshold: Extent{320, 180},
			mips:      [4]Extent{{160, 90}, {80, 45}, {40, 23}, {20, 12}},
			upscale:   Extent{640, 360},
		},
		{
			name: "scaled", width: 1280, height: 720, scale: 2,
			threshold: Extent{160, 90},
			mips:      [4]Extent{{80, 45}, {40, 23}, {20, 12}, {10, 6}},
			upscale:   Extent{320, 180},
		},
		{
			name: "single pixel", width: 1, height: 1, scale: 0,
			threshold: Extent{1, 1},
			mips:      [4]Extent{{1, 1}, {1, 1}, {1, 1}, {1, 1}},
			upscale:   Extent{1, 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewTargetChain(tt.width, tt.height, tt.scale)
			assert.Equal(t, Extent{1024, 1024}, c.Shadow)
			assert.Equal(t, Extent{512, 512}, c.VarianceShadow)
			assert.Equal(t, Extent{tt.width, tt.height}, c.Color)
			assert.Equal(t, tt.threshold, c.BloomThreshold)
			assert.Equal(t, tt.mips, c.BloomMips)
			assert.Equal(t, tt.threshold, c.BloomCombine)
			assert.Equal(t, tt.upscale, c.BloomUpscale)
		})
	}
}

func TestBuildFrameGraph_StandardOrder(t *testing.T) {
	g := framegraph.NewGraph(framegraph.WithStrictBarriers(false))
	BuildFrameGraph(g, FramePasses{}, false)

	assert.Equal(t, standardPasses, g.Passes())

	frame, err := g.Compile()
	require.NoError(t, err)
	require.NoError(t, frame.Execute(context.Background()))

	handoffs := make(map[string]string)
	for _, b := range frame.Barriers() {
		handoffs[b.Name+":"+b.To] = b.From
	}
	assert.Equal(t, PassSkinning, handoffs[ResourceSkinned+":"+PassRenormal])
	assert.Equal(t, "model_opaque", handoffs[ColorResourceName(model.PassOpaque)+":"+PassFloorGrid])
	assert.Equal(t, PassFloorGrid, handoffs[ResourceFloorGrid+":model_far"])
	assert.Equal(t, "model_opaque", handoffs[DepthResourceName(model.PassOpaque)+":model_far"])
	assert.Equal(t, "model_near", handoffs[ColorResourceName(model.PassNear)+":"+PassPostProcess])
	assert.Equal(t, "bloom_blur_3", handoffs[BloomMipResourceName(3)+":"+PassBloomCombine])
	assert.Equal(t, PassOutlineMask, handoffs[ResourceOutlineMask+":"+PassOutlineComposite])
	assert.Equal(t, PassOutlineComposite, handoffs[ResourceOutlined+":"+PassSkeleton])
	assert.Equal(t, PassSkeleton, handoffs[ResourceSkeleton+":"+PassPresent])
}

func TestBuildFrameGraph_DebugBranch(t *testing.T) {
	g := framegraph.NewGraph(framegraph.WithStrictBarriers(false))
	BuildFrameGraph(g, FramePasses{}, true)

	assert.Equal(t, []string{PassSkinning, PassRenormal, PassDebug}, g.Passes())
	_, err := g.Compile()
	assert.NoError(t, err)
}

func TestBuildFrameGraph_RunsPassFunctionsInOrder(t *testing.T) {
	var ran []string
	record := func(name string) framegraph.PassFunc {
		return func(context.Context) error {
			ran = append(ran, name)
			return nil
		}
	}
	p := FramePasses{
		Skinning:    record(PassSkinning),
		Renormal:    record(PassRenormal),
		ShadowDepth: record(PassShadowDepth),
		FloorGrid:   record(PassFloorGrid),
		Skeleton:    record(PassSkeleton),
		Present:     record(PassPresent),
	}
	p.Model[model.PassSort] = record("model_sort")

	g := framegraph.NewGraph()
	BuildFrameGraph(g, p, false)
	frame, err := g.Compile()
	require.NoError(t, err)
	require.NoError(t, frame.Execute(context.Background()))

	assert.Equal(t, []string{PassSkinning, PassRenormal, PassShadowDepth, PassFloorGrid, "model_sort", PassSkeleton, PassPresent}, ran)
}
