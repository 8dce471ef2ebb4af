package renderer

import (
	"math"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/framegraph"
	"github.com/Carmen-Shannon/oxy-viewer/engine/material"
	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
	"github.com/Carmen-Shannon/oxy-viewer/engine/postfx"
	"github.com/Carmen-Shannon/oxy-viewer/engine/raster"
	"github.com/Carmen-Shannon/oxy-viewer/engine/shading"

	"github.com/go-gl/mathgl/mgl32"
)

// srgbSlots are the texture slots holding color data. They are decoded to linear on upload,
// like an sRGB texture format would on sampling.
var srgbSlots = map[int]bool{
	material.SlotColor:     true,
	material.SlotColor2:    true,
	material.SlotEmissive:  true,
	material.SlotEmissive2: true,
	material.SlotDiffuse:   true,
	material.SlotDiffuse2:  true,
	material.SlotDiffuse3:  true,
	material.SlotBakeLit:   true,
}

// softwareMesh is the per mesh object state of the software backend.
type softwareMesh struct {
	index    int
	obj      *model.MeshObject
	mat      material.Material
	uniforms material.Uniforms
	textures *textureSet
	skinned  *framegraph.PingPong[[]model.Vertex]
}

func (m *softwareMesh) meshObject() *model.MeshObject {
	return m.obj
}

// textureSet is the shading.TextureSource of one material. Addressing repeats.
type textureSet struct {
	slots [material.TextureCount]*postfx.Image
}

var _ shading.TextureSource = &textureSet{}

func (t *textureSet) Sample(slot int, uv mgl32.Vec2) mgl32.Vec4 {
	if slot < 0 || slot >= len(t.slots) || t.slots[slot] == nil {
		return mgl32.Vec4{}
	}
	return t.slots[slot].Sample(mgl32.Vec2{fract(uv[0]), fract(uv[1])})
}

func fract(v float32) float32 {
	return v - float32(math.Floor(float64(v)))
}

// textureCache decodes each model texture once per color space.
type textureCache struct {
	model  model.Model
	images map[string]*postfx.Image
}

func newTextureCache(m model.Model) *textureCache {
	return &textureCache{model: m, images: make(map[string]*postfx.Image)}
}

// get returns the decoded texture, or nil when it is missing or fails to decode.
func (c *textureCache) get(name string, srgb bool) *postfx.Image {
	key := name
	if srgb {
		key += "#srgb"
	}
	if img, ok := c.images[key]; ok {
		return img
	}

	var img *postfx.Image
	if tex := c.model.Texture(name); tex != nil {
		rgba, err := tex.Decode()
		if err != nil {
			common.Logger().Warn("texture decode failed", "texture", name, "error", err)
		} else {
			img = postfx.FromImage(rgba)
			if srgb {
				decodeSRGB(img)
			}
		}
	}
	c.images[key] = img
	return img
}

// textureSet binds the textures of a material. Slots without a decodable texture stay empty.
func (c *textureCache) textureSet(mat material.Material) *textureSet {
	set := &textureSet{}
	if mat == nil {
		return set
	}
	for _, slot := range mat.TextureSlots() {
		ref, ok := mat.Texture(slot)
		if !ok || slot < 0 || slot >= len(set.slots) {
			continue
		}
		set.slots[slot] = c.get(ref.Name, srgbSlots[slot])
	}
	return set
}

func decodeSRGB(img *postfx.Image) {
	for i, c := range img.Pix {
		img.Pix[i] = mgl32.Vec4{srgbToLinear(c[0]), srgbToLinear(c[1]), srgbToLinear(c[2]), c[3]}
	}
}

func srgbToLinear(v float32) float32 {
	if v <= 0.04045 {
		return v / 12.92
	}
	return float32(math.Pow(float64(v+0.055)/1.055, 2.4))
}

// triangles projects the indexed triangles of vertices with m. Triangles referencing a vertex
// outside the buffer are skipped. Primitive holds the index of the first index of a triangle.
func triangles(vertices []model.Vertex, indices []uint32, m mgl32.Mat4) []raster.Triangle {
	tris := make([]raster.Triangle, 0, len(indices)/3)
	n := uint32(len(vertices))
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := indices[i], indices[i+1], indices[i+2]
		if a >= n || b >= n || c >= n {
			continue
		}
		tris = append(tris, raster.Triangle{
			Clip: [3]mgl32.Vec4{
				m.Mul4x1(vertices[a].Position.Vec4(1)),
				m.Mul4x1(vertices[b].Position.Vec4(1)),
				m.Mul4x1(vertices[c].Position.Vec4(1)),
			},
			Primitive: i,
		})
	}
	return tris
}

// interpolate builds the shading input of a raster fragment. The fragment's primitive is the
// position of the triangle's first index.
func interpolate(vertices []model.Vertex, indices []uint32, f raster.Fragment, camera mgl32.Vec3) shading.Fragment {
	v0 := &vertices[indices[f.Primitive]]
	v1 := &vertices[indices[f.Primitive+1]]
	v2 := &vertices[indices[f.Primitive+2]]
	b := f.Bary

	in := shading.Fragment{
		Position: raster.Interpolate3(b, v0.Position, v1.Position, v2.Position),
		Normal:   raster.Interpolate3(b, v0.Normal, v1.Normal, v2.Normal),
		Tangent:  raster.Interpolate4(b, v0.Tangent, v1.Tangent, v2.Tangent),
		Shadow:   1,
	}
	in.Tangent[3] = v0.Tangent[3]
	for i := range in.UV {
		in.UV[i] = raster.Interpolate2(b, v0.UV[i], v1.UV[i], v2.UV[i])
	}
	for i := range in.Colors {
		in.Colors[i] = raster.Interpolate4(b, v0.Colors[i], v1.Colors[i], v2.Colors[i])
	}
	if !f.FrontFacing {
		in.Normal = in.Normal.Mul(-1)
	}
	in.ViewDir = camera.Sub(in.Position)
	return in
}

// drawState maps a material to the fixed function state of the forward pass. Blended
// materials test depth without writing it.
func drawState(mat material.Material, wireframe bool) raster.State {
	s := raster.OpaqueState()
	if mat != nil {
		s.Cull = mat.Cull()
		s.Blend = mat.Blend()
		s.DepthWrite = s.Blend == material.BlendOpaque
	}
	s.Wireframe = wireframe
	return s
}
