package renderer

import (
	"slices"
	"sort"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
	"github.com/Carmen-Shannon/oxy-viewer/engine/settings"

	"github.com/go-gl/mathgl/mgl32"
)

// drawFilter applies the mask and outline selections of ModelRenderOptions. The renderer draws
// a single model, which has model index 0.
type drawFilter struct {
	opts settings.ModelRenderOptions
}

func (f drawFilter) drawn(obj *model.MeshObject) bool {
	if !obj.Visible {
		return false
	}
	if f.opts.MaskModelIndex > 0 {
		return false
	}
	return f.opts.MaskMaterialLabel == "" || f.opts.MaskMaterialLabel == obj.MaterialLabel
}

func (f drawFilter) outlined(obj *model.MeshObject) bool {
	return f.drawn(obj) &&
		(slices.Contains(f.opts.OutlineMaterialLabels, obj.MaterialLabel) ||
			slices.Contains(f.opts.OutlineMeshNames, obj.Name))
}

// backendMesh is the per mesh object state of a backend.
type backendMesh interface {
	meshObject() *model.MeshObject
}

// meshesInPass returns the drawn meshes of render pass p. The sort pass is ordered back to
// front by the distance of each object's bounds center to the camera.
func meshesInPass[M backendMesh](meshes []M, p model.RenderPass, f drawFilter, camera mgl32.Vec3) []M {
	var out []M
	for _, m := range meshes {
		if obj := m.meshObject(); obj.Pass == p && f.drawn(obj) {
			out = append(out, m)
		}
	}
	if p == model.PassSort {
		sort.SliceStable(out, func(i, j int) bool {
			return boundsDistance(out[i].meshObject(), camera) > boundsDistance(out[j].meshObject(), camera)
		})
	}
	return out
}

func boundsDistance(obj *model.MeshObject, camera mgl32.Vec3) float32 {
	c, _ := model.BoxCenterExtent(obj.Bounds)
	return c.Sub(camera).Len()
}

// culled reports whether a rigid object lies outside the view frustum. Deformed objects are
// never culled because their rest bounds do not follow the animation.
func culled(obj *model.MeshObject, frustum common.Frustum) bool {
	if obj.IsSkinned() || obj.ParentBone() >= 0 {
		return false
	}
	c, e := model.BoxCenterExtent(obj.Bounds)
	return !frustum.IntersectsBox(c.Sub(e), c.Add(e))
}
