package kernel

import (
	"context"
	"fmt"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
	"github.com/Carmen-Shannon/oxy-viewer/engine/settings"
	"github.com/Carmen-Shannon/oxy-viewer/engine/skeleton"

	"github.com/go-gl/mathgl/mgl32"
)

// SkinVertex deforms one rest-pose vertex.
//
// A vertex whose first influence is unused takes the rigid path: a Parented object follows its
// bone's world transform and anything else passes through. Otherwise the valid influences are
// blended using the animated-world transforms; influences addressing bones outside the frame
// state are skipped. Normal and tangent are renormalized and the tangent handedness is kept.
// A vertex whose influences are all invalid passes through unchanged.
//
// Parameters:
//   - v: the rest-pose vertex
//   - attachment: the mesh object's attachment
//   - fs: the frame state of the current frame
//   - ss: the skinning toggles
//
// Returns:
//   - model.Vertex: the deformed vertex
func SkinVertex(v model.Vertex, attachment model.Attachment, fs *skeleton.FrameState, ss settings.SkinningSettings) model.Vertex {
	if v.Influences[0].Bone < 0 {
		parented, ok := attachment.(model.Parented)
		if !ok || !ss.EnableParenting || !fs.Valid(parented.Bone) {
			return v
		}
		world := fs.World[parented.Bone]
		return transformRigid(v, world, common.InverseTranspose(world))
	}

	if _, ok := attachment.(model.Skinned); ok && !ss.EnableSkinning {
		return v
	}

	var pos, nrm, tan mgl32.Vec3
	contributed := false
	for _, in := range v.Influences {
		if !in.Valid(fs.Len()) {
			continue
		}
		contributed = true
		a := fs.AnimatedWorld[in.Bone]
		it := fs.AnimatedWorldInvTranspose[in.Bone]
		pos = pos.Add(common.TransformPoint(a, v.Position).Mul(in.Weight))
		nrm = nrm.Add(common.TransformDirection(it, v.Normal).Mul(in.Weight))
		tan = tan.Add(common.TransformDirection(it, v.Tangent.Vec3()).Mul(in.Weight))
	}
	if !contributed {
		return v
	}

	out := v
	out.Position = pos
	out.Normal = common.NormalizeOr(nrm, v.Normal)
	t := common.NormalizeOr(tan, v.Tangent.Vec3())
	out.Tangent = t.Vec4(v.Tangent.W())
	return out
}

func transformRigid(v model.Vertex, m, it mgl32.Mat4) model.Vertex {
	out := v
	out.Position = common.TransformPoint(m, v.Position)
	out.Normal = common.NormalizeOr(common.TransformDirection(it, v.Normal), v.Normal)
	t := common.NormalizeOr(common.TransformDirection(it, v.Tangent.Vec3()), v.Tangent.Vec3())
	out.Tangent = t.Vec4(v.Tangent.W())
	return out
}

// Skin deforms every vertex of src into dst in parallel. dst must be at least as long as src;
// vertices are written at the same index. The call returns once every vertex is written.
//
// Parameters:
//   - ctx: the dispatch context
//   - d: the dispatcher running the kernel
//   - src: the rest-pose vertices
//   - dst: the destination buffer
//   - attachment: the mesh object's attachment
//   - fs: the frame state of the current frame
//   - ss: the skinning toggles
//
// Returns:
//   - error: a size mismatch or the dispatch context error
func Skin(ctx context.Context, d Dispatcher, src, dst []model.Vertex, attachment model.Attachment, fs *skeleton.FrameState, ss settings.SkinningSettings) error {
	if len(dst) < len(src) {
		return fmt.Errorf("kernel: skin: destination holds %d vertices, need %d", len(dst), len(src))
	}
	if err := d.Dispatch(ctx, len(src), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			dst[i] = SkinVertex(src[i], attachment, fs, ss)
		}
	}); err != nil {
		return fmt.Errorf("kernel: skin: %w", err)
	}
	return nil
}

// SkinMeshObject skins one mesh object into dst.
func SkinMeshObject(ctx context.Context, d Dispatcher, obj *model.MeshObject, dst []model.Vertex, fs *skeleton.FrameState, ss settings.SkinningSettings) error {
	return Skin(ctx, d, obj.Vertices, dst, obj.Attachment, fs, ss)
}
