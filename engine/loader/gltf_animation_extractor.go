package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/animator"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
)

// boneFrame folds a bone's non-joint ancestors into its animated TRS. It assumes the folded
// transform has uniform scale, which holds for the armature nodes exporters emit.
type boneFrame struct {
	identity bool
	m        mgl32.Mat4
	r        mgl32.Quat
	s        float32
}

func newBoneFrame(m mgl32.Mat4) boneFrame {
	if m == mgl32.Ident4() {
		return boneFrame{identity: true}
	}
	trs := animator.Decompose(m)
	return boneFrame{m: m, r: trs.Rotation, s: trs.Scale[0]}
}

func (f boneFrame) translation(t mgl32.Vec3) mgl32.Vec3 {
	if f.identity {
		return t
	}
	return common.TransformPoint(f.m, t)
}

func (f boneFrame) rotation(q mgl32.Quat) mgl32.Quat {
	if f.identity {
		return q
	}
	return f.r.Mul(q).Normalize()
}

func (f boneFrame) scale(s mgl32.Vec3) mgl32.Vec3 {
	if f.identity {
		return s
	}
	return s.Mul(f.s)
}

// extractAnimations converts every animation into a clip over the skeleton's bones.
// Channels targeting non-joint nodes or morph weights are ignored. Step interpolation is
// sampled linearly and cubic spline keys keep their values without tangents.
func (imp *gltfImporterImpl) extractAnimations() ([]animator.Clip, error) {
	frames := make([]boneFrame, len(imp.joints))
	for b := range imp.joints {
		frames[b] = newBoneFrame(imp.boneOffset(b))
	}

	var clips []animator.Clip
	for ai, anim := range imp.doc.Animations {
		name := anim.Name
		if name == "" {
			name = fmt.Sprintf("animation%d", ai)
		}
		clip := animator.Clip{Name: name}
		byBone := make(map[int]int)

		for ci, ch := range anim.Channels {
			node, ok := anyRef(ch.Target.Node)
			if !ok {
				continue
			}
			bone, ok := imp.boneOf[node]
			if !ok {
				continue
			}
			si, ok := anyRef(ch.Sampler)
			if !ok || si < 0 || si >= len(anim.Samplers) {
				continue
			}
			sampler := anim.Samplers[si]
			in, okIn := anyRef(sampler.Input)
			out, okOut := anyRef(sampler.Output)
			if !okIn || !okOut {
				continue
			}

			times, err := readFloats(imp.doc, in)
			if err != nil {
				return nil, fmt.Errorf("%s channel %d input: %w", name, ci, err)
			}
			if len(times) == 0 {
				continue
			}
			path := ch.Target.Path
			if path != gltf.TRSTranslation && path != gltf.TRSRotation && path != gltf.TRSScale {
				continue
			}
			cubic := sampler.Interpolation == gltf.InterpolationCubicSpline

			idx, ok := byBone[bone]
			if !ok {
				idx = len(clip.Channels)
				byBone[bone] = idx
				clip.Channels = append(clip.Channels, animator.Channel{Bone: bone})
			}
			channel := &clip.Channels[idx]
			frame := frames[bone]

			switch path {
			case gltf.TRSTranslation, gltf.TRSScale:
				values, err := readVec3s(imp.doc, out)
				if err != nil {
					return nil, fmt.Errorf("%s channel %d output: %w", name, ci, err)
				}
				keys := make([]animator.Vec3Key, 0, len(times))
				for k, t := range times {
					v, ok := keyValue(values, k, cubic)
					if !ok {
						break
					}
					if path == gltf.TRSTranslation {
						v = frame.translation(v)
					} else {
						v = frame.scale(v)
					}
					keys = append(keys, animator.Vec3Key{Time: t, Value: v})
				}
				if path == gltf.TRSTranslation {
					channel.Translations = keys
				} else {
					channel.Scales = keys
				}
			case gltf.TRSRotation:
				values, err := readVec4s(imp.doc, out)
				if err != nil {
					return nil, fmt.Errorf("%s channel %d output: %w", name, ci, err)
				}
				keys := make([]animator.QuatKey, 0, len(times))
				for k, t := range times {
					v, ok := keyValue(values, k, cubic)
					if !ok {
						break
					}
					q := toQuat([4]float32(v)).Normalize()
					keys = append(keys, animator.QuatKey{Time: t, Value: frame.rotation(q)})
				}
				channel.Rotations = keys
			}

			if last := times[len(times)-1]; last > clip.Duration {
				clip.Duration = last
			}
		}

		if len(clip.Channels) == 0 {
			continue
		}
		clips = append(clips, clip)
	}
	return clips, nil
}

// keyValue returns the k-th keyframe value. Cubic spline outputs store an in-tangent, the
// value and an out-tangent per key.
func keyValue[T any](values []T, k int, cubic bool) (T, bool) {
	i := k
	if cubic {
		i = 3*k + 1
	}
	if i >= len(values) {
		var zero T
		return zero, false
	}
	return values[i], true
}
