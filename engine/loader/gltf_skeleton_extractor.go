package loader

import (
	"github.com/Carmen-Shannon/oxy-viewer/engine/skeleton"

	"github.com/go-gl/mathgl/mgl32"
)

// extractSkeleton builds one skeleton from the joints of every skin, in order of first
// appearance. A bone's parent is its nearest joint ancestor; non-joint nodes in between are
// folded into the bone's rest local transform.
func (imp *gltfImporterImpl) extractSkeleton() error {
	for _, skin := range imp.doc.Skins {
		for _, j := range skin.Joints {
			node := int(j)
			if node < 0 || node >= len(imp.doc.Nodes) {
				continue
			}
			if _, ok := imp.boneOf[node]; ok {
				continue
			}
			imp.boneOf[node] = len(imp.joints)
			imp.joints = append(imp.joints, node)
		}
	}
	if len(imp.joints) == 0 {
		return nil
	}

	bones := make([]skeleton.Bone, len(imp.joints))
	for b, node := range imp.joints {
		parent := imp.boneAncestor(node, false)
		local := imp.world[node]
		if parent >= 0 {
			local = imp.world[imp.joints[parent]].Inv().Mul4(local)
		} else {
			parent = skeleton.NoParent
		}
		bones[b] = skeleton.Bone{Name: imp.nodeName(node), Parent: parent, Local: local}
	}

	s, err := skeleton.NewSkeleton(bones)
	if err != nil {
		return err
	}
	imp.skeleton = s
	return nil
}

// boneOffset returns the transform between a bone's joint parent (or the scene root) and the
// parent of its node. It is the identity when the node hangs directly off its parent joint.
func (imp *gltfImporterImpl) boneOffset(bone int) mgl32.Mat4 {
	node := imp.joints[bone]
	p := imp.parent[node]
	if p < 0 {
		return mgl32.Ident4()
	}
	offset := imp.world[p]
	if pb := imp.boneAncestor(node, false); pb >= 0 {
		offset = imp.world[imp.joints[pb]].Inv().Mul4(offset)
	}
	return offset
}

// skinBind returns, per joint slot of a skin, the matrix taking mesh space vertices to the
// rest-pose world space the skinning kernel expects: restWorld(joint) * inverseBind(joint).
// Missing inverse bind matrices are identity.
func (imp *gltfImporterImpl) skinBind(skinIndex int) ([]mgl32.Mat4, []int, error) {
	skin := imp.doc.Skins[skinIndex]
	n := len(skin.Joints)

	inverseBind := make([]mgl32.Mat4, n)
	for i := range inverseBind {
		inverseBind[i] = mgl32.Ident4()
	}
	if acr, ok := ref(skin.InverseBindMatrices); ok {
		ibm, err := readMat4s(imp.doc, acr)
		if err != nil {
			return nil, nil, err
		}
		copy(inverseBind, ibm)
	}

	bind := make([]mgl32.Mat4, n)
	slotBone := make([]int, n)
	for i, j := range skin.Joints {
		node := int(j)
		slotBone[i] = -1
		if b, ok := imp.boneOf[node]; ok {
			slotBone[i] = b
		}
		if node >= 0 && node < len(imp.world) {
			bind[i] = imp.world[node].Mul4(inverseBind[i])
		} else {
			bind[i] = mgl32.Ident4()
		}
	}
	return bind, slotBone, nil
}
