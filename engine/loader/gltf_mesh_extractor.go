package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/material"
	"github.com/Carmen-Shannon/oxy-viewer/engine/model"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// extractMeshes creates one mesh object per triangle primitive of every node that
// instances a mesh, in node order.
//
// Parameters:
//   - materials: the extracted materials indexed like the document's materials
//
// Returns:
//   - []*model.MeshObject: the mesh objects
//   - error: error if an accessor cannot be read
func (imp *gltfImporterImpl) extractMeshes(materials []material.Material) ([]*model.MeshObject, error) {
	var objects []*model.MeshObject
	for n, nd := range imp.doc.Nodes {
		mi, ok := ref(nd.Mesh)
		if !ok || mi < 0 || mi >= len(imp.doc.Meshes) {
			continue
		}
		mesh := imp.doc.Meshes[mi]
		name := mesh.Name
		if name == "" {
			name = imp.nodeName(n)
		}

		skinIndex, skinned := ref(nd.Skin)
		skinned = skinned && skinIndex >= 0 && skinIndex < len(imp.doc.Skins)

		for p, prim := range mesh.Primitives {
			if prim.Mode != gltf.PrimitiveTriangles {
				common.Logger().Warn("skipping non-triangle primitive", "mesh", name, "primitive", p)
				continue
			}
			mat := imp.primitiveMaterial(prim, materials)

			var obj *model.MeshObject
			var err error
			if skinned {
				obj, err = imp.extractSkinnedPrimitive(name, p, prim, skinIndex, mat)
			} else {
				obj, err = imp.extractRigidPrimitive(name, p, prim, n, mat)
			}
			if err != nil {
				return nil, fmt.Errorf("mesh %q primitive %d: %w", name, p, err)
			}
			if obj != nil {
				objects = append(objects, obj)
			}
		}
	}
	return objects, nil
}

// primitiveMaterial resolves the material of a primitive, creating the fallback material on demand.
func (imp *gltfImporterImpl) primitiveMaterial(prim *gltf.Primitive, materials []material.Material) material.Material {
	if i, ok := ref(prim.Material); ok && i >= 0 && i < len(materials) {
		return materials[i]
	}
	if imp.fallback == nil {
		imp.fallback = material.NewMaterial("default",
			material.WithShaderLabel(material.ProgramStandard+model.PassOpaque.String()))
	}
	return imp.fallback
}

// extractRigidPrimitive reads an unskinned primitive. Primitives below a joint follow that bone
// and keep their vertices in bone space; the rest are baked into world space.
func (imp *gltfImporterImpl) extractRigidPrimitive(name string, sub int, prim *gltf.Primitive, node int, mat material.Material) (*model.MeshObject, error) {
	vertices, indices, err := imp.readPrimitive(prim)
	if err != nil || vertices == nil {
		return nil, err
	}

	bone := -1
	if !imp.opts.meshOnly {
		bone = imp.boneAncestor(node, true)
	}
	m := imp.world[node]
	if bone >= 0 {
		m = imp.world[imp.joints[bone]].Inv().Mul4(m)
	}
	transformVertices(vertices, func(int) mgl32.Mat4 { return m })

	return imp.newMeshObject(name, sub, vertices, indices, bone, mat, false), nil
}

// extractSkinnedPrimitive reads a skinned primitive, maps its joint slots to bones and poses
// its vertices in the rest-pose world space by the weighted bind matrices.
func (imp *gltfImporterImpl) extractSkinnedPrimitive(name string, sub int, prim *gltf.Primitive, skinIndex int, mat material.Material) (*model.MeshObject, error) {
	vertices, indices, err := imp.readPrimitive(prim)
	if err != nil || vertices == nil {
		return nil, err
	}

	bind, slotBone, err := imp.skinBind(skinIndex)
	if err != nil {
		return nil, err
	}

	joints, weights, err := imp.readInfluences(prim)
	if err != nil {
		return nil, err
	}

	perVertex := make([]mgl32.Mat4, len(vertices))
	for i := range vertices {
		var sum mgl32.Mat4
		var total float32
		if i < len(joints) && i < len(weights) {
			for k := 0; k < model.InfluenceCount; k++ {
				slot, w := int(joints[i][k]), weights[i][k]
				if w <= 0 || slot >= len(bind) {
					continue
				}
				sum = sum.Add(bind[slot].Mul(w))
				total += w
				if !imp.opts.meshOnly && slotBone[slot] >= 0 {
					vertices[i].Influences[k] = model.Influence{Bone: int32(slotBone[slot]), Weight: w}
				}
			}
		}
		if total > 0 {
			perVertex[i] = sum.Mul(1 / total)
		} else {
			perVertex[i] = mgl32.Ident4()
		}
	}
	transformVertices(vertices, func(i int) mgl32.Mat4 { return perVertex[i] })

	return imp.newMeshObject(name, sub, vertices, indices, -1, mat, imp.opts.smoothNormals), nil
}

func (imp *gltfImporterImpl) newMeshObject(name string, sub int, vertices []model.Vertex, indices []uint32, bone int, mat material.Material, smooth bool) *model.MeshObject {
	boneCount := 0
	if imp.skeleton != nil {
		boneCount = imp.skeleton.Len()
	}
	attachment := model.ResolveAttachment(bone, vertices, boneCount)
	_, skinned := attachment.(model.Skinned)

	return model.NewMeshObject(name, vertices, indices,
		model.WithSubIndex(sub),
		model.WithAttachment(attachment),
		model.WithMaterialLabel(mat.Label(), mat.ShaderLabel()),
		model.WithNormalSmoothing(smooth && skinned),
	)
}

// readPrimitive reads the vertex attributes and triangle list of a primitive. Missing normals
// and tangents are generated from the geometry. A primitive without positions yields nil.
func (imp *gltfImporterImpl) readPrimitive(prim *gltf.Primitive) ([]model.Vertex, []uint32, error) {
	doc := imp.doc
	posIndex, ok := prim.Attributes[attrPosition]
	if !ok {
		common.Logger().Warn("skipping primitive without positions")
		return nil, nil, nil
	}
	acr, err := accessor(doc, int(posIndex))
	if err != nil {
		return nil, nil, err
	}
	positions, err := modeler.ReadPosition(doc, acr, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("positions: %w", err)
	}

	vertices := make([]model.Vertex, len(positions))
	for i, p := range positions {
		vertices[i] = model.NewVertex(mgl32.Vec3(p), mgl32.Vec3{})
	}

	hasNormals := false
	if i, ok := prim.Attributes[attrNormal]; ok {
		acr, err := accessor(doc, int(i))
		if err != nil {
			return nil, nil, err
		}
		normals, err := modeler.ReadNormal(doc, acr, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("normals: %w", err)
		}
		for j := range vertices {
			if j < len(normals) {
				vertices[j].Normal = mgl32.Vec3(normals[j])
			}
		}
		hasNormals = len(normals) >= len(vertices)
	}

	uv0, err := imp.readUVs(prim, attrTexCoord0)
	if err != nil {
		return nil, nil, err
	}
	uv1, err := imp.readUVs(prim, attrTexCoord1)
	if err != nil {
		return nil, nil, err
	}
	hasUV := len(uv0) >= len(vertices) && len(vertices) > 0
	for j := range vertices {
		if j < len(uv0) {
			for k := range vertices[j].UV {
				vertices[j].UV[k] = uv0[j]
			}
		}
		if j < len(uv1) {
			vertices[j].UV[model.UVSet] = uv1[j]
			vertices[j].UV[model.UVBake1] = uv1[j]
		}
	}

	hasTangents := false
	if i, ok := prim.Attributes[attrTangent]; ok {
		acr, err := accessor(doc, int(i))
		if err != nil {
			return nil, nil, err
		}
		tangents, err := modeler.ReadTangent(doc, acr, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("tangents: %w", err)
		}
		for j := range vertices {
			if j < len(tangents) {
				vertices[j].Tangent = mgl32.Vec4(tangents[j])
			}
		}
		hasTangents = len(tangents) >= len(vertices)
	}

	if i, ok := prim.Attributes[attrColor0]; ok {
		colors, err := imp.readColors(int(i))
		if err != nil {
			return nil, nil, fmt.Errorf("colors: %w", err)
		}
		// Vertex colors are stored at half scale; the shading pass doubles them.
		for j := range vertices {
			if j < len(colors) {
				vertices[j].Colors[0] = colors[j].Mul(0.5)
			}
		}
	}

	indices, err := imp.readIndices(prim, len(vertices))
	if err != nil {
		return nil, nil, err
	}

	if !hasNormals {
		generateNormals(vertices, indices)
	}
	if !hasTangents && hasUV {
		generateTangents(vertices, indices)
	}
	return vertices, indices, nil
}

// readUVs reads a texture coordinate set, or nil when the primitive lacks it.
func (imp *gltfImporterImpl) readUVs(prim *gltf.Primitive, attr string) ([]mgl32.Vec2, error) {
	i, ok := prim.Attributes[attr]
	if !ok {
		return nil, nil
	}
	acr, err := accessor(imp.doc, int(i))
	if err != nil {
		return nil, err
	}
	uvs, err := modeler.ReadTextureCoord(imp.doc, acr, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", attr, err)
	}
	out := make([]mgl32.Vec2, len(uvs))
	for j := range uvs {
		out[j] = mgl32.Vec2(uvs[j])
	}
	return out, nil
}

// readColors reads COLOR_0 as RGBA; RGB colors get an opaque alpha.
func (imp *gltfImporterImpl) readColors(i int) ([]mgl32.Vec4, error) {
	acr, err := accessor(imp.doc, i)
	if err != nil {
		return nil, err
	}
	if acr.Type == gltf.AccessorVec3 {
		rgb, err := readVec3s(imp.doc, i)
		if err != nil {
			return nil, err
		}
		out := make([]mgl32.Vec4, len(rgb))
		for j, c := range rgb {
			out[j] = c.Vec4(1)
		}
		return out, nil
	}
	return readVec4s(imp.doc, i)
}

// readIndices reads the triangle list, or generates one for non-indexed primitives.
// Triangles referencing vertices past vertexCount and a trailing partial triangle are dropped.
func (imp *gltfImporterImpl) readIndices(prim *gltf.Primitive, vertexCount int) ([]uint32, error) {
	i, ok := ref(prim.Indices)
	if !ok {
		indices := make([]uint32, vertexCount-vertexCount%3)
		for j := range indices {
			indices[j] = uint32(j)
		}
		return indices, nil
	}

	acr, err := accessor(imp.doc, i)
	if err != nil {
		return nil, err
	}
	raw, err := modeler.ReadIndices(imp.doc, acr, nil)
	if err != nil {
		return nil, fmt.Errorf("indices: %w", err)
	}

	indices := make([]uint32, 0, len(raw)-len(raw)%3)
	dropped := 0
	for t := 0; t+2 < len(raw); t += 3 {
		a, b, c := raw[t], raw[t+1], raw[t+2]
		if int(a) >= vertexCount || int(b) >= vertexCount || int(c) >= vertexCount {
			dropped++
			continue
		}
		indices = append(indices, a, b, c)
	}
	if dropped > 0 {
		common.Logger().Warn("dropped triangles with out of range indices", "triangles", dropped)
	}
	return indices, nil
}

// readInfluences reads JOINTS_0 and WEIGHTS_0. Either missing yields no influences.
func (imp *gltfImporterImpl) readInfluences(prim *gltf.Primitive) ([][4]uint16, [][4]float32, error) {
	ji, okJ := prim.Attributes[attrJoints0]
	wi, okW := prim.Attributes[attrWeights0]
	if !okJ || !okW {
		return nil, nil, nil
	}

	jacr, err := accessor(imp.doc, int(ji))
	if err != nil {
		return nil, nil, err
	}
	joints, err := modeler.ReadJoints(imp.doc, jacr, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("joints: %w", err)
	}

	weights4, err := readVec4s(imp.doc, int(wi))
	if err != nil {
		return nil, nil, fmt.Errorf("weights: %w", err)
	}
	weights := make([][4]float32, len(weights4))
	for i, w := range weights4 {
		weights[i] = [4]float32(w)
	}
	return joints, weights, nil
}

// transformVertices moves positions by m(i) and normals and tangents by its inverse transpose.
func transformVertices(vertices []model.Vertex, m func(i int) mgl32.Mat4) {
	for i := range vertices {
		mat := m(i)
		if mat == mgl32.Ident4() {
			continue
		}
		it := common.InverseTranspose(mat)
		v := &vertices[i]
		v.Position = common.TransformPoint(mat, v.Position)
		v.Normal = common.NormalizeOr(common.TransformDirection(it, v.Normal), v.Normal)
		t := common.NormalizeOr(common.TransformDirection(mat, v.Tangent.Vec3()), v.Tangent.Vec3())
		v.Tangent = t.Vec4(v.Tangent.W())
	}
}

// generateNormals computes smooth vertex normals from the triangle geometry. Face normals are
// accumulated unnormalized so larger triangles weigh more; degenerate vertices point up.
func generateNormals(vertices []model.Vertex, indices []uint32) {
	accum := make([]mgl32.Vec3, len(vertices))
	for t := 0; t+2 < len(indices); t += 3 {
		i0, i1, i2 := indices[t], indices[t+1], indices[t+2]
		p0 := vertices[i0].Position
		face := vertices[i1].Position.Sub(p0).Cross(vertices[i2].Position.Sub(p0))
		accum[i0] = accum[i0].Add(face)
		accum[i1] = accum[i1].Add(face)
		accum[i2] = accum[i2].Add(face)
	}
	for i := range vertices {
		vertices[i].Normal = common.NormalizeOr(accum[i], mgl32.Vec3{0, 1, 0})
	}
}

// generateTangents derives per-vertex tangents from UV gradients, orthonormalized against the
// normal. W carries the bitangent handedness.
func generateTangents(vertices []model.Vertex, indices []uint32) {
	tan := make([]mgl32.Vec3, len(vertices))
	btan := make([]mgl32.Vec3, len(vertices))

	for t := 0; t+2 < len(indices); t += 3 {
		i0, i1, i2 := indices[t], indices[t+1], indices[t+2]
		p0 := vertices[i0].Position
		uv0 := vertices[i0].UV[model.UVMap1]
		e1 := vertices[i1].Position.Sub(p0)
		e2 := vertices[i2].Position.Sub(p0)
		d1 := vertices[i1].UV[model.UVMap1].Sub(uv0)
		d2 := vertices[i2].UV[model.UVMap1].Sub(uv0)

		det := d1[0]*d2[1] - d1[1]*d2[0]
		if det == 0 {
			continue
		}
		r := 1 / det
		ft := e1.Mul(d2[1]).Sub(e2.Mul(d1[1])).Mul(r)
		fb := e2.Mul(d1[0]).Sub(e1.Mul(d2[0])).Mul(r)
		for _, i := range [3]uint32{i0, i1, i2} {
			tan[i] = tan[i].Add(ft)
			btan[i] = btan[i].Add(fb)
		}
	}

	for i := range vertices {
		n := vertices[i].Normal
		t := tan[i].Sub(n.Mul(n.Dot(tan[i])))
		if t.Len() < 1e-6 {
			vertices[i].Tangent = mgl32.Vec4{1, 0, 0, 1}
			continue
		}
		t = t.Normalize()
		w := float32(1)
		if n.Cross(t).Dot(btan[i]) < 0 {
			w = -1
		}
		vertices[i].Tangent = t.Vec4(w)
	}
}
