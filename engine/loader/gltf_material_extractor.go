package loader

import (
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/material"
	"github.com/Carmen-Shannon/oxy-viewer/engine/model"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
)

// prmSpecular is the specular channel written into generated PRM textures, matching the
// shading pass default.
const prmSpecular = 0.16

// whiteTexture names the 1x1 texture bound to emissive slots of materials with only an emissive factor.
const whiteTexture = "white"

// extractMaterials converts every document material, keeping the document order.
// Labels are the material names, made unique with the material index when needed.
func (imp *gltfImporterImpl) extractMaterials() []material.Material {
	materials := make([]material.Material, len(imp.doc.Materials))
	used := make(map[string]bool, len(imp.doc.Materials))
	for i, mt := range imp.doc.Materials {
		label := mt.Name
		if label == "" || used[label] || label == "default" {
			label = fmt.Sprintf("material%d", i)
		}
		used[label] = true
		materials[i] = imp.extractMaterial(label, mt)
	}
	return materials
}

// extractMaterial maps a metallic-roughness material onto the shading parameter table:
//
//   - alpha mode selects the program and render pass (opaque, masked with cutoff, blended in the sort pass)
//   - base color factor and texture drive CustomVector13 and the color slot
//   - metallic and roughness (and occlusion) are packed into a generated PRM texture
//   - normal texture binds the normal slot
//   - emissive factor scales the emissive slot through CustomVector3
func (imp *gltfImporterImpl) extractMaterial(label string, mt *gltf.Material) material.Material {
	program, pass := material.ProgramStandard, model.PassOpaque
	var opts []material.MaterialBuilderOption

	switch mt.AlphaMode {
	case gltf.AlphaMask:
		program = material.ProgramMasked
		opts = append(opts, material.WithFloat(material.FloatAlphaThreshold, scalar(mt.AlphaCutoff, 0.5)))
	case gltf.AlphaBlend:
		program, pass = material.ProgramBlended, model.PassSort
		opts = append(opts, material.WithBlend(material.BlendAlpha))
	}
	opts = append(opts, material.WithShaderLabel(program+pass.String()))
	if mt.DoubleSided {
		opts = append(opts, material.WithCull(material.CullNone))
	}

	metallic, roughness := float32(1), float32(1)
	var mrTexture *gltf.TextureInfo
	if pbr := mt.PBRMetallicRoughness; pbr != nil {
		if c, ok := colorFactor(pbr.BaseColorFactor); ok && c != (mgl32.Vec4{1, 1, 1, 1}) {
			opts = append(opts, material.WithVector(material.VectorAlbedoColor, c))
		}
		if pbr.BaseColorTexture != nil {
			if name, ok := imp.texture(int(pbr.BaseColorTexture.Index)); ok {
				opts = append(opts, material.WithTexture(material.SlotColor, name))
			}
		}
		metallic = scalar(pbr.MetallicFactor, 1)
		roughness = scalar(pbr.RoughnessFactor, 1)
		mrTexture = pbr.MetallicRoughnessTexture
	}

	occlusion := -1
	if mt.OcclusionTexture != nil {
		if i, ok := anyRef(mt.OcclusionTexture.Index); ok {
			occlusion = i
		}
	}
	mr := -1
	if mrTexture != nil {
		mr = int(mrTexture.Index)
	}
	prm := imp.buildPRM(label, mr, occlusion, metallic, roughness)
	opts = append(opts, material.WithTexture(material.SlotPRM, prm))

	if mt.NormalTexture != nil {
		if i, ok := anyRef(mt.NormalTexture.Index); ok {
			if name, ok := imp.texture(i); ok {
				opts = append(opts, material.WithTexture(material.SlotNormal, name))
			}
		}
	}

	if emissive := toVec3(mt.EmissiveFactor); emissive != (mgl32.Vec3{}) {
		name, ok := "", false
		if mt.EmissiveTexture != nil {
			name, ok = imp.texture(int(mt.EmissiveTexture.Index))
		}
		if !ok {
			name, ok = imp.white(), true
		}
		opts = append(opts,
			material.WithTexture(material.SlotEmissive, name),
			material.WithVector(material.VectorEmissionScale, emissive.Vec4(1)))
	}

	return material.NewMaterial(label, opts...)
}

// texture resolves a document texture to the name of its loaded image.
//
// Parameters:
//   - ti: the document texture index
//
// Returns:
//   - string: the texture table name
//   - bool: false if the texture or its image is missing or unreadable
func (imp *gltfImporterImpl) texture(ti int) (string, bool) {
	if ti < 0 || ti >= len(imp.doc.Textures) {
		return "", false
	}
	src, ok := ref(imp.doc.Textures[ti].Source)
	if !ok || src < 0 || src >= len(imp.doc.Images) {
		return "", false
	}
	if name, ok := imp.imageNames[src]; ok {
		return name, true
	}

	name := imp.doc.Images[src].Name
	if name == "" || imp.textures[name] != nil {
		name = fmt.Sprintf("image%d", src)
	}
	tex, err := imp.imageTexture(src, name)
	if err != nil {
		common.Logger().Warn("skipping unreadable image", "image", src, "error", err)
		return "", false
	}
	imp.imageNames[src] = name
	imp.textures[name] = tex
	return name, true
}

// imageTexture locates the encoded bytes of an image: a buffer view, a data URI, or a file
// next to the asset.
func (imp *gltfImporterImpl) imageTexture(i int, name string) (*common.ImportedTexture, error) {
	img := imp.doc.Images[i]
	tex := &common.ImportedTexture{Name: name, MimeType: img.MimeType}

	if bv, ok := ref(img.BufferView); ok {
		data, err := imp.bufferView(bv)
		if err != nil {
			return nil, err
		}
		tex.Data = data
		return tex, nil
	}

	switch {
	case strings.HasPrefix(img.URI, "data:"):
		data, err := decodeDataURI(img.URI)
		if err != nil {
			return nil, err
		}
		tex.Data = data
	case img.URI != "":
		if imp.baseDir == "" {
			return nil, fmt.Errorf("external image %q cannot be resolved from a stream", img.URI)
		}
		p, err := url.PathUnescape(img.URI)
		if err != nil {
			p = img.URI
		}
		tex.Path = filepath.Join(imp.baseDir, filepath.FromSlash(p))
	default:
		return nil, fmt.Errorf("image has no source")
	}
	return tex, nil
}

// bufferView returns the bytes of a buffer view.
func (imp *gltfImporterImpl) bufferView(i int) ([]byte, error) {
	if i < 0 || i >= len(imp.doc.BufferViews) {
		return nil, fmt.Errorf("buffer view %d out of range", i)
	}
	view := imp.doc.BufferViews[i]
	b := int(view.Buffer)
	if b < 0 || b >= len(imp.doc.Buffers) {
		return nil, fmt.Errorf("buffer %d out of range", b)
	}
	data := imp.doc.Buffers[b].Data
	start, end := int(view.ByteOffset), int(view.ByteOffset)+int(view.ByteLength)
	if start < 0 || end > len(data) || start > end {
		return nil, fmt.Errorf("buffer view %d exceeds buffer %d", i, b)
	}
	return data[start:end], nil
}

// decodeDataURI decodes a base64 data URI.
func decodeDataURI(uri string) ([]byte, error) {
	header, payload, ok := strings.Cut(uri, ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("unsupported data URI")
	}
	return base64.StdEncoding.DecodeString(payload)
}

// buildPRM generates the PRM texture of a material: metalness in R, roughness in G, ambient
// occlusion in B and specular in A. The metallic-roughness texture keeps roughness in G and
// metalness in B and is scaled by the factors; occlusion is read from the red channel.
// Without a usable metallic-roughness texture the result is a single texel of the factors.
func (imp *gltfImporterImpl) buildPRM(label string, mrTexture, occlusionTexture int, metallic, roughness float32) string {
	name := label + "_prm"

	var mr, ao *image.RGBA
	if mrTexture >= 0 {
		mr = imp.decodeTexture(mrTexture)
	}
	if occlusionTexture >= 0 {
		ao = imp.decodeTexture(occlusionTexture)
	}

	w, h := 1, 1
	if mr != nil {
		w, h = mr.Rect.Dx(), mr.Rect.Dy()
	}
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m, r, o := metallic, roughness, float32(1)
			if mr != nil {
				c := mr.RGBAAt(x, y)
				m *= float32(c.B) / 255
				r *= float32(c.G) / 255
			}
			if ao != nil {
				ax := x * ao.Rect.Dx() / w
				ay := y * ao.Rect.Dy() / h
				o = float32(ao.RGBAAt(ax, ay).R) / 255
			}
			out.SetRGBA(x, y, color.RGBA{R: unorm8(m), G: unorm8(r), B: unorm8(o), A: unorm8(prmSpecular)})
		}
	}

	imp.textures[name] = &common.ImportedTexture{Name: name, Image: out, Width: w, Height: h}
	return name
}

// decodeTexture loads and decodes a document texture, or returns nil with a warning.
func (imp *gltfImporterImpl) decodeTexture(ti int) *image.RGBA {
	name, ok := imp.texture(ti)
	if !ok {
		return nil
	}
	img, err := imp.textures[name].Decode()
	if err != nil {
		common.Logger().Warn("texture decode failed", "texture", name, "error", err)
		return nil
	}
	return img
}

// white returns the shared 1x1 white texture, creating it on first use.
func (imp *gltfImporterImpl) white() string {
	if _, ok := imp.textures[whiteTexture]; !ok {
		img := image.NewRGBA(image.Rect(0, 0, 1, 1))
		img.SetRGBA(0, 0, color.RGBA{R: 255, G: 255, B: 255, A: 255})
		imp.textures[whiteTexture] = &common.ImportedTexture{Name: whiteTexture, Image: img, Width: 1, Height: 1}
	}
	return whiteTexture
}

func unorm8(v float32) uint8 {
	return uint8(common.Saturate(v)*255 + 0.5)
}
