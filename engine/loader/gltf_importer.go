package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/animator"
	"github.com/Carmen-Shannon/oxy-viewer/engine/material"
	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
	"github.com/Carmen-Shannon/oxy-viewer/engine/skeleton"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
)

// importOptions configures a single import.
type importOptions struct {
	meshOnly      bool
	smoothNormals bool
}

// gltfImporterImpl is the implementation of the gltfImporter interface.
// It holds the per-document state shared by the extractors.
type gltfImporterImpl struct {
	doc     *gltf.Document
	baseDir string
	opts    importOptions

	// parent is the parent node index per node, or -1.
	parent []int
	// world is the rest-pose world transform per node.
	world []mgl32.Mat4

	// boneOf maps a joint node index to its bone index.
	boneOf   map[int]int
	joints   []int
	skeleton skeleton.Skeleton

	textures   map[string]*common.ImportedTexture
	imageNames map[int]string
	fallback   material.Material
}

// gltfImporter converts one decoded glTF document into an Asset.
type gltfImporter interface {
	// Import extracts meshes, materials, textures and, unless importing mesh only,
	// the skeleton and animation clips.
	//
	// Parameters:
	//   - name: the model name
	//
	// Returns:
	//   - *Asset: the imported asset
	//   - error: ErrNoMesh, a skeleton error, or an accessor read failure
	Import(name string) (*Asset, error)
}

var _ gltfImporter = &gltfImporterImpl{}

// newGLTFImporter creates an importer for a decoded document.
//
// Parameters:
//   - doc: the decoded document with buffers loaded
//   - baseDir: the directory external images are resolved against, empty for streams
//   - opts: the import options
//
// Returns:
//   - gltfImporter: the importer
func newGLTFImporter(doc *gltf.Document, baseDir string, opts importOptions) gltfImporter {
	return &gltfImporterImpl{
		doc:        doc,
		baseDir:    baseDir,
		opts:       opts,
		boneOf:     make(map[int]int),
		textures:   make(map[string]*common.ImportedTexture),
		imageNames: make(map[int]string),
	}
}

func (imp *gltfImporterImpl) Import(name string) (*Asset, error) {
	imp.buildHierarchy()

	if !imp.opts.meshOnly {
		if err := imp.extractSkeleton(); err != nil {
			return nil, fmt.Errorf("skeleton: %w", err)
		}
	}

	materials := imp.extractMaterials()

	objects, err := imp.extractMeshes(materials)
	if err != nil {
		return nil, err
	}
	if len(objects) == 0 {
		return nil, ErrNoMesh
	}

	var clips []animator.Clip
	if !imp.opts.meshOnly && imp.skeleton != nil {
		clips, err = imp.extractAnimations()
		if err != nil {
			return nil, fmt.Errorf("animation: %w", err)
		}
	}

	options := []model.ModelBuilderOption{
		model.WithName(name),
		model.WithMeshObjects(objects...),
		model.WithMaterials(materials...),
	}
	if imp.fallback != nil {
		options = append(options, model.WithMaterials(imp.fallback))
	}
	if imp.skeleton != nil {
		options = append(options, model.WithSkeleton(imp.skeleton))
	}
	for texName, tex := range imp.textures {
		options = append(options, model.WithTexture(texName, tex))
	}

	return &Asset{Model: model.NewModel(options...), Clips: clips}, nil
}

// buildHierarchy resolves node parents and rest-pose world transforms.
// Nodes reachable through a cycle are treated as roots.
func (imp *gltfImporterImpl) buildHierarchy() {
	n := len(imp.doc.Nodes)
	imp.parent = make([]int, n)
	imp.world = make([]mgl32.Mat4, n)
	for i := range imp.parent {
		imp.parent[i] = -1
	}
	for i, nd := range imp.doc.Nodes {
		for _, c := range nd.Children {
			child := int(c)
			if child >= 0 && child < n && child != i && imp.parent[child] < 0 {
				imp.parent[child] = i
			}
		}
	}

	state := make([]uint8, n) // 0 unvisited, 1 in progress, 2 done
	var visit func(i int) mgl32.Mat4
	visit = func(i int) mgl32.Mat4 {
		switch state[i] {
		case 2:
			return imp.world[i]
		case 1:
			common.Logger().Warn("gltf node hierarchy contains a cycle", "node", i)
			imp.parent[i] = -1
			return mgl32.Ident4()
		}
		state[i] = 1
		local := nodeLocal(imp.doc.Nodes[i])
		if p := imp.parent[i]; p >= 0 {
			local = visit(p).Mul4(local)
		}
		state[i] = 2
		imp.world[i] = local
		return local
	}
	for i := 0; i < n; i++ {
		visit(i)
	}
}

// nodeName returns the node name, or a positional fallback.
func (imp *gltfImporterImpl) nodeName(i int) string {
	if i >= 0 && i < len(imp.doc.Nodes) && imp.doc.Nodes[i].Name != "" {
		return imp.doc.Nodes[i].Name
	}
	return fmt.Sprintf("node%d", i)
}

// boneAncestor returns the bone of the nearest joint at or above node i, or -1.
//
// Parameters:
//   - i: the node index
//   - inclusive: true to consider node i itself
func (imp *gltfImporterImpl) boneAncestor(i int, inclusive bool) int {
	if !inclusive && i >= 0 && i < len(imp.parent) {
		i = imp.parent[i]
	}
	for steps := 0; i >= 0 && steps <= len(imp.parent); steps++ {
		if b, ok := imp.boneOf[i]; ok {
			return b
		}
		i = imp.parent[i]
	}
	return -1
}
