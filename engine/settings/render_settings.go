package settings

// DebugMode selects what the forward pass outputs. Shaded is the composited result; every other
// mode outputs a raw intermediate quantity for the whole draw call.
type DebugMode uint32

const (
	DebugShaded DebugMode = iota
	DebugPosition0
	DebugNormal0
	DebugTangent0
	DebugColorSet1
	DebugColorSet2
	DebugColorSet3
	DebugColorSet4
	DebugColorSet5
	DebugColorSet6
	DebugColorSet7
	DebugTexture0
	DebugTexture1
	DebugTexture2
	DebugTexture3
	DebugTexture4
	DebugTexture5
	DebugTexture6
	DebugTexture7
	DebugTexture8
	DebugTexture9
	DebugTexture10
	DebugTexture11
	DebugTexture12
	DebugTexture13
	DebugTexture14
	DebugTexture16
	DebugMap1
	DebugBake1
	DebugUVSet
	DebugUVSet1
	DebugUVSet2
	DebugBasic
	DebugNormals
	DebugBitangents
	DebugAlbedo
	DebugShaderComplexity

	debugModeCount
)

var debugModeNames = [...]string{
	"Shaded", "Position0", "Normal0", "Tangent0",
	"ColorSet1", "ColorSet2", "ColorSet3", "ColorSet4", "ColorSet5", "ColorSet6", "ColorSet7",
	"Texture0", "Texture1", "Texture2", "Texture3", "Texture4", "Texture5", "Texture6", "Texture7",
	"Texture8", "Texture9", "Texture10", "Texture11", "Texture12", "Texture13", "Texture14", "Texture16",
	"Map1", "Bake1", "UvSet", "UvSet1", "UvSet2",
	"Basic", "Normals", "Bitangents", "Albedo", "ShaderComplexity",
}

// String returns the mode name.
func (m DebugMode) String() string {
	if m >= debugModeCount {
		return "Shaded"
	}
	return debugModeNames[m]
}

// Next returns the following mode, wrapping around.
func (m DebugMode) Next() DebugMode {
	return (m + 1) % debugModeCount
}

// Prev returns the preceding mode, wrapping around.
func (m DebugMode) Prev() DebugMode {
	return (m + debugModeCount - 1) % debugModeCount
}

// TextureSlot returns the material texture slot a TextureN mode displays.
//
// Returns:
//   - int: the slot
//   - bool: false if the mode does not display a texture
func (m DebugMode) TextureSlot() (int, bool) {
	switch {
	case m >= DebugTexture0 && m <= DebugTexture14:
		return int(m - DebugTexture0), true
	case m == DebugTexture16:
		return 16, true
	default:
		return 0, false
	}
}

// ParseDebugMode finds a mode by name. Unknown names return DebugShaded and false.
func ParseDebugMode(name string) (DebugMode, bool) {
	for i, n := range debugModeNames {
		if n == name {
			return DebugMode(i), true
		}
	}
	return DebugShaded, false
}

// TransitionMaterial selects the palette a transition effect blends toward.
type TransitionMaterial uint32

const (
	TransitionInk TransitionMaterial = iota
	TransitionMetalBox
	TransitionGold
	TransitionDitto

	transitionCount
)

var transitionNames = [...]string{"Ink", "MetalBox", "Gold", "Ditto"}

// String returns the transition name.
func (t TransitionMaterial) String() string {
	if t >= transitionCount {
		return "Ink"
	}
	return transitionNames[t]
}

// Next returns the following transition material, wrapping around.
func (t TransitionMaterial) Next() TransitionMaterial {
	return (t + 1) % transitionCount
}

// ParseTransitionMaterial finds a transition material by name.
func ParseTransitionMaterial(name string) (TransitionMaterial, bool) {
	for i, n := range transitionNames {
		if n == name {
			return TransitionMaterial(i), true
		}
	}
	return TransitionInk, false
}

// RenderSettings are the per-frame toggles of the shading pipeline. They are passed by value
// through the frame so each frame sees one consistent snapshot.
type RenderSettings struct {
	DebugMode          DebugMode          `json:"debug_mode"`
	TransitionMaterial TransitionMaterial `json:"transition_material"`
	TransitionFactor   float32            `json:"transition_factor"`

	RenderDiffuse     bool `json:"render_diffuse"`
	RenderSpecular    bool `json:"render_specular"`
	RenderEmission    bool `json:"render_emission"`
	RenderRimLighting bool `json:"render_rim_lighting"`
	RenderShadows     bool `json:"render_shadows"`
	RenderBloom       bool `json:"render_bloom"`
	RenderVertexColor bool `json:"render_vertex_color"`
	// ScaleVertexColor doubles vertex colors so 0.5 is neutral.
	ScaleVertexColor bool `json:"scale_vertex_color"`

	// RenderRGBA masks output channels. RenderNor and RenderPrm mask the normal map and PRM channels.
	RenderRGBA [4]bool `json:"render_rgba"`
	RenderNor  [4]bool `json:"render_nor"`
	RenderPrm  [4]bool `json:"render_prm"`

	// UseUVPattern replaces texture debug output with a UV checker pattern.
	UseUVPattern bool `json:"use_uv_pattern"`
}

// DefaultRenderSettings enables every term and selects the shaded output.
func DefaultRenderSettings() RenderSettings {
	all := [4]bool{true, true, true, true}
	return RenderSettings{
		DebugMode:          DebugShaded,
		TransitionMaterial: TransitionInk,
		RenderDiffuse:      true,
		RenderSpecular:     true,
		RenderEmission:     true,
		RenderRimLighting:  true,
		RenderShadows:      true,
		RenderBloom:        true,
		RenderVertexColor:  true,
		ScaleVertexColor:   true,
		RenderRGBA:         all,
		RenderNor:          all,
		RenderPrm:          all,
	}
}

// Clamped maps out-of-range enum values to their default case and clamps the transition
// factor to [0, 1]. Nothing else is validated.
func (s RenderSettings) Clamped() RenderSettings {
	if s.DebugMode >= debugModeCount {
		s.DebugMode = DebugShaded
	}
	if s.TransitionMaterial >= transitionCount {
		s.TransitionMaterial = TransitionInk
	}
	if !(s.TransitionFactor >= 0) {
		s.TransitionFactor = 0
	}
	s.TransitionFactor = min(s.TransitionFactor, 1)
	return s
}

// SkinningSettings toggle the two deformation paths of the skinning kernel.
type SkinningSettings struct {
	EnableParenting bool `json:"enable_parenting"`
	EnableSkinning  bool `json:"enable_skinning"`
}

// DefaultSkinningSettings enables both parenting and skinning.
func DefaultSkinningSettings() SkinningSettings {
	return SkinningSettings{EnableParenting: true, EnableSkinning: true}
}

// ModelRenderOptions select which mesh objects receive the outline and which are masked, and
// which viewer overlays are drawn.
type ModelRenderOptions struct {
	// MaskModelIndex limits drawing to one model when non-negative.
	MaskModelIndex int `json:"mask_model_index"`
	// MaskMaterialLabel limits drawing to mesh objects using this material when non-empty.
	MaskMaterialLabel string `json:"mask_material_label"`
	// OutlineMaterialLabels lists the materials whose mesh objects are outlined.
	OutlineMaterialLabels []string `json:"outline_material_labels"`
	// OutlineMeshNames lists the mesh object names that are outlined.
	OutlineMeshNames []string `json:"outline_mesh_names"`
	DrawWireframe    bool     `json:"draw_wireframe"`

	// DrawBones draws the skeleton over the model: a sphere per bone and a joint to its parent.
	DrawBones bool `json:"draw_bones"`
	// DrawBoneAxes draws the local axes of every bone.
	DrawBoneAxes bool `json:"draw_bone_axes"`
	// DrawFloorGrid draws the ground grid on the XZ plane.
	DrawFloorGrid bool `json:"draw_floor_grid"`
}

// DrawSkeleton reports whether any part of the skeleton overlay is enabled.
func (o ModelRenderOptions) DrawSkeleton() bool {
	return o.DrawBones || o.DrawBoneAxes
}

// DefaultModelRenderOptions draws every model and outlines nothing.
func DefaultModelRenderOptions() ModelRenderOptions {
	return ModelRenderOptions{MaskModelIndex: -1}
}
