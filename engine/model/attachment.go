package model

// Attachment describes how a mesh object follows the skeleton.
// Exactly one of Static, Parented or Skinned applies to a mesh object.
type Attachment interface {
	attachment()
}

// Static mesh objects are drawn at their rest position.
type Static struct{}

// Parented mesh objects follow a single bone rigidly.
type Parented struct {
	Bone int
}

// Skinned mesh objects are deformed per vertex by their bone influences.
type Skinned struct{}

func (Static) attachment()   {}
func (Parented) attachment() {}
func (Skinned) attachment()  {}

// ResolveAttachment picks the attachment of a mesh object. Any valid influence on any vertex
// makes the object Skinned and the parent bone is ignored. Otherwise a valid parent bone makes
// it Parented, and everything else is Static.
//
// Parameters:
//   - parentBone: the bone the asset parents the object to, or a negative value
//   - vertices: the object's vertices
//   - boneCount: the number of bones in the skeleton
//
// Returns:
//   - Attachment: Static, Parented or Skinned
func ResolveAttachment(parentBone int, vertices []Vertex, boneCount int) Attachment {
	for i := range vertices {
		for _, in := range vertices[i].Influences {
			if in.Valid(boneCount) {
				return Skinned{}
			}
		}
	}
	if parentBone >= 0 && parentBone < boneCount {
		return Parented{Bone: parentBone}
	}
	return Static{}
}
