package skeleton

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-viewer/common"

	"github.com/go-gl/mathgl/mgl32"
)

// MaxBoneCount is the number of bones the frame state buffers hold. Bones past this
// index are dropped at build time and bone indices at or beyond it are treated as unused.
const MaxBoneCount = 512

var (
	// ErrBoneCycle is returned when following parent links from a bone leads back to itself.
	ErrBoneCycle = errors.New("skeleton: bone hierarchy contains a cycle")
	// ErrParentOutOfRange is returned when a bone references a parent index past the bone list.
	ErrParentOutOfRange = errors.New("skeleton: parent index out of range")
)

// NoParent marks a root bone.
const NoParent = -1

// Bone is a single joint in a skeleton hierarchy.
type Bone struct {
	// Name identifies the bone for animation targeting and mesh parenting.
	Name string

	// Parent is the index of the parent bone, or NoParent (any negative value) for a root.
	Parent int

	// Local is the rest-pose transform relative to the parent.
	Local mgl32.Mat4
}

// skeleton is the implementation of the Skeleton interface.
type skeleton struct {
	bones        []Bone
	order        []int
	restWorld    []mgl32.Mat4
	invRestWorld []mgl32.Mat4
	names        map[string]int

	maxBones int
}

// Skeleton is an immutable bone forest with precomputed rest-pose world transforms.
// It is built once per loaded model and shared read-only by every frame.
type Skeleton interface {
	// Bones returns the bone list in index order.
	//
	// Returns:
	//   - []Bone: the bones; callers must not modify the slice
	Bones() []Bone

	// Len returns the number of bones kept after applying the bone cap.
	//
	// Returns:
	//   - int: the bone count
	Len() int

	// Order returns the evaluation order: every bone appears after its parent.
	//
	// Returns:
	//   - []int: bone indices, roots first
	Order() []int

	// Parent returns the parent index of a bone, or NoParent.
	//
	// Parameters:
	//   - i: the bone index
	//
	// Returns:
	//   - int: the parent index or NoParent when i is a root or out of range
	Parent(i int) int

	// RestWorld returns the rest-pose world transform of bone i.
	//
	// Parameters:
	//   - i: the bone index
	//
	// Returns:
	//   - mgl32.Mat4: the world transform, identity when i is out of range
	RestWorld(i int) mgl32.Mat4

	// InverseRestWorld returns the inverse of RestWorld(i).
	//
	// Parameters:
	//   - i: the bone index
	//
	// Returns:
	//   - mgl32.Mat4: the inverse rest world transform, identity when i is out of range
	InverseRestWorld(i int) mgl32.Mat4

	// Index looks up a bone by name.
	//
	// Parameters:
	//   - name: the bone name
	//
	// Returns:
	//   - int: the bone index
	//   - bool: true if found
	Index(name string) (int, bool)

	// Valid reports whether i addresses a bone that frame state buffers carry.
	//
	// Parameters:
	//   - i: the bone index
	//
	// Returns:
	//   - bool: true when 0 <= i < Len()
	Valid(i int) bool
}

var _ Skeleton = &skeleton{}

// NewSkeleton validates a bone list and precomputes rest-pose world transforms.
// Parents need not precede their children; the evaluation order is derived topologically.
// Bones past the configured cap are dropped with a single warning, and kept bones whose
// parent was dropped become roots.
//
// Parameters:
//   - bones: the bone list, indexed consistently with vertex influences and animation data
//   - options: a variadic list of SkeletonBuilderOption functions
//
// Returns:
//   - Skeleton: the built skeleton
//   - error: ErrParentOutOfRange or ErrBoneCycle wrapped with the offending bone
func NewSkeleton(bones []Bone, options ...SkeletonBuilderOption) (Skeleton, error) {
	s := &skeleton{maxBones: MaxBoneCount}
	for _, option := range options {
		option(s)
	}

	kept := bones
	if len(kept) > s.maxBones {
		common.Logger().Warn("skeleton exceeds the supported bone count, extra bones ignored",
			"bones", len(bones), "max", s.maxBones)
		kept = kept[:s.maxBones]
	}

	s.bones = make([]Bone, len(kept))
	copy(s.bones, kept)
	s.names = make(map[string]int, len(kept))

	for i := range s.bones {
		b := &s.bones[i]
		if b.Parent < 0 {
			b.Parent = NoParent
		} else if b.Parent >= len(bones) {
			return nil, fmt.Errorf("%w: bone %d (%q) references parent %d of %d", ErrParentOutOfRange, i, b.Name, b.Parent, len(bones))
		} else if b.Parent >= len(s.bones) {
			b.Parent = NoParent
		}
		if _, dup := s.names[b.Name]; !dup && b.Name != "" {
			s.names[b.Name] = i
		}
	}

	order, err := evaluationOrder(s.bones)
	if err != nil {
		return nil, err
	}
	s.order = order

	s.restWorld = make([]mgl32.Mat4, len(s.bones))
	s.invRestWorld = make([]mgl32.Mat4, len(s.bones))
	for _, i := range s.order {
		world := s.bones[i].Local
		if p := s.bones[i].Parent; p != NoParent {
			world = s.restWorld[p].Mul4(world)
		}
		s.restWorld[i] = world
		s.invRestWorld[i] = world.Inv()
	}

	return s, nil
}

// evaluationOrder returns bone indices such that every parent precedes its children.
// Roots are visited in index order and children in index order, so the result is stable.
func evaluationOrder(bones []Bone) ([]int, error) {
	children := make([][]int, len(bones))
	var roots []int
	for i, b := range bones {
		if b.Parent == i {
			return nil, fmt.Errorf("%w: bone %d (%q) is its own parent", ErrBoneCycle, i, b.Name)
		}
		if b.Parent == NoParent {
			roots = append(roots, i)
			continue
		}
		children[b.Parent] = append(children[b.Parent], i)
	}

	order := make([]int, 0, len(bones))
	queue := roots
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		order = append(order, i)
		queue = append(queue, children[i]...)
	}

	if len(order) != len(bones) {
		visited := make([]bool, len(bones))
		for _, i := range order {
			visited[i] = true
		}
		for i, v := range visited {
			if !v {
				return nil, fmt.Errorf("%w: bone %d (%q) is unreachable from any root", ErrBoneCycle, i, bones[i].Name)
			}
		}
	}
	return order, nil
}

func (s *skeleton) Bones() []Bone {
	return s.bones
}

func (s *skeleton) Len() int {
	return len(s.bones)
}

func (s *skeleton) Order() []int {
	return s.order
}

func (s *skeleton) Parent(i int) int {
	if !s.Valid(i) {
		return NoParent
	}
	return s.bones[i].Parent
}

func (s *skeleton) RestWorld(i int) mgl32.Mat4 {
	if !s.Valid(i) {
		return mgl32.Ident4()
	}
	return s.restWorld[i]
}

func (s *skeleton) InverseRestWorld(i int) mgl32.Mat4 {
	if !s.Valid(i) {
		return mgl32.Ident4()
	}
	return s.invRestWorld[i]
}

func (s *skeleton) Index(name string) (int, bool) {
	i, ok := s.names[name]
	return i, ok
}

func (s *skeleton) Valid(i int) bool {
	return i >= 0 && i < len(s.bones)
}
