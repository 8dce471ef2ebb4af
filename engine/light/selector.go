package light

import (
	"github.com/Carmen-Shannon/oxy-viewer/common"
)

// selector is the implementation of the Selector interface.
type selector struct {
	stage     []LightSet
	character LightSet
}

// Selector resolves the light set of a mesh object from its static light set index.
// The index is asset data supplied by the loader; the selector never infers it.
type Selector interface {
	// Select returns the stage light set at index, or the character light set when the index
	// is negative or out of range.
	//
	// Parameters:
	//   - index: the object's light set index
	//
	// Returns:
	//   - LightSet: the light set
	Select(index int) LightSet

	// Stage returns the stage light sets.
	Stage() []LightSet

	// Character returns the character light set.
	Character() LightSet

	// Sets returns every distinct light set, stage sets first and the character set last.
	// The index of a set in this list is its shadow map slot.
	Sets() []LightSet

	// Slot returns the shadow map slot of an object's light set index.
	Slot(index int) int
}

var _ Selector = &selector{}

// NewSelector creates a Selector with no stage lights and the default character light.
//
// Parameters:
//   - options: a variadic list of SelectorBuilderOption functions
//
// Returns:
//   - Selector: the selector
func NewSelector(options ...SelectorBuilderOption) Selector {
	s := &selector{character: DefaultCharacterLightSet()}
	for _, option := range options {
		option(s)
	}
	return s
}

func (s *selector) Select(index int) LightSet {
	return s.Sets()[s.Slot(index)]
}

func (s *selector) Slot(index int) int {
	if index < 0 || index >= len(s.stage) {
		if index >= len(s.stage) {
			common.Logger().Debug("light set index out of range, using character light", "index", index, "stage_sets", len(s.stage))
		}
		return len(s.stage)
	}
	return index
}

func (s *selector) Stage() []LightSet {
	return s.stage
}

func (s *selector) Character() LightSet {
	return s.character
}

func (s *selector) Sets() []LightSet {
	return append(append([]LightSet(nil), s.stage...), s.character)
}

// SelectorBuilderOption is a functional option for configuring a Selector via NewSelector.
type SelectorBuilderOption func(*selector)

// WithStageLightSets sets the stage light sets, indexed by the objects' light set index.
func WithStageLightSets(sets ...LightSet) SelectorBuilderOption {
	return func(s *selector) {
		s.stage = sets
	}
}

// WithCharacterLightSet replaces the character light set.
func WithCharacterLightSet(set LightSet) SelectorBuilderOption {
	return func(s *selector) {
		s.character = set
	}
}
