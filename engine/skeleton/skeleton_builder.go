package skeleton

// SkeletonBuilderOption is a functional option for configuring a Skeleton via NewSkeleton.
type SkeletonBuilderOption func(*skeleton)

// WithMaxBones overrides the bone cap. Values outside (0, MaxBoneCount] keep the default,
// since frame state buffers never hold more than MaxBoneCount bones.
//
// Parameters:
//   - n: the maximum number of bones to keep
//
// Returns:
//   - SkeletonBuilderOption: a function that applies the cap to a skeleton
func WithMaxBones(n int) SkeletonBuilderOption {
	return func(s *skeleton) {
		if n > 0 && n <= MaxBoneCount {
			s.maxBones = n
		}
	}
}
