package facet

import "math"

const (
	// DefaultLevelGroupSize is the default number of lower groups per group.
	DefaultLevelGroupSize = 4
	// DefaultMinLevelSize is the default smallest worthwhile level size.
	DefaultMinLevelSize = 5

	minLevelGroupSize = 2
)

// ClampLevelGroupSize raises group sizes below 2 to 2. A group size of 1
// would never shrink a level.
func ClampLevelGroupSize(n int) int {
	return max(n, minLevelGroupSize)
}

// TopLevel returns the highest level worth building: the largest L with
// level0Size / groupSize^L >= minLevelSize. Zero means no level qualifies.
// minLevelSize must be positive, as Config.Validate enforces.
func TopLevel(level0Size, groupSize, minLevelSize int) uint8 {
	groupSize = ClampLevelGroupSize(groupSize)

	var top uint8
	size := 1
	for top < math.MaxUint8 {
		if size > level0Size/groupSize {
			break
		}
		size *= groupSize
		if level0Size/size < minLevelSize {
			break
		}
		top++
	}
	return top
}
