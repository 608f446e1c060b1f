package device

import (
	"fmt"
)

// NDRange is a global range partitioned into equally shaped work-groups.
// Linear ids are row-major: the last dimension varies fastest.
type NDRange struct {
	Global []int
	Local  []int
}

// NewNDRange validates and builds a range of 1 to 3 dimensions
func NewNDRange(global, local []int) (NDRange, error) {
	if len(global) < 1 || len(global) > 3 {
		return NDRange{}, fmt.Errorf("range must have 1 to 3 dimensions, got %d", len(global))
	}
	if len(global) != len(local) {
		return NDRange{}, fmt.Errorf("global range has %d dimensions, local range %d", len(global), len(local))
	}
	for d := range global {
		if local[d] < 1 || global[d] < 1 {
			return NDRange{}, fmt.Errorf("dimension %d: ranges must be positive (global %d, local %d)", d, global[d], local[d])
		}
		if global[d]%local[d] != 0 {
			return NDRange{}, fmt.Errorf("dimension %d: global %d is not a multiple of local %d", d, global[d], local[d])
		}
	}
	return NDRange{Global: append([]int(nil), global...), Local: append([]int(nil), local...)}, nil
}

// Dims returns the dimensionality
func (r NDRange) Dims() int { return len(r.Global) }

// GroupCounts returns the number of groups along each dimension
func (r NDRange) GroupCounts() []int {
	counts := make([]int, len(r.Global))
	for d := range counts {
		counts[d] = r.Global[d] / r.Local[d]
	}
	return counts
}

// GroupSize returns work-items per group
func (r NDRange) GroupSize() int { return product(r.Local) }

// NumGroups returns the number of groups
func (r NDRange) NumGroups() int { return product(r.GroupCounts()) }

// GlobalSize returns the total number of work-items
func (r NDRange) GlobalSize() int { return product(r.Global) }

// Locate maps a global linear id to (group linear id, local linear id)
func (r NDRange) Locate(globalLinear int) (group, local int) {
	id := Delinearize(globalLinear, r.Global)
	groupID := make([]int, len(id))
	localID := make([]int, len(id))
	for d := range id {
		groupID[d] = id[d] / r.Local[d]
		localID[d] = id[d] % r.Local[d]
	}
	return Linearize(groupID, r.GroupCounts()), Linearize(localID, r.Local)
}

// GlobalLinear is the inverse of Locate
func (r NDRange) GlobalLinear(group, local int) int {
	groupID := Delinearize(group, r.GroupCounts())
	localID := Delinearize(local, r.Local)
	id := make([]int, len(groupID))
	for d := range id {
		id[d] = groupID[d]*r.Local[d] + localID[d]
	}
	return Linearize(id, r.Global)
}

// Linearize converts a multi-dimensional id to a row-major linear id
func Linearize(id, extent []int) int {
	linear := 0
	for d := range id {
		linear = linear*extent[d] + id[d]
	}
	return linear
}

// Delinearize converts a row-major linear id back to its components
func Delinearize(linear int, extent []int) []int {
	id := make([]int, len(extent))
	for d := len(extent) - 1; d >= 0; d-- {
		id[d] = linear % extent[d]
		linear /= extent[d]
	}
	return id
}

func product(xs []int) int {
	p := 1
	for _, x := range xs {
		p *= x
	}
	return p
}

// GroupDescriptor is the runtime-reported shape of a launch. Sub-groups
// partition a group's local linear ids into consecutive runs of
// SubGroupSize; the last run may be shorter.
type GroupDescriptor struct {
	Range        NDRange
	SubGroupSize int
}

// GroupSize returns work-items per group
func (g GroupDescriptor) GroupSize() int { return g.Range.GroupSize() }

// NumGroups returns the number of groups
func (g GroupDescriptor) NumGroups() int { return g.Range.NumGroups() }

// SubGroupCount returns sub-groups per group
func (g GroupDescriptor) SubGroupCount() int {
	return (g.GroupSize() + g.SubGroupSize - 1) / g.SubGroupSize
}

// SubGroupOf maps a local linear id to (sub-group id, sub-group local id)
func (g GroupDescriptor) SubGroupOf(local int) (subGroup, index int) {
	return local / g.SubGroupSize, local % g.SubGroupSize
}

// SubGroupLen returns the number of work-items in sub-group s
func (g GroupDescriptor) SubGroupLen(s int) int {
	return min(g.SubGroupSize, g.GroupSize()-s*g.SubGroupSize)
}

// Validate checks that a runtime reported a usable shape
func (g GroupDescriptor) Validate() error {
	if g.SubGroupSize < 1 {
		return fmt.Errorf("sub-group size %d must be positive", g.SubGroupSize)
	}
	if g.SubGroupSize > g.GroupSize() {
		return fmt.Errorf("sub-group size %d exceeds group size %d", g.SubGroupSize, g.GroupSize())
	}
	return nil
}

// Equal compares two descriptors
func (g GroupDescriptor) Equal(o GroupDescriptor) bool {
	if g.SubGroupSize != o.SubGroupSize || len(g.Range.Global) != len(o.Range.Global) {
		return false
	}
	for d := range g.Range.Global {
		if g.Range.Global[d] != o.Range.Global[d] || g.Range.Local[d] != o.Range.Local[d] {
			return false
		}
	}
	return true
}
