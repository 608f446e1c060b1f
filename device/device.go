// Package device is the contract between the scan verification engine and
// a compute runtime. A runtime supplies capability queries, group and
// sub-group shape reporting, device-visible storage and a launch primitive
// that executes a ScanKernel with the runtime's own group scan primitives.
package device

import (
	"context"
	"errors"
	"fmt"

	"github.com/notargets/GroupScan/catalog"
	"github.com/notargets/GroupScan/ops"
)

// Aspect names an optional device capability
type Aspect string

const (
	AspectFP16 Aspect = "fp16"
	AspectFP64 Aspect = "fp64"
)

var (
	// ErrUnsupported marks a missing optional capability
	ErrUnsupported = errors.New("unsupported by device")
	// ErrLaunch marks a runtime failure while allocating or executing
	ErrLaunch = errors.New("launch failed")
)

// RequiredAspect returns the aspect an element type depends on, if any
func RequiredAspect(dt catalog.DataType) (Aspect, bool) {
	switch dt {
	case catalog.Float16:
		return AspectFP16, true
	case catalog.Float64:
		return AspectFP64, true
	}
	return "", false
}

// Device answers read-only capability queries
type Device interface {
	Name() string
	Backend() string
	Has(aspect Aspect) bool
	MaxWorkGroupSize() int
}

// Buffer is device-visible storage of one element type
type Buffer interface {
	Type() catalog.DataType
	Len() int
	// Write copies host values to the device; values must have the buffer type
	Write(src []catalog.Value) error
	// Read copies the whole buffer back to the host
	Read() ([]catalog.Value, error)
	Free()
}

// ScanKernel is one launch of a scan primitive. Every work-item issues
// exactly one call to the primitive selected by Variant, Scope and Init.
//
// Value variants read In[global linear id] and write Out[global linear id].
// Joint variants scan In[0:RangeLen] cooperatively; group g writes
// Out[g*RangeLen:], sub-group s of group g writes
// Out[(g*SubGroupCount+s)*RangeLen:].
type ScanKernel struct {
	Variant  ops.Variant
	Scope    ops.Scope
	Op       ops.Operator
	Range    NDRange
	In       Buffer
	Out      Buffer
	Init     *catalog.Value
	RangeLen int
}

// Acc returns the accumulator type of the overload the kernel calls
func (k *ScanKernel) Acc() catalog.DataType {
	if k.Init != nil {
		return k.Init.Type
	}
	return k.Out.Type()
}

// Queue allocates storage and executes launches in submission order
type Queue interface {
	Device() Device
	Malloc(dt catalog.DataType, n int) (Buffer, error)
	// Describe reports the group shape a launch over r would use
	Describe(r NDRange) (GroupDescriptor, error)
	// Submit blocks until the kernel completed and returns the shape it ran with
	Submit(ctx context.Context, k *ScanKernel) (GroupDescriptor, error)
}

// Regions returns how many RangeLen-long output regions a joint launch writes
func (k *ScanKernel) Regions(desc GroupDescriptor) int {
	if k.Scope == ops.SubGroupScope {
		return desc.NumGroups() * desc.SubGroupCount()
	}
	return desc.NumGroups()
}

// CheckExtent verifies the kernel's buffers cover every access of a launch
// with shape desc
func (k *ScanKernel) CheckExtent(desc GroupDescriptor) error {
	in, out := k.In.Len(), k.Out.Len()
	if !k.Variant.IsJoint() {
		if n := k.Range.GlobalSize(); in < n || out < n {
			return fmt.Errorf("%w: value scan over %d work-items needs buffers of that length (in %d, out %d)",
				ErrLaunch, n, in, out)
		}
		return nil
	}
	regions := k.Regions(desc)
	if k.RangeLen < 1 || in < k.RangeLen || out < regions*k.RangeLen {
		return fmt.Errorf("%w: joint scan of %d elements over %d regions does not fit buffers (in %d, out %d)",
			ErrLaunch, k.RangeLen, regions, in, out)
	}
	return nil
}
