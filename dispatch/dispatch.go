// Package dispatch runs one combination tuple on a device queue: it picks
// the launch shape, seeds the input, launches the scan kernel and splits the
// observed output into the segments the oracle checks independently.
package dispatch

import (
	"context"
	"fmt"

	"github.com/notargets/GroupScan/catalog"
	"github.com/notargets/GroupScan/combos"
	"github.com/notargets/GroupScan/device"
	"github.com/notargets/GroupScan/ops"
)

// MaxLocal caps the work-group size of a launch
const MaxLocal = 64

// Groups is the number of work-groups along dimension 0
const Groups = 2

// Segment is one independently scanned sequence: a work-group or a
// sub-group. Units maps each position to the index of the output buffer
// it was read from.
type Segment struct {
	Group    int
	SubGroup int // -1 for group scope
	Input    []catalog.Value
	Observed []catalog.Value
	Units    []int
}

func (s Segment) String() string {
	if s.SubGroup < 0 {
		return fmt.Sprintf("group %d", s.Group)
	}
	return fmt.Sprintf("group %d sub-group %d", s.Group, s.SubGroup)
}

// Launch is the retrieved outcome of one tuple
type Launch struct {
	Tuple      combos.Tuple
	Descriptor device.GroupDescriptor
	Init       *catalog.Value
	Input      []catalog.Value
	Segments   []Segment
}

// LocalRange splits the largest power of two not above maxWorkGroup (and
// MaxLocal) across dims, peeling factors of two into the trailing dimensions
func LocalRange(maxWorkGroup, dims int) []int {
	l := 1
	for l*2 <= min(maxWorkGroup, MaxLocal) {
		l *= 2
	}
	local := make([]int, dims)
	for d := range local {
		local[d] = 1
	}
	for d := dims - 1; d > 0; d-- {
		if l >= 2 {
			local[d] = 2
			l /= 2
		}
	}
	local[0] = l
	return local
}

// Range returns the launch range of a tuple with dims dimensions
func Range(dev device.Device, dims int) (device.NDRange, error) {
	local := LocalRange(dev.MaxWorkGroupSize(), dims)
	global := append([]int(nil), local...)
	global[0] *= Groups
	return device.NewNDRange(global, local)
}

// Run executes t on q. Device storage is released on every return path.
func Run(ctx context.Context, q device.Queue, t combos.Tuple) (*Launch, error) {
	r, err := Range(q.Device(), t.Dims)
	if err != nil {
		return nil, fmt.Errorf("launch range: %w", err)
	}
	desc, err := q.Describe(r)
	if err != nil {
		return nil, fmt.Errorf("describe launch: %w", err)
	}
	if err = desc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", device.ErrLaunch, err)
	}

	k := &device.ScanKernel{Variant: t.Variant, Scope: t.Scope, Op: t.Op, Range: r}
	n, outLen := r.GlobalSize(), r.GlobalSize()
	if t.Variant.IsJoint() {
		k.RangeLen = desc.GroupSize()
		n, outLen = k.RangeLen, k.Regions(desc)*k.RangeLen
	}
	if t.HasInit {
		init := InitValue(t)
		k.Init = &init
	}

	input := Seed(t, n)
	in, err := q.Malloc(t.In, n)
	if err != nil {
		return nil, fmt.Errorf("allocate input: %w", err)
	}
	defer in.Free()
	out, err := q.Malloc(t.Out, outLen)
	if err != nil {
		return nil, fmt.Errorf("allocate output: %w", err)
	}
	defer out.Free()
	if err = in.Write(input); err != nil {
		return nil, fmt.Errorf("write input: %w", err)
	}
	k.In, k.Out = in, out

	ran, err := q.Submit(ctx, k)
	if err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}
	if !ran.Equal(desc) {
		return nil, fmt.Errorf("%w: launch ran with sub-group size %d, described %d",
			device.ErrLaunch, ran.SubGroupSize, desc.SubGroupSize)
	}
	observed, err := out.Read()
	if err != nil {
		return nil, fmt.Errorf("read output: %w", err)
	}

	launch := &Launch{Tuple: t, Descriptor: desc, Init: k.Init, Input: input}
	if t.Variant.IsJoint() {
		launch.Segments = jointSegments(desc, t.Scope, input, observed)
	} else {
		launch.Segments = valueSegments(desc, t.Scope, input, observed)
	}
	return launch, nil
}

// valueSegments gathers each scope's values in local linear order
func valueSegments(desc device.GroupDescriptor, scope ops.Scope, input, observed []catalog.Value) []Segment {
	var segs []Segment
	gather := func(group, sub, from, to int) {
		seg := Segment{Group: group, SubGroup: sub}
		for l := from; l < to; l++ {
			g := desc.Range.GlobalLinear(group, l)
			seg.Units = append(seg.Units, g)
			seg.Input = append(seg.Input, input[g])
			seg.Observed = append(seg.Observed, observed[g])
		}
		segs = append(segs, seg)
	}
	for group := range desc.NumGroups() {
		if scope == ops.GroupScope {
			gather(group, -1, 0, desc.GroupSize())
			continue
		}
		for s := range desc.SubGroupCount() {
			from := s * desc.SubGroupSize
			gather(group, s, from, from+desc.SubGroupLen(s))
		}
	}
	return segs
}

// jointSegments splits the output into the region written by each scope;
// every region scans the same shared input
func jointSegments(desc device.GroupDescriptor, scope ops.Scope, input, observed []catalog.Value) []Segment {
	var segs []Segment
	n := len(input)
	region := func(group, sub, reg int) {
		seg := Segment{Group: group, SubGroup: sub, Input: input, Observed: observed[reg*n : (reg+1)*n]}
		for i := range n {
			seg.Units = append(seg.Units, reg*n+i)
		}
		segs = append(segs, seg)
	}
	for group := range desc.NumGroups() {
		if scope == ops.GroupScope {
			region(group, -1, group)
			continue
		}
		for s := range desc.SubGroupCount() {
			region(group, s, group*desc.SubGroupCount()+s)
		}
	}
	return segs
}
