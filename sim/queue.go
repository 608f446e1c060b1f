package sim

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/notargets/GroupScan/catalog"
	"github.com/notargets/GroupScan/device"
	"github.com/notargets/GroupScan/ops"
	"golang.org/x/sync/errgroup"
)

// Fault rewrites a value a kernel is about to store at index of its output
// buffer. It models a defective runtime.
type Fault func(index int, v catalog.Value) catalog.Value

// Queue executes launches on a simulated device
type Queue struct {
	dev *Device
	// Fault, when set, intercepts every kernel store
	Fault Fault
	// Abort, when set, makes the selected work-items fail mid-launch
	Abort func(it *Item) bool
	live  atomic.Int64
}

// NewQueue creates a queue on dev
func NewQueue(dev *Device) *Queue {
	return &Queue{dev: dev}
}

func (q *Queue) Device() device.Device { return q.dev }

// Live returns the number of allocated buffers not yet freed
func (q *Queue) Live() int { return int(q.live.Load()) }

func (q *Queue) Malloc(dt catalog.DataType, n int) (device.Buffer, error) {
	if !dt.Valid() {
		return nil, fmt.Errorf("%w: invalid element type %d", device.ErrLaunch, dt)
	}
	if n < 1 {
		return nil, fmt.Errorf("%w: buffer length %d", device.ErrLaunch, n)
	}
	data := make([]catalog.Value, n)
	zero := catalog.Convert(catalog.Int(catalog.Int64, 0), dt)
	for i := range data {
		data[i] = zero
	}
	q.live.Add(1)
	return &Buffer{dt: dt, data: data, q: q}, nil
}

func (q *Queue) Describe(r device.NDRange) (device.GroupDescriptor, error) {
	if gs := r.GroupSize(); gs > q.dev.MaxWorkGroupSize() {
		return device.GroupDescriptor{}, fmt.Errorf("%w: group size %d exceeds device maximum %d",
			device.ErrLaunch, gs, q.dev.MaxWorkGroupSize())
	}
	return device.GroupDescriptor{
		Range:        r,
		SubGroupSize: min(q.dev.props.SubGroupSize, r.GroupSize()),
	}, nil
}

// Parallel runs fn once per work-item of r. Groups are scheduled on a
// bounded pool; within a group every work-item is its own goroutine so
// collectives can block on each other.
func (q *Queue) Parallel(ctx context.Context, r device.NDRange, fn func(it *Item)) (device.GroupDescriptor, error) {
	desc, err := q.Describe(r)
	if err != nil {
		return desc, err
	}
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for g := range r.NumGroups() {
		eg.Go(func() error {
			return q.runGroup(ctx, desc, g, fn)
		})
	}
	if err = eg.Wait(); err != nil {
		return desc, err
	}
	return desc, nil
}

func (q *Queue) runGroup(ctx context.Context, desc device.GroupDescriptor, group int, fn func(it *Item)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	st := newGroupState(desc)
	stop := context.AfterFunc(ctx, st.breakAll)
	defer stop()

	r := desc.Range
	var (
		cause error
		once  sync.Once
		wg    sync.WaitGroup
	)
	fail := func(err error) {
		once.Do(func() { cause = err })
		st.breakAll()
	}
	groupID := device.Delinearize(group, r.GroupCounts())
	for local := range desc.GroupSize() {
		global := r.GlobalLinear(group, local)
		sg, sgLocal := desc.SubGroupOf(local)
		it := &Item{
			GlobalID:      device.Delinearize(global, r.Global),
			LocalID:       device.Delinearize(local, r.Local),
			GroupID:       groupID,
			GlobalLinear:  global,
			LocalLinear:   local,
			GroupLinear:   group,
			SubGroupID:    sg,
			SubGroupLocal: sgLocal,
			st:            st,
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if p := recover(); p != nil {
					if err, ok := p.(error); ok && errors.Is(err, errBroken) {
						st.breakAll()
						return
					}
					fail(fmt.Errorf("%w: group %d work-item %d: %v", device.ErrLaunch, group, local, p))
				}
			}()
			if q.Abort != nil && q.Abort(it) {
				panic("aborted")
			}
			fn(it)
		}()
	}
	wg.Wait()
	if cause != nil {
		return cause
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}

// Submit executes a scan kernel with the primitives of this package
func (q *Queue) Submit(ctx context.Context, k *device.ScanKernel) (device.GroupDescriptor, error) {
	in, ok := k.In.(*Buffer)
	if !ok {
		return device.GroupDescriptor{}, fmt.Errorf("%w: input buffer is not a simulator buffer", device.ErrLaunch)
	}
	out, ok := k.Out.(*Buffer)
	if !ok {
		return device.GroupDescriptor{}, fmt.Errorf("%w: output buffer is not a simulator buffer", device.ErrLaunch)
	}
	if in.freed.Load() || out.freed.Load() {
		return device.GroupDescriptor{}, fmt.Errorf("%w: launch on freed buffer", device.ErrLaunch)
	}
	desc, err := q.Describe(k.Range)
	if err != nil {
		return desc, err
	}
	if err = k.CheckExtent(desc); err != nil {
		return desc, err
	}
	first := in.Begin()
	res := out.Begin()
	res.fault = q.Fault
	return q.Parallel(ctx, k.Range, func(it *Item) {
		g := it.Scope(k.Scope)
		if k.Variant.IsJoint() {
			region := it.GroupLinear
			if k.Scope == ops.SubGroupScope {
				region = it.GroupLinear*desc.SubGroupCount() + it.SubGroupID
			}
			jointKernel(g, k, first, first.Add(k.RangeLen), res.Add(region*k.RangeLen))
			return
		}
		res.store(it.GlobalLinear, valueKernel(g, k, first.load(it.GlobalLinear)))
	})
}

func valueKernel(g Group, k *device.ScanKernel, x catalog.Value) catalog.Value {
	switch {
	case k.Variant == ops.ValueInclusive && k.Init == nil:
		return InclusiveScanOverGroup(g, x, k.Op)
	case k.Variant == ops.ValueInclusive:
		return InclusiveScanOverGroupInit(g, x, *k.Init, k.Op)
	case k.Init == nil:
		return ExclusiveScanOverGroup(g, x, k.Op)
	default:
		return ExclusiveScanOverGroupInit(g, x, *k.Init, k.Op)
	}
}

func jointKernel(g Group, k *device.ScanKernel, first, last, result Ptr) {
	switch {
	case k.Variant == ops.JointInclusive && k.Init == nil:
		JointInclusiveScan(g, first, last, result, k.Op)
	case k.Variant == ops.JointInclusive:
		JointInclusiveScanInit(g, first, last, result, k.Op, *k.Init)
	case k.Init == nil:
		JointExclusiveScan(g, first, last, result, k.Op)
	default:
		JointExclusiveScanInit(g, first, last, result, k.Op, *k.Init)
	}
}
