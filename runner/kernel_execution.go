package runner

import (
	"context"
	"errors"
	"fmt"

	"github.com/notargets/GroupScan/device"
	"github.com/notargets/GroupScan/runner/builder"
)

// KernelName is the entry point of every generated scan kernel
const KernelName = "groupScan"

// Describe reports the shape a launch over r runs with
func (kr *Runner) Describe(r device.NDRange) (device.GroupDescriptor, error) {
	if gs := r.GroupSize(); gs > MaxWorkGroupSize {
		return device.GroupDescriptor{}, fmt.Errorf("%w: group size %d exceeds device maximum %d",
			device.ErrLaunch, gs, MaxWorkGroupSize)
	}
	return device.GroupDescriptor{
		Range:        r,
		SubGroupSize: min(kr.dev.SubGroupSize(), r.GroupSize()),
	}, nil
}

// Submit generates, compiles and runs the scan kernel, blocking until the
// device finished
func (kr *Runner) Submit(ctx context.Context, k *device.ScanKernel) (device.GroupDescriptor, error) {
	if err := ctx.Err(); err != nil {
		return device.GroupDescriptor{}, err
	}
	in, ok := k.In.(*Memory)
	if !ok || in.mem == nil {
		return device.GroupDescriptor{}, fmt.Errorf("%w: input is not a live OCCA buffer", device.ErrLaunch)
	}
	out, ok := k.Out.(*Memory)
	if !ok || out.mem == nil {
		return device.GroupDescriptor{}, fmt.Errorf("%w: output is not a live OCCA buffer", device.ErrLaunch)
	}
	desc, err := kr.Describe(k.Range)
	if err != nil {
		return desc, err
	}
	if err = k.CheckExtent(desc); err != nil {
		return desc, err
	}

	kb := builder.NewBuilder(builder.Config{
		Variant:      k.Variant,
		Scope:        k.Scope,
		Op:           k.Op,
		In:           in.dt,
		Out:          out.dt,
		Init:         k.Init,
		Local:        k.Range.Local,
		Groups:       k.Range.GroupCounts(),
		SubGroupSize: desc.SubGroupSize,
		RangeLen:     k.RangeLen,
	})
	src, err := kb.GenerateKernel(KernelName)
	if err != nil {
		if errors.Is(err, device.ErrUnsupported) {
			return desc, err
		}
		return desc, fmt.Errorf("%w: %w", device.ErrLaunch, err)
	}
	kernel, err := kr.BuildKernel(src, KernelName)
	if err != nil {
		return desc, fmt.Errorf("%w: %w", device.ErrLaunch, err)
	}
	if err = kernel.RunWithArgs(in.mem, out.mem); err != nil {
		return desc, fmt.Errorf("%w: kernel execution failed: %w", device.ErrLaunch, err)
	}
	kr.OCCA.Finish()
	return desc, nil
}
