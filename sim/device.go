// Package sim is an in-process compute runtime. Work-groups run
// concurrently, every work-item is a goroutine, and group and sub-group
// collectives synchronise through barriers, so the scan primitives it
// provides behave like those of a data-parallel device.
package sim

import (
	"slices"

	"github.com/notargets/GroupScan/device"
	"golang.org/x/sys/cpu"
)

// Backend is the backend name reported by simulated devices
const Backend = "sim"

// Properties configure a simulated device
type Properties struct {
	Name             string
	MaxWorkGroupSize int
	SubGroupSize     int
	Aspects          []device.Aspect
}

// HostAspects derives optional aspects from the host CPU. Half precision is
// reported on hosts with native half arithmetic (ARMv8.2 FP16) or AVX-512.
func HostAspects() []device.Aspect {
	aspects := []device.Aspect{device.AspectFP64}
	if (cpu.ARM64.HasFPHP && cpu.ARM64.HasASIMDHP) || cpu.X86.HasAVX512F {
		aspects = append(aspects, device.AspectFP16)
	}
	return aspects
}

// DefaultProperties describe a host-backed device
func DefaultProperties() Properties {
	return Properties{
		Name:             "host simulator",
		MaxWorkGroupSize: 256,
		SubGroupSize:     8,
		Aspects:          HostAspects(),
	}
}

// Device is a simulated device
type Device struct {
	props Properties
}

// NewDevice fills unset properties from DefaultProperties
func NewDevice(props Properties) *Device {
	def := DefaultProperties()
	if props.Name == "" {
		props.Name = def.Name
	}
	if props.MaxWorkGroupSize <= 0 {
		props.MaxWorkGroupSize = def.MaxWorkGroupSize
	}
	if props.SubGroupSize <= 0 {
		props.SubGroupSize = def.SubGroupSize
	}
	if props.Aspects == nil {
		props.Aspects = def.Aspects
	}
	return &Device{props: props}
}

func (d *Device) Name() string             { return d.props.Name }
func (d *Device) Backend() string          { return Backend }
func (d *Device) MaxWorkGroupSize() int    { return d.props.MaxWorkGroupSize }
func (d *Device) Has(a device.Aspect) bool { return slices.Contains(d.props.Aspects, a) }
