// Package runner executes group scan kernels on an OCCA device. It is the
// hardware-backed implementation of device.Queue: kernels are generated by
// runner/builder, compiled once per distinct source and launched with one
// OCCA work-group per scan group.
package runner

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/notargets/GroupScan/device"
	"github.com/notargets/gocca"
)

// Backend is the backend name reported by OCCA devices
const Backend = "occa"

// MaxWorkGroupSize bounds the @inner extent of a kernel
const MaxWorkGroupSize = 1024

// Device reports the capabilities of an OCCA device
type Device struct {
	occa *gocca.OCCADevice
}

func (d *Device) Name() string          { return "OCCA " + d.occa.Mode() }
func (d *Device) Backend() string       { return Backend }
func (d *Device) MaxWorkGroupSize() int { return MaxWorkGroupSize }

// Has reports double precision on every mode. Half precision has no
// portable OKL type, so it is never reported.
func (d *Device) Has(a device.Aspect) bool {
	return a == device.AspectFP64
}

// SubGroupSize is the width collectives are emulated at: a warp on CUDA,
// a vector lane group elsewhere
func (d *Device) SubGroupSize() int {
	if d.occa.Mode() == "CUDA" {
		return 32
	}
	return 8
}

// Runner orchestrates kernel compilation and execution
type Runner struct {
	OCCA    *gocca.OCCADevice
	Kernels map[string]*gocca.OCCAKernel
	dev     *Device
	mu      sync.Mutex
	live    int
}

// NewRunner creates a new Runner instance
func NewRunner(occa *gocca.OCCADevice) *Runner {
	if occa == nil {
		panic("device cannot be nil")
	}
	return &Runner{
		OCCA:    occa,
		Kernels: make(map[string]*gocca.OCCAKernel),
		dev:     &Device{occa: occa},
	}
}

func (kr *Runner) Device() device.Device { return kr.dev }

// BuildKernel compiles source, reusing an earlier build of identical source
func (kr *Runner) BuildKernel(kernelSource, kernelName string) (*gocca.OCCAKernel, error) {
	sum := sha256.Sum256([]byte(kernelSource))
	key := kernelName + "-" + hex.EncodeToString(sum[:8])

	kr.mu.Lock()
	defer kr.mu.Unlock()
	if kernel, ok := kr.Kernels[key]; ok {
		return kernel, nil
	}

	var kernel *gocca.OCCAKernel
	var err error
	if kr.OCCA.Mode() == "OpenMP" {
		// OpenMP does not get -O3 by default
		props := gocca.JsonParse(`{"compiler_flags": "-O3"}`)
		defer props.Free()
		kernel, err = kr.OCCA.BuildKernelFromString(kernelSource, kernelName, props)
	} else {
		kernel, err = kr.OCCA.BuildKernelFromString(kernelSource, kernelName, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build kernel %s: %w", kernelName, err)
	}
	if kernel == nil {
		return nil, fmt.Errorf("kernel build returned nil for %s", kernelName)
	}
	kr.Kernels[key] = kernel
	return kernel, nil
}

// Live returns the number of allocated buffers not yet freed
func (kr *Runner) Live() int {
	kr.mu.Lock()
	defer kr.mu.Unlock()
	return kr.live
}

// Free releases compiled kernels. Buffers are owned by their callers.
func (kr *Runner) Free() {
	kr.mu.Lock()
	defer kr.mu.Unlock()
	for key, kernel := range kr.Kernels {
		kernel.Free()
		delete(kr.Kernels, key)
	}
}
