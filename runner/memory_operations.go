package runner

import (
	"fmt"
	"unsafe"

	"github.com/notargets/GroupScan/catalog"
	"github.com/notargets/GroupScan/device"
	"github.com/notargets/gocca"
)

// Memory is an OCCA allocation holding n elements of one type. Values
// cross the host boundary in the little-endian layout of catalog.Encode.
type Memory struct {
	dt  catalog.DataType
	n   int
	mem *gocca.OCCAMemory
	kr  *Runner
}

// Malloc allocates zeroed device memory
func (kr *Runner) Malloc(dt catalog.DataType, n int) (device.Buffer, error) {
	if !dt.Valid() {
		return nil, fmt.Errorf("%w: invalid element type %d", device.ErrLaunch, dt)
	}
	if n < 1 {
		return nil, fmt.Errorf("%w: buffer length %d", device.ErrLaunch, n)
	}
	zeros := make([]byte, catalog.Bytes(dt, n))
	mem := kr.OCCA.Malloc(int64(len(zeros)), unsafe.Pointer(&zeros[0]), nil)
	if mem == nil {
		return nil, fmt.Errorf("%w: allocation of %d bytes failed", device.ErrLaunch, len(zeros))
	}
	kr.mu.Lock()
	kr.live++
	kr.mu.Unlock()
	return &Memory{dt: dt, n: n, mem: mem, kr: kr}, nil
}

func (m *Memory) Type() catalog.DataType { return m.dt }
func (m *Memory) Len() int               { return m.n }

func (m *Memory) Write(src []catalog.Value) error {
	if m.mem == nil {
		return fmt.Errorf("%w: write to freed buffer", device.ErrLaunch)
	}
	if len(src) > m.n {
		return fmt.Errorf("write of %d values overflows buffer of %d", len(src), m.n)
	}
	if len(src) == 0 {
		return nil
	}
	buf, err := catalog.Encode(m.dt, src)
	if err != nil {
		return err
	}
	m.mem.CopyFrom(unsafe.Pointer(&buf[0]), int64(len(buf)))
	return nil
}

func (m *Memory) Read() ([]catalog.Value, error) {
	if m.mem == nil {
		return nil, fmt.Errorf("%w: read from freed buffer", device.ErrLaunch)
	}
	buf := make([]byte, catalog.Bytes(m.dt, m.n))
	m.mem.CopyTo(unsafe.Pointer(&buf[0]), int64(len(buf)))
	return catalog.Decode(m.dt, buf)
}

// Free releases the allocation; freeing twice is a no-op
func (m *Memory) Free() {
	if m.mem == nil {
		return
	}
	m.mem.Free()
	m.mem = nil
	m.kr.mu.Lock()
	m.kr.live--
	m.kr.mu.Unlock()
}
