package sim

import (
	"fmt"
	"sync/atomic"

	"github.com/notargets/GroupScan/catalog"
	"github.com/notargets/GroupScan/device"
)

// Buffer is simulated device storage. Kernels access it through Ptr.
type Buffer struct {
	dt    catalog.DataType
	data  []catalog.Value
	q     *Queue
	freed atomic.Bool
}

func (b *Buffer) Type() catalog.DataType { return b.dt }
func (b *Buffer) Len() int               { return len(b.data) }

func (b *Buffer) Write(src []catalog.Value) error {
	if b.freed.Load() {
		return fmt.Errorf("%w: write to freed buffer", device.ErrLaunch)
	}
	if len(src) > len(b.data) {
		return fmt.Errorf("write of %d values overflows buffer of %d", len(src), len(b.data))
	}
	for i, v := range src {
		if v.Type != b.dt {
			return fmt.Errorf("value %d has type %s, buffer holds %s", i, v.Type, b.dt)
		}
	}
	copy(b.data, src)
	return nil
}

func (b *Buffer) Read() ([]catalog.Value, error) {
	if b.freed.Load() {
		return nil, fmt.Errorf("%w: read from freed buffer", device.ErrLaunch)
	}
	return append([]catalog.Value(nil), b.data...), nil
}

// Free releases the buffer; freeing twice is a no-op
func (b *Buffer) Free() {
	if b.freed.CompareAndSwap(false, true) {
		b.data = nil
		b.q.live.Add(-1)
	}
}

// Ptr addresses an element of a Buffer, in the manner of an iterator
// handed to a joint scan
type Ptr struct {
	buf   *Buffer
	off   int
	fault Fault
}

// Begin returns a pointer to the first element
func (b *Buffer) Begin() Ptr { return Ptr{buf: b} }

// Add advances the pointer by n elements
func (p Ptr) Add(n int) Ptr { return Ptr{buf: p.buf, off: p.off + n, fault: p.fault} }

// Sub returns the element distance p - q
func (p Ptr) Sub(q Ptr) int { return p.off - q.off }

// Offset returns the element index within the buffer
func (p Ptr) Offset() int { return p.off }

func (p Ptr) load(i int) catalog.Value {
	return p.buf.data[p.off+i]
}

func (p Ptr) store(i int, v catalog.Value) {
	v = catalog.Convert(v, p.buf.dt)
	if p.fault != nil {
		v = p.fault(p.off+i, v)
	}
	p.buf.data[p.off+i] = v
}
