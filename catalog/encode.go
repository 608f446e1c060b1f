package catalog

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/x448/float16"
)

// Bytes returns the device footprint of n elements of dt
func Bytes(dt DataType, n int) int64 {
	return int64(n) * int64(dt.Size())
}

// Encode writes vs as little-endian device elements of type dt
func Encode(dt DataType, vs []Value) ([]byte, error) {
	size := dt.Size()
	buf := make([]byte, len(vs)*size)
	for i, v := range vs {
		if v.Type != dt {
			return nil, fmt.Errorf("element %d has type %s, buffer holds %s", i, v.Type, dt)
		}
		b := buf[i*size : (i+1)*size]
		switch dt {
		case Float16:
			binary.LittleEndian.PutUint16(b, toHalf(v.Float64()).Bits())
		case Float32:
			binary.LittleEndian.PutUint32(b, math.Float32bits(float32(v.Float64())))
		case Float64:
			binary.LittleEndian.PutUint64(b, math.Float64bits(v.Float64()))
		default:
			switch size {
			case 1:
				b[0] = byte(v.bits)
			case 2:
				binary.LittleEndian.PutUint16(b, uint16(v.bits))
			case 4:
				binary.LittleEndian.PutUint32(b, uint32(v.bits))
			default:
				binary.LittleEndian.PutUint64(b, v.bits)
			}
		}
	}
	return buf, nil
}

// Decode reads little-endian device elements of type dt
func Decode(dt DataType, buf []byte) ([]Value, error) {
	size := dt.Size()
	if len(buf)%size != 0 {
		return nil, fmt.Errorf("buffer of %d bytes is not a whole number of %s elements", len(buf), dt)
	}
	vs := make([]Value, len(buf)/size)
	for i := range vs {
		b := buf[i*size : (i+1)*size]
		switch dt {
		case Float16:
			vs[i] = Float(dt, float64(float16.Frombits(binary.LittleEndian.Uint16(b)).Float32()))
		case Float32:
			vs[i] = Float(dt, float64(math.Float32frombits(binary.LittleEndian.Uint32(b))))
		case Float64:
			vs[i] = Float(dt, math.Float64frombits(binary.LittleEndian.Uint64(b)))
		default:
			var raw uint64
			switch size {
			case 1:
				raw = uint64(b[0])
			case 2:
				raw = uint64(binary.LittleEndian.Uint16(b))
			case 4:
				raw = uint64(binary.LittleEndian.Uint32(b))
			default:
				raw = binary.LittleEndian.Uint64(b)
			}
			vs[i] = Uint(dt, raw)
		}
	}
	return vs, nil
}
