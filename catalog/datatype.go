package catalog

import (
	"fmt"
	"math"
	"strings"
)

// DataType tags an element type of the scan catalogue
type DataType int

const (
	Int8 DataType = iota + 1
	Uint8
	Int16
	Uint16
	Int32
	Uint32
	Int64
	Uint64
	Float16
	Float32
	Float64
)

// Tolerance bounds floating point comparisons
type Tolerance struct {
	Abs float64
	Rel float64
}

// TypeInfo is the runtime behaviour of a DataType
type TypeInfo struct {
	Name     string
	CName    string // OKL/C spelling
	Size     int    // bytes
	Signed   bool
	Floating bool
	Tol      Tolerance
}

var typeTable = map[DataType]TypeInfo{
	Int8:    {Name: "int8", CName: "signed char", Size: 1, Signed: true},
	Uint8:   {Name: "uint8", CName: "unsigned char", Size: 1},
	Int16:   {Name: "int16", CName: "short", Size: 2, Signed: true},
	Uint16:  {Name: "uint16", CName: "unsigned short", Size: 2},
	Int32:   {Name: "int32", CName: "int", Size: 4, Signed: true},
	Uint32:  {Name: "uint32", CName: "unsigned int", Size: 4},
	Int64:   {Name: "int64", CName: "long long", Size: 8, Signed: true},
	Uint64:  {Name: "uint64", CName: "unsigned long long", Size: 8},
	Float16: {Name: "float16", CName: "half", Size: 2, Signed: true, Floating: true, Tol: Tolerance{Abs: 1e-2, Rel: 1e-3}},
	Float32: {Name: "float32", CName: "float", Size: 4, Signed: true, Floating: true, Tol: Tolerance{Abs: 1e-5, Rel: 1e-6}},
	Float64: {Name: "float64", CName: "double", Size: 8, Signed: true, Floating: true, Tol: Tolerance{Abs: 1e-12, Rel: 1e-13}},
}

// Base is the fixed catalogue. Float64 is gated per combination by the fp64 aspect.
var Base = []DataType{Int8, Uint8, Int16, Uint16, Int32, Uint32, Int64, Uint64, Float32, Float64}

// Info returns the TypeInfo of dt, panicking on an unknown tag
func Info(dt DataType) TypeInfo {
	info, ok := typeTable[dt]
	if !ok {
		panic(fmt.Sprintf("unknown data type %d", int(dt)))
	}
	return info
}

// Valid reports whether dt is a catalogue type
func (dt DataType) Valid() bool {
	_, ok := typeTable[dt]
	return ok
}

func (dt DataType) String() string {
	if info, ok := typeTable[dt]; ok {
		return info.Name
	}
	return fmt.Sprintf("DataType(%d)", int(dt))
}

// IsFloating reports whether dt is a floating point type
func (dt DataType) IsFloating() bool { return Info(dt).Floating }

// IsUnsigned reports whether dt is an unsigned integral type
func (dt DataType) IsUnsigned() bool { return !Info(dt).Signed }

// Size returns the element size in bytes
func (dt DataType) Size() int { return Info(dt).Size }

// Parse maps a type name ("int16", "float32", ...) back to its tag
func Parse(name string) (DataType, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for dt, info := range typeTable {
		if info.Name == name {
			return dt, nil
		}
	}
	return 0, fmt.Errorf("unknown data type %q", name)
}

// MaxValue returns the largest finite value of dt
func MaxValue(dt DataType) Value {
	info := Info(dt)
	switch {
	case dt == Float16:
		return Float(dt, 65504)
	case dt == Float32:
		return Float(dt, math.MaxFloat32)
	case dt == Float64:
		return Float(dt, math.MaxFloat64)
	case info.Signed:
		return Int(dt, int64(1)<<(8*info.Size-1)-1)
	default:
		return Uint(dt, math.MaxUint64)
	}
}

// MinValue returns the lowest finite value of dt
func MinValue(dt DataType) Value {
	info := Info(dt)
	switch {
	case info.Floating:
		return Float(dt, -MaxValue(dt).Float64())
	case info.Signed:
		return Int(dt, -(int64(1) << (8*info.Size - 1)))
	default:
		return Uint(dt, 0)
	}
}
