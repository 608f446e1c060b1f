package combos

import (
	"github.com/notargets/GroupScan/catalog"
	"github.com/notargets/GroupScan/ops"
)

// Family is the set of overloads one suite entry point exercises. The
// number of catalogues it consumes depends on the overload shape:
//
//	joint, no init:   (In, Out)
//	joint, init:      (Init, In, Out)
//	value, no init:   (In)            Out = In
//	value, init:      (Init, In)      Out = Init
type Family struct {
	Name     string
	Variants []ops.Variant
	HasInit  bool
}

var (
	JointScan         = Family{Name: "joint scan", Variants: []ops.Variant{ops.JointInclusive, ops.JointExclusive}}
	JointScanInit     = Family{Name: "joint scan with init", Variants: []ops.Variant{ops.JointInclusive, ops.JointExclusive}, HasInit: true}
	ScanOverGroup     = Family{Name: "scan over group", Variants: []ops.Variant{ops.ValueInclusive, ops.ValueExclusive}}
	ScanOverGroupInit = Family{Name: "scan over group with init", Variants: []ops.Variant{ops.ValueInclusive, ops.ValueExclusive}, HasInit: true}
)

// Families lists the four entry point families
var Families = []Family{JointScan, JointScanInit, ScanOverGroup, ScanOverGroupInit}

func (f Family) joint() bool { return len(f.Variants) > 0 && f.Variants[0].IsJoint() }

// Arity is the number of type catalogues the family consumes
func (f Family) Arity() int {
	n := 1
	if f.joint() {
		n++
	}
	if f.HasInit {
		n++
	}
	return n
}

// Axes are the non-type axes of the expansion
type Axes struct {
	Operators []ops.Operator
	Scopes    []ops.Scope
}

// DefaultAxes exercises every operator over both scopes
func DefaultAxes() Axes {
	return Axes{Operators: ops.All, Scopes: ops.Scopes}
}

// Expand turns one type point into tuples, ordered operator, variant, scope.
// Operators that are not legal for the accumulator type are left out.
// Index is left zero; Generate numbers the tuples.
func (f Family) Expand(p Point, axes Axes) []Tuple {
	if len(p.Types) != f.Arity() {
		panic("type point does not match family arity")
	}
	base := Tuple{Dims: p.Dims, HasInit: f.HasInit}
	types := p.Types
	if f.HasInit {
		base.Init, types = types[0], types[1:]
	}
	base.In = types[0]
	switch {
	case f.joint():
		base.Out = types[1]
	case f.HasInit:
		base.Out = base.Init
	default:
		base.Out = base.In
	}

	var tuples []Tuple
	for _, op := range axes.Operators {
		if !ops.Legal(op, base.Acc()) {
			continue
		}
		for _, v := range f.Variants {
			for _, s := range axes.Scopes {
				t := base
				t.Op, t.Variant, t.Scope = op, v, s
				tuples = append(tuples, t)
			}
		}
	}
	return tuples
}

// Generate enumerates the family over dims and the given catalogues, one
// catalogue per type position
func (f Family) Generate(dims []int, axes Axes, catalogues ...[]catalog.DataType) []Tuple {
	var tuples []Tuple
	ForAll(dims, func(p Point) {
		tuples = append(tuples, f.Expand(p, axes)...)
	}, catalogues...)
	return number(tuples)
}

// GenerateWith is Generate over catalogues extended with extra, keeping
// only tuples that use extra
func (f Family) GenerateWith(extra catalog.DataType, dims []int, axes Axes, catalogues ...[]catalog.DataType) []Tuple {
	var tuples []Tuple
	ForAllWith(extra, dims, func(p Point) {
		tuples = append(tuples, f.Expand(p, axes)...)
	}, catalogues...)
	return number(tuples)
}

// Repeat returns catalogue n times, one per type position
func Repeat(catalogue []catalog.DataType, n int) [][]catalog.DataType {
	out := make([][]catalog.DataType, n)
	for i := range out {
		out[i] = catalogue
	}
	return out
}

func number(tuples []Tuple) []Tuple {
	for i := range tuples {
		tuples[i].Index = i
	}
	return tuples
}
