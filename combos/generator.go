// Package combos enumerates the combinations exercised by the scan suites.
//
// Enumeration is two level. Product walks dimensionalities and one or more
// type catalogues; a Family then expands every type point into tuples over
// operators, variants and scopes. The order is fixed so a tuple index
// identifies a failing combination across runs.
package combos

import (
	"fmt"
	"slices"

	"github.com/notargets/GroupScan/catalog"
	"github.com/notargets/GroupScan/ops"
	"github.com/samber/lo"
)

// Dims are the supported group dimensionalities
var Dims = []int{1, 2, 3}

// Point is one element of dims x catalogue[0] x catalogue[1] x ...
type Point struct {
	Dims  int
	Types []catalog.DataType
}

// Contains reports whether dt occupies any type position of p
func (p Point) Contains(dt catalog.DataType) bool {
	return slices.Contains(p.Types, dt)
}

// Extend appends extra to a catalogue without duplicating entries
func Extend(catalogue []catalog.DataType, extra ...catalog.DataType) []catalog.DataType {
	return lo.Uniq(append(slices.Clone(catalogue), extra...))
}

// Product returns the Cartesian product in row-major order: dims outermost,
// the last catalogue innermost
func Product(dims []int, catalogues ...[]catalog.DataType) []Point {
	var points []Point
	ForAll(dims, func(p Point) { points = append(points, p) }, catalogues...)
	return points
}

// ForAll invokes fn once per element of the product
func ForAll(dims []int, fn func(Point), catalogues ...[]catalog.DataType) {
	types := make([]catalog.DataType, len(catalogues))
	var walk func(level int, d int)
	walk = func(level int, d int) {
		if level == len(catalogues) {
			fn(Point{Dims: d, Types: slices.Clone(types)})
			return
		}
		for _, dt := range catalogues[level] {
			types[level] = dt
			walk(level+1, d)
		}
	}
	for _, d := range dims {
		walk(0, d)
	}
}

// ForAllWith extends every catalogue with extra and invokes fn only for
// points that use extra somewhere, so points already covered by the
// unextended catalogues are not repeated
func ForAllWith(extra catalog.DataType, dims []int, fn func(Point), catalogues ...[]catalog.DataType) {
	extended := lo.Map(catalogues, func(c []catalog.DataType, _ int) []catalog.DataType {
		return Extend(c, extra)
	})
	ForAll(dims, func(p Point) {
		if p.Contains(extra) {
			fn(p)
		}
	}, extended...)
}

// Tuple is one immutable combination
type Tuple struct {
	Index   int
	Dims    int
	In      catalog.DataType
	Out     catalog.DataType
	Init    catalog.DataType // accumulator type of the with-init overloads
	Op      ops.Operator
	Variant ops.Variant
	HasInit bool
	Scope   ops.Scope
}

// Acc returns the type every element is promoted to before the operator applies
func (t Tuple) Acc() catalog.DataType {
	if t.HasInit {
		return t.Init
	}
	return t.Out
}

// Types lists the distinct element types the tuple touches
func (t Tuple) Types() []catalog.DataType {
	types := []catalog.DataType{t.In, t.Out}
	if t.HasInit {
		types = append(types, t.Init)
	}
	return lo.Uniq(types)
}

func (t Tuple) String() string {
	init := "none"
	if t.HasInit {
		init = t.Init.String()
	}
	return fmt.Sprintf("#%d %dD %s<%s> in=%s out=%s init=%s scope=%s",
		t.Index, t.Dims, t.Variant, t.Op, t.In, t.Out, init, t.Scope)
}
