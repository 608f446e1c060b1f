// Package oracle is the sequential reference definition of group scans.
//
// Every expected value is produced by applying the operator strictly left
// to right, term by term, after promoting each input element to the
// accumulator type. Floating point operators are not associative, so any
// other evaluation order would disagree with a conforming device.
package oracle

import (
	"fmt"

	"github.com/notargets/GroupScan/catalog"
	"github.com/notargets/GroupScan/ops"
)

// Request describes one scanned segment
type Request struct {
	Input     []catalog.Value
	Op        ops.Operator
	Exclusive bool
	Out       catalog.DataType
	Init      *catalog.Value // nil when the overload takes no init
}

// Acc returns the accumulator type: the init type when present, else the output type
func (r Request) Acc() catalog.DataType {
	if r.Init != nil {
		return r.Init.Type
	}
	return r.Out
}

// Scan returns the expected value for every position of r.Input
func Scan(r Request) ([]catalog.Value, error) {
	acc := r.Acc()
	var running catalog.Value
	if r.Init != nil {
		running = *r.Init
	} else {
		e, err := ops.Identity(r.Op, acc)
		if err != nil {
			return nil, fmt.Errorf("oracle: %w", err)
		}
		running = e
	}

	expected := make([]catalog.Value, len(r.Input))
	for i, x := range r.Input {
		xa := catalog.Convert(x, acc)
		if r.Exclusive {
			expected[i] = catalog.Convert(running, r.Out)
		}
		if i == 0 && r.Init == nil && !r.Exclusive {
			// x0 on its own, not e op x0
			running = xa
		} else {
			next, err := ops.Apply(r.Op, running, xa)
			if err != nil {
				return nil, fmt.Errorf("oracle: position %d: %w", i, err)
			}
			running = next
		}
		if !r.Exclusive {
			expected[i] = catalog.Convert(running, r.Out)
		}
	}
	return expected, nil
}

// Inclusive is Scan without init for an inclusive scan
func Inclusive(in []catalog.Value, op ops.Operator, out catalog.DataType) ([]catalog.Value, error) {
	return Scan(Request{Input: in, Op: op, Out: out})
}

// Exclusive is Scan without init for an exclusive scan
func Exclusive(in []catalog.Value, op ops.Operator, out catalog.DataType) ([]catalog.Value, error) {
	return Scan(Request{Input: in, Op: op, Out: out, Exclusive: true})
}
