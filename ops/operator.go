package ops

import (
	"errors"
	"fmt"

	"github.com/notargets/GroupScan/catalog"
)

// Operator is one of the closed set of binary operators exercised by scans
type Operator int

const (
	Plus Operator = iota + 1
	Multiplies
	Minimum
	Maximum
	BitAnd
	BitOr
	BitXor
	LogicalAnd
	LogicalOr
)

// All lists every operator in enumeration order
var All = []Operator{Plus, Multiplies, Minimum, Maximum, BitAnd, BitOr, BitXor, LogicalAnd, LogicalOr}

var (
	// ErrIllegal is returned when an operator cannot be applied to a type
	ErrIllegal = errors.New("operator not legal for type")
	// ErrNoIdentity is returned when an (operator, type) pair has no identity
	ErrNoIdentity = errors.New("no identity element")
)

var operatorNames = map[Operator]string{
	Plus:       "plus",
	Multiplies: "multiplies",
	Minimum:    "minimum",
	Maximum:    "maximum",
	BitAnd:     "bit_and",
	BitOr:      "bit_or",
	BitXor:     "bit_xor",
	LogicalAnd: "logical_and",
	LogicalOr:  "logical_or",
}

func (op Operator) String() string {
	if name, ok := operatorNames[op]; ok {
		return name
	}
	return fmt.Sprintf("Operator(%d)", int(op))
}

// ParseOperator maps an operator name back to its tag
func ParseOperator(name string) (Operator, error) {
	for op, n := range operatorNames {
		if n == name {
			return op, nil
		}
	}
	return 0, fmt.Errorf("unknown operator %q", name)
}

// IsBitwise reports whether op works on the bit pattern
func (op Operator) IsBitwise() bool {
	return op == BitAnd || op == BitOr || op == BitXor
}

// IsLogical reports whether op yields a truth value
func (op Operator) IsLogical() bool {
	return op == LogicalAnd || op == LogicalOr
}

// Legal reports whether combinations may exercise op with accumulator type
// dt. Bitwise operators need an integral type; multiplies is restricted to
// unsigned and floating types because signed overflow is undefined on the
// device backends.
func Legal(op Operator, dt catalog.DataType) bool {
	info := catalog.Info(dt)
	switch {
	case op.IsBitwise():
		return !info.Floating
	case op == Multiplies:
		return info.Floating || !info.Signed
	}
	_, known := operatorNames[op]
	return known
}

// Apply computes a op b. Both operands must have the same type.
func Apply(op Operator, a, b catalog.Value) (catalog.Value, error) {
	if a.Type != b.Type {
		return catalog.Value{}, fmt.Errorf("%s: operand types differ (%s, %s)", op, a.Type, b.Type)
	}
	dt := a.Type
	info := catalog.Info(dt)
	if op.IsBitwise() && info.Floating {
		return catalog.Value{}, fmt.Errorf("%s on %s: %w", op, dt, ErrIllegal)
	}

	switch op {
	case Minimum:
		if b.Less(a) {
			return b, nil
		}
		return a, nil
	case Maximum:
		if a.Less(b) {
			return b, nil
		}
		return a, nil
	case LogicalAnd:
		return catalog.Bool(dt, !a.IsZero() && !b.IsZero()), nil
	case LogicalOr:
		return catalog.Bool(dt, !a.IsZero() || !b.IsZero()), nil
	}

	if info.Floating {
		x, y := a.Float64(), b.Float64()
		switch op {
		case Plus:
			return catalog.Float(dt, x+y), nil
		case Multiplies:
			return catalog.Float(dt, x*y), nil
		}
		return catalog.Value{}, fmt.Errorf("%s on %s: %w", op, dt, ErrIllegal)
	}

	// Two's complement makes the unsigned bit pattern arithmetic valid for
	// signed types once the result is wrapped back to the type width.
	x, y := a.Uint64(), b.Uint64()
	var r uint64
	switch op {
	case Plus:
		r = x + y
	case Multiplies:
		r = x * y
	case BitAnd:
		r = x & y
	case BitOr:
		r = x | y
	case BitXor:
		r = x ^ y
	default:
		return catalog.Value{}, fmt.Errorf("%s on %s: %w", op, dt, ErrIllegal)
	}
	return catalog.Uint(dt, r), nil
}
