package ops

import (
	"fmt"
	"math"

	"github.com/notargets/GroupScan/catalog"
)

// Identity returns the element e with e op x == x op e == x for every x of
// type dt. Logical operators are neutral over truth values {0, 1}.
func Identity(op Operator, dt catalog.DataType) (catalog.Value, error) {
	if !dt.Valid() {
		return catalog.Value{}, fmt.Errorf("%s on %s: %w", op, dt, ErrNoIdentity)
	}
	info := catalog.Info(dt)
	switch op {
	case Plus, BitOr, BitXor, LogicalOr:
		if info.Floating && op.IsBitwise() {
			break
		}
		return catalog.Int(dt, 0), nil
	case Multiplies, LogicalAnd:
		return catalog.Int(dt, 1), nil
	case BitAnd:
		if info.Floating {
			break
		}
		return catalog.Int(dt, -1), nil
	case Minimum:
		if info.Floating {
			return catalog.Float(dt, math.Inf(1)), nil
		}
		return catalog.MaxValue(dt), nil
	case Maximum:
		if info.Floating {
			return catalog.Float(dt, math.Inf(-1)), nil
		}
		return catalog.MinValue(dt), nil
	}
	return catalog.Value{}, fmt.Errorf("%s on %s: %w", op, dt, ErrNoIdentity)
}
