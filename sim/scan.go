package sim

import (
	"fmt"

	"github.com/notargets/GroupScan/catalog"
	"github.com/notargets/GroupScan/ops"
)

// Group scan primitives. Each is a collective: all members of the scope
// call it with the same operator, range and init.

func InclusiveScanOverGroup(g Group, x catalog.Value, op ops.Operator) catalog.Value {
	incl, _, _ := g.scan(x, op)
	return incl
}

func InclusiveScanOverGroupInit(g Group, x, init catalog.Value, op ops.Operator) catalog.Value {
	incl, _, _ := g.scan(catalog.Convert(x, init.Type), op)
	return apply(op, init, incl)
}

func ExclusiveScanOverGroup(g Group, x catalog.Value, op ops.Operator) catalog.Value {
	_, prev, _ := g.scan(x, op)
	if prev == nil {
		return identity(op, x.Type)
	}
	return *prev
}

func ExclusiveScanOverGroupInit(g Group, x, init catalog.Value, op ops.Operator) catalog.Value {
	_, prev, _ := g.scan(catalog.Convert(x, init.Type), op)
	if prev == nil {
		return init
	}
	return apply(op, init, *prev)
}

// JointInclusiveScan scans [first, last) into result using the type of
// result as accumulator. It returns the end of the written range.
func JointInclusiveScan(g Group, first, last, result Ptr, op ops.Operator) Ptr {
	return g.joint(first, last, result, op, result.buf.dt, nil, false)
}

func JointInclusiveScanInit(g Group, first, last, result Ptr, op ops.Operator, init catalog.Value) Ptr {
	return g.joint(first, last, result, op, init.Type, &init, false)
}

func JointExclusiveScan(g Group, first, last, result Ptr, op ops.Operator) Ptr {
	return g.joint(first, last, result, op, result.buf.dt, nil, true)
}

func JointExclusiveScanInit(g Group, first, last, result Ptr, op ops.Operator, init catalog.Value) Ptr {
	return g.joint(first, last, result, op, init.Type, &init, true)
}

// scan runs a Hillis-Steele inclusive scan over the scope in local memory.
// It returns the work-item's inclusive prefix, the prefix of its
// predecessor (nil for the first member) and the scope total.
func (g Group) scan(x catalog.Value, op ops.Operator) (incl catalog.Value, prev *catalog.Value, total catalog.Value) {
	n, idx, base := g.Size(), g.Index(), g.base()
	cur, next := g.it.st.bankA, g.it.st.bankB
	cur[base+idx] = x
	g.barrier()
	for off := 1; off < n; off <<= 1 {
		v := cur[base+idx]
		if idx >= off {
			v = apply(op, cur[base+idx-off], v)
		}
		next[base+idx] = v
		g.barrier()
		cur, next = next, cur
	}
	incl, total = cur[base+idx], cur[base+n-1]
	if idx > 0 {
		p := cur[base+idx-1]
		prev = &p
	}
	// local memory is reused by the next collective
	g.barrier()
	return incl, prev, total
}

// joint processes the range in chunks of the scope size, carrying the
// running total of earlier chunks forward
func (g Group) joint(first, last, result Ptr, op ops.Operator, acc catalog.DataType,
	init *catalog.Value, exclusive bool) Ptr {
	n := last.Sub(first)
	size, idx := g.Size(), g.Index()
	carry := init
	for c := 0; c < n; c += size {
		active := c+idx < n
		// inactive members pad with a real element; trailing pads never
		// reach an active member's prefix
		x := catalog.Convert(first.load(c), acc)
		if active {
			x = catalog.Convert(first.load(c+idx), acc)
		}
		incl, prev, total := g.scan(x, op)
		if active {
			var r catalog.Value
			switch {
			case !exclusive:
				r = combine(op, carry, incl)
			case prev != nil:
				r = combine(op, carry, *prev)
			case carry != nil:
				r = *carry
			default:
				r = identity(op, acc)
			}
			result.store(c+idx, r)
		}
		t := combine(op, carry, total)
		carry = &t
	}
	return result.Add(n)
}

func combine(op ops.Operator, carry *catalog.Value, v catalog.Value) catalog.Value {
	if carry == nil {
		return v
	}
	return apply(op, *carry, v)
}

func apply(op ops.Operator, a, b catalog.Value) catalog.Value {
	r, err := ops.Apply(op, a, b)
	if err != nil {
		panic(err)
	}
	return r
}

func identity(op ops.Operator, dt catalog.DataType) catalog.Value {
	v, err := ops.Identity(op, dt)
	if err != nil {
		panic(fmt.Errorf("exclusive scan needs an identity: %w", err))
	}
	return v
}
