package ops

import "fmt"

// Variant selects the scan primitive under test
type Variant int

const (
	JointInclusive Variant = iota + 1
	JointExclusive
	ValueInclusive
	ValueExclusive
)

var variantNames = map[Variant]string{
	JointInclusive: "joint_inclusive_scan",
	JointExclusive: "joint_exclusive_scan",
	ValueInclusive: "inclusive_scan_over_group",
	ValueExclusive: "exclusive_scan_over_group",
}

func (v Variant) String() string {
	if name, ok := variantNames[v]; ok {
		return name
	}
	return fmt.Sprintf("Variant(%d)", int(v))
}

// IsJoint reports whether the variant addresses a pointer range
func (v Variant) IsJoint() bool { return v == JointInclusive || v == JointExclusive }

// IsExclusive reports whether position i excludes x[i]
func (v Variant) IsExclusive() bool { return v == JointExclusive || v == ValueExclusive }

// Scope is the cooperating unit performing the scan
type Scope int

const (
	GroupScope Scope = iota + 1
	SubGroupScope
)

// Scopes lists both scopes in enumeration order
var Scopes = []Scope{GroupScope, SubGroupScope}

func (s Scope) String() string {
	switch s {
	case GroupScope:
		return "group"
	case SubGroupScope:
		return "sub_group"
	}
	return fmt.Sprintf("Scope(%d)", int(s))
}
