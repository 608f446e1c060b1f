package builder

import (
	"fmt"

	"github.com/notargets/GroupScan/catalog"
)

// Direction indicates parameter data flow
type Direction int

const (
	DirectionInput Direction = iota
	DirectionOutput
)

// ParamSpec describes one kernel buffer parameter
type ParamSpec struct {
	Name      string
	Direction Direction
	DataType  catalog.DataType
	TypeName  string // typedef used in the kernel
}

// Input creates a parameter specification for a const input
func Input(name string, dt catalog.DataType) ParamSpec {
	return ParamSpec{Name: name, Direction: DirectionInput, DataType: dt, TypeName: "in_t"}
}

// Output creates a parameter specification for the result buffer
func Output(name string, dt catalog.DataType) ParamSpec {
	return ParamSpec{Name: name, Direction: DirectionOutput, DataType: dt, TypeName: "out_t"}
}

// IsConst reports whether the kernel only reads the parameter
func (p ParamSpec) IsConst() bool { return p.Direction == DirectionInput }

// Declaration returns the parameter as it appears in the kernel signature
func (p ParamSpec) Declaration() string {
	if p.IsConst() {
		return fmt.Sprintf("const %s *%s", p.TypeName, p.Name)
	}
	return fmt.Sprintf("%s *%s", p.TypeName, p.Name)
}

// Params lists the kernel parameters in argument order
func (kb *Builder) Params() []ParamSpec {
	return []ParamSpec{Input("in", kb.In), Output("out", kb.Out)}
}
