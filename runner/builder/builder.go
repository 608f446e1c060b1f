// Package builder generates OKL source for group scan kernels. A kernel is
// specialised at build time: element types, operator, init value and the
// launch shape are baked into the preamble as typedefs and macros, so the
// kernel itself only takes the input and output buffers.
package builder

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/notargets/GroupScan/catalog"
	"github.com/notargets/GroupScan/device"
	"github.com/notargets/GroupScan/ops"
)

// Config holds configuration for creating a Builder
type Config struct {
	Variant      ops.Variant
	Scope        ops.Scope
	Op           ops.Operator
	In, Out      catalog.DataType
	Init         *catalog.Value
	Local        []int // work-group shape
	Groups       []int // work-groups along each dimension
	SubGroupSize int
	RangeLen     int // joint variants only
}

// Builder manages code generation for one scan kernel
type Builder struct {
	Config
	Acc            catalog.DataType
	GroupSize      int
	NumSubGroups   int
	NumChunks      int
	KernelPreamble string
}

// NewBuilder creates a new Builder instance
func NewBuilder(cfg Config) *Builder {
	if len(cfg.Local) < 1 || len(cfg.Local) > 3 {
		panic(fmt.Sprintf("kernel must have 1 to 3 dimensions, got %d", len(cfg.Local)))
	}
	if len(cfg.Groups) != len(cfg.Local) {
		panic("group counts and local shape differ in dimensionality")
	}
	if cfg.SubGroupSize < 1 {
		panic("sub-group size must be positive")
	}
	if cfg.Variant.IsJoint() && cfg.RangeLen < 1 {
		panic("joint scan needs a positive range length")
	}
	kb := &Builder{Config: cfg, Acc: cfg.Out, GroupSize: 1}
	if cfg.Init != nil {
		kb.Acc = cfg.Init.Type
	}
	for _, l := range cfg.Local {
		kb.GroupSize *= l
	}
	kb.SubGroupSize = min(cfg.SubGroupSize, kb.GroupSize)
	kb.NumSubGroups = (kb.GroupSize + kb.SubGroupSize - 1) / kb.SubGroupSize
	// the shortest scope decides how many chunks a joint range needs
	shortest := kb.GroupSize
	if cfg.Scope == ops.SubGroupScope {
		shortest = kb.GroupSize - (kb.NumSubGroups-1)*kb.SubGroupSize
	}
	kb.NumChunks = (cfg.RangeLen + shortest - 1) / shortest
	return kb
}

// CType returns the OKL spelling of an element type
func CType(dt catalog.DataType) (string, error) {
	if !dt.Valid() {
		return "", fmt.Errorf("invalid data type %d", int(dt))
	}
	if dt == catalog.Float16 {
		return "", fmt.Errorf("%w: no portable OKL type for %s", device.ErrUnsupported, dt)
	}
	return catalog.Info(dt).CName, nil
}

// Literal formats v as an OKL constant expression of its own type. Floats
// are written in hexadecimal so the value survives compilation exactly.
func Literal(v catalog.Value) (string, error) {
	ctype, err := CType(v.Type)
	if err != nil {
		return "", err
	}
	var lit string
	switch {
	case v.Type.IsFloating():
		f := v.Float64()
		switch {
		case math.IsNaN(f):
			return "", fmt.Errorf("no literal for NaN")
		case math.IsInf(f, 1):
			lit = "(1.0/0.0)"
		case math.IsInf(f, -1):
			lit = "(-1.0/0.0)"
		default:
			lit = strconv.FormatFloat(f, 'x', -1, 64)
		}
	case v.Type.IsUnsigned():
		lit = strconv.FormatUint(v.Uint64(), 10) + "ULL"
	case v.Int64() == math.MinInt64:
		lit = "(-9223372036854775807LL - 1)"
	default:
		lit = strconv.FormatInt(v.Int64(), 10) + "LL"
	}
	return fmt.Sprintf("((%s)%s)", ctype, lit), nil
}

// GeneratePreamble generates the type definitions and macros the kernel body uses
func (kb *Builder) GeneratePreamble() (string, error) {
	if !ops.Legal(kb.Op, kb.Acc) {
		return "", fmt.Errorf("%w: %s over %s", ops.ErrIllegal, kb.Op, kb.Acc)
	}
	var sb strings.Builder

	types, err := kb.generateTypeDefinitions()
	if err != nil {
		return "", err
	}
	sb.WriteString(types)
	sb.WriteString(kb.generateShapeMacros())
	sb.WriteString(kb.generateScopeMacros())
	macros, err := kb.generateOperatorMacros()
	if err != nil {
		return "", err
	}
	sb.WriteString(macros)

	kb.KernelPreamble = sb.String()
	return kb.KernelPreamble, nil
}

func (kb *Builder) generateTypeDefinitions() (string, error) {
	var sb strings.Builder
	for _, td := range []struct {
		name string
		dt   catalog.DataType
	}{{"in_t", kb.In}, {"out_t", kb.Out}, {"acc_t", kb.Acc}} {
		ctype, err := CType(td.dt)
		if err != nil {
			return "", err
		}
		sb.WriteString(fmt.Sprintf("typedef %s %s;\n", ctype, td.name))
	}
	// integer arithmetic goes through the unsigned type so it wraps
	if !kb.Acc.IsFloating() {
		sb.WriteString(fmt.Sprintf("typedef %s uacc_t;\n", unsignedCType(kb.Acc)))
	}
	sb.WriteString("\n")
	return sb.String(), nil
}

func unsignedCType(dt catalog.DataType) string {
	switch dt.Size() {
	case 1:
		return "unsigned char"
	case 2:
		return "unsigned short"
	case 4:
		return "unsigned int"
	}
	return "unsigned long long"
}

func (kb *Builder) generateShapeMacros() string {
	var sb strings.Builder
	for d := range kb.Local {
		sb.WriteString(fmt.Sprintf("#define L%d %d\n", d, kb.Local[d]))
		sb.WriteString(fmt.Sprintf("#define G%d %d\n", d, kb.Groups[d]))
		sb.WriteString(fmt.Sprintf("#define GLOBAL%d %d\n", d, kb.Local[d]*kb.Groups[d]))
	}
	sb.WriteString(fmt.Sprintf("#define GROUP_SIZE %d\n", kb.GroupSize))
	sb.WriteString(fmt.Sprintf("#define SUB_GROUP_SIZE %d\n", kb.SubGroupSize))
	sb.WriteString(fmt.Sprintf("#define NUM_SUB_GROUPS %d\n", kb.NumSubGroups))
	if kb.Variant.IsJoint() {
		sb.WriteString(fmt.Sprintf("#define RANGE_LEN %d\n", kb.RangeLen))
		sb.WriteString(fmt.Sprintf("#define NUM_CHUNKS %d\n", kb.NumChunks))
	}
	sb.WriteString("\n")
	return sb.String()
}

// generateScopeMacros maps a local linear id onto the scanning scope
func (kb *Builder) generateScopeMacros() string {
	var sb strings.Builder
	if kb.Scope == ops.SubGroupScope {
		sb.WriteString("#define NUM_SCOPES NUM_SUB_GROUPS\n")
		sb.WriteString("#define SCOPE_MAX SUB_GROUP_SIZE\n")
		sb.WriteString("#define SCOPE_ID(lid) ((lid) / SUB_GROUP_SIZE)\n")
		sb.WriteString("#define SCOPE_IDX(lid) ((lid) % SUB_GROUP_SIZE)\n")
		sb.WriteString("#define SCOPE_REST(lid) (GROUP_SIZE - SCOPE_ID(lid) * SUB_GROUP_SIZE)\n")
		sb.WriteString("#define SCOPE_LEN(lid) (SCOPE_REST(lid) < SUB_GROUP_SIZE ? SCOPE_REST(lid) : SUB_GROUP_SIZE)\n")
		sb.WriteString("#define REGION(gid, lid) ((gid) * NUM_SUB_GROUPS + SCOPE_ID(lid))\n")
	} else {
		sb.WriteString("#define NUM_SCOPES 1\n")
		sb.WriteString("#define SCOPE_MAX GROUP_SIZE\n")
		sb.WriteString("#define SCOPE_ID(lid) 0\n")
		sb.WriteString("#define SCOPE_IDX(lid) (lid)\n")
		sb.WriteString("#define SCOPE_LEN(lid) GROUP_SIZE\n")
		sb.WriteString("#define REGION(gid, lid) (gid)\n")
	}
	sb.WriteString("\n")
	return sb.String()
}

func (kb *Builder) generateOperatorMacros() (string, error) {
	var sb strings.Builder
	integral := !kb.Acc.IsFloating()
	arith := func(sym string) string {
		if integral {
			return fmt.Sprintf("((acc_t)((uacc_t)(a) %s (uacc_t)(b)))", sym)
		}
		return fmt.Sprintf("((acc_t)((a) %s (b)))", sym)
	}
	var body string
	switch kb.Op {
	case ops.Plus:
		body = arith("+")
	case ops.Multiplies:
		body = arith("*")
	case ops.Minimum:
		body = "(((b) < (a)) ? (b) : (a))"
	case ops.Maximum:
		body = "(((a) < (b)) ? (b) : (a))"
	case ops.BitAnd:
		body = "((acc_t)((a) & (b)))"
	case ops.BitOr:
		body = "((acc_t)((a) | (b)))"
	case ops.BitXor:
		body = "((acc_t)((a) ^ (b)))"
	case ops.LogicalAnd:
		body = "((acc_t)(((a) != 0) && ((b) != 0)))"
	case ops.LogicalOr:
		body = "((acc_t)(((a) != 0) || ((b) != 0)))"
	default:
		return "", fmt.Errorf("%w: unknown operator %d", ops.ErrIllegal, int(kb.Op))
	}
	sb.WriteString(fmt.Sprintf("// %s\n#define OP(a, b) %s\n", kb.Op, body))

	if kb.Init != nil {
		lit, err := Literal(*kb.Init)
		if err != nil {
			return "", err
		}
		sb.WriteString(fmt.Sprintf("#define INIT %s\n", lit))
	}
	// only exclusive scans without init read the identity
	if kb.Variant.IsExclusive() && kb.Init == nil {
		e, err := ops.Identity(kb.Op, kb.Acc)
		if err != nil {
			return "", err
		}
		lit, err := Literal(e)
		if err != nil {
			return "", err
		}
		sb.WriteString(fmt.Sprintf("#define IDENTITY %s\n", lit))
	}
	sb.WriteString("\n")
	return sb.String(), nil
}
