package builder

import (
	"errors"
	"strings"
	"testing"

	"github.com/notargets/GroupScan/catalog"
	"github.com/notargets/GroupScan/device"
	"github.com/notargets/GroupScan/ops"
)

func TestLiteral(t *testing.T) {
	testCases := []struct {
		v        catalog.Value
		expected string
	}{
		{catalog.Int(catalog.Int8, -5), "((signed char)-5LL)"},
		{catalog.Uint(catalog.Uint32, 4294967295), "((unsigned int)4294967295ULL)"},
		{catalog.MinValue(catalog.Int64), "((long long)(-9223372036854775807LL - 1))"},
		{catalog.Float(catalog.Float32, 1.5), "((float)0x1.8p+00)"},
		{catalog.Float(catalog.Float64, -0.25), "((double)-0x1p-02)"},
	}
	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			lit, err := Literal(tc.v)
			if err != nil {
				t.Fatalf("Literal(%s): %v", tc.v, err)
			}
			if lit != tc.expected {
				t.Errorf("Expected %s, got %s", tc.expected, lit)
			}
		})
	}

	inf, err := ops.Identity(ops.Minimum, catalog.Float32)
	if err != nil {
		t.Fatal(err)
	}
	if lit, _ := Literal(inf); lit != "((float)(1.0/0.0))" {
		t.Errorf("Unexpected infinity literal %s", lit)
	}

	if _, err := Literal(catalog.Float(catalog.Float16, 1)); !errors.Is(err, device.ErrUnsupported) {
		t.Errorf("Expected half precision to be unsupported, got %v", err)
	}
}

func TestNewBuilderShape(t *testing.T) {
	kb := NewBuilder(Config{
		Variant: ops.JointInclusive, Scope: ops.SubGroupScope, Op: ops.Plus,
		In: catalog.Int16, Out: catalog.Int32,
		Local: []int{4, 3}, Groups: []int{2, 1}, SubGroupSize: 5, RangeLen: 20,
	})
	if kb.GroupSize != 12 {
		t.Errorf("Expected GroupSize=12, got %d", kb.GroupSize)
	}
	if kb.NumSubGroups != 3 {
		t.Errorf("Expected NumSubGroups=3, got %d", kb.NumSubGroups)
	}
	// the last sub-group has 2 members, so 20 elements take 10 chunks
	if kb.NumChunks != 10 {
		t.Errorf("Expected NumChunks=10, got %d", kb.NumChunks)
	}
	if kb.Acc != catalog.Int32 {
		t.Errorf("Expected accumulator int32, got %s", kb.Acc)
	}

	init := catalog.Int(catalog.Int64, 3)
	kb = NewBuilder(Config{
		Variant: ops.ValueExclusive, Scope: ops.GroupScope, Op: ops.Plus,
		In: catalog.Int16, Out: catalog.Int64, Init: &init,
		Local: []int{2}, Groups: []int{1}, SubGroupSize: 32,
	})
	if kb.Acc != catalog.Int64 || kb.SubGroupSize != 2 {
		t.Errorf("Unexpected accumulator %s or sub-group size %d", kb.Acc, kb.SubGroupSize)
	}
}

func TestNewBuilderMisuse(t *testing.T) {
	testCases := []struct {
		name string
		cfg  Config
	}{
		{"no dims", Config{SubGroupSize: 1}},
		{"dims mismatch", Config{Local: []int{4}, Groups: []int{1, 1}, SubGroupSize: 1}},
		{"no sub-group", Config{Local: []int{4}, Groups: []int{1}}},
		{"joint without range", Config{Variant: ops.JointExclusive, Local: []int{4}, Groups: []int{1}, SubGroupSize: 1}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			defer func() {
				if r := recover(); r == nil {
					t.Error("Expected panic")
				}
			}()
			NewBuilder(tc.cfg)
		})
	}
}

func TestGeneratePreamble(t *testing.T) {
	kb := NewBuilder(Config{
		Variant: ops.JointExclusive, Scope: ops.GroupScope, Op: ops.Multiplies,
		In: catalog.Uint8, Out: catalog.Uint16,
		Local: []int{8}, Groups: []int{2}, SubGroupSize: 8, RangeLen: 10,
	})
	preamble, err := kb.GeneratePreamble()
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"typedef unsigned char in_t;",
		"typedef unsigned short out_t;",
		"typedef unsigned short acc_t;",
		"typedef unsigned short uacc_t;",
		"#define GROUP_SIZE 8",
		"#define RANGE_LEN 10",
		"#define NUM_CHUNKS 2",
		"#define OP(a, b) ((acc_t)((uacc_t)(a) * (uacc_t)(b)))",
		"#define IDENTITY ((unsigned short)1ULL)",
		"#define SCOPE_ID(lid) 0",
	} {
		if !strings.Contains(preamble, want) {
			t.Errorf("Preamble missing %q:\n%s", want, preamble)
		}
	}
	if strings.Contains(preamble, "#define INIT") {
		t.Error("Preamble defines INIT without an init value")
	}
}

func TestGeneratePreambleErrors(t *testing.T) {
	base := Config{Variant: ops.ValueInclusive, Local: []int{4}, Groups: []int{1}, SubGroupSize: 4}

	cfg := base
	cfg.Op, cfg.In, cfg.Out = ops.BitAnd, catalog.Float32, catalog.Float32
	if _, err := NewBuilder(cfg).GeneratePreamble(); !errors.Is(err, ops.ErrIllegal) {
		t.Errorf("Expected ErrIllegal for bit_and over float, got %v", err)
	}

	cfg = base
	cfg.Op, cfg.In, cfg.Out = ops.Plus, catalog.Float16, catalog.Float16
	if _, err := NewBuilder(cfg).GeneratePreamble(); !errors.Is(err, device.ErrUnsupported) {
		t.Errorf("Expected ErrUnsupported for half, got %v", err)
	}
}

func TestGenerateKernel(t *testing.T) {
	init := catalog.Float(catalog.Float64, 2)
	kb := NewBuilder(Config{
		Variant: ops.ValueInclusive, Scope: ops.SubGroupScope, Op: ops.Plus,
		In: catalog.Float32, Out: catalog.Float64, Init: &init,
		Local: []int{2, 2, 4}, Groups: []int{2, 1, 1}, SubGroupSize: 8,
	})
	src, err := kb.GenerateKernel("groupScan")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"@kernel void groupScan(\n\tconst in_t *in,\n\tout_t *out\n)",
		"for (int g2 = 0; g2 < G2; ++g2; @outer)",
		"for (int l2 = 0; l2 < L2; ++l2; @inner)",
		"const int lid = ((l0) * L1 + l1) * L2 + l2;",
		"@shared acc_t bankA[GROUP_SIZE];",
		"if (SCOPE_IDX(lid) >= off) v = OP(bankA[lid - off], v);",
		"r = OP(INIT, bankA[lid]);",
		"#define INIT ((double)0x1p+01)",
		"#define SCOPE_IDX(lid) ((lid) % SUB_GROUP_SIZE)",
	} {
		if !strings.Contains(src, want) {
			t.Errorf("Kernel missing %q:\n%s", want, src)
		}
	}
	if strings.Count(src, "{") != strings.Count(src, "}") {
		t.Error("Unbalanced braces in generated kernel")
	}
}

func TestGenerateJointKernel(t *testing.T) {
	kb := NewBuilder(Config{
		Variant: ops.JointExclusive, Scope: ops.SubGroupScope, Op: ops.Maximum,
		In: catalog.Int32, Out: catalog.Int32,
		Local: []int{16}, Groups: []int{2}, SubGroupSize: 8, RangeLen: 33,
	})
	src, err := kb.GenerateKernel("groupScan")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"@shared acc_t carry[NUM_SCOPES];",
		"for (int chunk = 0; chunk < NUM_CHUNKS; ++chunk)",
		"bankA[lid] = (acc_t)(in[k < RANGE_LEN ? k : 0]);",
		"if (SCOPE_IDX(lid) == 0) r = ((chunk > 0) ? carry[SCOPE_ID(lid)] : IDENTITY);",
		"out[REGION(g0, lid) * RANGE_LEN + k] = (out_t)r;",
		"#define IDENTITY ((int)-2147483648LL)",
		"#define NUM_CHUNKS 5",
	} {
		if !strings.Contains(src, want) {
			t.Errorf("Kernel missing %q:\n%s", want, src)
		}
	}
	if strings.Count(src, "{") != strings.Count(src, "}") {
		t.Error("Unbalanced braces in generated kernel")
	}
}
