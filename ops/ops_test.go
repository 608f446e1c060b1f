package ops

import (
	"errors"
	"math"
	"testing"

	"github.com/notargets/GroupScan/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allTypes = append(append([]catalog.DataType{}, catalog.Base...), catalog.Float16)

// truthSample returns operands for op: logical operators are only neutral over {0, 1}
func truthSample(op Operator, dt catalog.DataType) []catalog.Value {
	if op.IsLogical() {
		return []catalog.Value{catalog.Int(dt, 0), catalog.Int(dt, 1)}
	}
	return []catalog.Value{
		catalog.Int(dt, 0), catalog.Int(dt, 1), catalog.Int(dt, -7), catalog.Int(dt, 42),
		catalog.MinValue(dt), catalog.MaxValue(dt),
	}
}

func TestIdentityNeutrality(t *testing.T) {
	for _, op := range All {
		for _, dt := range allTypes {
			e, err := Identity(op, dt)
			if op.IsBitwise() && dt.IsFloating() {
				assert.ErrorIs(t, err, ErrNoIdentity, "%s/%s", op, dt)
				continue
			}
			require.NoError(t, err, "%s/%s", op, dt)
			assert.Equal(t, dt, e.Type)

			for _, x := range truthSample(op, dt) {
				left, err := Apply(op, e, x)
				require.NoError(t, err)
				right, err := Apply(op, x, e)
				require.NoError(t, err)
				assert.True(t, left.Identical(x), "%s/%s: e op %v = %v", op, dt, x, left)
				assert.True(t, right.Identical(x), "%s/%s: %v op e = %v", op, dt, x, right)
			}
		}
	}
}

func TestIdentityValues(t *testing.T) {
	e, _ := Identity(BitAnd, catalog.Uint16)
	assert.Equal(t, uint64(0xFFFF), e.Uint64())
	e, _ = Identity(BitAnd, catalog.Int8)
	assert.Equal(t, int64(-1), e.Int64())
	e, _ = Identity(Minimum, catalog.Int32)
	assert.Equal(t, int64(math.MaxInt32), e.Int64())
	e, _ = Identity(Maximum, catalog.Uint8)
	assert.Equal(t, uint64(0), e.Uint64())
	e, _ = Identity(Minimum, catalog.Float32)
	assert.True(t, math.IsInf(e.Float64(), 1))
	e, _ = Identity(Maximum, catalog.Float16)
	assert.True(t, math.IsInf(e.Float64(), -1))
	e, _ = Identity(Multiplies, catalog.Float64)
	assert.Equal(t, 1.0, e.Float64())

	_, err := Identity(Operator(42), catalog.Int32)
	assert.True(t, errors.Is(err, ErrNoIdentity))
	_, err = Identity(Plus, catalog.DataType(0))
	assert.ErrorIs(t, err, ErrNoIdentity)
}

func TestApply(t *testing.T) {
	testCases := []struct {
		name     string
		op       Operator
		a, b     catalog.Value
		expected string
	}{
		{"int8 plus wraps", Plus, catalog.Int(catalog.Int8, 120), catalog.Int(catalog.Int8, 10), "-126"},
		{"uint8 multiplies wraps", Multiplies, catalog.Int(catalog.Uint8, 16), catalog.Int(catalog.Uint8, 17), "16"},
		{"int32 minimum", Minimum, catalog.Int(catalog.Int32, -4), catalog.Int(catalog.Int32, 3), "-4"},
		{"uint32 maximum", Maximum, catalog.Uint(catalog.Uint32, 4000000000), catalog.Int(catalog.Uint32, 3), "4000000000"},
		{"bit_and", BitAnd, catalog.Int(catalog.Int16, 0x0F0F), catalog.Int(catalog.Int16, 0x00FF), "15"},
		{"bit_or", BitOr, catalog.Int(catalog.Uint16, 0x0F00), catalog.Int(catalog.Uint16, 0x00F0), "4080"},
		{"bit_xor", BitXor, catalog.Int(catalog.Int64, -1), catalog.Int(catalog.Int64, 1), "-2"},
		{"logical_and", LogicalAnd, catalog.Int(catalog.Int32, 5), catalog.Int(catalog.Int32, -3), "1"},
		{"logical_or", LogicalOr, catalog.Float(catalog.Float32, 0), catalog.Float(catalog.Float32, 0), "0"},
		{"float32 plus rounds", Plus, catalog.Float(catalog.Float32, 16777216), catalog.Float(catalog.Float32, 1), "1.6777216e+07"},
		{"half plus rounds", Plus, catalog.Float(catalog.Float16, 2048), catalog.Float(catalog.Float16, 1), "2048"},
		{"float64 multiplies", Multiplies, catalog.Float(catalog.Float64, 0.5), catalog.Float(catalog.Float64, -4), "-2"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Apply(tc.op, tc.a, tc.b)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got.String())
		})
	}

	_, err := Apply(BitXor, catalog.Float(catalog.Float32, 1), catalog.Float(catalog.Float32, 2))
	assert.ErrorIs(t, err, ErrIllegal)
	_, err = Apply(Plus, catalog.Int(catalog.Int32, 1), catalog.Int(catalog.Int64, 2))
	assert.Error(t, err)
}

func TestLegal(t *testing.T) {
	assert.True(t, Legal(Plus, catalog.Int8))
	assert.True(t, Legal(BitXor, catalog.Uint64))
	assert.False(t, Legal(BitAnd, catalog.Float32))
	assert.False(t, Legal(Multiplies, catalog.Int32))
	assert.True(t, Legal(Multiplies, catalog.Uint32))
	assert.True(t, Legal(Multiplies, catalog.Float16))
	assert.True(t, Legal(LogicalOr, catalog.Float64))
	assert.False(t, Legal(Operator(0), catalog.Int32))
}

func TestNames(t *testing.T) {
	for _, op := range All {
		parsed, err := ParseOperator(op.String())
		require.NoError(t, err)
		assert.Equal(t, op, parsed)
	}
	assert.Equal(t, "joint_exclusive_scan", JointExclusive.String())
	assert.True(t, JointExclusive.IsJoint() && JointExclusive.IsExclusive())
	assert.False(t, ValueInclusive.IsJoint() || ValueInclusive.IsExclusive())
	assert.Equal(t, "sub_group", SubGroupScope.String())
}
