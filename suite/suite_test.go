package suite

import (
	"bytes"
	"context"
	"testing"

	"github.com/notargets/GroupScan/catalog"
	"github.com/notargets/GroupScan/combos"
	"github.com/notargets/GroupScan/device"
	"github.com/notargets/GroupScan/ops"
	"github.com/notargets/GroupScan/sim"
	"github.com/notargets/GroupScan/verify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// groups of 16 split into sub-groups of 6, 6 and 4
func newQueue(aspects ...device.Aspect) *sim.Queue {
	if aspects == nil {
		aspects = []device.Aspect{}
	}
	return sim.NewQueue(sim.NewDevice(sim.Properties{
		Name:             "test",
		MaxWorkGroupSize: 16,
		SubGroupSize:     6,
		Aspects:          aspects,
	}))
}

func smallConfig(out *bytes.Buffer, types ...catalog.DataType) Config {
	return Config{
		Dims:      []int{1, 3},
		Catalogue: types,
		Axes:      combos.DefaultAxes(),
		Verify:    verify.DefaultOptions(),
		Out:       out,
	}
}

func countStatus(verdicts []verify.Verdict, st verify.Status) int {
	n := 0
	for _, v := range verdicts {
		if v.Status == st {
			n++
		}
	}
	return n
}

func TestEntries(t *testing.T) {
	require.Len(t, Entries, 8)
	names := make(map[string]bool)
	for _, e := range Entries {
		assert.False(t, names[e.Name], "duplicate entry %s", e.Name)
		names[e.Name] = true
		found, ok := Lookup(e.Name)
		assert.True(t, ok)
		assert.Equal(t, e.Half, found.Half)
	}
	_, ok := Lookup("no such entry")
	assert.False(t, ok)

	reg := DefaultRegistry()
	assert.Len(t, reg.Tests(), 4)
	bare := sim.NewDevice(sim.Properties{Aspects: []device.Aspect{device.AspectFP64}})
	ok, reason := reg.Applicable(ScanOverGroupHalf.Name, bare)
	assert.False(t, ok)
	assert.Contains(t, reason, "half precision")
	ok, _ = reg.Applicable(ScanOverGroup.Name, bare)
	assert.True(t, ok)
}

func TestEntryTuples(t *testing.T) {
	cfg := Config{Dims: []int{1}, Catalogue: []catalog.DataType{catalog.Int32, catalog.Float32}}.withDefaults()

	for _, tp := range JointScan.Tuples(cfg) {
		assert.NotContains(t, tp.Types(), catalog.Float16)
	}
	half := ScanOverGroupHalf.Tuples(cfg)
	require.NotEmpty(t, half)
	for _, tp := range half {
		assert.Equal(t, catalog.Float16, tp.In)
		assert.Equal(t, catalog.Float16, tp.Out)
	}
	for _, e := range []Entry{JointScanHalf, JointScanInitHalf, ScanOverGroupInitHalf} {
		tuples := e.Tuples(cfg)
		require.NotEmpty(t, tuples, e.Name)
		for _, tp := range tuples {
			assert.Contains(t, tp.Types(), catalog.Float16, e.Name)
		}
	}

	// (In, Out) over {int32, float32, half} minus the 4 half-free pairs
	points := 0
	for _, tp := range JointScanHalf.Tuples(cfg) {
		if tp.Op == ops.Plus && tp.Variant == ops.JointInclusive && tp.Scope == ops.GroupScope {
			points++
		}
	}
	assert.Equal(t, 5, points)
}

func TestRunAllPasses(t *testing.T) {
	var out bytes.Buffer
	q := newQueue(device.AspectFP16, device.AspectFP64)
	s := New(q, smallConfig(&out, catalog.Int8, catalog.Uint16, catalog.Float32))

	summary, err := s.RunAll(context.Background())
	require.NoError(t, err)
	assert.True(t, summary.OK(), out.String())
	assert.Positive(t, summary.Total)
	assert.Equal(t, summary.Total, summary.Passed)
	assert.Equal(t, 0, summary.ExitCode())
	assert.Contains(t, out.String(), "combinations:")
	assert.Equal(t, 0, q.Live())
}

func TestHalfEntriesSkipWithoutFP16(t *testing.T) {
	var out bytes.Buffer
	q := newQueue(device.AspectFP64)
	s := New(q, smallConfig(&out, catalog.Int32))

	for _, e := range []Entry{JointScanHalf, JointScanInitHalf, ScanOverGroupHalf, ScanOverGroupInitHalf} {
		require.NoError(t, s.Run(context.Background(), e))
	}
	verdicts := s.Reporter().Verdicts()
	require.NotEmpty(t, verdicts)
	assert.Equal(t, len(verdicts), countStatus(verdicts, verify.Skip))
	assert.Contains(t, out.String(), "does not support half precision floating point operations.")
	assert.Equal(t, 0, q.Live())

	summary := s.Reporter().Finish()
	assert.True(t, summary.OK())
	assert.Equal(t, 0, summary.Failed)
}

func TestDoubleSkippedPerCombination(t *testing.T) {
	var out bytes.Buffer
	s := New(newQueue(), smallConfig(&out, catalog.Int32, catalog.Float64))

	require.NoError(t, s.Run(context.Background(), ScanOverGroup))
	verdicts := s.Reporter().Verdicts()
	require.NotEmpty(t, verdicts)
	for _, v := range verdicts {
		if v.Tuple.In == catalog.Float64 {
			assert.Equal(t, verify.Skip, v.Status, v.String())
			assert.Contains(t, v.Reason, "double precision")
		} else {
			assert.Equal(t, verify.Pass, v.Status, v.String())
		}
	}
}

func TestFaultFails(t *testing.T) {
	var out bytes.Buffer
	q := newQueue(device.AspectFP64)
	q.Fault = func(index int, v catalog.Value) catalog.Value {
		if index != 3 {
			return v
		}
		if v.IsZero() {
			return catalog.Int(v.Type, 1)
		}
		return catalog.Int(v.Type, 0)
	}
	cfg := smallConfig(&out, catalog.Int32, catalog.Float32)
	s := New(q, cfg)

	for _, e := range []Entry{JointScan, ScanOverGroupInit} {
		require.NoError(t, s.Run(context.Background(), e))
	}
	verdicts := s.Reporter().Verdicts()
	want := len(JointScan.Tuples(s.cfg)) + len(ScanOverGroupInit.Tuples(s.cfg))
	// a failure never stops the enumeration
	require.Len(t, verdicts, want)
	for _, v := range verdicts {
		require.Equal(t, verify.Fail, v.Status, v.String())
		require.Len(t, v.Mismatches, 1)
		assert.Equal(t, 3, v.Mismatches[0].Unit)
	}
	assert.Contains(t, out.String(), "FAIL [Group and sub-group joint scan functions]")
	assert.Contains(t, out.String(), "(output 3)")

	summary := s.Reporter().Finish()
	assert.False(t, summary.OK())
	assert.Equal(t, 1, summary.ExitCode())
	assert.Equal(t, 0, q.Live())
}

func TestLaunchFailureIsAnError(t *testing.T) {
	var out bytes.Buffer
	q := newQueue(device.AspectFP64)
	q.Abort = func(it *sim.Item) bool { return it.GroupLinear == 1 && it.LocalLinear == 2 }
	s := New(q, smallConfig(&out, catalog.Uint32))

	require.NoError(t, s.Run(context.Background(), ScanOverGroup))
	verdicts := s.Reporter().Verdicts()
	require.NotEmpty(t, verdicts)
	for _, v := range verdicts {
		assert.Equal(t, verify.Error, v.Status)
		assert.ErrorIs(t, v.Err, device.ErrLaunch)
	}
	assert.Contains(t, out.String(), "ERROR [Group and sub-group scan functions]")
	assert.Equal(t, 0, q.Live())
	assert.False(t, s.Reporter().Finish().OK())
}

func TestRunCancelled(t *testing.T) {
	var out bytes.Buffer
	s := New(newQueue(device.AspectFP64), smallConfig(&out, catalog.Int32))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Run(ctx, JointScan), context.Canceled)
	assert.Empty(t, s.Reporter().Verdicts())
}

func TestNewPanics(t *testing.T) {
	assert.Panics(t, func() { New(nil, DefaultConfig()) })
	assert.Panics(t, func() { New(newQueue(), Config{Dims: []int{4}}) })
	assert.Panics(t, func() { New(newQueue(), Config{Catalogue: []catalog.DataType{}}) })
}
