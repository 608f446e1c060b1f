// Package suite runs the scan verification entry points. Every combination
// of an entry is gated on the device capabilities, launched through
// dispatch and each returned segment is checked against the oracle.
package suite

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/notargets/GroupScan/catalog"
	"github.com/notargets/GroupScan/combos"
	"github.com/notargets/GroupScan/device"
	"github.com/notargets/GroupScan/dispatch"
	"github.com/notargets/GroupScan/oracle"
	"github.com/notargets/GroupScan/verify"
)

// Config selects what a suite enumerates and how it reports
type Config struct {
	Dims      []int
	Catalogue []catalog.DataType
	Axes      combos.Axes
	Verify    verify.Options
	Out       io.Writer
}

// DefaultConfig covers every dimensionality, type, operator and scope
func DefaultConfig() Config {
	return Config{
		Dims:      combos.Dims,
		Catalogue: catalog.Base,
		Axes:      combos.DefaultAxes(),
		Verify:    verify.DefaultOptions(),
		Out:       os.Stdout,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Dims == nil {
		c.Dims = def.Dims
	}
	if c.Catalogue == nil {
		c.Catalogue = def.Catalogue
	}
	if c.Axes.Operators == nil {
		c.Axes.Operators = def.Axes.Operators
	}
	if c.Axes.Scopes == nil {
		c.Axes.Scopes = def.Axes.Scopes
	}
	if c.Out == nil {
		c.Out = def.Out
	}
	return c
}

// Suite runs entries on one queue
type Suite struct {
	cfg      Config
	q        device.Queue
	registry *device.Registry
	reporter *verify.Reporter
}

// New creates a suite on q. Unset configuration falls back to DefaultConfig.
func New(q device.Queue, cfg Config) *Suite {
	if q == nil {
		panic("suite needs a queue")
	}
	cfg = cfg.withDefaults()
	if len(cfg.Dims) == 0 || len(cfg.Catalogue) == 0 {
		panic("suite needs at least one dimensionality and one type")
	}
	for _, d := range cfg.Dims {
		if d < 1 || d > 3 {
			panic(fmt.Sprintf("unsupported dimensionality %d", d))
		}
	}
	return &Suite{
		cfg:      cfg,
		q:        q,
		registry: DefaultRegistry(),
		reporter: verify.NewReporter(cfg.Out, cfg.Verify),
	}
}

// Registry holds the applicability predicates consulted before each entry
func (s *Suite) Registry() *device.Registry { return s.registry }

// Reporter collects the verdicts of every entry run so far
func (s *Suite) Reporter() *verify.Reporter { return s.reporter }

// Run executes every combination of e. Failures, skips and internal errors
// are recorded as verdicts; only a cancelled ctx stops the enumeration.
func (s *Suite) Run(ctx context.Context, e Entry) error {
	tuples := e.Tuples(s.cfg)
	if ok, reason := s.registry.Applicable(e.Name, s.q.Device()); !ok {
		s.reporter.SkipAll(e.Name, tuples, reason)
		return nil
	}
	for _, t := range tuples {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.reporter.Record(s.Check(ctx, e.Name, t))
	}
	return nil
}

// RunAll runs every entry in order and prints the summary
func (s *Suite) RunAll(ctx context.Context) (verify.Summary, error) {
	for _, e := range Entries {
		if err := s.Run(ctx, e); err != nil {
			return s.reporter.Finish(), err
		}
	}
	return s.reporter.Finish(), nil
}

// Check runs one combination and judges it
func (s *Suite) Check(ctx context.Context, entry string, t combos.Tuple) verify.Verdict {
	if err := device.Check(s.q.Device(), t.Types()...); err != nil {
		return verify.Skipped(entry, t, err.Error())
	}
	launch, err := dispatch.Run(ctx, s.q, t)
	if err != nil {
		return verify.Errored(entry, t, err)
	}
	var c verify.Comparison
	for _, seg := range launch.Segments {
		expected, err := oracle.Scan(oracle.Request{
			Input:     seg.Input,
			Op:        t.Op,
			Exclusive: t.Variant.IsExclusive(),
			Out:       t.Out,
			Init:      launch.Init,
		})
		if err != nil {
			return verify.Errored(entry, t, err)
		}
		if err = s.cfg.Verify.Segment(&c, seg.String(), seg.Units, expected, seg.Observed); err != nil {
			return verify.Errored(entry, t, err)
		}
	}
	return verify.Judge(entry, t, c)
}
