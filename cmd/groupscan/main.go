// Command groupscan verifies the group scan primitives of a compute
// runtime against the sequential reference and exits non-zero on any
// failure or internal error.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"

	"github.com/notargets/GroupScan/catalog"
	"github.com/notargets/GroupScan/combos"
	"github.com/notargets/GroupScan/device"
	"github.com/notargets/GroupScan/ops"
	"github.com/notargets/GroupScan/runner"
	"github.com/notargets/GroupScan/sim"
	"github.com/notargets/GroupScan/suite"
	"github.com/notargets/GroupScan/utils"
	"github.com/notargets/gocca"
	"github.com/spf13/cobra"
)

type options struct {
	backend      string
	mode         string
	dims         []int
	types        []string
	operators    []string
	entries      []string
	subGroupSize int
	maxWorkGroup int
	fp16         string
	maxReported  int
	tolerance    float64
	verbose      bool
}

func main() {
	os.Exit(execute())
}

func execute() int {
	var (
		opts options
		code int
	)
	root := &cobra.Command{
		Use:           "groupscan",
		Short:         "Verify group and sub-group scan primitives",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := run(cmd.Context(), opts)
			code = c
			return err
		},
	}
	f := root.Flags()
	f.StringVar(&opts.backend, "backend", sim.Backend, "runtime backend: sim or occa")
	f.StringVar(&opts.mode, "mode", "", "OCCA mode name or JSON properties (default: first available)")
	f.IntSliceVar(&opts.dims, "dims", combos.Dims, "group dimensionalities")
	f.StringSliceVar(&opts.types, "types", nil, "element types (default: the base catalogue)")
	f.StringSliceVar(&opts.operators, "ops", nil, "operators (default: all)")
	f.StringSliceVar(&opts.entries, "entry", nil, "entry points to run (default: all)")
	f.IntVar(&opts.subGroupSize, "subgroup-size", 0, "simulated sub-group size")
	f.IntVar(&opts.maxWorkGroup, "max-work-group", 0, "simulated maximum work-group size")
	f.StringVar(&opts.fp16, "fp16", "on", "simulated half precision: on, off or host (detect from the CPU)")
	f.IntVar(&opts.maxReported, "max-reported", 8, "mismatches printed per combination")
	f.Float64Var(&opts.tolerance, "tolerance-scale", 1, "multiplier of the floating point tolerances")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "print passing combinations")

	root.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the entry points",
		Run: func(cmd *cobra.Command, _ []string) {
			for _, e := range suite.Entries {
				fmt.Fprintln(cmd.OutOrStdout(), e.Name)
			}
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "groupscan:", err)
		if code == 0 {
			code = 2
		}
	}
	return code
}

func run(ctx context.Context, opts options) (int, error) {
	cfg := suite.DefaultConfig()
	cfg.Dims = opts.dims
	cfg.Verify.MaxReported = opts.maxReported
	cfg.Verify.ToleranceScale = opts.tolerance
	cfg.Verify.Verbose = opts.verbose
	if len(opts.types) > 0 {
		cfg.Catalogue = nil
		for _, name := range opts.types {
			dt, err := catalog.Parse(name)
			if err != nil {
				return 2, err
			}
			cfg.Catalogue = append(cfg.Catalogue, dt)
		}
	}
	if len(opts.operators) > 0 {
		cfg.Axes.Operators = nil
		for _, name := range opts.operators {
			op, err := ops.ParseOperator(name)
			if err != nil {
				return 2, err
			}
			cfg.Axes.Operators = append(cfg.Axes.Operators, op)
		}
	}
	entries := suite.Entries
	if len(opts.entries) > 0 {
		entries = nil
		for _, name := range opts.entries {
			e, ok := suite.Lookup(name)
			if !ok {
				return 2, fmt.Errorf("unknown entry point %q", name)
			}
			entries = append(entries, e)
		}
	}

	q, closeQueue, err := openQueue(opts)
	if err != nil {
		return 2, err
	}
	defer closeQueue()
	fmt.Fprintf(cfg.Out, "device: %s (%s)\n", q.Device().Name(), q.Device().Backend())

	s := suite.New(q, cfg)
	for _, e := range entries {
		if err = s.Run(ctx, e); err != nil {
			break
		}
	}
	summary := s.Reporter().Finish()
	if err != nil {
		return 2, err
	}
	return summary.ExitCode(), nil
}

func openQueue(opts options) (device.Queue, func(), error) {
	switch opts.backend {
	case sim.Backend:
		props := sim.DefaultProperties()
		if opts.subGroupSize > 0 {
			props.SubGroupSize = opts.subGroupSize
		}
		if opts.maxWorkGroup > 0 {
			props.MaxWorkGroupSize = opts.maxWorkGroup
		}
		// the simulator computes half in software, so the host only matters
		// when asked for
		switch opts.fp16 {
		case "on", "":
			if !slices.Contains(props.Aspects, device.AspectFP16) {
				props.Aspects = append(props.Aspects, device.AspectFP16)
			}
		case "off":
			props.Aspects = slices.DeleteFunc(slices.Clone(props.Aspects), func(a device.Aspect) bool {
				return a == device.AspectFP16
			})
		case "host":
		default:
			return nil, nil, fmt.Errorf("unknown --fp16 setting %q", opts.fp16)
		}
		return sim.NewQueue(sim.NewDevice(props)), func() {}, nil
	case runner.Backend:
		open := utils.OpenAny
		if opts.mode != "" {
			open = func() (*gocca.OCCADevice, error) { return utils.OpenDevice(opts.mode) }
		}
		occa, err := open()
		if err != nil {
			return nil, nil, err
		}
		kr := runner.NewRunner(occa)
		return kr, func() {
			kr.Free()
			occa.Free()
		}, nil
	}
	return nil, nil, fmt.Errorf("unknown backend %q", opts.backend)
}
