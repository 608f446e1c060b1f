package verify

import (
	"fmt"
	"io"

	"github.com/notargets/GroupScan/combos"
	"github.com/samber/lo"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Reporter prints verdicts as they are recorded and keeps them for the
// summary
type Reporter struct {
	w        io.Writer
	opts     Options
	printer  *message.Printer
	verdicts []Verdict
}

// NewReporter writes to w
func NewReporter(w io.Writer, opts Options) *Reporter {
	return &Reporter{w: w, opts: opts.withDefaults(), printer: message.NewPrinter(language.English)}
}

// Record prints a verdict. Skips print as warnings, failures list up to
// MaxReported mismatches.
func (r *Reporter) Record(v Verdict) {
	r.verdicts = append(r.verdicts, v)
	switch v.Status {
	case Pass:
		if r.opts.Verbose {
			fmt.Fprintln(r.w, v)
		}
	case Skip:
		fmt.Fprintf(r.w, "WARN %s\n", v)
	case Error:
		fmt.Fprintln(r.w, v)
	case Fail:
		fmt.Fprintln(r.w, v)
		if v.Tuple.Out.IsFloating() {
			fmt.Fprintf(r.w, "  max deviation %g\n", v.Deviation)
		}
		for _, m := range lo.Slice(v.Mismatches, 0, r.opts.MaxReported) {
			fmt.Fprintf(r.w, "  %s\n", m)
		}
		if extra := len(v.Mismatches) - r.opts.MaxReported; extra > 0 {
			fmt.Fprintf(r.w, "  ... %d more\n", extra)
		}
	}
}

// SkipAll records every tuple of an entry that cannot run on the device,
// printing a single warning for the entry
func (r *Reporter) SkipAll(entry string, tuples []combos.Tuple, reason string) {
	fmt.Fprintf(r.w, "WARN [%s] %s\n", entry, reason)
	for _, t := range tuples {
		r.verdicts = append(r.verdicts, Skipped(entry, t, reason))
	}
}

// Verdicts returns everything recorded so far
func (r *Reporter) Verdicts() []Verdict { return r.verdicts }

// Summary counts verdicts per status
type Summary struct {
	Total, Passed, Failed, Skipped, Errors int
}

// OK reports a passing suite: skips do not count against it
func (s Summary) OK() bool { return s.Failed == 0 && s.Errors == 0 }

// ExitCode is the process status of the run
func (s Summary) ExitCode() int {
	if s.OK() {
		return 0
	}
	return 1
}

// Summarize counts verdicts
func Summarize(verdicts []Verdict) Summary {
	count := func(st Status) int {
		return lo.CountBy(verdicts, func(v Verdict) bool { return v.Status == st })
	}
	return Summary{
		Total:   len(verdicts),
		Passed:  count(Pass),
		Failed:  count(Fail),
		Skipped: count(Skip),
		Errors:  count(Error),
	}
}

// Finish prints and returns the summary
func (r *Reporter) Finish() Summary {
	s := Summarize(r.verdicts)
	r.printer.Fprintf(r.w, "%d combinations: %d passed, %d failed, %d skipped, %d errors\n",
		s.Total, s.Passed, s.Failed, s.Skipped, s.Errors)
	return s
}
