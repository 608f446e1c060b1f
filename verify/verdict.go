package verify

import (
	"errors"
	"fmt"

	"github.com/notargets/GroupScan/combos"
	"github.com/notargets/GroupScan/device"
)

// Status is the outcome class of a combination
type Status int

const (
	Pass Status = iota
	Fail
	Skip
	Error
)

func (s Status) String() string {
	return [...]string{"PASS", "FAIL", "SKIP", "ERROR"}[s]
}

// Verdict is the outcome of one combination
type Verdict struct {
	Entry  string
	Tuple  combos.Tuple
	Status Status
	Comparison
	// Reason explains a skip or an error
	Reason string
	Err    error
}

// Judge turns a finished comparison into a Pass or Fail verdict
func Judge(entry string, t combos.Tuple, c Comparison) Verdict {
	v := Verdict{Entry: entry, Tuple: t, Status: Pass, Comparison: c}
	if len(c.Mismatches) > 0 {
		v.Status = Fail
	}
	return v
}

// Skipped records a combination that did not run
func Skipped(entry string, t combos.Tuple, reason string) Verdict {
	return Verdict{Entry: entry, Tuple: t, Status: Skip, Reason: reason}
}

// Errored records an internal error. A missing capability reported by the
// runtime during the launch still counts as a skip.
func Errored(entry string, t combos.Tuple, err error) Verdict {
	if errors.Is(err, device.ErrUnsupported) {
		return Verdict{Entry: entry, Tuple: t, Status: Skip, Reason: err.Error(), Err: err}
	}
	return Verdict{Entry: entry, Tuple: t, Status: Error, Reason: err.Error(), Err: err}
}

func (v Verdict) String() string {
	switch v.Status {
	case Fail:
		return fmt.Sprintf("%s [%s] %s: %d of %d positions differ",
			v.Status, v.Entry, v.Tuple, len(v.Mismatches), v.Checked)
	case Skip, Error:
		return fmt.Sprintf("%s [%s] %s: %s", v.Status, v.Entry, v.Tuple, v.Reason)
	}
	return fmt.Sprintf("%s [%s] %s: %d positions", v.Status, v.Entry, v.Tuple, v.Checked)
}
