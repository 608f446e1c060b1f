package device

import (
	"fmt"
	"sort"

	"github.com/notargets/GroupScan/catalog"
)

// SkipError reports a missing optional capability. It wraps ErrUnsupported.
type SkipError struct {
	Device string
	Aspect Aspect
	Reason string
}

func (e *SkipError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return fmt.Sprintf("device %s does not support aspect %s", e.Device, e.Aspect)
}

func (e *SkipError) Unwrap() error { return ErrUnsupported }

// Supports reports whether dev can run every listed element type
func Supports(dev Device, types ...catalog.DataType) bool {
	return Check(dev, types...) == nil
}

// Check returns a *SkipError naming the first missing aspect, or nil
func Check(dev Device, types ...catalog.DataType) error {
	for _, dt := range types {
		aspect, optional := RequiredAspect(dt)
		if optional && !dev.Has(aspect) {
			return &SkipError{Device: dev.Name(), Aspect: aspect, Reason: aspectMessage(aspect, dev)}
		}
	}
	return nil
}

func aspectMessage(aspect Aspect, dev Device) string {
	switch aspect {
	case AspectFP16:
		return fmt.Sprintf("Device %s does not support half precision floating point operations.", dev.Name())
	case AspectFP64:
		return fmt.Sprintf("Device %s does not support double precision floating point operations.", dev.Name())
	}
	return ""
}

// Predicate decides whether a test case applies to a device. It returns a
// reason when it does not.
type Predicate func(dev Device) (ok bool, reason string)

// DisabledFor disables a test case on one backend
func DisabledFor(backend, reason string) Predicate {
	return func(dev Device) (bool, string) {
		if dev.Backend() == backend {
			return false, fmt.Sprintf("disabled for %s: %s", backend, reason)
		}
		return true, ""
	}
}

// RequiresAspect disables a test case on devices lacking aspect
func RequiresAspect(aspect Aspect) Predicate {
	return func(dev Device) (bool, string) {
		if dev.Has(aspect) {
			return true, ""
		}
		if msg := aspectMessage(aspect, dev); msg != "" {
			return false, msg
		}
		return false, fmt.Sprintf("device %s lacks aspect %s", dev.Name(), aspect)
	}
}

// Registry maps test case names to applicability predicates. Predicates are
// evaluated before dispatch; a failing predicate yields a skip.
type Registry struct {
	predicates map[string][]Predicate
}

// NewRegistry returns an empty registry
func NewRegistry() *Registry {
	return &Registry{predicates: make(map[string][]Predicate)}
}

// Add attaches predicates to a test case
func (r *Registry) Add(test string, preds ...Predicate) {
	r.predicates[test] = append(r.predicates[test], preds...)
}

// Applicable evaluates every predicate of test against dev
func (r *Registry) Applicable(test string, dev Device) (bool, string) {
	for _, p := range r.predicates[test] {
		if ok, reason := p(dev); !ok {
			return false, reason
		}
	}
	return true, ""
}

// Tests lists the test cases with registered predicates
func (r *Registry) Tests() []string {
	names := make([]string, 0, len(r.predicates))
	for name := range r.predicates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
