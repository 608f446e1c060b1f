package suite

import (
	"github.com/notargets/GroupScan/catalog"
	"github.com/notargets/GroupScan/combos"
	"github.com/notargets/GroupScan/device"
)

// Entry is one entry point: a scan family enumerated over the configured
// catalogue. Half entries add float16 to every type position and keep only
// the combinations that use it.
type Entry struct {
	Name   string
	Family combos.Family
	Half   bool
}

var (
	JointScan         = Entry{Name: "Group and sub-group joint scan functions", Family: combos.JointScan}
	JointScanInit     = Entry{Name: "Group and sub-group joint scan functions with init", Family: combos.JointScanInit}
	ScanOverGroup     = Entry{Name: "Group and sub-group scan functions", Family: combos.ScanOverGroup}
	ScanOverGroupInit = Entry{Name: "Group and sub-group scan functions with init", Family: combos.ScanOverGroupInit}

	JointScanHalf         = Entry{Name: "Group and sub-group joint scan functions [fp16]", Family: combos.JointScan, Half: true}
	JointScanInitHalf     = Entry{Name: "Group and sub-group joint scan functions with init [fp16]", Family: combos.JointScanInit, Half: true}
	ScanOverGroupHalf     = Entry{Name: "Group and sub-group scan functions [fp16]", Family: combos.ScanOverGroup, Half: true}
	ScanOverGroupInitHalf = Entry{Name: "Group and sub-group scan functions with init [fp16]", Family: combos.ScanOverGroupInit, Half: true}
)

// Entries lists every entry point in run order
var Entries = []Entry{
	JointScan, JointScanInit, ScanOverGroup, ScanOverGroupInit,
	JointScanHalf, JointScanInitHalf, ScanOverGroupHalf, ScanOverGroupInitHalf,
}

// Lookup finds an entry by name
func Lookup(name string) (Entry, bool) {
	for _, e := range Entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Tuples enumerates the combinations of e under cfg
func (e Entry) Tuples(cfg Config) []combos.Tuple {
	arity := e.Family.Arity()
	switch {
	case !e.Half:
		return e.Family.Generate(cfg.Dims, cfg.Axes, combos.Repeat(cfg.Catalogue, arity)...)
	case arity == 1:
		// the value scan without init has a single type: half only
		return e.Family.Generate(cfg.Dims, cfg.Axes, []catalog.DataType{catalog.Float16})
	}
	return e.Family.GenerateWith(catalog.Float16, cfg.Dims, cfg.Axes, combos.Repeat(cfg.Catalogue, arity)...)
}

// DefaultRegistry gates the half entries on the fp16 aspect
func DefaultRegistry() *device.Registry {
	reg := device.NewRegistry()
	for _, e := range Entries {
		if e.Half {
			reg.Add(e.Name, device.RequiresAspect(device.AspectFP16))
		}
	}
	return reg
}
