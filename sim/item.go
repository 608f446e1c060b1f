package sim

import (
	"github.com/notargets/GroupScan/catalog"
	"github.com/notargets/GroupScan/device"
	"github.com/notargets/GroupScan/ops"
)

// Item is the execution context of one work-item
type Item struct {
	GlobalID, LocalID, GroupID []int
	// Linear ids are row-major
	GlobalLinear, LocalLinear, GroupLinear int
	SubGroupID, SubGroupLocal              int

	st *groupState
}

// Descriptor returns the shape of the running launch
func (it *Item) Descriptor() device.GroupDescriptor { return it.st.desc }

// Group returns a handle on the work-item's group
func (it *Item) Group() Group { return Group{it: it, scope: ops.GroupScope} }

// SubGroup returns a handle on the work-item's sub-group
func (it *Item) SubGroup() Group { return Group{it: it, scope: ops.SubGroupScope} }

// Scope returns the group or sub-group handle
func (it *Item) Scope(s ops.Scope) Group { return Group{it: it, scope: s} }

// groupState is the memory and synchronisation shared by one work-group
type groupState struct {
	desc   device.GroupDescriptor
	bar    *barrier
	subBar []*barrier
	// two banks of local memory, one slot per work-item
	bankA, bankB []catalog.Value
}

func newGroupState(desc device.GroupDescriptor) *groupState {
	st := &groupState{
		desc:  desc,
		bar:   newBarrier(desc.GroupSize()),
		bankA: make([]catalog.Value, desc.GroupSize()),
		bankB: make([]catalog.Value, desc.GroupSize()),
	}
	for s := range desc.SubGroupCount() {
		st.subBar = append(st.subBar, newBarrier(desc.SubGroupLen(s)))
	}
	return st
}

func (st *groupState) breakAll() {
	st.bar.breakAll()
	for _, b := range st.subBar {
		b.breakAll()
	}
}

// Group is a group or sub-group handle. Every member must reach each
// collective called on it.
type Group struct {
	it    *Item
	scope ops.Scope
}

// Scope reports whether the handle covers a group or a sub-group
func (g Group) Scope() ops.Scope { return g.scope }

// Size returns the number of work-items in the scope
func (g Group) Size() int {
	if g.scope == ops.SubGroupScope {
		return g.it.st.desc.SubGroupLen(g.it.SubGroupID)
	}
	return g.it.st.desc.GroupSize()
}

// Index returns the work-item's position within the scope
func (g Group) Index() int {
	if g.scope == ops.SubGroupScope {
		return g.it.SubGroupLocal
	}
	return g.it.LocalLinear
}

func (g Group) base() int {
	if g.scope == ops.SubGroupScope {
		return g.it.SubGroupID * g.it.st.desc.SubGroupSize
	}
	return 0
}

func (g Group) barrier() {
	b := g.it.st.bar
	if g.scope == ops.SubGroupScope {
		b = g.it.st.subBar[g.it.SubGroupID]
	}
	if err := b.wait(); err != nil {
		panic(err)
	}
}
