package multiverse

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/theapemachine/errnie"
)

// pendingBranch is one entry of a node's deferred-construction manifest:
// the Born probability of the outcome and the qubit subset the measurement
// acted on (nil for a whole-system measurement).
type pendingBranch struct {
	probability float64
	qubits      []int
}

/*
BranchNode is one universe in the branching tree. It owns an immutable
AmplitudeState, the cumulative Born-rule weight of the path that produced
it, an append-only history ledger, and the set of observables already
measured along that path.

Children are materialized lazily: Measure records a pending branch table
and returns immediately; the actual descendant nodes are built on the
first Children call. A node holds no parent back-link; backward
navigation is mediated entirely by a TemporalObserver's trail.
*/
type BranchNode struct {
	ID      string
	Weight  float64
	History []string

	// Overwritten marks a branch whose position in the tree was replaced
	// through an observer's overwrite-mode re-measurement.
	Overwritten bool

	system   *AmplitudeState
	measured map[string]struct{}
	children map[string]*BranchNode
	pending  map[string]pendingBranch
	hooks    *HookRegistry
}

func newBranchID() string {
	return uuid.NewString()[:8]
}

// NewRootBranch creates the root of a new multiverse. A nil registry gets
// a fresh empty one, so hook state never leaks between simulations.
func NewRootBranch(system *AmplitudeState, hooks *HookRegistry) *BranchNode {
	if hooks == nil {
		hooks = NewHookRegistry()
	}
	return &BranchNode{
		ID:       newBranchID(),
		Weight:   1.0,
		History:  []string{"Branch created"},
		system:   system,
		measured: make(map[string]struct{}),
		children: make(map[string]*BranchNode),
		hooks:    hooks,
	}
}

// System returns the node's current amplitude state.
func (n *BranchNode) System() *AmplitudeState {
	return n.system
}

// ReplaceSystem reassigns the node's amplitude state ahead of a new
// measurement. The previous state is not mutated; it is simply dropped.
func (n *BranchNode) ReplaceSystem(system *AmplitudeState) {
	n.system = system
	n.History = append(n.History, "System reassigned: "+system.String())
}

// HasMeasured reports whether the observable was already measured on this
// node or any ancestor along its path.
func (n *BranchNode) HasMeasured(observable string) bool {
	_, ok := n.measured[observable]
	return ok
}

// MeasuredObservables returns the measured-observable names in sorted order.
func (n *BranchNode) MeasuredObservables() []string {
	names := make([]string, 0, len(n.measured))
	for name := range n.measured {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Measure applies a measurement of the named observable over the given
// qubit subset (none for the whole system). Branching is deferred: the
// call returns no children and the descendants appear on the next
// Children call.
func (n *BranchNode) Measure(observable string, qubits ...int) ([]*BranchNode, error) {
	return Measurement{Observable: observable, Qubits: qubits}.Apply(n)
}

/*
ExpandChild materializes the child for a single pending outcome: collapse
the state (subset collapse when the measurement acted on a strict part of
the system), weight the child by the outcome probability, copy history and
measured set, run the decoherence transforms, store the child, then notify
the creation observers. Requesting an outcome that is not pending is fatal.
Already-materialized outcomes are returned as-is.
*/
func (n *BranchNode) ExpandChild(outcome string) (*BranchNode, error) {
	pb, ok := n.pending[outcome]
	if !ok {
		return nil, fmt.Errorf("%w: %q in branch %s", ErrNoPendingBranch, outcome, n.ID)
	}
	// A child preserved across a branch-mode fork is also the expansion of
	// a colliding outcome label: the state is unchanged, so collapse and
	// weight would come out identical.
	if child, ok := n.children[outcome]; ok {
		return child, nil
	}

	var collapsed *AmplitudeState
	var err error
	if pb.qubits == nil {
		collapsed, err = n.system.CollapseTo(outcome)
	} else {
		collapsed, err = n.system.CollapseOnSubset(pb.qubits, outcome)
	}
	if err != nil {
		return nil, err
	}

	history := make([]string, len(n.History), len(n.History)+1)
	copy(history, n.History)
	measured := make(map[string]struct{}, len(n.measured))
	for name := range n.measured {
		measured[name] = struct{}{}
	}

	child := &BranchNode{
		ID:       newBranchID(),
		Weight:   n.Weight * pb.probability,
		History:  history,
		system:   collapsed,
		measured: measured,
		children: make(map[string]*BranchNode),
		hooks:    n.hooks,
	}

	n.hooks.applyDecoherence(child)
	n.children[outcome] = child
	n.hooks.notifyCreation(child, outcome)

	errnie.Info(
		"  -> Created branch %s for outcome '%s' (w=%.5f) [on demand]",
		child.ID,
		outcome,
		child.Weight,
	)
	return child, nil
}

/*
Children returns the node's descendants, materializing any pending
outcomes first. Once every pending outcome has been expanded the manifest
is cleared, so repeat calls are cache hits on the materialized map. The
returned slice is ordered by outcome label.
*/
func (n *BranchNode) Children() ([]*BranchNode, error) {
	if n.pending != nil {
		for _, outcome := range sortedPendingOutcomes(n.pending) {
			if _, err := n.ExpandChild(outcome); err != nil {
				return nil, err
			}
		}
		n.pending = nil
	}
	return n.materializedChildren(), nil
}

// Child returns the already-materialized child for an outcome label, if any.
func (n *BranchNode) Child(outcome string) (*BranchNode, bool) {
	child, ok := n.children[outcome]
	return child, ok
}

// PendingOutcomes lists the not-yet-materialized outcome labels in sorted
// order. Empty once the node is fully expanded.
func (n *BranchNode) PendingOutcomes() []string {
	return sortedPendingOutcomes(n.pending)
}

func sortedPendingOutcomes(pending map[string]pendingBranch) []string {
	outcomes := make([]string, 0, len(pending))
	for outcome := range pending {
		outcomes = append(outcomes, outcome)
	}
	sort.Strings(outcomes)
	return outcomes
}

/*
Snapshot serializes the subtree rooted at this node. With expandLazy set,
every pending outcome in the subtree is materialized first, producing the
complete tree; otherwise the snapshot reflects only what has already been
observed, which keeps inspection cheap on combinatorially large pending
trees.
*/
func (n *BranchNode) Snapshot(expandLazy bool) (*NodeSnapshot, error) {
	var children []*BranchNode
	if expandLazy {
		var err error
		children, err = n.Children()
		if err != nil {
			return nil, err
		}
	} else {
		children = n.materializedChildren()
	}

	system := make(map[string][2]float64, len(n.system.amplitudes))
	for label, amp := range n.system.amplitudes {
		system[label] = [2]float64{real(amp), imag(amp)}
	}

	snap := &NodeSnapshot{
		ID:                  n.ID,
		Weight:              n.Weight,
		System:              system,
		History:             append([]string(nil), n.History...),
		MeasuredObservables: n.MeasuredObservables(),
		Children:            make([]*NodeSnapshot, 0, len(children)),
	}
	for _, child := range children {
		childSnap, err := child.Snapshot(expandLazy)
		if err != nil {
			return nil, err
		}
		snap.Children = append(snap.Children, childSnap)
	}
	return snap, nil
}

// materializedChildren returns only the children that already exist,
// without touching the pending manifest.
func (n *BranchNode) materializedChildren() []*BranchNode {
	outcomes := make([]string, 0, len(n.children))
	for outcome := range n.children {
		outcomes = append(outcomes, outcome)
	}
	sort.Strings(outcomes)
	children := make([]*BranchNode, 0, len(outcomes))
	for _, outcome := range outcomes {
		children = append(children, n.children[outcome])
	}
	return children
}
