package multiverse

import (
	"fmt"

	"github.com/theapemachine/errnie"
)

// TravelMode selects what a measurement after TravelBack does to the
// revisited ancestor's existing children.
type TravelMode int

const (
	// TravelBranch leaves the ancestor's materialized children untouched;
	// the next measurement explores a logically independent fork.
	TravelBranch TravelMode = iota
	// TravelOverwrite replaces the ancestor's forward history: existing
	// children are flagged Overwritten and cleared, and the observable may
	// be measured again.
	TravelOverwrite
)

func (m TravelMode) String() string {
	if m == TravelOverwrite {
		return "overwrite"
	}
	return "branch"
}

/*
TemporalObserver is an external cursor over the branching tree. Branch
nodes carry no parent back-links, so all backward navigation is mediated
by the trail of nodes the observer itself has visited: each Descend
appends the new current node, and TravelBack relocates the cursor to an
earlier trail entry.
*/
type TemporalObserver struct {
	ID string

	trail    []*BranchNode
	current  *BranchNode
	mode     TravelMode
	traveled bool
}

// NewTemporalObserver seeds an observer at the given root. The root is the
// first trail entry.
func NewTemporalObserver(id string, root *BranchNode) *TemporalObserver {
	return &TemporalObserver{
		ID:      id,
		trail:   []*BranchNode{root},
		current: root,
	}
}

// Current returns the node the observer is positioned on.
func (o *TemporalObserver) Current() *BranchNode {
	return o.current
}

// Trail returns a copy of the visitation trail, oldest first.
func (o *TemporalObserver) Trail() []*BranchNode {
	return append([]*BranchNode(nil), o.trail...)
}

// Descend materializes the current node's children and moves the cursor
// to the child for the given outcome label, extending the trail.
func (o *TemporalObserver) Descend(outcome string) (*BranchNode, error) {
	if _, err := o.current.Children(); err != nil {
		return nil, err
	}
	child, ok := o.current.Child(outcome)
	if !ok {
		return nil, fmt.Errorf("observer %s: branch %s has no child for outcome %q", o.ID, o.current.ID, outcome)
	}
	o.trail = append(o.trail, child)
	o.current = child
	return child, nil
}

/*
TravelBack relocates the cursor to the trail entry the given number of
steps back. Exceeding the trail depth is fatal. In branch mode the trail
is retained: the original path remains real and the observer may recount
it. In overwrite mode the trail is truncated to the new position, since
the forward history it pointed into is about to be replaced.
*/
func (o *TemporalObserver) TravelBack(steps int, mode TravelMode) error {
	if steps < 1 || steps > len(o.trail)-1 {
		return fmt.Errorf("%w: %d steps back with trail depth %d", ErrTrailDepth, steps, len(o.trail)-1)
	}
	o.current = o.trail[len(o.trail)-1-steps]
	if mode == TravelOverwrite {
		o.trail = o.trail[:len(o.trail)-steps]
	}
	o.mode = mode
	o.traveled = true
	errnie.Info(
		"Observer %s traveled back %d step(s) to branch %s (%s mode)",
		o.ID,
		steps,
		o.current.ID,
		mode,
	)
	return nil
}

/*
Measure performs a measurement from the observer's current position,
honoring the travel mode of the most recent TravelBack. Branch mode
preserves the ancestor's existing children and still rejects re-measuring
an already-measured observable; overwrite mode flags and replaces them,
and permits the re-measurement. The mode applies to one measurement only.
*/
func (o *TemporalObserver) Measure(observable string, qubits ...int) ([]*BranchNode, error) {
	opts := applyOptions{}
	if o.traveled {
		if o.mode == TravelOverwrite {
			opts.allowRemeasure = true
			opts.flagOverwritten = true
		} else {
			opts.preserveChildren = true
		}
	}
	o.traveled = false
	return Measurement{Observable: observable, Qubits: qubits}.apply(o.current, opts)
}
