// measurement.go
package multiverse

import (
	"fmt"
	"log"
	"sort"

	"github.com/theapemachine/errnie"
)

/*
Measurement is a stateless description of "measure observable X on qubit
subset Q". An empty subset measures the whole composite system. Applying a
measurement never creates children directly: it validates, records a
pending branch table on the node, and leaves materialization to Children.
*/
type Measurement struct {
	Observable string
	Qubits     []int
}

// applyOptions adjust Apply for observer-mediated time travel. The zero
// value is the strict behavior of a direct measurement.
type applyOptions struct {
	// preserveChildren keeps already-materialized children instead of
	// clearing them (branch-mode fork from a revisited ancestor).
	preserveChildren bool
	// allowRemeasure permits re-measuring an observable already in the
	// measured set (overwrite-mode history replacement).
	allowRemeasure bool
	// flagOverwritten marks cleared children as overwritten lineage.
	flagOverwritten bool
}

// Apply performs the measurement on a node. The returned slice is always
// nil: branches exist only as pending table entries until the node's
// Children call materializes them. Recoverable conditions (already
// measured, already definite, no surviving outcomes) log and return nil;
// fatal conditions return a typed error.
func (m Measurement) Apply(node *BranchNode) ([]*BranchNode, error) {
	return m.apply(node, applyOptions{})
}

func (m Measurement) apply(node *BranchNode, opts applyOptions) ([]*BranchNode, error) {
	// An overwrite re-measurement must not disturb the measured set until
	// the no-op checks have passed: a re-measurement that turns out to be
	// a no-op leaves the node's record exactly as it was.
	if node.HasMeasured(m.Observable) && !opts.allowRemeasure {
		log.Printf("Branch %s already measured observable '%s'; no new branches created", node.ID, m.Observable)
		return nil, nil
	}

	qubits, wholeSystem, err := m.resolveSubset(node.system)
	if err != nil {
		return nil, err
	}

	if wholeSystem {
		if definite, ok := node.system.IsDefinite(); ok {
			errnie.Info("Branch %s has a definite state '%s'; no new branches created", node.ID, definite)
			return nil, nil
		}
	} else {
		if definite, ok := node.system.IsDefiniteSubset(qubits); ok {
			errnie.Info("Branch %s is definite on qubits %v ('%s'); no new branches created", node.ID, qubits, definite)
			return nil, nil
		}
	}

	errnie.Info(
		"Performing measurement '%s' in branch %s (w=%.5f): %v",
		m.Observable,
		node.ID,
		node.Weight,
		node.system,
	)

	// Residual pending entries or stale children from an earlier aborted
	// measurement would violate weight conservation if left behind.
	node.pending = nil
	if !opts.preserveChildren {
		if opts.flagOverwritten {
			for _, child := range node.children {
				child.Overwritten = true
			}
			if len(node.children) > 0 {
				node.History = append(node.History, fmt.Sprintf(
					"Overwrote %d materialized branch(es) ahead of re-measurement '%s'",
					len(node.children), m.Observable,
				))
			}
		}
		node.children = make(map[string]*BranchNode)
	}

	var probs map[string]float64
	if wholeSystem {
		probs = node.system.Probabilities()
	} else {
		probs, err = node.system.SubsetProbabilities(qubits)
		if err != nil {
			return nil, err
		}
	}

	pending := make(map[string]pendingBranch)
	for outcome, prob := range probs {
		if prob < Eps {
			continue
		}
		var subset []int
		if !wholeSystem {
			subset = qubits
		}
		pending[outcome] = pendingBranch{probability: prob, qubits: subset}
	}
	if len(pending) == 0 {
		log.Printf("WARNING: no nonzero-probability branches for '%s' in branch %s; upstream numerical error likely", m.Observable, node.ID)
		return nil, nil
	}

	outcomes := sortedPendingOutcomes(pending)
	node.measured[m.Observable] = struct{}{}
	node.History = append(node.History, fmt.Sprintf(
		"Measurement '%s' performed, branches deferred: %v", m.Observable, outcomes,
	))
	node.pending = pending

	node.hooks.notifyPostMeasurement(node, m.Observable)

	errnie.Info(
		"  -> Branches for observable '%s' will be created lazily for outcomes %v",
		m.Observable,
		outcomes,
	)
	return nil, nil
}

// resolveSubset decides between the whole-system and partial paths. An
// explicit subset that enumerates every index in order is the whole
// system; anything else is a strict projection.
func (m Measurement) resolveSubset(system *AmplitudeState) ([]int, bool, error) {
	if len(m.Qubits) == 0 {
		return nil, true, nil
	}
	num, err := system.NumQubits()
	if err != nil {
		return nil, false, err
	}
	sorted := append([]int(nil), m.Qubits...)
	sort.Ints(sorted)
	for i, q := range sorted {
		if q < 0 || q >= num {
			return nil, false, fmt.Errorf("qubit index %d out of range for %d-qubit labels", q, num)
		}
		if i > 0 && sorted[i-1] == q {
			return nil, false, fmt.Errorf("duplicate qubit index %d in subset %v", q, m.Qubits)
		}
	}
	if len(m.Qubits) == num && sort.IntsAreSorted(m.Qubits) {
		return nil, true, nil
	}
	return m.Qubits, false, nil
}
