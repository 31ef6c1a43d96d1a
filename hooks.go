package multiverse

import (
	"fmt"
	"log"
	"sync"
)

// DecoherenceTransform may inspect or replace a freshly materialized
// branch's amplitude state before any creation observer sees it.
type DecoherenceTransform func(node *BranchNode) error

// CreationObserver is notified once per materialized child, with the
// outcome label the child was created for.
type CreationObserver func(node *BranchNode, outcome string) error

// PostMeasurementObserver fires at measure() time, before any child
// exists, with the node that recorded the pending branch table.
type PostMeasurementObserver func(node *BranchNode, observable string) error

/*
HookRegistry holds the three ordered hook lists the engine invokes during
measurement and expansion. It is an explicit object rather than package
state: construct one per simulation and hand it to NewRootBranch, and
independent runs stay isolated without any global reset.

Hooks run synchronously in registration order. A hook failing, whether by
returned error or panic, is logged as a warning and never aborts the
branching operation that triggered it.
*/
type HookRegistry struct {
	mu              sync.RWMutex
	decoherence     []DecoherenceTransform
	creation        []CreationObserver
	postMeasurement []PostMeasurementObserver
}

func NewHookRegistry() *HookRegistry {
	return &HookRegistry{}
}

// RegisterDecoherenceModel appends a transform to run on every new branch.
func (r *HookRegistry) RegisterDecoherenceModel(t DecoherenceTransform) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decoherence = append(r.decoherence, t)
}

// RegisterCreationObserver appends an observer of branch creation.
func (r *HookRegistry) RegisterCreationObserver(o CreationObserver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creation = append(r.creation, o)
}

// RegisterPostMeasurementObserver appends an observer of measurements.
func (r *HookRegistry) RegisterPostMeasurementObserver(o PostMeasurementObserver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.postMeasurement = append(r.postMeasurement, o)
}

// runHook isolates a single hook invocation, converting panics into
// errors so a misbehaving hook cannot take down the expansion.
func runHook(kind string, fn func() error) {
	var err error
	func() {
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("panic: %v", rec)
			}
		}()
		err = fn()
	}()
	if err != nil {
		log.Printf("WARNING: %s hook failed (non-fatal): %v", kind, err)
	}
}

func (r *HookRegistry) applyDecoherence(node *BranchNode) {
	r.mu.RLock()
	transforms := make([]DecoherenceTransform, len(r.decoherence))
	copy(transforms, r.decoherence)
	r.mu.RUnlock()

	for _, t := range transforms {
		t := t
		runHook("decoherence", func() error { return t(node) })
	}
}

func (r *HookRegistry) notifyCreation(node *BranchNode, outcome string) {
	r.mu.RLock()
	observers := make([]CreationObserver, len(r.creation))
	copy(observers, r.creation)
	r.mu.RUnlock()

	for _, o := range observers {
		o := o
		runHook("creation", func() error { return o(node, outcome) })
	}
}

func (r *HookRegistry) notifyPostMeasurement(node *BranchNode, observable string) {
	r.mu.RLock()
	observers := make([]PostMeasurementObserver, len(r.postMeasurement))
	copy(observers, r.postMeasurement)
	r.mu.RUnlock()

	for _, o := range observers {
		o := o
		runHook("post-measurement", func() error { return o(node, observable) })
	}
}
