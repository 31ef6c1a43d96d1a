package multiverse

import (
	"fmt"
	"math/cmplx"
)

/*
PhaseDamping builds a decoherence transform that shrinks every amplitude's
phase toward zero by the given rate, leaving magnitudes (and therefore
Born probabilities and branch weights) untouched. It is an example model
for the decoherence extension point, not an endorsement of any particular
physical channel; register it like any other transform:

	hooks := NewHookRegistry()
	hooks.RegisterDecoherenceModel(PhaseDamping(0.01))
*/
func PhaseDamping(rate float64) DecoherenceTransform {
	return func(node *BranchNode) error {
		if rate <= 0 {
			return nil
		}
		if rate > 1 {
			return fmt.Errorf("phase damping rate %v out of range (0,1]", rate)
		}
		damped := make(map[string]complex128, len(node.system.amplitudes))
		for label, amp := range node.system.amplitudes {
			r, theta := cmplx.Polar(amp)
			damped[label] = cmplx.Rect(r, theta*(1-rate))
		}
		state, err := NewAmplitudeState(damped)
		if err != nil {
			return fmt.Errorf("phase damping: %w", err)
		}
		node.system = state
		return nil
	}
}
