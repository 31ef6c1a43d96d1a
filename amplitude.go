// amplitude.go
package multiverse

import (
	"fmt"
	"math"
	"math/cmplx"
	"sort"
	"strings"
)

// Eps bounds every floating-point comparison in the engine: normalization
// checks, definite-state detection, and outcome filtering. Tunable in
// principle, but 1e-9 matches the precision the weight-conservation
// invariant is stated at.
const Eps = 1e-9

/*
AmplitudeState is an immutable mapping from basis-state labels to complex
amplitudes. Construction normalizes the amplitudes so that Σ|amp|² = 1;
every collapse operation produces a brand-new AmplitudeState rather than
mutating the receiver.
*/
type AmplitudeState struct {
	amplitudes map[string]complex128
}

// NewAmplitudeState copies and normalizes the given amplitudes. It fails on
// an all-zero state, or when normalization cannot reach unit probability.
func NewAmplitudeState(amplitudes map[string]complex128) (*AmplitudeState, error) {
	normSq := 0.0
	for _, amp := range amplitudes {
		normSq += real(amp)*real(amp) + imag(amp)*imag(amp)
	}
	if normSq < Eps {
		return nil, ErrZeroState
	}

	norm := complex(math.Sqrt(normSq), 0)
	normalized := make(map[string]complex128, len(amplitudes))
	checkSq := 0.0
	for label, amp := range amplitudes {
		scaled := amp / norm
		normalized[label] = scaled
		checkSq += real(scaled)*real(scaled) + imag(scaled)*imag(scaled)
	}
	if math.Abs(checkSq-1.0) > Eps {
		return nil, ErrNormalization
	}

	return &AmplitudeState{amplitudes: normalized}, nil
}

// NewUniformState builds an equal superposition (amplitude 1/√n each) over
// the given labels.
func NewUniformState(labels ...string) (*AmplitudeState, error) {
	amplitudes := make(map[string]complex128, len(labels))
	for _, label := range labels {
		amplitudes[label] = 1 + 0i
	}
	return NewAmplitudeState(amplitudes)
}

// Amplitude returns the amplitude of a single label, zero when absent.
func (s *AmplitudeState) Amplitude(label string) complex128 {
	return s.amplitudes[label]
}

// Labels returns the basis-state labels in sorted order.
func (s *AmplitudeState) Labels() []string {
	labels := make([]string, 0, len(s.amplitudes))
	for label := range s.amplitudes {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// Probabilities maps every label to its Born-rule probability |amp|².
func (s *AmplitudeState) Probabilities() map[string]float64 {
	probs := make(map[string]float64, len(s.amplitudes))
	for label, amp := range s.amplitudes {
		p := cmplx.Abs(amp)
		probs[label] = p * p
	}
	return probs
}

/*
IsDefinite reports whether the state has collapsed to a single basis state:
exactly one label with amplitude ≈ 1 and every other amplitude ≈ 0. When it
has, the label is returned; measuring such a state extracts no information.
*/
func (s *AmplitudeState) IsDefinite() (string, bool) {
	definite := ""
	found := false
	for label, amp := range s.amplitudes {
		switch {
		case cmplx.Abs(amp-1) < Eps:
			if found {
				return "", false
			}
			definite = label
			found = true
		case cmplx.Abs(amp) > Eps:
			return "", false
		}
	}
	return definite, found
}

// NumQubits returns the shared label length. Mismatched lengths are fatal
// for any subset operation.
func (s *AmplitudeState) NumQubits() (int, error) {
	n := -1
	for label := range s.amplitudes {
		if n < 0 {
			n = len(label)
			continue
		}
		if len(label) != n {
			return 0, fmt.Errorf("%w: %d vs %d", ErrLabelLength, n, len(label))
		}
	}
	if n < 0 {
		n = 0
	}
	return n, nil
}

func (s *AmplitudeState) checkSubset(qubits []int) (int, error) {
	n, err := s.NumQubits()
	if err != nil {
		return 0, err
	}
	for _, q := range qubits {
		if q < 0 || q >= n {
			return 0, fmt.Errorf("qubit index %d out of range for %d-qubit labels", q, n)
		}
	}
	return n, nil
}

// projectLabel extracts the sub-label at the given index positions.
func projectLabel(label string, qubits []int) string {
	var b strings.Builder
	for _, q := range qubits {
		b.WriteByte(label[q])
	}
	return b.String()
}

/*
SubsetProbabilities marginalizes the Born probabilities onto a subset of
label positions: every full label is projected onto the given indices and
its probability accumulated under the resulting sub-label. This is the
outcome distribution of a partial measurement over an entangled composite.
*/
func (s *AmplitudeState) SubsetProbabilities(qubits []int) (map[string]float64, error) {
	if _, err := s.checkSubset(qubits); err != nil {
		return nil, err
	}
	probs := make(map[string]float64)
	for label, amp := range s.amplitudes {
		p := cmplx.Abs(amp)
		probs[projectLabel(label, qubits)] += p * p
	}
	return probs, nil
}

// IsDefiniteSubset reports whether every label carrying amplitude projects
// to the same sub-label on the given indices.
func (s *AmplitudeState) IsDefiniteSubset(qubits []int) (string, bool) {
	if _, err := s.checkSubset(qubits); err != nil {
		return "", false
	}
	common := ""
	found := false
	for label, amp := range s.amplitudes {
		if cmplx.Abs(amp) <= Eps {
			continue
		}
		sub := projectLabel(label, qubits)
		if found && sub != common {
			return "", false
		}
		common = sub
		found = true
	}
	return common, found
}

// CollapseTo produces the post-measurement state for a whole-system
// outcome: amplitude 1 on the outcome label, 0 elsewhere, over the same
// label set.
func (s *AmplitudeState) CollapseTo(outcome string) (*AmplitudeState, error) {
	if _, ok := s.amplitudes[outcome]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoSurvivors, outcome)
	}
	collapsed := make(map[string]complex128, len(s.amplitudes))
	for label := range s.amplitudes {
		if label == outcome {
			collapsed[label] = 1 + 0i
		} else {
			collapsed[label] = 0
		}
	}
	return NewAmplitudeState(collapsed)
}

/*
CollapseOnSubset keeps only the basis states whose projection onto the
given indices matches the measured outcome, then renormalizes. The
surviving amplitudes preserve their relative phases, which is what keeps
the unmeasured part of an entangled composite intact.
*/
func (s *AmplitudeState) CollapseOnSubset(qubits []int, outcome string) (*AmplitudeState, error) {
	if _, err := s.checkSubset(qubits); err != nil {
		return nil, err
	}
	survivors := make(map[string]complex128)
	for label, amp := range s.amplitudes {
		if projectLabel(label, qubits) == outcome {
			survivors[label] = amp
		}
	}
	if len(survivors) == 0 {
		return nil, fmt.Errorf("%w: outcome %q on qubits %v", ErrNoSurvivors, outcome, qubits)
	}
	return NewAmplitudeState(survivors)
}

func (s *AmplitudeState) String() string {
	parts := make([]string, 0, len(s.amplitudes))
	for _, label := range s.Labels() {
		amp := s.amplitudes[label]
		sign := "+"
		if imag(amp) < 0 {
			sign = ""
		}
		parts = append(parts, fmt.Sprintf("%s: %.3f%s%.3fi", label, real(amp), sign, imag(amp)))
	}
	return "AmplitudeState(" + strings.Join(parts, ", ") + ")"
}
