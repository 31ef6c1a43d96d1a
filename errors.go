package multiverse

import "errors"

// Fatal engine errors. Every one of these indicates a programming or
// numerical-precision bug upstream, never a transient fault, so there is no
// retry machinery anywhere in the engine.
var (
	ErrZeroState       = errors.New("all amplitudes are zero, cannot normalize")
	ErrNormalization   = errors.New("normalization failed: probabilities do not sum to 1.0")
	ErrLabelLength     = errors.New("basis-state labels have mismatched lengths")
	ErrNoSurvivors     = errors.New("collapse left no surviving basis states")
	ErrNoPendingBranch = errors.New("no pending branch for outcome")
	ErrTrailDepth      = errors.New("travel exceeds observer trail depth")
)
