package fracture

import "fracturelab/server/internal/engine"

// Kind is the bond/contact flavor a crack originated from, fixed at
// creation.
type Kind string

const (
	KindContactBonded  Kind = "contact-bonded"
	KindParallelBonded Kind = "parallel-bonded"
	KindFlatJointed    Kind = "flat-jointed"
	KindSmoothJointed  Kind = "smooth-jointed"
)

// kindForModel maps an engine contact model to the crack kind. The linear
// model carries no bond and therefore no kind.
func kindForModel(model engine.BondModel) (Kind, bool) {
	switch model {
	case engine.ModelContactBond:
		return KindContactBonded, true
	case engine.ModelParallelBond:
		return KindParallelBonded, true
	case engine.ModelFlatJoint:
		return KindFlatJointed, true
	case engine.ModelSmoothJoint:
		return KindSmoothJointed, true
	default:
		return "", false
	}
}

// FailureMode is the failure classification carried by the break event.
type FailureMode string

const (
	ModeTensile FailureMode = "tensile"
	ModeShear   FailureMode = "shear"
)

func modeForCode(code engine.FailureCode) (FailureMode, bool) {
	switch code {
	case engine.FailureTensile:
		return ModeTensile, true
	case engine.FailureShear:
		return ModeShear, true
	default:
		return "", false
	}
}

// FilterTag marks whether a crack's gap fell inside the threshold of the
// most recent filter pass. It is recomputed wholesale on every pass.
type FilterTag string

const (
	NotFiltered FilterTag = "none"
	Filtered    FilterTag = "filtered"
)
