package fracture

// Counts carries the running bucket totals, incremented exactly once per
// crack at creation. Total always equals the sum of the eight buckets.
type Counts struct {
	ContactBondTensile  uint64 `json:"contactBondTensile"`
	ContactBondShear    uint64 `json:"contactBondShear"`
	ParallelBondTensile uint64 `json:"parallelBondTensile"`
	ParallelBondShear   uint64 `json:"parallelBondShear"`
	FlatJointTensile    uint64 `json:"flatJointTensile"`
	FlatJointShear      uint64 `json:"flatJointShear"`
	SmoothJointTensile  uint64 `json:"smoothJointTensile"`
	SmoothJointShear    uint64 `json:"smoothJointShear"`
	Total               uint64 `json:"total"`
}

func (c *Counts) bucket(kind Kind, mode FailureMode) *uint64 {
	tensile := mode == ModeTensile
	switch kind {
	case KindContactBonded:
		if tensile {
			return &c.ContactBondTensile
		}
		return &c.ContactBondShear
	case KindParallelBonded:
		if tensile {
			return &c.ParallelBondTensile
		}
		return &c.ParallelBondShear
	case KindFlatJointed:
		if tensile {
			return &c.FlatJointTensile
		}
		return &c.FlatJointShear
	case KindSmoothJointed:
		if tensile {
			return &c.SmoothJointTensile
		}
		return &c.SmoothJointShear
	}
	return nil
}

func (c *Counts) record(kind Kind, mode FailureMode) {
	if b := c.bucket(kind, mode); b != nil {
		*b++
		c.Total++
	}
}

// Sum adds the eight buckets, used to cross-check Total.
func (c Counts) Sum() uint64 {
	return c.ContactBondTensile + c.ContactBondShear +
		c.ParallelBondTensile + c.ParallelBondShear +
		c.FlatJointTensile + c.FlatJointShear +
		c.SmoothJointTensile + c.SmoothJointShear
}
