package ranking

import "fmt"

// Weights holds the per-item risk contributions.
type Weights struct {
	OpenCase      int `yaml:"open_case" json:"open_case"`           // each non-resolved case
	WarningSource int `yaml:"warning_source" json:"warning_source"` // each warning-status water source
}

// DefaultWeights returns the standard weighting: water risk counts twice as
// much as an open case.
func DefaultWeights() Weights {
	return Weights{
		OpenCase:      1,
		WarningSource: 2,
	}
}

// Validate rejects weights that would let a contributing village score zero.
func (w Weights) Validate() error {
	if w.OpenCase <= 0 {
		return fmt.Errorf("open case weight must be positive, got %d", w.OpenCase)
	}
	if w.WarningSource <= 0 {
		return fmt.Errorf("warning source weight must be positive, got %d", w.WarningSource)
	}
	return nil
}
