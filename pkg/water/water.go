// Package water classifies field water-quality readings.
package water

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ashaboard/ashaboard/pkg/ranking"
)

// Quality is the classification of a reading or one of its parameters.
type Quality string

const (
	QualitySafe    Quality = "safe"
	QualityWarning Quality = "warning"
	QualityUnsafe  Quality = "unsafe"
)

// Condition is the visual state of the source noted by the field worker.
type Condition string

const (
	ConditionClean    Condition = "clean"
	ConditionMuddy    Condition = "muddy"
	ConditionStagnant Condition = "stagnant"
)

// Thresholds used by Classify.
const (
	TurbidityUnsafeNTU  = 5.0
	TurbidityWarningNTU = 2.0
	PHUnsafeLow         = 6.5
	PHUnsafeHigh        = 8.5
	PHWarningLow        = 7.0
	PHWarningHigh       = 8.0
	TemperatureWarningC = 30.0
)

// ParseCondition normalizes a textual condition. The empty string means
// not noted.
func ParseCondition(s string) (Condition, error) {
	c := Condition(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case "", ConditionClean, ConditionMuddy, ConditionStagnant:
		return c, nil
	}
	return "", fmt.Errorf("unknown source condition %q", s)
}

// Reading is a single water-quality measurement.
type Reading struct {
	Turbidity   float64   `json:"turbidity"`   // NTU
	PH          float64   `json:"pH"`          // 0-14
	Temperature float64   `json:"temperature"` // degrees Celsius
	Condition   Condition `json:"condition,omitempty"`
	TakenAt     time.Time `json:"takenAt,omitempty"`
	Location    string    `json:"location,omitempty"`
}

// Normalize folds the condition to its canonical lower-case form. Unknown
// conditions are left as they are for Validate to report.
func (r *Reading) Normalize() {
	if c, err := ParseCondition(string(r.Condition)); err == nil {
		r.Condition = c
	}
}

// Validate rejects physically impossible readings and conditions that are
// not in canonical form; call Normalize first on user input.
func (r Reading) Validate() error {
	var errs []error
	if r.Turbidity < 0 {
		errs = append(errs, fmt.Errorf("turbidity must be non-negative, got %g", r.Turbidity))
	}
	if r.PH < 0 || r.PH > 14 {
		errs = append(errs, fmt.Errorf("pH must be within 0-14, got %g", r.PH))
	}
	switch r.Condition {
	case "", ConditionClean, ConditionMuddy, ConditionStagnant:
	default:
		errs = append(errs, fmt.Errorf("unknown source condition %q", r.Condition))
	}
	return errors.Join(errs...)
}

// Assessment is the per-parameter and overall classification of a reading.
type Assessment struct {
	Overall     Quality `json:"overall"`
	Turbidity   Quality `json:"turbidity"`
	PH          Quality `json:"pH"`
	Temperature Quality `json:"temperature"`
}

// SourceStatus collapses the assessment onto the binary source status the
// ranking engine works with.
func (a Assessment) SourceStatus() ranking.SourceStatus {
	if a.Overall == QualitySafe {
		return ranking.SourceSafe
	}
	return ranking.SourceWarning
}

// Classify grades a reading. The overall grade only considers turbidity and
// pH; temperature is reported on its own.
func Classify(r Reading) Assessment {
	a := Assessment{
		Turbidity:   TurbidityQuality(r.Turbidity),
		PH:          PHQuality(r.PH),
		Temperature: TemperatureQuality(r.Temperature),
	}
	a.Overall = worst(a.Turbidity, a.PH)
	return a
}

// TurbidityQuality grades turbidity in NTU.
func TurbidityQuality(ntu float64) Quality {
	switch {
	case ntu > TurbidityUnsafeNTU:
		return QualityUnsafe
	case ntu > TurbidityWarningNTU:
		return QualityWarning
	default:
		return QualitySafe
	}
}

// PHQuality grades a pH value.
func PHQuality(ph float64) Quality {
	switch {
	case ph < PHUnsafeLow || ph > PHUnsafeHigh:
		return QualityUnsafe
	case ph < PHWarningLow || ph > PHWarningHigh:
		return QualityWarning
	default:
		return QualitySafe
	}
}

// TemperatureQuality grades water temperature in degrees Celsius.
func TemperatureQuality(c float64) Quality {
	if c > TemperatureWarningC {
		return QualityWarning
	}
	return QualitySafe
}

func severity(q Quality) int {
	switch q {
	case QualityUnsafe:
		return 2
	case QualityWarning:
		return 1
	default:
		return 0
	}
}

func worst(qs ...Quality) Quality {
	out := QualitySafe
	for _, q := range qs {
		if severity(q) > severity(out) {
			out = q
		}
	}
	return out
}
