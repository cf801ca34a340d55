package tension

import "fmt"

// Default wrist-to-fingertip ratios, in palm lengths.
const (
	DefaultExtended = 1.8
	DefaultCurled   = 0.7
)

// FingerCalibration holds the wrist-to-fingertip distance of one finger,
// measured in palm lengths, at full extension and in a fist.
type FingerCalibration struct {
	Extended float64 `json:"extended" mapstructure:"extended"`
	Curled   float64 `json:"curled" mapstructure:"curled"`
}

// Calibration holds calibration data for all fingers, keyed by the wire they drive.
type Calibration map[Wire]FingerCalibration

// DefaultCalibration returns the empirical ratios for every finger.
func DefaultCalibration() Calibration {
	cal := make(Calibration, 4)
	for _, w := range AllWires() {
		cal[w] = FingerCalibration{Extended: DefaultExtended, Curled: DefaultCurled}
	}
	return cal
}

// Normalize converts a fingertip ratio to a tension in [0,1]:
// Extended maps to 0 and Curled maps to 1.
func (c FingerCalibration) Normalize(ratio float64) float64 {
	rangeSize := c.Curled - c.Extended
	if rangeSize == 0 {
		return 0
	}
	return Clamp01((ratio - c.Extended) / rangeSize)
}

// Validate checks that the finger has a usable range.
func (c FingerCalibration) Validate() error {
	if c.Extended == c.Curled {
		return fmt.Errorf("extended and curled ratios are equal (%g)", c.Extended)
	}
	if c.Extended <= 0 || c.Curled <= 0 {
		return fmt.Errorf("ratios must be positive (extended %g, curled %g)", c.Extended, c.Curled)
	}
	return nil
}

// For returns the calibration of w, falling back to the defaults.
func (c Calibration) For(w Wire) FingerCalibration {
	if fc, ok := c[w]; ok {
		return fc
	}
	return FingerCalibration{Extended: DefaultExtended, Curled: DefaultCurled}
}

// Validate checks every finger present in the calibration.
func (c Calibration) Validate() error {
	for _, w := range AllWires() {
		fc, ok := c[w]
		if !ok {
			continue
		}
		if err := fc.Validate(); err != nil {
			return fmt.Errorf("finger %s: %w", w, err)
		}
	}
	return nil
}
