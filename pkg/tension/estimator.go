package tension

import (
	"math"

	"github.com/gwillem/origami/pkg/handtrack"
)

// DefaultMinPalmSize is the smallest wrist-to-middle-base distance, in
// landmark units, for which a frame is trusted.
const DefaultMinPalmSize = 10.0

// Estimator maps finger flexion to wire tensions.
type Estimator struct {
	cal     Calibration
	minPalm float64
}

// NewEstimator creates an estimator. A non-positive minPalm uses DefaultMinPalmSize.
func NewEstimator(cal Calibration, minPalm float64) *Estimator {
	if cal == nil {
		cal = DefaultCalibration()
	}
	if minPalm <= 0 {
		minPalm = DefaultMinPalmSize
	}
	return &Estimator{cal: cal, minPalm: minPalm}
}

// Ratios returns the wrist-to-fingertip distance of each tracked finger in
// palm lengths. It returns false for incomplete hands, for palms too
// small to measure reliably and for non-finite coordinates.
func (e *Estimator) Ratios(hand handtrack.Hand) (map[Wire]float64, bool) {
	if !hand.Complete() {
		return nil, false
	}

	wrist := hand.Keypoints[handtrack.Wrist]
	palmSize := wrist.Dist2D(hand.Keypoints[handtrack.MiddleBase])
	if !finite(palmSize) || palmSize < e.minPalm {
		return nil, false
	}

	ratios := make(map[Wire]float64, 4)
	for _, w := range AllWires() {
		tip := hand.Keypoints[w.Fingertip()]
		r := wrist.Dist2D(tip) / palmSize
		if !finite(r) {
			return nil, false
		}
		ratios[w] = r
	}
	return ratios, true
}

// Update writes the tensions measured from hand into v. A rejected frame
// leaves v untouched and returns false.
func (e *Estimator) Update(hand handtrack.Hand, v *Vector) bool {
	ratios, ok := e.Ratios(hand)
	if !ok {
		return false
	}
	for w, r := range ratios {
		v.Set(w, e.cal.For(w).Normalize(r))
	}
	return true
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
