package tension

// MinCalibrationSpan is the smallest extended-to-curled ratio range accepted
// when recording a finger.
const MinCalibrationSpan = 0.2

// Range is the span of ratios observed for one finger.
type Range struct {
	Current float64
	Min     float64
	Max     float64
	Seen    bool
}

// Span returns Max-Min, or zero before the first observation.
func (r Range) Span() float64 {
	if !r.Seen {
		return 0
	}
	return r.Max - r.Min
}

// Recorder tracks the extremes of each finger while the operator opens and
// closes the hand.
type Recorder struct {
	ranges map[Wire]Range
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{ranges: make(map[Wire]Range, 4)}
}

// Observe folds one set of ratios, as returned by Estimator.Ratios, into the
// recorded ranges.
func (r *Recorder) Observe(ratios map[Wire]float64) {
	for w, v := range ratios {
		rg := r.ranges[w]
		if !rg.Seen {
			rg = Range{Min: v, Max: v, Seen: true}
		}
		rg.Current = v
		rg.Min = min(rg.Min, v)
		rg.Max = max(rg.Max, v)
		r.ranges[w] = rg
	}
}

// Range returns the recorded range of w.
func (r *Recorder) Range(w Wire) Range {
	return r.ranges[w]
}

// Calibration returns base with every finger whose recorded span reaches
// MinCalibrationSpan replaced by its recorded extremes. The remaining
// fingers keep their base calibration and are returned as skipped.
func (r *Recorder) Calibration(base Calibration) (cal Calibration, skipped []Wire) {
	cal = make(Calibration, len(AllWires()))
	for _, w := range AllWires() {
		rg := r.ranges[w]
		if rg.Span() < MinCalibrationSpan {
			cal[w] = base.For(w)
			skipped = append(skipped, w)
			continue
		}
		cal[w] = FingerCalibration{Extended: rg.Max, Curled: rg.Min}
	}
	return cal, skipped
}
