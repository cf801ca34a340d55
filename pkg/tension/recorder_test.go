package tension

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_TracksExtremes(t *testing.T) {
	r := NewRecorder()
	assert.False(t, r.Range(Up).Seen)
	assert.Equal(t, 0.0, r.Range(Up).Span())

	r.Observe(map[Wire]float64{Up: 1.2, Down: 1.0})
	r.Observe(map[Wire]float64{Up: 1.9, Down: 1.05})
	r.Observe(map[Wire]float64{Up: 0.65, Down: 1.02})

	up := r.Range(Up)
	assert.True(t, up.Seen)
	assert.Equal(t, 0.65, up.Current)
	assert.Equal(t, 0.65, up.Min)
	assert.Equal(t, 1.9, up.Max)
	assert.InDelta(t, 1.25, up.Span(), 1e-9)

	assert.InDelta(t, 0.05, r.Range(Down).Span(), 1e-9)
}

func TestRecorder_Calibration(t *testing.T) {
	r := NewRecorder()
	r.Observe(map[Wire]float64{Up: 2.0, Down: 1.7, Left: 1.0})
	r.Observe(map[Wire]float64{Up: 0.6, Down: 0.8, Left: 1.1})

	base := Calibration{Left: FingerCalibration{Extended: 1.9, Curled: 0.75}}
	cal, skipped := r.Calibration(base)

	assert.Equal(t, FingerCalibration{Extended: 2.0, Curled: 0.6}, cal[Up])
	assert.Equal(t, FingerCalibration{Extended: 1.7, Curled: 0.8}, cal[Down])
	assert.Equal(t, FingerCalibration{Extended: 1.9, Curled: 0.75}, cal[Left])
	assert.Equal(t, FingerCalibration{Extended: DefaultExtended, Curled: DefaultCurled}, cal[Right])
	assert.Equal(t, []Wire{Left, Right}, skipped)
	require.NoError(t, cal.Validate())

	// base is left untouched
	assert.Len(t, base, 1)
}
