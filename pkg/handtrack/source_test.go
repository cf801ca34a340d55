package handtrack

import (
	"context"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestDecodeFrame(t *testing.T) {
	f, err := DecodeFrame([]byte(`{"hands":[{"keypoints":[{"x":1,"y":2},{"x":3.5,"y":4,"z":-1}],"handedness":"Right"}]}`))
	require.NoError(t, err)
	require.Len(t, f.Hands, 1)
	assert.Equal(t, "Right", f.Hands[0].Handedness)
	assert.Equal(t, Point{X: 3.5, Y: 4, Z: -1}, f.Hands[0].Keypoints[1])
	assert.False(t, f.Hands[0].Complete())

	_, err = DecodeFrame([]byte(`{"hands":`))
	assert.Error(t, err)
}

func TestPointDist2D(t *testing.T) {
	a := Point{X: 0, Y: 0, Z: 100}
	b := Point{X: 3, Y: 4, Z: -50}
	assert.InDelta(t, 5.0, a.Dist2D(b), 1e-9)
}

func TestSlotKeepsLatest(t *testing.T) {
	s := NewSlot()

	_, ok := s.Poll()
	assert.False(t, ok)

	s.Offer(Frame{Hands: []Hand{{Handedness: "first"}}})
	s.Offer(Frame{Hands: []Hand{{Handedness: "second"}}})

	f, ok := s.Poll()
	require.True(t, ok)
	assert.Equal(t, "second", f.Hands[0].Handedness)

	_, ok = s.Poll()
	assert.False(t, ok)
}

func TestReaderSource(t *testing.T) {
	defer goleak.VerifyNone(t)

	input := strings.Join([]string{
		`{"hands":[]}`,
		``,
		`not json`,
		`{"hands":[{"keypoints":[{"x":10,"y":20}]}]}`,
	}, "\n")

	src := NewReaderSource(strings.NewReader(input), zerolog.Nop())
	slot := NewSlot()

	require.NoError(t, src.Run(context.Background(), slot))
	assert.False(t, src.Ready())

	f, ok := slot.Poll()
	require.True(t, ok)
	require.Len(t, f.Hands, 1)
	assert.Equal(t, 10.0, f.Hands[0].Keypoints[0].X)
	assert.False(t, f.Received.IsZero())
}

func TestReaderSource_CancelClosesReader(t *testing.T) {
	pr, pw := io.Pipe()

	src := NewReaderSource(pr, zerolog.Nop())
	slot := NewSlot()

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- src.Run(ctx, slot) }()

	_, err := pw.Write([]byte(`{"hands":[{"keypoints":[{"x":1,"y":2}]}]}` + "\n"))
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		_, ok := slot.Poll()
		return ok
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("reader source did not stop")
	}
	assert.False(t, src.Ready())

	// the writer stays open, only closing the reader lets the scanner exit
	goleak.VerifyNone(t)
	pw.Close()
}

func TestUDPSource(t *testing.T) {
	defer goleak.VerifyNone(t)

	src := NewUDPSource("127.0.0.1:0", zerolog.Nop())
	slot := NewSlot()

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- src.Run(ctx, slot) }()

	require.Eventually(t, src.Ready, time.Second, 5*time.Millisecond)

	conn, err := net.Dial("udp", src.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte(`{"hands":[{"keypoints":[{"x":7,"y":8}]}]}`))
	require.NoError(t, err)

	var f Frame
	require.Eventually(t, func() bool {
		var ok bool
		f, ok = slot.Poll()
		return ok
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 7.0, f.Hands[0].Keypoints[0].X)

	cancel()
	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("udp source did not stop")
	}
}
