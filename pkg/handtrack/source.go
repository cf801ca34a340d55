package handtrack

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"
)

const maxFrameSize = 64 * 1024

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DecodeFrame parses one JSON frame of the form
// {"hands":[{"keypoints":[{"x":..,"y":..},...]}]}.
func DecodeFrame(data []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, fmt.Errorf("decode frame: %w", err)
	}
	return f, nil
}

// ReaderSource reads newline-delimited JSON frames, typically the stdout of a
// landmark process piped into the rig. If the reader is an io.Closer it is
// closed when the context is done so a pending read can return. Run does not
// wait for that read: a reader whose Close does not interrupt Read (a
// blocking terminal fd) parks the scanning goroutine until input arrives.
type ReaderSource struct {
	r      io.Reader
	logger zerolog.Logger
	ready  atomic.Bool
}

// NewReaderSource creates a source reading frames from r.
func NewReaderSource(r io.Reader, logger zerolog.Logger) *ReaderSource {
	return &ReaderSource{r: r, logger: logger}
}

// Ready reports whether the source is consuming input.
func (s *ReaderSource) Ready() bool {
	return s.ready.Load()
}

// Run reads frames until EOF, a read error, or ctx cancellation.
func (s *ReaderSource) Run(ctx context.Context, out *Slot) error {
	s.ready.Store(true)
	defer s.ready.Store(false)

	lines := make(chan []byte)
	errc := make(chan error, 1)

	if c, ok := s.r.(io.Closer); ok {
		stop := context.AfterFunc(ctx, func() { c.Close() })
		defer stop()
	}

	go func() {
		sc := bufio.NewScanner(s.r)
		sc.Buffer(make([]byte, 0, 4096), maxFrameSize)
		for sc.Scan() {
			line := append([]byte(nil), sc.Bytes()...)
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		errc <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line := <-lines:
			publish(line, out, s.logger)
		case err := <-errc:
			if err != nil {
				return fmt.Errorf("read frames: %w", err)
			}
			return nil
		}
	}
}

// UDPSource receives one JSON frame per datagram.
type UDPSource struct {
	addr   string
	logger zerolog.Logger

	mu    sync.Mutex
	bound net.Addr
	ready atomic.Bool
}

// NewUDPSource creates a source listening on addr (host:port).
func NewUDPSource(addr string, logger zerolog.Logger) *UDPSource {
	return &UDPSource{addr: addr, logger: logger}
}

// Ready reports whether the socket is bound.
func (s *UDPSource) Ready() bool {
	return s.ready.Load()
}

// Addr returns the bound address, or nil before Run has bound the socket.
func (s *UDPSource) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bound
}

// Run listens until ctx is cancelled.
func (s *UDPSource) Run(ctx context.Context, out *Slot) error {
	conn, err := net.ListenPacket("udp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}

	s.mu.Lock()
	s.bound = conn.LocalAddr()
	s.mu.Unlock()
	s.ready.Store(true)
	defer s.ready.Store(false)

	s.logger.Info().Str("addr", conn.LocalAddr().String()).Msg("hand landmark source listening")

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		conn.Close()
	}()

	buf := make([]byte, maxFrameSize)
	for {
		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("read datagram: %w", err)
		}
		publish(buf[:n], out, s.logger)
	}
}

func publish(data []byte, out *Slot, logger zerolog.Logger) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return
	}
	f, err := DecodeFrame(data)
	if err != nil {
		logger.Debug().Err(err).Msg("dropping landmark frame")
		return
	}
	f.Received = time.Now()
	out.Offer(f)
}
