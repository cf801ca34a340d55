package rig

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"go.bug.st/serial"
)

// ErrNoPort is returned by Connect when no serial port is configured.
var ErrNoPort = errors.New("no serial port configured")

const defaultQueueSize = 8

// Opener opens a byte stream to the controller board.
type Opener func(port string, baudRate int) (io.WriteCloser, error)

// OpenSerial opens port as 8N1 at baudRate.
func OpenSerial(port string, baudRate int) (io.WriteCloser, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(port, mode)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// LinkConfig configures a Link.
type LinkConfig struct {
	Port     string
	BaudRate int
	// QueueSize is the number of lines buffered for the writer. Lines
	// beyond it are dropped.
	QueueSize int
	Open      Opener
}

// Link is a fire-and-forget line writer to the winch controller board.
// Write never blocks; a background goroutine owns the port.
type Link struct {
	cfg    LinkConfig
	logger zerolog.Logger

	mu        sync.Mutex
	sess      *session
	connected atomic.Bool
	wg        sync.WaitGroup
}

type session struct {
	port     io.WriteCloser
	queue    chan string
	done     chan struct{}
	stopOnce sync.Once
	closeErr error
}

func (s *session) stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

// NewLink creates a disconnected link.
func NewLink(cfg LinkConfig, logger zerolog.Logger) *Link {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if cfg.Open == nil {
		cfg.Open = OpenSerial
	}
	return &Link{cfg: cfg, logger: logger}
}

// Port returns the configured port name.
func (l *Link) Port() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cfg.Port
}

// SetPort changes the port used by the next Connect.
func (l *Link) SetPort(port string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cfg.Port = port
}

// IsConnected reports whether commands are currently being delivered.
func (l *Link) IsConnected() bool {
	return l.connected.Load()
}

// Connect opens the port and starts the writer. Connecting an already
// connected link is a no-op.
func (l *Link) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.sess != nil {
		return nil
	}
	if l.cfg.Port == "" {
		return ErrNoPort
	}

	port, err := l.cfg.Open(l.cfg.Port, l.cfg.BaudRate)
	if err != nil {
		return fmt.Errorf("open %s: %w", l.cfg.Port, err)
	}

	s := &session{
		port:  port,
		queue: make(chan string, l.cfg.QueueSize),
		done:  make(chan struct{}),
	}
	l.sess = s
	l.connected.Store(true)

	l.wg.Add(1)
	go l.run(s)

	l.logger.Info().Str("port", l.cfg.Port).Int("baud", l.cfg.BaudRate).Msg("serial link connected")
	return nil
}

// Write queues text followed by a newline. It drops the line when the link
// is down or the queue is full.
func (l *Link) Write(text string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.sess == nil {
		return
	}
	select {
	case l.sess.queue <- text + "\n":
	default:
		l.logger.Debug().Str("line", text).Msg("serial queue full, dropping command")
	}
}

// Close flushes queued lines, stops the writer and closes the port.
func (l *Link) Close() error {
	return l.CloseWith("")
}

// CloseWith queues final as the last line and then closes the link like
// Close. Concurrent writes either precede final or are dropped, and a full
// queue gives up its oldest line for final. An empty final queues nothing.
func (l *Link) CloseWith(final string) error {
	l.mu.Lock()
	s := l.sess
	if s != nil && final != "" {
		// every producer holds l.mu, so the slot freed here stays free
		select {
		case s.queue <- final + "\n":
		default:
			select {
			case <-s.queue:
			default:
			}
			s.queue <- final + "\n"
		}
	}
	l.sess = nil
	l.connected.Store(false)
	l.mu.Unlock()

	if s == nil {
		return nil
	}
	s.stop()
	l.wg.Wait()
	l.logger.Info().Str("port", l.Port()).Msg("serial link closed")
	return s.closeErr
}

func (l *Link) run(s *session) {
	defer l.wg.Done()
	defer func() { s.closeErr = s.port.Close() }()

	for {
		select {
		case <-s.done:
			l.flush(s)
			return
		case line := <-s.queue:
			if _, err := io.WriteString(s.port, line); err != nil {
				l.logger.Warn().Err(err).Str("port", l.Port()).Msg("serial write failed, disconnecting")
				l.drop(s)
				return
			}
		}
	}
}

// flush writes whatever is still queued, typically the final stop command.
func (l *Link) flush(s *session) {
	for {
		select {
		case line := <-s.queue:
			if _, err := io.WriteString(s.port, line); err != nil {
				return
			}
		default:
			return
		}
	}
}

// drop forgets s after a write failure unless it was already replaced.
func (l *Link) drop(s *session) {
	l.mu.Lock()
	if l.sess == s {
		l.sess = nil
		l.connected.Store(false)
	}
	l.mu.Unlock()
}
