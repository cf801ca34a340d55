package handtrack

// Slot holds at most one frame. A newer frame replaces an unread one, so the
// consumer always sees the latest complete frame and the producer never blocks.
type Slot struct {
	ch chan Frame
}

// NewSlot creates an empty slot.
func NewSlot() *Slot {
	return &Slot{ch: make(chan Frame, 1)}
}

// Offer stores f, dropping any frame that has not been read yet.
func (s *Slot) Offer(f Frame) {
	for {
		select {
		case s.ch <- f:
			return
		default:
		}
		select {
		case <-s.ch:
		default:
		}
	}
}

// Poll returns the pending frame, if any, without blocking.
func (s *Slot) Poll() (Frame, bool) {
	select {
	case f := <-s.ch:
		return f, true
	default:
		return Frame{}, false
	}
}
