package motor

import (
	"strconv"
	"strings"
	"time"

	"github.com/gwillem/origami/pkg/tension"
)

// Command is one speed command per wire.
type Command struct {
	Up    int `json:"up"`
	Down  int `json:"down"`
	Left  int `json:"left"`
	Right int `json:"right"`
}

// Get returns the command of w.
func (c Command) Get(w tension.Wire) int {
	switch w {
	case tension.Up:
		return c.Up
	case tension.Down:
		return c.Down
	case tension.Left:
		return c.Left
	case tension.Right:
		return c.Right
	}
	return 0
}

// String encodes the command in the wire format "up,down,left,right".
func (c Command) String() string {
	parts := make([]string, 0, 4)
	for _, w := range tension.AllWires() {
		parts = append(parts, strconv.Itoa(c.Get(w)))
	}
	return strings.Join(parts, ",")
}

// Writer accepts one command line. Implementations append the line
// terminator and must not block.
type Writer interface {
	Write(text string)
}

// Controller is a velocity controller: it commands winch speed in
// proportion to how fast each tension changes, never an absolute position.
type Controller struct {
	params Params
	out    Writer

	previous tension.Vector
	lastSend time.Time
	sent     bool
}

// NewController creates a controller writing to out.
func NewController(p Params, out Writer) *Controller {
	return &Controller{
		params: p,
		out:    out,
	}
}

// Due reports whether a command may be sent at now.
func (c *Controller) Due(now time.Time) bool {
	return !c.sent || now.Sub(c.lastSend) > c.params.SendInterval
}

// Compute returns the command for current without sending it or touching
// the previous snapshot.
func (c *Controller) Compute(current tension.Vector) Command {
	p := c.params
	return Command{
		Up:    p.Speed(current.Up, c.previous.Up),
		Down:  p.Speed(current.Down, c.previous.Down),
		Left:  p.Speed(current.Left, c.previous.Left),
		Right: p.Speed(current.Right, c.previous.Right),
	}
}

// MaybeSend sends a command when the send interval has elapsed. It returns
// the command and true if one was written.
func (c *Controller) MaybeSend(current tension.Vector, now time.Time) (Command, bool) {
	if !c.Due(now) {
		return Command{}, false
	}

	cmd := c.Compute(current)
	c.previous = current
	c.out.Write(cmd.String())
	c.lastSend = now
	c.sent = true
	return cmd, true
}

// Previous returns the tensions captured at the last send.
func (c *Controller) Previous() tension.Vector {
	return c.previous
}

// Stop returns the all-stop command.
func (c *Controller) Stop() Command {
	return c.params.Stop()
}
