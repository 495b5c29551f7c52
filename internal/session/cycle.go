package session

import (
	"github.com/simdrive/simdrive/internal/sim"
)

// cycleState tracks where a Cycle is in its strict read/write alternation.
type cycleState int

const (
	awaitingRead cycleState = iota
	awaitingWrite
	episodeDone
)

func (s cycleState) String() string {
	switch s {
	case awaitingRead:
		return "awaiting-read"
	case awaitingWrite:
		return "awaiting-write"
	case episodeDone:
		return "episode-done"
	default:
		return "unknown"
	}
}

// Cycle runs the synchronous stepping loop for one episode: exactly one
// measurement read followed by exactly one control write per frame, for a
// fixed frame budget. Calling Read or Write out of turn is a contract
// violation, surfaced as a fatal sim.Error that the orchestrator never
// retries.
type Cycle struct {
	conn   sim.Conn
	budget int
	frame  int
	state  cycleState
}

// NewCycle returns a cycle for one episode of frames many steps. A
// non-positive budget yields an already-done cycle.
func NewCycle(conn sim.Conn, frames int) *Cycle {
	c := &Cycle{conn: conn, budget: frames}
	if frames <= 0 {
		c.state = episodeDone
	}
	return c
}

// Frame returns the number of completed reads.
func (c *Cycle) Frame() int {
	return c.frame
}

// Done reports whether the episode's frame budget is exhausted.
func (c *Cycle) Done() bool {
	return c.state == episodeDone
}

// Read blocks for the current frame's measurements. Legal only when the
// cycle is awaiting a read.
func (c *Cycle) Read() (*sim.MeasurementBundle, []sim.SensorFrame, error) {
	if c.state != awaitingRead {
		return nil, nil, sim.Errorf(sim.KindContract, "read_measurements",
			"read in state %s", c.state)
	}

	bundle, frames, err := c.conn.ReadMeasurements()
	if err != nil {
		return nil, nil, err
	}

	c.frame++
	c.state = awaitingWrite
	return bundle, frames, nil
}

// Write sends the control command for the frame most recently read. Legal
// only when the cycle is awaiting a write.
func (c *Cycle) Write(cmd sim.ControlCommand) error {
	if c.state != awaitingWrite {
		return sim.Errorf(sim.KindContract, "send_control",
			"write in state %s", c.state)
	}

	if err := c.conn.SendControl(cmd); err != nil {
		return err
	}

	if c.frame >= c.budget {
		c.state = episodeDone
	} else {
		c.state = awaitingRead
	}
	return nil
}
