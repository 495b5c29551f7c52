package session

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/simdrive/simdrive/internal/logging"
	"github.com/simdrive/simdrive/internal/sim"
)

// DefaultBackoff is the pause between session restarts.
const DefaultBackoff = time.Second

// Dialer opens a fresh connection to the server. The orchestrator calls it
// once per session attempt.
type Dialer func(ctx context.Context) (sim.Conn, error)

// ConfigFunc builds the configuration for one episode. Called once per
// episode so weather and placement seeds can be re-drawn each time.
type ConfigFunc func(rng *rand.Rand) sim.EpisodeConfig

// FrameEvent is delivered to the frame observer after every successful
// read, before the corresponding control write.
type FrameEvent struct {
	Episode int
	Frame   int
	Bundle  *sim.MeasurementBundle
	Sensors []sim.SensorFrame
}

// Options configures an Orchestrator.
type Options struct {
	Dial          Dialer
	Policy        Policy
	EpisodeConfig ConfigFunc
	Episodes      int
	Frames        int

	// Backoff between session restarts. DefaultBackoff when zero.
	Backoff time.Duration

	// Rand drives start-spot choice and episode config randomization.
	// A time-seeded source is used when nil.
	Rand *rand.Rand

	// Log receives session lifecycle and failure messages. The package
	// default logger is used when nil.
	Log *logging.Logger

	// OnConnect, when set, is called after each successful connect.
	OnConnect func()

	// OnFrame, when set, is called for every frame read.
	OnFrame func(FrameEvent)
}

// Orchestrator runs a configured number of episodes over one connection and
// restarts the whole session, unboundedly and with fixed backoff, whenever
// a connection or protocol error surfaces. Contract violations abort
// instead, and an external termination request exits cleanly without
// retrying.
type Orchestrator struct {
	opts Options
	rng  *rand.Rand
	log  *logging.Logger
}

// New returns an orchestrator for the given options.
func New(opts Options) *Orchestrator {
	o := &Orchestrator{opts: opts, rng: opts.Rand, log: opts.Log}
	if o.opts.Backoff <= 0 {
		o.opts.Backoff = DefaultBackoff
	}
	if o.rng == nil {
		o.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if o.log == nil {
		o.log = logging.Default()
	}
	return o
}

// Run drives session attempts until one completes all episodes, a contract
// violation surfaces, or ctx is canceled. Cancellation returns a
// sim.Error of kind termination; callers treat it as a clean exit.
func (o *Orchestrator) Run(ctx context.Context) error {
	for {
		err := o.runSession(ctx)
		if err == nil {
			return nil
		}

		var se *sim.Error
		if errors.As(err, &se) && se.Kind == sim.KindTermination {
			return err
		}
		if !sim.Retryable(err) {
			// Contract violation: a programming defect, never retried.
			return err
		}

		o.log.Error("session failed, restarting", "err", err)

		select {
		case <-ctx.Done():
			return sim.NewError(sim.KindTermination, "backoff", ctx.Err())
		case <-time.After(o.opts.Backoff):
		}
	}
}

// runSession performs one full session attempt: connect, then run every
// episode to completion. The connection is released on every exit path.
func (o *Orchestrator) runSession(ctx context.Context) error {
	conn, err := o.opts.Dial(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if o.opts.OnConnect != nil {
		o.opts.OnConnect()
	}
	o.log.Info("connected")

	for ep := 0; ep < o.opts.Episodes; ep++ {
		// Termination is observed between episodes, never mid-call.
		if ctx.Err() != nil {
			return sim.NewError(sim.KindTermination, "session", ctx.Err())
		}
		if err := o.runEpisode(conn, ep); err != nil {
			return err
		}
	}
	return nil
}

// runEpisode negotiates one episode and drives its frame cycle.
func (o *Orchestrator) runEpisode(conn sim.Conn, ep int) error {
	cfg := o.opts.EpisodeConfig(o.rng)

	o.log.Info("requesting new episode", "episode", ep)
	episode, err := Negotiate(conn, cfg, o.rng)
	if err != nil {
		return err
	}
	o.log.Debug("episode started",
		"episode", ep,
		"start_index", episode.StartIndex,
		"start_spots", len(episode.Scene.StartSpots))

	cycle := NewCycle(conn, o.opts.Frames)
	for !cycle.Done() {
		bundle, sensors, err := cycle.Read()
		if err != nil {
			return err
		}

		if o.opts.OnFrame != nil {
			o.opts.OnFrame(FrameEvent{
				Episode: ep,
				Frame:   cycle.Frame() - 1,
				Bundle:  bundle,
				Sensors: sensors,
			})
		}

		if err := cycle.Write(o.opts.Policy.Decide(bundle)); err != nil {
			return err
		}
	}
	return nil
}
