// Package console implements the interactive line console: a small command
// loop for poking the server one protocol call at a time. Synchronous
// stepping is forced on; the strict read/control alternation the server
// expects is the operator's responsibility here.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/simdrive/simdrive/internal/config"
	"github.com/simdrive/simdrive/internal/report"
	"github.com/simdrive/simdrive/internal/session"
	"github.com/simdrive/simdrive/internal/sim"
)

// Console is an interactive session with the server.
type Console struct {
	in      io.Reader
	out     io.Writer
	dial    session.Dialer
	episode *config.Episode
	rng     *rand.Rand

	conn  sim.Conn
	scene *sim.Scene
}

// Options configures a Console.
type Options struct {
	In      io.Reader
	Out     io.Writer
	Dial    session.Dialer
	Episode *config.Episode

	// Rand drives weather/seed/start-spot choices. Time-seeded when nil.
	Rand *rand.Rand
}

// New returns a console reading commands from opts.In.
func New(opts Options) *Console {
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Console{
		in:      opts.In,
		out:     opts.Out,
		dial:    opts.Dial,
		episode: opts.Episode,
		rng:     rng,
	}
}

// Run executes the command loop until EOF, "quit", or context cancellation.
// The connection, if open, is released before returning.
func (c *Console) Run(ctx context.Context) error {
	defer c.disconnect()

	fmt.Fprintln(c.out, `simdrive console; type "help" for commands`)
	scanner := bufio.NewScanner(c.in)

	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(c.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(c.out)
			return scanner.Err()
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "quit" || fields[0] == "exit" {
			return nil
		}
		if err := c.dispatch(ctx, fields[0], fields[1:]); err != nil {
			fmt.Fprintf(c.out, "error: %v\n", err)
		}
	}
}

func (c *Console) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "help":
		c.printHelp()
		return nil
	case "connect":
		return c.connect(ctx)
	case "disconnect":
		c.disconnect()
		return nil
	case "newepisode":
		return c.newEpisode()
	case "start":
		return c.start(args)
	case "read":
		return c.read()
	case "control":
		return c.control(args)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (c *Console) printHelp() {
	fmt.Fprint(c.out, `commands:
  connect              open a session with the server
  disconnect           close the session
  newepisode           submit episode settings, list start spots
  start [index]        begin the episode (random start spot if omitted)
  read                 read one frame of measurements
  control [k=v ...]    send a control (steer, throttle, brake, hand_brake, reverse)
  quit                 leave the console
`)
}

func (c *Console) connect(ctx context.Context) error {
	if c.conn != nil {
		return fmt.Errorf("already connected")
	}
	conn, err := c.dial(ctx)
	if err != nil {
		return err
	}
	c.conn = conn
	fmt.Fprintln(c.out, "connected")
	return nil
}

func (c *Console) disconnect() {
	if c.conn == nil {
		return
	}
	c.conn.Close()
	c.conn = nil
	c.scene = nil
}

func (c *Console) newEpisode() error {
	if c.conn == nil {
		return fmt.Errorf("not connected")
	}
	cfg := c.episode.Build(c.rng)
	cfg.SynchronousMode = true
	scene, err := c.conn.RequestNewEpisode(cfg)
	if err != nil {
		return err
	}
	c.scene = scene
	fmt.Fprintf(c.out, "scene with %d start spots (weather %d)\n",
		len(scene.StartSpots), cfg.WeatherID)
	return nil
}

func (c *Console) start(args []string) error {
	if c.conn == nil {
		return fmt.Errorf("not connected")
	}
	if c.scene == nil {
		return fmt.Errorf("no negotiated episode; run newepisode first")
	}

	index := session.ChooseStart(c.rng, c.scene)
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("bad start index %q", args[0])
		}
		index = n
	}

	if err := c.conn.StartEpisode(index); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "episode started at spot %d\n", index)
	return nil
}

func (c *Console) read() error {
	if c.conn == nil {
		return fmt.Errorf("not connected")
	}
	bundle, sensors, err := c.conn.ReadMeasurements()
	if err != nil {
		return err
	}

	loc := report.MetersFromCentimeters(bundle.Player.Transform.Location)
	fmt.Fprintf(c.out, "frame %d: at (%.1f, %.1f, %.1f) %.2f km/h, %d sensor frames\n",
		bundle.FrameNumber, loc.X, loc.Y, loc.Z, bundle.Player.ForwardSpeed, len(sensors))
	return nil
}

func (c *Console) control(args []string) error {
	if c.conn == nil {
		return fmt.Errorf("not connected")
	}

	var cmd sim.ControlCommand
	for _, arg := range args {
		key, value, found := strings.Cut(arg, "=")
		if !found {
			value = "true"
		}
		if err := setControlField(&cmd, key, value); err != nil {
			return err
		}
	}
	return c.conn.SendControl(cmd)
}

func setControlField(cmd *sim.ControlCommand, key, value string) error {
	switch key {
	case "steer", "throttle":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("bad value %q for %s", value, key)
		}
		if key == "steer" {
			cmd.Steer = f
		} else {
			cmd.Throttle = f
		}
	case "brake", "hand_brake", "reverse":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("bad value %q for %s", value, key)
		}
		switch key {
		case "brake":
			cmd.Brake = b
		case "hand_brake":
			cmd.HandBrake = b
		case "reverse":
			cmd.Reverse = b
		}
	default:
		return fmt.Errorf("unknown control field %q", key)
	}
	return nil
}
