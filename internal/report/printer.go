// Package report renders the per-frame status line: player position in
// meters, speed, and lane-intersection percentages, overwritten in place.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/simdrive/simdrive/internal/sim"
)

const fallbackWidth = 80

// Printer writes one status line per frame, carriage-returning over the
// previous one and padding to the terminal width so stale characters never
// linger.
type Printer struct {
	out   io.Writer
	width func() int
}

// Option configures a Printer.
type Option func(*Printer)

// WithOutput redirects the printer, e.g. to a buffer in tests.
func WithOutput(out io.Writer) Option {
	return func(p *Printer) {
		p.out = out
	}
}

// WithWidth fixes the line width instead of querying the terminal.
func WithWidth(width int) Option {
	return func(p *Printer) {
		p.width = func() int { return width }
	}
}

// NewPrinter returns a Printer writing to stdout at the terminal's width.
func NewPrinter(opts ...Option) *Printer {
	p := &Printer{
		out:   os.Stdout,
		width: terminalWidth,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Print renders the status line for one measurement bundle.
func (p *Printer) Print(m *sim.PlayerMeasurements) {
	loc := MetersFromCentimeters(m.Transform.Location)
	line := fmt.Sprintf(
		"Vehicle at (%.1f, %.1f, %.1f) %.2f km/h, %.0f%% other lane, %.0f%% off-road",
		loc.X, loc.Y, loc.Z,
		m.ForwardSpeed,
		100*m.IntersectionOtherLane,
		100*m.IntersectionOffroad,
	)
	if pad := p.width() - len(line); pad > 0 {
		line += strings.Repeat(" ", pad)
	}
	fmt.Fprint(p.out, "\r"+line)
}

// Finish terminates the in-place line so subsequent output starts fresh.
func (p *Printer) Finish() {
	fmt.Fprintln(p.out)
}

// MetersFromCentimeters converts a wire position to display units.
func MetersFromCentimeters(cm sim.Vec3) sim.Vec3 {
	return sim.Vec3{X: cm.X / 100, Y: cm.Y / 100, Z: cm.Z / 100}
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return fallbackWidth
	}
	return width
}
