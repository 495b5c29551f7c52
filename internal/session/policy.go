package session

import (
	"math/rand"

	"github.com/simdrive/simdrive/internal/sim"
)

// Policy produces the control command for a frame from its measurement
// bundle. Implementations are pure decision functions with no I/O; the
// random source is injected so decisions are reproducible under test.
type Policy interface {
	Decide(m *sim.MeasurementBundle) sim.ControlCommand
}

// Fixed throttle applied by the manual policy.
const manualThrottle = 0.3

// ManualPolicy steers uniformly at random in [-1, 1] with a fixed throttle.
type ManualPolicy struct {
	rng *rand.Rand
}

// NewManualPolicy returns a manual policy drawing from rng.
func NewManualPolicy(rng *rand.Rand) *ManualPolicy {
	return &ManualPolicy{rng: rng}
}

// Decide ignores the measurements and returns a random-steer command.
func (p *ManualPolicy) Decide(_ *sim.MeasurementBundle) sim.ControlCommand {
	return sim.ControlCommand{
		Steer:    uniform(p.rng, -1.0, 1.0),
		Throttle: manualThrottle,
	}
}

// AutopilotRelayPolicy echoes the server-suggested control back with
// uniform steering noise in [-0.1, 0.1]. The perturbed steer is sent as-is,
// without clamping back into [-1, 1]; wrap the policy if saturation is
// needed.
type AutopilotRelayPolicy struct {
	rng *rand.Rand
}

// NewAutopilotRelayPolicy returns a relay policy drawing noise from rng.
func NewAutopilotRelayPolicy(rng *rand.Rand) *AutopilotRelayPolicy {
	return &AutopilotRelayPolicy{rng: rng}
}

// Decide returns the bundle's suggested command with perturbed steer.
func (p *AutopilotRelayPolicy) Decide(m *sim.MeasurementBundle) sim.ControlCommand {
	cmd := m.Player.AutopilotControl
	cmd.Steer += uniform(p.rng, -0.1, 0.1)
	return cmd
}

// uniform draws from [lo, hi).
func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
