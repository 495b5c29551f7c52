package session

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/simdrive/simdrive/internal/sim"
)

func TestManualPolicy(t *testing.T) {
	t.Parallel()

	t.Run("steer in range, fixed throttle, no flags", func(t *testing.T) {
		t.Parallel()

		policy := NewManualPolicy(rand.New(rand.NewSource(1)))
		bundle := &sim.MeasurementBundle{}

		for i := 0; i < 1000; i++ {
			cmd := policy.Decide(bundle)
			assert.GreaterOrEqual(t, cmd.Steer, -1.0)
			assert.LessOrEqual(t, cmd.Steer, 1.0)
			assert.Equal(t, 0.3, cmd.Throttle)
			assert.False(t, cmd.Brake)
			assert.False(t, cmd.HandBrake)
			assert.False(t, cmd.Reverse)
		}
	})

	t.Run("deterministic for a fixed seed", func(t *testing.T) {
		t.Parallel()

		a := NewManualPolicy(rand.New(rand.NewSource(7)))
		b := NewManualPolicy(rand.New(rand.NewSource(7)))
		bundle := &sim.MeasurementBundle{}

		for i := 0; i < 50; i++ {
			assert.Equal(t, a.Decide(bundle), b.Decide(bundle))
		}
	})
}

func TestAutopilotRelayPolicy(t *testing.T) {
	t.Parallel()

	suggested := sim.ControlCommand{
		Steer:     0.4,
		Throttle:  0.8,
		Brake:     true,
		HandBrake: true,
		Reverse:   true,
	}
	bundle := &sim.MeasurementBundle{
		Player: sim.PlayerMeasurements{AutopilotControl: suggested},
	}

	t.Run("passes everything through except perturbed steer", func(t *testing.T) {
		t.Parallel()

		policy := NewAutopilotRelayPolicy(rand.New(rand.NewSource(3)))

		for i := 0; i < 1000; i++ {
			cmd := policy.Decide(bundle)
			noise := cmd.Steer - suggested.Steer
			assert.GreaterOrEqual(t, noise, -0.1)
			assert.LessOrEqual(t, noise, 0.1)
			assert.Equal(t, suggested.Throttle, cmd.Throttle)
			assert.Equal(t, suggested.Brake, cmd.Brake)
			assert.Equal(t, suggested.HandBrake, cmd.HandBrake)
			assert.Equal(t, suggested.Reverse, cmd.Reverse)
		}
	})

	t.Run("does not clamp the perturbed steer", func(t *testing.T) {
		t.Parallel()

		policy := NewAutopilotRelayPolicy(rand.New(rand.NewSource(5)))
		edge := &sim.MeasurementBundle{
			Player: sim.PlayerMeasurements{
				AutopilotControl: sim.ControlCommand{Steer: 1.0},
			},
		}

		over := false
		for i := 0; i < 1000; i++ {
			cmd := policy.Decide(edge)
			noise := cmd.Steer - 1.0
			assert.GreaterOrEqual(t, noise, -0.1)
			assert.LessOrEqual(t, noise, 0.1)
			if cmd.Steer > 1.0 {
				over = true
			}
		}
		assert.True(t, over, "perturbed steer should be allowed past 1.0")
	})
}

func TestUniform(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 1000; i++ {
		v := uniform(rng, -0.1, 0.1)
		assert.GreaterOrEqual(t, v, -0.1)
		assert.Less(t, v, 0.1)
	}
}
