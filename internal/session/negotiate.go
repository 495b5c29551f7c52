// Package session drives episodes against the simulation server: it
// negotiates episode configuration, runs the synchronous per-frame
// read/control cycle, and restarts the whole session with backoff when the
// connection is lost.
package session

import (
	"math/rand"

	"github.com/simdrive/simdrive/internal/sim"
)

// Episode is the runtime state of one negotiated episode.
type Episode struct {
	Config     sim.EpisodeConfig
	Scene      sim.Scene
	StartIndex int
}

// ChooseStart selects a start spot uniformly at random. An empty scene
// yields index 0, the server's degenerate default spawn.
func ChooseStart(rng *rand.Rand, scene *sim.Scene) int {
	if len(scene.StartSpots) == 0 {
		return 0
	}
	return rng.Intn(len(scene.StartSpots))
}

// Negotiate submits cfg, chooses a start spot, and commits to it. It
// returns once the server acknowledges the episode has begun, after which
// frame stepping is legal on conn.
func Negotiate(conn sim.Conn, cfg sim.EpisodeConfig, rng *rand.Rand) (*Episode, error) {
	scene, err := conn.RequestNewEpisode(cfg)
	if err != nil {
		return nil, err
	}

	start := ChooseStart(rng, scene)
	if err := conn.StartEpisode(start); err != nil {
		return nil, err
	}

	return &Episode{Config: cfg, Scene: *scene, StartIndex: start}, nil
}
