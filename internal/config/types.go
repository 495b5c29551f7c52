// Package config holds the client's validated configuration: connection and
// run parameters from flags, and episode settings that can be overlaid from
// a YAML file instead of being constructed in code.
package config

import (
	"math/rand"

	"github.com/simdrive/simdrive/internal/sim"
)

// Client is the flag-level configuration for a run.
type Client struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Episodes     int    `yaml:"episodes"`
	Frames       int    `yaml:"frames_per_episode"`
	Autopilot    bool   `yaml:"autopilot"`
	ImagesToDisk bool   `yaml:"images_to_disk"`
	ImageDir     string `yaml:"image_dir"`
}

// Camera mirrors sim.Camera with YAML tags for the settings file.
type Camera struct {
	Name           string  `yaml:"name"`
	Kind           string  `yaml:"kind"`
	PostProcessing string  `yaml:"post_processing"`
	ImageWidth     int     `yaml:"image_width"`
	ImageHeight    int     `yaml:"image_height"`
	PositionX      float64 `yaml:"position_x_cm"`
	PositionY      float64 `yaml:"position_y_cm"`
	PositionZ      float64 `yaml:"position_z_cm"`
}

// Episode is the settings template for episodes. Weather is drawn from
// WeatherChoices and the placement seed pair is re-randomized each time an
// episode config is built from it.
type Episode struct {
	SynchronousMode     *bool    `yaml:"synchronous_mode"`
	NumberOfVehicles    int      `yaml:"number_of_vehicles"`
	NumberOfPedestrians int      `yaml:"number_of_pedestrians"`
	WeatherChoices      []int    `yaml:"weather_choices"`
	Cameras             []Camera `yaml:"cameras"`
}

// Build materializes one immutable episode configuration from the template,
// drawing the weather and the seed pair from rng.
func (e *Episode) Build(rng *rand.Rand) sim.EpisodeConfig {
	sync := true
	if e.SynchronousMode != nil {
		sync = *e.SynchronousMode
	}

	weather := sim.WeatherDefault
	if len(e.WeatherChoices) > 0 {
		weather = e.WeatherChoices[rng.Intn(len(e.WeatherChoices))]
	}

	cameras := make([]sim.Camera, len(e.Cameras))
	for i, cam := range e.Cameras {
		cameras[i] = sim.Camera{
			Name:           cam.Name,
			Kind:           cam.Kind,
			PostProcessing: cam.PostProcessing,
			ImageWidth:     cam.ImageWidth,
			ImageHeight:    cam.ImageHeight,
			Position:       sim.Vec3{X: cam.PositionX, Y: cam.PositionY, Z: cam.PositionZ},
		}
	}

	cfg := sim.EpisodeConfig{
		SynchronousMode:     sync,
		NumberOfVehicles:    e.NumberOfVehicles,
		NumberOfPedestrians: e.NumberOfPedestrians,
		WeatherID:           weather,
		Cameras:             cameras,
	}
	cfg.RandomizeSeeds(rng)
	return cfg
}
