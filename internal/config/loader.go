package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/simdrive/simdrive/internal/sim"
)

// Default values for Client.
const (
	DefaultHost     = "127.0.0.1"
	DefaultPort     = 2000
	DefaultEpisodes = 3
	DefaultFrames   = 300
	DefaultImageDir = "_images"
)

// DefaultClient returns the flag-level defaults.
func DefaultClient() Client {
	return Client{
		Host:     DefaultHost,
		Port:     DefaultPort,
		Episodes: DefaultEpisodes,
		Frames:   DefaultFrames,
		ImageDir: DefaultImageDir,
	}
}

// DefaultEpisode returns the reference episode template: synchronous
// stepping, 30 vehicles, 50 pedestrians, weather drawn from the daylight
// presets, and a color plus a depth camera at the hood mount.
func DefaultEpisode() Episode {
	sync := true
	return Episode{
		SynchronousMode:     &sync,
		NumberOfVehicles:    30,
		NumberOfPedestrians: 50,
		WeatherChoices: []int{
			sim.WeatherClearNoon,
			sim.WeatherWetNoon,
			sim.WeatherSoftRainNoon,
			sim.WeatherClearSunset,
			sim.WeatherSoftRainSunset,
		},
		Cameras: []Camera{
			{
				Name:        "CameraRGB",
				Kind:        sim.CameraColor,
				ImageWidth:  800,
				ImageHeight: 600,
				PositionX:   30,
				PositionZ:   130,
			},
			{
				Name:           "CameraDepth",
				Kind:           sim.CameraDepth,
				PostProcessing: "Depth",
				ImageWidth:     800,
				ImageHeight:    600,
				PositionX:      30,
				PositionZ:      130,
			},
		},
	}
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// LoadEpisode reads a YAML episode settings file and overlays it on the
// defaults. An empty path returns the defaults unchanged.
func LoadEpisode(path string) (*Episode, error) {
	ep := DefaultEpisode()
	if path == "" {
		return &ep, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}
	if err := yaml.Unmarshal(data, &ep); err != nil {
		return nil, fmt.Errorf("failed to parse settings file: %w", err)
	}

	if err := ValidateEpisode(&ep); err != nil {
		return nil, err
	}
	return &ep, nil
}

// ValidateClient checks the flag-level configuration.
func ValidateClient(cfg *Client) error {
	if cfg.Host == "" {
		return ValidationError{Field: "host", Message: "must not be empty"}
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return ValidationError{Field: "port", Message: "must be in [1, 65535]"}
	}
	if cfg.Episodes <= 0 {
		return ValidationError{Field: "episodes", Message: "must be positive"}
	}
	if cfg.Frames <= 0 {
		return ValidationError{Field: "frames_per_episode", Message: "must be positive"}
	}
	if cfg.ImagesToDisk && cfg.ImageDir == "" {
		return ValidationError{Field: "image_dir", Message: "must not be empty when images_to_disk is set"}
	}
	return nil
}

// ValidateEpisode checks an episode settings template.
func ValidateEpisode(ep *Episode) error {
	if ep.NumberOfVehicles < 0 {
		return ValidationError{Field: "number_of_vehicles", Message: "must not be negative"}
	}
	if ep.NumberOfPedestrians < 0 {
		return ValidationError{Field: "number_of_pedestrians", Message: "must not be negative"}
	}
	for _, id := range ep.WeatherChoices {
		if !sim.KnownWeather(id) {
			return ValidationError{
				Field:   "weather_choices",
				Message: fmt.Sprintf("unknown weather preset %d", id),
			}
		}
	}
	for i, cam := range ep.Cameras {
		field := fmt.Sprintf("cameras[%d]", i)
		if cam.Name == "" {
			return ValidationError{Field: field + ".name", Message: "must not be empty"}
		}
		switch cam.Kind {
		case sim.CameraColor, sim.CameraDepth, sim.CameraSemanticSeg:
		default:
			return ValidationError{
				Field:   field + ".kind",
				Message: fmt.Sprintf("unknown camera kind %q", cam.Kind),
			}
		}
		if cam.ImageWidth <= 0 || cam.ImageHeight <= 0 {
			return ValidationError{Field: field, Message: "image dimensions must be positive"}
		}
	}
	return nil
}
