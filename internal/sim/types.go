// Package sim implements the client side of the simulation server's
// episode/frame protocol: the value types exchanged with the server, the
// websocket transport, and the four message-RPC primitives (new episode,
// start episode, read measurements, send control).
package sim

import "math/rand"

// Weather preset identifiers recognized by the server. The identifiers are
// opaque to the client; the set below is the server's published catalog.
const (
	WeatherDefault         = 0
	WeatherClearNoon       = 1
	WeatherCloudyNoon      = 2
	WeatherWetNoon         = 3
	WeatherWetCloudyNoon   = 4
	WeatherMidRainyNoon    = 5
	WeatherHardRainNoon    = 6
	WeatherSoftRainNoon    = 7
	WeatherClearSunset     = 8
	WeatherCloudySunset    = 9
	WeatherWetSunset       = 10
	WeatherWetCloudySunset = 11
	WeatherMidRainSunset   = 12
	WeatherHardRainSunset  = 13
	WeatherSoftRainSunset  = 14

	weatherMaxPreset = 14
)

// KnownWeather reports whether id names a server weather preset.
func KnownWeather(id int) bool {
	return id >= WeatherDefault && id <= weatherMaxPreset
}

// Camera kinds. Kind selects the sensor family; PostProcessing refines the
// output within it (e.g. a color camera producing depth-encoded output).
const (
	CameraColor       = "color"
	CameraDepth       = "depth"
	CameraSemanticSeg = "semantic-segmentation"
)

// Vec3 is a position or rotation triple. Positions are centimeters on the
// wire; display code converts to meters.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Transform is a position plus orientation.
type Transform struct {
	Location Vec3 `json:"location"`
	Rotation Vec3 `json:"rotation"`
}

// Camera describes one sensor requested for an episode. Offsets are relative
// to the player vehicle, in centimeters.
type Camera struct {
	Name           string `json:"name"`
	Kind           string `json:"kind"`
	PostProcessing string `json:"post_processing,omitempty"`
	ImageWidth     int    `json:"image_width"`
	ImageHeight    int    `json:"image_height"`
	Position       Vec3   `json:"position_cm"`
}

// EpisodeConfig is the full per-episode configuration submitted to the
// server. Immutable once submitted; construct a fresh value per episode.
type EpisodeConfig struct {
	SynchronousMode     bool     `json:"synchronous_mode"`
	NumberOfVehicles    int      `json:"number_of_vehicles"`
	NumberOfPedestrians int      `json:"number_of_pedestrians"`
	WeatherID           int      `json:"weather_id"`
	Cameras             []Camera `json:"cameras"`
	SeedVehicles        int64    `json:"seed_vehicles"`
	SeedPedestrians     int64    `json:"seed_pedestrians"`
}

// RandomizeSeeds draws a fresh vehicle/pedestrian placement seed pair from
// rng.
func (c *EpisodeConfig) RandomizeSeeds(rng *rand.Rand) {
	c.SeedVehicles = rng.Int63()
	c.SeedPedestrians = rng.Int63()
}

// Scene is the server's reply to a submitted EpisodeConfig: the candidate
// spawn transforms for the player. May be empty.
type Scene struct {
	MapName    string      `json:"map_name,omitempty"`
	StartSpots []Transform `json:"player_start_spots"`
}

// ControlCommand is the instantaneous vehicle actuation instruction sent
// each frame. Steer is conceptually in [-1, 1] but is not clamped here; the
// server applies its own saturation.
type ControlCommand struct {
	Steer     float64 `json:"steer"`
	Throttle  float64 `json:"throttle"`
	Brake     bool    `json:"brake"`
	HandBrake bool    `json:"hand_brake"`
	Reverse   bool    `json:"reverse"`
}

// PlayerMeasurements is the per-frame state of the player vehicle.
type PlayerMeasurements struct {
	Transform             Transform      `json:"transform"`
	ForwardSpeed          float64        `json:"forward_speed"`
	IntersectionOtherLane float64        `json:"intersection_otherlane"`
	IntersectionOffroad   float64        `json:"intersection_offroad"`
	AutopilotControl      ControlCommand `json:"ai_control"`
}

// MeasurementBundle is the server's reply to a read for one frame.
type MeasurementBundle struct {
	FrameNumber uint64             `json:"frame_number"`
	GameTimeMS  int64              `json:"game_time_ms"`
	Player      PlayerMeasurements `json:"player_measurements"`
}

// SensorFrame is one decoded sensor output for one frame. Data is the raw
// RGBA pixel buffer, row-major, 4 bytes per pixel. Ownership is transient:
// consumers persist or inspect it within the frame and let it go.
type SensorFrame struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Data   []byte `json:"data"`
}
