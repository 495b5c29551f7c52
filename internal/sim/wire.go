package sim

import "encoding/json"

// Protocol version carried in every envelope.
const wireVersion = 1

// Envelope message types. Every exchange on the session socket is a JSON
// envelope; the four RPC primitives map to request/reply pairs.
const (
	msgHello          = "hello"
	msgNewEpisode     = "new_episode"
	msgScene          = "scene"
	msgStartEpisode   = "start_episode"
	msgEpisodeStarted = "episode_started"
	msgRead           = "read"
	msgMeasurements   = "measurements"
	msgControl        = "control"
	msgControlAck     = "control_ack"
	msgError          = "error"
)

// envelope is the framing for every message on the session socket.
type envelope struct {
	Ver     int             `json:"ver"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// helloPayload introduces the client session after connect.
type helloPayload struct {
	SessionID string `json:"session_id"`
}

// startEpisodePayload commits to a spawn point from the negotiated scene.
type startEpisodePayload struct {
	StartIndex int `json:"start_index"`
}

// measurementsPayload is the server's reply to a read request.
type measurementsPayload struct {
	Measurements MeasurementBundle `json:"measurements"`
	SensorFrames []SensorFrame     `json:"sensor_frames,omitempty"`
}

// errorPayload is the server's report of a request it could not honor.
type errorPayload struct {
	Message string `json:"message"`
}

func newEnvelope(msgType string, payload interface{}) (envelope, error) {
	env := envelope{Ver: wireVersion, Type: msgType}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return envelope{}, err
		}
		env.Payload = raw
	}
	return env, nil
}
