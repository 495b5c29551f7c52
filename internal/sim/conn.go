package sim

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Conn is one client session with the simulation server. Implementations
// are not safe for concurrent use: the protocol is strictly synchronous
// request/response and the session owns the connection exclusively.
type Conn interface {
	// RequestNewEpisode submits the episode configuration and returns the
	// scene with the candidate player start spots.
	RequestNewEpisode(cfg EpisodeConfig) (*Scene, error)

	// StartEpisode commits to a start spot. Blocks until the server
	// acknowledges that the episode has begun; frame stepping is legal only
	// after it returns.
	StartEpisode(startIndex int) error

	// ReadMeasurements blocks for the current frame's measurement bundle
	// and sensor outputs.
	ReadMeasurements() (*MeasurementBundle, []SensorFrame, error)

	// SendControl sends the control command for the current frame and
	// blocks for the server's acknowledgment.
	SendControl(cmd ControlCommand) error

	// Close releases the underlying connection. Safe to call more than
	// once.
	Close() error
}

// wsConn implements Conn over a websocket carrying JSON envelopes.
type wsConn struct {
	ws        *websocket.Conn
	sessionID string
	closed    bool
}

// DialOption configures Dial.
type DialOption func(*dialConfig)

type dialConfig struct {
	dialer    *websocket.Dialer
	sessionID string
}

// WithDialer substitutes the websocket dialer, e.g. for tests.
func WithDialer(d *websocket.Dialer) DialOption {
	return func(c *dialConfig) {
		c.dialer = d
	}
}

// WithSessionID fixes the session identifier sent in the hello envelope
// instead of generating one.
func WithSessionID(id string) DialOption {
	return func(c *dialConfig) {
		c.sessionID = id
	}
}

// Dial opens a session with the server at host:port and performs the hello
// exchange. The context bounds connection establishment only; subsequent
// operations on the returned Conn block without deadline, matching the
// synchronous protocol.
func Dial(ctx context.Context, host string, port int, opts ...DialOption) (Conn, error) {
	cfg := dialConfig{
		dialer:    websocket.DefaultDialer,
		sessionID: uuid.NewString(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	u := url.URL{Scheme: "ws", Host: host + ":" + strconv.Itoa(port), Path: "/session"}
	ws, resp, err := cfg.dialer.DialContext(ctx, u.String(), nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, NewError(KindConnection, "connect", fmt.Errorf("dial %s: %w", u.Host, err))
	}

	c := &wsConn{ws: ws, sessionID: cfg.sessionID}
	if err := c.send(msgHello, helloPayload{SessionID: cfg.sessionID}); err != nil {
		ws.Close()
		return nil, err
	}
	return c, nil
}

// SessionID returns the identifier announced in the hello envelope.
func (c *wsConn) SessionID() string {
	return c.sessionID
}

func (c *wsConn) RequestNewEpisode(cfg EpisodeConfig) (*Scene, error) {
	const op = "request_new_episode"
	if err := c.send(msgNewEpisode, cfg); err != nil {
		return nil, err
	}
	var scene Scene
	if err := c.recv(op, msgScene, &scene); err != nil {
		return nil, err
	}
	return &scene, nil
}

func (c *wsConn) StartEpisode(startIndex int) error {
	const op = "start_episode"
	if err := c.send(msgStartEpisode, startEpisodePayload{StartIndex: startIndex}); err != nil {
		return err
	}
	return c.recv(op, msgEpisodeStarted, nil)
}

func (c *wsConn) ReadMeasurements() (*MeasurementBundle, []SensorFrame, error) {
	const op = "read_measurements"
	if err := c.send(msgRead, nil); err != nil {
		return nil, nil, err
	}
	var payload measurementsPayload
	if err := c.recv(op, msgMeasurements, &payload); err != nil {
		return nil, nil, err
	}
	return &payload.Measurements, payload.SensorFrames, nil
}

func (c *wsConn) SendControl(cmd ControlCommand) error {
	const op = "send_control"
	if err := c.send(msgControl, cmd); err != nil {
		return err
	}
	return c.recv(op, msgControlAck, nil)
}

func (c *wsConn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	message := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	c.ws.WriteMessage(websocket.CloseMessage, message)
	return c.ws.Close()
}

// send marshals one request envelope onto the socket.
func (c *wsConn) send(msgType string, payload interface{}) error {
	env, err := newEnvelope(msgType, payload)
	if err != nil {
		return NewError(KindProtocol, msgType, fmt.Errorf("marshal payload: %w", err))
	}
	data, err := json.Marshal(env)
	if err != nil {
		return NewError(KindProtocol, msgType, fmt.Errorf("marshal envelope: %w", err))
	}
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return NewError(KindConnection, msgType, err)
	}
	return nil
}

// recv blocks for the next envelope and requires it to be of type want,
// decoding its payload into out when out is non-nil. A server error
// envelope or an unexpected type is a protocol error; a transport failure
// is a connection error.
func (c *wsConn) recv(op, want string, out interface{}) error {
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		return NewError(KindConnection, op, err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return NewError(KindProtocol, op, fmt.Errorf("malformed envelope: %w", err))
	}

	switch env.Type {
	case want:
	case msgError:
		var report errorPayload
		if err := json.Unmarshal(env.Payload, &report); err != nil {
			return Errorf(KindProtocol, op, "server error with malformed payload")
		}
		return Errorf(KindProtocol, op, "server error: %s", report.Message)
	default:
		return Errorf(KindProtocol, op, "expected %q reply, got %q", want, env.Type)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Payload, out); err != nil {
		return NewError(KindProtocol, op, fmt.Errorf("malformed %s payload: %w", want, err))
	}
	return nil
}
