package sim

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedServer upgrades one websocket session and answers each request
// envelope via the configured handler.
type scriptedServer struct {
	t      *testing.T
	srv    *httptest.Server
	hello  chan helloPayload
	handle func(env envelope) (string, interface{})
}

func newScriptedServer(t *testing.T, handle func(env envelope) (string, interface{})) *scriptedServer {
	t.Helper()

	s := &scriptedServer{
		t:      t,
		hello:  make(chan helloPayload, 1),
		handle: handle,
	}

	upgrader := websocket.Upgrader{}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/session", r.URL.Path)
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				return
			}
			var env envelope
			require.NoError(t, json.Unmarshal(data, &env))

			if env.Type == msgHello {
				var hello helloPayload
				require.NoError(t, json.Unmarshal(env.Payload, &hello))
				s.hello <- hello
				continue
			}

			replyType, payload := s.handle(env)
			if replyType == "" {
				return
			}
			reply, err := newEnvelope(replyType, payload)
			require.NoError(t, err)
			data, err = json.Marshal(reply)
			require.NoError(t, err)
			if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
	}))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *scriptedServer) dial(t *testing.T, opts ...DialOption) Conn {
	t.Helper()

	host, portStr, err := net.SplitHostPort(s.srv.Listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	conn, err := Dial(context.Background(), host, port, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestDial(t *testing.T) {
	t.Parallel()

	t.Run("announces the session in a hello envelope", func(t *testing.T) {
		t.Parallel()

		server := newScriptedServer(t, func(env envelope) (string, interface{}) {
			return "", nil
		})
		server.dial(t, WithSessionID("session-42"))

		hello := <-server.hello
		assert.Equal(t, "session-42", hello.SessionID)
	})

	t.Run("generates a session id when none is fixed", func(t *testing.T) {
		t.Parallel()

		server := newScriptedServer(t, func(env envelope) (string, interface{}) {
			return "", nil
		})
		server.dial(t)

		hello := <-server.hello
		assert.NotEmpty(t, hello.SessionID)
	})

	t.Run("fails with a connection error when nothing listens", func(t *testing.T) {
		t.Parallel()

		// Grab a free port and release it so the dial is refused.
		l, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		port := l.Addr().(*net.TCPAddr).Port
		require.NoError(t, l.Close())

		_, err = Dial(context.Background(), "127.0.0.1", port)
		require.Error(t, err)
		assert.Equal(t, KindConnection, KindOf(err))
	})
}

func TestRequestNewEpisode(t *testing.T) {
	t.Parallel()

	t.Run("round-trips the config and returns the scene", func(t *testing.T) {
		t.Parallel()

		var got EpisodeConfig
		server := newScriptedServer(t, func(env envelope) (string, interface{}) {
			require.Equal(t, msgNewEpisode, env.Type)
			require.NoError(t, json.Unmarshal(env.Payload, &got))
			return msgScene, Scene{
				MapName:    "Town01",
				StartSpots: []Transform{{Location: Vec3{X: 100}}, {Location: Vec3{Y: 200}}},
			}
		})
		conn := server.dial(t)

		cfg := EpisodeConfig{
			SynchronousMode:     true,
			NumberOfVehicles:    30,
			NumberOfPedestrians: 50,
			WeatherID:           WeatherClearNoon,
		}
		scene, err := conn.RequestNewEpisode(cfg)
		require.NoError(t, err)

		assert.Equal(t, cfg, got)
		assert.Equal(t, "Town01", scene.MapName)
		assert.Len(t, scene.StartSpots, 2)
	})

	t.Run("surfaces a server error envelope as a protocol error", func(t *testing.T) {
		t.Parallel()

		server := newScriptedServer(t, func(env envelope) (string, interface{}) {
			return msgError, errorPayload{Message: "too many vehicles"}
		})
		conn := server.dial(t)

		_, err := conn.RequestNewEpisode(EpisodeConfig{})
		require.Error(t, err)
		assert.Equal(t, KindProtocol, KindOf(err))
		assert.Contains(t, err.Error(), "too many vehicles")
	})

	t.Run("rejects an unexpected reply type", func(t *testing.T) {
		t.Parallel()

		server := newScriptedServer(t, func(env envelope) (string, interface{}) {
			return msgControlAck, nil
		})
		conn := server.dial(t)

		_, err := conn.RequestNewEpisode(EpisodeConfig{})
		require.Error(t, err)
		assert.Equal(t, KindProtocol, KindOf(err))
	})
}

func TestStartEpisode(t *testing.T) {
	t.Parallel()

	server := newScriptedServer(t, func(env envelope) (string, interface{}) {
		require.Equal(t, msgStartEpisode, env.Type)
		var start startEpisodePayload
		require.NoError(t, json.Unmarshal(env.Payload, &start))
		assert.Equal(t, 7, start.StartIndex)
		return msgEpisodeStarted, nil
	})
	conn := server.dial(t)

	require.NoError(t, conn.StartEpisode(7))
}

func TestReadMeasurements(t *testing.T) {
	t.Parallel()

	server := newScriptedServer(t, func(env envelope) (string, interface{}) {
		require.Equal(t, msgRead, env.Type)
		return msgMeasurements, measurementsPayload{
			Measurements: MeasurementBundle{
				FrameNumber: 12,
				Player: PlayerMeasurements{
					Transform:             Transform{Location: Vec3{X: 130, Z: 6500}},
					ForwardSpeed:          42.5,
					IntersectionOtherLane: 0.25,
				},
			},
			SensorFrames: []SensorFrame{
				{Name: "CameraRGB", Width: 2, Height: 1, Data: []byte{1, 2, 3, 4, 5, 6, 7, 8}},
			},
		}
	})
	conn := server.dial(t)

	bundle, frames, err := conn.ReadMeasurements()
	require.NoError(t, err)
	assert.Equal(t, uint64(12), bundle.FrameNumber)
	assert.Equal(t, 42.5, bundle.Player.ForwardSpeed)
	assert.Equal(t, 130.0, bundle.Player.Transform.Location.X)
	require.Len(t, frames, 1)
	assert.Equal(t, "CameraRGB", frames[0].Name)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, frames[0].Data)
}

func TestSendControl(t *testing.T) {
	t.Parallel()

	t.Run("acknowledged control succeeds", func(t *testing.T) {
		t.Parallel()

		var got ControlCommand
		server := newScriptedServer(t, func(env envelope) (string, interface{}) {
			require.Equal(t, msgControl, env.Type)
			require.NoError(t, json.Unmarshal(env.Payload, &got))
			return msgControlAck, nil
		})
		conn := server.dial(t)

		cmd := ControlCommand{Steer: -0.5, Throttle: 0.3, Reverse: true}
		require.NoError(t, conn.SendControl(cmd))
		assert.Equal(t, cmd, got)
	})

	t.Run("dropped connection surfaces as a connection error", func(t *testing.T) {
		t.Parallel()

		server := newScriptedServer(t, func(env envelope) (string, interface{}) {
			return "", nil // close the socket instead of replying
		})
		conn := server.dial(t)

		err := conn.SendControl(ControlCommand{})
		require.Error(t, err)
		assert.Equal(t, KindConnection, KindOf(err))
	})
}

func TestConnClose(t *testing.T) {
	t.Parallel()

	server := newScriptedServer(t, func(env envelope) (string, interface{}) {
		return "", nil
	})
	conn := server.dial(t)

	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close()) // idempotent
}
