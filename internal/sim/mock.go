package sim

import "sync"

// MockConn implements Conn for tests. It replies from configured fixtures,
// records every call in order, and can be scripted to fail a specific call.
// Exported for use by session and console tests.
type MockConn struct {
	mu sync.Mutex

	// Scene returned by RequestNewEpisode. Zero value means an empty scene.
	Scene Scene

	// Bundle returned by every ReadMeasurements call unless BundleFunc is
	// set.
	Bundle MeasurementBundle

	// Frames returned alongside the bundle.
	Frames []SensorFrame

	// BundleFunc, when set, produces the bundle for the n-th read (0-based).
	BundleFunc func(n int) MeasurementBundle

	// FailOn, when set, is consulted before every operation with the
	// operation name and its 1-based call count; a non-nil return is
	// surfaced to the caller.
	FailOn func(op string, calls int) error

	// Call tracking.
	NewEpisodeCalls []EpisodeConfig
	StartCalls      []int
	ReadCalls       int
	ControlCalls    []ControlCommand
	CloseCalls      int

	// Ops is the ordered trace of operation names, for alternation checks.
	Ops []string
}

// NewMockConn returns a MockConn with a single-start-spot scene, the typical
// fixture for negotiation tests.
func NewMockConn() *MockConn {
	return &MockConn{
		Scene: Scene{StartSpots: []Transform{{}}},
	}
}

func (m *MockConn) fail(op string, calls int) error {
	if m.FailOn == nil {
		return nil
	}
	return m.FailOn(op, calls)
}

// RequestNewEpisode records the config and returns the fixture scene.
func (m *MockConn) RequestNewEpisode(cfg EpisodeConfig) (*Scene, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NewEpisodeCalls = append(m.NewEpisodeCalls, cfg)
	m.Ops = append(m.Ops, "new_episode")
	if err := m.fail("new_episode", len(m.NewEpisodeCalls)); err != nil {
		return nil, err
	}
	scene := m.Scene
	return &scene, nil
}

// StartEpisode records the chosen start index.
func (m *MockConn) StartEpisode(startIndex int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StartCalls = append(m.StartCalls, startIndex)
	m.Ops = append(m.Ops, "start_episode")
	return m.fail("start_episode", len(m.StartCalls))
}

// ReadMeasurements returns the fixture bundle and frames.
func (m *MockConn) ReadMeasurements() (*MeasurementBundle, []SensorFrame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := m.ReadCalls
	m.ReadCalls++
	m.Ops = append(m.Ops, "read")
	if err := m.fail("read", m.ReadCalls); err != nil {
		return nil, nil, err
	}
	bundle := m.Bundle
	if m.BundleFunc != nil {
		bundle = m.BundleFunc(n)
	}
	return &bundle, m.Frames, nil
}

// SendControl records the command.
func (m *MockConn) SendControl(cmd ControlCommand) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ControlCalls = append(m.ControlCalls, cmd)
	m.Ops = append(m.Ops, "control")
	return m.fail("control", len(m.ControlCalls))
}

// Close counts close calls; always succeeds.
func (m *MockConn) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseCalls++
	return nil
}

// Closed reports whether Close has been called at least once.
func (m *MockConn) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CloseCalls > 0
}
