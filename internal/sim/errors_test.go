package sim

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "connection", KindConnection.String())
	assert.Equal(t, "protocol", KindProtocol.String())
	assert.Equal(t, "contract", KindContract.String())
	assert.Equal(t, "termination", KindTermination.String())
	assert.Equal(t, "unknown", Kind(99).String())
}

func TestErrorWrapping(t *testing.T) {
	t.Parallel()

	t.Run("unwraps the cause", func(t *testing.T) {
		t.Parallel()

		cause := errors.New("socket closed")
		err := NewError(KindConnection, "read_measurements", cause)
		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "read_measurements")
		assert.Contains(t, err.Error(), "socket closed")
	})

	t.Run("errors.As finds the kind through wrapping", func(t *testing.T) {
		t.Parallel()

		inner := Errorf(KindProtocol, "start_episode", "expected %q", "episode_started")
		wrapped := fmt.Errorf("episode 2: %w", inner)

		var se *Error
		require.ErrorAs(t, wrapped, &se)
		assert.Equal(t, KindProtocol, se.Kind)
	})
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	t.Run("reads the kind from a sim error", func(t *testing.T) {
		t.Parallel()

		err := Errorf(KindContract, "send_control", "write in state awaiting-read")
		assert.Equal(t, KindContract, KindOf(err))
	})

	t.Run("treats foreign errors as connection failures", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, KindConnection, KindOf(errors.New("boom")))
	})
}

func TestRetryable(t *testing.T) {
	t.Parallel()

	assert.True(t, Retryable(Errorf(KindConnection, "connect", "refused")))
	assert.True(t, Retryable(Errorf(KindProtocol, "read_measurements", "bad reply")))
	assert.True(t, Retryable(errors.New("raw transport error")))
	assert.False(t, Retryable(Errorf(KindContract, "send_control", "out of turn")))
	assert.False(t, Retryable(Errorf(KindTermination, "session", "interrupt")))
}
