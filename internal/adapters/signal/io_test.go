package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestThrottledExemptsPong(t *testing.T) {
	ctl := NewSignalWSController(nil, Options{RateMessages: 1, RateInterval: time.Hour})
	pong := []byte(`{"command":"pong"}`)

	assert.False(t, ctl.throttled(1, []byte(`{"command":"getUsers"}`)))
	assert.True(t, ctl.throttled(1, []byte(`{"command":"getUsers"}`)))
	for i := 0; i < 3; i++ {
		assert.False(t, ctl.throttled(1, pong), "pong %d", i)
	}
	assert.True(t, ctl.throttled(1, []byte(`not json`)), "unparsable input still counts")
}

func TestThrottledWithoutLimiter(t *testing.T) {
	ctl := NewSignalWSController(nil, Options{})
	for i := 0; i < 100; i++ {
		assert.False(t, ctl.throttled(1, []byte(`{"command":"getUsers"}`)))
	}
}
