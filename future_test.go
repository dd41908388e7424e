package asynccall

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFutureClose(t *testing.T) {

	q := newTestQueue(t)

	release := make(chan struct{})
	var executed atomic.Bool

	future := Call(q, func() int {
		<-release
		executed.Store(true)
		return 1
	})
	future.Close()
	close(release)

	q.Stop()

	assert.True(t, executed.Load())

	_, ready, err := future.Poll()
	assert.True(t, ready)
	assert.ErrorIs(t, err, ErrAsyncCall)
}

func TestFuturePollBeforeResolution(t *testing.T) {

	q := newTestQueue(t)

	release := make(chan struct{})
	future := Call(q, func() string {
		<-release
		return "done"
	})

	value, ready, err := future.Poll()
	assert.False(t, ready)
	assert.NoError(t, err)
	assert.Empty(t, value)

	close(release)

	value, err = poll(t, future)
	assert.NoError(t, err)
	assert.Equal(t, "done", value)
}
