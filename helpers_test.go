package asynccall

import (
	"io"
	"log/slog"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alitto/asynccall/queue"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// poll drives a future the way a cooperative scheduler would: poll, yield, poll again.
func poll[T any](t *testing.T, f *Future[T]) (T, error) {
	t.Helper()

	deadline := time.Now().Add(10 * time.Second)
	for {
		value, ready, err := f.Poll()
		if ready {
			return value, err
		}
		if time.Now().After(deadline) {
			require.FailNow(t, "future did not resolve in time")
		}
		runtime.Gosched()
	}
}

func newTestQueue(t *testing.T, opts ...queue.Option) *queue.Queue {
	t.Helper()

	opts = append([]queue.Option{queue.WithLogger(discardLogger), queue.WithMaxWorkers(4)}, opts...)
	q, err := queue.New(t.Name(), opts...)
	require.NoError(t, err)
	t.Cleanup(q.Stop)

	return q
}
