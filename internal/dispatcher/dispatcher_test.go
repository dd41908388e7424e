package dispatcher

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestDispatcher(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx := context.Background()

	writers := 100
	writeCount := 1000

	writerWg := sync.WaitGroup{}
	writerWg.Add(writers)
	var receivedCount atomic.Uint64

	receiveFunc := func(elems []int) {
		receivedCount.Add(uint64(len(elems)))
	}

	dispatcher := NewDispatcher(ctx, receiveFunc, 1024)

	assert.Equal(t, uint64(0), dispatcher.Len())
	assert.Equal(t, uint64(0), dispatcher.WriteCount())
	assert.Equal(t, uint64(0), dispatcher.ReadCount())

	for i := 0; i < writers; i++ {
		workerNum := i
		go func() {
			defer writerWg.Done()
			for i := 0; i < writeCount; i++ {
				assert.NoError(t, dispatcher.Write(workerNum*10000+i))
			}
		}()
	}

	writerWg.Wait()
	dispatcher.CloseAndWait()

	assert.Equal(t, uint64(writers*writeCount), receivedCount.Load())
	assert.Equal(t, uint64(0), dispatcher.Len())
	assert.Equal(t, uint64(writers*writeCount), dispatcher.ReadCount())
	assert.Equal(t, uint64(writers*writeCount), dispatcher.WriteCount())
}

func TestDispatcherPreservesWriteOrder(t *testing.T) {

	var received []int
	dispatcher := NewDispatcher(context.Background(), func(elems []int) {
		received = append(received, elems...)
	}, 7)

	for i := 0; i < 100; i++ {
		require.NoError(t, dispatcher.Write(i))
	}

	dispatcher.CloseAndWait()

	require.Len(t, received, 100)
	for i, v := range received {
		assert.Equal(t, i, v)
	}
}

func TestDispatcherWriteAfterClose(t *testing.T) {

	dispatcher := NewDispatcher(context.Background(), func([]int) {}, 10)

	dispatcher.CloseAndWait()
	dispatcher.Close()

	assert.ErrorIs(t, dispatcher.Write(1), ErrDispatcherClosed)
	assert.Equal(t, uint64(0), dispatcher.WriteCount())
}

func TestDispatcherWithContextCanceled(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx, cancel := context.WithCancel(context.Background())

	release := make(chan struct{})
	var receivedCount atomic.Uint64

	dispatcher := NewDispatcher(ctx, func(elems []int) {
		<-release
		receivedCount.Add(uint64(len(elems)))
	}, 1)

	for i := 0; i < 10; i++ {
		require.NoError(t, dispatcher.Write(i))
	}

	// Let the first element block the dispatch goroutine, then cancel
	require.Eventually(t, func() bool {
		return dispatcher.Len() < 10
	}, 5*time.Second, time.Millisecond)

	cancel()
	close(release)

	dispatcher.CloseAndWait()

	assert.ErrorIs(t, dispatcher.Write(11), ErrDispatcherClosed)
	assert.Equal(t, uint64(1), receivedCount.Load())
	assert.Equal(t, uint64(9), dispatcher.DiscardCount())
	assert.Equal(t, uint64(0), dispatcher.Len())
}
