package metrics_test

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alitto/asynccall"
	"github.com/alitto/asynccall/metrics"
	"github.com/alitto/asynccall/queue"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestCollectorReportsQueueCounters(t *testing.T) {

	q := queue.MustNew("compress",
		queue.WithMaxWorkers(3),
		queue.WithLogger(discardLogger),
		queue.WithPanicHandler(func(any) {}))

	require.NoError(t, q.Enqueue(func() {}))
	require.NoError(t, q.Enqueue(func() {}))
	require.NoError(t, q.Enqueue(func() { panic("corrupt input") }))
	q.Stop()
	require.ErrorIs(t, q.Enqueue(func() {}), queue.ErrStopped)

	expected := `
# HELP asynccall_queue_failed_tasks_total Number of tasks that panicked
# TYPE asynccall_queue_failed_tasks_total counter
asynccall_queue_failed_tasks_total{executor="native",queue="compress"} 1
# HELP asynccall_queue_max_workers Maximum number of tasks executed concurrently
# TYPE asynccall_queue_max_workers gauge
asynccall_queue_max_workers{executor="native",queue="compress"} 3
# HELP asynccall_queue_rejected_tasks_total Number of tasks the queue refused
# TYPE asynccall_queue_rejected_tasks_total counter
asynccall_queue_rejected_tasks_total{executor="native",queue="compress"} 1
# HELP asynccall_queue_running_tasks Number of tasks currently executing
# TYPE asynccall_queue_running_tasks gauge
asynccall_queue_running_tasks{executor="native",queue="compress"} 0
# HELP asynccall_queue_submitted_tasks_total Number of tasks accepted by the queue
# TYPE asynccall_queue_submitted_tasks_total counter
asynccall_queue_submitted_tasks_total{executor="native",queue="compress"} 3
# HELP asynccall_queue_successful_tasks_total Number of tasks that returned normally
# TYPE asynccall_queue_successful_tasks_total counter
asynccall_queue_successful_tasks_total{executor="native",queue="compress"} 2
# HELP asynccall_queue_waiting_tasks Number of accepted tasks waiting for a worker
# TYPE asynccall_queue_waiting_tasks gauge
asynccall_queue_waiting_tasks{executor="native",queue="compress"} 0
`

	err := testutil.CollectAndCompare(metrics.NewCollector(metrics.Static(q)), strings.NewReader(expected))
	assert.NoError(t, err)
}

func TestCollectorLabelsEachQueue(t *testing.T) {

	io := queue.MustNew("io", queue.WithExecutor(queue.ExecutorWorkerpool), queue.WithLogger(discardLogger))
	defer io.Stop()
	cpu := queue.MustNew("cpu", queue.WithExecutor(queue.ExecutorAnts), queue.WithLogger(discardLogger))
	defer cpu.Stop()

	collector := metrics.NewCollector(metrics.Static(io, cpu))

	assert.Equal(t, 14, testutil.CollectAndCount(collector))
	assert.Equal(t, 2, testutil.CollectAndCount(collector, "asynccall_queue_max_workers"))
}

func TestCollectorDoesNotConstructRegistryQueues(t *testing.T) {

	registry := asynccall.NewRegistry(asynccall.DefaultConfig(), asynccall.WithLogger(discardLogger))
	defer registry.Stop()

	collector := metrics.NewCollector(registry)

	assert.Equal(t, 0, testutil.CollectAndCount(collector))
	assert.False(t, registry.Initialized(asynccall.KindIO))
	assert.False(t, registry.Initialized(asynccall.KindCPU))

	registry.CPU()

	assert.Equal(t, 7, testutil.CollectAndCount(collector))
	assert.False(t, registry.Initialized(asynccall.KindIO))
}

func TestCollectorRegisters(t *testing.T) {

	reg := prometheus.NewPedanticRegistry()

	assert.NoError(t, reg.Register(metrics.NewCollector(metrics.Static())))
}
