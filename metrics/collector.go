// Package metrics exposes queue counters as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/alitto/asynccall/queue"
)

const namespace = "asynccall_queue"

var labels = []string{"queue", "executor"}

var (
	runningTasksDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "running_tasks"),
		"Number of tasks currently executing",
		labels, nil)
	waitingTasksDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "waiting_tasks"),
		"Number of accepted tasks waiting for a worker",
		labels, nil)
	maxWorkersDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "max_workers"),
		"Maximum number of tasks executed concurrently",
		labels, nil)
	submittedTasksDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "submitted_tasks_total"),
		"Number of tasks accepted by the queue",
		labels, nil)
	successfulTasksDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "successful_tasks_total"),
		"Number of tasks that returned normally",
		labels, nil)
	failedTasksDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "failed_tasks_total"),
		"Number of tasks that panicked",
		labels, nil)
	rejectedTasksDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "rejected_tasks_total"),
		"Number of tasks the queue refused",
		labels, nil)
)

// Source lists the queues to report. It is consulted on every scrape.
type Source interface {
	Queues() []*queue.Queue
}

// SourceFunc adapts a function to Source.
type SourceFunc func() []*queue.Queue

// Queues calls f.
func (f SourceFunc) Queues() []*queue.Queue {
	return f()
}

// Static reports a fixed set of queues.
func Static(queues ...*queue.Queue) Source {
	return SourceFunc(func() []*queue.Queue {
		return queues
	})
}

type collector struct {
	source Source
}

// NewCollector returns a collector reporting every queue of src. An *asynccall.Registry is a
// Source that only lists the queues it has already constructed, so scraping never builds one.
func NewCollector(src Source) prometheus.Collector {
	return &collector{source: src}
}

func (c *collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- runningTasksDesc
	ch <- waitingTasksDesc
	ch <- maxWorkersDesc
	ch <- submittedTasksDesc
	ch <- successfulTasksDesc
	ch <- failedTasksDesc
	ch <- rejectedTasksDesc
}

func (c *collector) Collect(ch chan<- prometheus.Metric) {
	for _, q := range c.source.Queues() {
		if q == nil {
			continue
		}
		values := []string{q.Name(), q.Executor().String()}

		ch <- prometheus.MustNewConstMetric(runningTasksDesc, prometheus.GaugeValue, float64(q.RunningTasks()), values...)
		ch <- prometheus.MustNewConstMetric(waitingTasksDesc, prometheus.GaugeValue, float64(q.WaitingTasks()), values...)
		ch <- prometheus.MustNewConstMetric(maxWorkersDesc, prometheus.GaugeValue, float64(q.MaxWorkers()), values...)
		ch <- prometheus.MustNewConstMetric(submittedTasksDesc, prometheus.CounterValue, float64(q.SubmittedTasks()), values...)
		ch <- prometheus.MustNewConstMetric(successfulTasksDesc, prometheus.CounterValue, float64(q.SuccessfulTasks()), values...)
		ch <- prometheus.MustNewConstMetric(failedTasksDesc, prometheus.CounterValue, float64(q.FailedTasks()), values...)
		ch <- prometheus.MustNewConstMetric(rejectedTasksDesc, prometheus.CounterValue, float64(q.RejectedTasks()), values...)
	}
}
