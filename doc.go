// Package asynccall lets cooperative tasks offload blocking or CPU intensive functions to a worker
// pool and observe the result as a non-blocking future.
//
// Call hands a function to any Enqueuer and returns a Future whose Poll method never blocks:
//
//	future := asynccall.Call(asynccall.DefaultCPUQueue{}, func() int {
//		return 1 + 1
//	})
//
//	for {
//		value, ready, err := future.Poll()
//		if !ready {
//			// yield to the scheduler and poll again later
//			continue
//		}
//		...
//	}
//
// A future resolves to ErrAsyncCall when the function panics or the queue never runs it.
//
// DefaultIOQueue and DefaultCPUQueue are zero-sized handles to two process-wide queues that are
// constructed on first use. Programs that need different sizing call ConfigureDefault at startup,
// and tests can build their own Registry.
package asynccall
