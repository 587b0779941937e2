/*
Package batch implements the CSUbatch scheduling engine: a thread-safe job
queue, a pluggable ordering policy (FCFS, SJF, PRIORITY), a dispatcher that
drains the queue and simulates execution with time-slicing, a centralized job
state machine with validated transitions and observer notifications, and a
performance-metrics aggregator.

# Pipeline

	submitter -> QueueManager.Add -> JobQueue (WAITING)
	          -> Scheduler (reorders on policy) -> Dispatcher.pop()
	          -> JobStateManager transitions -> simulated execution
	          -> MetricsRecorder -> observers

# Concurrency

The only shared mutable state is the pending job sequence and the needsSort
flag, both owned exclusively by QueueManager behind a single mutex. The
Dispatcher and Scheduler are independent long-running workers; neither holds
the queue's mutex across a suspension point.
*/
package batch
