// Package broadcast provides the fan-out delivery dispatcher.
//
// A broadcast is represented as a job: a batch of message texts delivered to
// many chat targets, each target receiving the texts in order. Jobs are
// queued FIFO and drained by a small worker pool with rate limiting and
// bounded per-send retry.
//
// Delivery semantics are best-effort: a failure for one target is recorded
// in the job's in-memory status and never prevents the remaining sends.
package broadcast
