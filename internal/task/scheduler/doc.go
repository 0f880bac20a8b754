// Package scheduler runs a fixed table of timed jobs from a single timer loop.
//
// Jobs are interval (anchored to the scheduler start, so fires never drift),
// daily, weekly or once. Each fire runs on its own supervised goroutine with
// panic recovery and an optional timeout; a job still running when its next
// tick arrives is skipped for that tick. Time comes from a Clock so tests can
// drive the loop with schedtest.FakeClock.
package scheduler
