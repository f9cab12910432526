// Package dispatch runs the worker pool that drains the job queue.
//
// Each worker loops claim, select, generate, finalize. The worker count
// bounds how many outbound provider calls are in flight at once. Failures
// go through the RetryScheduler, which either re-admits the job with an
// exponential backoff or fails it terminally. The Sweeper runs the
// periodic expiry and retention jobs on a cron schedule.
package dispatch
