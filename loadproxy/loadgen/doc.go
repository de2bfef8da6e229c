// Package loadgen drives a running loadproxy the way a k6 script does: every virtual user
// posts {query, vuID} to /execute in a loop and the runner aggregates latencies and outcomes.
package loadgen
