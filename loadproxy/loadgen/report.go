package loadgen

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"
)

const transportErrorStatus = 0

type sample struct {
	latency time.Duration
	status  int
	err     error
}

type collector struct {
	mu        sync.Mutex
	latencies []time.Duration
	statuses  map[int]int
	errors    map[string]int
	failed    int
}

func newCollector() *collector {
	return &collector{
		statuses: make(map[int]int),
		errors:   make(map[string]int),
	}
}

func (c *collector) add(s sample) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.latencies = append(c.latencies, s.latency)
	c.statuses[s.status]++

	if s.err != nil {
		c.failed++
		c.errors[s.err.Error()]++
	}
}

func (c *collector) report(elapsed time.Duration) Report {
	c.mu.Lock()
	defer c.mu.Unlock()

	sorted := slices.Clone(c.latencies)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})

	return Report{
		Requests:  len(sorted),
		Succeeded: len(sorted) - c.failed,
		Failed:    c.failed,
		Statuses:  maps.Clone(c.statuses),
		Errors:    maps.Clone(c.errors),
		Elapsed:   elapsed,
		P50:       percentile(sorted, 0.50),
		P95:       percentile(sorted, 0.95),
		P99:       percentile(sorted, 0.99),
		Max:       percentile(sorted, 1),
	}
}

// percentile expects sorted input.
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}

	index := int(float64(len(sorted)-1) * p)

	return sorted[index]
}

// Report summarizes a finished run.
type Report struct {
	Requests  int
	Succeeded int
	Failed    int
	Statuses  map[int]int    // HTTP status -> count, 0 for transport errors
	Errors    map[string]int // error message -> count
	Elapsed   time.Duration
	P50       time.Duration
	P95       time.Duration
	P99       time.Duration
	Max       time.Duration
}

// Throughput returns successful requests per second.
func (r Report) Throughput() float64 {
	if r.Elapsed <= 0 {
		return 0
	}

	return float64(r.Succeeded) / r.Elapsed.Seconds()
}

// Print writes a human-readable summary.
func (r Report) Print(w io.Writer) {
	fmt.Fprintf(w, "Requests  : %9d\n", r.Requests)
	fmt.Fprintf(w, "Succeeded : %9d\n", r.Succeeded)
	fmt.Fprintf(w, "Failed    : %9d\n", r.Failed)
	fmt.Fprintf(w, "QPS       : %9.1f\n", r.Throughput())
	fmt.Fprintf(w, "p50       : %9s\n", r.P50.Round(time.Millisecond))
	fmt.Fprintf(w, "p95       : %9s\n", r.P95.Round(time.Millisecond))
	fmt.Fprintf(w, "p99       : %9s\n", r.P99.Round(time.Millisecond))
	fmt.Fprintf(w, "max       : %9s\n", r.Max.Round(time.Millisecond))

	for _, status := range slices.Sorted(maps.Keys(r.Statuses)) {
		label := fmt.Sprintf("HTTP %d", status)
		if status == transportErrorStatus {
			label = "transport"
		}
		fmt.Fprintf(w, "%-10s: %9d\n", label, r.Statuses[status])
	}

	for _, message := range slices.Sorted(maps.Keys(r.Errors)) {
		fmt.Fprintf(w, "error     : %9d  %s\n", r.Errors[message], message)
	}
}
