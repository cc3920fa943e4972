package utils

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// StepAggregate holds aggregate timing information for a step
type StepAggregate struct {
	StepName string
	Count    int
	Failures int
	Total    time.Duration
	Min      time.Duration
	Max      time.Duration
}

// Average is Total spread over Count.
func (a *StepAggregate) Average() time.Duration {
	if a.Count == 0 {
		return 0
	}
	return a.Total / time.Duration(a.Count)
}

// PerformanceTracker aggregates how long each named step of a run takes,
// e.g. every provider lookup and the workbook write.
type PerformanceTracker struct {
	mu         sync.Mutex
	now        func() time.Time
	aggregates map[string]*StepAggregate
}

func NewPerformanceTracker() *PerformanceTracker {
	return &PerformanceTracker{
		now:        time.Now,
		aggregates: make(map[string]*StepAggregate),
	}
}

// StartStep begins timing a step. The returned func ends it; pass the step's
// error so failed steps are counted separately.
func (pt *PerformanceTracker) StartStep(name string) func(err error) time.Duration {
	start := pt.now()
	return func(err error) time.Duration {
		d := pt.now().Sub(start)
		pt.record(name, d, err != nil)
		return d
	}
}

func (pt *PerformanceTracker) record(name string, d time.Duration, failed bool) {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	agg, exists := pt.aggregates[name]
	if !exists {
		agg = &StepAggregate{StepName: name, Min: d, Max: d}
		pt.aggregates[name] = agg
	}

	agg.Count++
	agg.Total += d
	if failed {
		agg.Failures++
	}
	if d < agg.Min {
		agg.Min = d
	}
	if d > agg.Max {
		agg.Max = d
	}
}

// Aggregate returns a copy of the named step's aggregate, or nil.
func (pt *PerformanceTracker) Aggregate(name string) *StepAggregate {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	agg, ok := pt.aggregates[name]
	if !ok {
		return nil
	}
	c := *agg
	return &c
}

// GenerateAggregateReport generates an aggregate performance report
func (pt *PerformanceTracker) GenerateAggregateReport() string {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	var sb strings.Builder
	sb.WriteString("\n=== Aggregate Performance Report ===\n")

	// Sort steps by total time
	var steps []*StepAggregate
	for _, agg := range pt.aggregates {
		steps = append(steps, agg)
	}
	sort.Slice(steps, func(i, j int) bool {
		return steps[i].Total > steps[j].Total
	})

	for _, agg := range steps {
		sb.WriteString(fmt.Sprintf(
			"Step: %s\n"+
				"  Count:    %d\n"+
				"  Failures: %d\n"+
				"  Total:    %v\n"+
				"  Average:  %v\n"+
				"  Min:      %v\n"+
				"  Max:      %v\n",
			agg.StepName,
			agg.Count,
			agg.Failures,
			agg.Total.Round(time.Millisecond),
			agg.Average().Round(time.Millisecond),
			agg.Min.Round(time.Millisecond),
			agg.Max.Round(time.Millisecond),
		))
	}

	return sb.String()
}
