package utils

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestPerformanceTrackerAggregates(t *testing.T) {
	pt := NewPerformanceTracker()
	clock := time.Date(2024, 8, 24, 9, 0, 0, 0, time.UTC)
	pt.now = func() time.Time { return clock }

	for _, d := range []time.Duration{100, 300, 200} {
		end := pt.StartStep("lookup")
		clock = clock.Add(d * time.Millisecond)
		end(nil)
	}
	end := pt.StartStep("lookup")
	clock = clock.Add(400 * time.Millisecond)
	if got := end(errors.New("boom")); got != 400*time.Millisecond {
		t.Errorf("step duration = %v, want 400ms", got)
	}

	agg := pt.Aggregate("lookup")
	if agg == nil {
		t.Fatal("no aggregate for lookup")
	}
	if agg.Count != 4 || agg.Failures != 1 {
		t.Errorf("count/failures = %d/%d, want 4/1", agg.Count, agg.Failures)
	}
	if agg.Min != 100*time.Millisecond || agg.Max != 400*time.Millisecond {
		t.Errorf("min/max = %v/%v", agg.Min, agg.Max)
	}
	if agg.Average() != 250*time.Millisecond {
		t.Errorf("average = %v, want 250ms", agg.Average())
	}

	if pt.Aggregate("write") != nil {
		t.Error("unexpected aggregate for unknown step")
	}

	report := pt.GenerateAggregateReport()
	if !strings.Contains(report, "Step: lookup") || !strings.Contains(report, "Failures: 1") {
		t.Errorf("unexpected report: %s", report)
	}
}
