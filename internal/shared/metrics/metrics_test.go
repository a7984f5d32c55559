package metrics

import (
	"strings"
	"testing"
)

func TestRenderIncludesCountersAndHistogram(t *testing.T) {
	IncPlanGenerated()
	IncPDFRendered()
	ObservePlanDurationMs(1500)

	out := Render()
	for _, want := range []string{
		"# TYPE plan_generated_total counter",
		"# TYPE pdf_rendered_total counter",
		"# TYPE plan_generation_duration_ms histogram",
		`plan_generation_duration_ms_bucket{le="2500"}`,
		`plan_generation_duration_ms_bucket{le="+Inf"}`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("metrics output missing %q:\n%s", want, out)
		}
	}
}

func TestHistogramCountsPerBucket(t *testing.T) {
	h := newHistogram([]float64{10, 100})
	h.Observe(5)
	h.Observe(50)
	h.Observe(500)

	snap := h.Snapshot()
	if snap.count != 3 {
		t.Fatalf("count = %d, want 3", snap.count)
	}
	if snap.counts[0] != 1 || snap.counts[1] != 1 {
		t.Fatalf("bucket counts = %v, want [1 1]", snap.counts)
	}
	if snap.sum != 555 {
		t.Fatalf("sum = %v, want 555", snap.sum)
	}
}
