package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	planGeneratedTotal       atomic.Uint64
	planFailedTotal          atomic.Uint64
	resumeExtractFailedTotal atomic.Uint64
	pdfRenderedTotal         atomic.Uint64
	pdfFailedTotal           atomic.Uint64

	planGenerationDuration = newHistogram([]float64{1000, 2500, 5000, 10000, 20000, 30000, 60000, 120000})
)

// IncPlanGenerated increments the generated-plan counter.
func IncPlanGenerated() {
	planGeneratedTotal.Add(1)
}

// IncPlanFailed increments the failed-plan counter.
func IncPlanFailed() {
	planFailedTotal.Add(1)
}

// IncResumeExtractFailed counts resumes whose text could not be extracted.
func IncResumeExtractFailed() {
	resumeExtractFailedTotal.Add(1)
}

// IncPDFRendered increments the rendered-PDF counter.
func IncPDFRendered() {
	pdfRenderedTotal.Add(1)
}

// IncPDFFailed increments the failed-PDF counter.
func IncPDFFailed() {
	pdfFailedTotal.Add(1)
}

// ObservePlanDurationMs records a plan generation duration in milliseconds.
func ObservePlanDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	planGenerationDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "plan_generated_total", "Total career plans generated", planGeneratedTotal.Load())
	writeCounter(&buf, "plan_failed_total", "Total career plan generations that failed", planFailedTotal.Load())
	writeCounter(&buf, "resume_extract_failed_total", "Total resumes whose text could not be extracted", resumeExtractFailedTotal.Load())
	writeCounter(&buf, "pdf_rendered_total", "Total plan PDFs rendered", pdfRenderedTotal.Load())
	writeCounter(&buf, "pdf_failed_total", "Total plan PDF renders that failed", pdfFailedTotal.Load())
	writeHistogram(&buf, "plan_generation_duration_ms", "Plan generation duration in milliseconds", planGenerationDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			break
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
