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
	mappingRequestsTotal     atomic.Uint64
	mappingCacheHitsTotal    atomic.Uint64
	mappingLLMCallsTotal     atomic.Uint64
	mappingLLMFailuresTotal  atomic.Uint64
	validationRejectedTotal  atomic.Uint64
	feedbackSubmissionsTotal atomic.Uint64
	answersSweptTotal        atomic.Uint64
	errorReportsTotal        atomic.Uint64

	mappingDuration = newHistogram([]float64{50, 100, 250, 500, 1000, 2000, 5000, 10000, 30000})
)

// IncMappingRequest increments the mapping request counter.
func IncMappingRequest() {
	mappingRequestsTotal.Add(1)
}

// IncMappingCacheHit increments the result-cache hit counter.
func IncMappingCacheHit() {
	mappingCacheHitsTotal.Add(1)
}

// IncLLMCall increments the generative-call counter.
func IncLLMCall() {
	mappingLLMCallsTotal.Add(1)
}

// IncLLMFailure increments the generative-failure counter.
func IncLLMFailure() {
	mappingLLMFailuresTotal.Add(1)
}

// IncValidationRejection increments the semantic-safety rejection counter.
func IncValidationRejection() {
	validationRejectedTotal.Add(1)
}

// IncFeedbackSubmission increments the submission-feedback counter.
func IncFeedbackSubmission() {
	feedbackSubmissionsTotal.Add(1)
}

// AddAnswersSwept adds to the stale-answer sweep counter.
func AddAnswersSwept(n uint64) {
	answersSweptTotal.Add(n)
}

// IncErrorReport increments the extension error-report counter.
func IncErrorReport() {
	errorReportsTotal.Add(1)
}

// ObserveMappingDurationMs records a mapping request duration in milliseconds.
func ObserveMappingDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	mappingDuration.Observe(value)
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
	writeCounter(&buf, "mapping_requests_total", "Total field mapping requests", mappingRequestsTotal.Load())
	writeCounter(&buf, "mapping_cache_hits_total", "Total mapping result cache hits", mappingCacheHitsTotal.Load())
	writeCounter(&buf, "mapping_llm_calls_total", "Total generative mapping calls", mappingLLMCallsTotal.Load())
	writeCounter(&buf, "mapping_llm_failures_total", "Total generative mapping failures", mappingLLMFailuresTotal.Load())
	writeCounter(&buf, "mapping_validation_rejections_total", "Total generative values rejected by validators", validationRejectedTotal.Load())
	writeCounter(&buf, "feedback_submissions_total", "Total submission feedback requests", feedbackSubmissionsTotal.Load())
	writeCounter(&buf, "answers_swept_total", "Total stale learned answers removed", answersSweptTotal.Load())
	writeCounter(&buf, "extension_error_reports_total", "Total extension error reports received", errorReportsTotal.Load())
	writeHistogram(&buf, "mapping_duration_ms", "Mapping request duration in milliseconds", mappingDuration.Snapshot())
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
