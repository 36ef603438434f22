package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	documentsIngestedTotal  atomic.Uint64
	documentsFailedTotal    atomic.Uint64
	chunksPersistedTotal    atomic.Uint64
	chunksFailedTotal       atomic.Uint64
	retrievalRequestsTotal  atomic.Uint64
	retrievalNoContextTotal atomic.Uint64
	contextChunksInjected   atomic.Uint64

	ingestJobsReceivedTotal      atomic.Uint64
	ingestJobsCompletedTotal     atomic.Uint64
	ingestJobsFailedTotal        atomic.Uint64
	ingestJobsUnrecoverableTotal atomic.Uint64

	ingestDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
)

// IncDocumentsIngested increments the completed-ingestion counter.
func IncDocumentsIngested() {
	documentsIngestedTotal.Add(1)
}

// IncDocumentsFailed increments the failed-ingestion counter.
func IncDocumentsFailed() {
	documentsFailedTotal.Add(1)
}

// AddChunksPersisted records successfully persisted chunk rows.
func AddChunksPersisted(n int) {
	if n > 0 {
		chunksPersistedTotal.Add(uint64(n))
	}
}

// AddChunksFailed records chunk embed/persist failures.
func AddChunksFailed(n int) {
	if n > 0 {
		chunksFailedTotal.Add(uint64(n))
	}
}

// IncRetrievalRequests increments the retrieval request counter.
func IncRetrievalRequests() {
	retrievalRequestsTotal.Add(1)
}

// IncRetrievalNoContext counts retrievals where nothing cleared the acceptance floor.
func IncRetrievalNoContext() {
	retrievalNoContextTotal.Add(1)
}

// AddContextChunksInjected records how many chunks were injected into a prompt.
func AddContextChunksInjected(n int) {
	if n > 0 {
		contextChunksInjected.Add(uint64(n))
	}
}

// IncIngestJobsReceived increments the queue-job received counter.
func IncIngestJobsReceived() {
	ingestJobsReceivedTotal.Add(1)
}

// IncIngestJobsCompleted increments the queue-job completed counter.
func IncIngestJobsCompleted() {
	ingestJobsCompletedTotal.Add(1)
}

// IncIngestJobsFailed increments the queue-job failed counter.
func IncIngestJobsFailed() {
	ingestJobsFailedTotal.Add(1)
}

// IncIngestJobsDeletedUnrecoverable counts malformed jobs deleted without processing.
func IncIngestJobsDeletedUnrecoverable() {
	ingestJobsUnrecoverableTotal.Add(1)
}

// ObserveIngestDurationMs records an ingestion duration in milliseconds.
func ObserveIngestDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	ingestDuration.Observe(value)
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
	writeCounter(&buf, "documents_ingested_total", "Total documents ingested successfully", documentsIngestedTotal.Load())
	writeCounter(&buf, "documents_failed_total", "Total documents that failed ingestion", documentsFailedTotal.Load())
	writeCounter(&buf, "chunks_persisted_total", "Total chunk rows persisted", chunksPersistedTotal.Load())
	writeCounter(&buf, "chunks_failed_total", "Total chunk embed/persist failures", chunksFailedTotal.Load())
	writeCounter(&buf, "retrieval_requests_total", "Total retrieval requests", retrievalRequestsTotal.Load())
	writeCounter(&buf, "retrieval_no_context_total", "Retrievals with no chunk above the acceptance floor", retrievalNoContextTotal.Load())
	writeCounter(&buf, "context_chunks_injected_total", "Chunks injected into chat prompts", contextChunksInjected.Load())
	writeCounter(&buf, "ingest_jobs_received_total", "Total ingestion jobs received from the queue", ingestJobsReceivedTotal.Load())
	writeCounter(&buf, "ingest_jobs_completed_total", "Total ingestion jobs completed and deleted", ingestJobsCompletedTotal.Load())
	writeCounter(&buf, "ingest_jobs_failed_total", "Total ingestion jobs that failed processing", ingestJobsFailedTotal.Load())
	writeCounter(&buf, "ingest_jobs_deleted_unrecoverable_total", "Malformed ingestion jobs deleted without processing", ingestJobsUnrecoverableTotal.Load())
	writeHistogram(&buf, "ingest_duration_ms", "Document ingestion duration in milliseconds", ingestDuration.Snapshot())
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

// NowMillis returns current time in milliseconds, useful for callers without time utilities.
func NowMillis() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Millisecond)
}
