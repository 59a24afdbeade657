// Package metrics provides Prometheus metrics for the sitekit server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Website storage metrics
	websiteOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitekit_website_operations_total",
			Help: "Total number of website storage operations",
		},
		[]string{"op", "success"},
	)

	assetBytesWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sitekit_asset_bytes_written_total",
			Help: "Total asset bytes written to storage",
		},
	)

	assetBytesRead = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sitekit_asset_bytes_read_total",
			Help: "Total asset bytes read from storage",
		},
	)

	// Publication metrics
	publishTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitekit_publish_total",
			Help: "Total number of publish operations",
		},
		[]string{"connector", "success"},
	)

	publishFilesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sitekit_publish_files_total",
			Help: "Total number of files written by publish operations",
		},
	)

	publishDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sitekit_publish_duration_seconds",
			Help:    "Publish operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"connector"},
	)

	// Job registry metrics
	jobsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sitekit_jobs_active",
			Help: "Number of jobs currently in progress",
		},
	)

	jobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitekit_jobs_total",
			Help: "Total number of jobs by terminal status",
		},
		[]string{"status"},
	)

	jobEventSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sitekit_job_event_subscribers",
			Help: "Number of active job event subscribers",
		},
	)

	jobEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitekit_job_events_total",
			Help: "Total number of job events published",
		},
		[]string{"type"},
	)

	// S3 metrics
	s3OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitekit_s3_operations_total",
			Help: "Total number of S3 operations",
		},
		[]string{"operation", "success"},
	)

	s3OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sitekit_s3_operation_duration_seconds",
			Help:    "S3 operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

// RecordWebsiteOp records a website storage operation.
func RecordWebsiteOp(op string, success bool) {
	websiteOpsTotal.WithLabelValues(op, strconv.FormatBool(success)).Inc()
}

// RecordAssetWrite records bytes written through WriteAssets.
func RecordAssetWrite(bytes int64) {
	assetBytesWritten.Add(float64(bytes))
}

// RecordAssetRead records bytes read through ReadAsset.
func RecordAssetRead(bytes int64) {
	assetBytesRead.Add(float64(bytes))
}

// RecordPublish records a completed publish operation.
func RecordPublish(connector string, duration time.Duration, success bool) {
	publishTotal.WithLabelValues(connector, strconv.FormatBool(success)).Inc()
	publishDuration.WithLabelValues(connector).Observe(duration.Seconds())
}

// RecordPublishFile records one file written by a publish operation.
func RecordPublishFile() {
	publishFilesTotal.Inc()
}

// JobStarted records a new in-progress job.
func JobStarted() {
	jobsActive.Inc()
}

// JobFinished records a job reaching a terminal status.
func JobFinished(status string) {
	jobsActive.Dec()
	jobsTotal.WithLabelValues(status).Inc()
}

// SetJobEventSubscribers sets the active job event subscriber count.
func SetJobEventSubscribers(n int64) {
	jobEventSubscribers.Set(float64(n))
}

// RecordJobEvent records a published job event.
func RecordJobEvent(eventType string) {
	jobEventsTotal.WithLabelValues(eventType).Inc()
}

// RecordS3Operation records an S3 operation with its duration.
func RecordS3Operation(operation string, duration time.Duration, success bool) {
	s3OperationsTotal.WithLabelValues(operation, strconv.FormatBool(success)).Inc()
	s3OperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
