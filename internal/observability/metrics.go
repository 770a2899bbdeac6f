package observability

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	types "github.com/yungbote/carepulse-backend/internal/domain"
	"github.com/yungbote/carepulse-backend/internal/platform/logger"
)

// Metrics is a small Prometheus text-exposition registry. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	apiRequests    *CounterVec
	apiLatency     *HistogramVec
	apiInflight    *Gauge
	jobRuns        *CounterVec
	jobDuration    *HistogramVec
	queueDepth     *GaugeVec
	momentOutcomes *CounterVec
	extractorCalls *CounterVec
	notifications  *CounterVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Current() *Metrics {
	return instance
}

func Init(enabled bool) *Metrics {
	if !enabled {
		return nil
	}
	initOnce.Do(func() {
		instance = NewMetrics()
	})
	return instance
}

func NewMetrics() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("cp_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"cp_api_request_duration_seconds",
			"API request latency in seconds by method/route/status.",
			[]string{"method", "route", "status"},
			[]float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		),
		apiInflight: NewGauge("cp_api_inflight_requests", "In-flight API requests."),
		jobRuns:     NewCounterVec("cp_job_runs_total", "Finished job runs by queue/type/status.", []string{"queue", "job_type", "status"}),
		jobDuration: NewHistogramVec(
			"cp_job_duration_seconds",
			"Job handler duration in seconds by queue/type/status.",
			[]string{"queue", "job_type", "status"},
			[]float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		),
		queueDepth:     NewGaugeVec("cp_job_queue_depth", "Job rows by queue/status.", []string{"queue", "status"}),
		momentOutcomes: NewCounterVec("cp_moment_outcomes_total", "Moment pipeline outcomes by path/status.", []string{"path", "status"}),
		extractorCalls: NewCounterVec("cp_extractor_calls_total", "Extraction collaborator calls by kind/result.", []string{"kind", "result"}),
		notifications:  NewCounterVec("cp_notifications_total", "Notifications by channel/result.", []string{"channel", "result"}),
	}
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	writers := []interface{ WritePrometheus(io.Writer) error }{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.jobRuns, m.jobDuration, m.queueDepth,
		m.momentOutcomes, m.extractorCalls, m.notifications,
	}
	for _, mw := range writers {
		if err := mw.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
}

func (m *Metrics) APIInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) APIInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveJob(queue, jobType, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.jobRuns.Inc(queue, jobType, status)
	m.jobDuration.Observe(dur.Seconds(), queue, jobType, status)
}

func (m *Metrics) IncMomentOutcome(path, status string) {
	if m == nil {
		return
	}
	m.momentOutcomes.Inc(path, status)
}

func (m *Metrics) IncExtractorCall(kind, result string) {
	if m == nil {
		return
	}
	m.extractorCalls.Inc(kind, result)
}

func (m *Metrics) IncNotification(channel, result string) {
	if m == nil {
		return
	}
	m.notifications.Inc(channel, result)
}

// StartJobQueueCollector refreshes the queue depth gauge every interval until
// ctx is done.
func (m *Metrics) StartJobQueueCollector(ctx context.Context, log *logger.Logger, db *gorm.DB, interval time.Duration) {
	if m == nil || db == nil {
		return
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := m.collectQueueDepth(ctx, db); err != nil && log != nil {
					log.Warn("metrics: job queue depth query failed", "error", err)
				}
			}
		}
	}()
}

func (m *Metrics) collectQueueDepth(ctx context.Context, db *gorm.DB) error {
	var rows []struct {
		Queue  string
		Status string
		Count  int64
	}
	if err := db.WithContext(ctx).
		Model(&types.JobRun{}).
		Select("queue, status, count(*) as count").
		Group("queue, status").
		Scan(&rows).Error; err != nil {
		return err
	}
	for _, row := range rows {
		status := strings.TrimSpace(row.Status)
		if status == "" {
			status = "unknown"
		}
		m.queueDepth.Set(float64(row.Count), row.Queue, status)
	}
	return nil
}
