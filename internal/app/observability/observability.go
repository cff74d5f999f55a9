package observability

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gedquiz/internal/auth"
	"gedquiz/internal/quiz"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	events   *prometheus.CounterVec
	sessions prometheus.Gauge
}

// NewCollector registers the service metrics on a private registry. db may
// be nil.
func NewCollector(db *sql.DB) *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if db != nil {
		reg.MustRegister(collectors.NewDBStatsCollector(db, "gedquiz"))
	}

	factory := promauto.With(reg)
	return &Collector{
		registry: reg,
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gedquiz_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gedquiz_http_request_duration_seconds",
				Help:    "Time spent serving HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		events: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gedquiz_quiz_events_total",
				Help: "Quiz engine events by kind",
			},
			[]string{"kind"},
		),
		sessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "gedquiz_active_sessions",
				Help: "Current number of live quiz sessions",
			},
		),
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		path := normalizedPath(r.URL.Path)
		c.requests.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
		c.latency.WithLabelValues(r.Method, path).Observe(elapsed.Seconds())

		entry := map[string]any{
			"request_id": middleware.GetReqID(r.Context()),
			"user_id":    auth.CurrentUserID(r.Context()),
			"session_id": extractSessionID(r.URL.Path),
			"method":     r.Method,
			"path":       path,
			"status":     rec.status,
			"latency_ms": float64(elapsed.Microseconds()) / 1000.0,
			"remote_ip":  strings.TrimSpace(r.RemoteAddr),
		}
		b, _ := json.Marshal(entry)
		log.Printf("%s", string(b))
	})
}

// EventHook counts engine events and logs the ones worth a look: write
// failures and exhausted question pools.
func (c *Collector) EventHook(ev quiz.Event) {
	c.events.WithLabelValues(string(ev.Kind)).Inc()

	switch ev.Kind {
	case quiz.EventAttemptFailed, quiz.EventBulkFailed, quiz.EventBookmarksFailed, quiz.EventFetchFailed, quiz.EventNoMoreQuestions:
	default:
		return
	}
	entry := map[string]any{
		"event":       string(ev.Kind),
		"session_id":  ev.SessionID,
		"user_id":     ev.UserID,
		"question_id": ev.QuestionID,
		"count":       ev.Count,
	}
	if ev.Err != nil {
		entry["error"] = ev.Err.Error()
	}
	b, _ := json.Marshal(entry)
	log.Printf("%s", string(b))
}

func (c *Collector) SetActiveSessions(n int) {
	c.sessions.Set(float64(n))
}

func (c *Collector) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func normalizedPath(path string) string {
	if path == "" {
		return "/"
	}
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if p == "" {
			continue
		}
		if _, err := strconv.ParseInt(p, 10, 64); err == nil {
			parts[i] = "{id}"
			continue
		}
		if _, err := uuid.Parse(p); err == nil {
			parts[i] = "{id}"
		}
	}
	return strings.Join(parts, "/")
}

func extractSessionID(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i := 0; i < len(parts)-1; i++ {
		if parts[i] == "sessions" {
			if id, err := uuid.Parse(parts[i+1]); err == nil {
				return id.String()
			}
		}
	}
	return ""
}
