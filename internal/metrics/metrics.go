package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "classroom", Name: "class_requests_created_total", Help: "Enrollment requests created",
	})
	RequestsResolved = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "classroom", Name: "class_requests_resolved_total", Help: "Enrollment requests approved or rejected",
	}, []string{"status"})
	AttendanceMarked = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "classroom", Name: "attendance_records_marked_total", Help: "Attendance records written by session marking",
	})
	EventPublishErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "classroom", Name: "event_publish_errors_total", Help: "Workflow events that failed to publish",
	})
	EventsRecorded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "classroom", Name: "activity_events_recorded_total", Help: "Workflow events appended to the activity log",
	}, []string{"type"})
	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "classroom", Name: "http_request_duration_seconds", Help: "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

func init() {
	prometheus.MustRegister(RequestsCreated, RequestsResolved, AttendanceMarked, EventPublishErrors, EventsRecorded, HTTPDuration)
}

func Handler() http.Handler { return promhttp.Handler() }

// ObserveHTTP records one served request. route is the matched pattern, not the raw path.
func ObserveHTTP(method, route string, status int, d time.Duration) {
	HTTPDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
