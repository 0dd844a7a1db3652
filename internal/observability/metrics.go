package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yungbote/saarthak-backend/internal/lifecycle"
	"github.com/yungbote/saarthak-backend/internal/platform/objectstore"
)

const namespace = "saarthak"

// Metrics holds the process collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	apiRequests   *prometheus.CounterVec
	apiLatency    *prometheus.HistogramVec
	apiInflight   prometheus.Gauge
	cacheLookups  *prometheus.CounterVec
	notifications *prometheus.CounterVec
	uploads       *prometheus.CounterVec
	uploadBytes   *prometheus.CounterVec
	uploadLatency *prometheus.HistogramVec
	contacts      *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Total HTTP requests by surface, method, route and status.",
		}, []string{"surface", "method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "HTTP request latency in seconds by surface, method, route and status.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"surface", "method", "route", "status"}),
		apiInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "api_inflight_requests",
			Help:      "In-flight HTTP requests.",
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Read cache lookups by family and result.",
		}, []string{"family", "result"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admin_notifications_total",
			Help:      "Terminal admin action outcomes by kind, action and level.",
		}, []string{"kind", "action", "level"}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Object uploads by bucket and outcome.",
		}, []string{"bucket", "outcome"}),
		uploadBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploaded_bytes_total",
			Help:      "Bytes successfully written to object storage.",
		}, []string{"bucket"}),
		uploadLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_duration_seconds",
			Help:      "Object upload latency in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"bucket"}),
		contacts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "contact_submissions_total",
			Help:      "Public contact form submissions by outcome.",
		}, []string{"outcome"}),
	}

	var err error
	if m.apiRequests, err = register(reg, m.apiRequests); err != nil {
		return nil, err
	}
	if m.apiLatency, err = register(reg, m.apiLatency); err != nil {
		return nil, err
	}
	if m.apiInflight, err = register(reg, m.apiInflight); err != nil {
		return nil, err
	}
	if m.cacheLookups, err = register(reg, m.cacheLookups); err != nil {
		return nil, err
	}
	if m.notifications, err = register(reg, m.notifications); err != nil {
		return nil, err
	}
	if m.uploads, err = register(reg, m.uploads); err != nil {
		return nil, err
	}
	if m.uploadBytes, err = register(reg, m.uploadBytes); err != nil {
		return nil, err
	}
	if m.uploadLatency, err = register(reg, m.uploadLatency); err != nil {
		return nil, err
	}
	if m.contacts, err = register(reg, m.contacts); err != nil {
		return nil, err
	}
	return m, nil
}

// register adds c to reg, reusing an identical collector that is already
// registered.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		var zero C
		return zero, fmt.Errorf("register collector: %w", err)
	}
	return c, nil
}

// Handler serves the gatherer in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

// ObserveAPI records one finished request. surface is admin, api, site,
// infra or unmatched.
func (m *Metrics) ObserveAPI(surface, method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(surface, method, route, status).Inc()
	m.apiLatency.WithLabelValues(surface, method, route, status).Observe(d.Seconds())
}

func (m *Metrics) CacheHit(family string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(family, "hit").Inc()
}

func (m *Metrics) CacheMiss(family string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(family, "miss").Inc()
}

// Notify counts admin outcomes; it satisfies lifecycle.Notifier.
func (m *Metrics) Notify(_ context.Context, n lifecycle.Notification) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(n.Kind, n.Action, string(n.Level)).Inc()
}

func (m *Metrics) ObserveContact(err error) {
	if m == nil {
		return
	}
	outcome := "accepted"
	if err != nil {
		outcome = "rejected"
	}
	m.contacts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observeUpload(bucket objectstore.Bucket, d time.Duration, n int64, err error) {
	if m == nil {
		return
	}
	b := string(bucket)
	m.uploadLatency.WithLabelValues(b).Observe(d.Seconds())
	if err != nil {
		m.uploads.WithLabelValues(b, "error").Inc()
		return
	}
	m.uploads.WithLabelValues(b, "ok").Inc()
	m.uploadBytes.WithLabelValues(b).Add(float64(n))
}

// InstrumentUploader records latency, size and failures of every upload.
func (m *Metrics) InstrumentUploader(u lifecycle.Uploader) lifecycle.Uploader {
	if m == nil {
		return u
	}
	return &instrumentedUploader{next: u, m: m}
}

type instrumentedUploader struct {
	next lifecycle.Uploader
	m    *Metrics
}

func (u *instrumentedUploader) UploadFile(ctx context.Context, bucket objectstore.Bucket, path string, file io.Reader) (string, error) {
	start := time.Now()
	cr := &countingReader{r: file}
	url, err := u.next.UploadFile(ctx, bucket, path, cr)
	u.m.observeUpload(bucket, time.Since(start), cr.n, err)
	return url, err
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
