// internal/metrics/metrics.go
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics holds the telemetry collectors.
// It satisfies pipeline.Observer and poller.Recorder.
type Metrics struct {
	published      prometheus.Counter
	spooled        prometheus.Counter
	publishFailed  prometheus.Counter
	spoolDepth     prometheus.Gauge
	deviceErrors   *prometheus.CounterVec
	iteration      prometheus.Histogram
	brokerUp       prometheus.Gauge
	equipmentState *prometheus.GaugeVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		published: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "telemetry_events_published_total",
			Help: "Events handed to the broker, including drained spool entries.",
		}),
		spooled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "telemetry_events_spooled_total",
			Help: "Events appended to the local spool.",
		}),
		publishFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "telemetry_publish_failures_total",
			Help: "Publish attempts that failed while the broker looked connected.",
		}),
		spoolDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "telemetry_spool_depth",
			Help: "Undelivered events held in the spool.",
		}),
		deviceErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "telemetry_device_errors_total",
			Help: "Failed equipment reads.",
		}, []string{"equipment"}),
		iteration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "telemetry_iteration_duration_seconds",
			Help:    "Wall time of one poll iteration over the roster.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		brokerUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "telemetry_broker_connected",
			Help: "1 when the broker connection is open.",
		}),
		equipmentState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "telemetry_equipment_status",
			Help: "Last status code per equipment.",
		}, []string{"equipment"}),
	}

	reg.MustRegister(
		m.published,
		m.spooled,
		m.publishFailed,
		m.spoolDepth,
		m.deviceErrors,
		m.iteration,
		m.brokerUp,
		m.equipmentState,
	)
	return m
}

// ---- pipeline.Observer ----

func (m *Metrics) Published(n int)  { m.published.Add(float64(n)) }
func (m *Metrics) Spooled()         { m.spooled.Inc() }
func (m *Metrics) PublishFailed()   { m.publishFailed.Inc() }
func (m *Metrics) SpoolDepth(n int) { m.spoolDepth.Set(float64(n)) }

// ---- poller.Recorder ----

func (m *Metrics) DeviceError(equipmentID string) {
	m.deviceErrors.WithLabelValues(equipmentID).Inc()
}

func (m *Metrics) EquipmentStatus(equipmentID string, code int) {
	m.equipmentState.WithLabelValues(equipmentID).Set(float64(code))
}

func (m *Metrics) Iteration(d time.Duration, brokerConnected bool) {
	m.iteration.Observe(d.Seconds())
	if brokerConnected {
		m.brokerUp.Set(1)
	} else {
		m.brokerUp.Set(0)
	}
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer, log *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("metrics listening", zap.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
