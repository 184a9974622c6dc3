// Package metrics exposes Prometheus collectors for the polling loop.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Poll results used as the "result" label.
const (
	ResultOK          = "ok"
	ResultFailed      = "failed"
	ResultUnavailable = "unavailable"
)

// Recorder owns a registry with the avisos collectors.
type Recorder struct {
	registry *prometheus.Registry

	pollTicks    *prometheus.CounterVec
	pollDuration prometheus.Histogram
	unread       prometheus.Gauge
	acks         prometheus.Counter
}

// New creates a Recorder with a fresh registry that also carries the Go
// runtime and process collectors.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		pollTicks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "avisos_poll_ticks_total",
				Help: "Total number of notification polls by result",
			},
			[]string{"result"},
		),
		pollDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "avisos_poll_duration_seconds",
				Help:    "Duration of notification polls in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		unread: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "avisos_unread_notifications",
				Help: "Notifications created after the read watermark",
			},
		),
		acks: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "avisos_acknowledgements_total",
				Help: "Total number of mark-as-seen operations",
			},
		),
	}
}

// ObservePoll records one poll tick.
func (r *Recorder) ObservePoll(result string, d time.Duration) {
	r.pollTicks.WithLabelValues(result).Inc()
	r.pollDuration.Observe(d.Seconds())
}

// SetUnread records the current unread count.
func (r *Recorder) SetUnread(n int) {
	r.unread.Set(float64(n))
}

// IncAcknowledgements counts one acknowledgement.
func (r *Recorder) IncAcknowledgements() {
	r.acks.Inc()
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (r *Recorder) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
