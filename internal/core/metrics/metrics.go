// Package metrics exports notification engine activity to prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/colonyops/toaster/internal/core/toast"
)

const namespace = "toaster"

// Collector owns a private registry with the engine metrics.
type Collector struct {
	registry *prometheus.Registry

	transitions *prometheus.CounterVec
	dismissals  *prometheus.CounterVec
	visible     prometheus.Gauge
	exiting     prometheus.Gauge
	pending     prometheus.Gauge
}

// New creates a collector and registers its metrics.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Notification lifecycle transitions by kind.",
		}, []string{"kind"}),
		dismissals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dismissals_total",
			Help:      "Dismissed or dropped notifications by reason.",
		}, []string{"reason"}),
		visible: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "visible",
			Help:      "Notifications occupying a visible slot, including exiting ones.",
		}),
		exiting: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "exiting",
			Help:      "Visible notifications waiting for their exit animation to finish.",
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending",
			Help:      "Notifications waiting for a free slot.",
		}),
	}

	c.registry.MustRegister(c.transitions, c.dismissals, c.visible, c.exiting, c.pending)
	return c
}

// Registry exposes the underlying registry, mainly for tests.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Attach feeds the collector from engine transitions and state updates.
// It returns a function that stops the state subscription; transition hooks
// live as long as the engine.
func (c *Collector) Attach(e *toast.Engine) func() {
	e.OnTransition(c.observeTransition)
	c.observeState(e.State())
	return e.Subscribe(func(u toast.Update) { c.observeState(u.State) })
}

func (c *Collector) observeTransition(tr toast.Transition) {
	c.transitions.WithLabelValues(string(tr.Kind)).Inc()
	if tr.Reason != "" {
		c.dismissals.WithLabelValues(string(tr.Reason)).Inc()
	}
}

func (c *Collector) observeState(s toast.State) {
	exiting := 0
	for _, n := range s.Visible {
		if n.Dismissed {
			exiting++
		}
	}

	c.visible.Set(float64(len(s.Visible)))
	c.exiting.Set(float64(exiting))
	c.pending.Set(float64(len(s.Pending)))
}

// Handler serves the registry in the prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (c *Collector) Serve(ctx context.Context, addr string, log zerolog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("metrics listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
