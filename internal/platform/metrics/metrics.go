package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "staffing"

// Collectors はサービスが公開する Prometheus メトリクスをまとめます。
type Collectors struct {
	gatherer prometheus.Gatherer

	transitions  *prometheus.CounterVec
	conflicts    prometheus.Counter
	requests     *prometheus.CounterVec
	requestTimes *prometheus.HistogramVec
}

// New は Collectors を生成し、reg に登録します。
func New(reg *prometheus.Registry) (*Collectors, error) {
	c := &Collectors{
		gatherer: reg,
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "worker_transitions_total",
				Help:      "Number of worker history entries written, by action.",
			},
			[]string{"action"},
		),
		conflicts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "worker_transition_conflicts_total",
				Help:      "Number of worker transitions rejected because of a concurrent transition.",
			},
		),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "grpc_requests_total",
				Help:      "Number of handled gRPC requests.",
			},
			[]string{"method", "code"},
		),
		requestTimes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "grpc_request_duration_seconds",
				Help:      "Duration of gRPC requests in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
	}

	for _, col := range []prometheus.Collector{c.transitions, c.conflicts, c.requests, c.requestTimes} {
		if err := reg.Register(col); err != nil {
			return nil, fmt.Errorf("metrics: register: %w", err)
		}
	}

	return c, nil
}

// ObserveTransition は履歴が 1 件書き込まれたことを記録します。
func (c *Collectors) ObserveTransition(action string) {
	c.transitions.WithLabelValues(action).Inc()
}

// ObserveConflict は同時実行の競合で遷移が失敗したことを記録します。
func (c *Collectors) ObserveConflict() {
	c.conflicts.Inc()
}

// ObserveRequest は gRPC リクエストの結果と所要時間を記録します。
func (c *Collectors) ObserveRequest(method, code string, elapsed time.Duration) {
	c.requests.WithLabelValues(method, code).Inc()
	c.requestTimes.WithLabelValues(method).Observe(elapsed.Seconds())
}

// Handler は /metrics 用の http.Handler を返します。
func (c *Collectors) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

// Serve は addr で /metrics を公開し、ctx がキャンセルされると停止します。
func (c *Collectors) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve metrics: %w", err)
	}
	return nil
}
