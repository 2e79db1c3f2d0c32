package monitoring

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/lightninglabs/aesctrl/aescfg"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// shutdownTimeout bounds the graceful shutdown of the exporter.
const shutdownTimeout = 5 * time.Second

// ErrAlreadyStarted is returned if the exporter is started a second time.
var ErrAlreadyStarted = errors.New("prometheus exporter already started")

var started sync.Once

// ExportPrometheusMetrics serves the metrics of gatherer on the configured
// address until ctx is canceled. Only one exporter may run per process.
func ExportPrometheusMetrics(ctx context.Context, cfg aescfg.Prometheus,
	gatherer prometheus.Gatherer) error {

	lis, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return fmt.Errorf("unable to listen on %v: %w", cfg.Listen, err)
	}

	return Serve(ctx, lis, gatherer)
}

// Serve serves the metrics of gatherer on lis until ctx is canceled.
func Serve(ctx context.Context, lis net.Listener,
	gatherer prometheus.Gatherer) error {

	err := ErrAlreadyStarted
	started.Do(func() {
		err = serve(ctx, lis, gatherer)
	})

	return err
}

func serve(ctx context.Context, lis net.Listener,
	gatherer prometheus.Gatherer) error {

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(
		gatherer, promhttp.HandlerOpts{},
	))

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Infof("Prometheus exporter started on %v/metrics",
			lis.Addr())

		errChan <- srv.Serve(lis)
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("prometheus exporter failed: %w", err)

	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(), shutdownTimeout,
	)
	defer cancel()

	log.Infof("Stopping Prometheus exporter")

	err := srv.Shutdown(shutdownCtx)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
