package aesctrl

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/lightninglabs/aesctrl/build"
	"github.com/lightninglabs/aesctrl/monitoring"
	"github.com/lightninglabs/aesctrl/pipeline"
	"github.com/lightninglabs/aesctrl/prng"
	"github.com/lightninglabs/aesctrl/signal"
	"github.com/lightninglabs/aesctrl/sim"
	"github.com/lightninglabs/aesctrl/tracefile"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/lightningnetwork/lnd/healthcheck"
	"github.com/lightningnetwork/lnd/ticker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

// Main is the true entry point for aessimd. It runs the controller engine
// and the request generator until a shutdown is requested through
// interceptor.
func Main(cfg *Config, interceptor signal.Interceptor) error {
	defer func() {
		aesdLog.Info("Shutdown complete")
		if cfg.logRotator != nil {
			_ = cfg.logRotator.Close()
		}
	}()

	aesdLog.Infof("Version: %v", build.BuildInfo())

	ctrlCfg, err := cfg.Cipher.Controller()
	if err != nil {
		return err
	}
	aesdLog.Infof("Simulating %v S-box, masking=%v", ctrlCfg.SBoxImpl,
		ctrlCfg.Masking)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(
			collectors.ProcessCollectorOpts{},
		),
	)
	metrics, err := NewMetrics(registry)
	if err != nil {
		return fmt.Errorf("unable to register metrics: %w", err)
	}

	var sink sim.TraceSink
	if cfg.TraceFile != "" {
		traceFile, err := tracefile.Create(cfg.TraceFile)
		if err != nil {
			return err
		}
		defer func() {
			if err := traceFile.Close(); err != nil {
				aesdLog.Errorf("Unable to close trace: %v", err)
			}
		}()

		aesdLog.Infof("Recording ticks to %v", cfg.TraceFile)
		sink = traceFile
	}

	sbLatency, keLatency := cfg.Pipeline.LatencyFuncs(
		pipeline.DefaultLatency(ctrlCfg.SBoxImpl),
	)

	engine, err := NewEngine(EngineConfig{
		Harness: sim.Config{
			Controller:       ctrlCfg,
			SubBytesLatency:  sbLatency,
			KeyExpandLatency: keLatency,
			PRNG: prng.Config{
				ReseedLatency: cfg.Pipeline.ReseedLatency,
			},
			Sink: sink,
		},
		Ticker:      ticker.New(cfg.TickInterval),
		Clock:       clock.NewDefaultClock(),
		QueueSize:   cfg.Workload.QueueSize,
		DropMin:     cfg.Workload.DropMin,
		DropMax:     cfg.Workload.DropMax,
		MaxJobTicks: cfg.MaxJobTicks,
		Metrics:     metrics,
	})
	if err != nil {
		return err
	}

	if err := engine.Start(); err != nil {
		return err
	}
	defer func() {
		if err := engine.Stop(); err != nil {
			aesdLog.Errorf("Unable to stop engine: %v", err)
		}
	}()

	monitor := healthcheck.NewMonitor(&healthcheck.Config{
		Checks: newHealthChecks(cfg.HealthChecks, engine),
		Shutdown: func(format string, params ...interface{}) {
			aesdLog.Criticalf("Health check: "+format, params...)
		},
	})
	if err := monitor.Start(); err != nil {
		return fmt.Errorf("unable to start health monitor: %w", err)
	}
	defer func() {
		if err := monitor.Stop(); err != nil {
			aesdLog.Errorf("Unable to stop health monitor: %v", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Prometheus.Enabled() {
		g.Go(func() error {
			return monitoring.ExportPrometheusMetrics(
				gctx, cfg.Prometheus, registry,
			)
		})
	}

	if !cfg.Workload.Disable {
		src := rand.New(rand.NewPCG(cfg.Workload.Seed, 0))
		workload := NewWorkload(cfg.Workload, engine, src)

		g.Go(func() error {
			defer func() {
				aesdLog.Infof("Workload stats: %+v",
					workload.Stats())
			}()

			return workload.Run(gctx)
		})
	}

	aesdLog.Info("aessimd is running")

	select {
	case <-interceptor.ShutdownChannel():
		aesdLog.Info("Received shutdown request")

	case <-gctx.Done():
	}

	cancel()

	return g.Wait()
}
