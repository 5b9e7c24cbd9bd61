package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"matchbook.com/internal/engine"
	"matchbook.com/pkg/config"
	"matchbook.com/pkg/logger"
	"matchbook.com/pkg/metrics"
)

type options struct {
	configFile string
	input      string
}

func main() {
	var opts options
	flag.StringVar(&opts.configFile, "c", "", "config file (default config/matchbook.yaml)")
	flag.StringVar(&opts.input, "f", "-", "command file in JSON lines, - for stdin")
	flag.Parse()

	// 收到 SIGINT/SIGTERM 时取消 ctx，engine 和 /metrics 跟着退出
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, opts, os.Stdout)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "matchbook:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, out io.Writer) error {
	cfg := &Cfg{}
	v := newViper(opts.configFile)
	// 热更新只改日志级别，其他参数启动后不变
	if err := config.LoadAndWatch(v, cfg, func() { logger.SetLevel(v.GetString("log.level")) }); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logCfg := cfg.Log
	logCfg.Service = cfg.Name
	logger.InitWithConfig(logCfg)
	defer logger.Sync()

	ctx = logger.WithTraceID(ctx, uuid.NewString())
	logger.Info(ctx, "matchbook starting",
		zap.String("config", v.ConfigFileUsed()),
		zap.String("input", opts.input),
		zap.Int32("price_scale", int32(cfg.priceScale())))

	in, closeIn, err := openInput(opts.input)
	if err != nil {
		return err
	}
	defer closeIn()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewEngine()
	m.MustRegister(reg)

	eng := engine.New(cfg.engineConfig(), engine.WithMetrics(m))

	g, gctx := errgroup.WithContext(ctx)
	runCtx, cancel := context.WithCancel(gctx)
	defer cancel()
	eng.Start(runCtx)

	if addr := cfg.Metrics.Addr; addr != "" {
		srv := &http.Server{
			Addr:              addr,
			Handler:           metricsMux(reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info(ctx, "metrics listening", zap.String("addr", addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-runCtx.Done()
			shutdownCtx, c := context.WithTimeout(context.Background(), 5*time.Second)
			defer c()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		drainEvents(runCtx, eng)
		return nil
	})

	g.Go(func() error {
		// 输入读完就收工，其他协程跟着退出
		defer cancel()
		start := time.Now()
		r := newReplayer(eng, cfg.priceScale(), out)
		if err := r.run(runCtx, in); err != nil {
			return fmt.Errorf("replay: %w", err)
		}
		snap, err := eng.Snapshot(runCtx)
		if err != nil {
			return err
		}
		if err := r.book(snap); err != nil {
			return err
		}
		logger.Info(ctx, "replay done",
			zap.Int("lines", r.stats.Lines),
			zap.Int("submitted", r.stats.Submitted),
			zap.Int("cancelled", r.stats.Cancelled),
			zap.Int("rejected", r.stats.Rejected),
			zap.Int("trades", r.stats.Trades),
			zap.Uint64("events_dropped", eng.DroppedEvents()),
			zap.Duration("took", time.Since(start)))
		return nil
	})

	err = g.Wait()
	eng.Stop()
	eng.Wait()
	return err
}

func openInput(name string) (io.Reader, func(), error) {
	if name == "" || name == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, nil, fmt.Errorf("open input: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

func metricsMux(reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	return mux
}

// drainEvents 消费事件流，避免总线写满后丢事件
func drainEvents(ctx context.Context, eng *engine.Engine) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-eng.Events():
			if ev.Type == engine.EvRejected {
				logger.Info(ctx, "order rejected",
					zap.Uint64("seq", ev.Seq),
					zap.Uint64("order_id", ev.OrderID),
					zap.Int("code", ev.Code),
					zap.String("reason", ev.Reason))
				continue
			}
			logger.Debug(ctx, "event",
				zap.Stringer("type", ev.Type),
				zap.Uint64("seq", ev.Seq),
				zap.Uint32("idx", ev.Idx),
				zap.Uint64("order_id", ev.OrderID),
				zap.Uint32("qty", ev.Qty))
		}
	}
}
