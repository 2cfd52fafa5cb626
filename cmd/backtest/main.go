package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mhornak/meridian/pkg/backtest"
	"github.com/mhornak/meridian/pkg/bus"
	"github.com/mhornak/meridian/pkg/common"
	"github.com/mhornak/meridian/pkg/data/duckdb"
	"github.com/mhornak/meridian/pkg/datasource/historical"
	"github.com/mhornak/meridian/pkg/datasource/synthetic"
	"github.com/mhornak/meridian/pkg/dbg"
	"github.com/mhornak/meridian/pkg/export"
	"github.com/mhornak/meridian/pkg/middleware"
	"github.com/mhornak/meridian/pkg/statistics"
)

var errRunHalted = errors.New("run halted")

func main() {
	configPath := flag.String("config", "backtest.yaml", "path to the run configuration")
	verbose := flag.Bool("verbose", false, "log every dispatched event")
	flag.Parse()

	logger := dbg.NewDevLogger()
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)

	if err := run(logger, *configPath, *verbose); err != nil {
		logger.Fatal("run failed", zap.Error(err))
	}
	logger.Info("done")
}

func run(logger *zap.Logger, configPath string, verbose bool) error {
	cfg, err := loadRunConfig(configPath)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	feed, cleanup, err := newFeed(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	monitorFlags := middleware.MonitorNone
	if verbose {
		monitorFlags = middleware.MonitorAll
	}
	monitor := middleware.NewMonitor(logger, monitorFlags)
	telemetry := middleware.NewTelemetry(logger)
	performance := middleware.NewPerformance(logger)

	router := bus.NewRouter(routerEventCapacity)

	engineCfg, err := cfg.engine()
	if err != nil {
		return err
	}
	runner, err := backtest.NewRunner(engineCfg, router, logger)
	if err != nil {
		return err
	}
	strategy := newCrossoverStrategy(logger, router, cfg.Strategy)

	router.SignalHandler = telemetry.WithSignal(monitor.WithSignal(performance.WithSignal(runner.OnSignal)))
	router.BarHandler = telemetry.WithBar(monitor.WithBar(performance.WithBar(
		bus.MergeHandlers(runner.OnBar, strategy.OnBar))))
	router.OrderAcceptedHandler = telemetry.WithOrderAccepted(monitor.WithOrderAccepted(middleware.NoopOrderAccepted))
	router.OrderRejectedHandler = telemetry.WithOrderRejected(monitor.WithOrderRejected(middleware.NoopOrderRejected))
	router.FillHandler = telemetry.WithFill(monitor.WithFill(middleware.NoopFill))
	router.SnapshotHandler = telemetry.WithSnapshot(monitor.WithSnapshot(middleware.NoopSnapshot))
	router.HaltHandler = telemetry.WithHalt(monitor.WithHalt(middleware.NoopHalt))

	go router.ExecLoop(ctx, func() error {
		if runner.Halted() {
			return errRunHalted
		}
		bar, err := feed()
		if err != nil {
			return err
		}
		return router.Post(bus.BarEvent, bar)
	})

	runErr := <-router.Done()
	if runErr != nil &&
		!errors.Is(runErr, context.Canceled) &&
		!errors.Is(runErr, errRunHalted) &&
		!errors.Is(runErr, historical.ErrEof) &&
		!errors.Is(runErr, synthetic.ErrEof) {
		return fmt.Errorf("error during simulation: %w", runErr)
	}

	router.Statistics().Print(logger)
	telemetry.PrintStatistics()
	performance.PrintStatistics()

	report := statistics.Compute(runner.Fills(), runner.Account().EquityCurve(), cfg.Start, cfg.End)
	report.Print(logger)

	if cfg.TradeLog != "" {
		if err := export.WriteTradeLogFile(cfg.TradeLog, runner.Fills()); err != nil {
			return fmt.Errorf("unable to write trade log: %w", err)
		}
		logger.Info("trade log written", zap.String("path", cfg.TradeLog))
	}
	return nil
}

// newFeed builds the bar source configured for the run as a pull callback.
func newFeed(ctx context.Context, cfg runConfig) (func() (common.Bar, error), func(), error) {
	switch cfg.Data.Kind {
	case "binary":
		source := historical.NewSource[historical.BinaryBar](cfg.Data.Path)
		if err := source.Open(); err != nil {
			return nil, nil, err
		}
		reader := historical.NewBarReader(source, cfg.Symbol, cfg.Period, cfg.Start, cfg.End)
		return reader.GetNext, source.Close, nil

	case "duckdb":
		reader := duckdb.NewReader(cfg.Data.Path)
		if err := reader.Connect(); err != nil {
			return nil, nil, err
		}

		// DuckDB streams rows through a handler, so buffer the window up
		// front and replay it.
		var bars []common.Bar
		err := reader.LoadBars(ctx, cfg.Symbol, cfg.Period, cfg.Start, cfg.End, func(bar common.Bar) error {
			bars = append(bars, bar)
			return nil
		})
		if err != nil {
			reader.Close()
			return nil, nil, err
		}

		idx := 0
		return func() (common.Bar, error) {
			if idx >= len(bars) {
				return common.Bar{}, historical.ErrEof
			}
			bar := bars[idx]
			idx++
			return bar, nil
		}, reader.Close, nil

	case "synthetic":
		startPrice := cfg.Data.StartPrice
		if startPrice <= 0 {
			startPrice = 100
		}
		steps := cfg.Data.Steps
		if steps <= 0 {
			steps = 10000
		}
		startTime := cfg.Start
		if startTime.IsZero() {
			startTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		}
		generator := synthetic.NewBarGenerator(cfg.Symbol, cfg.Engine.Seed, startTime, startPrice, cfg.Period, steps)
		return generator.GetNext, func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unsupported data kind %q", cfg.Data.Kind)
	}
}
