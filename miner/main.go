// Package main implements the ferrominer proof-of-work mining client.
//
// The miner keeps a WebSocket connection to a daemon's getwork endpoint,
// fans incoming block templates out to one mining worker per hardware
// thread, and submits any solved template back over the same connection.
// The connection supervisor and the workers communicate only through
// channels and atomic counters: workers never perform I/O, and the
// supervisor never hashes.
//
// The miner supports:
//   - Multi-threaded CPU mining with per-worker search-space partitioning
//   - Automatic reconnection with a fixed retry interval
//   - A periodic colored status line (height, accepted, rejected, hashrate)
//   - A standalone benchmark mode measuring raw hash throughput
//
// Configuration is done via command-line flags, environment variables, and
// an optional YAML config file.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"

	"golang.org/x/sync/errgroup"

	"ferrominer/block"
	"ferrominer/config"
	"ferrominer/logger"
	"ferrominer/telemetry"
)

var (
	configPath    string
	minerAddress  string
	daemonAddress string
	workerName    string
	numThreads    int
	benchmark     bool
	iterations    int
)

func main() {
	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.StringVar(&minerAddress, "address", "", "Wallet address to mine and receive block rewards on")
	flag.StringVar(&daemonAddress, "daemon-address", "", "Daemon address to connect to for mining (host:port)")
	flag.StringVar(&workerName, "worker", "", "Worker name to be displayed on daemon side")
	flag.IntVar(&numThreads, "threads", -1, "Number of mining threads (0 = auto-detect)")
	flag.BoolVar(&benchmark, "benchmark", false, "Run the hash benchmark and exit")
	flag.IntVar(&iterations, "iterations", 0, "Iterations per thread in benchmark mode")
	flag.Parse()

	cfg, err := config.LoadMinerConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	applyFlagOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Set(logger.NewFromMinerConfig(cfg))

	threads := resolveThreads(cfg.Miner.Threads)

	if benchmark {
		logger.Info("benchmark mode enabled", "max_threads", threads, "iterations", cfg.Benchmark.Iterations)
		runBenchmark(threads, cfg.Benchmark.Iterations)
		logger.Info("benchmark finished")
		return
	}

	// The mining identity is the one startup-fatal input: nothing is
	// started until it parses.
	address, err := block.ParseAddress(cfg.Miner.Address)
	if err != nil {
		logger.Error("invalid miner address", "error", err)
		os.Exit(1)
	}
	logger.Info("miner address", "address", address.String())
	if cfg.Miner.Address == config.DevAddress {
		logger.Warn("you are mining to the default developer address, configure your own address")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	counters := telemetry.New()
	disp := newDispatcher()
	solutions := make(chan *block.Template, threads)

	// Workers subscribe before the supervisor can publish anything, so
	// every worker sees every job.
	logger.Info("starting mining workers", "threads", threads)
	var workers sync.WaitGroup
	for id := 0; id < threads; id++ {
		w := &worker{
			id:        uint8(id),
			jobs:      disp.Subscribe(),
			solutions: solutions,
			counters:  counters,
			log:       logger.Get(),
		}
		workers.Add(1)
		go func() {
			defer workers.Done()
			w.run()
		}()
	}

	sup := &supervisor{
		daemonAddress: cfg.Daemon.Address,
		minerAddress:  address,
		workerName:    cfg.Miner.WorkerName,
		retryInterval: cfg.Daemon.RetryInterval,
		dispatcher:    disp,
		solutions:     solutions,
		counters:      counters,
		log:           logger.Get(),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sup.Run(gctx)
	})
	g.Go(func() error {
		runStatus(gctx, counters, cfg.Logging.Quiet, os.Stdout)
		return nil
	})

	// Config changes only retune logging at runtime; everything else
	// requires a restart.
	err = config.WatchMinerConfig(gctx, configPath, func(newCfg *config.MinerConfig) {
		logger.Set(logger.NewFromMinerConfig(newCfg))
	}, logger.Get())
	if err != nil {
		logger.Warn("config watcher not started", "error", err)
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("miner stopped unexpectedly", "error", err)
	}

	// Broadcast the exit signal so every worker unwinds, then wait for
	// them; workers check it at loop boundaries, not pre-emptively.
	disp.Publish(notification{kind: notifyExit})
	workers.Wait()
	logger.Info("miner terminated")
}

// applyFlagOverrides layers explicit command-line flags over the loaded
// configuration, keeping the flags > env > file > defaults precedence.
func applyFlagOverrides(cfg *config.MinerConfig) {
	if minerAddress != "" {
		cfg.Miner.Address = minerAddress
	}
	if daemonAddress != "" {
		cfg.Daemon.Address = daemonAddress
	}
	if workerName != "" {
		cfg.Miner.WorkerName = workerName
	}
	if numThreads >= 0 {
		cfg.Miner.Threads = numThreads
	}
	if iterations > 0 {
		cfg.Benchmark.Iterations = iterations
	}
}

// resolveThreads turns the configured thread count into an actual worker
// count: 0 means detected hardware parallelism, and the result is capped
// because worker ids must fit in one extra-nonce byte.
func resolveThreads(configured int) int {
	detected := runtime.NumCPU()
	if detected > config.MaxThreads {
		logger.Warn("more hardware threads than supported, capping",
			"detected", detected, "max", config.MaxThreads)
		detected = config.MaxThreads
	}

	if configured == 0 {
		return detected
	}
	if configured != detected {
		logger.Warn("configured thread count may not be optimal",
			"configured", configured, "recommended", detected)
	}
	return configured
}
