// Command asynccall runs a batch of calls on the default queues and drives their futures from a
// single cooperative poll loop, optionally exposing the queue metrics over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v3"
	"go.uber.org/automaxprocs/maxprocs"
	"golang.org/x/sync/errgroup"

	"github.com/alitto/asynccall"
	"github.com/alitto/asynccall/metrics"
)

const shutdownTimeout = 5 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "asynccall",
		Usage: "offload blocking calls to the default queues and poll their futures",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML or JSON file describing the default queues",
			},
			&cli.IntFlag{
				Name:    "calls",
				Aliases: []string{"n"},
				Usage:   "number of CPU-oriented calls to run",
				Value:   8,
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "serve Prometheus metrics on this address and keep running until interrupted",
			},
		},
		Action: run,
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	calls := cmd.Int("calls")
	if calls < 0 {
		return fmt.Errorf("calls must not be negative, got %d", calls)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	undo, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		logger.Debug(fmt.Sprintf(format, args...))
	}))
	defer undo()
	if err != nil {
		logger.Warn("could not set GOMAXPROCS", slog.Any("error", err))
	}

	cfg := asynccall.DefaultConfig()
	if path := cmd.String("config"); path != "" {
		if cfg, err = asynccall.LoadConfig(path); err != nil {
			return err
		}
	}
	if err := asynccall.ConfigureDefault(cfg, asynccall.WithLogger(logger)); err != nil {
		return err
	}

	addr := cmd.String("metrics-addr")
	if addr == "" {
		return pollAll(ctx, calls)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(metrics.NewCollector(asynccall.Default()))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: shutdownTimeout}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("serving metrics", slog.String("addr", addr))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	group.Go(func() error {
		if err := pollAll(ctx, calls); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	return group.Wait()
}

type pending struct {
	label string
	poll  func() (string, bool)
}

// pollAll submits the calls and polls every future in turn, yielding between rounds, until all
// of them resolve.
func pollAll(ctx context.Context, calls int) error {
	var futures []pending

	for i := range calls {
		n := 25 + i
		futures = append(futures, track(fmt.Sprintf("fib(%d)", n), asynccall.Call(asynccall.DefaultCPUQueue{}, func() int {
			return fib(n)
		})))
	}

	futures = append(futures, track("stat(missing)", asynccall.Call(asynccall.DefaultIOQueue{}, func() os.FileInfo {
		info, err := os.Stat("/nonexistent/asynccall")
		if err != nil {
			panic(err)
		}
		return info
	})))

	for len(futures) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		remaining := futures[:0]
		for _, p := range futures {
			result, ready := p.poll()
			if !ready {
				remaining = append(remaining, p)
				continue
			}
			fmt.Printf("%s: %s\n", p.label, result)
		}
		futures = remaining

		runtime.Gosched()
	}
	return nil
}

func track[T any](label string, future *asynccall.Future[T]) pending {
	return pending{
		label: label,
		poll: func() (string, bool) {
			value, ready, err := future.Poll()
			switch {
			case !ready:
				return "", false
			case err != nil:
				return "error: " + err.Error(), true
			default:
				return fmt.Sprint(value), true
			}
		},
	}
}

func fib(n int) int {
	if n < 2 {
		return n
	}
	return fib(n-1) + fib(n-2)
}
