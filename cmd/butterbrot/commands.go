package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/lukaszgryglicki/butterbrot/internal/blob"
	"github.com/lukaszgryglicki/butterbrot/internal/blob/core"
	"github.com/lukaszgryglicki/butterbrot/internal/butterbrot"
	"github.com/lukaszgryglicki/butterbrot/internal/ledger"
)

// renderOptions are the flags of the root command. cfg holds the flag
// values, only the flags actually given override the config file.
type renderOptions struct {
	configPath  string
	metricsAddr string
	ledgerPath  string
	meta        bool
	cfg         butterbrot.Config
}

func newRootCmd() *cobra.Command {
	cmd, _ := newRenderCmd()
	cmd.AddCommand(newCombineCmd(), newInfoCmd(), newRunsCmd())
	return cmd
}

func newRenderCmd() (*cobra.Command, *renderOptions) {
	o := &renderOptions{cfg: butterbrot.DefaultConfig()}
	cmd := &cobra.Command{
		Use:   "butterbrot",
		Short: "Render Buddhabrot histograms with a Metropolis-Hastings sampler",
		Long: `butterbrot accumulates Buddhabrot orbit counts into a .birb file.

The frame is either given by two corners (--c1, --c2) or derived from
--center and --zoom. Outputs may be local paths or s3://bucket/key.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.run(cmd)
		},
	}
	f := cmd.Flags()
	c := &o.cfg
	f.StringVar(&o.configPath, "config", "", "JSON or YAML config file, flags override it")
	f.StringVarP(&c.Output, "output", "o", "", "output location, defaults to birb_XXXX.birb")
	f.IntVarP(&c.Width, "width", "w", c.Width, "histogram width in pixels")
	f.IntVar(&c.Height, "height", c.Height, "histogram height in pixels")
	f.VarP(complexValue{&c.Center}, "center", "c", "frame centre, used without --c1/--c2")
	f.Float64VarP(&c.Zoom, "zoom", "z", c.Zoom, "pixels per unit, used without --c1/--c2")
	f.Var(complexValue{&c.Corner1}, "c1", "first corner of the frame")
	f.Var(complexValue{&c.Corner2}, "c2", "opposite corner of the frame")
	f.IntVarP(&c.Threads, "threads", "t", c.Threads, "worker threads")
	f.IntVarP(&c.Samples, "samples", "s", c.Samples, "samples over all threads")
	f.IntVarP(&c.Iterations, "iterations", "i", c.Iterations, "orbit length")
	f.IntVar(&c.Warmup, "warmup", c.Warmup, "discarded transitions per thread")
	f.IntVarP(&c.PhaseLen, "phase-len", "p", c.PhaseLen, "samples per write-back phase, 0 derives it")
	f.Uint64Var(&c.TimeoutSeconds, "timeout", c.TimeoutSeconds, "stop after this many seconds, 0 means never")
	f.Uint64Var(&c.LogIntervalSeconds, "interval", c.LogIntervalSeconds, "seconds between status reports")
	f.Int64Var(&c.Seed, "seed", c.Seed, "RNG seed, 0 seeds from the clock")
	f.IntVar(&c.MaxAttempts, "max-attempts", c.MaxAttempts, "failed proposals before giving up, 0 means never")
	f.StringVar(&c.FlushMode, "flush-mode", c.FlushMode, "locked or partial")
	f.StringVar(&o.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	f.StringVar(&o.ledgerPath, "ledger", "", "record the run in this SQLite database")
	f.BoolVar(&o.meta, "meta", false, "store run metadata with the output, a .meta file next to local outputs")
	return cmd, o
}

// config layers the changed flags on top of the config file, if any.
func (o *renderOptions) config(flags *pflag.FlagSet) (butterbrot.Config, error) {
	if o.configPath == "" {
		return o.cfg, nil
	}
	cfg, err := butterbrot.LoadConfig(o.configPath)
	if err != nil {
		return cfg, err
	}
	c := o.cfg
	set := map[string]func(){
		"output":       func() { cfg.Output = c.Output },
		"width":        func() { cfg.Width = c.Width },
		"height":       func() { cfg.Height = c.Height },
		"center":       func() { cfg.Center = c.Center },
		"zoom":         func() { cfg.Zoom = c.Zoom },
		"c1":           func() { cfg.Corner1 = c.Corner1 },
		"c2":           func() { cfg.Corner2 = c.Corner2 },
		"threads":      func() { cfg.Threads = c.Threads },
		"samples":      func() { cfg.Samples = c.Samples },
		"iterations":   func() { cfg.Iterations = c.Iterations },
		"warmup":       func() { cfg.Warmup = c.Warmup },
		"phase-len":    func() { cfg.PhaseLen = c.PhaseLen },
		"timeout":      func() { cfg.TimeoutSeconds = c.TimeoutSeconds },
		"interval":     func() { cfg.LogIntervalSeconds = c.LogIntervalSeconds },
		"seed":         func() { cfg.Seed = c.Seed },
		"max-attempts": func() { cfg.MaxAttempts = c.MaxAttempts },
		"flush-mode":   func() { cfg.FlushMode = c.FlushMode },
	}
	flags.Visit(func(f *pflag.Flag) {
		if apply, ok := set[f.Name]; ok {
			apply()
		}
	})
	return cfg, nil
}

func (o *renderOptions) run(cmd *cobra.Command) error {
	ctx := cmd.Context()
	cfg, err := o.config(cmd.Flags())
	if err != nil {
		return err
	}

	var metrics *butterbrot.Metrics
	if o.metricsAddr != "" {
		metrics = butterbrot.NewMetrics()
		stop, err := serveMetrics(o.metricsAddr, metrics)
		if err != nil {
			return err
		}
		defer stop()
	}

	engine, err := butterbrot.NewEngine(cfg,
		butterbrot.WithLogger(slog.Default()),
		butterbrot.WithStatus(cmd.OutOrStdout()),
		butterbrot.WithMetrics(metrics))
	if err != nil {
		return err
	}
	cfg = engine.Config()

	// fail before rendering when the output can not be written
	store, key, err := blob.Open(ctx, cfg.Output)
	if err != nil {
		return err
	}
	if _, err := store.Head(ctx, key); err == nil {
		return fmt.Errorf("%s: %w", cfg.Output, core.ErrExists)
	} else if !errors.Is(err, core.ErrNotFound) {
		return err
	}

	var runs *ledger.Ledger
	if o.ledgerPath != "" {
		if runs, err = ledger.Open(o.ledgerPath); err != nil {
			return err
		}
		defer runs.Close()
	}

	res, err := engine.Run(ctx)
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		slog.Warn("run interrupted, writing partial result", "output", cfg.Output)
	}

	// an interrupted run is still saved
	saveCtx := context.WithoutCancel(ctx)
	var meta map[string]string
	if o.meta {
		meta = map[string]string{
			"run":        res.ID.String(),
			"iterations": strconv.Itoa(cfg.Iterations),
			"accepted":   strconv.FormatInt(res.Accepted, 10),
		}
	}
	info, err := blob.SaveBirb(saveCtx, store, key, res.Birb, meta)
	if err != nil {
		return err
	}
	if runs != nil {
		if err := runs.Record(saveCtx, ledger.NewEntry(cfg, res, cfg.Output)); err != nil {
			return err
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\nwrote %s (%d bytes, %d points, run %s)\n", cfg.Output, info.Size, res.Points, res.ID)
	return nil
}

// serveMetrics exposes m on addr/metrics until the returned stop is called.
func serveMetrics(addr string, m *butterbrot.Metrics) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", "err", err)
		}
	}()
	slog.Info("serving metrics", "addr", ln.Addr().String())
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
