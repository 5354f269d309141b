package butterbrot

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Result describes a finished run.
type Result struct {
	ID        uuid.UUID
	Birb      Birb
	Accepted  int64  // post warm-up samples written back
	Points    uint64 // orbit points written back, equals Birb.Total()
	Phases    int
	Started   time.Time
	Elapsed   time.Duration
	Completed bool // every worker spent its budget
	TimedOut  bool
}

// Engine runs the multi-threaded Buddhabrot accumulation of one Config.
type Engine struct {
	cfg     Config
	log     *slog.Logger
	out     io.Writer
	metrics *Metrics
}

type Option func(*Engine)

// WithLogger sets the structured logger, slog.Default() otherwise.
func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.log = l } }

// WithStatus sets where status reports go, io.Discard otherwise.
func WithStatus(w io.Writer) Option { return func(e *Engine) { e.out = w } }

// WithMetrics records the run into m.
func WithMetrics(m *Metrics) Option { return func(e *Engine) { e.metrics = m } }

// NewEngine normalizes and validates cfg.
func NewEngine(cfg Config, opts ...Option) (*Engine, error) {
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{cfg: cfg, log: slog.Default(), out: io.Discard}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

// Config returns the normalized configuration.
func (e *Engine) Config() Config { return e.cfg }

// Run spawns cfg.Threads workers, reports their progress and returns the
// accumulated histogram once all of them stopped. Cancelling ctx stops the
// workers at their next phase boundary, the partial result is still returned.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	cfg := e.cfg
	frame, err := NewFrame(cfg.Corner1, cfg.Corner2, cfg.Width, cfg.Height)
	if err != nil {
		return nil, err
	}
	hist := NewHistogram(cfg.Width, cfg.Height)
	budget := splitBudget(cfg.Samples, cfg.Threads)
	phaseLen := cfg.PhaseLen
	if phaseLen <= 0 {
		// bounds the buffered traces to roughly twice the histogram size
		phaseLen = imax((cfg.Width*cfg.Height+headerWords)/cfg.Threads, 1)
	}

	res := &Result{ID: uuid.New(), Started: time.Now()}
	var deadline time.Time
	if to := cfg.Timeout(); to > 0 {
		deadline = res.Started.Add(to)
	}
	log := e.log.With("run", res.ID.String())
	log.Info("starting run",
		"width", cfg.Width, "height", cfg.Height,
		"corner1", cfg.Corner1, "corner2", cfg.Corner2,
		"threads", cfg.Threads, "samples", cfg.Samples,
		"iterations", cfg.Iterations, "warmup", cfg.Warmup,
		"phaseLen", phaseLen, "timeout", cfg.Timeout(), "flush", cfg.FlushMode)

	board := newProgressBoard(cfg.Threads)
	workers := make([]*worker, cfg.Threads)
	g, gctx := errgroup.WithContext(ctx)
	for wid := range cfg.Threads {
		g.Go(func() error {
			wlog := log.With("worker", wid)
			wlog.Info("worker in warm-up")
			seed := cfg.Seed
			if seed == 0 {
				seed = time.Now().UnixNano()
			}
			seed ^= int64(uint64(wid) * 0x9e3779b97f4a7c15)
			s, err := NewSampler(SamplerConfig{
				Samples:     budget[wid],
				Warmup:      cfg.Warmup,
				Iterations:  cfg.Iterations,
				Corner1:     cfg.Corner1,
				Corner2:     cfg.Corner2,
				Width:       cfg.Width,
				Height:      cfg.Height,
				MaxAttempts: cfg.MaxAttempts,
			}, rand.New(rand.NewSource(seed)))
			if err != nil {
				return fmt.Errorf("worker %d: %w", wid, err)
			}
			w := &worker{
				id:       wid,
				sampler:  s,
				phaseLen: phaseLen,
				frame:    frame,
				hist:     hist,
				board:    board,
				metrics:  e.metrics,
				log:      wlog,
				deadline: deadline,
				traces:   make([][]Complex, 0, phaseLen),
			}
			if cfg.FlushMode == FlushPartial {
				w.partial = NewBirb(cfg.Width, cfg.Height)
			}
			workers[wid] = w
			wlog.Info("worker computing payload")
			if err := w.run(gctx); err != nil {
				return err
			}
			wlog.Info("worker computed its payload", "accepted", w.accepted, "points", w.points, "remaining", s.Remaining())
			return nil
		})
	}

	agg := newAggregator(board, budget, cfg, e.out, res.Started, deadline)
	res.Completed = agg.Run(gctx)
	if err := g.Wait(); err != nil {
		log.Error("run aborted", "err", err)
		return nil, err
	}
	log.Info("all workers finished")

	res.Birb, err = hist.Snapshot()
	if err != nil {
		return nil, err
	}
	for _, w := range workers {
		res.Accepted += w.accepted
		res.Points += w.points
		res.Phases += w.phases
		if w.sampler.Remaining() > 0 {
			res.Completed = false
		}
	}
	res.Elapsed = time.Since(res.Started)
	res.TimedOut = !res.Completed && expired(deadline)
	log.Info("run finished", "accepted", res.Accepted, "points", res.Points, "elapsed", res.Elapsed, "completed", res.Completed, "timedOut", res.TimedOut)
	return res, nil
}

// splitBudget distributes total samples evenly, the remainder going to the first workers.
func splitBudget(total, workers int) []int {
	per := make([]int, workers)
	base, rem := total/workers, total%workers
	for w := range per {
		per[w] = base
		if w < rem {
			per[w]++
		}
	}
	return per
}
