package butterbrot

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// worker drives one sampler and writes its traces back into the shared
// histogram once per phase.
type worker struct {
	id       int
	sampler  *Sampler
	phaseLen int
	frame    Frame
	hist     *Histogram
	board    *progressBoard
	metrics  *Metrics
	log      *slog.Logger
	deadline time.Time
	partial  Birb // private counters in FlushPartial mode, nil otherwise
	traces   [][]Complex

	accepted int64  // post warm-up traces written back
	points   uint64 // orbit points written back
	phases   int
}

// run loops until the sampler is exhausted, the deadline passed or ctx ended.
// Those conditions are only checked after a phase was flushed, so no computed
// trace is ever dropped.
func (w *worker) run(ctx context.Context) error {
	last := w.sampler.Stats()
	for {
		w.traces = w.traces[:0]
		for range w.phaseLen {
			tr, ok := w.sampler.Next()
			if !ok {
				break
			}
			w.traces = append(w.traces, tr)
		}

		start := time.Now()
		points, err := w.flush()
		held := time.Since(start)
		if err != nil {
			return fmt.Errorf("worker %d: %w", w.id, err)
		}
		w.phases++
		w.accepted += int64(len(w.traces))
		w.points += uint64(points)

		stats := w.sampler.Stats()
		w.metrics.observePhase(w.id, SamplerStats{
			Accepted: stats.Accepted - last.Accepted,
			Rejected: stats.Rejected - last.Rejected,
			Invalid:  stats.Invalid - last.Invalid,
		}, points, held, w.sampler.Remaining())
		last = stats

		if err := w.sampler.Err(); err != nil {
			return fmt.Errorf("worker %d: %w", w.id, err)
		}
		if w.sampler.Finished() || expired(w.deadline) || ctx.Err() != nil {
			break
		}
		w.board.publish(ProgressMessage{Worker: w.id, Remaining: w.sampler.Remaining()})
	}

	if w.partial != nil {
		if err := w.hist.Update(func(b Birb) error {
			_, err := Combine(b, w.partial)
			return err
		}); err != nil {
			return fmt.Errorf("worker %d: merge: %w", w.id, err)
		}
	}
	w.board.publish(ProgressMessage{Worker: w.id, Remaining: w.sampler.Remaining()})
	return nil
}

// flush writes the buffered traces back and returns the number of points.
func (w *worker) flush() (int, error) {
	points := 0
	for _, tr := range w.traces {
		points += len(tr)
	}
	write := func(b Birb) error {
		for _, tr := range w.traces {
			if err := w.frame.writeBack(b, tr); err != nil {
				return err
			}
		}
		return nil
	}
	if w.partial != nil {
		return points, write(w.partial)
	}
	return points, w.hist.Update(write)
}

func expired(deadline time.Time) bool {
	return !deadline.IsZero() && time.Now().After(deadline)
}
