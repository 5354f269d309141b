package butterbrot

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// ProgressMessage is what a worker reports after every flush.
type ProgressMessage struct {
	Worker    int
	Remaining int
}

// progressBoard holds one single-slot mailbox per worker. Publishing never
// blocks and always leaves the newest message in the mailbox.
type progressBoard struct {
	boxes []chan ProgressMessage
}

func newProgressBoard(workers int) *progressBoard {
	b := &progressBoard{boxes: make([]chan ProgressMessage, workers)}
	for i := range b.boxes {
		b.boxes[i] = make(chan ProgressMessage, 1)
	}
	return b
}

// publish must only be called by the worker owning m.Worker's mailbox.
func (b *progressBoard) publish(m ProgressMessage) {
	box := b.boxes[m.Worker]
	for {
		select {
		case box <- m:
			return
		default:
		}
		// drop the stale message, the reader may race us to it
		select {
		case <-box:
		default:
		}
	}
}

// poll returns the pending message of worker i without blocking.
func (b *progressBoard) poll(i int) (ProgressMessage, bool) {
	select {
	case m := <-b.boxes[i]:
		return m, true
	default:
		return ProgressMessage{}, false
	}
}

// Aggregator prints periodic status reports from the worker progress.
type Aggregator struct {
	board    *progressBoard
	slots    []*ProgressMessage
	budget   []int // per worker sample budget
	total    int
	header   string
	out      io.Writer
	color    bool
	start    time.Time
	deadline time.Time // zero means none
	limiter  *rate.Limiter
	poll     time.Duration
	reports  int
}

func newAggregator(board *progressBoard, budget []int, cfg Config, out io.Writer, start, deadline time.Time) *Aggregator {
	total := 0
	for _, n := range budget {
		total += n
	}
	limit := rate.Inf
	if iv := cfg.LogInterval(); iv > 0 {
		limit = rate.Every(iv)
	}
	a := &Aggregator{
		board:    board,
		slots:    make([]*ProgressMessage, len(budget)),
		budget:   budget,
		total:    total,
		out:      out,
		color:    Color,
		start:    start,
		deadline: deadline,
		limiter:  rate.NewLimiter(limit, 1),
		poll:     PollInterval,
	}
	a.header = a.staticMsg(cfg)
	return a
}

// Run polls until every worker reported zero remaining samples (true), or
// the deadline passed or ctx ended (false).
func (a *Aggregator) Run(ctx context.Context) bool {
	ticker := time.NewTicker(a.poll)
	defer ticker.Stop()
	for {
		a.drain()
		if a.complete() {
			done := a.allZero()
			if done || a.limiter.Allow() {
				a.report()
				a.reset()
			}
			if done {
				return true
			}
		}
		if !a.deadline.IsZero() && time.Now().After(a.deadline) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
}

func (a *Aggregator) drain() {
	for i := range a.slots {
		if m, ok := a.board.poll(i); ok {
			a.slots[i] = &m
		}
	}
}

func (a *Aggregator) complete() bool {
	for _, s := range a.slots {
		if s == nil {
			return false
		}
	}
	return true
}

func (a *Aggregator) allZero() bool {
	for _, s := range a.slots {
		if s == nil || s.Remaining != 0 {
			return false
		}
	}
	return true
}

// reset clears the slots of workers that still have samples left, finished
// workers keep theirs so they never hold back a report.
func (a *Aggregator) reset() {
	for i, s := range a.slots {
		if s != nil && s.Remaining != 0 {
			a.slots[i] = nil
		}
	}
}

func (a *Aggregator) report() {
	a.reports++
	left := 0
	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(a.header)
	sb.WriteString("\n\n")
	for i, s := range a.slots {
		left += s.Remaining
		sb.WriteString(a.threadMsg(i, s.Remaining))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(a.statusMsg(a.total - left))
	_, _ = io.WriteString(a.out, sb.String())
}

func (a *Aggregator) paint(code, s string) string {
	if !a.color {
		return s
	}
	return code + s + ansiReset
}

const (
	ansiReset  = "\x1B[0m"
	ansiRed    = "\x1B[31m"
	ansiGreen  = "\x1B[32m"
	ansiYellow = "\x1B[33m"
	ansiBlue   = "\x1B[34m"
)

func (a *Aggregator) staticMsg(cfg Config) string {
	y := func(v any) string { return a.paint(ansiYellow, fmt.Sprint(v)) }
	return fmt.Sprintf("width: %s\theight: %s\niterations: %s\tsamples: %s\ncomplex1: { r: %s, i: %s }\ncomplex2: { r: %s, i: %s }\nfilename: %s",
		y(cfg.Width), y(cfg.Height),
		y(cfg.Iterations), y(cfg.Samples),
		y(cfg.Corner1.R), y(cfg.Corner1.I),
		y(cfg.Corner2.R), y(cfg.Corner2.I),
		a.paint(ansiBlue, cfg.Output))
}

func (a *Aggregator) threadMsg(worker, left int) string {
	total := a.budget[worker]
	done := total - left
	return fmt.Sprintf("thread %s { done: %s, left: %s, percent: %s done }",
		a.paint(ansiRed, fmt.Sprint(worker)),
		a.paint(ansiYellow, fmt.Sprintf("%8d", done)),
		a.paint(ansiYellow, fmt.Sprintf("%8d", left)),
		a.paint(ansiYellow, fmt.Sprintf("%6.2f%%", percent(done, total))))
}

func (a *Aggregator) statusMsg(done int) string {
	elapsed := time.Since(a.start).Truncate(time.Second)
	runtime := "unbounded"
	if !a.deadline.IsZero() {
		limit := a.deadline.Sub(a.start)
		left := max(0, limit-elapsed)
		runtime = fmt.Sprintf("%s / %s", left, limit.Truncate(time.Second))
	}
	return fmt.Sprintf("samples done / total:   %s\npercentage done:        %s\ntime elapsed:           %s\nleft / maximum runtime: %s\n",
		a.paint(ansiYellow, fmt.Sprintf("%d / %d", done, a.total)),
		a.paint(ansiYellow, fmt.Sprintf("%.2f%%", percent(done, a.total))),
		a.paint(ansiYellow, elapsed.String()),
		a.paint(ansiYellow, runtime))
}

func percent(done, total int) Real {
	if total <= 0 {
		return 100
	}
	return Real(done) * 100 / Real(total)
}
