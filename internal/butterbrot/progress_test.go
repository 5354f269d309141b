package butterbrot

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishLatestWins(t *testing.T) {
	b := newProgressBoard(2)
	b.publish(ProgressMessage{Worker: 1, Remaining: 5})
	b.publish(ProgressMessage{Worker: 1, Remaining: 3})

	m, ok := b.poll(1)
	require.True(t, ok)
	assert.Equal(t, 3, m.Remaining)
	_, ok = b.poll(1)
	assert.False(t, ok)
	_, ok = b.poll(0)
	assert.False(t, ok)
}

func TestPublishNeverBlocks(t *testing.T) {
	b := newProgressBoard(1)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 1000; i >= 0; i-- {
			b.publish(ProgressMessage{Worker: 0, Remaining: i})
		}
	}()
	go func() {
		defer wg.Done()
		for range 1000 {
			b.poll(0)
		}
	}()
	wg.Wait()
	if m, ok := b.poll(0); ok {
		assert.Equal(t, 0, m.Remaining)
	}
}

func testAggregator(t *testing.T, budget []int, deadline time.Time) (*Aggregator, *progressBoard, *bytes.Buffer) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.LogIntervalSeconds = 0
	cfg.Output = "test.birb"
	cfg.Normalize()
	board := newProgressBoard(len(budget))
	var out bytes.Buffer
	a := newAggregator(board, budget, cfg, &out, time.Now(), deadline)
	a.poll = 5 * time.Millisecond
	return a, board, &out
}

func TestAggregatorCompletes(t *testing.T) {
	a, board, out := testAggregator(t, []int{10, 10}, time.Time{})
	board.publish(ProgressMessage{Worker: 0, Remaining: 0})
	board.publish(ProgressMessage{Worker: 1, Remaining: 0})

	assert.True(t, a.Run(context.Background()))
	assert.Equal(t, 1, a.reports)
	s := out.String()
	assert.Contains(t, s, "filename: test.birb")
	assert.Contains(t, s, "thread 0")
	assert.Contains(t, s, "thread 1")
	assert.Contains(t, s, "samples done / total:   20 / 20")
	assert.Contains(t, s, "100.00%")
	assert.Contains(t, s, "unbounded")
}

func TestAggregatorWaitsForEveryWorker(t *testing.T) {
	a, board, out := testAggregator(t, []int{4, 6}, time.Time{})
	board.publish(ProgressMessage{Worker: 0, Remaining: 0})

	done := make(chan bool, 1)
	go func() { done <- a.Run(context.Background()) }()
	time.Sleep(30 * time.Millisecond)
	select {
	case <-done:
		t.Fatal("aggregator returned before worker 1 reported")
	default:
	}
	board.publish(ProgressMessage{Worker: 1, Remaining: 0})
	select {
	case ok := <-done:
		assert.True(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("aggregator did not finish")
	}
	assert.Contains(t, out.String(), "10 / 10")
}

func TestAggregatorReset(t *testing.T) {
	a, board, out := testAggregator(t, []int{10, 10}, time.Time{})
	board.publish(ProgressMessage{Worker: 0, Remaining: 5})
	board.publish(ProgressMessage{Worker: 1, Remaining: 0})
	a.drain()
	require.True(t, a.complete())
	require.False(t, a.allZero())
	a.report()
	a.reset()
	assert.Nil(t, a.slots[0])
	assert.NotNil(t, a.slots[1])
	assert.Contains(t, out.String(), "samples done / total:   15 / 20")
	assert.Contains(t, out.String(), "75.00%")
}

func TestAggregatorDeadline(t *testing.T) {
	a, _, out := testAggregator(t, []int{10}, time.Now().Add(20*time.Millisecond))
	assert.False(t, a.Run(context.Background()))
	assert.Empty(t, out.String())
}

func TestAggregatorContext(t *testing.T) {
	a, board, _ := testAggregator(t, []int{10}, time.Time{})
	board.publish(ProgressMessage{Worker: 0, Remaining: 3})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, a.Run(ctx))
}

func TestPercent(t *testing.T) {
	assert.InDelta(t, 50.0, percent(5, 10), 1e-12)
	assert.InDelta(t, 100.0, percent(0, 0), 1e-12)
}

func TestPaint(t *testing.T) {
	a, _, _ := testAggregator(t, []int{1}, time.Time{})
	assert.Equal(t, "x", a.paint(ansiRed, "x"))
	a.color = true
	assert.Equal(t, ansiRed+"x"+ansiReset, a.paint(ansiRed, "x"))
}
