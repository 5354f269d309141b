package butterbrot

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEngineConfig() Config {
	cfg := DefaultConfig()
	cfg.Width, cfg.Height = 20, 20
	cfg.Zoom = 5
	cfg.Samples = 200
	cfg.Iterations = 50
	cfg.Warmup = 10
	cfg.Seed = 42
	cfg.LogIntervalSeconds = 0
	cfg.Output = "test.birb"
	return cfg
}

func quietEngine(t *testing.T, cfg Config, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	e, err := NewEngine(cfg, opts...)
	require.NoError(t, err)
	return e
}

func TestEngineRunCompletes(t *testing.T) {
	for _, threads := range []int{1, 3, 8} {
		cfg := testEngineConfig()
		cfg.Threads = threads
		var status bytes.Buffer
		res, err := quietEngine(t, cfg, WithStatus(&status)).Run(context.Background())
		require.NoError(t, err, "threads=%d", threads)

		require.NoError(t, res.Birb.Validate())
		assert.Equal(t, uint64(20), res.Birb.Width())
		assert.True(t, res.Completed)
		assert.False(t, res.TimedOut)
		assert.Equal(t, int64(cfg.Samples), res.Accepted)
		assert.Equal(t, res.Points, res.Birb.Total())
		assert.Positive(t, res.Points)
		assert.Contains(t, status.String(), "200 / 200")
	}
}

func TestEngineTimeout(t *testing.T) {
	for _, threads := range []int{1, 8} {
		cfg := testEngineConfig()
		cfg.Threads = threads
		cfg.Samples = 1 << 40
		cfg.TimeoutSeconds = 1
		start := time.Now()
		res, err := quietEngine(t, cfg).Run(context.Background())
		require.NoError(t, err)
		assert.Less(t, time.Since(start), 10*time.Second)
		assert.False(t, res.Completed)
		assert.True(t, res.TimedOut)
		assert.Equal(t, res.Points, res.Birb.Total(), "threads=%d", threads)
		assert.Positive(t, res.Accepted)
	}
}

func TestEnginePartialFlush(t *testing.T) {
	cfg := testEngineConfig()
	cfg.Threads = 4
	cfg.FlushMode = FlushPartial
	m := NewMetrics()
	res, err := quietEngine(t, cfg, WithMetrics(m)).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Completed)
	assert.Equal(t, res.Points, res.Birb.Total())
	assert.Equal(t, float64(cfg.Samples), testutil.ToFloat64(m.accepted))
	assert.Equal(t, float64(res.Points), testutil.ToFloat64(m.points))
}

func TestEngineDeterministicWithSeed(t *testing.T) {
	cfg := testEngineConfig()
	cfg.Threads = 1
	a, err := quietEngine(t, cfg).Run(context.Background())
	require.NoError(t, err)
	b, err := quietEngine(t, cfg).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, a.Birb, b.Birb)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestEngineCancel(t *testing.T) {
	cfg := testEngineConfig()
	cfg.Threads = 2
	cfg.Samples = 1 << 40
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	res, err := quietEngine(t, cfg).Run(ctx)
	require.NoError(t, err)
	assert.False(t, res.Completed)
	assert.False(t, res.TimedOut)
	assert.Equal(t, res.Points, res.Birb.Total())
}

func TestEngineDegenerate(t *testing.T) {
	cfg := testEngineConfig()
	cfg.Threads = 2
	cfg.Warmup = 0
	cfg.Iterations = 1
	cfg.MaxAttempts = 200
	cfg.Corner1, cfg.Corner2 = Complex{1e6, 1e6}, Complex{1e6 + 1, 1e6 + 1}
	_, err := quietEngine(t, cfg).Run(context.Background())
	assert.ErrorIs(t, err, ErrDegenerateSampling)
}

func TestNewEngineInvalid(t *testing.T) {
	cfg := testEngineConfig()
	cfg.Threads = 0
	_, err := NewEngine(cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestSplitBudget(t *testing.T) {
	assert.Equal(t, []int{4, 3, 3}, splitBudget(10, 3))
	assert.Equal(t, []int{1, 1, 0, 0}, splitBudget(2, 4))
	assert.Equal(t, []int{5}, splitBudget(5, 1))
}
