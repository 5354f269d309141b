package butterbrot

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 400, cfg.Width)
	assert.Equal(t, 400, cfg.Height)
	assert.Equal(t, 7, cfg.Threads)
	assert.Equal(t, FlushLocked, cfg.FlushMode)
	assert.Equal(t, 10*time.Second, cfg.LogInterval())
	assert.Zero(t, cfg.Timeout())
}

func TestNormalizeDerivesFrame(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Normalize()
	assert.Equal(t, Complex{-2, -2}, cfg.Corner1)
	assert.Equal(t, Complex{2, 2}, cfg.Corner2)
	assert.Regexp(t, `^birb_[A-Z]{4}\.birb$`, cfg.Output)
	require.NoError(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Width, cfg.Height = 200, 100
	cfg.Center = Complex{-0.5, 0.25}
	cfg.Zoom = 200
	cfg.Normalize()
	assert.InDelta(t, -1.0, cfg.Corner1.R, 1e-12)
	assert.InDelta(t, 0.0, cfg.Corner2.R, 1e-12)
	assert.InDelta(t, 0.0, cfg.Corner1.I, 1e-12)
	assert.InDelta(t, 0.5, cfg.Corner2.I, 1e-12)
}

func TestNormalizeKeepsExplicitFrame(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Corner1, cfg.Corner2 = Complex{-1, -1}, Complex{0.5, 1}
	cfg.Output = "out.birb"
	cfg.FlushMode = ""
	cfg.Normalize()
	assert.Equal(t, Complex{-1, -1}, cfg.Corner1)
	assert.Equal(t, "out.birb", cfg.Output)
	assert.Equal(t, FlushLocked, cfg.FlushMode)
}

func TestConfigValidate(t *testing.T) {
	valid := DefaultConfig()
	valid.Normalize()

	cases := map[string]func(*Config){
		"threads":    func(c *Config) { c.Threads = 0 },
		"iterations": func(c *Config) { c.Iterations = 0 },
		"width":      func(c *Config) { c.Width = -1 },
		"samples":    func(c *Config) { c.Samples = -5 },
		"flush mode": func(c *Config) { c.FlushMode = "eventually" },
		"output":     func(c *Config) { c.Output = "" },
		"frame":      func(c *Config) { c.Corner2 = Complex{c.Corner1.R, 3} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid
			mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	yml := filepath.Join(dir, "run.yaml")
	require.NoError(t, os.WriteFile(yml, []byte(`
width: 64
height: 32
corner1: {r: -2, i: -1}
corner2: {r: 1, i: 1}
threads: 2
flushMode: partial
timeoutSeconds: 30
`), 0o644))
	cfg, err := LoadConfig(yml)
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Width)
	assert.Equal(t, 32, cfg.Height)
	assert.Equal(t, Complex{-2, -1}, cfg.Corner1)
	assert.Equal(t, 2, cfg.Threads)
	assert.Equal(t, FlushPartial, cfg.FlushMode)
	assert.Equal(t, 30*time.Second, cfg.Timeout())
	// untouched fields keep their defaults
	assert.Equal(t, Iterations, cfg.Iterations)

	js := filepath.Join(dir, "run.json")
	require.NoError(t, os.WriteFile(js, []byte(`{"samples": 123, "output": "x.birb", "seed": 9}`), 0o644))
	cfg, err = LoadConfig(js)
	require.NoError(t, err)
	assert.Equal(t, 123, cfg.Samples)
	assert.Equal(t, "x.birb", cfg.Output)
	assert.Equal(t, int64(9), cfg.Seed)
	assert.Equal(t, Width, cfg.Width)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"samples": "many"}`), 0o644))
	_, err = LoadConfig(bad)
	assert.Error(t, err)

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSecondsToDurationClamps(t *testing.T) {
	assert.Equal(t, time.Duration(0), secondsToDuration(0))
	assert.Equal(t, 3*time.Second, secondsToDuration(3))
	assert.Positive(t, secondsToDuration(^uint64(0)))
}

func TestGenFilename(t *testing.T) {
	assert.Regexp(t, `^birb_[A-Z]{4}\.png$`, GenFilename(".png"))
	assert.Regexp(t, `^birb_[A-Z]{4}\.birb$`, GenFilename("birb"))
}
