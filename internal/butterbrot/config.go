package butterbrot

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the validated run configuration consumed by the engine.
type Config struct {
	Width   int     `json:"width" yaml:"width" validate:"gt=0"`
	Height  int     `json:"height" yaml:"height" validate:"gt=0"`
	Corner1 Complex `json:"corner1" yaml:"corner1"`
	Corner2 Complex `json:"corner2" yaml:"corner2"`
	// Center and Zoom place the frame when Corner1 == Corner2.
	Center             Complex `json:"center" yaml:"center"`
	Zoom               Real    `json:"zoom" yaml:"zoom" validate:"gt=0"`
	Output             string  `json:"output" yaml:"output" validate:"required"`
	Threads            int     `json:"threads" yaml:"threads" validate:"gt=0"`
	Samples            int     `json:"samples" yaml:"samples" validate:"gte=0"`
	Iterations         int     `json:"iterations" yaml:"iterations" validate:"gt=0"`
	Warmup             int     `json:"warmup" yaml:"warmup" validate:"gte=0"`
	PhaseLen           int     `json:"phaseLen,omitempty" yaml:"phaseLen,omitempty" validate:"gte=0"`
	TimeoutSeconds     uint64  `json:"timeoutSeconds,omitempty" yaml:"timeoutSeconds,omitempty"`
	LogIntervalSeconds uint64  `json:"logIntervalSeconds,omitempty" yaml:"logIntervalSeconds,omitempty"`
	Seed               int64   `json:"seed,omitempty" yaml:"seed,omitempty"`
	MaxAttempts        int     `json:"maxAttempts,omitempty" yaml:"maxAttempts,omitempty" validate:"gte=0"`
	FlushMode          string  `json:"flushMode,omitempty" yaml:"flushMode,omitempty" validate:"omitempty,oneof=locked partial"`
}

var configValidate = validator.New()

// DefaultConfig returns the defaults of the butterbrot command.
func DefaultConfig() Config {
	return Config{
		Width:              Width,
		Height:             Height,
		Zoom:               Zoom,
		Threads:            Threads,
		Samples:            Samples,
		Iterations:         Iterations,
		Warmup:             Warmup,
		LogIntervalSeconds: uint64(LogInterval / time.Second),
		MaxAttempts:        MaxAttempts,
		FlushMode:          FlushLocked,
	}
}

// LoadConfig reads a JSON or YAML file (by extension) on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	DebugLog("Loaded config from %s: %+v", path, cfg)
	return cfg, nil
}

// Normalize fills in derived values: the corners from Center and Zoom when
// no frame was given, the output name and the flush mode.
func (c *Config) Normalize() {
	if c.Corner1 == c.Corner2 && c.Zoom > 0 {
		step := 1 / c.Zoom
		delta := Complex{Real(c.Width) * step / 2, Real(c.Height) * step / 2}
		c.Corner1 = c.Center.Sub(delta)
		c.Corner2 = c.Center.Add(delta)
	}
	if c.Output == "" {
		c.Output = GenFilename("birb")
	}
	if c.FlushMode == "" {
		c.FlushMode = FlushLocked
	}
}

// Validate checks field ranges and the frame.
func (c Config) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := NewFrame(c.Corner1, c.Corner2, c.Width, c.Height); err != nil {
		return err
	}
	return nil
}

// Timeout returns the run timeout, 0 means none.
func (c Config) Timeout() time.Duration {
	return secondsToDuration(c.TimeoutSeconds)
}

// LogInterval returns the minimal time between two status reports.
func (c Config) LogInterval() time.Duration {
	return secondsToDuration(c.LogIntervalSeconds)
}

func secondsToDuration(s uint64) time.Duration {
	const maxSeconds = uint64(1<<63-1) / uint64(time.Second)
	if s > maxSeconds {
		s = maxSeconds
	}
	return time.Duration(s) * time.Second
}

// GenFilename returns birb_XXXX.<ext>, XXXX being random capital letters.
func GenFilename(ext string) string {
	var sb strings.Builder
	sb.WriteString("birb_")
	for range 4 {
		sb.WriteByte(byte('A' + rand.Intn(25)))
	}
	sb.WriteString(".")
	sb.WriteString(strings.TrimPrefix(ext, "."))
	return sb.String()
}
