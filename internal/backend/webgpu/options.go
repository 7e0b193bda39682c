package webgpu

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/cogentcore/webgpu/wgpu"
)

// Defaults used by DefaultConfig.
const (
	DefaultWorkgroupSize = 64
	DefaultMapTimeout    = 30 * time.Second

	// maxWorkgroupSize is the WebGPU default for maxComputeInvocationsPerWorkgroup.
	maxWorkgroupSize = 256
)

// Config holds Context settings. Use the With* options to change them.
type Config struct {
	// WorkgroupSize is the x dimension of every generated kernel.
	WorkgroupSize int

	// PowerPreference selects the adapter to request.
	PowerPreference wgpu.PowerPreference

	// MapTimeout bounds a readback when the caller's context has no deadline.
	// Zero waits until the caller's context is done.
	MapTimeout time.Duration

	// WaitOnDispatch makes every dispatch poll the device until the queue
	// drains before returning.
	WaitOnDispatch bool

	// StagingPool reuses readback staging buffers across calls.
	StagingPool bool

	// Logger receives debug and warning records. Nil means slog.Default().
	Logger *slog.Logger
}

// Option configures a Context.
type Option func(*Config)

// DefaultConfig returns the settings New uses when no options are given.
func DefaultConfig() Config {
	return Config{
		WorkgroupSize:   DefaultWorkgroupSize,
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
		MapTimeout:      DefaultMapTimeout,
		WaitOnDispatch:  true,
		StagingPool:     true,
		Logger:          slog.Default(),
	}
}

// WithWorkgroupSize sets the kernel workgroup size (1..256).
func WithWorkgroupSize(n int) Option {
	return func(c *Config) {
		c.WorkgroupSize = n
	}
}

// WithPowerPreference selects a low-power or high-performance adapter.
func WithPowerPreference(p wgpu.PowerPreference) Option {
	return func(c *Config) {
		c.PowerPreference = p
	}
}

// WithMapTimeout sets the default readback timeout.
func WithMapTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.MapTimeout = d
	}
}

// WithWaitOnDispatch controls whether dispatches wait for the queue to drain.
func WithWaitOnDispatch(wait bool) Option {
	return func(c *Config) {
		c.WaitOnDispatch = wait
	}
}

// WithStagingPool enables or disables staging buffer reuse.
func WithStagingPool(enabled bool) Option {
	return func(c *Config) {
		c.StagingPool = enabled
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

func (c Config) validate() error {
	if c.WorkgroupSize < 1 || c.WorkgroupSize > maxWorkgroupSize {
		return fmt.Errorf("%w: workgroup size %d outside 1..%d", ErrInvalidConfig, c.WorkgroupSize, maxWorkgroupSize)
	}
	if c.MapTimeout < 0 {
		return fmt.Errorf("%w: negative map timeout %v", ErrInvalidConfig, c.MapTimeout)
	}
	return nil
}

func buildConfig(opts []Option) (Config, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return cfg, cfg.validate()
}
