package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/vision.safety/internal/units"
)

// DefaultConfigPath is the path to the canonical engine defaults file.
const DefaultConfigPath = "config/engine.defaults.json"

// Default values used by the Get* accessors when a field is unset.
const (
	DefaultSignTrackerCapacity        = 5
	DefaultSignPublishInterval        = time.Second
	DefaultSpeedLimitSeenInterval     = 5.0
	DefaultSpeedLimitWarningThreshold = 5.0
	DefaultBonnetAdjustment           = 1.25
	DefaultCollisionCooldown          = 3 * time.Second
	DefaultSpeedLimitHighlight        = 10 * time.Second
	DefaultMarket                     = units.MarketUS
)

// EngineConfig holds the tunable thresholds of the alert engine. Pointer
// fields distinguish "unset" from zero so partial JSON files are safe; the
// Get* accessors supply defaults.
type EngineConfig struct {
	// Sign tracker
	SignTrackerCapacity *int    `json:"sign_tracker_capacity,omitempty"`
	SignPublishInterval *string `json:"sign_publish_interval,omitempty"` // duration string like "1s"

	// Speed-limit advisory
	SpeedLimitSeenInterval     *float64 `json:"speed_limit_seen_interval,omitempty"`     // frame timestamp units
	SpeedLimitWarningThreshold *float64 `json:"speed_limit_warning_threshold,omitempty"` // sign display unit
	SpeedLimitHighlight        *string  `json:"speed_limit_highlight,omitempty"`
	Market                     *string  `json:"market,omitempty"`

	// Collision
	BonnetAdjustment  *float64 `json:"bonnet_adjustment,omitempty"` // meters
	CollisionCooldown *string  `json:"collision_cooldown,omitempty"`
	BicycleCritical   *bool    `json:"bicycle_critical,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyEngineConfig returns an EngineConfig with all fields set to nil.
func EmptyEngineConfig() *EngineConfig {
	return &EngineConfig{}
}

// DefaultEngineConfig returns an EngineConfig with every field populated
// from the package defaults.
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		SignTrackerCapacity:        ptrInt(DefaultSignTrackerCapacity),
		SignPublishInterval:        ptrString(DefaultSignPublishInterval.String()),
		SpeedLimitSeenInterval:     ptrFloat64(DefaultSpeedLimitSeenInterval),
		SpeedLimitWarningThreshold: ptrFloat64(DefaultSpeedLimitWarningThreshold),
		SpeedLimitHighlight:        ptrString(DefaultSpeedLimitHighlight.String()),
		Market:                     ptrString(DefaultMarket),
		BonnetAdjustment:           ptrFloat64(DefaultBonnetAdjustment),
		CollisionCooldown:          ptrString(DefaultCollisionCooldown.String()),
		BicycleCritical:            ptrBool(false),
	}
}

// LoadEngineConfig loads an EngineConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file fall back to defaults through the Get* accessors.
func LoadEngineConfig(path string) (*EngineConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyEngineConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath.
// It searches the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *EngineConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadEngineConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *EngineConfig) Validate() error {
	if c.SignTrackerCapacity != nil && *c.SignTrackerCapacity < 1 {
		return fmt.Errorf("sign_tracker_capacity must be at least 1, got %d", *c.SignTrackerCapacity)
	}
	if c.SpeedLimitSeenInterval != nil && *c.SpeedLimitSeenInterval < 0 {
		return fmt.Errorf("speed_limit_seen_interval must be non-negative, got %f", *c.SpeedLimitSeenInterval)
	}
	if c.SpeedLimitWarningThreshold != nil && *c.SpeedLimitWarningThreshold < 0 {
		return fmt.Errorf("speed_limit_warning_threshold must be non-negative, got %f", *c.SpeedLimitWarningThreshold)
	}
	if c.BonnetAdjustment != nil && *c.BonnetAdjustment < 0 {
		return fmt.Errorf("bonnet_adjustment must be non-negative, got %f", *c.BonnetAdjustment)
	}
	if c.Market != nil && !units.IsValidMarket(*c.Market) {
		return fmt.Errorf("market must be %q or %q, got %q", units.MarketUS, units.MarketOther, *c.Market)
	}

	for name, v := range map[string]*string{
		"sign_publish_interval": c.SignPublishInterval,
		"speed_limit_highlight": c.SpeedLimitHighlight,
		"collision_cooldown":    c.CollisionCooldown,
	} {
		if v == nil || *v == "" {
			continue
		}
		d, err := time.ParseDuration(*v)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", name, *v, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, *v)
		}
	}

	return nil
}

func parseDurationOr(v *string, def time.Duration) time.Duration {
	if v == nil || *v == "" {
		return def
	}
	d, err := time.ParseDuration(*v)
	if err != nil || d <= 0 {
		return def // default on parse error
	}
	return d
}

// GetSignTrackerCapacity returns the sign tracker capacity or the default.
func (c *EngineConfig) GetSignTrackerCapacity() int {
	if c.SignTrackerCapacity == nil {
		return DefaultSignTrackerCapacity
	}
	return *c.SignTrackerCapacity
}

// GetSignPublishInterval returns the sign list publish cadence.
func (c *EngineConfig) GetSignPublishInterval() time.Duration {
	return parseDurationOr(c.SignPublishInterval, DefaultSignPublishInterval)
}

// GetSpeedLimitSeenInterval returns the gap after which the same sign counts
// as re-confirmed.
func (c *EngineConfig) GetSpeedLimitSeenInterval() float64 {
	if c.SpeedLimitSeenInterval == nil {
		return DefaultSpeedLimitSeenInterval
	}
	return *c.SpeedLimitSeenInterval
}

// GetSpeedLimitWarningThreshold returns the over-limit margin.
func (c *EngineConfig) GetSpeedLimitWarningThreshold() float64 {
	if c.SpeedLimitWarningThreshold == nil {
		return DefaultSpeedLimitWarningThreshold
	}
	return *c.SpeedLimitWarningThreshold
}

// GetSpeedLimitHighlight returns how long a speed-limit sign stays highlighted.
func (c *EngineConfig) GetSpeedLimitHighlight() time.Duration {
	return parseDurationOr(c.SpeedLimitHighlight, DefaultSpeedLimitHighlight)
}

// GetMarket returns the sign market or the default.
func (c *EngineConfig) GetMarket() string {
	if c.Market == nil || *c.Market == "" {
		return DefaultMarket
	}
	return *c.Market
}

// GetSpeedUnit returns the unit speed-limit signs are posted in for the
// configured market.
func (c *EngineConfig) GetSpeedUnit() string {
	return units.SignUnit(c.GetMarket())
}

// GetBonnetAdjustment returns the sensor-to-bumper offset in meters.
func (c *EngineConfig) GetBonnetAdjustment() float64 {
	if c.BonnetAdjustment == nil {
		return DefaultBonnetAdjustment
	}
	return *c.BonnetAdjustment
}

// GetCollisionCooldown returns the collision beep cooldown.
func (c *EngineConfig) GetCollisionCooldown() time.Duration {
	return parseDurationOr(c.CollisionCooldown, DefaultCollisionCooldown)
}

// GetBicycleCritical reports whether bicycles may be classified critical.
func (c *EngineConfig) GetBicycleCritical() bool {
	if c.BicycleCritical == nil {
		return false
	}
	return *c.BicycleCritical
}
