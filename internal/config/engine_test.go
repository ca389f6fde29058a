package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultEngineConfig(t *testing.T) {
	cfg := DefaultEngineConfig()

	if cfg.SignTrackerCapacity == nil || *cfg.SignTrackerCapacity != 5 {
		t.Errorf("Expected SignTrackerCapacity 5, got %v", cfg.SignTrackerCapacity)
	}
	if cfg.CollisionCooldown == nil || *cfg.CollisionCooldown != "3s" {
		t.Errorf("Expected CollisionCooldown '3s', got %v", cfg.CollisionCooldown)
	}
	if cfg.SpeedLimitHighlight == nil || *cfg.SpeedLimitHighlight != "10s" {
		t.Errorf("Expected SpeedLimitHighlight '10s', got %v", cfg.SpeedLimitHighlight)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestEmptyConfigGetters(t *testing.T) {
	cfg := EmptyEngineConfig()

	if cfg.GetSignTrackerCapacity() != 5 {
		t.Errorf("GetSignTrackerCapacity() = %d, want 5", cfg.GetSignTrackerCapacity())
	}
	if cfg.GetSignPublishInterval() != time.Second {
		t.Errorf("GetSignPublishInterval() = %v, want 1s", cfg.GetSignPublishInterval())
	}
	if cfg.GetSpeedLimitSeenInterval() != 5 {
		t.Errorf("GetSpeedLimitSeenInterval() = %f, want 5", cfg.GetSpeedLimitSeenInterval())
	}
	if cfg.GetSpeedLimitWarningThreshold() != 5 {
		t.Errorf("GetSpeedLimitWarningThreshold() = %f, want 5", cfg.GetSpeedLimitWarningThreshold())
	}
	if cfg.GetSpeedLimitHighlight() != 10*time.Second {
		t.Errorf("GetSpeedLimitHighlight() = %v, want 10s", cfg.GetSpeedLimitHighlight())
	}
	if cfg.GetBonnetAdjustment() != 1.25 {
		t.Errorf("GetBonnetAdjustment() = %f, want 1.25", cfg.GetBonnetAdjustment())
	}
	if cfg.GetCollisionCooldown() != 3*time.Second {
		t.Errorf("GetCollisionCooldown() = %v, want 3s", cfg.GetCollisionCooldown())
	}
	if cfg.GetMarket() != "us" {
		t.Errorf("GetMarket() = %s, want us", cfg.GetMarket())
	}
	if cfg.GetSpeedUnit() != "mph" {
		t.Errorf("GetSpeedUnit() = %s, want mph", cfg.GetSpeedUnit())
	}
	if cfg.GetBicycleCritical() {
		t.Error("GetBicycleCritical() should default to false")
	}
}

func TestLoadEngineConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "engine.json")

	testJSON := `{
  "sign_tracker_capacity": 3,
  "collision_cooldown": "1500ms",
  "market": "other",
  "bicycle_critical": true
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadEngineConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.GetSignTrackerCapacity() != 3 {
		t.Errorf("GetSignTrackerCapacity() = %d, want 3", cfg.GetSignTrackerCapacity())
	}
	if cfg.GetCollisionCooldown() != 1500*time.Millisecond {
		t.Errorf("GetCollisionCooldown() = %v, want 1.5s", cfg.GetCollisionCooldown())
	}
	if cfg.GetMarket() != "other" {
		t.Errorf("GetMarket() = %s, want other", cfg.GetMarket())
	}
	if cfg.GetSpeedUnit() != "kph" {
		t.Errorf("GetSpeedUnit() = %s, want kph", cfg.GetSpeedUnit())
	}
	if !cfg.GetBicycleCritical() {
		t.Error("GetBicycleCritical() = false, want true")
	}
	// Unset fields fall back to defaults.
	if cfg.GetSpeedLimitHighlight() != 10*time.Second {
		t.Errorf("GetSpeedLimitHighlight() = %v, want 10s", cfg.GetSpeedLimitHighlight())
	}
}

func TestLoadEngineConfig_Errors(t *testing.T) {
	tmpDir := t.TempDir()

	write := func(name, body string) string {
		p := filepath.Join(tmpDir, name)
		if err := os.WriteFile(p, []byte(body), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		return p
	}

	tests := []struct {
		name string
		path string
	}{
		{"wrong extension", write("engine.yaml", `{}`)},
		{"missing file", filepath.Join(tmpDir, "missing.json")},
		{"bad json", write("bad.json", `{`)},
		{"zero capacity", write("cap.json", `{"sign_tracker_capacity": 0}`)},
		{"negative bonnet", write("bonnet.json", `{"bonnet_adjustment": -1}`)},
		{"bad duration", write("dur.json", `{"collision_cooldown": "soon"}`)},
		{"negative duration", write("neg.json", `{"speed_limit_highlight": "-1s"}`)},
		{"unknown market", write("market.json", `{"market": "eu"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadEngineConfig(tt.path); err == nil {
				t.Errorf("expected error for %s", tt.name)
			}
		})
	}
}

func TestMustLoadDefaultConfig(t *testing.T) {
	cfg := MustLoadDefaultConfig()
	want := DefaultEngineConfig()

	if cfg.GetSignTrackerCapacity() != want.GetSignTrackerCapacity() {
		t.Errorf("capacity mismatch: file %d, code %d", cfg.GetSignTrackerCapacity(), want.GetSignTrackerCapacity())
	}
	if cfg.GetCollisionCooldown() != want.GetCollisionCooldown() {
		t.Errorf("cooldown mismatch: file %v, code %v", cfg.GetCollisionCooldown(), want.GetCollisionCooldown())
	}
	if cfg.GetBonnetAdjustment() != want.GetBonnetAdjustment() {
		t.Errorf("bonnet mismatch: file %f, code %f", cfg.GetBonnetAdjustment(), want.GetBonnetAdjustment())
	}
}
