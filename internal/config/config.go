package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// ErrInvalidTuning is returned when loaded values violate tuning invariants.
var ErrInvalidTuning = errors.New("invalid combat tuning")

// Combat holds all configuration for the combat core and its simulator host.
type Combat struct {
	// Logging
	LogLevel string `yaml:"log_level" env:"COMBAT_LOG_LEVEL"` // debug, info, warn, error

	Damage  DamageTuning `yaml:"damage"`
	Effects EffectTiming `yaml:"effects"`
	Sim     Sim          `yaml:"sim"`
}

// DamageTuning holds damage multipliers. Loaded once, read-only afterwards.
type DamageTuning struct {
	CritMultiplier   float64 `yaml:"crit_multiplier" env:"COMBAT_CRIT_MULTIPLIER"`
	SkillMultiplier  float64 `yaml:"skill_multiplier" env:"COMBAT_SKILL_MULTIPLIER"`
	StatusMultiplier float64 `yaml:"status_multiplier" env:"COMBAT_STATUS_MULTIPLIER"`
	VarianceFraction float64 `yaml:"variance_fraction" env:"COMBAT_VARIANCE_FRACTION"` // [0, 1)
}

// EffectTiming holds defaults for callers building status effect definitions.
// The effect registry itself never reads these.
type EffectTiming struct {
	DefaultDuration     float64 `yaml:"default_duration" env:"COMBAT_EFFECT_DURATION"`           // seconds
	DefaultTickInterval float64 `yaml:"default_tick_interval" env:"COMBAT_EFFECT_TICK_INTERVAL"` // seconds
	DefaultMaxStacks    uint32  `yaml:"default_max_stacks" env:"COMBAT_EFFECT_MAX_STACKS"`
}

// Sim configures cmd/combatsim.
type Sim struct {
	Arenas       int     `yaml:"arenas" env:"COMBAT_SIM_ARENAS"`
	Participants int     `yaml:"participants" env:"COMBAT_SIM_PARTICIPANTS"` // per arena
	MaxHP        int32   `yaml:"max_hp" env:"COMBAT_SIM_MAX_HP"`
	Steps        int     `yaml:"steps" env:"COMBAT_SIM_STEPS"`
	StepSeconds  float64 `yaml:"step_seconds" env:"COMBAT_SIM_STEP_SECONDS"`
	Seed         uint64  `yaml:"seed" env:"COMBAT_SIM_SEED"` // 0 = random seed per run
}

// DefaultDamageTuning returns the stock multipliers.
func DefaultDamageTuning() DamageTuning {
	return DamageTuning{
		CritMultiplier:   2.0,
		SkillMultiplier:  1.5,
		StatusMultiplier: 0.8,
		VarianceFraction: 0.1,
	}
}

// DefaultEffectTiming returns the stock effect timing.
func DefaultEffectTiming() EffectTiming {
	return EffectTiming{
		DefaultDuration:     5.0,
		DefaultTickInterval: 1.0,
		DefaultMaxStacks:    3,
	}
}

// DefaultCombat returns Combat config with sensible defaults.
func DefaultCombat() Combat {
	return Combat{
		LogLevel: "info",
		Damage:   DefaultDamageTuning(),
		Effects:  DefaultEffectTiming(),
		Sim: Sim{
			Arenas:       4,
			Participants: 6,
			MaxHP:        500,
			Steps:        600,
			StepSeconds:  0.1,
		},
	}
}

// LoadCombat loads combat config from a YAML file, then applies environment
// overrides and validates the result.
// If the file doesn't exist, defaults (plus env) are used.
func LoadCombat(path string) (Combat, error) {
	cfg := DefaultCombat()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validating config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks every section.
func (c Combat) Validate() error {
	if err := c.Damage.Validate(); err != nil {
		return err
	}
	if err := c.Effects.Validate(); err != nil {
		return err
	}
	return c.Sim.Validate()
}

// Validate checks multiplier invariants: all multipliers > 0,
// crit multiplier >= 1, variance fraction in [0, 1).
func (t DamageTuning) Validate() error {
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"crit_multiplier", t.CritMultiplier},
		{"skill_multiplier", t.SkillMultiplier},
		{"status_multiplier", t.StatusMultiplier},
		{"variance_fraction", t.VarianceFraction},
	} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidTuning, f.name)
		}
	}

	if t.CritMultiplier < 1 {
		return fmt.Errorf("%w: crit_multiplier %.3f < 1", ErrInvalidTuning, t.CritMultiplier)
	}
	if t.SkillMultiplier <= 0 {
		return fmt.Errorf("%w: skill_multiplier %.3f <= 0", ErrInvalidTuning, t.SkillMultiplier)
	}
	if t.StatusMultiplier <= 0 {
		return fmt.Errorf("%w: status_multiplier %.3f <= 0", ErrInvalidTuning, t.StatusMultiplier)
	}
	if t.VarianceFraction < 0 || t.VarianceFraction >= 1 {
		return fmt.Errorf("%w: variance_fraction %.3f outside [0, 1)", ErrInvalidTuning, t.VarianceFraction)
	}
	return nil
}

// Validate checks that timing defaults can build well-formed definitions.
func (e EffectTiming) Validate() error {
	if !(e.DefaultDuration > 0) || math.IsInf(e.DefaultDuration, 0) {
		return fmt.Errorf("%w: default_duration %.3f must be positive", ErrInvalidTuning, e.DefaultDuration)
	}
	if !(e.DefaultTickInterval > 0) || math.IsInf(e.DefaultTickInterval, 0) {
		return fmt.Errorf("%w: default_tick_interval %.3f must be positive", ErrInvalidTuning, e.DefaultTickInterval)
	}
	if e.DefaultMaxStacks == 0 {
		return fmt.Errorf("%w: default_max_stacks must be >= 1", ErrInvalidTuning)
	}
	return nil
}

// Validate checks simulator settings.
func (s Sim) Validate() error {
	if s.Arenas < 1 {
		return fmt.Errorf("%w: sim.arenas must be >= 1", ErrInvalidTuning)
	}
	if s.Participants < 2 {
		return fmt.Errorf("%w: sim.participants must be >= 2", ErrInvalidTuning)
	}
	if s.MaxHP < 1 {
		return fmt.Errorf("%w: sim.max_hp must be >= 1", ErrInvalidTuning)
	}
	if s.Steps < 0 {
		return fmt.Errorf("%w: sim.steps must be >= 0", ErrInvalidTuning)
	}
	if !(s.StepSeconds > 0) {
		return fmt.Errorf("%w: sim.step_seconds must be positive", ErrInvalidTuning)
	}
	return nil
}
