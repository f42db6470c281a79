package spaced_repetition

import (
	"fmt"
	"time"
)

// MaxIntervalLimit is the longest interval, in days, that still fits in a
// time.Duration when added to a due date.
const MaxIntervalLimit float64 = 106000

// Policy holds every tunable constant of the scheduler.
type Policy struct {
	DefaultEase  float64 `yaml:"default_ease"`
	EaseFloor    float64 `yaml:"ease_floor"`
	EaseCeiling  float64 `yaml:"ease_ceiling"` // 0 disables the cap
	AgainPenalty float64 `yaml:"again_penalty"`
	HardPenalty  float64 `yaml:"hard_penalty"`
	EasyBonus    float64 `yaml:"easy_bonus"`

	LapseDelay          time.Duration `yaml:"lapse_delay"`
	MinInterval         float64       `yaml:"min_interval"` // days
	HardMultiplier      float64       `yaml:"hard_multiplier"`
	InitialGoodInterval float64       `yaml:"initial_good_interval"`
	InitialEasyInterval float64       `yaml:"initial_easy_interval"`
	EasyMultiplier      float64       `yaml:"easy_multiplier"`
	MaxInterval         float64       `yaml:"max_interval"`

	// Cards with a longer interval count as mastered in deck statistics
	MasteredInterval float64 `yaml:"mastered_interval"`
}

// DefaultPolicy returns the stock policy. Again shows the card again in about
// a minute, Hard/Good/Easy on a fresh card give 1, 1 and 4 days.
func DefaultPolicy() Policy {
	return Policy{
		DefaultEase:  2.5,
		EaseFloor:    1.3,
		EaseCeiling:  3.0,
		AgainPenalty: 0.20,
		HardPenalty:  0.15,
		EasyBonus:    0.15,

		LapseDelay:          time.Minute,
		MinInterval:         1,
		HardMultiplier:      0.5,
		InitialGoodInterval: 1,
		InitialEasyInterval: 4,
		EasyMultiplier:      1.3,
		MaxInterval:         36500,

		MasteredInterval: 21,
	}
}

// Validate checks that the policy keeps the card invariants satisfiable.
func (p Policy) Validate() error {
	switch {
	case p.EaseFloor < 1:
		return fmt.Errorf("%w: ease floor %.2f below 1", ErrInvalidPolicy, p.EaseFloor)
	case p.DefaultEase < p.EaseFloor:
		return fmt.Errorf("%w: default ease %.2f below floor %.2f", ErrInvalidPolicy, p.DefaultEase, p.EaseFloor)
	case p.EaseCeiling != 0 && p.EaseCeiling < p.DefaultEase:
		return fmt.Errorf("%w: ease ceiling %.2f below default ease %.2f", ErrInvalidPolicy, p.EaseCeiling, p.DefaultEase)
	case p.AgainPenalty < 0 || p.HardPenalty < 0 || p.EasyBonus < 0:
		return fmt.Errorf("%w: ease adjustments must not be negative", ErrInvalidPolicy)
	case p.LapseDelay < 0:
		return fmt.Errorf("%w: lapse delay %s is negative", ErrInvalidPolicy, p.LapseDelay)
	case p.MinInterval <= 0:
		return fmt.Errorf("%w: min interval %.2f must be positive", ErrInvalidPolicy, p.MinInterval)
	case p.HardMultiplier <= 0 || p.HardMultiplier > 1:
		return fmt.Errorf("%w: hard multiplier %.2f outside (0, 1]", ErrInvalidPolicy, p.HardMultiplier)
	case p.InitialGoodInterval < p.MinInterval || p.InitialEasyInterval < p.MinInterval:
		return fmt.Errorf("%w: initial intervals must be at least the min interval", ErrInvalidPolicy)
	case p.EasyMultiplier < 1:
		return fmt.Errorf("%w: easy multiplier %.2f below 1", ErrInvalidPolicy, p.EasyMultiplier)
	case p.MaxInterval < p.InitialEasyInterval || p.MaxInterval < p.InitialGoodInterval:
		return fmt.Errorf("%w: max interval %.2f below an initial interval", ErrInvalidPolicy, p.MaxInterval)
	case p.MaxInterval > MaxIntervalLimit:
		return fmt.Errorf("%w: max interval %.0f days exceeds the %.0f day limit", ErrInvalidPolicy, p.MaxInterval, MaxIntervalLimit)
	}
	return nil
}
