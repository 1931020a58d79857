// Package config holds the immutable-per-call bundle of planner tunables
// (PlannerConfig) and decodes it from the loosely-typed configuration map
// the external transport layer supplies.
package config

import (
	"github.com/edaniels/golog"
	"github.com/mitchellh/mapstructure"
	"go.uber.org/multierr"

	"github.com/CCOMJHC/alex-path-planner/obstacle"
)

// WhichPlanner selects the planner family the Executive invokes each cycle.
type WhichPlanner int

const (
	PotentialField WhichPlanner = iota
	AStar
	BitStar
)

func (w WhichPlanner) String() string {
	switch w {
	case PotentialField:
		return "PotentialField"
	case AStar:
		return "AStar"
	case BitStar:
		return "BitStar"
	default:
		return "?"
	}
}

// Config is the immutable-per-call bundle of tunables passed to Planner.Plan.
// It is copied by value into each cycle; the Executive never mutates a
// Config a planner is actively using.
type Config struct {
	TurningRadius         float64 `json:"turningRadius"`
	CoverageTurningRadius float64 `json:"coverageTurningRadius"`
	MaxSpeed              float64 `json:"maxSpeed"`
	SlowSpeed             float64 `json:"slowSpeed"`
	LineWidth             float64 `json:"lineWidth"`
	K                     int     `json:"k"`
	Heuristic             int     `json:"heuristic"`
	TimeHorizon           float64 `json:"timeHorizon"`
	TimeMinimum           float64 `json:"timeMinimum"`

	CollisionCheckingIncrement float64 `json:"collisionCheckingIncrement"`
	InitialSamples             int     `json:"initialSamples"`
	UseBrownPaths              bool    `json:"useBrownPaths"`

	UseGaussianDynamicObstacles bool `json:"useGaussianDynamicObstacles"`
	IgnoreDynamicObstacles      bool `json:"ignoreDynamicObstacles"`

	WhichPlanner WhichPlanner `json:"whichPlanner"`

	// DisablePlanReuse forces every cycle to start from an empty plan
	// instead of splicing the previous cycle's plan into a suffix.
	DisablePlanReuse bool `json:"disablePlanReuse"`

	// DynamicObstacleCostFactor and the time-stdev terms weight dynamic
	// obstacle collision cost in BIT*'s edge cost.
	DynamicObstacleCostFactor      float64 `json:"dynamicObstacleCostFactor"`
	DynamicObstacleTimeStdevFactor float64 `json:"dynamicObstacleTimeStdevFactor"`
	DynamicObstacleTimeStdevPower  float64 `json:"dynamicObstacleTimeStdevPower"`

	// Map and Logger are injected handles, not tunables: the Executive sets
	// them fresh on the config snapshot each cycle rather than decoding them
	// from the wire configuration map.
	Map    *obstacle.Map `json:"-" mapstructure:"-"`
	Logger golog.Logger  `json:"-" mapstructure:"-"`
}

// Default returns a Config with conservative, documented defaults; every
// numeric default here is surfaced as a field rather than hidden inline in
// planner code.
func Default() Config {
	return Config{
		TurningRadius:                  8,
		CoverageTurningRadius:          8,
		MaxSpeed:                       2.5,
		SlowSpeed:                      1.0,
		LineWidth:                      5,
		K:                              5,
		Heuristic:                      0,
		TimeHorizon:                    60,
		TimeMinimum:                    15,
		CollisionCheckingIncrement:     0.5,
		InitialSamples:                 50,
		UseBrownPaths:                  false,
		UseGaussianDynamicObstacles:    false,
		IgnoreDynamicObstacles:         false,
		WhichPlanner:                   AStar,
		DisablePlanReuse:               false,
		DynamicObstacleCostFactor:      100000,
		DynamicObstacleTimeStdevFactor: 1,
		DynamicObstacleTimeStdevPower:  1,
	}
}

// Decode merges the loosely-typed configuration map raw (as delivered by
// setConfiguration) into base, returning the result. Unrecognized keys are
// ignored (mapstructure default); malformed values for recognized keys are
// aggregated via multierr so every problem is reported at once rather than
// failing on the first.
func Decode(base Config, raw map[string]interface{}) (Config, error) {
	result := base
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           &result,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return base, err
	}

	var errs error
	if whichRaw, ok := raw["whichPlanner"]; ok {
		if wp, ok2 := decodeWhichPlanner(whichRaw); ok2 {
			result.WhichPlanner = wp
			delete(raw, "whichPlanner")
		} else {
			errs = multierr.Append(errs, errInvalidWhichPlanner(whichRaw))
		}
	}

	if err := decoder.Decode(raw); err != nil {
		errs = multierr.Append(errs, err)
	}
	if errs != nil {
		return base, errs
	}
	return result, nil
}

func decodeWhichPlanner(v interface{}) (WhichPlanner, bool) {
	switch val := v.(type) {
	case string:
		switch val {
		case "PotentialField":
			return PotentialField, true
		case "AStar":
			return AStar, true
		case "BitStar":
			return BitStar, true
		}
	case int:
		return WhichPlanner(val), true
	case float64:
		return WhichPlanner(int(val)), true
	}
	return 0, false
}
