package pump

import (
	"fmt"
	"strings"
)

// Strategy selects how Detect derives the pump orientation.
type Strategy string

const (
	// StrategyFourWay scans all four neighbours for the furnace and searches
	// separately for a cauldron indicator.
	StrategyFourWay Strategy = "four_way"
	// StrategyLeverRelative only tests the lever's left and right neighbours
	// and runs without an indicator.
	StrategyLeverRelative Strategy = "lever_relative"
)

func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrategyFourWay:
		return StrategyFourWay, nil
	case StrategyLeverRelative:
		return StrategyLeverRelative, nil
	}
	return "", fmt.Errorf("unknown pump detect strategy %q", s)
}

const (
	DefaultMaxLength  = 9
	DefaultMaxDepth   = 8
	DefaultDelayTicks = 10
)

type Config struct {
	MaxLength  int
	MaxDepth   int
	DelayTicks int
	Strategy   Strategy
	Liquid     Liquid
}

func DefaultConfig() Config {
	return Config{
		MaxLength:  DefaultMaxLength,
		MaxDepth:   DefaultMaxDepth,
		DelayTicks: DefaultDelayTicks,
		Strategy:   StrategyFourWay,
		Liquid:     Water,
	}
}

func (c Config) normalized() Config {
	d := DefaultConfig()
	if c.MaxLength <= 0 {
		c.MaxLength = d.MaxLength
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = d.MaxDepth
	}
	if c.DelayTicks <= 0 {
		c.DelayTicks = d.DelayTicks
	}
	if c.Strategy == "" {
		c.Strategy = d.Strategy
	}
	if c.Liquid.Tube == "" {
		c.Liquid = d.Liquid
	}
	return c
}
