package matcher

import "fmt"

// Config holds the empirically chosen matching thresholds.
type Config struct {
	// ContainmentMinLength is the minimum rune length of the shorter name
	// for the containment strategy, so "pur" cannot match half the country.
	ContainmentMinLength int `yaml:"containment_min_length"`
	// ContainmentConfidence is the confidence assigned to containment hits.
	ContainmentConfidence float64 `yaml:"containment_confidence"`
	// FuzzyThreshold is the minimum similarity the fuzzy strategy accepts.
	FuzzyThreshold float64 `yaml:"fuzzy_threshold"`
	// ReviewThreshold marks near misses: a best score in
	// [ReviewThreshold, FuzzyThreshold) is excluded as below-threshold.
	ReviewThreshold float64 `yaml:"review_threshold"`
}

// DefaultConfig returns the default thresholds.
func DefaultConfig() Config {
	return Config{
		ContainmentMinLength:  5,
		ContainmentConfidence: 0.9,
		FuzzyThreshold:        0.85,
		ReviewThreshold:       0.75,
	}
}

// Validate checks that thresholds are in range.
func (c Config) Validate() error {
	if c.ContainmentMinLength < 1 {
		return fmt.Errorf("containment_min_length must be >= 1, got %d", c.ContainmentMinLength)
	}
	if c.ContainmentConfidence <= 0 || c.ContainmentConfidence > 1 {
		return fmt.Errorf("containment_confidence must be in (0, 1], got %v", c.ContainmentConfidence)
	}
	if c.FuzzyThreshold <= 0 || c.FuzzyThreshold > 1 {
		return fmt.Errorf("fuzzy_threshold must be in (0, 1], got %v", c.FuzzyThreshold)
	}
	if c.ReviewThreshold < 0 || c.ReviewThreshold > c.FuzzyThreshold {
		return fmt.Errorf("review_threshold must be in [0, fuzzy_threshold], got %v", c.ReviewThreshold)
	}
	return nil
}
