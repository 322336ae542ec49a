// Package rating maps numeric safety scores onto qualitative bands.
//
// A single threshold table drives both band assignment and the display colour
// so the two can never disagree.
package rating

import (
	"encoding/json"
	"fmt"
)

// Band is a qualitative safety rating.
type Band int

const (
	Unknown Band = iota
	Poor
	Fair
	Good
	Excellent
)

// RiskLevel is the coarse risk classification attached to a band.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
	RiskUnknown  RiskLevel = "unknown"
)

const (
	MinScore = 0.0
	MaxScore = 10.0
)

// Threshold is one row of the band table. A score belongs to the first row
// whose MinScore it reaches.
type Threshold struct {
	MinScore float64
	Band     Band
	Color    string
}

// Thresholds is ordered from the highest band down. The last row catches
// every defined score below the previous floor.
var Thresholds = []Threshold{
	{MinScore: 8, Band: Excellent, Color: "#4caf50"},
	{MinScore: 6, Band: Good, Color: "#8bc34a"},
	{MinScore: 4, Band: Fair, Color: "#ffc107"},
	{MinScore: MinScore, Band: Poor, Color: "#f44336"},
}

// UnknownColor is used for ingredients and reports without a score.
const UnknownColor = "#9e9e9e"

var labels = map[Band]string{
	Unknown:   "Unknown",
	Poor:      "Poor/High-risk",
	Fair:      "Fair",
	Good:      "Good",
	Excellent: "Excellent/Low-risk",
}

var risks = map[Band]RiskLevel{
	Unknown:   RiskUnknown,
	Poor:      RiskHigh,
	Fair:      RiskModerate,
	Good:      RiskModerate,
	Excellent: RiskLow,
}

// ForScore returns the band for score. A nil score is Unknown. Scores outside
// [0,10] are clamped first.
func ForScore(score *float64) Band {
	if score == nil {
		return Unknown
	}
	s := Clamp(*score)
	for _, t := range Thresholds {
		if s >= t.MinScore {
			return t.Band
		}
	}
	return Poor
}

// Clamp limits a score to [MinScore, MaxScore].
func Clamp(score float64) float64 {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

// Label is the display name of the band, "Unknown" for unrated.
func (b Band) Label() string {
	if l, ok := labels[b]; ok {
		return l
	}
	return labels[Unknown]
}

func (b Band) String() string { return b.Label() }

// Risk maps the band to its coarse risk level.
func (b Band) Risk() RiskLevel {
	if r, ok := risks[b]; ok {
		return r
	}
	return RiskUnknown
}

// Color returns the display colour for the band.
func (b Band) Color() string {
	for _, t := range Thresholds {
		if t.Band == b {
			return t.Color
		}
	}
	return UnknownColor
}

// ParseBand is the inverse of Label.
func ParseBand(label string) (Band, error) {
	for b, l := range labels {
		if l == label {
			return b, nil
		}
	}
	return Unknown, fmt.Errorf("unknown rating label %q", label)
}

// MarshalJSON encodes the band as its label.
func (b Band) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Label())
}

// UnmarshalJSON accepts a label produced by MarshalJSON.
func (b *Band) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return err
	}
	parsed, err := ParseBand(label)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}
