package models

import (
	"encoding/json"
)

// Issue labels produced by the alert rules.
const (
	IssueLowConversion = "Low Conversion Rate"
	IssueNegativeROI   = "Negative ROI"
)

// Severity ranks an alert.
type Severity string

const (
	SeverityCritical Severity = "Critical"
	SeverityHigh     Severity = "High"
	SeverityMedium   Severity = "Medium"
)

// Rank orders severities from most to least urgent.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	default:
		return 0
	}
}

// Canned recommendations attached to each rule.
const (
	RecommendLowConversion = "Reallocate budget or test new creative/channel mix"
	RecommendNegativeROI   = "Pause campaign immediately and investigate CAC drivers"
)

// Alert flags one campaign for one rule. A campaign matching several rules
// gets one Alert per rule.
type Alert struct {
	CampaignID     string   `json:"campaign_id"`
	Issue          string   `json:"issue"`
	Severity       Severity `json:"severity"`
	Recommendation string   `json:"recommendation"`
}

// Stat is a computed scalar that may be undefined. An invalid Stat is the
// "no data" sentinel and serialises as null.
type Stat[T int64 | float64] struct {
	Value T
	Valid bool
}

// Some returns a valid Stat.
func Some[T int64 | float64](v T) Stat[T] {
	return Stat[T]{Value: v, Valid: true}
}

func (s Stat[T]) MarshalJSON() ([]byte, error) {
	if !s.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(s.Value)
}

// OverallMetrics summarises the campaign table.
type OverallMetrics struct {
	AvgConversion Stat[float64] `json:"avg_conversion"`
	AvgCAC        Stat[float64] `json:"avg_cac"`
	AvgROI        Stat[float64] `json:"avg_roi"`
	TotalClicks   Stat[int64]   `json:"total_clicks"`
	Campaigns     int           `json:"campaigns"`
}

// NoData reports whether the summary was computed over an empty table.
func (m OverallMetrics) NoData() bool {
	return m.Campaigns == 0
}
