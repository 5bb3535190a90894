// Package analytics computes the dashboard's business metrics and alert list
// from the campaign aggregate table. Every function here is pure: no I/O,
// no logging, no errors for typed input.
package analytics

import (
	"math"

	"github.com/radiusdt/marketing-dashboard/internal/models"
)

// Summarize computes the overall metrics for a campaign table. Means skip
// NULL (NaN) cells; a mean over zero usable cells is the no-data sentinel.
// TotalClicks sums the non-NULL click counts and is 0 for an empty table.
func Summarize(campaigns []models.CampaignAggregate) models.OverallMetrics {
	var (
		conv, cac, roi mean
		clicks         int64
	)

	for _, c := range campaigns {
		conv.add(c.ConversionRate)
		cac.add(c.CAC)
		roi.add(c.ROIPercent)
		if c.ClicksValid {
			clicks += c.Clicks
		}
	}

	m := models.OverallMetrics{
		AvgConversion: conv.stat(),
		AvgCAC:        cac.stat(),
		AvgROI:        roi.stat(),
		TotalClicks:   models.Stat[int64]{Value: clicks, Valid: len(campaigns) > 0},
		Campaigns:     len(campaigns),
	}
	return m
}

type mean struct {
	sum float64
	n   int
}

func (m *mean) add(v float64) {
	if math.IsNaN(v) {
		return
	}
	m.sum += v
	m.n++
}

func (m mean) stat() models.Stat[float64] {
	if m.n == 0 {
		return models.Stat[float64]{}
	}
	return models.Some(m.sum / float64(m.n))
}
