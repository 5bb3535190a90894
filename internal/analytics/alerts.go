package analytics

import (
	"sort"

	"github.com/radiusdt/marketing-dashboard/internal/models"
)

// LowConversionQuantile is the conversion-rate quantile below which a
// campaign is flagged.
const LowConversionQuantile = 0.25

// Flag runs both alert rules over the campaign table.
//
// Rule 1 flags every campaign whose conversion rate is strictly below the
// 25th percentile of the table (severity High when its ROI is also negative,
// Medium otherwise). Rule 2 flags every campaign with strictly negative ROI
// as Critical. The rules are independent: a campaign matching both appears
// twice. All rule 1 alerts come first, each group in input order.
func Flag(campaigns []models.CampaignAggregate) []models.Alert {
	alerts := make([]models.Alert, 0)
	if len(campaigns) == 0 {
		return alerts
	}

	rates := make([]float64, len(campaigns))
	for i, c := range campaigns {
		rates[i] = c.ConversionRate
	}

	// NaN never compares below the threshold, so NULL rates are never flagged.
	if q, ok := Quantile(rates, LowConversionQuantile); ok {
		for _, c := range campaigns {
			if !(c.ConversionRate < q) {
				continue
			}
			severity := models.SeverityMedium
			if c.ROIPercent < 0 {
				severity = models.SeverityHigh
			}
			alerts = append(alerts, models.Alert{
				CampaignID:     c.CampaignID,
				Issue:          models.IssueLowConversion,
				Severity:       severity,
				Recommendation: models.RecommendLowConversion,
			})
		}
	}

	for _, c := range campaigns {
		if !(c.ROIPercent < 0) {
			continue
		}
		alerts = append(alerts, models.Alert{
			CampaignID:     c.CampaignID,
			Issue:          models.IssueNegativeROI,
			Severity:       models.SeverityCritical,
			Recommendation: models.RecommendNegativeROI,
		})
	}

	return alerts
}

// SeverityCount is the number of alerts at one severity.
type SeverityCount struct {
	Severity models.Severity `json:"severity"`
	Count    int             `json:"count"`
}

// CountBySeverity tallies alerts, most urgent severity first.
func CountBySeverity(alerts []models.Alert) []SeverityCount {
	counts := make(map[models.Severity]int)
	for _, a := range alerts {
		counts[a.Severity]++
	}

	out := make([]SeverityCount, 0, len(counts))
	for s, n := range counts {
		out = append(out, SeverityCount{Severity: s, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Severity.Rank() != out[j].Severity.Rank() {
			return out[i].Severity.Rank() > out[j].Severity.Rank()
		}
		return out[i].Severity < out[j].Severity
	})
	return out
}
