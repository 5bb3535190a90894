package analytics

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radiusdt/marketing-dashboard/internal/models"
)

func campaign(id string, conv, roi, cac float64, clicks int64) models.CampaignAggregate {
	return models.CampaignAggregate{
		CampaignID:     id,
		CampaignType:   "Email",
		ConversionRate: conv,
		ROIPercent:     roi,
		CAC:            cac,
		Clicks:         clicks,
		ClicksValid:    true,
	}
}

func TestSummarizeTwoCampaigns(t *testing.T) {
	in := []models.CampaignAggregate{
		campaign("1", 0.10, -5, 20, 100),
		campaign("2", 0.50, 20, 10, 200),
	}

	m := Summarize(in)

	require.True(t, m.AvgConversion.Valid)
	assert.InDelta(t, 0.30, m.AvgConversion.Value, 1e-9)
	assert.InDelta(t, 7.5, m.AvgROI.Value, 1e-9)
	assert.InDelta(t, 15.0, m.AvgCAC.Value, 1e-9)
	assert.Equal(t, models.Some[int64](300), m.TotalClicks)
	assert.Equal(t, 2, m.Campaigns)
	assert.False(t, m.NoData())
}

func TestSummarizeEmpty(t *testing.T) {
	m := Summarize(nil)

	assert.False(t, m.AvgConversion.Valid)
	assert.False(t, m.AvgCAC.Valid)
	assert.False(t, m.AvgROI.Valid)
	assert.False(t, m.TotalClicks.Valid)
	assert.Equal(t, int64(0), m.TotalClicks.Value)
	assert.True(t, m.NoData())
}

func TestSummarizeSkipsNulls(t *testing.T) {
	nullClicks := campaign("3", math.NaN(), math.NaN(), 30, 0)
	nullClicks.ClicksValid = false

	in := []models.CampaignAggregate{
		campaign("1", 0.2, 10, 10, 5),
		nullClicks,
	}

	m := Summarize(in)

	assert.InDelta(t, 0.2, m.AvgConversion.Value, 1e-9)
	assert.InDelta(t, 10.0, m.AvgROI.Value, 1e-9)
	assert.InDelta(t, 20.0, m.AvgCAC.Value, 1e-9)
	assert.Equal(t, int64(5), m.TotalClicks.Value)
}

func TestSummarizeAllNullColumnYieldsSentinelForThatMeanOnly(t *testing.T) {
	in := []models.CampaignAggregate{
		campaign("1", math.NaN(), 4, 10, 1),
		campaign("2", math.NaN(), 6, 10, 1),
	}

	m := Summarize(in)

	assert.False(t, m.AvgConversion.Valid)
	assert.True(t, m.AvgROI.Valid)
	assert.InDelta(t, 5.0, m.AvgROI.Value, 1e-9)
}

func TestSummarizeTotalClicksIsSum(t *testing.T) {
	var in []models.CampaignAggregate
	var want int64
	for i := int64(0); i < 50; i++ {
		in = append(in, campaign(string(rune('a'+i%26))+"x", 0.1, 1, 1, i*37))
		want += i * 37
	}

	assert.Equal(t, want, Summarize(in).TotalClicks.Value)
}

func TestQuantile(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		p      float64
		want   float64
		ok     bool
	}{
		{"two values", []float64{0.10, 0.50}, 0.25, 0.20, true},
		{"unsorted input", []float64{4, 1, 3, 2}, 0.25, 1.75, true},
		{"median odd", []float64{3, 1, 2}, 0.5, 2, true},
		{"single value", []float64{7}, 0.25, 7, true},
		{"p zero", []float64{5, 1, 9}, 0, 1, true},
		{"p one", []float64{5, 1, 9}, 1, 9, true},
		{"nan ignored", []float64{math.NaN(), 1, 3}, 0.5, 2, true},
		{"empty", nil, 0.25, 0, false},
		{"all nan", []float64{math.NaN()}, 0.25, 0, false},
		{"p out of range", []float64{1, 2}, 1.5, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Quantile(tt.values, tt.p)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestQuantileDoesNotReorderInput(t *testing.T) {
	in := []float64{3, 1, 2}
	_, _ = Quantile(in, 0.5)
	assert.Equal(t, []float64{3, 1, 2}, in)
}

func TestFlagTwoCampaigns(t *testing.T) {
	in := []models.CampaignAggregate{
		campaign("1", 0.10, -5, 20, 100),
		campaign("2", 0.50, 20, 10, 200),
	}

	want := []models.Alert{
		{CampaignID: "1", Issue: models.IssueLowConversion, Severity: models.SeverityHigh, Recommendation: models.RecommendLowConversion},
		{CampaignID: "1", Issue: models.IssueNegativeROI, Severity: models.SeverityCritical, Recommendation: models.RecommendNegativeROI},
	}

	if diff := cmp.Diff(want, Flag(in)); diff != "" {
		t.Errorf("Flag() mismatch (-want +got):\n%s", diff)
	}
}

func TestFlagEmpty(t *testing.T) {
	alerts := Flag(nil)
	require.NotNil(t, alerts)
	assert.Empty(t, alerts)
}

func TestFlagZeroROIIsNotNegative(t *testing.T) {
	in := []models.CampaignAggregate{
		campaign("1", 0.3, 0, 10, 1),
		campaign("2", 0.3, 0, 10, 1),
	}

	// identical rates: nothing is strictly below the quantile
	assert.Empty(t, Flag(in))
}

func TestFlagMediumSeverityWhenROIPositive(t *testing.T) {
	in := []models.CampaignAggregate{
		campaign("a", 0.01, 12, 10, 1),
		campaign("b", 0.40, 15, 10, 1),
		campaign("c", 0.50, 18, 10, 1),
	}

	alerts := Flag(in)
	require.Len(t, alerts, 1)
	assert.Equal(t, "a", alerts[0].CampaignID)
	assert.Equal(t, models.SeverityMedium, alerts[0].Severity)
}

func TestFlagProperties(t *testing.T) {
	in := []models.CampaignAggregate{
		campaign("c1", 0.05, -10, 40, 10),
		campaign("c2", 0.12, 5, 20, 10),
		campaign("c3", 0.20, -1, 25, 10),
		campaign("c4", 0.33, 0, 15, 10),
		campaign("c5", 0.41, 60, 12, 10),
		campaign("c6", 0.02, 3, 55, 10),
		campaign("c7", 0.27, -30, 33, 10),
	}

	alerts := Flag(in)

	rates := make([]float64, len(in))
	for i, c := range in {
		rates[i] = c.ConversionRate
	}
	q, ok := Quantile(rates, LowConversionQuantile)
	require.True(t, ok)

	var negIDs, lowIDs []string
	for _, c := range in {
		if c.ROIPercent < 0 {
			negIDs = append(negIDs, c.CampaignID)
		}
		if c.ConversionRate < q {
			lowIDs = append(lowIDs, c.CampaignID)
		}
	}

	var gotNeg, gotLow []string
	seenLowDone := false
	for _, a := range alerts {
		switch a.Issue {
		case models.IssueNegativeROI:
			seenLowDone = true
			gotNeg = append(gotNeg, a.CampaignID)
			assert.Equal(t, models.SeverityCritical, a.Severity)
		case models.IssueLowConversion:
			assert.False(t, seenLowDone, "low conversion alerts must precede negative ROI alerts")
			gotLow = append(gotLow, a.CampaignID)
		}
	}

	assert.Equal(t, negIDs, gotNeg)
	assert.Equal(t, lowIDs, gotLow)

	// pure: same input, same output
	assert.Equal(t, alerts, Flag(in))
}

func TestCountBySeverity(t *testing.T) {
	alerts := []models.Alert{
		{Severity: models.SeverityMedium},
		{Severity: models.SeverityCritical},
		{Severity: models.SeverityHigh},
		{Severity: models.SeverityCritical},
	}

	want := []SeverityCount{
		{Severity: models.SeverityCritical, Count: 2},
		{Severity: models.SeverityHigh, Count: 1},
		{Severity: models.SeverityMedium, Count: 1},
	}
	assert.Equal(t, want, CountBySeverity(alerts))
	assert.Empty(t, CountBySeverity(nil))
}
