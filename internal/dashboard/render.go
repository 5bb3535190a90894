// Package dashboard turns a data snapshot and a view selection into a page
// description. Rendering is pure: the same snapshot and selection always
// produce the same page.
package dashboard

import (
	"math"
	"sort"
	"time"

	"github.com/radiusdt/marketing-dashboard/internal/analytics"
	"github.com/radiusdt/marketing-dashboard/internal/models"
	"github.com/radiusdt/marketing-dashboard/internal/snapshot"
)

// Selection is the user's navigation state for one render.
type Selection struct {
	View View
	// CampaignID picks the deep-dive campaign. Empty means the first one.
	CampaignID string
	// Now is the render time shown in the footer.
	Now time.Time
}

// Summarize computes the overview for a snapshot.
func Summarize(snap *snapshot.Snapshot) Overview {
	campaigns := models.Campaigns(snap.Campaigns)
	alerts := analytics.Flag(campaigns)
	return Overview{
		Metrics:        analytics.Summarize(campaigns),
		Alerts:         alerts,
		SeverityCounts: analytics.CountBySeverity(alerts),
	}
}

// Render builds the page for sel.View.
func Render(snap *snapshot.Snapshot, sel Selection) Page {
	v := sel.View
	if !v.valid() {
		v = DefaultView
	}

	p := Page{
		View:    v,
		Slug:    v.Slug(),
		Label:   v.Label(),
		Title:   v.Title(),
		Metrics: []MetricCard{},
		Blocks:  []Block{},
		Footer:  "Last updated: " + Timestamp(sel.Now),
	}
	if !snap.LoadedAt.IsZero() {
		p.DataAsOf = Timestamp(snap.LoadedAt)
	}

	switch v {
	case ExecutiveSummary:
		renderExecutiveSummary(&p, snap)
	case CampaignDeepDive:
		renderDeepDive(&p, snap, sel.CampaignID)
	case SegmentAnalysis:
		renderSegments(&p, snap)
	case ChannelPerformance:
		renderChannels(&p, snap)
	case TrendsRecommendations:
		renderRecommendations(&p, snap)
	}
	return p
}

func renderExecutiveSummary(p *Page, snap *snapshot.Snapshot) {
	campaigns := models.Campaigns(snap.Campaigns)
	m := analytics.Summarize(campaigns)

	p.Metrics = []MetricCard{
		{Label: "Avg Conversion Rate", Value: Percent(m.AvgConversion)},
		{Label: "Avg CAC", Value: Currency(m.AvgCAC)},
		{Label: "Avg ROI", Value: ROI(m.AvgROI)},
		{Label: "Total Clicks", Value: Count(m.TotalClicks)},
	}

	const chartHeading = "Which Campaigns Are Driving Results?"
	if len(campaigns) == 0 {
		p.Blocks = append(p.Blocks,
			notice("conversion-by-type", chartHeading),
			notice("executive-alerts", "Executive Alerts"),
		)
		return
	}

	sorted := append([]models.CampaignAggregate(nil), campaigns...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return lessNaNLast(sorted[i].ConversionRate, sorted[j].ConversionRate)
	})

	x := make([]float64, len(sorted))
	y := make([]any, len(sorted))
	color := make([]float64, len(sorted))
	for i, c := range sorted {
		x[i] = c.ConversionRate
		y[i] = c.CampaignType
		color[i] = c.ROIPercent
	}

	p.Blocks = append(p.Blocks,
		Block{
			Kind:    BlockChart,
			ID:      "conversion-by-type",
			Heading: chartHeading,
			Figure: barChart("Conversion Rate by Campaign Type",
				models.ColConversionRate, models.ColCampaignType,
				numbers(x), y, models.ColROIPercent, color, true),
		},
		Block{
			Kind:    BlockTable,
			ID:      "executive-alerts",
			Heading: "Executive Alerts",
			Table:   alertTable(analytics.Flag(campaigns)),
		},
	)
}

func renderDeepDive(p *Page, snap *snapshot.Snapshot, selected string) {
	f := snap.Campaigns
	idCol := f.Index(models.ColCampaignID)

	options := uniqueIDs(f, idCol)
	if selected == "" && len(options) > 0 {
		selected = options[0]
	}
	p.Selector = &Selector{
		Label:    "Select Campaign",
		Param:    "campaign",
		Options:  options,
		Selected: selected,
	}

	if f.Empty() {
		p.Blocks = append(p.Blocks, notice("campaign-rows", ""))
		return
	}

	var rows [][]any
	var first *models.CampaignAggregate
	campaigns := models.Campaigns(f)
	for i, row := range f.Rows {
		// without an id column nothing can match the selection
		if idCol < 0 || models.Text(cellAt(row, idCol)) != selected {
			continue
		}
		rows = append(rows, row)
		if first == nil {
			first = &campaigns[i]
		}
	}

	// A miss renders an empty table and no cards.
	if first != nil {
		p.Metrics = []MetricCard{
			{Label: "Conversion Rate", Value: Percent(stat(first.ConversionRate))},
			{Label: "ROI", Value: ROI(stat(first.ROIPercent))},
			{Label: "CAC", Value: Currency(stat(first.CAC))},
		}
	}

	p.Blocks = append(p.Blocks, Block{
		Kind:  BlockTable,
		ID:    "campaign-rows",
		Table: frameTable(f, rows),
	})
}

func renderSegments(p *Page, snap *snapshot.Snapshot) {
	segments := models.Segments(snap.Segments)
	if len(segments) == 0 {
		p.Blocks = append(p.Blocks,
			notice("segment-value-map", ""),
			notice("segment-table", ""),
		)
		return
	}

	n := len(segments)
	x, y, size, color := make([]float64, n), make([]float64, n), make([]float64, n), make([]float64, n)
	hover := make([]any, n)
	for i, s := range segments {
		x[i] = s.AvgCAC
		y[i] = s.AvgConversionRate
		size[i] = s.Campaigns
		color[i] = s.AvgROI
		hover[i] = s.Segment
	}

	p.Blocks = append(p.Blocks,
		Block{
			Kind: BlockChart,
			ID:   "segment-value-map",
			Figure: scatterChart("Segment Value Map (Efficiency vs Performance)",
				models.ColAvgCAC, models.ColAvgConversionRate, x, y,
				models.ColSegmentCampaigns, size, models.ColAvgROI, color, hover),
		},
		Block{
			Kind:  BlockTable,
			ID:    "segment-table",
			Table: frameTable(snap.Segments, snap.Segments.Rows),
		},
	)
}

func renderChannels(p *Page, snap *snapshot.Snapshot) {
	channels := models.Channels(snap.Channels)
	if len(channels) == 0 {
		p.Blocks = append(p.Blocks,
			notice("channel-roi", ""),
			notice("channel-cac", ""),
		)
		return
	}

	names := make([]any, len(channels))
	roi := make([]float64, len(channels))
	cac := make([]float64, len(channels))
	for i, c := range channels {
		names[i] = c.Channel
		roi[i] = c.AvgROI
		cac[i] = c.AvgCAC
	}

	p.Blocks = append(p.Blocks,
		Block{
			Kind: BlockChart,
			ID:   "channel-roi",
			Figure: barChart("Average ROI by Channel",
				models.ColChannel, models.ColAvgROI, names, numbers(roi), "", nil, false),
		},
		Block{
			Kind: BlockChart,
			ID:   "channel-cac",
			Figure: barChart("Average CAC by Channel",
				models.ColChannel, models.ColAvgCAC, names, numbers(cac), "", nil, false),
		},
	)
}

func renderRecommendations(p *Page, snap *snapshot.Snapshot) {
	p.Blocks = append(p.Blocks, Block{
		Kind:    BlockBullets,
		ID:      "key-recommendations",
		Heading: "Key Recommendations",
		Bullets: Recommendations,
	})

	campaigns := models.Campaigns(snap.Campaigns)
	if len(campaigns) == 0 {
		p.Blocks = append(p.Blocks, notice("risk-matrix", "Campaign Risk Matrix"))
		return
	}
	p.Blocks = append(p.Blocks, Block{
		Kind:    BlockTable,
		ID:      "risk-matrix",
		Heading: "Campaign Risk Matrix",
		Table:   alertTable(analytics.Flag(campaigns)),
	})
}

// CampaignRows returns the full rows for one campaign id. A miss is an
// empty table.
func CampaignRows(f *models.Frame, id string) *Table {
	col := f.Index(models.ColCampaignID)
	var rows [][]any
	if f != nil && col >= 0 {
		for _, row := range f.Rows {
			if models.Text(cellAt(row, col)) == id {
				rows = append(rows, row)
			}
		}
	}
	return frameTable(f, rows)
}

func uniqueIDs(f *models.Frame, col int) []string {
	out := []string{}
	if f == nil || col < 0 {
		return out
	}
	seen := make(map[string]struct{}, len(f.Rows))
	for _, row := range f.Rows {
		id := models.Text(cellAt(row, col))
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func cellAt(row []any, col int) any {
	if col < 0 || col >= len(row) {
		return nil
	}
	return row[col]
}

// lessNaNLast orders ascending with NaN after every number.
func lessNaNLast(a, b float64) bool {
	if math.IsNaN(a) {
		return false
	}
	if math.IsNaN(b) {
		return true
	}
	return a < b
}
