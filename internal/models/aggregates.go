package models

// Gold table names inside the warehouse schema.
const (
	TableCampaigns = "gold_campaign_agg"
	TableChannels  = "gold_channel_agg"
	TableSegments  = "gold_segment_agg"
)

// Column names consumed by the dashboard.
const (
	ColCampaignID     = "campaign_id"
	ColCampaignType   = "campaign_type"
	ColConversionRate = "conversion_rate"
	ColCAC            = "cac"
	ColROIPercent     = "roi_percent"
	ColClicks         = "clicks"

	ColChannel = "channel_used_clean"
	ColAvgROI  = "avg_roi"
	ColAvgCAC  = "avg_cac"

	ColSegment           = "customer_segment"
	ColSegmentCampaigns  = "campaigns"
	ColAvgConversionRate = "avg_conversion_rate"
)

// CampaignAggregate is one row of gold_campaign_agg. Numeric fields hold NaN
// when the warehouse returned NULL.
type CampaignAggregate struct {
	CampaignID     string  `json:"campaign_id"`
	CampaignType   string  `json:"campaign_type"`
	ConversionRate float64 `json:"conversion_rate"` // fraction in [0,1]
	CAC            float64 `json:"cac"`
	ROIPercent     float64 `json:"roi_percent"`
	Clicks         int64   `json:"clicks"`
	ClicksValid    bool    `json:"-"`

	// Record is the full warehouse row, including pass-through columns.
	Record Record `json:"record"`
}

// ChannelAggregate is one row of gold_channel_agg.
type ChannelAggregate struct {
	Channel string  `json:"channel_used_clean"`
	AvgROI  float64 `json:"avg_roi"`
	AvgCAC  float64 `json:"avg_cac"`
	Record  Record  `json:"record"`
}

// SegmentAggregate is one row of gold_segment_agg.
type SegmentAggregate struct {
	Segment           string  `json:"customer_segment"`
	Campaigns         float64 `json:"campaigns"`
	AvgCAC            float64 `json:"avg_cac"`
	AvgConversionRate float64 `json:"avg_conversion_rate"`
	AvgROI            float64 `json:"avg_roi"`
	Record            Record  `json:"record"`
}

func cell(row []any, col int) any {
	if col < 0 || col >= len(row) {
		return nil
	}
	return row[col]
}

// Campaigns decodes a gold_campaign_agg frame. Missing columns decode as
// NULL, so a frame without conversion_rate simply yields NaN rates.
func Campaigns(f *Frame) []CampaignAggregate {
	out := make([]CampaignAggregate, 0, f.Len())
	if f.Empty() {
		return out
	}

	id := f.Index(ColCampaignID)
	typ := f.Index(ColCampaignType)
	conv := f.Index(ColConversionRate)
	cac := f.Index(ColCAC)
	roi := f.Index(ColROIPercent)
	clicks := f.Index(ColClicks)

	for i, row := range f.Rows {
		c := CampaignAggregate{
			CampaignID:     Text(cell(row, id)),
			CampaignType:   Text(cell(row, typ)),
			ConversionRate: Float(cell(row, conv)),
			CAC:            Float(cell(row, cac)),
			ROIPercent:     Float(cell(row, roi)),
			Record:         f.Record(i),
		}
		c.Clicks, c.ClicksValid = Int(cell(row, clicks))
		out = append(out, c)
	}
	return out
}

// Channels decodes a gold_channel_agg frame.
func Channels(f *Frame) []ChannelAggregate {
	out := make([]ChannelAggregate, 0, f.Len())
	if f.Empty() {
		return out
	}

	name := f.Index(ColChannel)
	roi := f.Index(ColAvgROI)
	cac := f.Index(ColAvgCAC)

	for i, row := range f.Rows {
		out = append(out, ChannelAggregate{
			Channel: Text(cell(row, name)),
			AvgROI:  Float(cell(row, roi)),
			AvgCAC:  Float(cell(row, cac)),
			Record:  f.Record(i),
		})
	}
	return out
}

// Segments decodes a gold_segment_agg frame.
func Segments(f *Frame) []SegmentAggregate {
	out := make([]SegmentAggregate, 0, f.Len())
	if f.Empty() {
		return out
	}

	name := f.Index(ColSegment)
	n := f.Index(ColSegmentCampaigns)
	cac := f.Index(ColAvgCAC)
	conv := f.Index(ColAvgConversionRate)
	roi := f.Index(ColAvgROI)

	for i, row := range f.Rows {
		out = append(out, SegmentAggregate{
			Segment:           Text(cell(row, name)),
			Campaigns:         Float(cell(row, n)),
			AvgCAC:            Float(cell(row, cac)),
			AvgConversionRate: Float(cell(row, conv)),
			AvgROI:            Float(cell(row, roi)),
			Record:            f.Record(i),
		})
	}
	return out
}
