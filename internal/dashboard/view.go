package dashboard

import (
	"errors"
	"fmt"
)

// View is one of the five dashboard pages.
type View int

const (
	ExecutiveSummary View = iota
	CampaignDeepDive
	SegmentAnalysis
	ChannelPerformance
	TrendsRecommendations
)

// ErrUnknownView is returned by ParseView for a slug that names no page.
var ErrUnknownView = errors.New("unknown view")

var views = []struct {
	label string
	slug  string
	title string
}{
	ExecutiveSummary:      {"Executive Summary", "executive-summary", "Executive Summary – Marketing Performance"},
	CampaignDeepDive:      {"Campaign Deep Dive", "campaign-deep-dive", "Campaign Deep Dive"},
	SegmentAnalysis:       {"Segment Analysis", "segment-analysis", "Customer Segment Performance"},
	ChannelPerformance:    {"Channel Performance", "channel-performance", "Channel Efficiency & ROI"},
	TrendsRecommendations: {"Trends & Recommendations", "trends-recommendations", "Strategic Insights & Recommendations"},
}

// Views returns every view in navigation order.
func Views() []View {
	out := make([]View, len(views))
	for i := range views {
		out[i] = View(i)
	}
	return out
}

// DefaultView is shown when no view is selected.
const DefaultView = ExecutiveSummary

func (v View) valid() bool { return v >= 0 && int(v) < len(views) }

// Label is the navigation label.
func (v View) Label() string {
	if !v.valid() {
		return ""
	}
	return views[v].label
}

// Slug is the URL path segment.
func (v View) Slug() string {
	if !v.valid() {
		return ""
	}
	return views[v].slug
}

// Title is the page heading.
func (v View) Title() string {
	if !v.valid() {
		return ""
	}
	return views[v].title
}

func (v View) String() string {
	if !v.valid() {
		return fmt.Sprintf("View(%d)", int(v))
	}
	return views[v].label
}

// ParseView maps a slug to its view.
func ParseView(slug string) (View, error) {
	for i, v := range views {
		if v.slug == slug {
			return View(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownView, slug)
}
