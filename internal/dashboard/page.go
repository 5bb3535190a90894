package dashboard

import (
	"github.com/radiusdt/marketing-dashboard/internal/analytics"
	"github.com/radiusdt/marketing-dashboard/internal/models"
)

// Page is everything one view renders. It is plain data: the HTML templates
// and the JSON API both serialise it.
type Page struct {
	View     View         `json:"-"`
	Slug     string       `json:"view"`
	Label    string       `json:"label"`
	Title    string       `json:"title"`
	Metrics  []MetricCard `json:"metrics"`
	Selector *Selector    `json:"selector,omitempty"`
	Blocks   []Block      `json:"blocks"`
	DataAsOf string       `json:"data_as_of,omitempty"`
	Footer   string       `json:"footer"`
}

// MetricCard is one scalar display.
type MetricCard struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Selector is the deep-dive campaign dropdown.
type Selector struct {
	Label    string   `json:"label"`
	Param    string   `json:"param"`
	Options  []string `json:"options"`
	Selected string   `json:"selected"`
}

// BlockKind tells the renderer how to draw a block.
type BlockKind string

const (
	BlockChart   BlockKind = "chart"
	BlockTable   BlockKind = "table"
	BlockBullets BlockKind = "bullets"
	BlockNotice  BlockKind = "notice"
)

// Block is one section of a page body.
type Block struct {
	Kind    BlockKind `json:"kind"`
	ID      string    `json:"id"`
	Heading string    `json:"heading,omitempty"`
	Figure  *Figure   `json:"figure,omitempty"`
	Table   *Table    `json:"table,omitempty"`
	Bullets []string  `json:"bullets,omitempty"`
	Notice  string    `json:"notice,omitempty"`
}

// Table is a rendered table: column names and raw cell values.
type Table struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Overview is the computed summary behind the executive pages.
type Overview struct {
	Metrics        models.OverallMetrics     `json:"metrics"`
	Alerts         []models.Alert            `json:"alerts"`
	SeverityCounts []analytics.SeverityCount `json:"severity_counts"`
}

// Recommendations are the fixed strategic bullets.
var Recommendations = []string{
	"Pause underperforming campaigns with negative ROI immediately",
	"Shift budget toward high-ROI, low-CAC channels",
	"Double down on high-conversion customer segments",
	"Run creative and targeting experiments on medium-severity campaigns",
}

var alertColumns = []string{"campaign_id", "issue", "severity", "recommendation"}

func alertTable(alerts []models.Alert) *Table {
	t := &Table{Columns: alertColumns, Rows: make([][]any, 0, len(alerts))}
	for _, a := range alerts {
		t.Rows = append(t.Rows, []any{a.CampaignID, a.Issue, string(a.Severity), a.Recommendation})
	}
	return t
}

func frameTable(f *models.Frame, rows [][]any) *Table {
	cols := []string{}
	if f != nil && f.Columns != nil {
		cols = f.Columns
	}
	if rows == nil {
		rows = [][]any{}
	}
	return &Table{Columns: cols, Rows: rows}
}

func notice(id, heading string) Block {
	return Block{Kind: BlockNotice, ID: id, Heading: heading, Notice: NoDataNotice}
}
