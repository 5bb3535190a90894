package dashboard

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/radiusdt/marketing-dashboard/internal/models"
)

// NoData replaces a metric that has no defined value.
const NoData = "No data"

// NoDataNotice replaces a chart or table built from an empty table.
const NoDataNotice = "No data available"

const timestampLayout = "2006-01-02 15:04"

var printer = message.NewPrinter(language.English)

// Percent formats a fraction as a percentage with two decimals: 0.1234 is
// "12.34%".
func Percent(s models.Stat[float64]) string {
	if !s.Valid || !finite(s.Value) {
		return NoData
	}
	return fmt.Sprintf("%.2f%%", s.Value*100)
}

// Currency formats a dollar amount with two decimals.
func Currency(s models.Stat[float64]) string {
	if !s.Valid || !finite(s.Value) {
		return NoData
	}
	return fmt.Sprintf("$%.2f", s.Value)
}

// ROI formats a value already expressed in percent with one decimal.
func ROI(s models.Stat[float64]) string {
	if !s.Valid || !finite(s.Value) {
		return NoData
	}
	return fmt.Sprintf("%.1f%%", s.Value)
}

// Count formats an integer with thousands separators.
func Count(s models.Stat[int64]) string {
	if !s.Valid {
		return NoData
	}
	return printer.Sprintf("%d", s.Value)
}

// stat wraps a possibly-NaN float.
func stat(f float64) models.Stat[float64] {
	if math.IsNaN(f) {
		return models.Stat[float64]{}
	}
	return models.Some(f)
}

// Cell renders a table cell for display.
func Cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		if !finite(x) {
			return ""
		}
		s := strconv.FormatFloat(x, 'f', 4, 64)
		s = strings.TrimRight(s, "0")
		return strings.TrimSuffix(s, ".")
	case time.Time:
		return x.Format("2006-01-02 15:04:05")
	default:
		return models.Text(x)
	}
}

// Timestamp formats t the way page footers show it.
func Timestamp(t time.Time) string {
	return t.Format(timestampLayout)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
