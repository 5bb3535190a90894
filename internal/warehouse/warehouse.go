// Package warehouse is the data access layer: it reads the gold aggregate
// tables from the analytics warehouse and returns them as frames.
package warehouse

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/radiusdt/marketing-dashboard/internal/metrics"
	"github.com/radiusdt/marketing-dashboard/internal/models"
)

// Tables lists the tables the dashboard reads, in load order.
var Tables = []string{
	models.TableCampaigns,
	models.TableChannels,
	models.TableSegments,
}

// Source loads one full table from the warehouse. Implementations must be
// safe for concurrent use.
type Source interface {
	// Load returns every row of table with the columns in warehouse order.
	Load(ctx context.Context, table string) (*models.Frame, error)
	// Ping verifies the warehouse is reachable.
	Ping(ctx context.Context) error
}

// Campaigns loads gold_campaign_agg.
func Campaigns(ctx context.Context, src Source) (*models.Frame, error) {
	return src.Load(ctx, models.TableCampaigns)
}

// Channels loads gold_channel_agg.
func Channels(ctx context.Context, src Source) (*models.Frame, error) {
	return src.Load(ctx, models.TableChannels)
}

// Segments loads gold_segment_agg.
func Segments(ctx context.Context, src Source) (*models.Frame, error) {
	return src.Load(ctx, models.TableSegments)
}

// DataSourceError reports a failed connection, query or scan. It is fatal
// for the current render only.
type DataSourceError struct {
	Table string
	Op    string
	Err   error
}

func (e *DataSourceError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("warehouse %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("warehouse %s %s: %v", e.Op, e.Table, e.Err)
}

func (e *DataSourceError) Unwrap() error {
	return e.Err
}

// instrument wraps a table load with the per-query timeout, metrics and logs
// shared by every backend.
type instrument struct {
	timeout time.Duration
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func newInstrument(timeout time.Duration, m *metrics.Metrics, logger *zap.Logger) instrument {
	if logger == nil {
		logger = zap.NewNop()
	}
	return instrument{timeout: timeout, metrics: m, logger: logger}
}

func (in instrument) run(ctx context.Context, table string, load func(context.Context) (*models.Frame, error)) (*models.Frame, error) {
	if in.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, in.timeout)
		defer cancel()
	}

	start := time.Now()
	frame, err := load(ctx)
	elapsed := time.Since(start)

	if in.metrics != nil {
		in.metrics.RecordQuery(table, err, elapsed, frame.Len())
	}
	if err != nil {
		in.logger.Error("warehouse load failed",
			zap.String("table", table),
			zap.Duration("duration", elapsed),
			zap.Error(err),
		)
		return nil, err
	}

	in.logger.Debug("warehouse load",
		zap.String("table", table),
		zap.Int("rows", frame.Len()),
		zap.Duration("duration", elapsed),
	)
	return frame, nil
}
