package warehouse

import (
	"context"
	"errors"
	"math"
	"math/big"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radiusdt/marketing-dashboard/internal/metrics"
	"github.com/radiusdt/marketing-dashboard/internal/models"
)

type decimalLike float64

func (d decimalLike) Float64() (float64, bool) { return float64(d), true }

func TestNormalize(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	f := 0.25
	var nilFloat *float64
	dec := decimal.RequireFromString("19.99")
	var nilDecimal *decimal.Decimal
	var nilTime *time.Time

	tests := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"int32", int32(7), int64(7)},
		{"uint16", uint16(9), int64(9)},
		{"float32", float32(0.5), 0.5},
		{"nan", math.NaN(), nil},
		{"inf", math.Inf(1), nil},
		{"bytes", []byte("Email"), "Email"},
		{"time", ts, ts},
		{"pg uuid", [16]byte(id), id.String()},
		{"numeric", pgtype.Numeric{Int: big.NewInt(1234), Exp: -2, Valid: true}, 12.34},
		{"null numeric", pgtype.Numeric{}, nil},
		{"decimal", decimalLike(3.5), 3.5},
		{"nullable set", &f, 0.25},
		{"nullable null", nilFloat, nil},
		{"nullable decimal", &dec, 19.99},
		{"nullable decimal null", nilDecimal, nil},
		{"nullable time", &ts, ts},
		{"nullable time null", nilTime, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalize(tt.in)
			if want, ok := tt.want.(float64); ok {
				require.IsType(t, float64(0), got)
				assert.InDelta(t, want, got.(float64), 1e-9)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSelectStatementsQuoteIdentifiers(t *testing.T) {
	assert.Equal(t, `SELECT * FROM "marketing_gold"."gold_campaign_agg"`, postgresSelect("marketing_gold", models.TableCampaigns))
	assert.Equal(t, "SELECT * FROM `marketing_gold`.`gold_channel_agg`", clickhouseSelect("marketing_gold", models.TableChannels))
	assert.Equal(t, "`a``b`", quoteClickHouse("a`b"))
}

func TestDataSourceErrorUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	var err error = &DataSourceError{Table: models.TableSegments, Op: "query", Err: cause}

	assert.ErrorIs(t, err, cause)
	var dsErr *DataSourceError
	require.ErrorAs(t, err, &dsErr)
	assert.Equal(t, "warehouse query gold_segment_agg: connection refused", err.Error())

	ping := &DataSourceError{Op: "connect", Err: cause}
	assert.Equal(t, "warehouse connect: connection refused", ping.Error())
}

func TestInstrumentRecordsQueries(t *testing.T) {
	m := metrics.NewMetrics("test", prometheus.NewRegistry())
	in := newInstrument(time.Second, m, zap.NewNop())

	frame, err := in.run(context.Background(), "t", func(ctx context.Context) (*models.Frame, error) {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		return &models.Frame{Table: "t", Columns: []string{"a"}, Rows: [][]any{{int64(1)}, {int64(2)}}}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, frame.Len())
	assert.Equal(t, 2.0, testutil.ToFloat64(m.WarehouseRows.WithLabelValues("t")))

	_, err = in.run(context.Background(), "t", func(ctx context.Context) (*models.Frame, error) {
		return nil, &DataSourceError{Table: "t", Op: "query", Err: errors.New("boom")}
	})
	require.Error(t, err)
	assert.Equal(t, 2, testutil.CollectAndCount(m.QueryDuration))
}

func TestMemorySource(t *testing.T) {
	ctx := context.Background()
	src := NewMemorySource(&models.Frame{
		Table:   models.TableCampaigns,
		Columns: []string{models.ColCampaignID},
		Rows:    [][]any{{"c1"}},
	})

	f, err := Campaigns(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, 1, f.Len())

	// returned frames are copies
	f.Rows[0][0] = "mutated"
	again, err := Campaigns(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, "c1", again.Rows[0][0])
	assert.Equal(t, 2, src.Loads(models.TableCampaigns))

	empty, err := Channels(ctx, src)
	require.NoError(t, err)
	assert.True(t, empty.Empty())

	src.Fail(errors.New("down"))
	_, err = Segments(ctx, src)
	var dsErr *DataSourceError
	require.ErrorAs(t, err, &dsErr)
	assert.Equal(t, models.TableSegments, dsErr.Table)
	assert.Error(t, src.Ping(ctx))

	src.Fail(nil)
	assert.NoError(t, src.Ping(ctx))
}
