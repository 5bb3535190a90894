package warehouse

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"

	"github.com/radiusdt/marketing-dashboard/internal/metrics"
	"github.com/radiusdt/marketing-dashboard/internal/models"
)

// ClickHouseSource reads tables over the native ClickHouse protocol. The
// schema is the ClickHouse database holding the gold tables.
type ClickHouseSource struct {
	conn   driver.Conn
	schema string
	in     instrument
}

// NewClickHouseSource creates a source reading from schema.
func NewClickHouseSource(conn driver.Conn, schema string, timeout time.Duration, m *metrics.Metrics, logger *zap.Logger) *ClickHouseSource {
	return &ClickHouseSource{
		conn:   conn,
		schema: schema,
		in:     newInstrument(timeout, m, logger),
	}
}

// Load runs SELECT * against schema.table.
func (s *ClickHouseSource) Load(ctx context.Context, table string) (*models.Frame, error) {
	return s.in.run(ctx, table, func(ctx context.Context) (*models.Frame, error) {
		return s.load(ctx, table)
	})
}

func (s *ClickHouseSource) load(ctx context.Context, table string) (*models.Frame, error) {
	rows, err := s.conn.Query(ctx, clickhouseSelect(s.schema, table))
	if err != nil {
		return nil, &DataSourceError{Table: table, Op: "query", Err: err}
	}
	defer rows.Close()

	types := rows.ColumnTypes()
	frame := &models.Frame{
		Table:   table,
		Columns: rows.Columns(),
		Rows:    make([][]any, 0),
	}

	for rows.Next() {
		dest := make([]any, len(types))
		for i, ct := range types {
			dest[i] = reflect.New(ct.ScanType()).Interface()
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, &DataSourceError{Table: table, Op: "scan", Err: err}
		}

		row := make([]any, len(dest))
		for i, d := range dest {
			row[i] = normalize(reflect.ValueOf(d).Elem().Interface())
		}
		frame.Rows = append(frame.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &DataSourceError{Table: table, Op: "query", Err: err}
	}

	return frame, nil
}

// Ping verifies the server is reachable.
func (s *ClickHouseSource) Ping(ctx context.Context) error {
	if err := s.conn.Ping(ctx); err != nil {
		return &DataSourceError{Op: "connect", Err: err}
	}
	return nil
}

func clickhouseSelect(schema, table string) string {
	return fmt.Sprintf("SELECT * FROM %s.%s", quoteClickHouse(schema), quoteClickHouse(table))
}

func quoteClickHouse(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}
