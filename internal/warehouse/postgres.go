package warehouse

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/radiusdt/marketing-dashboard/internal/metrics"
	"github.com/radiusdt/marketing-dashboard/internal/models"
)

// PostgresSource reads tables through a pgx connection pool.
type PostgresSource struct {
	pool   *pgxpool.Pool
	schema string
	in     instrument
}

// NewPostgresSource creates a source reading from schema. Each load is
// bounded by timeout when it is positive.
func NewPostgresSource(pool *pgxpool.Pool, schema string, timeout time.Duration, m *metrics.Metrics, logger *zap.Logger) *PostgresSource {
	return &PostgresSource{
		pool:   pool,
		schema: schema,
		in:     newInstrument(timeout, m, logger),
	}
}

// Load runs SELECT * against schema.table.
func (s *PostgresSource) Load(ctx context.Context, table string) (*models.Frame, error) {
	return s.in.run(ctx, table, func(ctx context.Context) (*models.Frame, error) {
		return s.load(ctx, table)
	})
}

func (s *PostgresSource) load(ctx context.Context, table string) (*models.Frame, error) {
	rows, err := s.pool.Query(ctx, postgresSelect(s.schema, table))
	if err != nil {
		return nil, &DataSourceError{Table: table, Op: "query", Err: err}
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	frame := &models.Frame{
		Table:   table,
		Columns: make([]string, len(fields)),
		Rows:    make([][]any, 0),
	}
	for i, fd := range fields {
		frame.Columns[i] = fd.Name
	}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, &DataSourceError{Table: table, Op: "scan", Err: err}
		}
		row := make([]any, len(values))
		for i, v := range values {
			row[i] = normalize(v)
		}
		frame.Rows = append(frame.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &DataSourceError{Table: table, Op: "query", Err: err}
	}

	return frame, nil
}

// Ping verifies the pool can reach the server.
func (s *PostgresSource) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return &DataSourceError{Op: "connect", Err: err}
	}
	return nil
}

func postgresSelect(schema, table string) string {
	return fmt.Sprintf("SELECT * FROM %s", pgx.Identifier{schema, table}.Sanitize())
}
