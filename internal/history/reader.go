package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-setups/internal/logger"
	"github.com/rxtech-lab/argo-setups/internal/types"
	"github.com/rxtech-lab/argo-setups/pkg/errors"
	"go.uber.org/zap"
)

// Query selects bars from a loaded file. Zero values mean no filter.
type Query struct {
	Symbol string
	From   optional.Option[time.Time]
	To     optional.Option[time.Time]
	// Limit caps the number of rows. With Latest the newest rows are kept.
	Limit  int
	Latest bool
	// Location converts timestamps after reading. Nil keeps UTC.
	Location *time.Location
}

// Reader exposes a bar file as the bars view of an in-memory DuckDB.
type Reader struct {
	db  *sql.DB
	sq  squirrel.StatementBuilderType
	log *logger.Logger
}

// NewReader opens an empty in-memory database.
func NewReader(log *logger.Logger) (*Reader, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open duckdb", err)
	}

	if log == nil {
		log = logger.NewNop()
	}

	return &Reader{
		db:  db,
		sq:  squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		log: log,
	}, nil
}

// Load points the bars view at path, replacing a previously loaded file.
func (r *Reader) Load(ctx context.Context, path string) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err != nil {
		return errors.Wrapf(errors.ErrCodeDataNotFound, err, "bar file %s not readable", path)
	}

	r.log.Debug("Loading bar file", zap.String("path", path), zap.String("format", string(format)))

	if _, err := r.db.ExecContext(ctx, `DROP VIEW IF EXISTS bars`); err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to drop bars view", err)
	}

	// squirrel has no CREATE VIEW
	stmt := fmt.Sprintf(`CREATE VIEW bars AS SELECT time, symbol, open, high, low, close, volume FROM %s`, format.scanExpr(path))
	if _, err := r.db.ExecContext(ctx, stmt); err != nil {
		return errors.Wrapf(errors.ErrCodeHistoricalDataFailed, err, "failed to load %s", path)
	}

	return nil
}

// Bars runs q against the loaded file and returns the bars in time order.
func (r *Reader) Bars(ctx context.Context, q Query) ([]types.Bar, error) {
	builder := r.sq.
		Select("time", "symbol", "open", "high", "low", "close", "volume").
		From("bars")

	if q.Symbol != "" {
		builder = builder.Where(squirrel.Eq{"symbol": q.Symbol})
	}

	if q.From.IsSome() {
		builder = builder.Where(squirrel.GtOrEq{"time": q.From.Unwrap().UTC()})
	}

	if q.To.IsSome() {
		builder = builder.Where(squirrel.LtOrEq{"time": q.To.Unwrap().UTC()})
	}

	if q.Latest {
		builder = builder.OrderBy("time DESC")
	} else {
		builder = builder.OrderBy("time ASC")
	}

	if q.Limit > 0 {
		builder = builder.Limit(uint64(q.Limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build bar query", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query bars", err)
	}
	defer rows.Close()

	bars := make([]types.Bar, 0)

	for rows.Next() {
		var bar types.Bar

		if err := rows.Scan(&bar.Time, &bar.Symbol, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan bar", err)
		}

		if q.Location != nil {
			bar.Time = bar.Time.In(q.Location)
		}

		bars = append(bars, bar)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to iterate bars", err)
	}

	if q.Latest {
		slices.Reverse(bars)
	}

	return bars, nil
}

// Close releases the database.
func (r *Reader) Close() error {
	return r.db.Close()
}

// ReadFile loads path and returns the bars matching q.
func ReadFile(ctx context.Context, path string, q Query, log *logger.Logger) ([]types.Bar, error) {
	reader, err := NewReader(log)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	if err := reader.Load(ctx, path); err != nil {
		return nil, err
	}

	return reader.Bars(ctx, q)
}
