package history

import (
	"database/sql"
	"fmt"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-setups/internal/logger"
	"github.com/rxtech-lab/argo-setups/internal/types"
	"github.com/rxtech-lab/argo-setups/pkg/errors"
	"go.uber.org/zap"
)

// Writer buffers bars in an in-memory table and exports them on Finalize.
// Call Initialize before Write and always Close.
type Writer struct {
	db         *sql.DB
	tx         *sql.Tx
	stmt       *sql.Stmt
	outputPath string
	format     Format
	count      int
	log        *logger.Logger
}

// NewWriter creates a writer for outputPath. The extension selects the format.
func NewWriter(outputPath string, log *logger.Logger) (*Writer, error) {
	format, err := FormatOf(outputPath)
	if err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.NewNop()
	}

	return &Writer{
		db:         nil,
		tx:         nil,
		stmt:       nil,
		outputPath: outputPath,
		format:     format,
		count:      0,
		log:        log,
	}, nil
}

// Initialize creates the table and prepares the insert statement inside a transaction.
func (w *Writer) Initialize() (err error) {
	w.db, err = sql.Open("duckdb", "")
	if err != nil {
		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to open duckdb", err)
	}

	_, err = w.db.Exec(`
		CREATE TABLE bars (
			time TIMESTAMP,
			symbol TEXT,
			open DOUBLE,
			high DOUBLE,
			low DOUBLE,
			close DOUBLE,
			volume DOUBLE
		)
	`)
	if err != nil {
		w.db.Close()

		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to create table", err)
	}

	w.tx, err = w.db.Begin()
	if err != nil {
		w.db.Close()

		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to begin transaction", err)
	}

	w.stmt, err = w.tx.Prepare(`
		INSERT INTO bars (time, symbol, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		w.tx.Rollback()
		w.db.Close()

		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to prepare statement", err)
	}

	return nil
}

// Write appends one bar.
func (w *Writer) Write(bar types.Bar) error {
	if w.stmt == nil {
		return errors.New(errors.ErrCodeMarketDataWriteFailed, "writer not initialized")
	}

	_, err := w.stmt.Exec(bar.Time.UTC(), bar.Symbol, bar.Open, bar.High, bar.Low, bar.Close, bar.Volume)
	if err != nil {
		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to insert bar", err)
	}

	w.count++

	return nil
}

// Count returns the number of bars written so far.
func (w *Writer) Count() int {
	return w.count
}

// OutputPath returns the destination file.
func (w *Writer) OutputPath() string {
	return w.outputPath
}

// Finalize commits the buffered bars and exports them ordered by time.
func (w *Writer) Finalize() (string, error) {
	if w.tx == nil {
		return "", errors.New(errors.ErrCodeMarketDataWriteFailed, "writer not initialized")
	}

	if err := w.stmt.Close(); err != nil {
		w.log.Warn("Failed to close insert statement", zap.Error(err))
	}

	w.stmt = nil

	if err := w.tx.Commit(); err != nil {
		w.tx.Rollback()
		w.tx = nil

		return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to commit bars", err)
	}

	w.tx = nil

	stmt := fmt.Sprintf(`COPY (SELECT * FROM bars ORDER BY time) TO %s %s`, quote(w.outputPath), w.format.copyOptions())
	if _, err := w.db.Exec(stmt); err != nil {
		return "", errors.Wrapf(errors.ErrCodeMarketDataWriteFailed, err, "failed to export %s", w.outputPath)
	}

	w.log.Info("Exported bars", zap.String("path", w.outputPath), zap.Int("count", w.count))

	return w.outputPath, nil
}

// Close releases the statement, rolls back an open transaction and closes the database.
func (w *Writer) Close() error {
	var firstErr error

	if w.stmt != nil {
		if err := w.stmt.Close(); err != nil {
			firstErr = err
		}

		w.stmt = nil
	}

	if w.tx != nil {
		if err := w.tx.Rollback(); err != nil {
			w.log.Warn("Failed to roll back transaction during close", zap.Error(err))
		}

		w.tx = nil
	}

	if w.db != nil {
		if err := w.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}

		w.db = nil
	}

	if firstErr != nil {
		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to close writer", firstErr)
	}

	return nil
}

// WriteFile writes bars to path in one go.
func WriteFile(path string, bars []types.Bar, log *logger.Logger) error {
	w, err := NewWriter(path, log)
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Initialize(); err != nil {
		return err
	}

	for _, bar := range bars {
		if err := w.Write(bar); err != nil {
			return err
		}
	}

	_, err = w.Finalize()

	return err
}
