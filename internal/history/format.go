// Package history reads and writes bar files through an in-memory DuckDB.
//
// Files hold one bar per row with the columns time, symbol, open, high, low,
// close and volume. Parquet and CSV are supported, chosen by file extension.
package history

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rxtech-lab/argo-setups/pkg/errors"
)

// Format is the on-disk encoding of a bar file.
type Format string

const (
	FormatParquet Format = "parquet"
	FormatCSV     Format = "csv"
)

// FormatOf infers the file format from the path extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet", ".pq":
		return FormatParquet, nil
	case ".csv":
		return FormatCSV, nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidParameter, "unsupported bar file extension %q", filepath.Ext(path))
	}
}

// scanExpr returns the table function DuckDB uses to read the file.
func (f Format) scanExpr(path string) string {
	if f == FormatCSV {
		return fmt.Sprintf("read_csv_auto(%s, header=true)", quote(path))
	}

	return fmt.Sprintf("read_parquet(%s)", quote(path))
}

// copyOptions returns the COPY ... TO options for the format.
func (f Format) copyOptions() string {
	if f == FormatCSV {
		return "(FORMAT CSV, HEADER)"
	}

	return "(FORMAT PARQUET)"
}

// quote renders path as a SQL string literal.
func quote(path string) string {
	return "'" + strings.ReplaceAll(path, "'", "''") + "'"
}
