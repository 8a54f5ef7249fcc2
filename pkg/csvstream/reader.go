// Package csvstream reads delimited batch files incrementally, emitting one
// header-mapped record per row. Rows with a field count different from the
// header are emitted as-is; deciding what to do with them is the consumer's
// job, not this package's.
package csvstream

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Row maps column names from the header line to the row's string values.
type Row map[string]string

// Get returns the value for column, or "" when the row does not carry it.
func (r Row) Get(column string) string {
	return r[column]
}

// Reader streams rows from a delimited text source. It never loads the whole
// file into memory; rows are produced one at a time in file order.
type Reader struct {
	csv    *csv.Reader
	header []string
}

// NewReader wraps src and consumes its header line. The delimiter is
// configurable so both comma and semicolon shaped files are supported.
func NewReader(src io.Reader, delimiter rune) (*Reader, error) {
	cr := csv.NewReader(src)
	cr.Comma = delimiter
	// Rows with the wrong column count flow through to the consumer.
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("stream has no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read stream header: %w", err)
	}

	if len(header) > 0 {
		// Strip a UTF-8 BOM so the first column name matches lookups.
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}

	return &Reader{csv: cr, header: header}, nil
}

// Header returns the column names in file order.
func (r *Reader) Header() []string {
	return r.header
}

// Next returns the next row, io.EOF at end of input, or a wrapped error when
// the source is unreadable or truncated mid-record. The reader is not
// restartable; re-open the source to read again.
func (r *Reader) Next() (Row, error) {
	record, err := r.csv.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read stream row: %w", err)
	}

	row := make(Row, len(r.header))
	for i, name := range r.header {
		if i < len(record) {
			row[name] = record[i]
		}
	}
	// Extra unnamed fields are dropped; short rows simply leave columns unset.
	return row, nil
}

// ForEach drains the stream calling fn for every row, stopping on the first
// error. A fn error aborts iteration and is returned unchanged.
func (r *Reader) ForEach(fn func(Row) error) error {
	for {
		row, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(row); err != nil {
			return err
		}
	}
}
