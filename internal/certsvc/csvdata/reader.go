package csvdata

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Row is one CSV data row keyed by header column name.
type Row map[string]string

// String renders the row as JSON, used when a validation reason echoes
// the offending row back to the client.
func (r Row) String() string {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Sprintf("%v", map[string]string(r))
	}
	return string(b)
}

// RowReader yields the data rows of a CSV stream one at a time, keyed by
// the header columns. The sequence is finite and cannot be restarted;
// a second pass needs a new reader over a fresh stream.
type RowReader struct {
	cr     *csv.Reader
	header []string
}

// NewRowReader consumes the header row of r and prepares row iteration.
func NewRowReader(r io.Reader) (*RowReader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("csv stream has no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	header[0] = strings.TrimPrefix(header[0], "\ufeff") // strip BOM
	for i, col := range header {
		header[i] = strings.TrimSpace(col)
	}

	return &RowReader{cr: cr, header: header}, nil
}

// Header returns the column names in file order.
func (r *RowReader) Header() []string {
	return r.header
}

// Next returns the next data row, or io.EOF when the stream is exhausted.
// Short records leave the trailing columns empty.
func (r *RowReader) Next() (Row, error) {
	rec, err := r.cr.Read()
	if err != nil {
		return nil, err
	}

	row := make(Row, len(r.header))
	for i, col := range r.header {
		if i < len(rec) {
			row[col] = strings.TrimSpace(rec[i])
		} else {
			row[col] = ""
		}
	}

	return row, nil
}
