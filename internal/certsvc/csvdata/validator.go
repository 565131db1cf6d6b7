package csvdata

import (
	"fmt"
	"io"
	"os"

	"github.com/gautampatil/credify-services/internal/certsvc/models"
)

// ValidationError reports why a CSV file was rejected. It is always safe
// to echo to the client.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Validate streams the CSV file at path once and checks its column
// contract: every required column present, no column outside the allowed
// set, every required value non-empty on every data row. The first
// violation decides the outcome; the remaining stream is still drained so
// the file is fully consumed before the caller responds. Underlying read
// errors are returned wrapped, not as a ValidationError.
func Validate(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open csv file: %w", err)
	}
	defer f.Close()

	rr, err := NewRowReader(f)
	if err != nil {
		return &ValidationError{Reason: err.Error()}
	}

	if err := validateHeader(rr.Header()); err != nil {
		return err
	}

	var violation *ValidationError
	for {
		row, err := rr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read csv file: %w", err)
		}
		if violation != nil {
			continue // drain the remaining stream, outcome stays failed
		}

		for _, col := range models.RequiredFields {
			if row[col] == "" {
				violation = &ValidationError{
					Reason: fmt.Sprintf("missing value in column '%s' for row: %s", col, row),
				}
				break
			}
		}
	}

	if violation != nil {
		return violation
	}
	return nil
}

func validateHeader(header []string) error {
	present := make(map[string]bool, len(header))
	for _, col := range header {
		present[col] = true
	}

	for _, col := range models.RequiredFields {
		if !present[col] {
			return &ValidationError{Reason: fmt.Sprintf("missing required column: %s", col)}
		}
	}

	for _, col := range header {
		if !models.AllowedField(col) {
			return &ValidationError{Reason: fmt.Sprintf("unexpected column: %s", col)}
		}
	}

	return nil
}
