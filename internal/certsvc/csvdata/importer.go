package csvdata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gautampatil/credify-services/internal/certsvc/models"
)

// ErrCleanup marks a source file that could not be removed after all of
// its rows were inserted. The data is persisted; only the cleanup failed.
var ErrCleanup = errors.New("failed to remove csv file after import")

// Issuer persists one certificate and returns its assigned id.
type Issuer interface {
	Issue(ctx context.Context, cert *models.Certificate) (string, error)
}

// Importer streams a validated CSV file and issues one certificate per
// data row.
type Importer struct {
	issuer Issuer
}

func NewImporter(issuer Issuer) *Importer {
	return &Importer{issuer: issuer}
}

// Import inserts the rows of the file at path in row order and returns
// how many were inserted. The first failed insert aborts the remaining
// rows; rows already inserted stay (no rollback). The source file is
// removed only after every row was inserted, and a removal failure is
// reported as ErrCleanup, distinct from an import failure.
func (im *Importer) Import(ctx context.Context, path string) (int, error) {
	inserted, err := im.importRows(ctx, path)
	if err != nil {
		return inserted, err
	}

	if err := os.Remove(path); err != nil {
		return inserted, fmt.Errorf("%w: %v", ErrCleanup, err)
	}

	return inserted, nil
}

func (im *Importer) importRows(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open csv file: %w", err)
	}
	defer f.Close()

	rr, err := NewRowReader(f)
	if err != nil {
		return 0, err
	}

	inserted := 0
	for {
		row, err := rr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return inserted, fmt.Errorf("failed to read csv file: %w", err)
		}

		cert, err := models.FromFields(row)
		if err != nil {
			return inserted, fmt.Errorf("row %d: %w", inserted+1, err)
		}

		if _, err := im.issuer.Issue(ctx, cert); err != nil {
			return inserted, fmt.Errorf("failed to insert row %d: %w", inserted+1, err)
		}
		inserted++
	}

	return inserted, nil
}
