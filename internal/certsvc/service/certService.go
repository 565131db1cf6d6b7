package service

import (
	"context"
	"errors"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/gautampatil/credify-services/internal/certsvc/csvdata"
	"github.com/gautampatil/credify-services/internal/certsvc/models"
)

// Store is the persistence capability the service depends on.
type Store interface {
	Insert(ctx context.Context, cert *models.Certificate) (string, error)
	FindByID(ctx context.Context, id string) (*models.Certificate, error)
	FindMany(ctx context.Context, filter map[string]string) ([]*models.Certificate, error)
	Ready() bool
}

// IssueListener is a best-effort side channel notified after a successful
// insert. Failures are logged and never affect the request that issued
// the certificate.
type IssueListener interface {
	OnIssued(ctx context.Context, cert *models.Certificate) error
}

// CertService orchestrates certificate issuing, lookups and the CSV
// import pipeline.
type CertService struct {
	store     Store
	listeners []IssueListener
}

func NewCertService(store Store, listeners ...IssueListener) *CertService {
	return &CertService{
		store:     store,
		listeners: listeners,
	}
}

// Ready reports the store connection status.
func (s *CertService) Ready() bool {
	return s.store.Ready()
}

// Issue persists a certificate and notifies the side channels.
func (s *CertService) Issue(ctx context.Context, cert *models.Certificate) (string, error) {
	id, err := s.store.Insert(ctx, cert)
	if err != nil {
		return "", err
	}

	s.notify(cert)

	return id, nil
}

// GetByID returns the certificate for id, or (nil, nil) when none matches.
func (s *CertService) GetByID(ctx context.Context, id string) (*models.Certificate, error) {
	return s.store.FindByID(ctx, id)
}

// List returns every certificate matching all pairs of filter.
func (s *CertService) List(ctx context.Context, filter map[string]string) ([]*models.Certificate, error) {
	return s.store.FindMany(ctx, filter)
}

// ImportCSV validates the uploaded file at path and, if it passes,
// imports it row by row. A rejected file is removed before the validation
// error is returned; a file whose import failed mid-stream stays on disk
// together with the rows already inserted.
func (s *CertService) ImportCSV(ctx context.Context, path string) (int, error) {
	if err := csvdata.Validate(path); err != nil {
		var verr *csvdata.ValidationError
		if errors.As(err, &verr) {
			if rmErr := os.Remove(path); rmErr != nil {
				log.Errorf("failed to remove rejected csv %s: %v", path, rmErr)
			}
		}
		return 0, err
	}

	return csvdata.NewImporter(s).Import(ctx, path)
}

func (s *CertService) notify(cert *models.Certificate) {
	for _, l := range s.listeners {
		c := *cert
		go func(l IssueListener, cert *models.Certificate) {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := l.OnIssued(ctx, cert); err != nil {
				log.Errorf("Error notifying issue listener for certificate %s: %v", cert.ID.Hex(), err)
			}
		}(l, &c)
	}
}
