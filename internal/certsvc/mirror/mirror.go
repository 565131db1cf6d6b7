package mirror

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gautampatil/credify-services/internal/certsvc/models"
)

// Mirror copies issued certificates into a relational table. It is a
// best-effort side channel; a failed mirror write never fails the request
// that issued the certificate.
type Mirror struct {
	db *pgxpool.Pool
}

// Connect initializes the connection pool
func Connect(dsn string) (*Mirror, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}

	// Try pinging to make sure it's valid
	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	return &Mirror{db: pool}, nil
}

// EnsureSchema creates the mirror table when it does not exist yet.
func (m *Mirror) EnsureSchema(ctx context.Context) error {
	query := `
        CREATE TABLE IF NOT EXISTS certificates (
            cert_id           text PRIMARY KEY,
            name              text NOT NULL,
            email             text NOT NULL,
            event_name        text NOT NULL,
            event_description text NOT NULL,
            event_date        text NOT NULL,
            event_club        text,
            event_branch      text,
            issued_date       timestamptz NOT NULL
        );
    `

	if _, err := m.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("could not create certificates table: %w", err)
	}

	return nil
}

// OnIssued writes one mirror row for the issued certificate.
func (m *Mirror) OnIssued(ctx context.Context, cert *models.Certificate) error {
	query := `
        INSERT INTO certificates (cert_id, name, email, event_name, event_description, event_date, event_club, event_branch, issued_date)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
    `

	_, err := m.db.Exec(ctx, query,
		cert.ID.Hex(),
		cert.Name,
		cert.Email,
		cert.EventName,
		cert.EventDescription,
		cert.EventDate,
		cert.EventClub,
		cert.EventBranch,
		cert.IssuedDate,
	)
	if err != nil {
		return fmt.Errorf("could not mirror certificate %s: %w", cert.ID.Hex(), err)
	}

	return nil
}

// Close is for graceful shutdown
func (m *Mirror) Close() {
	if m.db != nil {
		m.db.Close()
	}
}
