package broker

import (
	"context"
	"encoding/json"
	"os"

	"github.com/nats-io/nats.go"

	"github.com/gautampatil/credify-services/internal/certsvc/models"
)

// SubjectCertIssued carries one JSON-encoded certificate per issued record.
const SubjectCertIssued = "cert.issued"

type Broker struct {
	Url   string
	Token string
	Conn  *nats.Conn
}

func Connect() (*Broker, error) {
	b := &Broker{
		Url:   os.Getenv("NATS_URL"),
		Token: os.Getenv("NATS_TOKEN"),
	}

	if b.Url == "" {
		b.Url = "nats://localhost:4224"
	}

	opts := []nats.Option{
		nats.Name("NATS Connection"),
	}

	// if token provided
	if b.Token != "" {
		opts = append(opts, nats.Token(b.Token))
	}

	conn, err := nats.Connect(b.Url, opts...)
	if err != nil {
		return nil, err
	}

	b.Conn = conn

	return b, nil
}

// OnIssued publishes the issued certificate for downstream consumers.
func (b *Broker) OnIssued(ctx context.Context, cert *models.Certificate) error {
	data, err := json.Marshal(cert)
	if err != nil {
		return err
	}

	return b.Conn.Publish(SubjectCertIssued, data)
}
