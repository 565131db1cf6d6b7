package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gautampatil/credify-services/internal/certsvc/models"
)

// ErrInvalidID is returned when a lookup id is not a well-formed object id.
// The store is never queried in that case.
var ErrInvalidID = errors.New("invalid certificate id")

// ErrNotConnected is returned by every operation on a store whose
// connection did not complete initialization.
var ErrNotConnected = errors.New("certificate store is not connected")

// State tracks the lifecycle of the store connection. It is written once
// during New and only read afterwards.
type State int

const (
	StateConnecting State = iota
	StateReady
	StateFailed
)

type CertStore struct {
	coll  *mongo.Collection
	state State
}

// NewCertStore connects to the document database, pings it and binds the
// certificate collection. The connection is process-wide; there is no
// reconnect logic. On failure the handle is still returned, stuck in
// StateFailed, so the service keeps serving and /status reports the
// broken connection.
func NewCertStore(ctx context.Context, uri, dbName, collName string) (*CertStore, error) {
	s := &CertStore{state: StateConnecting}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		s.state = StateFailed
		return s, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		s.state = StateFailed
		return s, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	s.coll = client.Database(dbName).Collection(collName)
	s.state = StateReady

	return s, nil
}

// Ready reports whether the store connection completed initialization.
func (s *CertStore) Ready() bool {
	return s.state == StateReady
}

// Insert persists a new certificate, stamping issuedDate with the current
// time, and returns the assigned id. Repeated inserts of identical content
// create distinct records.
func (s *CertStore) Insert(ctx context.Context, cert *models.Certificate) (string, error) {
	if s.state != StateReady {
		return "", ErrNotConnected
	}

	cert.ID = primitive.NilObjectID
	cert.IssuedDate = time.Now()

	res, err := s.coll.InsertOne(ctx, cert)
	if err != nil {
		return "", fmt.Errorf("failed to insert certificate: %w", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	cert.ID = oid

	return oid.Hex(), nil
}

// FindByID looks a certificate up by its assigned id. It returns
// ErrInvalidID for a malformed id and (nil, nil) when no record matches.
func (s *CertStore) FindByID(ctx context.Context, id string) (*models.Certificate, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	if s.state != StateReady {
		return nil, ErrNotConnected
	}

	cert := &models.Certificate{}
	err = s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(cert)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil // certificate not found
		}
		return nil, fmt.Errorf("failed to find certificate: %w", err)
	}

	return cert, nil
}

// FindMany returns every certificate matching all key/value pairs in
// filter. An empty slice, not an error, when nothing matches.
func (s *CertStore) FindMany(ctx context.Context, filter map[string]string) ([]*models.Certificate, error) {
	if s.state != StateReady {
		return nil, ErrNotConnected
	}

	query := bson.M{}
	for k, v := range filter {
		query[k] = v
	}

	cur, err := s.coll.Find(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to find certificates: %w", err)
	}
	defer cur.Close(ctx)

	certs := []*models.Certificate{}
	if err := cur.All(ctx, &certs); err != nil {
		return nil, fmt.Errorf("failed to decode certificates: %w", err)
	}

	return certs, nil
}
