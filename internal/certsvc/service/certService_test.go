package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/gautampatil/credify-services/internal/certsvc/csvdata"
	"github.com/gautampatil/credify-services/internal/certsvc/models"
)

type memStore struct {
	certs     map[string]*models.Certificate
	ready     bool
	insertErr error
}

func newMemStore() *memStore {
	return &memStore{certs: map[string]*models.Certificate{}, ready: true}
}

func (m *memStore) Insert(ctx context.Context, cert *models.Certificate) (string, error) {
	if m.insertErr != nil {
		return "", m.insertErr
	}
	cert.ID = primitive.NewObjectID()
	cert.IssuedDate = time.Now()
	m.certs[cert.ID.Hex()] = cert
	return cert.ID.Hex(), nil
}

func (m *memStore) FindByID(ctx context.Context, id string) (*models.Certificate, error) {
	if !primitive.IsValidObjectID(id) {
		return nil, errors.New("invalid certificate id")
	}
	return m.certs[id], nil
}

func (m *memStore) FindMany(ctx context.Context, filter map[string]string) ([]*models.Certificate, error) {
	out := []*models.Certificate{}
	for _, c := range m.certs {
		if filter["event_club"] != "" && c.EventClub != filter["event_club"] {
			continue
		}
		if filter["event_name"] != "" && c.EventName != filter["event_name"] {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *memStore) Ready() bool { return m.ready }

type recordingListener struct {
	got chan *models.Certificate
	err error
}

func (l *recordingListener) OnIssued(ctx context.Context, cert *models.Certificate) error {
	l.got <- cert
	return l.err
}

func TestIssueNotifiesListeners(t *testing.T) {
	st := newMemStore()
	failing := &recordingListener{got: make(chan *models.Certificate, 1), err: errors.New("smtp down")}
	healthy := &recordingListener{got: make(chan *models.Certificate, 1)}
	svc := NewCertService(st, failing, healthy)

	cert := &models.Certificate{
		Name:             "Abebe",
		Email:            "abebe@example.com",
		EventName:        "GoConf",
		EventDescription: "desc",
		EventDate:        "2025-11-02",
	}

	id, err := svc.Issue(context.Background(), cert)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if _, ok := st.certs[id]; !ok {
		t.Fatalf("certificate %s not persisted", id)
	}

	for _, l := range []*recordingListener{failing, healthy} {
		select {
		case got := <-l.got:
			if got.ID.Hex() != id {
				t.Errorf("listener saw certificate %s, want %s", got.ID.Hex(), id)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("listener was not notified")
		}
	}
}

func TestIssueStoreFailureSkipsListeners(t *testing.T) {
	st := newMemStore()
	st.insertErr = errors.New("write rejected")
	l := &recordingListener{got: make(chan *models.Certificate, 1)}
	svc := NewCertService(st, l)

	if _, err := svc.Issue(context.Background(), &models.Certificate{Name: "x"}); err == nil {
		t.Fatal("expected insert error")
	}

	select {
	case <-l.got:
		t.Error("listener must not be notified on insert failure")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestImportCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "upload.csv")
	content := "name,email,event_name,event_description,event_date\n" +
		"Abebe,abebe@example.com,GoConf,desc,2025-11-02\n" +
		"Sara,sara@example.com,GoConf,desc,2025-11-02\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	st := newMemStore()
	svc := NewCertService(st)

	n, err := svc.ImportCSV(context.Background(), path)
	if err != nil {
		t.Fatalf("ImportCSV() error = %v", err)
	}
	if n != 2 || len(st.certs) != 2 {
		t.Errorf("ImportCSV() inserted %d rows, want 2", n)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("source file should be removed, stat err = %v", err)
	}
}

func TestImportCSVRemovesRejectedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "upload.csv")
	if err := os.WriteFile(path, []byte("name,foo\nAbebe,x\n"), 0644); err != nil {
		t.Fatal(err)
	}

	svc := NewCertService(newMemStore())

	_, err := svc.ImportCSV(context.Background(), path)
	var verr *csvdata.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("ImportCSV() error = %v, want ValidationError", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("rejected file should be removed, stat err = %v", err)
	}
}
