package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Certificate represents one issued event certificate document.
type Certificate struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name             string             `bson:"name" json:"name"`
	Email            string             `bson:"email" json:"email"`
	EventName        string             `bson:"event_name" json:"event_name"`
	EventDescription string             `bson:"event_description" json:"event_description"`
	EventDate        string             `bson:"event_date" json:"event_date"`
	EventClub        string             `bson:"event_club,omitempty" json:"event_club,omitempty"`
	EventBranch      string             `bson:"event_branch,omitempty" json:"event_branch,omitempty"`
	IssuedDate       time.Time          `bson:"issuedDate" json:"issuedDate"`
}

// RequiredFields must be present and non-empty on every certificate,
// whether it arrives as a request body or a CSV row.
var RequiredFields = []string{
	"name",
	"email",
	"event_name",
	"event_description",
	"event_date",
}

// OptionalFields may be absent or empty.
var OptionalFields = []string{
	"event_club",
	"event_branch",
}

// AllowedField reports whether name is part of the certificate field set.
func AllowedField(name string) bool {
	for _, f := range RequiredFields {
		if f == name {
			return true
		}
	}
	for _, f := range OptionalFields {
		if f == name {
			return true
		}
	}
	return false
}

// FromFields builds a certificate from client-supplied field values.
// Every required field must be non-empty and no field may fall outside
// the allowed set; the returned error names the offending field.
func FromFields(fields map[string]string) (*Certificate, error) {
	for name := range fields {
		if !AllowedField(name) {
			return nil, fmt.Errorf("unexpected field: %s", name)
		}
	}

	for _, name := range RequiredFields {
		if fields[name] == "" {
			return nil, fmt.Errorf("missing required field: %s", name)
		}
	}

	return &Certificate{
		Name:             fields["name"],
		Email:            fields["email"],
		EventName:        fields["event_name"],
		EventDescription: fields["event_description"],
		EventDate:        fields["event_date"],
		EventClub:        fields["event_club"],
		EventBranch:      fields["event_branch"],
	}, nil
}
