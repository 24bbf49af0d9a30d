package contacts

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Contact is an addressable person owned by one user. Contacts are never
// hard-deleted; Status moves to deleted instead.
type Contact struct {
	ID     primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID string             `json:"userId" bson:"userId"`

	Name  string   `json:"name" bson:"name"`
	Email string   `json:"email,omitempty" bson:"email,omitempty"`
	Phone string   `json:"phone,omitempty" bson:"phone,omitempty"`
	Group string   `json:"group,omitempty" bson:"group,omitempty"`
	Tags  []string `json:"tags,omitempty" bson:"tags,omitempty"`

	Status Status `json:"status" bson:"status"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

type Status string

const (
	StatusActive  Status = "active"
	StatusDeleted Status = "deleted"
)

// Recipient is the snapshot of a contact a campaign is sent to.
type Recipient struct {
	ContactID string `json:"contactId" bson:"contactId"`
	Name      string `json:"name" bson:"name"`
	Address   string `json:"address" bson:"address"`
}
