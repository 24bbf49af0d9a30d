package audit

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event is an immutable, append-only audit log record.
//
// Invariants:
//   - Events are never updated or deleted.
//   - UserID (the account the action affected) is required.
//   - Actor and IP capture are best-effort; do not block critical flows on audit failures.
type Event struct {
	ID     primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID string             `json:"userId" bson:"userId"`

	// Type indicates the business category of the audit record.
	Type EventType `json:"type" bson:"type"`

	ActorUserID string `json:"actorUserId,omitempty" bson:"actorUserId,omitempty"`
	ActorRole   string `json:"actorRole,omitempty" bson:"actorRole,omitempty"`
	IPAddress   string `json:"ipAddress,omitempty" bson:"ipAddress,omitempty"`

	// Target identifiers (optional, depending on the event type).
	TransactionID string `json:"transactionId,omitempty" bson:"transactionId,omitempty"`
	CampaignID    string `json:"campaignId,omitempty" bson:"campaignId,omitempty"`
	ContactID     string `json:"contactId,omitempty" bson:"contactId,omitempty"`

	Message string `json:"message,omitempty" bson:"message,omitempty"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

type EventType string

const (
	EventTypeAdminCredit     EventType = "admin_credit"
	EventTypeCampaignDeleted EventType = "campaign_deleted"
	EventTypeContactDeleted  EventType = "contact_deleted"
)
