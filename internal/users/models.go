package users

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an account holder. Balance is the prepaid wallet in minor units and
// is only mutated through the wallet package, which writes a Transaction for
// every change.
type User struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name         string             `json:"name" bson:"name"`
	Email        string             `json:"email" bson:"email"`
	PasswordHash string             `json:"-" bson:"passwordHash"`
	Plan         Plan               `json:"plan" bson:"plan"`
	Role         string             `json:"role" bson:"role"`

	Balance  int64  `json:"balance" bson:"balance"`
	Currency string `json:"currency" bson:"currency"`

	// PhoneNumbers are provider numbers owned by the user; inbound calls to
	// them are routed with the user's ForwardNumbers.
	PhoneNumbers   []string        `json:"phoneNumbers" bson:"phoneNumbers"`
	ForwardNumbers []ForwardNumber `json:"forwardNumbers" bson:"forwardNumbers"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// ForwardNumber is a weighted destination for inbound calls. Number is E.164
// or a sip: URI.
type ForwardNumber struct {
	Number string `json:"number" bson:"number"`
	Weight int    `json:"weight" bson:"weight"`
}

type Plan string

const (
	PlanFree       Plan = "free"
	PlanStarter    Plan = "starter"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

func (p Plan) Valid() bool {
	switch p {
	case PlanFree, PlanStarter, PlanPro, PlanEnterprise:
		return true
	default:
		return false
	}
}
