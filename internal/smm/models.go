package smm

import (
	"encoding/json"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PanelService is one entry of the panel's services list.
type PanelService struct {
	ID       json.Number `json:"service"`
	Name     string      `json:"name"`
	Type     string      `json:"type"`
	Category string      `json:"category"`
	// Rate is the panel price per 1000 units; panels send it as a string
	// or a number.
	Rate   json.Number `json:"rate"`
	Min    json.Number `json:"min"`
	Max    json.Number `json:"max"`
	Refill bool        `json:"refill"`
	Cancel bool        `json:"cancel"`
}

// PanelStatus is the panel's view of a placed order.
type PanelStatus struct {
	Charge     string      `json:"charge"`
	StartCount json.Number `json:"start_count"`
	Status     string      `json:"status"`
	Remains    json.Number `json:"remains"`
	Currency   string      `json:"currency"`
}

// Order is a social-growth order placed on behalf of a user. Cost is what the
// user was charged, in minor units.
type Order struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID       string             `json:"userId" bson:"userId"`
	PanelOrderID string             `json:"panelOrderId" bson:"panelOrderId"`

	Service  string `json:"service" bson:"service"`
	Link     string `json:"link" bson:"link"`
	Quantity int64  `json:"quantity" bson:"quantity"`
	Cost     int64  `json:"cost" bson:"cost"`

	Status     OrderStatus `json:"status" bson:"status"`
	Remains    int64       `json:"remains" bson:"remains"`
	StartCount int64       `json:"startCount" bson:"startCount"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusInProgress OrderStatus = "in_progress"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusPartial    OrderStatus = "partial"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCanceled   OrderStatus = "canceled"
)

// normalizeStatus maps panel wording ("In progress", "Canceled") onto
// OrderStatus.
func normalizeStatus(s string) OrderStatus {
	switch s {
	case "Pending", "pending":
		return OrderStatusPending
	case "In progress", "In Progress", "in progress", "in_progress":
		return OrderStatusInProgress
	case "Processing", "processing":
		return OrderStatusProcessing
	case "Partial", "partial":
		return OrderStatusPartial
	case "Completed", "completed":
		return OrderStatusCompleted
	case "Canceled", "Cancelled", "canceled", "cancelled":
		return OrderStatusCanceled
	default:
		return OrderStatusPending
	}
}
