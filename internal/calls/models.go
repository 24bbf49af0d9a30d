package calls

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Call is one provider call leg, keyed by the provider's call SID.
//
// Ordering invariant: a status callback is applied only when its sequence
// number is above LastSequence or, for callbacks without one, when its
// timestamp is not older than LastEventAt.
//
// Money invariant reminder: charging references the call SID in the wallet
// ledger rather than mutating money fields here; Cost is informational.
type Call struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID     string             `json:"userId" bson:"userId"`
	CampaignID string             `json:"campaignId,omitempty" bson:"campaignId,omitempty"`
	CallSid    string             `json:"callSid" bson:"callSid"`
	Direction  Direction          `json:"direction" bson:"direction"`

	From string `json:"from" bson:"from"`
	To   string `json:"to" bson:"to"`

	Status CallStatus `json:"status" bson:"status"`

	// Action is the inbound routing decision (connect, voicemail, reject).
	Action string `json:"action,omitempty" bson:"action,omitempty"`

	// Duration is the call duration in seconds.
	DurationSeconds int   `json:"duration" bson:"duration"`
	Cost            int64 `json:"cost" bson:"cost"`

	RecordingURL        string `json:"recordingUrl,omitempty" bson:"recordingUrl,omitempty"`
	TranscriptionText   string `json:"transcriptionText,omitempty" bson:"transcriptionText,omitempty"`
	TranscriptionStatus string `json:"transcriptionStatus,omitempty" bson:"transcriptionStatus,omitempty"`

	LastSequence int       `json:"-" bson:"lastSequence"`
	LastEventAt  time.Time `json:"-" bson:"lastEventAt"`

	CreatedAt time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt" bson:"updatedAt"`
	EndedAt   *time.Time `json:"endedAt,omitempty" bson:"endedAt,omitempty"`
}

// Recording is a finished call recording and, once ready, its transcription.
type Recording struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID       string             `json:"userId" bson:"userId"`
	CallSid      string             `json:"callSid" bson:"callSid"`
	RecordingSid string             `json:"recordingSid" bson:"recordingSid"`
	URL          string             `json:"url" bson:"url"`

	DurationSeconds int `json:"duration" bson:"duration"`

	TranscriptionSid    string `json:"transcriptionSid,omitempty" bson:"transcriptionSid,omitempty"`
	TranscriptionText   string `json:"transcriptionText,omitempty" bson:"transcriptionText,omitempty"`
	TranscriptionStatus string `json:"transcriptionStatus,omitempty" bson:"transcriptionStatus,omitempty"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

type Direction string

const (
	DirectionOutbound Direction = "outbound"
	DirectionInbound  Direction = "inbound"
)

type CallStatus string

const (
	CallStatusQueued     CallStatus = "queued"
	CallStatusInitiated  CallStatus = "initiated"
	CallStatusRinging    CallStatus = "ringing"
	CallStatusInProgress CallStatus = "in-progress"
	CallStatusCompleted  CallStatus = "completed"
	CallStatusFailed     CallStatus = "failed"
	CallStatusNoAnswer   CallStatus = "no-answer"
	CallStatusBusy       CallStatus = "busy"
	CallStatusCanceled   CallStatus = "canceled"
)

// ParseStatus maps provider status strings onto CallStatus. "answered" is
// reported as in-progress.
func ParseStatus(s string) (CallStatus, bool) {
	s = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	if s == "answered" {
		return CallStatusInProgress, true
	}
	switch st := CallStatus(s); st {
	case CallStatusQueued, CallStatusInitiated, CallStatusRinging, CallStatusInProgress,
		CallStatusCompleted, CallStatusFailed, CallStatusNoAnswer, CallStatusBusy, CallStatusCanceled:
		return st, true
	default:
		return "", false
	}
}

func (s CallStatus) Terminal() bool {
	switch s {
	case CallStatusCompleted, CallStatusFailed, CallStatusNoAnswer, CallStatusBusy, CallStatusCanceled:
		return true
	default:
		return false
	}
}
