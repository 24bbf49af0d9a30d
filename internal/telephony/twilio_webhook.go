package telephony

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Twilio posts application/x-www-form-urlencoded callbacks.
// Ref: https://www.twilio.com/docs/voice/twiml
//
// Parsers only translate the form; decisions are made by callers.

type TwilioInboundForm struct {
	CallSid       string
	AccountSid    string
	From          string
	To            string
	Direction     string
	CallStatus    string
	CallerName    string
	FromCountry   string
	ToCountry     string
	ForwardedFrom string
}

func ParseTwilioInboundCall(r *http.Request) (TwilioInboundForm, error) {
	if err := r.ParseForm(); err != nil {
		return TwilioInboundForm{}, err
	}
	f := TwilioInboundForm{
		CallSid:       r.PostFormValue("CallSid"),
		AccountSid:    r.PostFormValue("AccountSid"),
		From:          normalizePhone(r.PostFormValue("From")),
		To:            normalizePhone(r.PostFormValue("To")),
		Direction:     r.PostFormValue("Direction"),
		CallStatus:    r.PostFormValue("CallStatus"),
		CallerName:    r.PostFormValue("CallerName"),
		FromCountry:   r.PostFormValue("FromCountry"),
		ToCountry:     r.PostFormValue("ToCountry"),
		ForwardedFrom: normalizePhone(r.PostFormValue("ForwardedFrom")),
	}
	return f, nil
}

func normalizePhone(s string) string {
	s = strings.TrimSpace(s)
	// Twilio sometimes sends "anonymous" or empty; keep as-is.
	return s
}

func (f TwilioInboundForm) ToInboundCallRequest(userID string, occurredAt time.Time) InboundCallRequest {
	return InboundCallRequest{
		UserID:     userID,
		CallSid:    f.CallSid,
		From:       f.From,
		To:         f.To,
		OccurredAt: occurredAt,
	}
}

// StatusCallback is a call progress event.
type StatusCallback struct {
	CallSid      string
	CallStatus   string
	Direction    string
	From         string
	To           string
	AnsweredBy   string
	CallDuration int

	// HasDuration distinguishes "0 seconds" from an absent duration.
	HasDuration bool

	// SequenceNumber orders callbacks for one call; -1 when absent.
	SequenceNumber int
	Timestamp      time.Time
}

func ParseStatusCallback(r *http.Request, now time.Time) (StatusCallback, error) {
	if err := r.ParseForm(); err != nil {
		return StatusCallback{}, err
	}
	cb := StatusCallback{
		CallSid:        strings.TrimSpace(r.PostFormValue("CallSid")),
		CallStatus:     strings.ToLower(strings.TrimSpace(r.PostFormValue("CallStatus"))),
		Direction:      r.PostFormValue("Direction"),
		From:           normalizePhone(r.PostFormValue("From")),
		To:             normalizePhone(r.PostFormValue("To")),
		AnsweredBy:     r.PostFormValue("AnsweredBy"),
		SequenceNumber: -1,
		Timestamp:      now.UTC(),
	}
	if v := r.PostFormValue("CallDuration"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cb.CallDuration = n
			cb.HasDuration = true
		}
	}
	if v := r.PostFormValue("SequenceNumber"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cb.SequenceNumber = n
		}
	}
	if v := r.PostFormValue("Timestamp"); v != "" {
		if ts, err := time.Parse(time.RFC1123Z, v); err == nil {
			cb.Timestamp = ts.UTC()
		}
	}
	return cb, nil
}

// RecordingCallback reports a finished call recording.
type RecordingCallback struct {
	CallSid           string
	RecordingSid      string
	RecordingURL      string
	RecordingStatus   string
	RecordingDuration int
}

func ParseRecordingCallback(r *http.Request) (RecordingCallback, error) {
	if err := r.ParseForm(); err != nil {
		return RecordingCallback{}, err
	}
	cb := RecordingCallback{
		CallSid:         strings.TrimSpace(r.PostFormValue("CallSid")),
		RecordingSid:    strings.TrimSpace(r.PostFormValue("RecordingSid")),
		RecordingURL:    strings.TrimSpace(r.PostFormValue("RecordingUrl")),
		RecordingStatus: r.PostFormValue("RecordingStatus"),
	}
	if n, err := strconv.Atoi(r.PostFormValue("RecordingDuration")); err == nil && n >= 0 {
		cb.RecordingDuration = n
	}
	return cb, nil
}

// TranscriptionCallback carries the text of a recorded voicemail.
type TranscriptionCallback struct {
	CallSid             string
	RecordingSid        string
	TranscriptionSid    string
	TranscriptionText   string
	TranscriptionStatus string
}

func ParseTranscriptionCallback(r *http.Request) (TranscriptionCallback, error) {
	if err := r.ParseForm(); err != nil {
		return TranscriptionCallback{}, err
	}
	return TranscriptionCallback{
		CallSid:             strings.TrimSpace(r.PostFormValue("CallSid")),
		RecordingSid:        strings.TrimSpace(r.PostFormValue("RecordingSid")),
		TranscriptionSid:    strings.TrimSpace(r.PostFormValue("TranscriptionSid")),
		TranscriptionText:   r.PostFormValue("TranscriptionText"),
		TranscriptionStatus: r.PostFormValue("TranscriptionStatus"),
	}, nil
}
