package telephony

import (
	"bytes"
	"encoding/xml"
	"errors"
	"strings"
)

// Response is a TwiML document builder. Verbs are rendered in the order
// they are added.
type Response struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any    `xml:",any"`
}

type twimlSay struct {
	XMLName  xml.Name `xml:"Say"`
	Voice    string   `xml:"voice,attr,omitempty"`
	Language string   `xml:"language,attr,omitempty"`
	Text     string   `xml:",chardata"`
}

type twimlPlay struct {
	XMLName xml.Name `xml:"Play"`
	URL     string   `xml:",chardata"`
}

type twimlRecord struct {
	XMLName                 xml.Name `xml:"Record"`
	MaxLength               int      `xml:"maxLength,attr,omitempty"`
	PlayBeep                bool     `xml:"playBeep,attr"`
	Transcribe              bool     `xml:"transcribe,attr,omitempty"`
	TranscribeCallback      string   `xml:"transcribeCallback,attr,omitempty"`
	RecordingStatusCallback string   `xml:"recordingStatusCallback,attr,omitempty"`
}

type twimlReject struct {
	XMLName xml.Name `xml:"Reject"`
	Reason  string   `xml:"reason,attr,omitempty"`
}

type twimlHangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

type twimlDial struct {
	XMLName  xml.Name  `xml:"Dial"`
	CallerID string    `xml:"callerId,attr,omitempty"`
	Timeout  int       `xml:"timeout,attr,omitempty"`
	Number   string    `xml:"Number,omitempty"`
	Sip      *twimlSip `xml:"Sip,omitempty"`
}

type twimlSip struct {
	URI string `xml:",chardata"`
}

// RecordOptions configures a <Record> verb.
type RecordOptions struct {
	MaxLengthSeconds   int
	Transcribe         bool
	TranscribeCallback string
	RecordingCallback  string
}

func NewResponse() *Response { return &Response{} }

func (r *Response) Say(text string) *Response {
	r.Verbs = append(r.Verbs, twimlSay{Voice: "alice", Text: text})
	return r
}

func (r *Response) Play(url string) *Response {
	r.Verbs = append(r.Verbs, twimlPlay{URL: url})
	return r
}

func (r *Response) Record(opts RecordOptions) *Response {
	r.Verbs = append(r.Verbs, twimlRecord{
		MaxLength:               opts.MaxLengthSeconds,
		PlayBeep:                true,
		Transcribe:              opts.Transcribe,
		TranscribeCallback:      opts.TranscribeCallback,
		RecordingStatusCallback: opts.RecordingCallback,
	})
	return r
}

// Dial connects the call to a PSTN number or, for "sip:" targets, a SIP URI.
func (r *Response) Dial(target, callerID string) *Response {
	d := twimlDial{CallerID: callerID, Timeout: 20}
	if strings.HasPrefix(strings.ToLower(target), "sip:") {
		d.Sip = &twimlSip{URI: target}
	} else {
		d.Number = target
	}
	r.Verbs = append(r.Verbs, d)
	return r
}

func (r *Response) Reject(reason string) *Response {
	r.Verbs = append(r.Verbs, twimlReject{Reason: reason})
	return r
}

func (r *Response) Hangup() *Response {
	r.Verbs = append(r.Verbs, twimlHangup{})
	return r
}

// String renders the document with an XML header.
func (r *Response) String() (string, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// MessageTwiML is the document an outbound voice message plays: the audio
// file when one is given, otherwise the text read aloud.
func MessageTwiML(text, audioURL string) (string, error) {
	r := NewResponse()
	switch {
	case strings.TrimSpace(audioURL) != "":
		r.Play(audioURL)
	case strings.TrimSpace(text) != "":
		r.Say(text)
	default:
		return "", errors.New("telephony: voice message needs text or audio")
	}
	return r.Hangup().String()
}

// RenderTwiML maps an InboundCallResult to TwiML.
func RenderTwiML(res InboundCallResult) (string, error) {
	r := NewResponse()

	switch res.Action {
	case InboundCallActionReject:
		r.Reject("busy")
	case InboundCallActionHangup:
		r.Hangup()
	case InboundCallActionConnect:
		if strings.TrimSpace(res.ConnectTo) == "" {
			return "", errors.New("telephony: connect_to required for connect action")
		}
		if res.Greeting != "" {
			r.Say(res.Greeting)
		}
		r.Dial(res.ConnectTo, res.CallerID)
	case InboundCallActionVoicemail:
		greeting := res.Greeting
		if greeting == "" {
			greeting = "Please leave a message after the beep."
		}
		r.Say(greeting).Record(RecordOptions{
			MaxLengthSeconds:   120,
			Transcribe:         res.TranscribeCallback != "",
			TranscribeCallback: res.TranscribeCallback,
			RecordingCallback:  res.RecordingCallback,
		}).Hangup()
	default:
		return "", errors.New("telephony: unknown inbound action")
	}

	return r.String()
}
