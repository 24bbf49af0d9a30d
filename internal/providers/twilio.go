package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"brandbuzz/internal/telephony"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// twilioAPI is the subset of the Twilio REST client the adapters use.
type twilioAPI interface {
	CreateCall(params *twilioApi.CreateCallParams) (*twilioApi.ApiV2010Call, error)
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// NewTwilioClient builds the REST client from account credentials.
func NewTwilioClient(accountSID, authToken string) *twilio.RestClient {
	return twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
}

type TwilioVoiceConfig struct {
	CallerID string

	// StatusCallback receives call progress events.
	StatusCallback string
	// RecordingCallback, when set, records the call and reports the recording there.
	RecordingCallback string
}

// TwilioVoice places outbound calls that speak text or play an audio file.
type TwilioVoice struct {
	api twilioAPI
	cfg TwilioVoiceConfig
}

func NewTwilioVoice(client *twilio.RestClient, cfg TwilioVoiceConfig) *TwilioVoice {
	return &TwilioVoice{api: client.Api, cfg: cfg}
}

func (v *TwilioVoice) Channel() Channel { return ChannelVoice }

func (v *TwilioVoice) Send(ctx context.Context, msg Message) (SendResult, error) {
	if err := ctx.Err(); err != nil {
		return SendResult{}, err
	}
	to := e164(msg.To)
	if to == "" {
		return SendResult{}, ErrInvalidDestination
	}
	twiml, err := telephony.MessageTwiML(msg.Body, msg.AudioURL)
	if err != nil {
		return SendResult{}, err
	}

	params := &twilioApi.CreateCallParams{}
	params.SetTo(to)
	params.SetFrom(v.cfg.CallerID)
	params.SetTwiml(twiml)
	if v.cfg.StatusCallback != "" {
		params.SetStatusCallback(v.cfg.StatusCallback)
		params.SetStatusCallbackMethod("POST")
		params.SetStatusCallbackEvent([]string{"initiated", "ringing", "answered", "completed"})
	}
	if v.cfg.RecordingCallback != "" {
		params.SetRecord(true)
		params.SetRecordingStatusCallback(v.cfg.RecordingCallback)
	}

	call, err := v.api.CreateCall(params)
	if err != nil {
		return SendResult{}, fmt.Errorf("twilio create call: %w", err)
	}
	if call == nil || call.Sid == nil {
		return SendResult{}, errors.New("twilio create call: missing call sid")
	}
	return SendResult{ProviderID: *call.Sid}, nil
}

// TwilioWhatsApp sends WhatsApp messages through the Twilio messaging API.
type TwilioWhatsApp struct {
	api            twilioAPI
	from           string
	statusCallback string
}

func NewTwilioWhatsApp(client *twilio.RestClient, from, statusCallback string) *TwilioWhatsApp {
	return &TwilioWhatsApp{api: client.Api, from: from, statusCallback: statusCallback}
}

func (w *TwilioWhatsApp) Channel() Channel { return ChannelWhatsApp }

func (w *TwilioWhatsApp) Send(ctx context.Context, msg Message) (SendResult, error) {
	if err := ctx.Err(); err != nil {
		return SendResult{}, err
	}
	to := e164(msg.To)
	if to == "" {
		return SendResult{}, ErrInvalidDestination
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo("whatsapp:" + to)
	params.SetFrom(whatsappAddress(w.from))
	params.SetBody(msg.Body)
	if w.statusCallback != "" {
		params.SetStatusCallback(w.statusCallback)
	}

	m, err := w.api.CreateMessage(params)
	if err != nil {
		return SendResult{}, fmt.Errorf("twilio create message: %w", err)
	}
	if m == nil || m.Sid == nil {
		return SendResult{}, errors.New("twilio create message: missing message sid")
	}
	return SendResult{ProviderID: *m.Sid}, nil
}

func whatsappAddress(n string) string {
	if strings.HasPrefix(n, "whatsapp:") {
		return n
	}
	return "whatsapp:" + n
}

// e164 turns a stored phone number into +<digits>. Ten-digit numbers are
// taken as Indian mobiles.
func e164(s string) string {
	d := digits(s)
	switch {
	case len(d) == 10:
		return "+91" + d
	case len(d) >= 11 && len(d) <= 15:
		return "+" + d
	default:
		return ""
	}
}
