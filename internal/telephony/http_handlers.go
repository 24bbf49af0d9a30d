package telephony

import (
	"context"
	"net/http"
	"time"

	"brandbuzz/pkg/logger"

	"github.com/gin-gonic/gin"
)

// InboundRecorder persists what happened to an inbound call.
type InboundRecorder interface {
	RecordInbound(ctx context.Context, req InboundCallRequest, res InboundCallResult) error
}

// TwilioWebhookHandler converts the inbound call webhook to internal types,
// delegates the decision to the router, and writes TwiML.
//
// The owner of the dialled number is resolved by OwnerResolver and passed
// explicitly; no business logic lives here.
type TwilioWebhookHandler struct {
	Router        InboundRouter
	OwnerResolver func(ctx context.Context, toNumber string) (string, error)
	Recorder      InboundRecorder

	RecordingCallback  string
	TranscribeCallback string

	Now func() time.Time
}

func (h TwilioWebhookHandler) HandleInboundCall(c *gin.Context) {
	log := logger.FromGin(c)

	if h.Now == nil {
		h.Now = time.Now
	}
	if h.Router == nil || h.OwnerResolver == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "message": "inbound routing not configured"})
		return
	}

	form, err := ParseTwilioInboundCall(c.Request)
	if err != nil {
		log.Warn("twilio webhook parse failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid form"})
		return
	}

	ctx := c.Request.Context()
	userID, err := h.OwnerResolver(ctx, form.To)
	if err != nil {
		log.Warn("owner resolution failed", "to", form.To, "err", err)
		h.writeTwiML(c, InboundCallResult{CallSid: form.CallSid, Action: InboundCallActionReject})
		return
	}

	in := form.ToInboundCallRequest(userID, h.Now())
	res, err := h.Router.RouteInboundCall(ctx, in)
	if err != nil {
		log.Error("inbound call routing failed", "call_sid", form.CallSid, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "message": "routing failed"})
		return
	}
	res.RecordingCallback = h.RecordingCallback
	res.TranscribeCallback = h.TranscribeCallback

	if h.Recorder != nil {
		if err := h.Recorder.RecordInbound(ctx, in, res); err != nil {
			log.Error("inbound call record failed", "call_sid", form.CallSid, "err", err)
		}
	}

	h.writeTwiML(c, res)
}

func (h TwilioWebhookHandler) writeTwiML(c *gin.Context, res InboundCallResult) {
	twiml, err := RenderTwiML(res)
	if err != nil {
		logger.FromGin(c).Error("twiml render failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "message": "twiml failed"})
		return
	}
	c.Data(http.StatusOK, "text/xml; charset=utf-8", []byte(twiml))
}
