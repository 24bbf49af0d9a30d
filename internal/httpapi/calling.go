package httpapi

import (
	"errors"
	"net/http"

	"brandbuzz/internal/calls"
	"brandbuzz/internal/telephony"
	"brandbuzz/pkg/logger"

	"github.com/gin-gonic/gin"
)

// CallStatusWebhook applies a Twilio status callback. Stale and duplicated
// callbacks are acknowledged with 200 so Twilio does not retry them.
func (h Handlers) CallStatusWebhook(c *gin.Context) {
	cb, err := telephony.ParseStatusCallback(c.Request, h.now())
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	call, err := h.Calls.ApplyStatus(c.Request.Context(), cb)
	if errors.Is(err, calls.ErrStaleEvent) {
		logger.FromGin(c).Info("stale call callback ignored", "call_sid", cb.CallSid, "status", cb.CallStatus)
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "ignored"})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "status": call.Status, "cost": call.Cost})
}

func (h Handlers) RecordingWebhook(c *gin.Context) {
	cb, err := telephony.ParseRecordingCallback(c.Request)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	if _, err := h.Calls.ApplyRecording(c.Request.Context(), cb); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h Handlers) TranscriptionWebhook(c *gin.Context) {
	cb, err := telephony.ParseTranscriptionCallback(c.Request)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	if _, err := h.Calls.ApplyTranscription(c.Request.Context(), cb); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// MessageStatusWebhook records Twilio message delivery receipts (WhatsApp)
// on the matching message log.
func (h Handlers) MessageStatusWebhook(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		badRequest(c, "invalid form")
		return
	}
	sid := c.Request.PostFormValue("MessageSid")
	status := c.Request.PostFormValue("MessageStatus")
	if sid == "" || status == "" {
		badRequest(c, "MessageSid and MessageStatus are required")
		return
	}
	if err := h.Campaigns.ApplyDeliveryStatus(c.Request.Context(), sid, status, c.Request.PostFormValue("ErrorMessage")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h Handlers) ListCalls(c *gin.Context) {
	p, err := h.Calls.List(c.Request.Context(), c.Query("userId"), queryInt(c, "page"), queryInt(c, "limit"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"calls":      p.Calls,
		"pagination": pagination(p.Page, p.Limit, p.Total, p.TotalPages),
	})
}
