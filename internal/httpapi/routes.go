package httpapi

import (
	"brandbuzz/internal/providers"

	"github.com/gin-gonic/gin"
)

// Guards are the middleware chains routes are mounted behind. A nil guard
// is skipped.
type Guards struct {
	// Paid runs in front of routes that spend wallet balance.
	Paid gin.HandlerFunc
	// Twilio validates provider callbacks.
	Twilio gin.HandlerFunc
	// Admin authenticates and authorises /api/admin.
	Admin []gin.HandlerFunc
	// Inbound answers an inbound call with TwiML.
	Inbound gin.HandlerFunc
}

func chain(hs ...gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(hs))
	for _, h := range hs {
		if h != nil {
			out = append(out, h)
		}
	}
	return out
}

// Register mounts every /api route. Keep it free of business logic.
func (h Handlers) Register(r gin.IRouter, g Guards) {
	r.GET("/healthz", Health)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/signup", h.Signup)
	authGroup.POST("/login", h.Login)
	authGroup.POST("/refresh", h.Refresh)

	api.GET("/contacts", h.ListContacts)
	api.POST("/contacts", h.CreateContact)
	api.PUT("/contacts", h.UpdateContact)
	api.DELETE("/contacts", h.DeleteContact)

	api.GET("/campaigns", h.ListCampaigns)
	api.GET("/campaigns/logs", h.CampaignLogs)
	api.POST("/campaigns", h.CreateCampaign)
	api.PUT("/campaigns", h.UpdateCampaign)
	api.DELETE("/campaigns", h.DeleteCampaign)

	api.GET("/billing", h.GetBilling)
	api.POST("/billing", h.TopUp)

	paid := api.Group("", chain(g.Paid)...)
	paid.POST("/sms/send", h.Send(providers.ChannelSMS))
	paid.POST("/voice/send", h.Send(providers.ChannelVoice))
	paid.POST("/whatsapp/send", h.Send(providers.ChannelWhatsApp))
	paid.POST("/email/send", h.Send(providers.ChannelEmail))
	paid.POST("/smm/order", h.PlaceSMMOrder)

	api.PUT("/voice/settings", h.UpdateVoiceSettings)

	twilio := api.Group("", chain(g.Twilio)...)
	twilio.POST("/voice/webhook", h.CallStatusWebhook)
	twilio.POST("/calling/status-webhook", h.CallStatusWebhook)
	twilio.POST("/calling/recording-webhook", h.RecordingWebhook)
	twilio.POST("/calling/transcription-webhook", h.TranscriptionWebhook)
	twilio.POST("/whatsapp/status-webhook", h.MessageStatusWebhook)
	if g.Inbound != nil {
		twilio.POST("/calling/incoming", g.Inbound)
	}
	api.GET("/calling/calls", h.ListCalls)

	api.GET("/smm/status", h.SMMStatus)
	api.GET("/smm/services", h.SMMServices)
	api.GET("/smm/orders", h.SMMOrders)

	api.POST("/automation/jobs", h.CreateAutomationJob)
	api.GET("/automation/jobs/:id", h.GetAutomationJob)

	api.GET("/reports/summary", h.ReportSummary)

	admin := api.Group("/admin", chain(g.Admin...)...)
	admin.POST("/credit", h.AdminManualCredit)
}
