package httpapi

import (
	"net/http"

	"brandbuzz/internal/campaigns"

	"github.com/gin-gonic/gin"
)

// ListCampaigns returns one campaign with its log stats when id is given,
// otherwise a filtered page.
func (h Handlers) ListCampaigns(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.Query("userId")

	if id := c.Query("id"); id != "" {
		d, err := h.Campaigns.Get(ctx, userID, id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "campaign": d.Campaign, "logStats": d.LogStats})
		return
	}

	p, err := h.Campaigns.List(ctx, campaigns.ListQuery{
		UserID: userID,
		Type:   c.Query("type"),
		Status: c.Query("status"),
		Page:   queryInt(c, "page"),
		Limit:  queryInt(c, "limit"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"campaigns":  p.Campaigns,
		"pagination": pagination(p.Page, p.Limit, p.Total, p.TotalPages),
	})
}

func (h Handlers) CampaignLogs(c *gin.Context) {
	p, err := h.Campaigns.Logs(c.Request.Context(), c.Query("userId"), c.Query("id"), queryInt(c, "page"), queryInt(c, "limit"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"logs":       p.Logs,
		"pagination": pagination(p.Page, p.Limit, p.Total, p.TotalPages),
	})
}

type createCampaignRequest struct {
	UserID string `json:"userId"`
	campaigns.DraftInput
}

func (h Handlers) CreateCampaign(c *gin.Context) {
	var req createCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	cp, err := h.Campaigns.CreateDraft(c.Request.Context(), req.UserID, req.DraftInput)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Campaign created", "campaign": cp})
}

type updateCampaignRequest struct {
	UserID string `json:"userId"`
	ID     string `json:"id"`
	campaigns.DraftPatch
}

func (h Handlers) UpdateCampaign(c *gin.Context) {
	var req updateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	cp, err := h.Campaigns.UpdateDraft(c.Request.Context(), req.UserID, req.ID, req.DraftPatch)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Campaign updated", "campaign": cp})
}

// DeleteCampaign removes the campaign together with its message logs.
func (h Handlers) DeleteCampaign(c *gin.Context) {
	if err := h.Campaigns.Delete(c.Request.Context(), c.Query("userId"), c.Query("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Campaign deleted"})
}
