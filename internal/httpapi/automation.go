package httpapi

import (
	"net/http"

	"brandbuzz/internal/automation"

	"github.com/gin-gonic/gin"
)

type createJobRequest struct {
	UserID string `json:"userId"`
	automation.CreateRequest
}

func (h Handlers) CreateAutomationJob(c *gin.Context) {
	var req createJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	j, err := h.Automation.Create(c.Request.Context(), req.UserID, req.CreateRequest)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"success": true, "message": "Job queued", "job": j})
}

func (h Handlers) GetAutomationJob(c *gin.Context) {
	j, err := h.Automation.Get(c.Request.Context(), c.Query("userId"), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "job": j})
}
