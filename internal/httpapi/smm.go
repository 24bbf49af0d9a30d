package httpapi

import (
	"net/http"

	"brandbuzz/internal/smm"

	"github.com/gin-gonic/gin"
)

type smmOrderRequest struct {
	UserID string `json:"userId"`
	smm.OrderRequest
}

// PlaceSMMOrder charges the wallet and forwards the order to the panel. A
// panel failure is refunded and reported as 502.
func (h Handlers) PlaceSMMOrder(c *gin.Context) {
	var req smmOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	o, err := h.SMM.PlaceOrder(c.Request.Context(), req.UserID, req.OrderRequest)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Order placed", "order": o})
}

func (h Handlers) SMMStatus(c *gin.Context) {
	o, err := h.SMM.Status(c.Request.Context(), c.Query("userId"), c.Query("orderId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": o})
}

func (h Handlers) SMMServices(c *gin.Context) {
	svcs, err := h.SMM.Services(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "services": svcs})
}

func (h Handlers) SMMOrders(c *gin.Context) {
	p, err := h.SMM.List(c.Request.Context(), c.Query("userId"), queryInt(c, "page"), queryInt(c, "limit"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"orders":     p.Orders,
		"pagination": pagination(p.Page, p.Limit, p.Total, p.TotalPages),
	})
}
