package httpapi

import (
	"net/http"

	"brandbuzz/internal/dispatch"
	"brandbuzz/internal/providers"

	"github.com/gin-gonic/gin"
)

// Send returns the handler for one channel's send route. Per-recipient
// provider failures are part of a 200 response; only request-level
// failures use error statuses.
func (h Handlers) Send(ch providers.Channel) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dispatch.Request
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid json")
			return
		}
		req.Channel = ch
		res, err := h.Dispatcher.Dispatch(c.Request.Context(), req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}
