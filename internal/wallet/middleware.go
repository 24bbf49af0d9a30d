package wallet

import (
	"context"
	"errors"
	"net/http"

	"brandbuzz/pkg/logger"

	"github.com/gin-gonic/gin"
)

// BalanceService is the minimal wallet service interface needed by middleware.
type BalanceService interface {
	GetBalance(ctx context.Context, userID string) (Balance, error)
}

// RequirePositiveBalance blocks paid routes for users whose balance is zero
// or negative. It is a fast pre-check only; the charge itself is enforced by
// the atomic debit.
//
// userIDOf extracts the acting user from the request. Requests without one
// pass through so the handler can report its own validation error.
func RequirePositiveBalance(svc BalanceService, userIDOf func(c *gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := userIDOf(c)
		if userID == "" {
			c.Next()
			return
		}

		bal, err := svc.GetBalance(c.Request.Context(), userID)
		if errors.Is(err, ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"success": false, "message": "user not found"})
			return
		}
		if err != nil {
			logger.FromGin(c).Error("balance lookup failed", "user_id", userID, "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "message": "balance lookup failed", "error": err.Error()})
			return
		}
		if bal.Balance <= 0 {
			// 402 Payment Required is semantically appropriate.
			c.AbortWithStatusJSON(http.StatusPaymentRequired, gin.H{"success": false, "message": "insufficient balance"})
			return
		}

		c.Next()
	}
}
