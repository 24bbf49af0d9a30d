package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"brandbuzz/internal/auth"
	"brandbuzz/internal/automation"
	"brandbuzz/internal/calls"
	"brandbuzz/internal/campaigns"
	"brandbuzz/internal/contacts"
	"brandbuzz/internal/dispatch"
	"brandbuzz/internal/pricing"
	"brandbuzz/internal/providers"
	"brandbuzz/internal/reporting"
	"brandbuzz/internal/smm"
	"brandbuzz/internal/users"
	"brandbuzz/internal/wallet"
	"brandbuzz/pkg/logger"

	"github.com/gin-gonic/gin"
)

// statusFor maps domain sentinels to HTTP status codes. Anything unknown is
// a server error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, contacts.ErrInvalidArgument),
		errors.Is(err, campaigns.ErrInvalidArgument),
		errors.Is(err, wallet.ErrInvalidArgument),
		errors.Is(err, users.ErrInvalidArgument),
		errors.Is(err, dispatch.ErrInvalidArgument),
		errors.Is(err, dispatch.ErrNoRecipients),
		errors.Is(err, calls.ErrInvalidArgument),
		errors.Is(err, smm.ErrInvalidArgument),
		errors.Is(err, smm.ErrUnknownService),
		errors.Is(err, automation.ErrInvalidArgument),
		errors.Is(err, reporting.ErrInvalidRequest),
		errors.Is(err, pricing.ErrInvalidPricingReq),
		errors.Is(err, pricing.ErrPricingNotFound),
		errors.Is(err, providers.ErrInvalidDestination),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest

	case errors.Is(err, users.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized

	case errors.Is(err, wallet.ErrInsufficientFunds),
		errors.Is(err, dispatch.ErrInsufficientFunds),
		errors.Is(err, smm.ErrInsufficientFunds):
		return http.StatusPaymentRequired

	case errors.Is(err, contacts.ErrNotFound),
		errors.Is(err, campaigns.ErrNotFound),
		errors.Is(err, wallet.ErrNotFound),
		errors.Is(err, users.ErrNotFound),
		errors.Is(err, calls.ErrNotFound),
		errors.Is(err, smm.ErrNotFound),
		errors.Is(err, automation.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, campaigns.ErrNotEditable),
		errors.Is(err, users.ErrEmailTaken),
		errors.Is(err, wallet.ErrDuplicateIdempotencyKey):
		return http.StatusConflict

	case errors.Is(err, dispatch.ErrBusy):
		return http.StatusTooManyRequests
	case errors.Is(err, smm.ErrPanel):
		return http.StatusBadGateway
	case errors.Is(err, dispatch.ErrChannelDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

var errBadRequest = errors.New("invalid request body")

// writeError writes the error envelope. Server errors are logged here, at the
// boundary, and carry the error text in "error".
func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.FromGin(c).Error("request failed", "path", c.FullPath(), "err", err)
		c.AbortWithStatusJSON(status, gin.H{"success": false, "message": "internal server error", "error": err.Error()})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "message": msg})
}

func pagination(page, limit int, total int64, totalPages int) gin.H {
	return gin.H{"page": page, "limit": limit, "total": total, "totalPages": totalPages}
}

// queryInt reads a positive integer query value; malformed values read as 0
// and fall back to the paging defaults.
func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
