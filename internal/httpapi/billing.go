package httpapi

import (
	"net/http"
	"strings"

	"brandbuzz/internal/auth"
	"brandbuzz/internal/wallet"
	"brandbuzz/pkg/utils"

	"github.com/gin-gonic/gin"
)

func (h Handlers) GetBilling(c *gin.Context) {
	skip, size, page, limit := utils.Page(queryInt(c, "page"), queryInt(c, "limit"))
	hist, err := h.Wallet.History(c.Request.Context(), c.Query("userId"), skip, size)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"balance":      hist.Balance.Balance,
		"currency":     hist.Balance.Currency,
		"transactions": hist.Transactions,
		"pagination":   pagination(page, limit, hist.Total, utils.TotalPages(hist.Total, limit)),
	})
}

type topUpRequest struct {
	UserID         string `json:"userId"`
	Amount         int64  `json:"amount"`
	Description    string `json:"description"`
	IdempotencyKey string `json:"idempotencyKey"`
}

// TopUp credits the wallet. Retrying with the same idempotencyKey returns
// the original transaction.
func (h Handlers) TopUp(c *gin.Context) {
	var req topUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	desc := strings.TrimSpace(req.Description)
	if desc == "" {
		desc = "Wallet top-up"
	}
	tx, err := h.Wallet.Credit(c.Request.Context(), req.UserID, wallet.PostRequest{
		Amount:         req.Amount,
		Description:    desc,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Balance updated", "transaction": tx, "balance": tx.BalanceAfter})
}

type adminCreditRequest struct {
	UserID string `json:"userId"`
	wallet.AdminCreditRequest
}

// AdminManualCredit performs an admin-only wallet credit.
// RBAC: admin or super_admin.
func (h Handlers) AdminManualCredit(c *gin.Context) {
	ctx := c.Request.Context()
	actorID, _ := auth.UserID(ctx)
	actorRole, _ := auth.Role(ctx)

	var req adminCreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	tx, err := h.Wallet.AdminManualCredit(ctx, req.UserID, wallet.Actor{UserID: actorID, Role: actorRole, IP: c.ClientIP()}, req.AdminCreditRequest)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "transaction": tx, "balance": tx.BalanceAfter})
}
