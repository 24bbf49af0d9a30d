package httpapi

import (
	"net/http"

	"brandbuzz/internal/contacts"

	"github.com/gin-gonic/gin"
)

func (h Handlers) ListContacts(c *gin.Context) {
	p, err := h.Contacts.List(c.Request.Context(), contacts.ListQuery{
		UserID: c.Query("userId"),
		Group:  c.Query("group"),
		Search: c.Query("search"),
		Page:   queryInt(c, "page"),
		Limit:  queryInt(c, "limit"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"contacts":   p.Contacts,
		"pagination": pagination(p.Page, p.Limit, p.Total, p.TotalPages),
	})
}

type createContactRequest struct {
	UserID string `json:"userId"`
	contacts.Input
	// Contacts switches the request to a bulk import.
	Contacts []contacts.Input `json:"contacts"`
}

func (h Handlers) CreateContact(c *gin.Context) {
	var req createContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	ctx := c.Request.Context()

	if len(req.Contacts) > 0 {
		res, err := h.Contacts.Import(ctx, req.UserID, req.Contacts)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"success": true,
			"message": "Contacts imported",
			"created": len(res.Created),
			"skipped": res.Skipped,
		})
		return
	}

	ct, err := h.Contacts.Create(ctx, req.UserID, req.Input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Contact created", "contact": ct})
}

type updateContactRequest struct {
	UserID string `json:"userId"`
	ID     string `json:"id"`
	contacts.Patch
}

func (h Handlers) UpdateContact(c *gin.Context) {
	var req updateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	ct, err := h.Contacts.Update(c.Request.Context(), req.UserID, req.ID, req.Patch)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Contact updated", "contact": ct})
}

// DeleteContact soft-deletes; the document stays with status "deleted".
func (h Handlers) DeleteContact(c *gin.Context) {
	if err := h.Contacts.Delete(c.Request.Context(), c.Query("userId"), c.Query("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Contact deleted"})
}
