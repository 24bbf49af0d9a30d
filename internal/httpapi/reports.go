package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"brandbuzz/internal/reporting"

	"github.com/gin-gonic/gin"
)

const defaultReportWindow = 30 * 24 * time.Hour

// ReportSummary aggregates campaigns, calls and spend for [from, to).
// from/to accept RFC 3339 or YYYY-MM-DD; the default is the last 30 days.
func (h Handlers) ReportSummary(c *gin.Context) {
	to := h.now().UTC()
	from := to.Add(-defaultReportWindow)

	var err error
	if v := c.Query("to"); v != "" {
		if to, err = parseReportTime(v); err != nil {
			badRequest(c, err.Error())
			return
		}
	}
	if v := c.Query("from"); v != "" {
		if from, err = parseReportTime(v); err != nil {
			badRequest(c, err.Error())
			return
		}
	}

	sum, err := h.Reports.Summary(c.Request.Context(), reporting.SummaryRequest{
		UserID: c.Query("userId"),
		Range:  reporting.TimeRange{From: from, To: to},
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "summary": sum})
}

func parseReportTime(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid time %q", v)
}
