// internal/api/history_handler.go
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"quitwell/coaching-app/internal/domain"
	"quitwell/coaching-app/internal/history"
	"quitwell/coaching-app/internal/service"
)

type HistoryHandler struct {
	historyService service.HistoryService
}

func NewHistoryHandler(historyService service.HistoryService) *HistoryHandler {
	return &HistoryHandler{historyService: historyService}
}

// GetHistory serves a member's paginated plan history. Query parameters:
// page, pageSize, search, status, from, to (RFC 3339 dates), sort.
func (h *HistoryHandler) GetHistory(c *gin.Context) {
	memberID, err := primitive.ObjectIDFromHex(c.Param("memberId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid member ID format.")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "10"))

	filter := history.Filter{
		Search: c.Query("search"),
		Sort:   history.SortOrder(c.Query("sort")),
	}
	if raw := c.Query("status"); raw != "" {
		status, ok := domain.ParsePlanStatus(raw)
		if !ok {
			abortWithError(c, http.StatusBadRequest, "Unknown status filter: "+raw)
			return
		}
		filter.Status = status
	}
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid 'from' date; use RFC 3339.")
			return
		}
		filter.From = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid 'to' date; use RFC 3339.")
			return
		}
		filter.To = &t
	}

	result, err := h.historyService.GetHistory(c.Request.Context(), memberID, filter, page, pageSize)
	if err != nil {
		mapPlanError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
