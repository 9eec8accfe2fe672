package handler

import (
	"errors"
	"net/http"
	"strconv"

	"vpnshop/internal/repository"
	"vpnshop/internal/service"

	"github.com/gin-gonic/gin"
)

// AlertHandler is the operator surface for reconciliation alerts: payments
// that settled but whose fulfillment needs a human.
type AlertHandler struct {
	alerts *service.AlertService
}

func NewAlertHandler(alerts *service.AlertService) *AlertHandler {
	return &AlertHandler{alerts: alerts}
}

func (h *AlertHandler) ListOpen(c *gin.Context) {
	alerts, err := h.alerts.ListOpen()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list alerts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

func (h *AlertHandler) Resolve(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid alert id"})
		return
	}
	if err := h.alerts.Resolve(uint(id)); err != nil {
		if errors.Is(err, repository.ErrAlertNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "alert not found or already resolved"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve alert"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"resolved": true})
}
