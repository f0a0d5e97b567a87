package http

import (
	"errors"
	"io"
	"net/http"
	"time"

	"pocketledger/pkg/logger"
	"pocketledger/services/alerts/internal/entity"
	"pocketledger/services/alerts/internal/repo/persistent"
	"pocketledger/services/alerts/internal/usecase"

	"github.com/gin-gonic/gin"
)

// BatchPublisher is the slice of the queue client the async evaluate path
// needs.
type BatchPublisher interface {
	PublishEvaluationBatch(body []byte) error
}

type AlertsHandler struct {
	alertsUseCase usecase.AlertsUseCase
	executor      *usecase.ActionExecutor
	publisher     BatchPublisher
	retention     time.Duration
	logger        *logger.Logger
}

func NewAlertsHandler(alertsUseCase usecase.AlertsUseCase, executor *usecase.ActionExecutor, publisher BatchPublisher, retention time.Duration, log *logger.Logger) *AlertsHandler {
	return &AlertsHandler{
		alertsUseCase: alertsUseCase,
		executor:      executor,
		publisher:     publisher,
		retention:     retention,
		logger:        log,
	}
}

// GetAlerts godoc
// @Summary      List open alerts
// @Description  Get the household's open alerts, precedence-filtered unless include_hidden is set
// @Tags         alerts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        include_hidden query bool false "Return suppressed alerts too"
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]string
// @Router       /alerts [get]
func (h *AlertsHandler) GetAlerts(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	if tenantID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	includeHidden := c.Query("include_hidden") == "true"

	alerts, err := h.alertsUseCase.ListAlerts(tenantID, includeHidden)
	if err != nil {
		h.logger.Error("Failed to list alerts: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list alerts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"alerts": alerts,
		"count":  len(alerts),
	})
}

// MarkRead godoc
// @Summary      Mark an alert as read
// @Tags         alerts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Alert ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Router       /alerts/{id}/read [post]
func (h *AlertsHandler) MarkRead(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	alertID := c.Param("id")

	if tenantID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := h.alertsUseCase.MarkRead(tenantID, alertID); err != nil {
		if errors.Is(err, persistent.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Alert not found"})
			return
		}
		h.logger.Error("Failed to mark alert read: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark alert read"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Alert marked read"})
}

// Dismiss godoc
// @Summary      Dismiss an alert
// @Description  Dismiss the alert. A dismissed alert is not re-created for the same dedupe window.
// @Tags         alerts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Alert ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Router       /alerts/{id}/dismiss [post]
func (h *AlertsHandler) Dismiss(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	alertID := c.Param("id")

	if tenantID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := h.alertsUseCase.Dismiss(tenantID, alertID); err != nil {
		if errors.Is(err, persistent.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Alert not found"})
			return
		}
		h.logger.Error("Failed to dismiss alert: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to dismiss alert"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Alert dismissed"})
}

// Evaluate godoc
// @Summary      Apply an evaluation batch
// @Description  Apply a batch of alert actions produced by an evaluation run. Same payload as the queue feed. With async=true the batch is enqueued instead of applied inline.
// @Tags         alerts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        async query bool false "Enqueue the batch instead of applying it synchronously"
// @Success      200  {object}  usecase.BatchResult
// @Success      202  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /alerts/evaluate [post]
func (h *AlertsHandler) Evaluate(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	batch, err := entity.DecodeBatch(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Validated above so a malformed batch is rejected here instead of
	// being dropped by the consumer.
	if c.Query("async") == "true" {
		if err := h.publisher.PublishEvaluationBatch(body); err != nil {
			h.logger.Error("Failed to enqueue evaluation batch: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enqueue evaluation batch"})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"message": "Evaluation batch enqueued", "actions": len(batch.Actions)})
		return
	}

	// The authenticated tenant always wins over the payload.
	if tenantID := c.GetString("tenant_id"); tenantID != "" {
		batch.TenantID = tenantID
	}

	result := h.executor.Execute(batch)
	c.JSON(http.StatusOK, result)
}

// ExportRetention godoc
// @Summary      Export and purge old dismissed alerts
// @Description  Ship dismissed alerts past the retention window to the archive bucket, then purge them
// @Tags         alerts
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  usecase.ExportResult
// @Failure      500  {object}  map[string]string
// @Router       /alerts/retention/export [post]
func (h *AlertsHandler) ExportRetention(c *gin.Context) {
	result, err := h.alertsUseCase.ExportDismissed(h.retention)
	if err != nil {
		h.logger.Error("Retention export failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Retention export failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}
