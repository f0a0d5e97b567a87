package http

import (
	"net/http"
	"time"

	"pocketledger/pkg/logger"
	"pocketledger/services/alerts/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type BalanceHandler struct {
	toasts *usecase.BalanceToastMachine
	logger *logger.Logger
}

func NewBalanceHandler(toasts *usecase.BalanceToastMachine, log *logger.Logger) *BalanceHandler {
	return &BalanceHandler{
		toasts: toasts,
		logger: log,
	}
}

type ObserveBalanceRequest struct {
	MonthKey         string          `json:"month_key"`
	ProjectedBalance decimal.Decimal `json:"projected_balance"`
}

// ObserveBalance godoc
// @Summary      Observe a projected month-end balance
// @Description  Feed the latest projected balance for a month. Returns a toast only on a sign transition.
// @Tags         balance
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body ObserveBalanceRequest true "Projected balance observation"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /balance/observe [post]
func (h *BalanceHandler) ObserveBalance(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	if tenantID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req ObserveBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	monthKey := req.MonthKey
	if monthKey == "" {
		monthKey = time.Now().UTC().Format("2006-01")
	}

	toast, err := h.toasts.Observe(c.Request.Context(), tenantID, monthKey, req.ProjectedBalance)
	if err != nil {
		h.logger.Error("Failed to observe balance: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to observe balance"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"month_key": monthKey,
		"toast":     toast,
	})
}

// ResetBalanceState godoc
// @Summary      Reset tracked balance state
// @Description  Forget the caller's remembered balance sign for a month, or for all of the caller's months when none is given
// @Tags         balance
// @Produce      json
// @Security     BearerAuth
// @Param        month query string false "Month key (YYYY-MM); omit to clear all of the tenant's months"
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]string
// @Router       /balance/state [delete]
func (h *BalanceHandler) ResetBalanceState(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	if tenantID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	month := c.Query("month")

	// Either way the reset stays inside the caller's tenant.
	var err error
	if month == "" {
		err = h.toasts.ResetTenant(c.Request.Context(), tenantID)
	} else {
		err = h.toasts.Reset(c.Request.Context(), tenantID, month)
	}
	if err != nil {
		h.logger.Error("Failed to reset balance state: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset balance state"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Balance state cleared"})
}
