package handlers

import (
	"net/http"
	"strconv"
	"time"

	"pointbreak/config"
	historyRepo "pointbreak/database/repository/history"
	"pointbreak/models"
	"pointbreak/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// PoolInspector exposes the session pool state to the admin surface
// without handing out the pool itself.
type PoolInspector interface {
	Snapshot() models.PoolSnapshot
}

// AdminHandler serves operator endpoints: token minting, pool state and
// recent search history.
type AdminHandler struct {
	Pool    PoolInspector
	History historyRepo.SearchHistoryRepository
	Logger  *zap.Logger
}

func NewAdminHandler(pool PoolInspector, history historyRepo.SearchHistoryRepository, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{Pool: pool, History: history, Logger: logger}
}

// TokenHandler exchanges the configured admin API key for a short-lived JWT.
func (h *AdminHandler) TokenHandler(c *gin.Context) {
	var input struct {
		APIKey string `json:"apiKey" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	hash := config.AppConfig.AdminAPIKeyHash
	if hash == "" {
		utils.JSONError(c, http.StatusForbidden, "admin access disabled", "no admin API key configured")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(input.APIKey)); err != nil {
		h.Logger.Warn("admin token request with bad API key", zap.String("ip", c.ClientIP()))
		utils.JSONError(c, http.StatusUnauthorized, "unauthorized", "invalid API key")
		return
	}

	token, err := utils.GenerateToken("admin", 12*time.Hour)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to mint token", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// PoolStatusHandler reports per-slot session state.
func (h *AdminHandler) PoolStatusHandler(c *gin.Context) {
	c.JSON(http.StatusOK, h.Pool.Snapshot())
}

// HistoryHandler returns recent comparisons, newest first.
func (h *AdminHandler) HistoryHandler(c *gin.Context) {
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
	if err != nil || limit < 1 || limit > 200 {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", "limit must be between 1 and 200")
		return
	}

	records, err := h.History.Recent(c.Request.Context(), limit)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to load history", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records, "count": len(records)})
}
