package rest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/feral-file/achievement-minter/internal/api/middleware"
	"github.com/feral-file/achievement-minter/internal/api/shared/executor"
	"github.com/feral-file/achievement-minter/internal/logger"
	"github.com/feral-file/achievement-minter/internal/minter"
)

// Handler defines the interface for REST API handlers
type Handler interface {
	// TriggerMintRun runs the minting orchestrator now and reports the count minted (requires authentication)
	// POST /api/v1/achievements/mint-runs
	TriggerMintRun(c *gin.Context)

	// GetBacklog reports the number of completed goals waiting for a token (requires authentication).
	// pendingCount includes goals with a missing owner or invalid wallet, which keep failing until the owner data is fixed.
	// GET /api/v1/achievements/backlog
	GetBacklog(c *gin.Context)

	// GetLastRun returns the summary of the latest run (requires authentication)
	// GET /api/v1/achievements/mint-runs/last
	GetLastRun(c *gin.Context)

	// ListUserAchievements lists a user's minted achievements
	// GET /api/v1/users/:user_id/achievements?limit=<limit>&offset=<offset>
	ListUserAchievements(c *gin.Context)

	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)
}

// handler implements the Handler interface
type handler struct {
	executor executor.Executor
}

// NewHandler creates a new REST API handler using the shared executor
func NewHandler(exec executor.Executor) Handler {
	return &handler{executor: exec}
}

// TriggerMintRun runs the orchestrator synchronously. Per-goal failures are
// reported in the counts; only an aborted run is an error.
func (h *handler) TriggerMintRun(c *gin.Context) {
	ctx := c.Request.Context()

	// A run waits for ledger confirmations, so it outlives the server write timeout
	if err := http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{}); err != nil {
		logger.WarnCtx(ctx, "Failed to lift write deadline for mint run", zap.Error(err))
	}

	trigger := minter.TriggerUnknown
	if operator, ok := middleware.OperatorFromContext(c); ok {
		trigger = operator.String()
	}

	response, err := h.executor.TriggerMintRun(minter.WithTrigger(ctx, trigger))
	if err != nil {
		respondInternalError(c, err, "Failed to run minting")
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetBacklog reports the eligible backlog size
func (h *handler) GetBacklog(c *gin.Context) {
	response, err := h.executor.GetBacklog(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "Failed to count backlog")
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetLastRun returns the latest run summary
func (h *handler) GetLastRun(c *gin.Context) {
	response, err := h.executor.GetLastRun(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "Failed to get last run")
		return
	}

	if response == nil {
		respondNotFound(c, "No minting run recorded yet")
		return
	}

	c.JSON(http.StatusOK, response)
}

// ListUserAchievements lists the mint records of one user
func (h *handler) ListUserAchievements(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		respondBadRequest(c, "Invalid user ID", err.Error())
		return
	}

	queryParams, err := ParseListAchievementsQuery(c)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}
	if err := queryParams.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	response, err := h.executor.ListUserAchievements(c.Request.Context(), userID, queryParams.Limit, queryParams.Offset)
	if err != nil {
		respondInternalError(c, err, "Failed to list achievements")
		return
	}

	c.JSON(http.StatusOK, response)
}

// HealthCheck returns the health status of the API
func (h *handler) HealthCheck(c *gin.Context) {
	if err := h.executor.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unavailable",
			"service":  "achievement-minter",
			"database": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "achievement-minter",
	})
}
