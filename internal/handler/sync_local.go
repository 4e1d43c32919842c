package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/viefmoon/bite-sub001/internal/activity"
	"github.com/viefmoon/bite-sub001/internal/models"
	"github.com/viefmoon/bite-sub001/internal/repository"
	"github.com/viefmoon/bite-sub001/internal/service"
)

const (
	defaultActivityLimit = 20
	maxActivityLimit     = 100
	defaultLogsLimit     = 50
)

type syncTrigger interface {
	TriggerSync(ctx context.Context) (*models.SyncLog, error)
}

// SyncLocalHandler serves the operator view of the sync engine. Trigger is
// nil when sync is disabled.
type SyncLocalHandler struct {
	Status   *service.StatusService
	Activity activity.Store
	Trigger  syncTrigger
	Runs     repository.SyncLogRepository
	Logger   *zap.Logger
}

func (h *SyncLocalHandler) Register(r *gin.Engine) {
	g := r.Group("/sync-local")
	g.GET("/status", h.status)
	g.GET("/activity", h.activity)
	g.POST("/trigger", h.trigger)
	g.GET("/logs", h.logs)
	g.GET("/logs/:id", h.logByID)
}

// @Summary Sync engine status
// @Tags sync
// @Produce json
// @Success 200 {object} service.SyncStatus
// @Router /sync-local/status [get]
func (h *SyncLocalHandler) status(c *gin.Context) {
	if h.Status == nil {
		Error(c, http.StatusServiceUnavailable, "status unavailable", nil)
		return
	}
	c.JSON(http.StatusOK, h.Status.Status(c.Request.Context()))
}

// @Summary Recent sync activity
// @Tags sync
// @Produce json
// @Param limit query int false "max events (default 20, max 100)"
// @Success 200 {array} models.SyncActivity
// @Router /sync-local/activity [get]
func (h *SyncLocalHandler) activity(c *gin.Context) {
	if h.Activity == nil {
		c.JSON(http.StatusOK, []models.SyncActivity{})
		return
	}
	limit := intQuery(c, "limit", defaultActivityLimit)
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
	}
	items, err := h.Activity.Recent(c.Request.Context(), limit)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	if items == nil {
		items = []models.SyncActivity{}
	}
	c.JSON(http.StatusOK, items)
}

// @Summary Run a full sync now
// @Tags sync
// @Produce json
// @Success 200 {object} models.SyncLog
// @Failure 409 {object} map[string]any
// @Failure 503 {object} map[string]any
// @Router /sync-local/trigger [post]
func (h *SyncLocalHandler) trigger(c *gin.Context) {
	if h.Trigger == nil {
		Error(c, http.StatusServiceUnavailable, "sync disabled", nil)
		return
	}
	run, err := h.Trigger.TriggerSync(c.Request.Context())
	if errors.Is(err, service.ErrSyncInProgress) {
		Error(c, http.StatusConflict, err.Error(), nil)
		return
	}
	if err != nil && run == nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	if err != nil && h.Logger != nil {
		h.Logger.Warn("manual sync ended fatally", zap.String("run_id", run.ID), zap.Error(err))
	}
	Ok(c, run, nil)
}

// @Summary Sync run history
// @Tags sync
// @Produce json
// @Param type query string false "FULL, ORDERS, CUSTOMERS, MENU, CONFIG"
// @Param status query string false "IN_PROGRESS, COMPLETED, FAILED, PARTIAL"
// @Param limit query int false "page size"
// @Param offset query int false "page offset"
// @Success 200 {object} map[string]any
// @Router /sync-local/logs [get]
func (h *SyncLocalHandler) logs(c *gin.Context) {
	if h.Runs == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	limit := intQuery(c, "limit", defaultLogsLimit)
	offset := intQuery(c, "offset", 0)
	params := repository.ListSyncLogsParams{
		Limit:   limit,
		Offset:  offset,
		OrderBy: "started_at",
		Asc:     boolPtr(false),
	}
	if v := strings.ToUpper(strings.TrimSpace(c.Query("type"))); v != "" {
		params.SyncType = &v
	}
	if v := strings.ToUpper(strings.TrimSpace(c.Query("status"))); v != "" {
		params.Status = &v
	}
	items, err := h.Runs.ListSyncLogs(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	total, err := h.Runs.CountSyncLogs(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

// @Summary Sync run by id
// @Tags sync
// @Produce json
// @Param id path string true "run id"
// @Success 200 {object} models.SyncLog
// @Failure 404 {object} map[string]any
// @Router /sync-local/logs/{id} [get]
func (h *SyncLocalHandler) logByID(c *gin.Context) {
	if h.Runs == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	id := strings.TrimSpace(c.Param("id"))
	item, err := h.Runs.GetSyncLog(c.Request.Context(), id)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "sync run not found", nil)
		return
	}
	Ok(c, item, nil)
}
