package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/ilindan-dev/fact-scheduler/internal/config"
	"github.com/ilindan-dev/fact-scheduler/internal/domain/model"
	repo "github.com/ilindan-dev/fact-scheduler/internal/domain/repository"
	"github.com/ilindan-dev/fact-scheduler/internal/service"
)

type Handlers struct {
	schedule        *service.ScheduleService
	feed            *service.FeedService
	facts           repo.FactRepository
	queue           repo.PendingQueue
	defaultLanguage string
	logger          zerolog.Logger
}

// NewHandlers creates a new instance of Handlers.
func NewHandlers(
	cfg *config.Config,
	schedule *service.ScheduleService,
	feed *service.FeedService,
	facts repo.FactRepository,
	queue repo.PendingQueue,
	logger *zerolog.Logger,
) *Handlers {
	return &Handlers{
		schedule:        schedule,
		feed:            feed,
		facts:           facts,
		queue:           queue,
		defaultLanguage: cfg.Scheduler.Language,
		logger:          logger.With().Str("layer", "http_handler").Logger(),
	}
}

// RegisterRoutes sets up the routing for the scheduling API.
func (h *Handlers) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	{
		api.POST("/facts", h.CreateFact)
		api.GET("/feed", h.GetFeed)

		schedule := api.Group("/schedule")
		{
			schedule.POST("/topup", h.TopUpSchedule)
			schedule.POST("/clear", h.ClearSchedule)
			schedule.POST("/immediate", h.ShowImmediateFact)
			schedule.GET("/status", h.GetScheduleStatus)
			schedule.PUT("/permission", h.SetPermission)
		}
	}
}

// CreateFact handles the HTTP request for ingesting a new fact.
func (h *Handlers) CreateFact(c *gin.Context) {
	var req CreateFactRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn().Err(err).Msg("invalid request body")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	fact, err := h.facts.Save(c.Request.Context(), model.NewFact(req.Language, req.Text, req.Category, req.ImageURL))
	if err != nil {
		if errors.Is(err, repo.ErrDuplicateRecord) {
			c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
			return
		}
		h.logger.Error().Err(err).Msg("failed to create fact")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to create fact"})
		return
	}

	c.JSON(http.StatusCreated, toFactResponse(fact))
}

// GetFeed handles the HTTP request for the shown-facts feed.
func (h *Handlers) GetFeed(c *gin.Context) {
	language := c.DefaultQuery("language", h.defaultLanguage)

	facts, err := h.feed.Feed(c.Request.Context(), language)
	if err != nil {
		h.logger.Error().Err(err).Str("language", language).Msg("failed to load feed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to load feed"})
		return
	}

	out := make([]FactResponse, 0, len(facts))
	for i := range facts {
		out = append(out, toFactResponse(&facts[i]))
	}
	c.JSON(http.StatusOK, out)
}

// TopUpSchedule handles the HTTP request to refill the notification schedule.
func (h *Handlers) TopUpSchedule(c *gin.Context) {
	result := h.schedule.TopUp(c.Request.Context())
	if !result.Success && !result.Skipped {
		c.JSON(http.StatusInternalServerError, toScheduleResultResponse(result))
		return
	}
	c.JSON(http.StatusOK, toScheduleResultResponse(result))
}

// ClearSchedule handles the HTTP request to cancel pending notifications.
func (h *Handlers) ClearSchedule(c *gin.Context) {
	var req ClearScheduleRequest
	// An empty body means the default: keep past-due facts in the feed.
	_ = c.ShouldBindJSON(&req)

	result := h.schedule.ClearAll(c.Request.Context(), req.ClearPastScheduledDates)
	if !result.Success {
		c.JSON(http.StatusInternalServerError, toScheduleResultResponse(result))
		return
	}
	c.JSON(http.StatusOK, toScheduleResultResponse(result))
}

// ShowImmediateFact handles the HTTP request to deliver one fact right away.
func (h *Handlers) ShowImmediateFact(c *gin.Context) {
	result := h.schedule.ShowImmediateFact(c.Request.Context())
	if !result.Success {
		c.JSON(http.StatusInternalServerError, toScheduleResultResponse(result))
		return
	}
	c.JSON(http.StatusOK, toScheduleResultResponse(result))
}

// GetScheduleStatus handles the HTTP request for queue and store counters.
func (h *Handlers) GetScheduleStatus(c *gin.Context) {
	status, err := h.schedule.Status(c.Request.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to read schedule status")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to read schedule status"})
		return
	}

	c.JSON(http.StatusOK, ScheduleStatusResponse{
		Enabled:      status.Enabled,
		PendingCount: status.PendingCount,
		StoreCount:   status.StoreCount,
		Cap:          status.Cap,
	})
}

// SetPermission handles the HTTP request to grant or revoke the opt-in.
func (h *Handlers) SetPermission(c *gin.Context) {
	var req SetPermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn().Err(err).Msg("invalid request body")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.queue.SetPermission(c.Request.Context(), *req.Granted); err != nil {
		h.logger.Error().Err(err).Msg("failed to update permission flag")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to update permission"})
		return
	}

	c.Status(http.StatusNoContent)
}
