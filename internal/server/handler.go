package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/thep200/workflow-popularity/api"
	"github.com/thep200/workflow-popularity/internal/model"
	"github.com/thep200/workflow-popularity/pkg/log"
)

type workflowQuery interface {
	List(ctx context.Context, source, region string) ([]model.WorkflowView, error)
	Stats(ctx context.Context) (*model.Stats, error)
}

type refresher interface {
	StartCollection() (string, error)
	GetCollectionStats() *api.CollectionStats
}

// Handler serves the workflow API.
type Handler struct {
	Logger    log.Logger
	query     workflowQuery
	refresher refresher
}

func NewHandler(logger log.Logger, query workflowQuery, refresher refresher) *Handler {
	return &Handler{
		Logger:    logger,
		query:     query,
		refresher: refresher,
	}
}

// RegisterRoutes sets up the HTTP routes
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.health)
	e.GET("/workflows", h.getWorkflows)
	e.POST("/workflows/refresh", h.refreshWorkflows)
	e.GET("/workflows/refresh/status", h.refreshStatus)
	e.GET("/workflows/stats", h.getStats)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

type errorResponse struct {
	Error string `json:"error"`
}

type workflowFilters struct {
	Platform *string `json:"platform"`
	Country  *string `json:"country"`
}

type workflowsResponse struct {
	TotalCount int                  `json:"total_count"`
	Filters    workflowFilters      `json:"filters"`
	Workflows  []model.WorkflowView `json:"workflows"`
}

type refreshResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	RunID   string `json:"run_id,omitempty"`
}

func (h *Handler) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (h *Handler) getWorkflows(c echo.Context) error {
	platform := c.QueryParam("platform")
	country := c.QueryParam("country")

	var filters workflowFilters
	if platform != "" {
		if _, ok := model.ParseSource(platform); !ok {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "unknown platform: " + platform})
		}
		filters.Platform = &platform
	}
	if country != "" {
		if !validCountry(country) {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid country: " + country})
		}
		filters.Country = &country
	}

	workflows, err := h.query.List(c.Request().Context(), platform, country)
	if err != nil {
		h.Logger.Error(c.Request().Context(), "Failed to fetch workflows: %v", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to fetch workflows"})
	}

	return c.JSON(http.StatusOK, workflowsResponse{
		TotalCount: len(workflows),
		Filters:    filters,
		Workflows:  workflows,
	})
}

func (h *Handler) refreshWorkflows(c echo.Context) error {
	runID, err := h.refresher.StartCollection()
	if errors.Is(err, api.ErrAlreadyRunning) {
		return c.JSON(http.StatusOK, refreshResponse{
			Status:  "Collection already running",
			Message: "A workflow collection is in progress",
		})
	}
	if err != nil {
		h.Logger.Error(c.Request().Context(), "Failed to start collection: %v", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, refreshResponse{
		Status:  "Collection started",
		Message: "Workflow data is being updated",
		RunID:   runID,
	})
}

func (h *Handler) refreshStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, h.refresher.GetCollectionStats())
}

func (h *Handler) getStats(c echo.Context) error {
	stats, err := h.query.Stats(c.Request().Context())
	if err != nil {
		h.Logger.Error(c.Request().Context(), "Failed to compute stats: %v", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to compute stats"})
	}
	return c.JSON(http.StatusOK, stats)
}

// validCountry accepts the global sentinel or a short alphabetic country code.
func validCountry(s string) bool {
	if strings.EqualFold(s, model.RegionGlobal) {
		return true
	}
	if len(s) < 2 || len(s) > 3 {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
