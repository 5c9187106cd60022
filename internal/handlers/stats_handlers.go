package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"ncaa-baseball/internal/models"
	"ncaa-baseball/internal/render"
	"ncaa-baseball/internal/services"
	"ncaa-baseball/internal/transform"
	"ncaa-baseball/pkg/logging"
	"ncaa-baseball/pkg/metrics"
)

// TeamStatsProvider builds team season reports
type TeamStatsProvider interface {
	GetTeamStats(ctx context.Context, schoolName string, season int) (*services.TeamReport, error)
}

// PlayerStatsProvider builds player career reports
type PlayerStatsProvider interface {
	GetPlayerCareer(ctx context.Context, playerName, schoolName string) (*services.PlayerReport, error)
}

// SchoolLister serves the school directory
type SchoolLister interface {
	ListSchools(ctx context.Context) ([]*models.School, error)
}

// HealthChecker reports store connectivity
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// StatsHandler handles stats API endpoints
type StatsHandler struct {
	teams   TeamStatsProvider
	players PlayerStatsProvider
	schools SchoolLister
	health  HealthChecker
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(
	teams TeamStatsProvider,
	players PlayerStatsProvider,
	schools SchoolLister,
	health HealthChecker,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *StatsHandler {
	return &StatsHandler{
		teams:   teams,
		players: players,
		schools: schools,
		health:  health,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// SchoolsResponse is the school directory
type SchoolsResponse struct {
	Data  []*models.School `json:"data"`
	Total int              `json:"total"`
}

// GetSchools handles GET /api/schools
func (h *StatsHandler) GetSchools(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/schools"
	ctx := r.Context()
	timer := h.metrics.NewTimer(h.metrics.APIRequestDuration.WithLabelValues(endpoint))
	defer timer.ObserveDuration()

	schools, err := h.schools.ListSchools(ctx)
	if err != nil {
		h.logger.Error(ctx, "[API_GET_SCHOOLS_ERROR] Failed to list schools", logging.Fields{}, err)
		h.metrics.RecordAPIError("internal_error", endpoint)
		h.sendError(w, r, "failed to retrieve schools", http.StatusInternalServerError)
		return
	}
	if schools == nil {
		schools = []*models.School{}
	}

	h.metrics.RecordAPIRequest(endpoint, r.Method, "200")
	h.sendJSON(w, r, SchoolsResponse{Data: schools, Total: len(schools)}, http.StatusOK)
}

// GetTeamStats handles GET /api/teams/stats
func (h *StatsHandler) GetTeamStats(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/teams/stats"
	ctx := r.Context()
	timer := h.metrics.NewTimer(h.metrics.APIRequestDuration.WithLabelValues(endpoint))
	defer timer.ObserveDuration()

	query := r.URL.Query()
	format, err := render.ParseFormat(query.Get("format"))
	if err != nil {
		h.handleServiceError(w, r, endpoint, err)
		return
	}

	yearStr := strings.TrimSpace(query.Get("year"))
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		h.handleServiceError(w, r, endpoint, &models.ValidationError{
			Field:   "year",
			Value:   yearStr,
			Message: "year must be an integer",
		})
		return
	}

	report, err := h.teams.GetTeamStats(ctx, query.Get("school"), year)
	if err != nil {
		h.handleServiceError(w, r, endpoint, err)
		return
	}

	if format == render.JSON {
		h.metrics.RecordAPIRequest(endpoint, r.Method, "200")
		h.sendJSON(w, r, report, http.StatusOK)
		return
	}

	title := fmt.Sprintf("%s %d (%s)", report.School, report.Season, report.Division)
	h.sendRendered(w, r, endpoint, format,
		render.Section{Title: title + " Batting", Table: report.Batting},
		render.Section{Title: title + " Pitching", Table: report.Pitching},
	)
}

// GetPlayerStats handles GET /api/players/stats
func (h *StatsHandler) GetPlayerStats(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/players/stats"
	ctx := r.Context()
	timer := h.metrics.NewTimer(h.metrics.APIRequestDuration.WithLabelValues(endpoint))
	defer timer.ObserveDuration()

	query := r.URL.Query()
	format, err := render.ParseFormat(query.Get("format"))
	if err != nil {
		h.handleServiceError(w, r, endpoint, err)
		return
	}

	report, err := h.players.GetPlayerCareer(ctx, query.Get("name"), query.Get("school"))
	if err != nil {
		h.handleServiceError(w, r, endpoint, err)
		return
	}

	if format == render.JSON {
		h.metrics.RecordAPIRequest(endpoint, r.Method, "200")
		h.sendJSON(w, r, report, http.StatusOK)
		return
	}

	title := fmt.Sprintf("%s (%s)", report.Player, report.School)
	h.sendRendered(w, r, endpoint, format,
		render.Section{Title: title + " Batting", Table: report.Batting},
		render.Section{Title: title + " Pitching", Table: report.Pitching},
	)
}

// HealthCheck handles GET /health
func (h *StatsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := h.health.HealthCheck(ctx); err != nil {
		h.logger.Warn(ctx, "[HEALTH_CHECK_FAILED] Store unreachable", logging.Fields{
			"error": err.Error(),
		})
		status["status"] = "unhealthy"
		h.sendJSON(w, r, status, http.StatusServiceUnavailable)
		return
	}

	h.logger.Debug(ctx, "[HEALTH_CHECK] Health check requested", logging.Fields{})
	h.sendJSON(w, r, status, http.StatusOK)
}

// handleServiceError maps a service error to a status code. Rejected input
// is the caller's fault; a table that cannot be built means the stored data
// no longer matches the column specs.
func (h *StatsHandler) handleServiceError(w http.ResponseWriter, r *http.Request, endpoint string, err error) {
	ctx := r.Context()

	var validation *models.ValidationError
	switch {
	case errors.As(err, &validation):
		h.metrics.RecordAPIError("validation_error", endpoint)
		h.sendError(w, r, validation.Message, http.StatusBadRequest)
	case transform.IsTableUnavailable(err):
		h.logger.Error(ctx, "[API_TABLE_UNAVAILABLE] Stored statistics do not match the table columns", logging.Fields{
			"endpoint": endpoint,
			"query":    r.URL.RawQuery,
		}, err)
		h.metrics.RecordAPIError("table_unavailable", endpoint)
		h.sendError(w, r, "statistics table unavailable", http.StatusBadGateway)
	default:
		h.logger.Error(ctx, "[API_STATS_ERROR] Failed to build report", logging.Fields{
			"endpoint": endpoint,
			"query":    r.URL.RawQuery,
		}, err)
		h.metrics.RecordAPIError("internal_error", endpoint)
		h.sendError(w, r, "failed to retrieve statistics", http.StatusInternalServerError)
	}
}

// sendRendered writes report sections as text, markdown, CSV or HTML
func (h *StatsHandler) sendRendered(w http.ResponseWriter, r *http.Request, endpoint string, format render.Format, sections ...render.Section) {
	var buf bytes.Buffer
	if err := render.Sections(&buf, format, sections...); err != nil {
		h.handleServiceError(w, r, endpoint, err)
		return
	}

	h.metrics.RecordAPIRequest(endpoint, r.Method, "200")
	w.Header().Set("Content-Type", format.ContentType())
	w.WriteHeader(http.StatusOK)
	h.write(w, r, buf.Bytes())
}

// sendJSON sends a JSON response. A value that cannot be encoded turns
// into a 500 before any header is written.
func (h *StatsHandler) sendJSON(w http.ResponseWriter, r *http.Request, data interface{}, statusCode int) {
	body, err := json.Marshal(data)
	if err != nil {
		h.logger.Error(r.Context(), "[API_ENCODE_ERROR] Failed to encode response", logging.Fields{
			"path": r.URL.Path,
		}, err)
		h.metrics.RecordAPIError("encode_error", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		h.write(w, r, []byte(`{"error":"Internal Server Error","message":"failed to encode response","code":500}`+"\n"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	h.write(w, r, append(body, '\n'))
}

// write sends body, logging clients that went away mid-response
func (h *StatsHandler) write(w http.ResponseWriter, r *http.Request, body []byte) {
	if _, err := w.Write(body); err != nil {
		h.logger.Warn(r.Context(), "[API_WRITE_ERROR] Failed to write response", logging.Fields{
			"path":  r.URL.Path,
			"bytes": len(body),
			"error": err.Error(),
		})
	}
}

// sendError sends an error response
func (h *StatsHandler) sendError(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	h.metrics.RecordAPIRequest(r.URL.Path, r.Method, strconv.Itoa(statusCode))

	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	h.sendJSON(w, r, response, statusCode)
}

// RegisterRoutes registers all stats API routes. OPTIONS is accepted so
// CORS preflight requests reach the middleware.
func (h *StatsHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/schools", h.GetSchools).Methods(http.MethodGet, http.MethodOptions)
	router.HandleFunc("/api/teams/stats", h.GetTeamStats).Methods(http.MethodGet, http.MethodOptions)
	router.HandleFunc("/api/players/stats", h.GetPlayerStats).Methods(http.MethodGet, http.MethodOptions)
	router.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	router.HandleFunc("/api/docs", h.SwaggerUI).Methods(http.MethodGet)
	router.HandleFunc(openAPIPath, h.OpenAPISpec).Methods(http.MethodGet)
}
