// Package dashboard provides the REST API for the gamification dashboard.
// It exposes the signed-in user's session actions, progress read models, applications and reminders.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"

	"github.com/aimd54/kibo-gamification/internal/gateway"
	"github.com/aimd54/kibo-gamification/internal/models"
	"github.com/aimd54/kibo-gamification/internal/repository"
	"github.com/aimd54/kibo-gamification/internal/service/reminders"
	"github.com/aimd54/kibo-gamification/internal/service/session"
	"github.com/aimd54/kibo-gamification/internal/service/widgets"
	"github.com/aimd54/kibo-gamification/pkg/logger"
)

// ApplicationService manages the user's tracked applications.
type ApplicationService interface {
	CreateApplication(ctx context.Context, userID, company, role string) (*models.Application, error)
	ListApplications(ctx context.Context, userID string) ([]models.Application, error)
	MoveApplication(ctx context.Context, userID string, id uint, status string) (string, error)
}

// ReminderService manages the user's local reminders.
type ReminderService interface {
	Create(ctx context.Context, userID string, in reminders.Input) (*models.Reminder, bool, error)
	List(ctx context.Context, userID string) ([]models.Reminder, error)
	Delete(ctx context.Context, userID, id string) error
}

// Options tune the read models.
type Options struct {
	HeatmapDays  int
	Location     *time.Location
	RadarTargets widgets.RadarTargets
}

// Handler handles dashboard API requests.
type Handler struct {
	sessions     *session.Factory
	applications ApplicationService
	reminders    ReminderService
	clock        clockwork.Clock
	opts         Options
	log          *logger.Logger
}

// NewHandler creates a new dashboard handler. reminders may be nil when local reminders are disabled.
func NewHandler(sessions *session.Factory, applications ApplicationService, reminderService ReminderService, clock clockwork.Clock, opts Options, log *logger.Logger) *Handler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.HeatmapDays <= 0 {
		opts.HeatmapDays = widgets.DefaultHeatmapDays
	}
	return &Handler{
		sessions:     sessions,
		applications: applications,
		reminders:    reminderService,
		clock:        clock,
		opts:         opts,
		log:          log.Component("dashboard"),
	}
}

// session builds a per-request session whose effects are recorded for the response.
func (h *Handler) session(c *gin.Context) (*session.Session, *session.Recorder, bool) {
	identity, ok := identityFrom(c)
	if !ok {
		errorResponse(c, http.StatusUnauthorized, "not authenticated")
		return nil, nil, false
	}
	recorder := session.NewRecorder()
	return h.sessions.New(identity, recorder), recorder, true
}

// StartSession begins the user's day.
// POST /api/v1/me/session.
func (h *Handler) StartSession(c *gin.Context) {
	s, recorder, ok := h.session(c)
	if !ok {
		return
	}
	res := s.Start(c.Request.Context())
	h.mutationResponse(c, "start session", res.Value, res.Err, recorder)
}

type awardXPRequest struct {
	Action   string `json:"action" binding:"required"`
	CustomXP *int   `json:"custom_xp"`
}

// AwardXP grants XP for a named action.
// POST /api/v1/me/xp.
func (h *Handler) AwardXP(c *gin.Context) {
	var req awardXPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}
	s, recorder, ok := h.session(c)
	if !ok {
		return
	}
	res := s.AwardXP(c.Request.Context(), req.Action, req.CustomXP)
	h.mutationResponse(c, "award xp", res.Value, res.Err, recorder)
}

type problemRequest struct {
	Difficulty string `json:"difficulty" binding:"required"`
}

// RecordProblemSolved records a solved problem.
// POST /api/v1/me/problems.
func (h *Handler) RecordProblemSolved(c *gin.Context) {
	var req problemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}
	s, recorder, ok := h.session(c)
	if !ok {
		return
	}
	res := s.RecordProblemSolved(c.Request.Context(), req.Difficulty)
	h.mutationResponse(c, "record problem", res.Value, res.Err, recorder)
}

// RecordAssessment records a finished assessment.
// POST /api/v1/me/assessments.
func (h *Handler) RecordAssessment(c *gin.Context) {
	var req models.AssessmentSubmission
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}
	s, recorder, ok := h.session(c)
	if !ok {
		return
	}
	res := s.RecordAssessment(c.Request.Context(), req)
	h.mutationResponse(c, "record assessment", res.Value, res.Err, recorder)
}

type createApplicationRequest struct {
	Company string `json:"company" binding:"required"`
	Role    string `json:"role"`
}

// CreateApplication adds an application to the wishlist.
// POST /api/v1/me/applications.
func (h *Handler) CreateApplication(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		errorResponse(c, http.StatusUnauthorized, "not authenticated")
		return
	}
	var req createApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}

	app, err := h.applications.CreateApplication(c.Request.Context(), identity.UserID, req.Company, req.Role)
	if err != nil {
		h.failure(c, "create application", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"application": app})
}

// ListApplications returns the user's applications.
// GET /api/v1/me/applications.
func (h *Handler) ListApplications(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		errorResponse(c, http.StatusUnauthorized, "not authenticated")
		return
	}
	apps, err := h.applications.ListApplications(c.Request.Context(), identity.UserID)
	if err != nil {
		h.failure(c, "list applications", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"applications":  apps,
		"total_entries": len(apps),
	})
}

type moveApplicationRequest struct {
	Status string `json:"status" binding:"required"`
}

// MoveApplication changes an application's status and grants XP for the move.
// PATCH /api/v1/me/applications/:id/status.
func (h *Handler) MoveApplication(c *gin.Context) {
	id, err := parseApplicationID(c)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	var req moveApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}
	s, recorder, ok := h.session(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	old, err := h.applications.MoveApplication(ctx, s.Identity().UserID, id, req.Status)
	if err != nil {
		h.failure(c, "move application", err)
		return
	}

	res := s.RecordApplicationUpdate(ctx, old, req.Status)
	if !res.OK() {
		// The status change is stored; only the XP grant failed.
		h.log.Warn().Err(res.Err).Uint("application_id", id).Msg("Application moved without XP")
	}
	c.JSON(http.StatusOK, gin.H{
		"result":     res.Value,
		"old_status": old,
		"new_status": req.Status,
		"effects":    recorder.Effects(),
	})
}

// GetProgress returns level progress.
// GET /api/v1/me/progress.
func (h *Handler) GetProgress(c *gin.Context) {
	s, _, ok := h.session(c)
	if !ok {
		return
	}
	res := s.LevelProgress(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"progress": res.Value, "degraded": !res.OK()})
}

// GetStats returns summary stats.
// GET /api/v1/me/stats.
func (h *Handler) GetStats(c *gin.Context) {
	s, _, ok := h.session(c)
	if !ok {
		return
	}
	res := s.UserStats(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"stats": res.Value, "degraded": !res.OK()})
}

// GetActivities returns the daily activity rows of the last year.
// GET /api/v1/me/activities.
func (h *Handler) GetActivities(c *gin.Context) {
	s, _, ok := h.session(c)
	if !ok {
		return
	}
	res := s.DailyActivities(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"activities":    res.Value,
		"total_entries": len(res.Value),
		"degraded":      !res.OK(),
	})
}

// GetHeatmap returns the activity heatmap.
// GET /api/v1/me/heatmap.
func (h *Handler) GetHeatmap(c *gin.Context) {
	s, _, ok := h.session(c)
	if !ok {
		return
	}
	res := s.DailyActivities(c.Request.Context())
	today := h.clock.Now().In(h.opts.Location)
	c.JSON(http.StatusOK, gin.H{
		"heatmap":  widgets.BuildHeatmap(res.Value, today, h.opts.HeatmapDays),
		"calendar": widgets.StreakCalendar(res.Value, today),
		"degraded": !res.OK(),
	})
}

// GetRadar returns the skill radar.
// GET /api/v1/me/radar.
func (h *Handler) GetRadar(c *gin.Context) {
	s, _, ok := h.session(c)
	if !ok {
		return
	}
	res := s.UserStats(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"axes":     widgets.BuildRadar(&res.Value, h.opts.RadarTargets),
		"degraded": !res.OK(),
	})
}

// GetFunnel returns the application funnel.
// GET /api/v1/me/funnel.
func (h *Handler) GetFunnel(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		errorResponse(c, http.StatusUnauthorized, "not authenticated")
		return
	}
	apps, err := h.applications.ListApplications(c.Request.Context(), identity.UserID)
	if err != nil {
		h.failure(c, "list applications", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"funnel": widgets.BuildFunnel(apps)})
}

// GetLevels returns the level ladder.
// GET /api/v1/levels.
func (h *Handler) GetLevels(c *gin.Context) {
	s, _, ok := h.session(c)
	if !ok {
		return
	}
	res := s.LevelThresholds(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"levels":        res.Value,
		"total_entries": len(res.Value),
		"degraded":      !res.OK(),
	})
}

// CreateReminder schedules a reminder.
// POST /api/v1/me/reminders.
func (h *Handler) CreateReminder(c *gin.Context) {
	if !h.remindersEnabled(c) {
		return
	}
	identity, ok := identityFrom(c)
	if !ok {
		errorResponse(c, http.StatusUnauthorized, "not authenticated")
		return
	}
	var in reminders.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		errorResponse(c, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}

	r, armed, err := h.reminders.Create(c.Request.Context(), identity.UserID, in)
	if err != nil {
		h.failure(c, "create reminder", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"reminder": r,
		"fire_at":  r.FireAt(),
		"armed":    armed,
	})
}

// ListReminders returns the user's stored reminders.
// GET /api/v1/me/reminders.
func (h *Handler) ListReminders(c *gin.Context) {
	if !h.remindersEnabled(c) {
		return
	}
	identity, ok := identityFrom(c)
	if !ok {
		errorResponse(c, http.StatusUnauthorized, "not authenticated")
		return
	}
	list, err := h.reminders.List(c.Request.Context(), identity.UserID)
	if err != nil {
		h.failure(c, "list reminders", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"reminders":     list,
		"total_entries": len(list),
	})
}

// DeleteReminder cancels a reminder.
// DELETE /api/v1/me/reminders/:id.
func (h *Handler) DeleteReminder(c *gin.Context) {
	if !h.remindersEnabled(c) {
		return
	}
	identity, ok := identityFrom(c)
	if !ok {
		errorResponse(c, http.StatusUnauthorized, "not authenticated")
		return
	}
	if err := h.reminders.Delete(c.Request.Context(), identity.UserID, c.Param("id")); err != nil {
		h.failure(c, "delete reminder", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) remindersEnabled(c *gin.Context) bool {
	if h.reminders == nil {
		errorResponse(c, http.StatusNotFound, "reminders are disabled")
		return false
	}
	return true
}

// mutationResponse writes a mutation outcome with the effects it produced.
func (h *Handler) mutationResponse(c *gin.Context, operation string, value any, err error, recorder *session.Recorder) {
	if err != nil {
		h.failure(c, operation, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"result":  value,
		"effects": recorder.Effects(),
	})
}

func (h *Handler) failure(c *gin.Context, operation string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Str("operation", operation).Msg("Request failed")
		errorResponse(c, status, fmt.Sprintf("Failed to %s", operation))
		return
	}
	errorResponse(c, status, err.Error())
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var verr *reminders.ValidationError
	switch {
	case errors.As(err, &verr),
		errors.Is(err, gateway.ErrUnknownAction),
		errors.Is(err, gateway.ErrNegativeXP),
		errors.Is(err, gateway.ErrInvalidDifficulty),
		errors.Is(err, gateway.ErrInvalidStatus),
		errors.Is(err, gateway.ErrInvalidAssessment),
		errors.Is(err, gateway.ErrInvalidApplication):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrApplicationNotFound),
		errors.Is(err, repository.ErrProfileNotFound),
		errors.Is(err, repository.ErrReminderNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// parseApplicationID extracts and validates the application ID from the URL parameter.
func parseApplicationID(c *gin.Context) (uint, error) {
	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid application ID: %s", idStr)
	}
	return uint(id), nil
}

// errorResponse sends a standardized error response.
func errorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"error":     message,
		"timestamp": time.Now().UTC(),
	})
}
