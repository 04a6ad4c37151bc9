package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/englishgpt-practice/internal/model"
	"github.com/stemsi/englishgpt-practice/internal/practice"
	"github.com/stemsi/englishgpt-practice/internal/response"
	"github.com/stemsi/englishgpt-practice/internal/service"
	"github.com/stemsi/englishgpt-practice/internal/validator"
)

// CategoryLister lists the exercise categories on offer.
type CategoryLister interface {
	Categories(ctx context.Context) ([]model.Category, error)
}

// PracticeHandler handles practice session endpoints.
type PracticeHandler struct {
	practiceService *service.PracticeService
	catalog         CategoryLister
	log             zerolog.Logger
}

// NewPracticeHandler creates a new PracticeHandler.
func NewPracticeHandler(practiceService *service.PracticeService, catalog CategoryLister, log zerolog.Logger) *PracticeHandler {
	return &PracticeHandler{
		practiceService: practiceService,
		catalog:         catalog,
		log:             log.With().Str("component", "practice_handler").Logger(),
	}
}

// ListCategories godoc
// GET /api/v1/practice/categories
func (h *PracticeHandler) ListCategories(c *gin.Context) {
	categories, err := h.catalog.Categories(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("List categories failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"categories": categories})
}

// CreateSession godoc
// POST /api/v1/practice/sessions
// Opens an idle session on the requested category.
func (h *PracticeHandler) CreateSession(c *gin.Context) {
	var req model.CreateSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	id, snap, err := h.practiceService.CreateSession(c.Request.Context(), req.Category)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusCreated, model.SessionView{ID: id, Snapshot: snap})
}

// GetSession godoc
// GET /api/v1/practice/sessions/:session_id
func (h *PracticeHandler) GetSession(c *gin.Context) {
	h.command(c, h.practiceService.State)
}

// DeleteSession godoc
// DELETE /api/v1/practice/sessions/:session_id
func (h *PracticeHandler) DeleteSession(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	if err := h.practiceService.CloseSession(id); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"id": id, "closed": true})
}

// Start godoc
// POST /api/v1/practice/sessions/:session_id/start
func (h *PracticeHandler) Start(c *gin.Context) { h.command(c, h.practiceService.Start) }

// Pause godoc
// POST /api/v1/practice/sessions/:session_id/pause
func (h *PracticeHandler) Pause(c *gin.Context) { h.command(c, h.practiceService.Pause) }

// Resume godoc
// POST /api/v1/practice/sessions/:session_id/resume
func (h *PracticeHandler) Resume(c *gin.Context) { h.command(c, h.practiceService.Resume) }

// Submit godoc
// POST /api/v1/practice/sessions/:session_id/submit
func (h *PracticeHandler) Submit(c *gin.Context) { h.command(c, h.practiceService.Submit) }

// Reset godoc
// POST /api/v1/practice/sessions/:session_id/reset
func (h *PracticeHandler) Reset(c *gin.Context) { h.command(c, h.practiceService.Reset) }

// Review godoc
// POST /api/v1/practice/sessions/:session_id/review
func (h *PracticeHandler) Review(c *gin.Context) { h.command(c, h.practiceService.Review) }

// NextCategory godoc
// POST /api/v1/practice/sessions/:session_id/next-category
func (h *PracticeHandler) NextCategory(c *gin.Context) {
	h.command(c, h.practiceService.NextCategory)
}

// SelectCategory godoc
// PUT /api/v1/practice/sessions/:session_id/category
func (h *PracticeHandler) SelectCategory(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	var req model.SelectCategoryRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	snap, err := h.practiceService.SelectCategory(c.Request.Context(), id, req.Category)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, model.SessionView{ID: id, Snapshot: snap})
}

// RecordAnswer godoc
// PUT /api/v1/practice/sessions/:session_id/answers
func (h *PracticeHandler) RecordAnswer(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	var req model.RecordAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	snap, err := h.practiceService.RecordAnswer(c.Request.Context(), id, *req.QuestionIndex, *req.OptionIndex)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, model.SessionView{ID: id, Snapshot: snap})
}

// GetExercise godoc
// GET /api/v1/practice/sessions/:session_id/exercise
// Returns the session's questions without correct answers.
func (h *PracticeHandler) GetExercise(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	set, err := h.practiceService.ExerciseSet(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, model.NewExercisePaper(set))
}

// GetResult godoc
// GET /api/v1/practice/sessions/:session_id/result
func (h *PracticeHandler) GetResult(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	summary, err := h.practiceService.Result(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, practice.ErrIllegalState) {
			response.FailWithDetail(c, http.StatusConflict, response.ErrResultNotReady, err.Error())
			return
		}
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, summary)
}

func (h *PracticeHandler) command(c *gin.Context, op func(context.Context, uuid.UUID) (practice.Snapshot, error)) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	snap, err := op(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, model.SessionView{ID: id, Snapshot: snap})
}

func (h *PracticeHandler) fail(c *gin.Context, err error) {
	status, code := classify(err)
	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("Practice request failed")
		response.Fail(c, status, code)
		return
	}
	response.FailWithDetail(c, status, code, err.Error())
}

func sessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}
