package questions

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"compliance-console/internal/shared/server/respond"
	"compliance-console/internal/status"
)

// Loader fetches a job's question template on first access and reports
// the job's current status. Implemented by the jobs service.
type Loader interface {
	LoadQuestions(ctx context.Context, jobID string) (Template, error)
	JobStatus(jobID string) string
}

// Handler wires HTTP handlers to the question editor.
type Handler struct {
	Loader Loader
	Editor *Editor
}

// NewHandler constructs a Handler.
func NewHandler(loader Loader, editor *Editor) *Handler {
	return &Handler{Loader: loader, Editor: editor}
}

// RegisterRoutes attaches question routes to the router group. Section
// names contain spaces, so mutations address sections in JSON bodies
// rather than path segments.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/jobs/:id/questions", h.get)
	rg.POST("/jobs/:id/questions/edit", h.edit)
	rg.POST("/jobs/:id/questions/add", h.add)
	rg.POST("/jobs/:id/questions/delete", h.deleteQuestion)
	rg.POST("/jobs/:id/questions/delete-section", h.deleteSection)
}

type templateResponse struct {
	Sections       []NamedSection `json:"sections"`
	TotalQuestions int            `json:"totalQuestions"`
	Locked         bool           `json:"locked"`
}

func (h *Handler) get(c *gin.Context) {
	jobID := c.Param("id")

	template, err := h.Loader.LoadQuestions(c.Request.Context(), jobID)
	if err != nil {
		respond.Error(c, http.StatusBadGateway, "backend_error", "failed to load question template", nil)
		return
	}
	if template == nil {
		respond.Error(c, http.StatusNotFound, "not_found", "no question template for this job yet", nil)
		return
	}

	respond.OK(c, templateResponse{
		Sections:       template.Ordered(),
		TotalQuestions: template.TotalQuestions(),
		Locked:         status.QuestionsLocked(h.Loader.JobStatus(jobID)),
	})
}

// locked rejects mutations while an analysis stage is running.
func (h *Handler) locked(c *gin.Context, jobID string) bool {
	if status.QuestionsLocked(h.Loader.JobStatus(jobID)) {
		respond.Error(c, http.StatusConflict, "questions_locked", "questions cannot be edited while analysis is running", nil)
		return true
	}
	return false
}

type mutationRequest struct {
	Section  string `json:"section"`
	Index    int    `json:"index"`
	Question string `json:"question"`
}

func (h *Handler) edit(c *gin.Context) {
	jobID := c.Param("id")
	if h.locked(c, jobID) {
		return
	}
	var req mutationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	h.finish(c, h.Editor.EditQuestion(c.Request.Context(), jobID, req.Section, req.Index, req.Question))
}

func (h *Handler) add(c *gin.Context) {
	jobID := c.Param("id")
	if h.locked(c, jobID) {
		return
	}
	var req mutationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	h.finish(c, h.Editor.AddQuestion(c.Request.Context(), jobID, req.Section, req.Question))
}

func (h *Handler) deleteQuestion(c *gin.Context) {
	jobID := c.Param("id")
	if h.locked(c, jobID) {
		return
	}
	var req mutationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	h.finish(c, h.Editor.DeleteQuestion(c.Request.Context(), jobID, req.Section, req.Index))
}

func (h *Handler) deleteSection(c *gin.Context) {
	jobID := c.Param("id")
	if h.locked(c, jobID) {
		return
	}
	var req mutationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	h.finish(c, h.Editor.DeleteSection(c.Request.Context(), jobID, req.Section))
}

// finish maps editor outcomes onto HTTP. A failed backend save still
// leaves the local template mutated, so that case reports the divergence
// instead of pretending nothing happened.
func (h *Handler) finish(c *gin.Context, err error) {
	switch {
	case err == nil:
		respond.OK(c, gin.H{"saved": true})
	case errors.Is(err, ErrEmptyQuestion), errors.Is(err, ErrQuestionIndex):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrTemplateNotLoaded), errors.Is(err, ErrUnknownSection):
		respond.Error(c, http.StatusNotFound, "not_found", err.Error(), nil)
	case errors.Is(err, ErrSaveInFlight):
		respond.Error(c, http.StatusConflict, "save_in_flight", "another save is still running; change applied locally only", nil)
	default:
		respond.Error(c, http.StatusBadGateway, "backend_error", "template updated locally but the save failed", nil)
	}
}
