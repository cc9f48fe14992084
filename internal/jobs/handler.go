package jobs

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"compliance-console/internal/backend"
	"compliance-console/internal/files"
	"compliance-console/internal/pagination"
	"compliance-console/internal/shared/metrics"
	"compliance-console/internal/shared/server/respond"
	"compliance-console/internal/status"
)

// Handler wires HTTP handlers to the job service.
type Handler struct {
	Svc   *Service
	Files *files.Store
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, fileStore *files.Store) *Handler {
	return &Handler{Svc: svc, Files: fileStore}
}

// RegisterRoutes attaches job routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/jobs", h.list)
	rg.POST("/jobs", h.create)
	rg.GET("/jobs/:id", h.get)
	rg.GET("/jobs/:id/files", h.listFiles)
	rg.POST("/jobs/:id/analysis", h.runAnalysis)
	rg.POST("/jobs/:id/template", h.generateTemplate)
	rg.GET("/jobs/:id/report", h.downloadReport)
	rg.POST("/refresh", h.refresh)
}

// JobResponse is a job row with the per-job document rollups the list
// view renders alongside it.
type JobResponse struct {
	Job
	FileCount          int  `json:"fileCount"`
	HasSuccessfulFiles bool `json:"hasSuccessfulFiles"`
	QuestionsLocked    bool `json:"questionsLocked"`
}

type listResponse struct {
	Jobs       []JobResponse `json:"jobs"`
	TotalJobs  int           `json:"totalJobs"`
	TotalPages int           `json:"totalPages"`
	Page       int           `json:"page"`
	StartIndex int           `json:"startIndex"`
	EndIndex   int           `json:"endIndex"`
}

func (h *Handler) toResponse(job Job) JobResponse {
	return JobResponse{
		Job:                job,
		FileCount:          h.Files.CountForJob(job.ID),
		HasSuccessfulFiles: h.Files.HasSuccessful(job.ID),
		QuestionsLocked:    status.QuestionsLocked(job.Status),
	}
}

func (h *Handler) list(c *gin.Context) {
	search := c.Query("search")
	statusFilter := c.Query("status")

	page := 1
	if v := c.Query("page"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			page = parsed
		}
	}
	perPage := pagination.DefaultPerPage
	if v := c.Query("perPage"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			perPage = parsed
		}
	}

	filtered := Filter(h.Svc.Jobs.List(), search, statusFilter)
	paged := pagination.Paginate(filtered, page, perPage)

	resp := listResponse{
		Jobs:       make([]JobResponse, 0, len(paged.Slice)),
		TotalJobs:  len(filtered),
		TotalPages: paged.TotalPages,
		Page:       pagination.ClampPage(page, paged.TotalPages),
		StartIndex: paged.StartIndex,
		EndIndex:   paged.EndIndex,
	}
	for _, job := range paged.Slice {
		resp.Jobs = append(resp.Jobs, h.toResponse(job))
	}

	respond.OK(c, resp)
}

type createRequest struct {
	AnalysisName       string   `json:"analysisName"`
	Workload           string   `json:"workload"`
	Country            string   `json:"country"`
	Industry           string   `json:"industry"`
	ReferenceQuestions []string `json:"referenceQuestions"`
}

func (h *Handler) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	job, err := h.Svc.Create(c.Request.Context(), CreateInput{
		AnalysisName:       req.AnalysisName,
		Workload:           req.Workload,
		Country:            req.Country,
		Industry:           req.Industry,
		ReferenceQuestions: req.ReferenceQuestions,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respondBackendError(c, err, "failed to create job")
		}
		return
	}

	respond.JSON(c, http.StatusCreated, h.toResponse(job))
}

func (h *Handler) get(c *gin.Context) {
	job, ok := h.Svc.Jobs.Get(c.Param("id"))
	if !ok {
		respond.Error(c, http.StatusNotFound, "not_found", "job not found", nil)
		return
	}
	respond.OK(c, h.toResponse(job))
}

type fileResponse struct {
	files.Record
	StatusLabel string `json:"statusLabel"`
}

func (h *Handler) listFiles(c *gin.Context) {
	jobID := c.Param("id")
	if !h.Svc.Jobs.Has(jobID) {
		respond.Error(c, http.StatusNotFound, "not_found", "job not found", nil)
		return
	}

	records := h.Files.ForJob(jobID)
	resp := make([]fileResponse, 0, len(records))
	for _, rec := range records {
		resp = append(resp, fileResponse{
			Record:      rec,
			StatusLabel: status.FileStatusLabel(rec.Status),
		})
	}
	respond.OK(c, gin.H{"files": resp, "hasSuccessful": h.Files.HasSuccessful(jobID)})
}

func (h *Handler) runAnalysis(c *gin.Context) {
	jobID := c.Param("id")
	if err := h.Svc.RunAnalysis(c.Request.Context(), jobID); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "job not found", nil)
		default:
			respondBackendError(c, err, "failed to start analysis")
		}
		return
	}
	respond.JSON(c, http.StatusAccepted, gin.H{"id": jobID, "status": status.Analyzing})
}

func (h *Handler) generateTemplate(c *gin.Context) {
	jobID := c.Param("id")

	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "failed to read request body", nil)
		return
	}

	if err := h.Svc.GenerateTemplate(c.Request.Context(), jobID, raw); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "job not found", nil)
		case errors.Is(err, ErrInvalidTemplate):
			respond.Error(c, http.StatusBadRequest, "invalid_template", "template document is not valid JSON", nil)
		default:
			respondBackendError(c, err, "failed to submit report template")
		}
		return
	}
	respond.JSON(c, http.StatusAccepted, gin.H{"id": jobID})
}

func (h *Handler) downloadReport(c *gin.Context) {
	jobID := c.Param("id")

	body, filename, err := h.Svc.DownloadReport(c.Request.Context(), jobID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "job not found", nil)
		default:
			respondBackendError(c, err, "failed to download report")
		}
		return
	}
	defer body.Close()

	metrics.IncReportDownloaded()
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("Content-Type", "text/markdown; charset=utf-8")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, body); err != nil {
		// headers already flushed, nothing left to send
		_ = c.Error(err)
	}
}

func (h *Handler) refresh(c *gin.Context) {
	if err := h.Svc.Refresh(c.Request.Context()); err != nil {
		respondBackendError(c, err, "failed to refresh jobs")
		return
	}
	respond.OK(c, gin.H{"jobs": len(h.Svc.Jobs.List()), "files": len(h.Files.List())})
}

// respondBackendError maps upstream failures onto 502 and everything else
// onto 500.
func respondBackendError(c *gin.Context, err error, message string) {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		respond.Error(c, http.StatusBadGateway, "backend_error", message, gin.H{
			"upstreamStatus": apiErr.Status,
		})
		return
	}
	respond.Error(c, http.StatusInternalServerError, "internal_error", message, nil)
}
