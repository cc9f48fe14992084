package uploads

import (
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"compliance-console/internal/shared/server/respond"
)

// maxUploadBytes bounds the whole multipart request.
const maxUploadBytes = 50 << 20

// JobChecker answers whether a job exists in the session.
type JobChecker interface {
	Has(jobID string) bool
}

// Handler wires HTTP handlers to the upload pipeline.
type Handler struct {
	Pipeline *Pipeline
	Jobs     JobChecker
}

// NewHandler constructs a Handler.
func NewHandler(pipeline *Pipeline, jobs JobChecker) *Handler {
	return &Handler{Pipeline: pipeline, Jobs: jobs}
}

// RegisterRoutes attaches upload routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/jobs/:id/documents", h.upload)
}

func (h *Handler) upload(c *gin.Context) {
	jobID := c.Param("id")
	if !h.Jobs.Has(jobID) {
		respond.Error(c, http.StatusNotFound, "not_found", "job not found", nil)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	form, err := c.MultipartForm()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid multipart form", nil)
		return
	}
	fileHeaders := form.File["files"]
	if len(fileHeaders) == 0 {
		fileHeaders = form.File["file"]
	}
	if len(fileHeaders) == 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "no files in request", nil)
		return
	}

	items := make([]Item, 0, len(fileHeaders))
	opened := make([]multipart.File, 0, len(fileHeaders))
	defer func() {
		for _, f := range opened {
			f.Close()
		}
	}()
	for _, fh := range fileHeaders {
		f, err := fh.Open()
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "failed to read uploaded file", nil)
			return
		}
		opened = append(opened, f)
		items = append(items, Item{Name: fh.Filename, Content: f})
	}

	results := h.Pipeline.Upload(c.Request.Context(), jobID, items)

	accepted := 0
	for _, r := range results {
		if r.Status == "accepted" {
			accepted++
		}
	}
	code := http.StatusAccepted
	if accepted == 0 {
		code = http.StatusBadGateway
	}
	respond.JSON(c, code, gin.H{"results": results, "accepted": accepted})
}
