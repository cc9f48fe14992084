package knowledgebase

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"compliance-console/internal/pagination"
	"compliance-console/internal/shared/server/respond"
)

const maxUploadBytes = 50 << 20

// Handler wires HTTP handlers to the knowledge-base service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches knowledge-base routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/knowledge-base/documents", h.list)
	rg.POST("/knowledge-base/documents", h.upload)
}

type listResponse struct {
	Documents  []Document `json:"documents"`
	Stats      Stats      `json:"stats"`
	TotalPages int        `json:"totalPages"`
	Page       int        `json:"page"`
	StartIndex int        `json:"startIndex"`
	EndIndex   int        `json:"endIndex"`
}

func (h *Handler) list(c *gin.Context) {
	docs, err := h.Svc.List(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusBadGateway, "backend_error", "failed to list knowledge base documents", nil)
		return
	}

	stats := Summarize(docs)

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

	filtered := FilterDocs(docs, c.Query("search"), c.Query("status"))
	paged := pagination.Paginate(filtered, page, perPage)

	respond.OK(c, listResponse{
		Documents:  paged.Slice,
		Stats:      stats,
		TotalPages: paged.TotalPages,
		Page:       pagination.ClampPage(page, paged.TotalPages),
		StartIndex: paged.StartIndex,
		EndIndex:   paged.EndIndex,
	})
}

func (h *Handler) upload(c *gin.Context) {
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

	names := make([]string, 0, len(fileHeaders))
	readers := make([]io.Reader, 0, len(fileHeaders))
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
		names = append(names, fh.Filename)
		readers = append(readers, f)
	}

	results := h.Svc.Upload(c.Request.Context(), names, readers)

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
