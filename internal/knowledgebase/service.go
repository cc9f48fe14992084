// Package knowledgebase manages the shared regulatory document corpus:
// listing ingestion state and submitting new documents for indexing.
package knowledgebase

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"compliance-console/internal/backend"
	"compliance-console/internal/shared/metrics"
	"compliance-console/internal/shared/telemetry"
	"compliance-console/internal/shared/util"
	"compliance-console/internal/uploads"
)

// Ingestion statuses reported by the data-indexing API.
const (
	StatusDataIndexing = "DATA_INDEXING"
	StatusQAGeneration = "QA_GENERATION"
	StatusSuccess      = "SUCCESS"
	StatusError        = "ERROR"
)

// Backend is the slice of the data-indexing API the service drives.
type Backend interface {
	QueryIngestedDocuments(ctx context.Context) ([]backend.IngestedDocument, error)
	PresignKnowledgeBaseUpload(ctx context.Context, fileName string) (backend.PresignedPost, error)
	ProcessKnowledgeBaseDocument(ctx context.Context, key string, meta backend.DocumentMetadata) (backend.ProcessDocumentResult, error)
}

// Document is an ingested document in console form.
type Document struct {
	Name      string `json:"name"`
	Key       string `json:"key"`
	FileKey   string `json:"fileKey"`
	JobID     string `json:"jobId"`
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
}

// Stats summarizes the corpus for the dashboard cards. Processing counts
// both the indexing and question-generation stages.
type Stats struct {
	Total      int `json:"total"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}

// Service lists and grows the knowledge base. It holds no state of its
// own; every list is a fresh backend query.
type Service struct {
	Backend Backend
	HTTP    *http.Client
}

// NewService constructs a Service with a default store client.
func NewService(be Backend) *Service {
	return &Service{Backend: be, HTTP: &http.Client{}}
}

// List fetches all ingested documents, newest first.
func (s *Service) List(ctx context.Context) ([]Document, error) {
	ingested, err := s.Backend.QueryIngestedDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("query ingested documents: %w", err)
	}

	docs := make([]Document, 0, len(ingested))
	for _, d := range ingested {
		docs = append(docs, Document{
			Name:      d.DocumentName,
			Key:       d.DocumentKey,
			FileKey:   d.DocumentFileKey,
			JobID:     d.JobID,
			Status:    strings.ToUpper(d.Status),
			Timestamp: d.Timestamp,
		})
	}
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].Timestamp > docs[j].Timestamp
	})
	return docs, nil
}

// Summarize folds documents into dashboard stats.
func Summarize(docs []Document) Stats {
	stats := Stats{Total: len(docs)}
	for _, d := range docs {
		switch d.Status {
		case StatusDataIndexing, StatusQAGeneration:
			stats.Processing++
		case StatusSuccess:
			stats.Completed++
		case StatusError:
			stats.Failed++
		}
	}
	return stats
}

// FilterDocs returns documents matching a case-insensitive substring
// search on name and an exact status. "all" bypasses the status filter.
func FilterDocs(docs []Document, searchTerm, statusFilter string) []Document {
	needle := strings.ToLower(searchTerm)
	filter := strings.ToUpper(statusFilter)
	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		matchesSearch := needle == "" || strings.Contains(strings.ToLower(d.Name), needle)
		matchesStatus := filter == "ALL" || filter == "" || d.Status == filter
		if matchesSearch && matchesStatus {
			out = append(out, d)
		}
	}
	return out
}

// UploadResult records the outcome of one document's ingestion chain.
type UploadResult struct {
	FileName string `json:"fileName"`
	JobID    string `json:"jobId,omitempty"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
}

// Upload runs the presign / store / process chain for each document.
// No job id is involved: knowledge-base documents belong to the corpus,
// not to an analysis.
func (s *Service) Upload(ctx context.Context, names []string, contents []io.Reader) []UploadResult {
	results := make([]UploadResult, 0, len(names))
	for i, name := range names {
		results = append(results, s.uploadOne(ctx, name, contents[i]))
	}
	return results
}

func (s *Service) uploadOne(ctx context.Context, name string, content io.Reader) UploadResult {
	cleaned := util.CleanFileName(name)
	if cleaned == "" {
		return UploadResult{FileName: name, Status: "failed", Error: "file name is empty after sanitizing"}
	}

	fail := func(stage string, err error) UploadResult {
		telemetry.Error("knowledgebase.upload.failed", map[string]any{
			"file":  cleaned,
			"stage": stage,
			"err":   err.Error(),
		})
		return UploadResult{FileName: cleaned, Status: "failed", Error: fmt.Sprintf("%s: %v", stage, err)}
	}

	post, err := s.Backend.PresignKnowledgeBaseUpload(ctx, cleaned)
	if err != nil {
		return fail("presign", err)
	}
	if err := uploads.PostObject(ctx, s.HTTP, post, cleaned, content); err != nil {
		return fail("store", err)
	}

	objectKey := post.Fields["key"]
	if objectKey == "" {
		objectKey = cleaned
	}
	confirmed, err := s.Backend.ProcessKnowledgeBaseDocument(ctx, objectKey, backend.DocumentMetadata{
		Filename: cleaned,
		DocKey:   util.DocKey(cleaned),
	})
	if err != nil {
		return fail("process", err)
	}

	metrics.IncIngestSubmitted()
	telemetry.Info("knowledgebase.upload.completed", map[string]any{
		"file":   cleaned,
		"job_id": confirmed.JobID,
	})
	return UploadResult{FileName: cleaned, JobID: confirmed.JobID, Status: "accepted"}
}
