package backend

import (
	"encoding/json"
	"strings"
)

// APIJob is a job as reported by the compliance backend.
type APIJob struct {
	JobID                 string          `json:"job_id"`
	Country               string          `json:"country"`
	Industry              string          `json:"industry"`
	Workload              string          `json:"workload"`
	AnalysisName          string          `json:"analysis_name"`
	Status                string          `json:"status"`
	Timestamp             int64           `json:"timestamp,omitempty"`
	TemplateWithQuestions json.RawMessage `json:"template_with_questions,omitempty"`
}

// FileData is a document record as reported by the question-generator API.
type FileData struct {
	DocumentName    string `json:"document_name"`
	DocumentKey     string `json:"document_key"`
	DocumentFileKey string `json:"document_filekey"`
	MainJobID       string `json:"main_job_id"`
	JobID           string `json:"job_id"`
	Status          string `json:"status"`
}

// IngestedDocument is a knowledge-base document as reported by the
// data-indexing API.
type IngestedDocument struct {
	DocumentName    string `json:"document_name"`
	DocumentKey     string `json:"document_key"`
	DocumentFileKey string `json:"document_filekey"`
	JobID           string `json:"job_id"`
	Status          string `json:"status"`
	Timestamp       int64  `json:"timestamp"`
}

// CreateJobRequest is the payload for createAnalysisJob.
type CreateJobRequest struct {
	AnalysisName       string   `json:"analysis_name"`
	Workload           string   `json:"workload"`
	Country            string   `json:"country"`
	Industry           string   `json:"industry"`
	ReferenceQuestions []string `json:"reference_questions"`
}

// CreateJobResponse tolerates the three id spellings the backend has used.
type CreateJobResponse struct {
	JobIDSnake string `json:"job_id"`
	JobIDCamel string `json:"jobId"`
	ID         string `json:"id"`
}

// JobID returns whichever id field the backend populated.
func (r CreateJobResponse) JobID() string {
	for _, id := range []string{r.JobIDSnake, r.JobIDCamel, r.ID} {
		if strings.TrimSpace(id) != "" {
			return id
		}
	}
	return ""
}

// DocumentMetadata accompanies processDocument calls.
type DocumentMetadata struct {
	Filename string `json:"filename"`
	DocKey   string `json:"doc_key"`
}

// ProcessDocumentResult is the confirmation for a processed upload. The
// job_id here is the backend-assigned per-document id that replaces the
// optimistic one.
type ProcessDocumentResult struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// PresignedPost holds S3 presigned-POST fields. The upload is a plain
// multipart POST of fields plus the file to URL.
type PresignedPost struct {
	URL    string            `json:"url"`
	Fields map[string]string `json:"fields"`
}

type presignResponse struct {
	PresignedPost PresignedPost `json:"presigned_post"`
}

type reportResponse struct {
	PresignedURL string `json:"presigned_url"`
}

// itemList tolerates both {"items": [...]} envelopes and bare arrays.
type itemList[T any] struct {
	Items []T `json:"items"`
}

func decodeItems[T any](data []byte) ([]T, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var out []T
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, err
		}
		return out, nil
	}
	var wrapped itemList[T]
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Items, nil
}
