// Package uploads runs the presign / store / process chain for job
// documents and keeps the file collection honest while it runs.
package uploads

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/google/uuid"

	"compliance-console/internal/backend"
	"compliance-console/internal/files"
	"compliance-console/internal/shared/metrics"
	"compliance-console/internal/shared/telemetry"
	"compliance-console/internal/shared/util"
	"compliance-console/internal/status"
)

// Backend is the slice of the backend the pipeline drives.
type Backend interface {
	PresignUpload(ctx context.Context, fileName string) (backend.PresignedPost, error)
	ProcessDocument(ctx context.Context, key, mainJobID string, meta backend.DocumentMetadata) (backend.ProcessDocumentResult, error)
}

// Item is one file submitted for upload.
type Item struct {
	Name    string
	Content io.Reader
}

// Result records the outcome of one file's chain.
type Result struct {
	FileName string `json:"fileName"`
	JobID    string `json:"jobId,omitempty"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
}

// Pipeline uploads documents one at a time. Files are independent: a
// failure removes that file's pending record and the chain moves on to
// the next file.
type Pipeline struct {
	Backend Backend
	Files   *files.Store
	// HTTP performs the presigned-POST store.
	HTTP *http.Client
}

// NewPipeline constructs a Pipeline with a default store client.
func NewPipeline(be Backend, fileStore *files.Store) *Pipeline {
	return &Pipeline{Backend: be, Files: fileStore, HTTP: &http.Client{}}
}

// Upload runs the chain for each item in order and returns one Result per
// item, in submission order.
func (p *Pipeline) Upload(ctx context.Context, mainJobID string, items []Item) []Result {
	results := make([]Result, 0, len(items))
	for _, item := range items {
		results = append(results, p.uploadOne(ctx, mainJobID, item))
	}
	return results
}

func (p *Pipeline) uploadOne(ctx context.Context, mainJobID string, item Item) Result {
	cleaned := util.CleanFileName(item.Name)
	if cleaned == "" {
		return Result{FileName: item.Name, Status: "failed", Error: "file name is empty after sanitizing"}
	}

	started := metrics.NowMillis()
	metrics.IncUploadStarted()

	pendingID := files.PendingID(uuid.NewString())
	docKey := util.DocKey(cleaned)
	p.Files.Add(files.Record{
		DocumentName: cleaned,
		DocumentKey:  docKey,
		MainJobID:    mainJobID,
		JobID:        pendingID,
		Status:       status.FileUploading,
		Pending:      true,
	})

	fail := func(stage string, err error) Result {
		p.Files.Remove(pendingID)
		metrics.IncUploadFailed()
		telemetry.Error("upload.failed", map[string]any{
			"file":        cleaned,
			"main_job_id": mainJobID,
			"stage":       stage,
			"err":         err.Error(),
		})
		return Result{FileName: cleaned, Status: "failed", Error: fmt.Sprintf("%s: %v", stage, err)}
	}

	post, err := p.Backend.PresignUpload(ctx, cleaned)
	if err != nil {
		return fail("presign", err)
	}

	if err := PostObject(ctx, p.HTTP, post, cleaned, item.Content); err != nil {
		return fail("store", err)
	}

	p.Files.UpdateStatus(pendingID, files.Record{
		DocumentName: cleaned,
		DocumentKey:  docKey,
		MainJobID:    mainJobID,
		JobID:        pendingID,
		Status:       status.FileDocumentProcessing,
		Pending:      true,
	})

	objectKey := post.Fields["key"]
	if objectKey == "" {
		objectKey = cleaned
	}
	confirmed, err := p.Backend.ProcessDocument(ctx, objectKey, mainJobID, backend.DocumentMetadata{
		Filename: cleaned,
		DocKey:   docKey,
	})
	if err != nil {
		return fail("process", err)
	}

	p.Files.UpdateStatus(pendingID, files.Record{
		DocumentName:    cleaned,
		DocumentKey:     docKey,
		DocumentFileKey: objectKey,
		MainJobID:       mainJobID,
		JobID:           confirmed.JobID,
		Status:          status.FileQuestionGeneration,
	})

	metrics.IncUploadCompleted()
	metrics.ObserveUploadDurationMs(metrics.NowMillis() - started)
	telemetry.Info("upload.completed", map[string]any{
		"file":        cleaned,
		"main_job_id": mainJobID,
		"job_id":      confirmed.JobID,
	})
	return Result{FileName: cleaned, JobID: confirmed.JobID, Status: "accepted"}
}

// PostObject performs the presigned POST: every presign field first, then
// the file part last, as S3 requires. The presigned URL carries its own
// auth, so no bearer token is sent.
func PostObject(ctx context.Context, client *http.Client, post backend.PresignedPost, fileName string, content io.Reader) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for name, value := range post.Fields {
		if err := writer.WriteField(name, value); err != nil {
			return err
		}
	}
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, content); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, post.URL, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("object store returned %d: %s", resp.StatusCode, body)
	}
	return nil
}
