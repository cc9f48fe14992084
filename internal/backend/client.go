package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"compliance-console/internal/backend/token"
)

// APIError carries the HTTP status and raw response body of a failed
// backend call. The backend defines no structured error codes.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend request failed: %d %s", e.Status, e.Body)
}

// Client talks to the compliance backend's REST APIs with bearer auth.
type Client struct {
	httpClient *http.Client
	tokens     token.Source

	jobsBase  string
	qgenBase  string
	indexBase string
}

// New constructs a Client. A zero timeout leaves the transport default in
// place, matching how the original console issued requests.
func New(jobsBase, qgenBase, indexBase string, tokens token.Source, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
		jobsBase:   strings.TrimRight(jobsBase, "/"),
		qgenBase:   strings.TrimRight(qgenBase, "/"),
		indexBase:  strings.TrimRight(indexBase, "/"),
	}
}

// QueryJobs lists all analysis jobs.
func (c *Client) QueryJobs(ctx context.Context) ([]APIJob, error) {
	data, err := c.do(ctx, http.MethodGet, c.jobsBase+"/compliance-report/jobs/query", nil)
	if err != nil {
		return nil, err
	}
	return decodeItems[APIJob](data)
}

// QueryJob returns a single job including its question template.
func (c *Client) QueryJob(ctx context.Context, jobID string) (APIJob, error) {
	var job APIJob
	data, err := c.do(ctx, http.MethodGet, c.jobsBase+"/compliance-report/jobs/query/"+jobID, nil)
	if err != nil {
		return APIJob{}, err
	}
	if err := json.Unmarshal(data, &job); err != nil {
		return APIJob{}, fmt.Errorf("decode job %s: %w", jobID, err)
	}
	return job, nil
}

// CreateAnalysisJob creates a new analysis job and returns its id.
func (c *Client) CreateAnalysisJob(ctx context.Context, req CreateJobRequest) (string, error) {
	data, err := c.do(ctx, http.MethodPost, c.jobsBase+"/compliance-report/createAnalysisJob", req)
	if err != nil {
		return "", err
	}
	var resp CreateJobResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("decode create job response: %w", err)
	}
	if resp.JobID() == "" {
		return "", fmt.Errorf("create job response carried no job id")
	}
	return resp.JobID(), nil
}

// ReportLayout submits a template document for layout generation. The
// payload is the template object with job_id injected at the top level.
func (c *Client) ReportLayout(ctx context.Context, jobID string, template map[string]any) error {
	payload := make(map[string]any, len(template)+1)
	for k, v := range template {
		payload[k] = v
	}
	payload["job_id"] = jobID
	_, err := c.do(ctx, http.MethodPost, c.jobsBase+"/compliance-report/reportLayout", payload)
	return err
}

// StoreQuestions persists a full question template. The backend contract
// is whole-document replace; there is no per-question patch.
func (c *Client) StoreQuestions(ctx context.Context, jobID string, template any) error {
	payload := map[string]any{
		"job_id":                  jobID,
		"template_with_questions": template,
	}
	_, err := c.do(ctx, http.MethodPost, c.jobsBase+"/compliance-report/storeQuestions", payload)
	return err
}

// StartAnalysis kicks off the multi-agent analysis pipeline for a job.
func (c *Client) StartAnalysis(ctx context.Context, jobID string) error {
	_, err := c.do(ctx, http.MethodPost, c.jobsBase+"/compliance-report/startAnalysis", map[string]string{"job_id": jobID})
	return err
}

// ReportURL returns the presigned download URL for a finished report.
func (c *Client) ReportURL(ctx context.Context, jobID string) (string, error) {
	data, err := c.do(ctx, http.MethodGet, c.jobsBase+"/compliance-report/report/"+jobID, nil)
	if err != nil {
		return "", err
	}
	var resp reportResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("decode report response: %w", err)
	}
	if resp.PresignedURL == "" {
		return "", fmt.Errorf("report response carried no presigned url")
	}
	return resp.PresignedURL, nil
}

// QueryFiles lists document records across jobs.
func (c *Client) QueryFiles(ctx context.Context) ([]FileData, error) {
	data, err := c.do(ctx, http.MethodGet, c.qgenBase+"/compliance-report/question-generator/jobs/query", nil)
	if err != nil {
		return nil, err
	}
	return decodeItems[FileData](data)
}

// PresignUpload obtains presigned-POST fields for a document upload.
func (c *Client) PresignUpload(ctx context.Context, fileName string) (PresignedPost, error) {
	url := c.qgenBase + "/compliance-report/question-generator/upload/banking-core/" + fileName
	return c.presign(ctx, url)
}

// ProcessDocument registers an uploaded document with its owning job and
// returns the backend-assigned document record.
func (c *Client) ProcessDocument(ctx context.Context, key, mainJobID string, meta DocumentMetadata) (ProcessDocumentResult, error) {
	payload := map[string]any{
		"key":         key,
		"main_job_id": mainJobID,
		"metadata":    meta,
	}
	data, err := c.do(ctx, http.MethodPost, c.qgenBase+"/compliance-report/question-generator/processDocument", payload)
	if err != nil {
		return ProcessDocumentResult{}, err
	}
	var result ProcessDocumentResult
	if err := json.Unmarshal(data, &result); err != nil {
		return ProcessDocumentResult{}, fmt.Errorf("decode process document response: %w", err)
	}
	return result, nil
}

// QueryIngestedDocuments lists knowledge-base documents.
func (c *Client) QueryIngestedDocuments(ctx context.Context) ([]IngestedDocument, error) {
	data, err := c.do(ctx, http.MethodGet, c.indexBase+"/compliance-report/data-indexing", nil)
	if err != nil {
		return nil, err
	}
	return decodeItems[IngestedDocument](data)
}

// PresignKnowledgeBaseUpload obtains presigned-POST fields for a
// knowledge-base document.
func (c *Client) PresignKnowledgeBaseUpload(ctx context.Context, fileName string) (PresignedPost, error) {
	url := c.indexBase + "/compliance-report/data-indexing/upload/banking-core/" + fileName
	return c.presign(ctx, url)
}

// ProcessKnowledgeBaseDocument starts ingestion of an uploaded
// knowledge-base document.
func (c *Client) ProcessKnowledgeBaseDocument(ctx context.Context, key string, meta DocumentMetadata) (ProcessDocumentResult, error) {
	payload := map[string]any{
		"key":      key,
		"metadata": meta,
	}
	data, err := c.do(ctx, http.MethodPost, c.indexBase+"/compliance-report/data-indexing/processDocument", payload)
	if err != nil {
		return ProcessDocumentResult{}, err
	}
	var result ProcessDocumentResult
	if err := json.Unmarshal(data, &result); err != nil {
		return ProcessDocumentResult{}, fmt.Errorf("decode process document response: %w", err)
	}
	return result, nil
}

// Fetch retrieves an unauthenticated URL, typically a presigned S3 object.
// The caller owns the returned body.
func (c *Client) Fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}
	return resp.Body, nil
}

func (c *Client) presign(ctx context.Context, url string) (PresignedPost, error) {
	data, err := c.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return PresignedPost{}, err
	}
	var resp presignResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return PresignedPost{}, fmt.Errorf("decode presign response: %w", err)
	}
	if resp.PresignedPost.URL == "" {
		return PresignedPost{}, fmt.Errorf("presign response carried no upload url")
	}
	return resp.PresignedPost, nil
}

func (c *Client) do(ctx context.Context, method, url string, body any) ([]byte, error) {
	tok, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Status: resp.StatusCode, Body: string(data)}
	}
	return data, nil
}
