package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"compliance-console/internal/backend"
	"compliance-console/internal/files"
	"compliance-console/internal/questions"
	"compliance-console/internal/shared/metrics"
	"compliance-console/internal/shared/telemetry"
	"compliance-console/internal/status"
)

var (
	// ErrNotFound means the job id is not in the session store.
	ErrNotFound = errors.New("job not found")
	// ErrInvalidInput means client-side validation rejected the request
	// before any backend contact.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidTemplate means an uploaded template was not valid JSON.
	ErrInvalidTemplate = errors.New("invalid template document")
)

// Backend is the slice of the compliance backend the job service drives.
type Backend interface {
	QueryJobs(ctx context.Context) ([]backend.APIJob, error)
	QueryJob(ctx context.Context, jobID string) (backend.APIJob, error)
	QueryFiles(ctx context.Context) ([]backend.FileData, error)
	CreateAnalysisJob(ctx context.Context, req backend.CreateJobRequest) (string, error)
	StartAnalysis(ctx context.Context, jobID string) error
	ReportLayout(ctx context.Context, jobID string, template map[string]any) error
	ReportURL(ctx context.Context, jobID string) (string, error)
	Fetch(ctx context.Context, url string) (io.ReadCloser, error)
}

// Service owns the job collection and orchestrates backend calls with
// optimistic local transitions.
type Service struct {
	Backend   Backend
	Jobs      *Store
	Files     *files.Store
	Questions *questions.Store
}

// Refresh refetches jobs and files, replacing session state wholesale and
// dropping loaded question templates. A files failure is non-critical:
// the job list still refreshes and the file collection is left as is.
func (s *Service) Refresh(ctx context.Context) error {
	apiJobs, err := s.Backend.QueryJobs(ctx)
	if err != nil {
		return fmt.Errorf("query jobs: %w", err)
	}

	jobs := make([]Job, 0, len(apiJobs))
	for _, api := range apiJobs {
		jobs = append(jobs, FromAPI(api))
	}
	SortByTimestamp(jobs)
	s.Jobs.ReplaceAll(jobs)
	s.Questions.Clear()
	// pending uploads from an abandoned session do not survive a refresh
	s.Files.CleanupPending()

	fileData, err := s.Backend.QueryFiles(ctx)
	if err != nil {
		telemetry.Warn("files.refresh.failed", map[string]any{"err": err.Error()})
		return nil
	}
	records := make([]files.Record, 0, len(fileData))
	for _, fd := range fileData {
		records = append(records, files.Record{
			DocumentName:    fd.DocumentName,
			DocumentKey:     fd.DocumentKey,
			DocumentFileKey: fd.DocumentFileKey,
			MainJobID:       fd.MainJobID,
			JobID:           fd.JobID,
			Status:          fd.Status,
		})
	}
	s.Files.ReplaceAll(records)
	return nil
}

// CreateInput is a create-job request before validation.
type CreateInput struct {
	AnalysisName       string
	Workload           string
	Country            string
	Industry           string
	ReferenceQuestions []string
}

// Validate applies the client-side gate: every field non-blank and at
// least one reference question. Nothing reaches the network on failure.
func (in CreateInput) Validate() error {
	missing := []string{}
	if strings.TrimSpace(in.AnalysisName) == "" {
		missing = append(missing, "analysisName")
	}
	if strings.TrimSpace(in.Workload) == "" {
		missing = append(missing, "workload")
	}
	if strings.TrimSpace(in.Country) == "" {
		missing = append(missing, "country")
	}
	if strings.TrimSpace(in.Industry) == "" {
		missing = append(missing, "industry")
	}
	if len(in.ReferenceQuestions) == 0 {
		missing = append(missing, "referenceQuestions")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(missing, ", "))
	}
	return nil
}

// Create validates, creates the job on the backend, and records it
// locally in the awaiting state.
func (s *Service) Create(ctx context.Context, in CreateInput) (Job, error) {
	if err := in.Validate(); err != nil {
		return Job{}, err
	}

	jobID, err := s.Backend.CreateAnalysisJob(ctx, backend.CreateJobRequest{
		AnalysisName:       strings.TrimSpace(in.AnalysisName),
		Workload:           strings.TrimSpace(in.Workload),
		Country:            strings.TrimSpace(in.Country),
		Industry:           strings.TrimSpace(in.Industry),
		ReferenceQuestions: in.ReferenceQuestions,
	})
	if err != nil {
		return Job{}, fmt.Errorf("create analysis job: %w", err)
	}

	job := Job{
		ID:        jobID,
		Name:      strings.TrimSpace(in.AnalysisName),
		Workload:  strings.TrimSpace(in.Workload),
		Country:   strings.TrimSpace(in.Country),
		Industry:  strings.TrimSpace(in.Industry),
		Status:    status.Awaiting,
		CreatedAt: time.Now().UTC().Format("2006-01-02"),
	}
	s.Jobs.Add(job)
	metrics.IncJobsCreated()

	telemetry.Info("job.created", map[string]any{
		"job_id":              jobID,
		"workload":            job.Workload,
		"country":             job.Country,
		"industry":            job.Industry,
		"reference_questions": len(in.ReferenceQuestions),
	})
	return job, nil
}

// RunAnalysis transitions the job to analyzing optimistically, then asks
// the backend to start. On failure the status reverts to
// ready_for_analysis and the error surfaces; nothing is retried.
func (s *Service) RunAnalysis(ctx context.Context, jobID string) error {
	if _, ok := s.Jobs.Get(jobID); !ok {
		return ErrNotFound
	}

	s.Jobs.UpdateStatus(jobID, status.Analyzing)
	metrics.IncAnalysisStarted()

	if err := s.Backend.StartAnalysis(ctx, jobID); err != nil {
		s.Jobs.UpdateStatus(jobID, status.ReadyForAnalysis)
		metrics.IncAnalysisFailed()
		return fmt.Errorf("start analysis for job %s: %w", jobID, err)
	}
	return nil
}

// GenerateTemplate submits a report layout for the job. A caller-supplied
// document must be valid JSON; a malformed one is rejected before any
// backend contact. Without one the built-in default layout is used.
func (s *Service) GenerateTemplate(ctx context.Context, jobID string, rawTemplate []byte) error {
	if _, ok := s.Jobs.Get(jobID); !ok {
		return ErrNotFound
	}

	template := DefaultTemplate()
	if len(rawTemplate) > 0 {
		var uploaded map[string]any
		if err := json.Unmarshal(rawTemplate, &uploaded); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
		}
		template = uploaded
	}

	if err := s.Backend.ReportLayout(ctx, jobID, template); err != nil {
		return fmt.Errorf("report layout for job %s: %w", jobID, err)
	}
	return nil
}

// LoadQuestions fetches the job detail and caches its question template.
// Satisfies the questions handler's loader contract.
func (s *Service) LoadQuestions(ctx context.Context, jobID string) (questions.Template, error) {
	if cached, ok := s.Questions.Get(jobID); ok {
		return cached, nil
	}

	api, err := s.Backend.QueryJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("query job %s: %w", jobID, err)
	}
	template, err := questions.ParseTemplate(api.TemplateWithQuestions)
	if err != nil {
		return nil, err
	}
	if template != nil {
		s.Questions.Set(jobID, template)
	}
	return template, nil
}

// JobStatus returns the current canonical status for a job, empty when
// unknown.
func (s *Service) JobStatus(jobID string) string {
	job, ok := s.Jobs.Get(jobID)
	if !ok {
		return ""
	}
	return job.Status
}

// DownloadReport resolves the presigned report URL and opens it. The
// caller owns the returned body.
func (s *Service) DownloadReport(ctx context.Context, jobID string) (io.ReadCloser, string, error) {
	if _, ok := s.Jobs.Get(jobID); !ok {
		return nil, "", ErrNotFound
	}

	url, err := s.Backend.ReportURL(ctx, jobID)
	if err != nil {
		return nil, "", fmt.Errorf("report url for job %s: %w", jobID, err)
	}
	body, err := s.Backend.Fetch(ctx, url)
	if err != nil {
		return nil, "", fmt.Errorf("fetch report for job %s: %w", jobID, err)
	}
	return body, FilenameFromURL(url, "report.md"), nil
}
