package jobs

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"compliance-console/internal/backend"
	"compliance-console/internal/files"
	"compliance-console/internal/questions"
	"compliance-console/internal/status"
)

type fakeBackend struct {
	jobs      []backend.APIJob
	jobsErr   error
	job       backend.APIJob
	jobErr    error
	fileData  []backend.FileData
	filesErr  error
	createdID string
	createErr error
	startErr  error
	layoutErr error
	reportURL string
	urlErr    error
	fetchBody string
	fetchErr  error

	calls []string

	lastCreate backend.CreateJobRequest
	lastLayout map[string]any
}

func (f *fakeBackend) QueryJobs(ctx context.Context) ([]backend.APIJob, error) {
	f.calls = append(f.calls, "QueryJobs")
	return f.jobs, f.jobsErr
}

func (f *fakeBackend) QueryJob(ctx context.Context, jobID string) (backend.APIJob, error) {
	f.calls = append(f.calls, "QueryJob")
	return f.job, f.jobErr
}

func (f *fakeBackend) QueryFiles(ctx context.Context) ([]backend.FileData, error) {
	f.calls = append(f.calls, "QueryFiles")
	return f.fileData, f.filesErr
}

func (f *fakeBackend) CreateAnalysisJob(ctx context.Context, req backend.CreateJobRequest) (string, error) {
	f.calls = append(f.calls, "CreateAnalysisJob")
	f.lastCreate = req
	return f.createdID, f.createErr
}

func (f *fakeBackend) StartAnalysis(ctx context.Context, jobID string) error {
	f.calls = append(f.calls, "StartAnalysis")
	return f.startErr
}

func (f *fakeBackend) ReportLayout(ctx context.Context, jobID string, template map[string]any) error {
	f.calls = append(f.calls, "ReportLayout")
	f.lastLayout = template
	return f.layoutErr
}

func (f *fakeBackend) ReportURL(ctx context.Context, jobID string) (string, error) {
	f.calls = append(f.calls, "ReportURL")
	return f.reportURL, f.urlErr
}

func (f *fakeBackend) Fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	f.calls = append(f.calls, "Fetch")
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return io.NopCloser(strings.NewReader(f.fetchBody)), nil
}

func newService(fb *fakeBackend) *Service {
	return &Service{
		Backend:   fb,
		Jobs:      NewStore(),
		Files:     files.NewStore(),
		Questions: questions.NewStore(),
	}
}

func TestRefreshReplacesJobsAndFiles(t *testing.T) {
	fb := &fakeBackend{
		jobs: []backend.APIJob{
			{JobID: "old", AnalysisName: "Old", Status: "SUCCESS", Timestamp: 100},
			{JobID: "new", AnalysisName: "New", Status: "READY", Timestamp: 200},
		},
		fileData: []backend.FileData{
			{DocumentName: "doc.pdf", MainJobID: "new", JobID: "f1", Status: "SUCCESS"},
		},
	}
	svc := newService(fb)
	svc.Jobs.Add(Job{ID: "stale"})
	svc.Questions.Set("stale", questions.Template{})

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	list := svc.Jobs.List()
	if len(list) != 2 || list[0].ID != "new" {
		t.Fatalf("jobs after refresh = %+v", list)
	}
	if _, ok := svc.Jobs.Get("stale"); ok {
		t.Fatal("stale job survived refresh")
	}
	if _, ok := svc.Questions.Get("stale"); ok {
		t.Fatal("question templates not cleared on refresh")
	}
	if svc.Files.CountForJob("new") != 1 {
		t.Fatal("files not replaced on refresh")
	}
}

func TestRefreshFilesFailureIsNonCritical(t *testing.T) {
	fb := &fakeBackend{
		jobs:     []backend.APIJob{{JobID: "j1", Status: "READY"}},
		filesErr: errors.New("boom"),
	}
	svc := newService(fb)
	svc.Files.Add(files.Record{JobID: "f-old", MainJobID: "j1", Status: "SUCCESS"})

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh should tolerate a files failure, got %v", err)
	}
	if len(svc.Jobs.List()) != 1 {
		t.Fatal("jobs not refreshed")
	}
	if svc.Files.CountForJob("j1") != 1 {
		t.Fatal("file collection should be untouched when its fetch fails")
	}
}

func TestRefreshJobsFailureIsFatal(t *testing.T) {
	fb := &fakeBackend{jobsErr: errors.New("down")}
	svc := newService(fb)
	svc.Jobs.Add(Job{ID: "keep"})

	if err := svc.Refresh(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if _, ok := svc.Jobs.Get("keep"); !ok {
		t.Fatal("job collection must be untouched when the fetch fails")
	}
}

func TestCreateRejectsInvalidInputWithoutNetwork(t *testing.T) {
	tests := []struct {
		name  string
		input CreateInput
	}{
		{"all empty", CreateInput{}},
		{"blank name", CreateInput{AnalysisName: "  ", Workload: "w", Country: "c", Industry: "i", ReferenceQuestions: []string{"q"}}},
		{"missing questions", CreateInput{AnalysisName: "n", Workload: "w", Country: "c", Industry: "i"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fb := &fakeBackend{createdID: "never"}
			svc := newService(fb)

			_, err := svc.Create(context.Background(), tc.input)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("err = %v, want ErrInvalidInput", err)
			}
			if len(fb.calls) != 0 {
				t.Fatalf("backend reached on invalid input: %v", fb.calls)
			}
			if len(svc.Jobs.List()) != 0 {
				t.Fatal("job recorded despite rejected input")
			}
		})
	}
}

func TestCreateRecordsAwaitingJob(t *testing.T) {
	fb := &fakeBackend{createdID: "job-42"}
	svc := newService(fb)

	job, err := svc.Create(context.Background(), CreateInput{
		AnalysisName:       " Q3 audit ",
		Workload:           "payments",
		Country:            "DE",
		Industry:           "banking",
		ReferenceQuestions: []string{"Is data encrypted at rest?"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if job.ID != "job-42" {
		t.Fatalf("id = %q", job.ID)
	}
	if job.Name != "Q3 audit" {
		t.Fatalf("name = %q, whitespace should be trimmed", job.Name)
	}
	if job.Status != status.Awaiting {
		t.Fatalf("status = %q, want %q", job.Status, status.Awaiting)
	}
	if _, ok := svc.Jobs.Get("job-42"); !ok {
		t.Fatal("job not stored")
	}
	if fb.lastCreate.AnalysisName != "Q3 audit" {
		t.Fatalf("backend got name %q", fb.lastCreate.AnalysisName)
	}
}

func TestCreateBackendFailureAddsNothing(t *testing.T) {
	fb := &fakeBackend{createErr: errors.New("503")}
	svc := newService(fb)

	_, err := svc.Create(context.Background(), CreateInput{
		AnalysisName: "n", Workload: "w", Country: "c", Industry: "i",
		ReferenceQuestions: []string{"q"},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(svc.Jobs.List()) != 0 {
		t.Fatal("failed create must not record a job")
	}
}

func TestRunAnalysisOptimisticTransition(t *testing.T) {
	fb := &fakeBackend{}
	svc := newService(fb)
	svc.Jobs.Add(Job{ID: "j1", Status: status.ReadyForAnalysis})

	if err := svc.RunAnalysis(context.Background(), "j1"); err != nil {
		t.Fatalf("RunAnalysis: %v", err)
	}
	if job, _ := svc.Jobs.Get("j1"); job.Status != status.Analyzing {
		t.Fatalf("status = %q", job.Status)
	}
}

func TestRunAnalysisRevertsOnFailure(t *testing.T) {
	fb := &fakeBackend{startErr: errors.New("backend down")}
	svc := newService(fb)
	svc.Jobs.Add(Job{ID: "j1", Status: status.ReadyForAnalysis})

	if err := svc.RunAnalysis(context.Background(), "j1"); err == nil {
		t.Fatal("expected error")
	}
	if job, _ := svc.Jobs.Get("j1"); job.Status != status.ReadyForAnalysis {
		t.Fatalf("status = %q, want revert to %q", job.Status, status.ReadyForAnalysis)
	}
}

func TestRunAnalysisUnknownJob(t *testing.T) {
	fb := &fakeBackend{}
	svc := newService(fb)

	if err := svc.RunAnalysis(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if len(fb.calls) != 0 {
		t.Fatal("backend reached for unknown job")
	}
}

func TestGenerateTemplateDefaultsWhenNoDocument(t *testing.T) {
	fb := &fakeBackend{}
	svc := newService(fb)
	svc.Jobs.Add(Job{ID: "j1"})

	if err := svc.GenerateTemplate(context.Background(), "j1", nil); err != nil {
		t.Fatalf("GenerateTemplate: %v", err)
	}
	if fb.lastLayout == nil {
		t.Fatal("no layout submitted")
	}
	if _, ok := fb.lastLayout["Executive Summary"]; !ok {
		t.Fatal("default layout missing expected section")
	}
}

func TestGenerateTemplateRejectsMalformedJSONWithoutNetwork(t *testing.T) {
	fb := &fakeBackend{}
	svc := newService(fb)
	svc.Jobs.Add(Job{ID: "j1"})

	err := svc.GenerateTemplate(context.Background(), "j1", []byte("{not json"))
	if !errors.Is(err, ErrInvalidTemplate) {
		t.Fatalf("err = %v, want ErrInvalidTemplate", err)
	}
	if len(fb.calls) != 0 {
		t.Fatalf("backend reached with malformed template: %v", fb.calls)
	}
}

func TestGenerateTemplateUsesUploadedDocument(t *testing.T) {
	fb := &fakeBackend{}
	svc := newService(fb)
	svc.Jobs.Add(Job{ID: "j1"})

	raw := []byte(`{"Custom Section": {"description": "d", "order": 1}}`)
	if err := svc.GenerateTemplate(context.Background(), "j1", raw); err != nil {
		t.Fatalf("GenerateTemplate: %v", err)
	}
	if _, ok := fb.lastLayout["Custom Section"]; !ok {
		t.Fatalf("layout = %v", fb.lastLayout)
	}
}

func TestLoadQuestionsCachesTemplate(t *testing.T) {
	fb := &fakeBackend{
		job: backend.APIJob{
			JobID:                 "j1",
			TemplateWithQuestions: []byte(`{"Data Protection": {"description": "d", "order": 1, "questions": ["q1"]}}`),
		},
	}
	svc := newService(fb)
	svc.Jobs.Add(Job{ID: "j1"})

	tpl, err := svc.LoadQuestions(context.Background(), "j1")
	if err != nil {
		t.Fatalf("LoadQuestions: %v", err)
	}
	if tpl.TotalQuestions() != 1 {
		t.Fatalf("TotalQuestions = %d", tpl.TotalQuestions())
	}

	fb.calls = nil
	if _, err := svc.LoadQuestions(context.Background(), "j1"); err != nil {
		t.Fatalf("second load: %v", err)
	}
	if len(fb.calls) != 0 {
		t.Fatalf("cached template should skip the backend, calls = %v", fb.calls)
	}
}

func TestDownloadReport(t *testing.T) {
	fb := &fakeBackend{
		reportURL: "https://bucket.s3.amazonaws.com/out/final_report.md?sig=x",
		fetchBody: "# Report",
	}
	svc := newService(fb)
	svc.Jobs.Add(Job{ID: "j1", Status: status.Completed})

	body, filename, err := svc.DownloadReport(context.Background(), "j1")
	if err != nil {
		t.Fatalf("DownloadReport: %v", err)
	}
	defer body.Close()

	if filename != "final_report.md" {
		t.Fatalf("filename = %q", filename)
	}
	content, _ := io.ReadAll(body)
	if string(content) != "# Report" {
		t.Fatalf("content = %q", content)
	}
}

func TestDownloadReportFilenameFallback(t *testing.T) {
	fb := &fakeBackend{reportURL: "https://host/path/", fetchBody: "x"}
	svc := newService(fb)
	svc.Jobs.Add(Job{ID: "j1"})

	body, filename, err := svc.DownloadReport(context.Background(), "j1")
	if err != nil {
		t.Fatalf("DownloadReport: %v", err)
	}
	body.Close()
	if filename != "report.md" {
		t.Fatalf("filename = %q, want fallback", filename)
	}
}
