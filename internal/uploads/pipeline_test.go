package uploads

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"compliance-console/internal/backend"
	"compliance-console/internal/files"
	"compliance-console/internal/status"
)

type fakeUploadBackend struct {
	presignErr      error
	presignFailFrom int // 1-based call index from which presigns fail; 0 means every call
	processErr      error
	processID       string

	presigned []string
	processed []string
	storeURL  string
}

func (f *fakeUploadBackend) PresignUpload(ctx context.Context, fileName string) (backend.PresignedPost, error) {
	f.presigned = append(f.presigned, fileName)
	if f.presignErr != nil && len(f.presigned) >= f.presignFailFrom {
		return backend.PresignedPost{}, f.presignErr
	}
	return backend.PresignedPost{
		URL:    f.storeURL,
		Fields: map[string]string{"key": "docs/" + fileName, "policy": "p"},
	}, nil
}

func (f *fakeUploadBackend) ProcessDocument(ctx context.Context, key, mainJobID string, meta backend.DocumentMetadata) (backend.ProcessDocumentResult, error) {
	f.processed = append(f.processed, key)
	if f.processErr != nil {
		return backend.ProcessDocumentResult{}, f.processErr
	}
	return backend.ProcessDocumentResult{JobID: f.processID, Status: "QUEUED"}, nil
}

func newTestPipeline(t *testing.T, fb *fakeUploadBackend) (*Pipeline, *files.Store) {
	t.Helper()
	store := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if r.FormValue("policy") != "p" {
			http.Error(w, "missing presign field", http.StatusBadRequest)
			return
		}
		if _, _, err := r.FormFile("file"); err != nil {
			http.Error(w, "missing file part", http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(store.Close)
	fb.storeURL = store.URL

	fileStore := files.NewStore()
	return NewPipeline(fb, fileStore), fileStore
}

func TestUploadConfirmsRecordUnderRealID(t *testing.T) {
	fb := &fakeUploadBackend{processID: "doc-job-1"}
	pipeline, fileStore := newTestPipeline(t, fb)

	results := pipeline.Upload(context.Background(), "main-1", []Item{
		{Name: "my report (final).pdf", Content: strings.NewReader("content")},
	})

	if len(results) != 1 || results[0].Status != "accepted" {
		t.Fatalf("results = %+v", results)
	}
	if results[0].FileName != "myreportfinal.pdf" {
		t.Fatalf("sanitized name = %q", results[0].FileName)
	}

	recs := fileStore.ForJob("main-1")
	if len(recs) != 1 {
		t.Fatalf("records = %+v", recs)
	}
	rec := recs[0]
	if rec.JobID != "doc-job-1" {
		t.Fatalf("job id = %q, want confirmed id", rec.JobID)
	}
	if rec.Pending {
		t.Fatal("confirmed record still pending")
	}
	if rec.Status != status.FileQuestionGeneration {
		t.Fatalf("status = %q", rec.Status)
	}
	if fb.processed[0] != "docs/myreportfinal.pdf" {
		t.Fatalf("processed key = %q", fb.processed[0])
	}
}

func TestUploadFailureRemovesPendingAndContinues(t *testing.T) {
	fb := &fakeUploadBackend{processID: "doc-job-1", presignErr: errors.New("presign down"), presignFailFrom: 2}
	pipeline, fileStore := newTestPipeline(t, fb)

	results := pipeline.Upload(context.Background(), "main-1", []Item{
		{Name: "first.pdf", Content: strings.NewReader("a")},
		{Name: "second.pdf", Content: strings.NewReader("b")},
	})

	if results[0].Status != "accepted" {
		t.Fatalf("first result = %+v", results[0])
	}
	if results[1].Status != "failed" {
		t.Fatalf("second result = %+v", results[1])
	}

	recs := fileStore.ForJob("main-1")
	if len(recs) != 1 {
		t.Fatalf("records = %+v, failed upload must leave no trace", recs)
	}
	if recs[0].DocumentName != "first.pdf" {
		t.Fatalf("surviving record = %+v", recs[0])
	}
}

func TestUploadProcessFailureRemovesRecord(t *testing.T) {
	fb := &fakeUploadBackend{processErr: errors.New("backend rejected")}
	pipeline, fileStore := newTestPipeline(t, fb)

	results := pipeline.Upload(context.Background(), "main-1", []Item{
		{Name: "doc.pdf", Content: strings.NewReader("x")},
	})

	if results[0].Status != "failed" {
		t.Fatalf("result = %+v", results[0])
	}
	if got := len(fileStore.List()); got != 0 {
		t.Fatalf("records left = %d", got)
	}
}

func TestUploadRejectsUnsanitizableName(t *testing.T) {
	fb := &fakeUploadBackend{processID: "x"}
	pipeline, fileStore := newTestPipeline(t, fb)

	results := pipeline.Upload(context.Background(), "main-1", []Item{
		{Name: "!!!", Content: strings.NewReader("x")},
	})

	if results[0].Status != "failed" {
		t.Fatalf("result = %+v", results[0])
	}
	if len(fb.presigned) != 0 {
		t.Fatal("backend reached for empty sanitized name")
	}
	if len(fileStore.List()) != 0 {
		t.Fatal("record left behind")
	}
}

func TestStoreSendsPresignFieldsAndFile(t *testing.T) {
	var gotContent string
	store := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		gotContent = string(data)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer store.Close()

	err := PostObject(context.Background(), &http.Client{}, backend.PresignedPost{
		URL:    store.URL,
		Fields: map[string]string{"key": "k"},
	}, "doc.pdf", strings.NewReader("payload"))
	if err != nil {
		t.Fatalf("PostObject: %v", err)
	}
	if gotContent != "payload" {
		t.Fatalf("content = %q", gotContent)
	}
}

func TestStoreSurfacesRejection(t *testing.T) {
	store := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusForbidden)
	}))
	defer store.Close()

	err := PostObject(context.Background(), &http.Client{}, backend.PresignedPost{URL: store.URL}, "doc.pdf", strings.NewReader("x"))
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("err = %v", err)
	}
}
