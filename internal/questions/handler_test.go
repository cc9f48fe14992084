package questions

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

type fakeLoader struct {
	template Template
	loadErr  error
	status   string
}

func (f *fakeLoader) LoadQuestions(ctx context.Context, jobID string) (Template, error) {
	return f.template, f.loadErr
}

func (f *fakeLoader) JobStatus(jobID string) string {
	return f.status
}

func newHandlerRouter(t *testing.T, loader *fakeLoader, saver *fakeSaver) (*gin.Engine, *Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := NewStore()
	store.Set("job-1", seedTemplate())
	handler := NewHandler(loader, NewEditor(store, saver))

	r := gin.New()
	handler.RegisterRoutes(r.Group("/"))
	return r, store
}

func post(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestGetQuestionsOrdersSections(t *testing.T) {
	loader := &fakeLoader{template: seedTemplate(), status: "ready_for_analysis"}
	r, _ := newHandlerRouter(t, loader, &fakeSaver{})

	req := httptest.NewRequest(http.MethodGet, "/jobs/job-1/questions", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Sections []struct {
			Name string `json:"name"`
		} `json:"sections"`
		TotalQuestions int  `json:"totalQuestions"`
		Locked         bool `json:"locked"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Sections) != 2 || resp.Sections[0].Name != "Capital" {
		t.Fatalf("sections = %+v", resp.Sections)
	}
	if resp.TotalQuestions != 5 {
		t.Fatalf("totalQuestions = %d", resp.TotalQuestions)
	}
	if resp.Locked {
		t.Fatal("questions should be editable when ready")
	}
}

func TestGetQuestionsNoTemplate(t *testing.T) {
	loader := &fakeLoader{template: nil}
	r, _ := newHandlerRouter(t, loader, &fakeSaver{})

	req := httptest.NewRequest(http.MethodGet, "/jobs/job-9/questions", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestEditQuestionViaHTTP(t *testing.T) {
	saver := &fakeSaver{}
	r, store := newHandlerRouter(t, &fakeLoader{status: "awaiting"}, saver)

	rec := post(r, "/jobs/job-1/questions/edit", `{"section":"Capital","index":1,"question":"updated"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	tpl, _ := store.Get("job-1")
	if tpl["Capital"].Questions[1] != "updated" {
		t.Fatalf("questions = %v", tpl["Capital"].Questions)
	}
	if saver.calls != 1 {
		t.Fatalf("saves = %d", saver.calls)
	}
}

func TestMutationsRejectedWhileLocked(t *testing.T) {
	saver := &fakeSaver{}
	r, store := newHandlerRouter(t, &fakeLoader{status: "analyzing"}, saver)

	rec := post(r, "/jobs/job-1/questions/edit", `{"section":"Capital","index":0,"question":"nope"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if saver.calls != 0 {
		t.Fatal("save attempted while locked")
	}
	tpl, _ := store.Get("job-1")
	if tpl["Capital"].Questions[0] != "q0" {
		t.Fatal("template mutated while locked")
	}
}

func TestMutationValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"empty question", "/jobs/job-1/questions/edit", `{"section":"Capital","index":0,"question":"  "}`, http.StatusBadRequest},
		{"index out of range", "/jobs/job-1/questions/delete", `{"section":"Capital","index":99}`, http.StatusBadRequest},
		{"unknown section", "/jobs/job-1/questions/add", `{"section":"Nope","question":"q"}`, http.StatusNotFound},
		{"malformed body", "/jobs/job-1/questions/add", `{not json`, http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, _ := newHandlerRouter(t, &fakeLoader{status: "awaiting"}, &fakeSaver{})
			rec := post(r, tc.path, tc.body)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tc.want, rec.Body.String())
			}
		})
	}
}

func TestSaveFailureReportsDivergence(t *testing.T) {
	saver := &fakeSaver{err: errors.New("backend down")}
	r, store := newHandlerRouter(t, &fakeLoader{status: "awaiting"}, saver)

	rec := post(r, "/jobs/job-1/questions/delete-section", `{"section":"Reporting"}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	tpl, _ := store.Get("job-1")
	if _, ok := tpl["Reporting"]; ok {
		t.Fatal("local deletion should stand even when the save fails")
	}
}
