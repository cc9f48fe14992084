package jobs

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"compliance-console/internal/backend"
	"compliance-console/internal/status"
)

// Job is an analysis job in console form: canonical status, display name
// derived when the backend supplied none. IDs are always
// backend-assigned; the console never invents job ids.
type Job struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Workload        string `json:"workload"`
	Country         string `json:"country"`
	Industry        string `json:"industry"`
	Status          string `json:"status"`
	CreatedAt       string `json:"createdAt"`
	Timestamp       int64  `json:"timestamp,omitempty"`
	ReportAvailable bool   `json:"reportAvailable"`
}

// FromAPI converts a backend job into console form.
func FromAPI(api backend.APIJob) Job {
	name := strings.TrimSpace(api.AnalysisName)
	if name == "" {
		name = fmt.Sprintf("%s - %s (%s)", api.Industry, api.Workload, api.Country)
	}

	mapped := status.Map(api.Status)
	return Job{
		ID:        api.JobID,
		Name:      name,
		Workload:  api.Workload,
		Country:   api.Country,
		Industry:  api.Industry,
		Status:    mapped,
		CreatedAt: time.Now().UTC().Format("2006-01-02"), // backend omits creation dates
		Timestamp: api.Timestamp,
		ReportAvailable: mapped == status.Completed,
	}
}

// SortByTimestamp orders jobs newest first. Jobs without a timestamp sink
// to the end; their relative order is preserved.
func SortByTimestamp(jobs []Job) {
	sort.SliceStable(jobs, func(i, j int) bool {
		a, b := jobs[i], jobs[j]
		if a.Timestamp != 0 && b.Timestamp != 0 {
			return a.Timestamp > b.Timestamp
		}
		return a.Timestamp != 0 && b.Timestamp == 0
	})
}

// Filter returns the jobs matching a case-insensitive substring search on
// name or id and an exact canonical status. "all" bypasses the status
// filter. Empty search and "all" return the input order unchanged.
func Filter(jobs []Job, searchTerm, statusFilter string) []Job {
	needle := strings.ToLower(searchTerm)
	out := make([]Job, 0, len(jobs))
	for _, job := range jobs {
		matchesSearch := needle == "" ||
			strings.Contains(strings.ToLower(job.Name), needle) ||
			strings.Contains(strings.ToLower(job.ID), needle)
		matchesStatus := statusFilter == "all" || statusFilter == "" || job.Status == statusFilter
		if matchesSearch && matchesStatus {
			out = append(out, job)
		}
	}
	return out
}

// FilenameFromURL derives a download filename from a presigned URL's
// path, falling back when the last segment has no extension.
func FilenameFromURL(rawURL, defaultName string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return defaultName
	}
	segments := strings.Split(parsed.Path, "/")
	name := segments[len(segments)-1]
	if name != "" && strings.Contains(name, ".") {
		return name
	}
	return defaultName
}
