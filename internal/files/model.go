package files

import "strings"

// pendingPrefix tags the synthetic job_id of an upload that the backend
// has not confirmed yet. It is the wire/key form only; code should branch
// on Record.Pending, never re-parse the prefix.
const pendingPrefix = "optimistic_"

// Record is one document tracked by the console, keyed by JobID. For
// in-flight uploads JobID is a synthesized correlation key; once the
// backend confirms, the record is replaced wholesale with the confirmed
// one under the real id.
type Record struct {
	DocumentName    string `json:"document_name"`
	DocumentKey     string `json:"document_key"`
	DocumentFileKey string `json:"document_filekey"`
	MainJobID       string `json:"main_job_id"`
	JobID           string `json:"job_id"`
	Status          string `json:"status"`
	Pending         bool   `json:"pending,omitempty"`
}

// PendingID builds the synthetic job_id for a local upload id.
func PendingID(localID string) string {
	return pendingPrefix + localID
}

// IsPendingID reports whether a job_id is a synthetic upload key. Used
// only when classifying records fetched before a refresh; live records
// carry the Pending flag.
func IsPendingID(jobID string) bool {
	return strings.HasPrefix(jobID, pendingPrefix)
}
