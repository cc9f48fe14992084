// Package status normalizes the heterogeneous status vocabulary the
// compliance backend reports into the console's canonical one.
package status

import "strings"

// Canonical job statuses. Unrecognized backend statuses pass through
// lowercased, so comparisons against these constants stay meaningful
// without the mapper ever failing.
const (
	Completed         = "completed"
	ReadyForAnalysis  = "ready_for_analysis"
	Awaiting          = "awaiting"
	Processing        = "processing"
	QuestionAnswering = "question_answering"
	Analyzing         = "analyzing"
	Error             = "error"
)

// Map converts a raw backend status into the canonical vocabulary. It is
// pure and total: every input maps to something.
func Map(raw string) string {
	switch strings.ToUpper(raw) {
	case "SUCCESS":
		return Completed
	case "READY":
		return ReadyForAnalysis
	case "AWAITING":
		return Awaiting
	case "STRUCTURING":
		return Processing
	case "QUESTION_ANSWERING", "REPORT_GENERATION":
		return QuestionAnswering
	default:
		return strings.ToLower(raw)
	}
}

// QuestionsLocked reports whether question editing is disabled for a job
// status. Questions stay frozen while any analysis stage is running.
func QuestionsLocked(status string) bool {
	switch strings.ToLower(status) {
	case Analyzing, QuestionAnswering, Processing, "structuring":
		return true
	default:
		return false
	}
}

// Upload pipeline stages written into file records. The backend reports
// further stages (PAGE_CHUNKING, CHUNK_QUESTION_GENERATION, ...) that the
// console displays but never writes.
const (
	FileUploading          = "UPLOADING"
	FileDocumentProcessing = "DOCUMENT_PROCESSING"
	FileQuestionGeneration = "QUESTION_GENERATION"
)

var fileStatusLabels = map[string]string{
	"completed":                 "Completed",
	"success":                   "Success",
	"processing":                "Processing",
	"queued":                    "Queued",
	"error":                     "Error",
	"page_chunking":             "Page Chunking",
	"question_persistence":      "Question Persistence",
	"question_generation":       "Question Generation",
	"chunk_question_generation": "Chunk Question Generation",
	"document_processing":       "Document Processing",
	"uploading":                 "Uploading",
}

// FileStatusLabel returns the display label for a file status, falling
// back to Queued for anything unknown.
func FileStatusLabel(status string) string {
	if label, ok := fileStatusLabels[strings.ToLower(status)]; ok {
		return label
	}
	return fileStatusLabels["queued"]
}
