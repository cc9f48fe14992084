package questions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"compliance-console/internal/shared/telemetry"
)

var (
	// ErrTemplateNotLoaded means no template has been fetched for the job.
	ErrTemplateNotLoaded = errors.New("question template not loaded")
	// ErrUnknownSection means the named section is not in the template.
	ErrUnknownSection = errors.New("unknown template section")
	// ErrQuestionIndex means the question index is out of range.
	ErrQuestionIndex = errors.New("question index out of range")
	// ErrEmptyQuestion means the draft text was blank after trimming.
	ErrEmptyQuestion = errors.New("question text is empty")
	// ErrSaveInFlight means another save is outstanding. The local
	// mutation has still been applied; only the backend save was dropped.
	ErrSaveInFlight = errors.New("a template save is already in flight")
)

// Saver persists a full template document. The backend replaces the whole
// document on every save; there is no per-question patch.
type Saver interface {
	StoreQuestions(ctx context.Context, jobID string, template any) error
}

// Editor applies question edits locally first, then mirrors the entire
// updated template to the backend. A failed save is reported but never
// rolled back locally; state re-converges on the next full refetch.
type Editor struct {
	Store *Store
	Saver Saver

	mu     sync.Mutex
	saving bool
}

// NewEditor constructs an Editor over a store and a backend saver.
func NewEditor(store *Store, saver Saver) *Editor {
	return &Editor{Store: store, Saver: saver}
}

// EditQuestion replaces the question at [section][index] with the trimmed
// draft and saves the whole template.
func (e *Editor) EditQuestion(ctx context.Context, jobID, section string, index int, draft string) error {
	draft = strings.TrimSpace(draft)
	if draft == "" {
		return ErrEmptyQuestion
	}

	updated, err := e.mutate(jobID, func(t Template) (Template, error) {
		sec, ok := t[section]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSection, section)
		}
		if index < 0 || index >= len(sec.Questions) {
			return nil, fmt.Errorf("%w: %s[%d]", ErrQuestionIndex, section, index)
		}
		sec.Questions[index] = draft
		t[section] = sec
		return t, nil
	})
	if err != nil {
		return err
	}
	return e.save(ctx, jobID, updated)
}

// AddQuestion appends the trimmed draft to a section and saves the whole
// template.
func (e *Editor) AddQuestion(ctx context.Context, jobID, section, draft string) error {
	draft = strings.TrimSpace(draft)
	if draft == "" {
		return ErrEmptyQuestion
	}

	updated, err := e.mutate(jobID, func(t Template) (Template, error) {
		sec, ok := t[section]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSection, section)
		}
		sec.Questions = append(sec.Questions, draft)
		t[section] = sec
		return t, nil
	})
	if err != nil {
		return err
	}
	return e.save(ctx, jobID, updated)
}

// DeleteQuestion removes the question at [section][index] and saves the
// whole template.
func (e *Editor) DeleteQuestion(ctx context.Context, jobID, section string, index int) error {
	updated, err := e.mutate(jobID, func(t Template) (Template, error) {
		sec, ok := t[section]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSection, section)
		}
		if index < 0 || index >= len(sec.Questions) {
			return nil, fmt.Errorf("%w: %s[%d]", ErrQuestionIndex, section, index)
		}
		sec.Questions = append(sec.Questions[:index], sec.Questions[index+1:]...)
		t[section] = sec
		return t, nil
	})
	if err != nil {
		return err
	}
	return e.save(ctx, jobID, updated)
}

// DeleteSection removes a whole section and saves the template. The local
// removal happens before the backend call; a failed save does not
// re-insert the section.
func (e *Editor) DeleteSection(ctx context.Context, jobID, section string) error {
	updated, err := e.mutate(jobID, func(t Template) (Template, error) {
		if _, ok := t[section]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSection, section)
		}
		delete(t, section)
		return t, nil
	})
	if err != nil {
		return err
	}
	return e.save(ctx, jobID, updated)
}

// mutate clones the stored template, applies fn, and stores the result.
// The clone keeps untouched sections structurally shared-by-value so a
// failed validation never dirties the stored template.
func (e *Editor) mutate(jobID string, fn func(Template) (Template, error)) (Template, error) {
	current, ok := e.Store.Get(jobID)
	if !ok || current == nil {
		return nil, ErrTemplateNotLoaded
	}
	updated, err := fn(current.clone())
	if err != nil {
		return nil, err
	}
	e.Store.Set(jobID, updated)
	return updated, nil
}

func (e *Editor) save(ctx context.Context, jobID string, t Template) error {
	e.mu.Lock()
	if e.saving {
		e.mu.Unlock()
		return ErrSaveInFlight
	}
	e.saving = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.saving = false
		e.mu.Unlock()
	}()

	if err := e.Saver.StoreQuestions(ctx, jobID, t); err != nil {
		// Local state stays as mutated; the caller surfaces the failure
		// and the next full refetch reconciles.
		telemetry.Warn("questions.save.failed", map[string]any{
			"job_id": jobID,
			"err":    err.Error(),
		})
		return fmt.Errorf("store questions for job %s: %w", jobID, err)
	}
	return nil
}
