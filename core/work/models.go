package work

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/mkabeya/kazi/core"
	"github.com/mkabeya/kazi/core/assignment"
)

// Statuses. One row per (assignment, student); a draft flips to final
// in place on submission and is immutable from then on.
const (
	StatusDraft = "draft"
	StatusFinal = "final"
)

type StudentWork struct {
	ID           string `json:"id"`
	AssignmentID string `json:"assignment_id"`
	StudentName  string `json:"student_name"`

	Content   string `json:"content"`
	WordCount int    `json:"word_count"`
	Status    string `json:"status"`

	// SaveCount tracks how many autosaves hit this row.
	SaveCount int `json:"-"`
	// IP records the address the work was first saved from, when known.
	IP string `json:"-"`

	LastSavedAt time.Time `json:"last_saved_at"` // UTC
	SubmittedAt null.Time `json:"submitted_at"`
	CreatedAt   time.Time `json:"created_at"` // UTC
}

func (w *StudentWork) IsFinal() bool {
	return w.Status == StatusFinal
}

// AccessRequest is a student's request to open an assignment by code.
type AccessRequest struct {
	StudentName    string `json:"student_name" validate:"required,min=2,max=50,studentname"`
	AssignmentCode string `json:"assignment_code" validate:"required"`
}

func (ar *AccessRequest) Validate(validate *validator.Validate) error {
	ar.StudentName = core.CleanString(ar.StudentName)
	ar.AssignmentCode = strings.ToUpper(core.CleanString(ar.AssignmentCode))
	return validate.Struct(ar)
}

// AccessResult is what a student sees on opening an assignment: the
// assignment's public fields plus their own draft, if one exists.
type AccessResult struct {
	Assignment assignment.Assignment `json:"assignment"`
	Work       *StudentWork          `json:"student_work,omitempty"`
	Returning  bool                  `json:"returning"`
}

// SaveRequest is a draft autosave payload.
type SaveRequest struct {
	AssignmentID string `json:"assignment_id" validate:"required"`
	StudentName  string `json:"student_name" validate:"required,min=2,max=50,studentname"`
	Content      string `json:"content"`
	IP           string `json:"-"`
}

func (sr *SaveRequest) Validate(validate *validator.Validate) error {
	sr.StudentName = core.CleanString(sr.StudentName)
	return validate.Struct(sr)
}

// SubmitRequest is a final, single-shot submission payload.
type SubmitRequest struct {
	AssignmentID string `json:"assignment_id" validate:"required"`
	StudentName  string `json:"student_name" validate:"required,min=2,max=50,studentname"`
	Content      string `json:"content" validate:"required"`
	IP           string `json:"-"`
}

func (sr *SubmitRequest) Validate(validate *validator.Validate) error {
	sr.StudentName = core.CleanString(sr.StudentName)
	if core.CleanString(sr.Content) == "" {
		sr.Content = ""
	}
	return validate.Struct(sr)
}
