package assignment

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/mkabeya/kazi/core"
)

// Statuses
const (
	StatusActive = "active"
	StatusClosed = "closed"
)

// Business limits
const (
	// MaxActivePerTeacher caps how many assignments a teacher may have
	// open for submissions at the same time.
	MaxActivePerTeacher = 3

	// MaxStudents caps how many distinct students may work on one assignment.
	MaxStudents = 30
)

type Assignment struct {
	ID        string `json:"id"`
	TeacherID string `json:"teacher_id"`

	Title        string `json:"title"`
	Content      string `json:"content"`
	Instructions string `json:"instructions,omitempty"`

	// Code is the 6-character [A-Z0-9] code students use to access the
	// assignment. Unique across all assignments, stored uppercase.
	Code string `json:"code"`

	Status   string    `json:"status"`
	Deadline null.Time `json:"deadline"`

	ActivatedAt time.Time `json:"activated_at"` // UTC
	ClosedAt    null.Time `json:"closed_at"`

	// StudentCount caches the number of distinct students with work on
	// this assignment; recomputed after every save/submit.
	StudentCount int `json:"student_count"`
	MaxStudents  int `json:"max_students"`

	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

func (a *Assignment) IsActive() bool {
	return a.Status == StatusActive
}

// IsExpired reports whether the assignment deadline has passed at `now`.
// Assignments without a deadline never expire.
func (a *Assignment) IsExpired(now time.Time) bool {
	return a.Deadline.Valid && now.After(a.Deadline.Time)
}

// NewAssignment contains information needed to create a new Assignment.
type NewAssignment struct {
	Title        string    `json:"title" validate:"required"`
	Content      string    `json:"content" validate:"required"`
	Instructions string    `json:"instructions"`
	Deadline     null.Time `json:"deadline"`
}

func (na *NewAssignment) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.Content = core.CleanString(na.Content)
	na.Instructions = core.CleanString(na.Instructions)
	return validate.Struct(na)
}
