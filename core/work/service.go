package work

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/mkabeya/kazi/core"
	"github.com/mkabeya/kazi/core/assignment"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound         = errors.New("student work not found")
	ErrNotActive        = errors.New("this assignment is not currently available")
	ErrExpired          = errors.New("the deadline for this assignment has passed")
	ErrAtCapacity       = fmt.Errorf("this assignment has reached its maximum capacity of %d students", assignment.MaxStudents)
	ErrAlreadySubmitted = errors.New("work has already been submitted and can no longer be modified")
)

type (
	Repository interface {
		// GetWork matches the student name case-insensitively.
		GetWork(ctx context.Context, assignmentID, studentName string) (StudentWork, error)
		UpsertWork(ctx context.Context, w StudentWork) (StudentWork, error)
		// QueryAssignmentWork returns all work rows, student name ascending.
		QueryAssignmentWork(ctx context.Context, assignmentID string) ([]StudentWork, error)
		CountDistinctStudents(ctx context.Context, assignmentID string) (int, error)
	}

	Service struct {
		repo    Repository
		asgRepo assignment.Repository
	}
)

func NewService(repo Repository, asgRepo assignment.Repository) *Service {
	return &Service{repo: repo, asgRepo: asgRepo}
}

// Access checks that a student may work on the assignment behind `code`
// and returns its public fields along with any existing draft. No work
// row is created here; that happens on the first save, so students who
// only ever look never occupy a slot.
func (svc *Service) Access(ctx context.Context, ar AccessRequest) (AccessResult, error) {
	asg, err := svc.asgRepo.GetAssignmentByCode(ctx, ar.AssignmentCode)
	if err != nil {
		return AccessResult{}, err
	}
	if !asg.IsActive() {
		return AccessResult{}, ErrNotActive
	}
	if asg.IsExpired(NowFunc().UTC()) {
		return AccessResult{}, ErrExpired
	}

	res := AccessResult{Assignment: asg}

	w, err := svc.repo.GetWork(ctx, asg.ID, ar.StudentName)
	switch errors.Cause(err) {
	case nil:
		if w.IsFinal() {
			return AccessResult{}, ErrAlreadySubmitted
		}
		res.Work = &w
		res.Returning = true
	case ErrNotFound:
		// first visit: the capacity check only applies to newcomers,
		// returning students always get back in
		count, cerr := svc.repo.CountDistinctStudents(ctx, asg.ID)
		if cerr != nil {
			return AccessResult{}, errors.Wrap(cerr, "counting students")
		}
		if count >= asg.MaxStudents {
			return AccessResult{}, ErrAtCapacity
		}
	default:
		return AccessResult{}, errors.Wrap(err, "finding existing work")
	}

	return res, nil
}

// Save upserts a student's draft. It is idempotent: saving the same
// content twice yields the same stored state, only the timestamp and
// save counter advance.
func (svc *Service) Save(ctx context.Context, sr SaveRequest) (StudentWork, error) {
	asg, err := svc.asgRepo.GetAssignment(ctx, sr.AssignmentID)
	if err != nil {
		return StudentWork{}, err
	}
	if !asg.IsActive() {
		return StudentWork{}, ErrNotActive
	}

	now := NowFunc().UTC()
	w, err := svc.repo.GetWork(ctx, asg.ID, sr.StudentName)
	isNew := false
	switch errors.Cause(err) {
	case nil:
		if w.IsFinal() {
			return StudentWork{}, ErrAlreadySubmitted
		}
	case ErrNotFound:
		count, cerr := svc.repo.CountDistinctStudents(ctx, asg.ID)
		if cerr != nil {
			return StudentWork{}, errors.Wrap(cerr, "counting students")
		}
		if count >= asg.MaxStudents {
			return StudentWork{}, ErrAtCapacity
		}
		isNew = true
		w = StudentWork{
			AssignmentID: asg.ID,
			StudentName:  sr.StudentName,
			Status:       StatusDraft,
			IP:           sr.IP,
			CreatedAt:    now,
		}
	default:
		return StudentWork{}, errors.Wrap(err, "finding existing work")
	}

	w.Content = sr.Content
	w.WordCount = core.CountWords(sr.Content)
	w.LastSavedAt = now
	w.SaveCount++
	w, err = svc.repo.UpsertWork(ctx, w)
	if err != nil {
		return StudentWork{}, errors.Wrap(err, "saving draft")
	}

	if isNew {
		if _, err = svc.asgRepo.RefreshStudentCount(ctx, asg.ID); err != nil {
			return StudentWork{}, errors.Wrap(err, "refreshing student count")
		}
	}
	return w, nil
}

// Submit turns a student's work final. Submission is single-shot and
// irrevocable; the row never changes again afterwards.
func (svc *Service) Submit(ctx context.Context, sr SubmitRequest) (StudentWork, error) {
	if core.CleanString(sr.Content) == "" {
		return StudentWork{}, core.NewValidationError(nil,
			core.FieldError{Field: "content", Error: "cannot submit empty work"})
	}

	asg, err := svc.asgRepo.GetAssignment(ctx, sr.AssignmentID)
	if err != nil {
		return StudentWork{}, err
	}
	if !asg.IsActive() {
		return StudentWork{}, ErrNotActive
	}
	now := NowFunc().UTC()
	if asg.IsExpired(now) {
		return StudentWork{}, ErrExpired
	}

	w, err := svc.repo.GetWork(ctx, asg.ID, sr.StudentName)
	isNew := false
	switch errors.Cause(err) {
	case nil:
		if w.IsFinal() {
			return StudentWork{}, ErrAlreadySubmitted
		}
	case ErrNotFound:
		count, cerr := svc.repo.CountDistinctStudents(ctx, asg.ID)
		if cerr != nil {
			return StudentWork{}, errors.Wrap(cerr, "counting students")
		}
		if count >= asg.MaxStudents {
			return StudentWork{}, ErrAtCapacity
		}
		isNew = true
		w = StudentWork{
			AssignmentID: asg.ID,
			StudentName:  sr.StudentName,
			IP:           sr.IP,
			CreatedAt:    now,
		}
	default:
		return StudentWork{}, errors.Wrap(err, "finding existing work")
	}

	w.Content = sr.Content
	w.WordCount = core.CountWords(sr.Content)
	w.Status = StatusFinal
	w.SubmittedAt = null.TimeFrom(now)
	w.LastSavedAt = now
	w, err = svc.repo.UpsertWork(ctx, w)
	if err != nil {
		return StudentWork{}, errors.Wrap(err, "submitting work")
	}

	if isNew {
		if _, err = svc.asgRepo.RefreshStudentCount(ctx, asg.ID); err != nil {
			return StudentWork{}, errors.Wrap(err, "refreshing student count")
		}
	}
	return w, nil
}

// QueryByAssignment returns every work row on an assignment.
func (svc *Service) QueryByAssignment(ctx context.Context, assignmentID string) ([]StudentWork, error) {
	return svc.repo.QueryAssignmentWork(ctx, assignmentID)
}
