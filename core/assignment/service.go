package assignment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound      = errors.New("assignment not found")
	ErrQuotaExceeded = fmt.Errorf("maximum of %d active assignments reached, close one first", MaxActivePerTeacher)
)

type (
	Repository interface {
		CreateAssignment(ctx context.Context, asg Assignment) (Assignment, error)
		// GetTeacherAssignment looks an assignment up by id AND owner;
		// an existing assignment owned by someone else is ErrNotFound.
		GetTeacherAssignment(ctx context.Context, teacherID, id string) (Assignment, error)
		GetAssignment(ctx context.Context, id string) (Assignment, error)
		GetAssignmentByCode(ctx context.Context, code string) (Assignment, error)
		QueryTeacherAssignments(ctx context.Context, teacherID string) ([]Assignment, error)
		CountActiveAssignments(ctx context.Context, teacherID string) (int, error)
		AssignmentCodeExists(ctx context.Context, code string) (bool, error)
		UpdateAssignment(ctx context.Context, asg Assignment) (Assignment, error)
		// DeleteAssignment removes the assignment and every StudentWork
		// row attached to it.
		DeleteAssignment(ctx context.Context, id string) error
		// RefreshTeacherActiveCount recomputes the owner's cached active
		// count from a live query and persists it.
		RefreshTeacherActiveCount(ctx context.Context, teacherID string) (int, error)
		// RefreshStudentCount recomputes the assignment's cached distinct
		// student count from a live query and persists it.
		RefreshStudentCount(ctx context.Context, assignmentID string) (int, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create opens a new assignment for submissions. The quota check and
// the insert must appear atomic to the caller; a failed quota check
// never leaves a row behind.
func (svc *Service) Create(ctx context.Context, teacherID string, na NewAssignment) (Assignment, error) {
	active, err := svc.repo.CountActiveAssignments(ctx, teacherID)
	if err != nil {
		return Assignment{}, errors.Wrap(err, "counting active assignments")
	}
	if active >= MaxActivePerTeacher {
		return Assignment{}, ErrQuotaExceeded
	}

	code, err := svc.generateCode(ctx)
	if err != nil {
		return Assignment{}, err
	}

	now := NowFunc().UTC()
	asg := Assignment{
		TeacherID:    teacherID,
		Title:        na.Title,
		Content:      na.Content,
		Instructions: na.Instructions,
		Code:         code,
		Status:       StatusActive,
		Deadline:     na.Deadline,
		ActivatedAt:  now,
		MaxStudents:  MaxStudents,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	asg, err = svc.repo.CreateAssignment(ctx, asg)
	if err != nil {
		return Assignment{}, errors.Wrap(err, "inserting assignment")
	}

	if _, err = svc.repo.RefreshTeacherActiveCount(ctx, teacherID); err != nil {
		return Assignment{}, errors.Wrap(err, "refreshing active count")
	}
	return asg, nil
}

func (svc *Service) Get(ctx context.Context, teacherID, id string) (Assignment, error) {
	return svc.repo.GetTeacherAssignment(ctx, teacherID, id)
}

// GetByCode looks an assignment up by its student-facing code,
// case-insensitively.
func (svc *Service) GetByCode(ctx context.Context, code string) (Assignment, error) {
	return svc.repo.GetAssignmentByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
}

// Query returns the teacher's assignments, newest first.
func (svc *Service) Query(ctx context.Context, teacherID string) ([]Assignment, error) {
	return svc.repo.QueryTeacherAssignments(ctx, teacherID)
}

func (svc *Service) Close(ctx context.Context, teacherID, id string) (Assignment, error) {
	asg, err := svc.repo.GetTeacherAssignment(ctx, teacherID, id)
	if err != nil {
		return Assignment{}, err
	}

	now := NowFunc().UTC()
	asg.Status = StatusClosed
	asg.ClosedAt = null.TimeFrom(now)
	asg.UpdatedAt = now
	asg, err = svc.repo.UpdateAssignment(ctx, asg)
	if err != nil {
		return Assignment{}, errors.Wrap(err, "closing assignment")
	}

	if _, err = svc.repo.RefreshTeacherActiveCount(ctx, teacherID); err != nil {
		return Assignment{}, errors.Wrap(err, "refreshing active count")
	}
	return asg, nil
}

// Reopen re-activates a closed assignment, subject to the same quota as
// Create. A quota miss leaves the assignment closed. Reopening an
// assignment that is already active is a no-op.
func (svc *Service) Reopen(ctx context.Context, teacherID, id string) (Assignment, error) {
	asg, err := svc.repo.GetTeacherAssignment(ctx, teacherID, id)
	if err != nil {
		return Assignment{}, err
	}
	if asg.IsActive() {
		return asg, nil
	}

	active, err := svc.repo.CountActiveAssignments(ctx, teacherID)
	if err != nil {
		return Assignment{}, errors.Wrap(err, "counting active assignments")
	}
	if active >= MaxActivePerTeacher {
		return Assignment{}, ErrQuotaExceeded
	}

	now := NowFunc().UTC()
	asg.Status = StatusActive
	asg.ClosedAt = null.Time{}
	asg.ActivatedAt = now
	asg.UpdatedAt = now
	asg, err = svc.repo.UpdateAssignment(ctx, asg)
	if err != nil {
		return Assignment{}, errors.Wrap(err, "reopening assignment")
	}

	if _, err = svc.repo.RefreshTeacherActiveCount(ctx, teacherID); err != nil {
		return Assignment{}, errors.Wrap(err, "refreshing active count")
	}
	return asg, nil
}

// Delete destroys the assignment and all student work on it. There is
// no soft-delete and no undo.
func (svc *Service) Delete(ctx context.Context, teacherID, id string) error {
	asg, err := svc.repo.GetTeacherAssignment(ctx, teacherID, id)
	if err != nil {
		return err
	}

	if err = svc.repo.DeleteAssignment(ctx, asg.ID); err != nil {
		return errors.Wrap(err, "deleting assignment")
	}

	if _, err = svc.repo.RefreshTeacherActiveCount(ctx, teacherID); err != nil {
		return errors.Wrap(err, "refreshing active count")
	}
	return nil
}
