package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/mkabeya/kazi/core/assignment"
)

type assignmentRow struct {
	ID           string    `db:"id"`
	TeacherID    string    `db:"teacher_id"`
	Title        string    `db:"title"`
	Content      string    `db:"content"`
	Instructions string    `db:"instructions"`
	Code         string    `db:"code"`
	Status       string    `db:"status"`
	Deadline     null.Time `db:"deadline"`
	ActivatedAt  time.Time `db:"activated_at"`
	ClosedAt     null.Time `db:"closed_at"`
	StudentCount int       `db:"student_count"`
	MaxStudents  int       `db:"max_students"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r assignmentRow) toModel() assignment.Assignment {
	return assignment.Assignment{
		ID:           r.ID,
		TeacherID:    r.TeacherID,
		Title:        r.Title,
		Content:      r.Content,
		Instructions: r.Instructions,
		Code:         r.Code,
		Status:       r.Status,
		Deadline:     r.Deadline,
		ActivatedAt:  r.ActivatedAt,
		ClosedAt:     r.ClosedAt,
		StudentCount: r.StudentCount,
		MaxStudents:  r.MaxStudents,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func newAssignmentRow(a assignment.Assignment) assignmentRow {
	return assignmentRow{
		ID:           a.ID,
		TeacherID:    a.TeacherID,
		Title:        a.Title,
		Content:      a.Content,
		Instructions: a.Instructions,
		Code:         a.Code,
		Status:       a.Status,
		Deadline:     a.Deadline,
		ActivatedAt:  a.ActivatedAt.UTC(),
		ClosedAt:     a.ClosedAt,
		StudentCount: a.StudentCount,
		MaxStudents:  a.MaxStudents,
		CreatedAt:    a.CreatedAt.UTC(),
		UpdatedAt:    a.UpdatedAt.UTC(),
	}
}

type assignmentRepository struct {
	db *sqlx.DB
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *sqlx.DB) *assignmentRepository {
	return &assignmentRepository{db: db}
}

func (repo assignmentRepository) CreateAssignment(ctx context.Context, asg assignment.Assignment) (assignment.Assignment, error) {
	asg.ID = uuid.New().String()
	row := newAssignmentRow(asg)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO assignment (id, teacher_id, title, content, instructions, code, status, deadline,
		                        activated_at, closed_at, student_count, max_students, created_at, updated_at)
		VALUES (:id, :teacher_id, :title, :content, :instructions, :code, :status, :deadline,
		        :activated_at, :closed_at, :student_count, :max_students, :created_at, :updated_at)`,
		row)
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "inserting assignment")
	}
	return row.toModel(), nil
}

func (repo assignmentRepository) GetTeacherAssignment(ctx context.Context, teacherID, id string) (assignment.Assignment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	var row assignmentRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT * FROM assignment WHERE id = $1 AND teacher_id = $2`, id, teacherID)
	if err != nil {
		return assignment.Assignment{}, repo.trapNoRowsErr(err, "finding teacher assignment")
	}
	return row.toModel(), nil
}

func (repo assignmentRepository) GetAssignment(ctx context.Context, id string) (assignment.Assignment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	var row assignmentRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM assignment WHERE id = $1`, id)
	if err != nil {
		return assignment.Assignment{}, repo.trapNoRowsErr(err, "finding assignment")
	}
	return row.toModel(), nil
}

func (repo assignmentRepository) GetAssignmentByCode(ctx context.Context, code string) (assignment.Assignment, error) {
	var row assignmentRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM assignment WHERE code = $1`, code)
	if err != nil {
		return assignment.Assignment{}, repo.trapNoRowsErr(err, "finding assignment by code")
	}
	return row.toModel(), nil
}

func (repo assignmentRepository) QueryTeacherAssignments(ctx context.Context, teacherID string) ([]assignment.Assignment, error) {
	var rows []assignmentRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM assignment WHERE teacher_id = $1 ORDER BY created_at DESC`, teacherID)
	if err != nil {
		return nil, errors.Wrap(err, "querying assignments")
	}
	res := make([]assignment.Assignment, 0, len(rows))
	for _, row := range rows {
		res = append(res, row.toModel())
	}
	return res, nil
}

func (repo assignmentRepository) CountActiveAssignments(ctx context.Context, teacherID string) (int, error) {
	var count int
	err := repo.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM assignment WHERE teacher_id = $1 AND status = $2`,
		teacherID, assignment.StatusActive)
	if err != nil {
		return 0, errors.Wrap(err, "counting active assignments")
	}
	return count, nil
}

func (repo assignmentRepository) AssignmentCodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := repo.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM assignment WHERE code = $1)`, code)
	if err != nil {
		return false, errors.Wrap(err, "checking code existence")
	}
	return exists, nil
}

func (repo assignmentRepository) UpdateAssignment(ctx context.Context, asg assignment.Assignment) (assignment.Assignment, error) {
	row := newAssignmentRow(asg)
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE assignment
		SET title = :title,
		    content = :content,
		    instructions = :instructions,
		    status = :status,
		    deadline = :deadline,
		    activated_at = :activated_at,
		    closed_at = :closed_at,
		    student_count = :student_count,
		    updated_at = :updated_at
		WHERE id = :id`,
		row)
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "updating assignment")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	return row.toModel(), nil
}

func (repo assignmentRepository) DeleteAssignment(ctx context.Context, id string) error {
	// student_work rows go away via ON DELETE CASCADE
	res, err := repo.db.ExecContext(ctx, `DELETE FROM assignment WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return assignment.ErrNotFound
	}
	return nil
}

func (repo assignmentRepository) RefreshTeacherActiveCount(ctx context.Context, teacherID string) (int, error) {
	var count int
	err := repo.db.GetContext(ctx, &count, `
		UPDATE teacher
		SET active_count = (SELECT COUNT(*) FROM assignment WHERE teacher_id = $1 AND status = $2)
		WHERE id = $1
		RETURNING active_count`,
		teacherID, assignment.StatusActive)
	if err != nil {
		return 0, errors.Wrap(err, "refreshing active count")
	}
	return count, nil
}

func (repo assignmentRepository) RefreshStudentCount(ctx context.Context, assignmentID string) (int, error) {
	var count int
	err := repo.db.GetContext(ctx, &count, `
		UPDATE assignment
		SET student_count = (SELECT COUNT(DISTINCT lower(student_name)) FROM student_work WHERE assignment_id = $1)
		WHERE id = $1
		RETURNING student_count`,
		assignmentID)
	if err != nil {
		return 0, errors.Wrap(err, "refreshing student count")
	}
	return count, nil
}

func (repo assignmentRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return assignment.ErrNotFound
	}
	return errors.Wrap(err, msg)
}
