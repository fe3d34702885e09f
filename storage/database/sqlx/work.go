package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/mkabeya/kazi/core/work"
)

type workRow struct {
	ID           string    `db:"id"`
	AssignmentID string    `db:"assignment_id"`
	StudentName  string    `db:"student_name"`
	Content      string    `db:"content"`
	WordCount    int       `db:"word_count"`
	Status       string    `db:"status"`
	SaveCount    int       `db:"save_count"`
	IP           string    `db:"ip"`
	LastSavedAt  time.Time `db:"last_saved_at"`
	SubmittedAt  null.Time `db:"submitted_at"`
	CreatedAt    time.Time `db:"created_at"`
}

func (r workRow) toModel() work.StudentWork {
	return work.StudentWork{
		ID:           r.ID,
		AssignmentID: r.AssignmentID,
		StudentName:  r.StudentName,
		Content:      r.Content,
		WordCount:    r.WordCount,
		Status:       r.Status,
		SaveCount:    r.SaveCount,
		IP:           r.IP,
		LastSavedAt:  r.LastSavedAt,
		SubmittedAt:  r.SubmittedAt,
		CreatedAt:    r.CreatedAt,
	}
}

func newWorkRow(w work.StudentWork) workRow {
	return workRow{
		ID:           w.ID,
		AssignmentID: w.AssignmentID,
		StudentName:  w.StudentName,
		Content:      w.Content,
		WordCount:    w.WordCount,
		Status:       w.Status,
		SaveCount:    w.SaveCount,
		IP:           w.IP,
		LastSavedAt:  w.LastSavedAt.UTC(),
		SubmittedAt:  w.SubmittedAt,
		CreatedAt:    w.CreatedAt.UTC(),
	}
}

type workRepository struct {
	db *sqlx.DB
}

var _ work.Repository = (*workRepository)(nil) // interface compliance check

func NewWorkRepository(db *sqlx.DB) *workRepository {
	return &workRepository{db: db}
}

func (repo workRepository) GetWork(ctx context.Context, assignmentID, studentName string) (work.StudentWork, error) {
	var row workRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT * FROM student_work WHERE assignment_id = $1 AND lower(student_name) = lower($2)`,
		assignmentID, studentName)
	if err != nil {
		if err == sql.ErrNoRows {
			return work.StudentWork{}, work.ErrNotFound
		}
		return work.StudentWork{}, errors.Wrap(err, "finding student work")
	}
	return row.toModel(), nil
}

// UpsertWork writes the row atomically; concurrent autosaves from the
// same student resolve to last-write-wins on the unique
// (assignment_id, lower(student_name)) index.
func (repo workRepository) UpsertWork(ctx context.Context, w work.StudentWork) (work.StudentWork, error) {
	if w.ID == "" {
		w.ID = uuid.New().String()
	}
	row := newWorkRow(w)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO student_work (id, assignment_id, student_name, content, word_count, status,
		                          save_count, ip, last_saved_at, submitted_at, created_at)
		VALUES (:id, :assignment_id, :student_name, :content, :word_count, :status,
		        :save_count, :ip, :last_saved_at, :submitted_at, :created_at)
		ON CONFLICT (assignment_id, lower(student_name)) DO UPDATE
		SET content = EXCLUDED.content,
		    word_count = EXCLUDED.word_count,
		    status = EXCLUDED.status,
		    save_count = EXCLUDED.save_count,
		    last_saved_at = EXCLUDED.last_saved_at,
		    submitted_at = EXCLUDED.submitted_at`,
		row)
	if err != nil {
		return work.StudentWork{}, errors.Wrap(err, "upserting student work")
	}
	return repo.GetWork(ctx, w.AssignmentID, w.StudentName)
}

func (repo workRepository) QueryAssignmentWork(ctx context.Context, assignmentID string) ([]work.StudentWork, error) {
	var rows []workRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM student_work WHERE assignment_id = $1 ORDER BY lower(student_name) ASC`,
		assignmentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying student work")
	}
	res := make([]work.StudentWork, 0, len(rows))
	for _, row := range rows {
		res = append(res, row.toModel())
	}
	return res, nil
}

func (repo workRepository) CountDistinctStudents(ctx context.Context, assignmentID string) (int, error) {
	var count int
	err := repo.db.GetContext(ctx, &count,
		`SELECT COUNT(DISTINCT lower(student_name)) FROM student_work WHERE assignment_id = $1`,
		assignmentID)
	if err != nil {
		return 0, errors.Wrap(err, "counting students")
	}
	return count, nil
}
