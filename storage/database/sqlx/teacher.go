package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/mkabeya/kazi/core/teacher"
)

// pgUniqueViolation is the class 23 code raised on unique index conflicts.
const pgUniqueViolation = "23505"

type teacherRow struct {
	ID             string    `db:"id"`
	Username       string    `db:"username"`
	PasswordHash   []byte    `db:"password_hash"`
	FailedAttempts int       `db:"failed_attempts"`
	LockedUntil    null.Time `db:"locked_until"`
	ActiveCount    int       `db:"active_count"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
	LastLogin      null.Time `db:"last_login"`
}

func (r teacherRow) toModel() teacher.Teacher {
	return teacher.Teacher{
		ID:             r.ID,
		Username:       r.Username,
		PasswordHash:   r.PasswordHash,
		FailedAttempts: r.FailedAttempts,
		LockedUntil:    r.LockedUntil,
		ActiveCount:    r.ActiveCount,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
		LastLogin:      r.LastLogin.Time,
	}
}

func newTeacherRow(t teacher.Teacher) teacherRow {
	return teacherRow{
		ID:             t.ID,
		Username:       t.Username,
		PasswordHash:   t.PasswordHash,
		FailedAttempts: t.FailedAttempts,
		LockedUntil:    t.LockedUntil,
		ActiveCount:    t.ActiveCount,
		CreatedAt:      t.CreatedAt.UTC(),
		UpdatedAt:      t.UpdatedAt.UTC(),
		LastLogin:      null.NewTime(t.LastLogin.UTC(), !t.LastLogin.IsZero()),
	}
}

func isUniqueViolation(err error) bool {
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok {
		return string(pqErr.Code) == pgUniqueViolation
	}
	return false
}

type teacherRepository struct {
	db *sqlx.DB
}

var _ teacher.Repository = (*teacherRepository)(nil) // interface compliance check

func NewTeacherRepository(db *sqlx.DB) *teacherRepository {
	return &teacherRepository{db: db}
}

func (repo teacherRepository) CheckUsernameUniqueness(ctx context.Context, username string) error {
	var exists bool
	err := repo.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM teacher WHERE username = $1)`, username)
	if err != nil {
		return errors.Wrap(err, "checking teacher uniqueness")
	}
	if exists {
		return teacher.ErrUsernameExists
	}
	return nil
}

func (repo teacherRepository) CreateTeacher(ctx context.Context, tchr teacher.Teacher) (teacher.Teacher, error) {
	tchr.ID = uuid.New().String()
	row := newTeacherRow(tchr)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO teacher (id, username, password_hash, failed_attempts, locked_until, active_count, created_at, updated_at, last_login)
		VALUES (:id, :username, :password_hash, :failed_attempts, :locked_until, :active_count, :created_at, :updated_at, :last_login)`,
		row)
	if err != nil {
		if isUniqueViolation(err) {
			return teacher.Teacher{}, teacher.ErrUsernameExists
		}
		return teacher.Teacher{}, errors.Wrap(err, "inserting teacher")
	}
	return row.toModel(), nil
}

func (repo teacherRepository) GetTeacherByID(ctx context.Context, id string) (teacher.Teacher, error) {
	if _, err := uuid.Parse(id); err != nil {
		return teacher.Teacher{}, teacher.ErrNotFound
	}
	var row teacherRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM teacher WHERE id = $1`, id)
	if err != nil {
		return teacher.Teacher{}, repo.trapNoRowsErr(err, "finding teacher by ID")
	}
	return row.toModel(), nil
}

func (repo teacherRepository) GetTeacherByUsername(ctx context.Context, username string) (teacher.Teacher, error) {
	var row teacherRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM teacher WHERE username = $1`, username)
	if err != nil {
		return teacher.Teacher{}, repo.trapNoRowsErr(err, "finding teacher by username")
	}
	return row.toModel(), nil
}

func (repo teacherRepository) UpdateTeacher(ctx context.Context, tchr teacher.Teacher) (teacher.Teacher, error) {
	row := newTeacherRow(tchr)
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE teacher
		SET username = :username,
		    password_hash = :password_hash,
		    failed_attempts = :failed_attempts,
		    locked_until = :locked_until,
		    active_count = :active_count,
		    updated_at = :updated_at,
		    last_login = :last_login
		WHERE id = :id`,
		row)
	if err != nil {
		return teacher.Teacher{}, errors.Wrap(err, "updating teacher")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return teacher.Teacher{}, teacher.ErrNotFound
	}
	return row.toModel(), nil
}

func (repo teacherRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return teacher.ErrNotFound
	}
	return errors.Wrap(err, msg)
}
