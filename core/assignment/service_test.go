package assignment_test

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/mkabeya/kazi/core/assignment"
	"github.com/mkabeya/kazi/core/teacher"
	"github.com/mkabeya/kazi/core/work"
	inmemdb "github.com/mkabeya/kazi/storage/database/inmem"
)

var codeRegex = regexp.MustCompile(`^[A-Z0-9]{6}$`)

func setup(t *testing.T) (*assignment.Service, assignment.Repository, work.Repository) {
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	asgRepo := inmemdb.NewAssignmentRepository(db)
	workRepo := inmemdb.NewWorkRepository(db)
	return assignment.NewService(asgRepo), asgRepo, workRepo
}

func createAssignment(t *testing.T, svc *assignment.Service, teacherID, title string) assignment.Assignment {
	asg, err := svc.Create(context.Background(), teacherID, assignment.NewAssignment{
		Title:   title,
		Content: "Write an essay.",
	})
	if err != nil {
		t.Fatalf("createAssignment() failed: %v", err)
	}
	return asg
}

func TestService_Create(t *testing.T) {
	svc, _, _ := setup(t)

	asg := createAssignment(t, svc, "t1", "Essay 1")
	assert.NotEmpty(t, asg.ID)
	assert.Equal(t, "t1", asg.TeacherID)
	assert.Equal(t, assignment.StatusActive, asg.Status)
	assert.Regexp(t, codeRegex, asg.Code)
	assert.Equal(t, assignment.MaxStudents, asg.MaxStudents)
	assert.Zero(t, asg.StudentCount)
	assert.False(t, asg.ActivatedAt.IsZero())

	// codes are unique across assignments
	seen := map[string]bool{asg.Code: true}
	for i := 0; i < 2; i++ {
		other := createAssignment(t, svc, "t2", "Essay")
		assert.False(t, seen[other.Code])
		seen[other.Code] = true
	}
}

func TestService_Create_quota(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	for i := 0; i < assignment.MaxActivePerTeacher; i++ {
		createAssignment(t, svc, "t1", "Essay")
	}

	_, err := svc.Create(ctx, "t1", assignment.NewAssignment{Title: "One too many", Content: "..."})
	assert.Equal(t, assignment.ErrQuotaExceeded, err)

	// the quota is per teacher
	_, err = svc.Create(ctx, "t2", assignment.NewAssignment{Title: "Fine", Content: "..."})
	assert.NoError(t, err)

	// closing one frees a slot
	asgs, err := svc.Query(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, asgs, assignment.MaxActivePerTeacher)
	_, err = svc.Close(ctx, "t1", asgs[0].ID)
	require.NoError(t, err)

	_, err = svc.Create(ctx, "t1", assignment.NewAssignment{Title: "Now it fits", Content: "..."})
	assert.NoError(t, err)
}

func TestService_GetByCode(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()
	asg := createAssignment(t, svc, "t1", "Essay")

	tests := []struct {
		name    string
		code    string
		wantErr error
	}{
		{name: "exact", code: asg.Code},
		{name: "lowercase", code: strings.ToLower(asg.Code)},
		{name: "padded", code: "  " + asg.Code + " "},
		{name: "unknown", code: "ZZZZZ0", wantErr: assignment.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.GetByCode(ctx, tt.code)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, asg.ID, got.ID)
		})
	}
}

func TestService_CloseAndReopen(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()
	asg := createAssignment(t, svc, "t1", "Essay")

	// ownership is enforced
	_, err := svc.Close(ctx, "intruder", asg.ID)
	assert.Equal(t, assignment.ErrNotFound, err)

	closed, err := svc.Close(ctx, "t1", asg.ID)
	require.NoError(t, err)
	assert.Equal(t, assignment.StatusClosed, closed.Status)
	assert.True(t, closed.ClosedAt.Valid)

	reopened, err := svc.Reopen(ctx, "t1", asg.ID)
	require.NoError(t, err)
	assert.Equal(t, assignment.StatusActive, reopened.Status)
	assert.False(t, reopened.ClosedAt.Valid)
	assert.True(t, reopened.ActivatedAt.After(asg.ActivatedAt) || reopened.ActivatedAt.Equal(asg.ActivatedAt))
}

func TestService_Reopen_quota(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	closed := createAssignment(t, svc, "t1", "Closed one")
	_, err := svc.Close(ctx, "t1", closed.ID)
	require.NoError(t, err)

	var last assignment.Assignment
	for i := 0; i < assignment.MaxActivePerTeacher; i++ {
		last = createAssignment(t, svc, "t1", "Essay")
	}

	// reopening would exceed the quota; the assignment stays closed
	_, err = svc.Reopen(ctx, "t1", closed.ID)
	assert.Equal(t, assignment.ErrQuotaExceeded, err)

	got, err := svc.Get(ctx, "t1", closed.ID)
	require.NoError(t, err)
	assert.Equal(t, assignment.StatusClosed, got.Status)

	// reopening an assignment that is already active is a no-op, even
	// with the quota full
	again, err := svc.Reopen(ctx, "t1", last.ID)
	require.NoError(t, err)
	assert.Equal(t, assignment.StatusActive, again.Status)
	assert.Equal(t, last.ActivatedAt, again.ActivatedAt)
}

func TestService_ActiveCount(t *testing.T) {
	db, err := inmemdb.Open()
	require.NoError(t, err)
	teacherRepo := inmemdb.NewTeacherRepository(db)
	asgRepo := inmemdb.NewAssignmentRepository(db)
	svc := assignment.NewService(asgRepo)
	ctx := context.Background()

	tchr, err := teacherRepo.CreateTeacher(ctx, teacher.Teacher{Username: "mwalimu"})
	require.NoError(t, err)

	// the stored counter must agree with a live count after every transition
	assertActiveCount := func(t *testing.T, want int) {
		t.Helper()
		got, err := teacherRepo.GetTeacherByID(ctx, tchr.ID)
		require.NoError(t, err)
		assert.Equal(t, want, got.ActiveCount)
		live, err := asgRepo.CountActiveAssignments(ctx, tchr.ID)
		require.NoError(t, err)
		assert.Equal(t, live, got.ActiveCount)
	}

	first := createAssignment(t, svc, tchr.ID, "Essay 1")
	assertActiveCount(t, 1)
	second := createAssignment(t, svc, tchr.ID, "Essay 2")
	assertActiveCount(t, 2)

	_, err = svc.Close(ctx, tchr.ID, first.ID)
	require.NoError(t, err)
	assertActiveCount(t, 1)

	_, err = svc.Reopen(ctx, tchr.ID, first.ID)
	require.NoError(t, err)
	assertActiveCount(t, 2)

	require.NoError(t, svc.Delete(ctx, tchr.ID, second.ID))
	assertActiveCount(t, 1)
	require.NoError(t, svc.Delete(ctx, tchr.ID, first.ID))
	assertActiveCount(t, 0)
}

func TestService_Delete(t *testing.T) {
	svc, asgRepo, workRepo := setup(t)
	ctx := context.Background()
	asg := createAssignment(t, svc, "t1", "Essay")

	// attach student work to verify the cascade
	now := time.Now().UTC()
	_, err := workRepo.UpsertWork(ctx, work.StudentWork{
		AssignmentID: asg.ID,
		StudentName:  "Jane Doe",
		Content:      "hello",
		WordCount:    1,
		Status:       work.StatusDraft,
		LastSavedAt:  now,
		CreatedAt:    now,
	})
	require.NoError(t, err)

	// ownership is enforced
	assert.Equal(t, assignment.ErrNotFound, svc.Delete(ctx, "intruder", asg.ID))

	require.NoError(t, svc.Delete(ctx, "t1", asg.ID))

	_, err = asgRepo.GetAssignment(ctx, asg.ID)
	assert.Equal(t, assignment.ErrNotFound, err)
	works, err := workRepo.QueryAssignmentWork(ctx, asg.ID)
	require.NoError(t, err)
	assert.Empty(t, works)

	// idempotence is not promised; a second delete is a plain not-found
	assert.Equal(t, assignment.ErrNotFound, svc.Delete(ctx, "t1", asg.ID))
}

func TestAssignment_IsExpired(t *testing.T) {
	now := time.Now().UTC()

	noDeadline := assignment.Assignment{}
	assert.False(t, noDeadline.IsExpired(now))

	future := assignment.Assignment{Deadline: null.TimeFrom(now.Add(time.Hour))}
	assert.False(t, future.IsExpired(now))

	past := assignment.Assignment{Deadline: null.TimeFrom(now.Add(-time.Hour))}
	assert.True(t, past.IsExpired(now))
}
