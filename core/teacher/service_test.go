package teacher_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkabeya/kazi/core/teacher"
	inmemdb "github.com/mkabeya/kazi/storage/database/inmem"
)

func setup(t *testing.T) (*teacher.Service, teacher.Repository) {
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	repo := inmemdb.NewTeacherRepository(db)
	return teacher.NewService(repo), repo
}

func createTeacher(t *testing.T, svc *teacher.Service, uname, pwd string) teacher.Teacher {
	tchr, err := svc.Create(context.Background(), teacher.NewTeacher{
		Username:        uname,
		Password:        pwd,
		PasswordConfirm: pwd,
	})
	if err != nil {
		t.Fatalf("createTeacher() failed: %v", err)
	}
	return tchr
}

func TestService_Create(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	tchr := createTeacher(t, svc, "mwalimu", "Str0ngPass!")
	assert.NotEmpty(t, tchr.ID)
	assert.Equal(t, "mwalimu", tchr.Username)
	assert.NotEmpty(t, tchr.PasswordHash)
	assert.NoError(t, tchr.CheckPassword("Str0ngPass!"))
	assert.Error(t, tchr.CheckPassword("WrongPass!"))

	// duplicate username
	_, err := svc.Create(ctx, teacher.NewTeacher{
		Username:        "mwalimu",
		Password:        "An0therPass!",
		PasswordConfirm: "An0therPass!",
	})
	assert.Equal(t, teacher.ErrUsernameExists, err)
}

func TestService_Authenticate(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	createTeacher(t, svc, "mwalimu", "Str0ngPass!")

	t.Run("unknown username", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "nobody", "Str0ngPass!")
		assert.Equal(t, teacher.ErrInvalidCredentials, err)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "mwalimu", "WrongPass!")
		assert.Equal(t, teacher.ErrInvalidCredentials, err)
	})

	t.Run("success resets failed attempts", func(t *testing.T) {
		tchr, err := svc.Authenticate(ctx, "mwalimu", "Str0ngPass!")
		require.NoError(t, err)
		assert.Equal(t, 0, tchr.FailedAttempts)
		assert.False(t, tchr.LockedUntil.Valid)
		assert.False(t, tchr.LastLogin.IsZero())
	})

	t.Run("username is case-insensitive", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "  MWALIMU ", "Str0ngPass!")
		assert.NoError(t, err)
	})
}

func TestService_Authenticate_lockout(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	createTeacher(t, svc, "mwalimu", "Str0ngPass!")

	now := time.Now().UTC()
	teacher.NowFunc = func() time.Time { return now }
	defer func() { teacher.NowFunc = time.Now }()

	// attempts 1-4 fail but do not lock
	for i := 1; i < teacher.MaxFailedLogins; i++ {
		_, err := svc.Authenticate(ctx, "mwalimu", "WrongPass!")
		assert.Equal(t, teacher.ErrInvalidCredentials, err)

		tchr, err := svc.GetByUsername(ctx, "mwalimu")
		require.NoError(t, err)
		assert.Equal(t, i, tchr.FailedAttempts)
		assert.False(t, tchr.IsLocked(now))
	}

	// the 5th failure locks the account
	_, err := svc.Authenticate(ctx, "mwalimu", "WrongPass!")
	assert.Equal(t, teacher.ErrInvalidCredentials, err)

	tchr, err := svc.GetByUsername(ctx, "mwalimu")
	require.NoError(t, err)
	assert.Equal(t, teacher.MaxFailedLogins, tchr.FailedAttempts)
	assert.True(t, tchr.IsLocked(now))
	assert.Equal(t, now.Add(teacher.LockoutDuration), tchr.LockedUntil.Time)

	// even the correct password is rejected while locked
	_, err = svc.Authenticate(ctx, "mwalimu", "Str0ngPass!")
	assert.Equal(t, teacher.ErrAccountLocked, err)

	// the lockout expires passively
	now = now.Add(teacher.LockoutDuration + time.Second)
	_, err = svc.Authenticate(ctx, "mwalimu", "Str0ngPass!")
	assert.NoError(t, err)

	tchr, err = svc.GetByUsername(ctx, "mwalimu")
	require.NoError(t, err)
	assert.Equal(t, 0, tchr.FailedAttempts)
	assert.False(t, tchr.LockedUntil.Valid)
}

func TestService_Unlock(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	createTeacher(t, svc, "mwalimu", "Str0ngPass!")

	now := time.Now().UTC()
	teacher.NowFunc = func() time.Time { return now }
	defer func() { teacher.NowFunc = time.Now }()

	for i := 0; i < teacher.MaxFailedLogins; i++ {
		_, err := svc.Authenticate(ctx, "mwalimu", "WrongPass!")
		assert.Equal(t, teacher.ErrInvalidCredentials, err)
	}
	_, err := svc.Authenticate(ctx, "mwalimu", "Str0ngPass!")
	assert.Equal(t, teacher.ErrAccountLocked, err)

	tchr, err := svc.Unlock(ctx, "mwalimu")
	require.NoError(t, err)
	assert.Equal(t, 0, tchr.FailedAttempts)
	assert.False(t, tchr.IsLocked(now))

	_, err = svc.Authenticate(ctx, "mwalimu", "Str0ngPass!")
	assert.NoError(t, err)

	// unknown teacher
	_, err = svc.Unlock(ctx, "nobody")
	assert.Equal(t, teacher.ErrNotFound, err)
}
