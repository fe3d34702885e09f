package teacher

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/mkabeya/kazi/core"
)

// Lockout rules: the 5th consecutive password failure locks the account
// for 15 minutes. The window is passive; it is checked at login time,
// never actively swept.
const (
	MaxFailedLogins = 5
	LockoutDuration = 15 * time.Minute
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound           = errors.New("teacher not found")
	ErrUsernameExists     = errors.New("a teacher with this username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account is temporarily locked, try again in a few minutes")
)

type (
	Repository interface {
		CheckUsernameUniqueness(ctx context.Context, username string) error
		CreateTeacher(ctx context.Context, tchr Teacher) (Teacher, error)
		GetTeacherByID(ctx context.Context, id string) (Teacher, error)
		GetTeacherByUsername(ctx context.Context, username string) (Teacher, error)
		UpdateTeacher(ctx context.Context, tchr Teacher) (Teacher, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) checkUniqueness(uname string) error {
	if err := svc.repo.CheckUsernameUniqueness(context.Background(), uname); err != nil {
		if errors.Cause(err) == ErrUsernameExists {
			return core.NewValidationError(err, core.FieldError{Field: "username", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nt NewTeacher) (Teacher, error) {
	now := NowFunc().UTC()
	tchr := Teacher{
		Username:  nt.Username,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tchr.SetPassword(nt.Password); err != nil {
		return Teacher{}, errors.Wrap(err, "hashing password")
	}
	return svc.repo.CreateTeacher(ctx, tchr)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Teacher, error) {
	return svc.repo.GetTeacherByID(ctx, id)
}

func (svc *Service) GetByUsername(ctx context.Context, uname string) (Teacher, error) {
	return svc.repo.GetTeacherByUsername(ctx, core.CleanString(uname, true /* lower */))
}

// Authenticate verifies a teacher's credentials and maintains the
// account lockout state. Every failed password check is persisted, so
// this is a mutating operation even on the failure path.
func (svc *Service) Authenticate(ctx context.Context, uname, pwd string) (Teacher, error) {
	tchr, err := svc.GetByUsername(ctx, uname)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			// do not reveal which of the two fields was wrong
			return Teacher{}, ErrInvalidCredentials
		}
		return Teacher{}, errors.Wrap(err, "finding teacher by username")
	}

	now := NowFunc().UTC()

	// a locked account fails regardless of password correctness
	if tchr.IsLocked(now) {
		return Teacher{}, ErrAccountLocked
	}

	if err = tchr.CheckPassword(pwd); err != nil {
		tchr.FailedAttempts++
		if tchr.FailedAttempts >= MaxFailedLogins {
			tchr.LockedUntil = null.TimeFrom(now.Add(LockoutDuration))
		}
		tchr.UpdatedAt = now
		if _, uerr := svc.repo.UpdateTeacher(ctx, tchr); uerr != nil {
			return Teacher{}, errors.Wrap(uerr, "recording failed login")
		}
		return Teacher{}, ErrInvalidCredentials
	}

	tchr.FailedAttempts = 0
	tchr.LockedUntil = null.Time{}
	tchr.LastLogin = now
	tchr.UpdatedAt = now
	tchr, err = svc.repo.UpdateTeacher(ctx, tchr)
	if err != nil {
		return Teacher{}, errors.Wrap(err, "setting lastLogin")
	}
	return tchr, nil
}

// Unlock clears a teacher's lockout state ahead of its expiry.
func (svc *Service) Unlock(ctx context.Context, uname string) (Teacher, error) {
	tchr, err := svc.GetByUsername(ctx, uname)
	if err != nil {
		return Teacher{}, err
	}
	tchr.FailedAttempts = 0
	tchr.LockedUntil = null.Time{}
	tchr.UpdatedAt = NowFunc().UTC()
	return svc.repo.UpdateTeacher(ctx, tchr)
}
