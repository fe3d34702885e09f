package teacher

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/mkabeya/kazi/core"
)

// bcryptCost is deliberately above bcrypt.DefaultCost; login is rare
// enough that the extra work factor is affordable.
const bcryptCost = 12

type Teacher struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	PasswordHash []byte `json:"-"`

	// lockout state, mutated on every failed password check
	FailedAttempts int       `json:"-"`
	LockedUntil    null.Time `json:"-"`

	// ActiveCount caches the number of active assignments owned by this
	// teacher. It is recomputed from a live count on every assignment
	// transition and must never be trusted as authoritative.
	ActiveCount int `json:"active_count"`

	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
	LastLogin time.Time `json:"last_login"` // UTC
}

func (t *Teacher) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcryptCost)
	if err != nil {
		return err
	}
	t.PasswordHash = hash
	return nil
}

func (t *Teacher) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(t.PasswordHash, []byte(pwd))
}

// IsLocked reports whether the account lockout window is still open at `now`.
func (t *Teacher) IsLocked(now time.Time) bool {
	return t.LockedUntil.Valid && t.LockedUntil.Time.After(now)
}

// NewTeacher contains information needed to sign up a new Teacher.
type NewTeacher struct {
	Username        string `json:"username" validate:"required,min=3,alphanum_"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (nt *NewTeacher) Validate(validate *validator.Validate, svc *Service) error {
	nt.Username = core.CleanString(nt.Username, true /* lower */)

	if err := validate.Struct(nt); err != nil {
		return err
	}
	return svc.checkUniqueness(nt.Username)
}
