package assignment

import (
	"context"
	"crypto/rand"
	"math/big"

	"github.com/pkg/errors"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// CodeLength gives 36^6 ≈ 2.2 billion combinations; collisions are
	// a statistical non-event at this system's scale.
	CodeLength = 6

	// maxCodeAttempts bounds the collision re-roll loop. Exhausting it
	// indicates a systemic fault (bad randomness, runaway table), not
	// bad luck.
	maxCodeAttempts = 10
)

var errCodeSpaceExhausted = errors.New("could not allocate a unique assignment code")

func randomCode() (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))
	buf := make([]byte, CodeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", errors.Wrap(err, "reading random bytes")
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// generateCode draws codes until one does not collide with an existing
// assignment, up to maxCodeAttempts.
func (svc *Service) generateCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := randomCode()
		if err != nil {
			return "", err
		}
		exists, err := svc.repo.AssignmentCodeExists(ctx, code)
		if err != nil {
			return "", errors.Wrap(err, "checking code uniqueness")
		}
		if !exists {
			return code, nil
		}
	}
	return "", errCodeSpaceExhausted
}
