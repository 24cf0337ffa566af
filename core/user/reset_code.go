package user

import (
	"crypto/rand"
	"errors"
	"math/big"
	"time"

	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"
)

var (
	resetCodeLen = 6
	NowFunc      = time.Now // mockable

	// errors
	errInvalidResetCode = errors.New("invalid code")
	errResetCodeExpired = errors.New("code expired")
)

// makeResetCode generates a random numeric one-time code.
func makeResetCode() (string, error) {
	digits := make([]byte, resetCodeLen)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}

// setResetCode stores the hash of `code`, valid for `ttl`.
func (u *User) setResetCode(code string, ttl time.Duration) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.ResetCodeHash = hash
	u.ResetCodeExpires = null.TimeFrom(NowFunc().UTC().Add(ttl))
	return nil
}

// verifyResetCode checks that `code` matches the stored one and has not expired.
func (u *User) verifyResetCode(code string) error {
	if code == "" || len(u.ResetCodeHash) == 0 || !u.ResetCodeExpires.Valid {
		return errInvalidResetCode
	}
	if err := bcrypt.CompareHashAndPassword(u.ResetCodeHash, []byte(code)); err != nil {
		return errInvalidResetCode
	}
	if NowFunc().UTC().After(u.ResetCodeExpires.Time) {
		return errResetCodeExpired
	}
	return nil
}

func (u *User) clearResetCode() {
	u.ResetCodeHash = nil
	u.ResetCodeExpires = null.Time{}
}
