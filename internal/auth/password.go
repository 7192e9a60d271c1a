// Package auth — password hashing utilities.
//
// New hashes are always bcrypt. Accounts migrated from the previous site may
// still carry the legacy scrypt format, which Verify understands:
//
//	<128 hex chars: scrypt key>.<hex salt>
//
// The legacy key was derived with N=16384, r=8, p=1 and a 64-byte output,
// using the salt's hex text (not its decoded bytes) as the scrypt salt.
package auth

import (
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/scrypt"
)

// defaultCost is the bcrypt work factor. Roughly 250ms per hash on a
// modern server.
const defaultCost = 12

const (
	maxPasswordBytes = 72 // bcrypt silently truncates beyond this

	scryptN      = 16384
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 64
)

// ErrInvalidPassword is returned by Verify when the password does not match.
var ErrInvalidPassword = errors.New("auth: invalid password")

// PasswordService provides password hashing and verification.
//
// It's a struct (not free functions) so that the bcrypt cost can be injected
// in tests.
type PasswordService struct {
	cost int

	// dummy is a real hash of a random string, compared against when the
	// user does not exist so both login failure paths cost the same.
	dummy []byte
}

// NewPasswordService creates a PasswordService with the default cost (12).
func NewPasswordService() *PasswordService {
	return newPasswordServiceWithCost(defaultCost)
}

func newPasswordServiceWithCost(cost int) *PasswordService {
	dummy, err := bcrypt.GenerateFromPassword([]byte("portfolio-timing-equaliser"), cost)
	if err != nil {
		// Only possible with a cost outside bcrypt's range.
		panic(fmt.Sprintf("auth: invalid bcrypt cost %d: %v", cost, err))
	}
	return &PasswordService{cost: cost, dummy: dummy}
}

// NewPasswordServiceForTest creates a PasswordService with a custom bcrypt
// cost, typically bcrypt.MinCost. Do NOT use in production.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return newPasswordServiceWithCost(cost)
}

// Hash hashes the given plaintext password with bcrypt.
//
// Returns an error if the plaintext is too long (>72 bytes — a bcrypt limit).
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > maxPasswordBytes {
		return "", fmt.Errorf("auth: password must be %d bytes or fewer", maxPasswordBytes)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

// Verify checks whether plaintext matches a stored hash in either the
// bcrypt or the legacy scrypt format. Returns ErrInvalidPassword on a
// mismatch and a different error when the stored hash is unreadable.
//
// Both paths compare in constant time.
func (p *PasswordService) Verify(hash, plaintext string) error {
	if isBcrypt(hash) {
		err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
		if err != nil {
			if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
				return ErrInvalidPassword
			}
			return fmt.Errorf("auth: comparing password hash: %w", err)
		}
		return nil
	}
	return verifyScrypt(hash, plaintext)
}

// VerifyDummy burns the same time as a real bcrypt comparison. Call it when
// the username does not exist, so response timing does not reveal which
// usernames are valid.
func (p *PasswordService) VerifyDummy(plaintext string) {
	_ = bcrypt.CompareHashAndPassword(p.dummy, []byte(plaintext))
}

// IsLegacy reports whether hash is in the legacy scrypt format.
func IsLegacy(hash string) bool {
	return !isBcrypt(hash) && strings.Contains(hash, ".")
}

func isBcrypt(hash string) bool {
	return strings.HasPrefix(hash, "$2")
}

func verifyScrypt(stored, plaintext string) error {
	keyHex, salt, ok := strings.Cut(stored, ".")
	if !ok || keyHex == "" || salt == "" {
		return errors.New("auth: unrecognised password hash format")
	}

	want, err := hex.DecodeString(keyHex)
	if err != nil || len(want) != scryptKeyLen {
		return errors.New("auth: malformed legacy password hash")
	}

	got, err := scrypt.Key([]byte(plaintext), []byte(salt), scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return fmt.Errorf("auth: deriving legacy key: %w", err)
	}

	if subtle.ConstantTimeCompare(got, want) != 1 {
		return ErrInvalidPassword
	}
	return nil
}

// legacyHash produces a hash in the legacy format. Only tests need it; the
// application never writes scrypt hashes.
func legacyHash(plaintext, salt string) (string, error) {
	key, err := scrypt.Key([]byte(plaintext), []byte(salt), scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(key) + "." + salt, nil
}
