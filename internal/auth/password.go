package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const (
	// MinPasswordLength is the shortest accepted staff password.
	MinPasswordLength = 12
	// MaxPasswordBytes is the bcrypt input limit.
	MaxPasswordBytes = 72

	// attributes shorter than this are not compared against passwords
	minSimilarAttribute = 4
)

var (
	ErrInvalidPassword  = errors.New("invalid password")
	ErrPasswordTooShort = errors.New("password must be at least 12 characters")
	ErrPasswordTooLong  = errors.New("password exceeds maximum length of 72 bytes")
	ErrPasswordNumeric  = errors.New("password can't be entirely numeric")
	ErrPasswordCommon   = errors.New("password is too common")
	ErrPasswordSimilar  = errors.New("password is too similar to the username or email")
)

// commonPasswords holds well-known passwords long enough to pass the
// length check.
var commonPasswords = map[string]bool{
	"password1234":   true,
	"qwerty123456":   true,
	"qwertyuiop123":  true,
	"iloveyou1234":   true,
	"letmein12345":   true,
	"welcome12345":   true,
	"changeme1234":   true,
	"administrator":  true,
	"trustno1trust":  true,
	"abcdefghijkl":   true,
	"librarypass123": true,
}

// PasswordValidator rejects a candidate password. attrs are account
// attributes (username, email) the password must not resemble.
type PasswordValidator func(password string, attrs ...string) error

// PasswordValidators run in order by ValidatePassword.
var PasswordValidators = []PasswordValidator{
	validateLength,
	validateNotNumeric,
	validateNotCommon,
	validateNotSimilar,
}

// ValidatePassword returns the first validator error for password.
func ValidatePassword(password string, attrs ...string) error {
	for _, validate := range PasswordValidators {
		if err := validate(password, attrs...); err != nil {
			return err
		}
	}
	return nil
}

func validateLength(password string, _ ...string) error {
	if len([]rune(password)) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}

func validateNotNumeric(password string, _ ...string) error {
	for _, r := range password {
		if !unicode.IsDigit(r) {
			return nil
		}
	}
	return ErrPasswordNumeric
}

func validateNotCommon(password string, _ ...string) error {
	if commonPasswords[strings.ToLower(password)] {
		return ErrPasswordCommon
	}
	return nil
}

// validateNotSimilar rejects passwords containing the username or the
// local part of the email address.
func validateNotSimilar(password string, attrs ...string) error {
	lower := strings.ToLower(password)
	for _, attr := range attrs {
		attr = strings.ToLower(strings.TrimSpace(attr))
		if at := strings.IndexByte(attr, '@'); at >= 0 {
			attr = attr[:at]
		}
		if len(attr) >= minSimilarAttribute && strings.Contains(lower, attr) {
			return ErrPasswordSimilar
		}
	}
	return nil
}

// HashPassword creates a bcrypt hash of the password. Costs outside the
// bcrypt range fall back to bcrypt.DefaultCost.
func HashPassword(password string, cost int) (string, error) {
	if err := validateLength(password); err != nil {
		return "", err
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a password with its hash.
func CheckPassword(password, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrInvalidPassword
	}
	return err
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// GenerateAPIToken returns a new bearer token and the hash stored for it.
// The plaintext is shown to the user once.
func GenerateAPIToken() (plaintext string, hash string, err error) {
	plaintext, err = randomHex(32)
	if err != nil {
		return "", "", err
	}
	return plaintext, HashToken(plaintext), nil
}

// HashToken is the SHA-256 hex digest under which tokens are stored.
func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// GenerateSessionSecret returns a random 32-byte hex secret.
func GenerateSessionSecret() (string, error) {
	return randomHex(32)
}
