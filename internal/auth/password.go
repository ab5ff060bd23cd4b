package auth

import (
	"fmt"
	"sync"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// passwordCost is lowered by tests.
var passwordCost = 12

// PasswordRule is one row of a password policy.
type PasswordRule struct {
	Message string
	Check   func(password string) bool
}

// PasswordPolicy is evaluated row by row; every failing row is reported.
type PasswordPolicy []PasswordRule

// DefaultPasswordPolicy bounds length on both sides; bcrypt ignores input
// past 72 bytes.
var DefaultPasswordPolicy = PasswordPolicy{
	MinLength(8),
	MaxBytes(72),
}

func MinLength(n int) PasswordRule {
	return PasswordRule{
		Message: fmt.Sprintf("Password must be at least %d characters long", n),
		Check: func(password string) bool {
			return utf8.RuneCountInString(password) >= n
		},
	}
}

func MaxBytes(n int) PasswordRule {
	return PasswordRule{
		Message: "Password is too long",
		Check: func(password string) bool {
			return len(password) <= n
		},
	}
}

// Validate returns the messages of all failing rules.
func (p PasswordPolicy) Validate(password string) []string {
	var failures []string
	for _, rule := range p {
		if !rule.Check(password) {
			failures = append(failures, rule.Message)
		}
	}
	return failures
}

// HashPassword hashes password with bcrypt.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// burnPasswordCheck spends the same bcrypt work as a real comparison so
// unknown emails and wrong passwords take similar time.
func burnPasswordCheck(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), passwordCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}
