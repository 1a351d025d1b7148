package auth

import (
	"fmt"
	"strings"
	"unicode"
)

// defaultMinPasswordLength is the minimum password length when the policy
// does not specify one.
const defaultMinPasswordLength = 8

// Policy defines the password acceptance rules. All rules are evaluated —
// validation never short-circuits, so a caller sees every violation at once.
type Policy struct {
	MinLength      int
	RequireUpper   bool
	RequireLower   bool
	RequireDigit   bool
	RequireSpecial bool
}

// DefaultPolicy returns the standard password policy: minimum 8 characters
// with uppercase, lowercase, and digit required. Special characters are not
// required by default but can be switched on via configuration.
func DefaultPolicy() Policy {
	return Policy{
		MinLength:    defaultMinPasswordLength,
		RequireUpper: true,
		RequireLower: true,
		RequireDigit: true,
	}
}

// PolicyResult is the outcome of validating a candidate password.
type PolicyResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// Validate checks a candidate password against the policy. Pure function:
// no I/O, no side effects. Every rule is evaluated and every violation is
// reported.
func (p Policy) Validate(password string) PolicyResult {
	minLen := p.MinLength
	if minLen <= 0 {
		minLen = defaultMinPasswordLength
	}

	var errs []string

	if len(password) < minLen {
		errs = append(errs, fmt.Sprintf("password must be at least %d characters", minLen))
	}
	if p.RequireUpper && !strings.ContainsFunc(password, unicode.IsUpper) {
		errs = append(errs, "password must contain an uppercase letter")
	}
	if p.RequireLower && !strings.ContainsFunc(password, unicode.IsLower) {
		errs = append(errs, "password must contain a lowercase letter")
	}
	if p.RequireDigit && !strings.ContainsFunc(password, unicode.IsDigit) {
		errs = append(errs, "password must contain a digit")
	}
	if p.RequireSpecial && !strings.ContainsFunc(password, isSpecial) {
		errs = append(errs, "password must contain a special character")
	}

	return PolicyResult{Valid: len(errs) == 0, Errors: errs}
}

// isSpecial reports whether r counts as a special character: anything that
// is printable but neither a letter, digit, nor space.
func isSpecial(r rune) bool {
	return unicode.IsPrint(r) && !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r)
}
