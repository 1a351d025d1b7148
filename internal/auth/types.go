package auth

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// emailPattern is a pragmatic email shape check: one @, no spaces,
// something either side. Full RFC 5322 validation is not attempted.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// maxEmailLength is the maximum allowed email length.
const maxEmailLength = 254

// IsValidEmail checks if an email address meets format requirements.
func IsValidEmail(email string) bool {
	return len(email) <= maxEmailLength && emailPattern.MatchString(email)
}

// NormalizeEmail lowercases and trims an email so lookups are
// case-insensitive. Emails are stored normalised.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Role represents an authorisation tier in the system.
type Role string

const (
	// RoleViewer can read published content but change nothing.
	// The lowest tier; used for review accounts.
	RoleViewer Role = "viewer"

	// RoleEditor manages the content they own: creating slots, updating
	// images and video embeds. Cannot touch other editors' slots.
	RoleEditor Role = "editor"

	// RoleAdmin has full content control plus user management and the
	// audit trail. Bypasses slot ownership checks.
	RoleAdmin Role = "admin"

	// RoleSuperAdmin has everything admin can do plus managing other
	// admin/superadmin accounts and system settings. There should be
	// exactly one of these in a typical deployment.
	RoleSuperAdmin Role = "superadmin"
)

// roleRank orders roles by privilege. Rank comparison is the basis for
// "at least as privileged as" checks; an unknown role ranks zero and
// therefore never satisfies any requirement.
var roleRank = map[Role]int{
	RoleViewer:     1,
	RoleEditor:     2,
	RoleAdmin:      3,
	RoleSuperAdmin: 4,
}

// ValidRoles is the set of roles assignable to a user account.
var ValidRoles = []Role{RoleViewer, RoleEditor, RoleAdmin, RoleSuperAdmin}

// IsValidRole returns true if the role is a valid role for a user account.
func IsValidRole(r Role) bool {
	_, ok := roleRank[r]
	return ok
}

// Rank returns the numeric privilege rank of a role (1..4), or 0 for an
// unknown role.
func Rank(r Role) int {
	return roleRank[r]
}

// User represents an authenticated account.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	DisplayName  string     `json:"display_name"`
	PasswordHash string     `json:"-"` // never serialised
	Role         Role       `json:"role"`
	IsActive     bool       `json:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedBy    string     `json:"created_by,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// RefreshToken represents a stored refresh token for session management.
// Only the SHA-256 hash of the signed token is stored; the raw JWT lives
// with the client.
type RefreshToken struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	FamilyID  string    `json:"family_id"`
	TokenHash string    `json:"-"` // never serialised
	ExpiresAt time.Time `json:"expires_at"`
	Revoked   bool      `json:"revoked"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthResult is returned on successful authentication or refresh.
type AuthResult struct {
	User         *User  `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Sentinel errors for auth operations.
var (
	// ErrInvalidCredentials covers unknown email, wrong password, inactive
	// account, and store failure alike — callers must not be able to tell
	// the cases apart (account-enumeration resistance).
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrUserNotFound   = errors.New("user not found")
	ErrUserInactive   = errors.New("user account is inactive")
	ErrEmailExists    = errors.New("email already registered")
	ErrTokenExpired   = errors.New("token has expired")
	ErrTokenRevoked   = errors.New("token has been revoked")
	ErrTokenInvalid   = errors.New("invalid token")
	ErrTokenReuse     = errors.New("refresh token reuse detected")
	ErrForbidden      = errors.New("insufficient permissions")
	ErrWeakPassword   = errors.New("password does not meet policy")
	ErrSelfDemotion   = errors.New("cannot change own role or active state")
)
