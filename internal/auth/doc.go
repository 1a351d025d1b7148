// Package auth provides authentication and authorisation for Atelier Core.
//
// It implements a 4-tier role model (viewer → editor → admin → superadmin) with:
//   - Argon2id password hashing (OWASP 2025 recommendation)
//   - Configurable password policy validation (all violations reported together)
//   - JWT access/refresh token pairs with single-use refresh rotation and
//     family-based theft detection
//   - Static role-permission mapping (compile-time, no database lookup)
//   - An ordered role hierarchy so "at least as privileged as" checks are
//     total and exhaustive
//
// Authorisation fails closed: unknown roles have rank zero, unknown
// permissions match no role, and every token verification failure collapses
// to a single invalid-token outcome so callers cannot leak the cause.
package auth
