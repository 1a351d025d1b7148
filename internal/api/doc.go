// Package api implements the HTTP REST API for Atelier Core.
//
// This package provides:
//   - Auth endpoints (login, refresh, logout, session introspection)
//   - Media slot CRUD for the admin CMS
//   - User administration with role-based access control
//   - Audit trail queries
//   - Middleware stack (request ID, logging, recovery, CORS, body limits)
//   - TLS support for production deployments
//
// # Security
//
// Authentication uses short-lived JWT access tokens plus rotating refresh
// tokens. Every protected route passes through requireAuth, which validates
// the Bearer token and attaches verified claims to the request context;
// permission and role guards layer on top. All guards fail closed: a
// missing, malformed, or unverifiable token is a 401, an insufficient role
// or permission is a 403, and rejection is terminal for the request.
package api
