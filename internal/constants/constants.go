package constants

// Context and session keys
const (
	ContextKeyUserID        = "user_id"
	ContextKeyProject       = "project"
	ContextKeyProjectMember = "project_member"
	ContextKeyRequestID     = "request_id"
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// MinPasswordLength is the shortest password accepted at signup.
const MinPasswordLength = 8

// SessionCookieName names the session cookie.
const SessionCookieName = "task_session"

// HeaderRequestID carries the correlation id for a request.
const HeaderRequestID = "X-Request-ID"
