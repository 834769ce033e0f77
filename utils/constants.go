package utils

import "time"

// CSAT survey constants
const (
	// CSATTokenTTL is the validity window of a CSAT survey token (3 days)
	CSATTokenTTL = 72 * time.Hour

	// CSATTokenMaskPrefix / CSATTokenMaskSuffix control how much of a token
	// is shown on read surfaces; the full value is never exposed
	CSATTokenMaskPrefix = 8
	CSATTokenMaskSuffix = 4
)

// Task-request constants
const (
	// MaxTaskRequestAttachments caps attachment URLs per task request
	MaxTaskRequestAttachments = 3
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

// ContextKey is the type for values stored on request contexts
type ContextKey string

// Context keys populated by handlers for audit logging and tracing
const (
	RequestIDKey  ContextKey = "request_id"
	UserAgentKey  ContextKey = "user_agent"
	IPAddressKey  ContextKey = "ip_address"
	EndpointKey   ContextKey = "endpoint"
	TimeoutKey    ContextKey = "timeout"
	CancelFuncKey ContextKey = "cancel_func"
)
