package dto

// APIResponse is the uniform envelope every endpoint returns. Errors carry
// an ErrorDetail; failures are never downgraded to a success payload.
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty" validate:"omitempty"`
	Error   any    `json:"error,omitempty" validate:"omitempty"`
}

// ErrorDetail carries the taxonomy code and optional context for a failure
type ErrorDetail struct {
	Code    string `json:"code"`
	Details any    `json:"details,omitempty" validate:"omitempty"`
}
