// Package models defines the user entity and the request/response
// shapes exchanged by the HTTP layer.
package models

import "time"

// User is a single person record. The id is assigned by the active
// storage backend on creation and never reused; created_at is set once.
type User struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// UserRequest is the body of POST/PUT /api/users requests.
type UserRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

// FieldError describes a single failed validation rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrorResponse is the 400 body for malformed input.
type ValidationErrorResponse struct {
	Errors []FieldError `json:"errors"`
}

// ErrorResponse is the generic single-message error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse carries a human-readable success message.
type MessageResponse struct {
	Message string `json:"message"`
}

const (
	StorageTypeUnknown = iota
	StorageTypePostgresql
	StorageTypeMemory
)
