package service

import "errors"

// Sentinel errors shared by the service layer; handlers map them onto HTTP
// status codes.
var (
	ErrValidation   = errors.New("validation")   // 400
	ErrUnauthorized = errors.New("unauthorized") // 401
	ErrForbidden    = errors.New("forbidden")    // 403
	ErrNotFound     = errors.New("not found")    // 404
	ErrConflict     = errors.New("conflict")     // 409
	ErrStock        = errors.New("insufficient stock")
)
