package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates the resource already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedFile indicates an upload in a format we cannot parse
	ErrUnsupportedFile = errors.New("unsupported file type")

	// ErrInvalidRecord indicates a stored record violates a data invariant
	// (sentiment outside [-1,1], domain authority outside [0,100], negative freshness)
	ErrInvalidRecord = errors.New("invalid record")

	// ErrPersistence indicates computed results could not be stored
	ErrPersistence = errors.New("persistence failed")

	// ErrUnauthorized indicates authentication failed or missing
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the user lacks permission for this action
	ErrForbidden = errors.New("forbidden")

	// ErrProcessingInProgress indicates prompts for the owner are already being processed
	ErrProcessingInProgress = errors.New("processing already in progress")

	// ErrEngineUnavailable indicates no answer engine is configured or reachable
	ErrEngineUnavailable = errors.New("answer engine unavailable")

	// ErrMalformedAnalysis indicates an engine returned output that could not be parsed
	ErrMalformedAnalysis = errors.New("malformed analysis")

	// ErrTokenExpired indicates the auth token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates the auth token is malformed or invalid
	ErrTokenInvalid = errors.New("token invalid")

	// ErrSessionNotFound indicates the session does not exist
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidCredentials indicates wrong email/password combination
	ErrInvalidCredentials = errors.New("invalid credentials")
)
