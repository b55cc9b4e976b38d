package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		msg  string
	}{
		{"ErrNotFound", ErrNotFound, "not found"},
		{"ErrAlreadyExists", ErrAlreadyExists, "already exists"},
		{"ErrInvalidInput", ErrInvalidInput, "invalid input"},
		{"ErrUnsupportedFile", ErrUnsupportedFile, "unsupported file type"},
		{"ErrInvalidRecord", ErrInvalidRecord, "invalid record"},
		{"ErrPersistence", ErrPersistence, "persistence failed"},
		{"ErrUnauthorized", ErrUnauthorized, "unauthorized"},
		{"ErrForbidden", ErrForbidden, "forbidden"},
		{"ErrProcessingInProgress", ErrProcessingInProgress, "processing already in progress"},
		{"ErrEngineUnavailable", ErrEngineUnavailable, "answer engine unavailable"},
		{"ErrMalformedAnalysis", ErrMalformedAnalysis, "malformed analysis"},
		{"ErrTokenExpired", ErrTokenExpired, "token expired"},
		{"ErrTokenInvalid", ErrTokenInvalid, "token invalid"},
		{"ErrSessionNotFound", ErrSessionNotFound, "session not found"},
		{"ErrInvalidCredentials", ErrInvalidCredentials, "invalid credentials"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.msg {
				t.Errorf("expected %q, got %q", tt.msg, tt.err.Error())
			}
		})
	}
}

func TestErrorsAreDistinct(t *testing.T) {
	allErrors := []error{
		ErrNotFound,
		ErrAlreadyExists,
		ErrInvalidInput,
		ErrUnsupportedFile,
		ErrInvalidRecord,
		ErrPersistence,
		ErrUnauthorized,
		ErrForbidden,
		ErrProcessingInProgress,
		ErrEngineUnavailable,
		ErrMalformedAnalysis,
		ErrTokenExpired,
		ErrTokenInvalid,
		ErrSessionNotFound,
		ErrInvalidCredentials,
	}

	for i, err1 := range allErrors {
		for j, err2 := range allErrors {
			if i != j && errors.Is(err1, err2) {
				t.Errorf("errors should be distinct: %v and %v", err1, err2)
			}
		}
	}
}

func TestErrorsIsThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("save metric run: %w", ErrPersistence)
	if !errors.Is(wrapped, ErrPersistence) {
		t.Error("wrapped ErrPersistence should match")
	}
	if errors.Is(wrapped, ErrNotFound) {
		t.Error("wrapped ErrPersistence should not match ErrNotFound")
	}
}
