package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDomainError(t *testing.T) {
	baseErr := errors.New("base error")
	domainErr := NewDomainError(ErrorTypeExternal, "knowledge base retrieval failed", baseErr)

	assert.Equal(t, ErrorTypeExternal, domainErr.Type)
	assert.Equal(t, "knowledge base retrieval failed", domainErr.Message)
	assert.Equal(t, baseErr, domainErr.Err)
	assert.NotNil(t, domainErr.Details)
}

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *DomainError
		wantMsg string
	}{
		{
			name: "error with wrapped error",
			err: &DomainError{
				Type:    ErrorTypeExternal,
				Message: "model invocation failed",
				Err:     errors.New("throttled"),
			},
			wantMsg: "external: model invocation failed (throttled)",
		},
		{
			name: "error without wrapped error",
			err: &DomainError{
				Type:    ErrorTypeValidation,
				Message: "query cannot be empty",
			},
			wantMsg: "validation: query cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMsg, tt.err.Error())
		})
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	baseErr := errors.New("base error")
	domainErr := NewDomainError(ErrorTypeInternal, "internal error", baseErr)

	assert.Equal(t, baseErr, errors.Unwrap(domainErr))
}

func TestDomainError_Is(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{
			name:   "same type and message",
			err:    NewDomainError(ErrorTypeExternal, "knowledge base retrieval failed", errors.New("boom")),
			target: ErrKnowledgeBaseUnavailable,
			want:   true,
		},
		{
			name:   "same type different message",
			err:    NewDomainError(ErrorTypeExternal, "knowledge base retrieval failed", nil),
			target: ErrModelUnavailable,
			want:   false,
		},
		{
			name:   "target without message matches on type",
			err:    ErrModelUnavailable,
			target: &DomainError{Type: ErrorTypeExternal},
			want:   true,
		},
		{
			name:   "different type",
			err:    NewDomainError(ErrorTypeValidation, "query cannot be empty", nil),
			target: ErrKnowledgeBaseUnavailable,
			want:   false,
		},
		{
			name:   "wrapped domain error",
			err:    fmt.Errorf("retrieve: %w", NewDomainError(ErrorTypeValidation, "query cannot be empty", nil)),
			target: ErrEmptyQuery,
			want:   true,
		},
		{
			name:   "not a domain error",
			err:    ErrEmptyQuery,
			target: errors.New("regular error"),
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errors.Is(tt.err, tt.target))
		})
	}
}

func TestDomainError_WithDetail(t *testing.T) {
	err := NewDomainError(ErrorTypeExternal, "knowledge base retrieval failed", nil)

	err.WithDetail("knowledge_base_id", "KXZ6KMQQUP").WithDetail("code", "ResourceNotFoundException")

	assert.Equal(t, "KXZ6KMQQUP", err.Details["knowledge_base_id"])
	assert.Equal(t, "ResourceNotFoundException", err.Details["code"])
	assert.Empty(t, ErrKnowledgeBaseUnavailable.Details)
}

func TestErrorTypeHelpers(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
		want  bool
	}{
		{"not found", ErrQueryLogNotFound, IsNotFoundError, true},
		{"validation", ErrEmptyQuery, IsValidationError, true},
		{"wrapped validation", fmt.Errorf("wrapped: %w", ErrEmptyPrompt), IsValidationError, true},
		{"internal", ErrDatabaseError, IsInternalError, true},
		{"external", ErrKnowledgeBaseUnavailable, IsExternalError, true},
		{"disabled", ErrAuditDisabled, IsDisabledError, true},
		{"external is not validation", ErrModelUnavailable, IsValidationError, false},
		{"regular error", errors.New("regular"), IsExternalError, false},
		{"nil error", nil, IsNotFoundError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.check(tt.err))
		})
	}
}

func TestGetErrorType(t *testing.T) {
	assert.Equal(t, ErrorTypeExternal, GetErrorType(ErrModelUnavailable))
	assert.Equal(t, ErrorTypeValidation, GetErrorType(fmt.Errorf("x: %w", ErrEmptyQuery)))
	assert.Equal(t, ErrorType(""), GetErrorType(errors.New("plain")))
}

func TestGetErrorDetails(t *testing.T) {
	err := WrapExternal("model invocation failed", errors.New("timeout"))
	assert.NotNil(t, GetErrorDetails(err))
	assert.Nil(t, GetErrorDetails(errors.New("plain")))
	assert.True(t, IsInternalError(WrapInternal("scan failed", errors.New("eof"))))
}
