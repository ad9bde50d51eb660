package model

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a machine-readable error code for session errors.
type Code string

const (
	CodeSessionNotFound   Code = "SESSION_NOT_FOUND"
	CodeChatLimitExceeded Code = "CHAT_LIMIT_EXCEEDED"
	CodeGameOverBlocked   Code = "GAME_OVER_BLOCKED"
	CodeInvalidTransition Code = "INVALID_STATUS_TRANSITION"
)

// HTTPStatus maps a code to the status a caller exposing HTTP would use.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeSessionNotFound:
		return http.StatusNotFound
	case CodeChatLimitExceeded, CodeGameOverBlocked:
		return http.StatusForbidden
	case CodeInvalidTransition:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// DomainError is a session error that callers can map to a specific reply.
type DomainError struct {
	Code    Code
	Message string
}

func (e *DomainError) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches any DomainError carrying the same code.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// Status returns the HTTP-equivalent status of the error.
func (e *DomainError) Status() int {
	return e.Code.HTTPStatus()
}

// Sentinels for errors.Is checks.
var (
	ErrSessionNotFound   = &DomainError{Code: CodeSessionNotFound}
	ErrChatLimitExceeded = &DomainError{Code: CodeChatLimitExceeded}
	ErrGameOverBlocked   = &DomainError{Code: CodeGameOverBlocked}
	ErrInvalidTransition = &DomainError{Code: CodeInvalidTransition}
)

// NewSessionNotFoundError reports a session id with no live record.
func NewSessionNotFoundError(sessionID string) error {
	return &DomainError{Code: CodeSessionNotFound, Message: fmt.Sprintf("session %q not found", sessionID)}
}

// NewChatLimitExceededError reports a terminal or exhausted session.
func NewChatLimitExceededError(sessionID string) error {
	return &DomainError{Code: CodeChatLimitExceeded, Message: fmt.Sprintf("session %q cannot accept more messages", sessionID)}
}

// NewGameOverBlockedError reports a user who already lost today.
func NewGameOverBlockedError(userID int64) error {
	return &DomainError{Code: CodeGameOverBlocked, Message: fmt.Sprintf("user %d already has a game over today", userID)}
}

// AsDomainError extracts a DomainError from an error chain.
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
