// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error types and error handling utilities for hioload-pump.

package api

import (
	"errors"
	"fmt"
)

// Common errors used across the library.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotSupported    = errors.New("operation not supported")
)

// ErrorCode represents specific error conditions in the library.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	ErrCodeInvalidArgument
	ErrCodeNotSupported
	ErrCodeInternal

	// ErrCodeSocketCreateFailed: the OS refused to create a socket.
	ErrCodeSocketCreateFailed
	// ErrCodeConnectFailed: name resolution or the connect call failed,
	// immediately or once the asynchronous attempt completed.
	ErrCodeConnectFailed
	// ErrCodeConnectionAborted: the stream ended without a prior remote close.
	ErrCodeConnectionAborted
	// ErrCodeSendFailed: a hard write error.
	ErrCodeSendFailed
	// ErrCodeEngineProtocol: surfaced by the protocol engine.
	ErrCodeEngineProtocol
)

var codeNames = map[ErrorCode]string{
	ErrCodeOK:                 "ok",
	ErrCodeInvalidArgument:    "invalid argument",
	ErrCodeNotSupported:       "not supported",
	ErrCodeInternal:           "internal",
	ErrCodeSocketCreateFailed: "socket create failed",
	ErrCodeConnectFailed:      "connect failed",
	ErrCodeConnectionAborted:  "connection aborted",
	ErrCodeSendFailed:         "send failed",
	ErrCodeEngineProtocol:     "engine protocol error",
}

func (c ErrorCode) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return fmt.Sprintf("code(%d)", int(c))
}

// Sentinels for errors.Is matching against a reported *Error.
var (
	ErrSocketCreateFailed = NewError(ErrCodeSocketCreateFailed, "socket create failed")
	ErrConnectFailed      = NewError(ErrCodeConnectFailed, "connect failed")
	ErrConnectionAborted  = NewError(ErrCodeConnectionAborted, "connection aborted")
	ErrSendFailed         = NewError(ErrCodeSendFailed, "send failed")
	ErrEngineProtocol     = NewError(ErrCodeEngineProtocol, "engine protocol error")
)

// Error represents a structured error with code and context.
type Error struct {
	Code    ErrorCode
	Message string
	Context map[string]any
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	if len(e.Context) == 0 {
		return msg
	}
	return fmt.Sprintf("%s (context: %+v)", msg, e.Context)
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error carrying the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewError creates a new structured error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Context: make(map[string]any),
	}
}

// WrapError creates a structured error around cause.
func WrapError(code ErrorCode, message string, cause error) *Error {
	e := NewError(code, message)
	e.Cause = cause
	return e
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// CodeOf returns the code of the first *Error in err's chain, or
// ErrCodeInternal when there is none.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ErrCodeOK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeInternal
}
