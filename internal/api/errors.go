// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed backend call.
type Kind int

// Error kinds.
const (
	// KindNetwork means no response was received.
	KindNetwork Kind = iota + 1
	// KindServer means a 5xx or otherwise unexpected response.
	KindServer
	// KindValidation means the backend rejected the payload (4xx other than 401).
	KindValidation
	// KindAuth means the credentials were rejected.
	KindAuth
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindServer:
		return "server"
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	default:
		return "unknown"
	}
}

// Sentinels matched by errors.Is against an *Error of the same kind.
var (
	ErrNetwork    = errors.New("network error")
	ErrServer     = errors.New("server error")
	ErrValidation = errors.New("validation error")
	ErrAuth       = errors.New("authentication error")
)

// ErrNoStatus is returned by PatchStatus for types without a status.
var ErrNoStatus = errors.New("entity type has no status")

// User-facing messages.
const (
	MsgInvalidCredentials = "Invalid credentials. Please try again."
	MsgServer             = "Server error. Please try again later."
	MsgNetwork            = "Network error. Please check your connection."
	MsgUnexpected         = "An unexpected error occurred. Please try again."
	MsgMissingCredentials = "Please enter both email and password"
)

// Error is a classified backend failure.
type Error struct {
	Kind Kind
	Op   string
	// Status is the HTTP status, zero when no response was received or
	// the failure was reported inside a 2xx body.
	Status int
	// AppStatus is the status field of a failed response envelope.
	AppStatus int
	// Message is the backend-supplied message, if any.
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Op + ": " + e.Kind.String()
	if e.Status != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.Status)
	} else if e.AppStatus != 0 {
		msg += fmt.Sprintf(" (status %d)", e.AppStatus)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNetwork:
		return e.Kind == KindNetwork
	case ErrServer:
		return e.Kind == KindServer
	case ErrValidation:
		return e.Kind == KindValidation
	case ErrAuth:
		return e.Kind == KindAuth
	}
	return false
}

// classify maps an HTTP status to an error kind. 2xx returns 0.
func classify(status int) Kind {
	switch {
	case status >= 200 && status < 300:
		return 0
	case status == http.StatusUnauthorized:
		return KindAuth
	case status >= 400 && status < 500:
		return KindValidation
	default:
		return KindServer
	}
}

// UserMessage returns the message shown to the agent for err.
func UserMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return MsgUnexpected
	}
	switch e.Kind {
	case KindNetwork:
		return MsgNetwork
	case KindServer:
		return MsgServer
	case KindAuth:
		if e.Status == 0 && e.Message != "" {
			return e.Message
		}
		return MsgInvalidCredentials
	case KindValidation:
		if e.Message != "" {
			return e.Message
		}
	}
	return MsgUnexpected
}
