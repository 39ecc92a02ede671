// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package apperr defines the failure taxonomy shared by resolution, dispatch,
// formatting and style handling. Errors are created close to their source and
// travel unmodified to the HTTP boundary, where internal/response maps them
// to a status code.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	// KindUnexpected is a collaborator failure or any unclassified error.
	KindUnexpected Kind = iota
	// KindUserInput is a missing or invalid request parameter.
	KindUserInput
	// KindNotFound is a key, collection or style that matched nothing.
	KindNotFound
	// KindAmbiguous is a key that matched more than one item.
	KindAmbiguous
)

func (k Kind) String() string {
	switch k {
	case KindUserInput:
		return "user_input"
	case KindNotFound:
		return "not_found"
	case KindAmbiguous:
		return "ambiguous"
	default:
		return "unexpected"
	}
}

// Error is a classified failure. Message is the literal, user-visible text.
// Count is the number of matches behind a KindAmbiguous error.
type Error struct {
	Kind    Kind
	Query   string
	Message string
	Count   int
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// UserInput returns a KindUserInput error with a fixed message.
func UserInput(message string) *Error {
	return &Error{Kind: KindUserInput, Message: message}
}

// NoResults reports an easy key or citation key that matched nothing.
func NoResults(query string, cause error) *Error {
	return &Error{Kind: KindNotFound, Query: query, Message: query + " had no results", Err: cause}
}

// KeyNotFound reports a library key that matched nothing.
func KeyNotFound(key string) *Error {
	return &Error{Kind: KindNotFound, Query: key, Message: key + " not found"}
}

// CollectionNotFound reports a collection name with no match.
func CollectionNotFound(name string) *Error {
	return &Error{Kind: KindNotFound, Query: name, Message: fmt.Sprintf("collection %s not found", name)}
}

// StyleNotInstalled reports a style that could not be loaded. url is the
// canonical style URL that was attempted.
func StyleNotInstalled(url string, cause error) *Error {
	return &Error{Kind: KindNotFound, Query: url, Message: fmt.Sprintf("Style %s is not installed.", url), Err: cause}
}

// Ambiguous reports a key that matched count > 1 items.
func Ambiguous(query string, count int) *Error {
	return &Error{Kind: KindAmbiguous, Query: query, Message: query + " returned multiple items", Count: count}
}

// Unexpected wraps a collaborator failure.
func Unexpected(err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindUnexpected, Message: err.Error(), Err: err}
}

// MatchCount returns the match count carried by an ambiguous err, or 0.
func MatchCount(err error) int {
	var e *Error
	if errors.As(err, &e) && e.Kind == KindAmbiguous {
		return e.Count
	}
	return 0
}

// KindOf returns the kind of err. Errors outside the taxonomy are
// KindUnexpected.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

// IsClientError reports whether err should be answered with a 4xx status.
func IsClientError(err error) bool {
	switch KindOf(err) {
	case KindUserInput, KindNotFound, KindAmbiguous:
		return true
	default:
		return false
	}
}
