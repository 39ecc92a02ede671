// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package response defines the (status, content type, body) triple every
// endpoint produces and maps classified errors onto it.
package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/pdiddy/cite-engine/internal/apperr"
)

// Content types used by the API.
const (
	ContentTypeJSON = "application/json; charset=UTF-8"
	ContentTypeText = "text/plain; charset=UTF-8"
)

// Response is a complete HTTP answer.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

// JSON returns a 200 response with v encoded as JSON.
func JSON(v any) (Response, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return Response{}, apperr.Unexpected(fmt.Errorf("encoding response: %w", err))
	}
	return Response{Status: http.StatusOK, ContentType: ContentTypeJSON, Body: body}, nil
}

// RawJSON returns a 200 response with an already encoded JSON body.
func RawJSON(body []byte) Response {
	return Response{Status: http.StatusOK, ContentType: ContentTypeJSON, Body: body}
}

// Text returns a 200 plain-text response.
func Text(body []byte) Response {
	return Response{Status: http.StatusOK, ContentType: ContentTypeText, Body: body}
}

// FromError maps err to a plain-text response carrying only its message.
// User input, not-found and ambiguity failures are 400; everything else is
// 500.
func FromError(err error) Response {
	status := http.StatusInternalServerError
	if apperr.IsClientError(err) {
		status = http.StatusBadRequest
	}
	return Response{Status: status, ContentType: ContentTypeText, Body: []byte(Message(err))}
}

// Message returns the user-visible text of err. For classified errors
// wrapped with extra context, only the classified message is kept.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *apperr.Error
	if errors.As(err, &e) && e.Kind != apperr.KindUnexpected {
		return e.Message
	}
	return err.Error()
}
