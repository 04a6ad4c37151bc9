package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/stemsi/englishgpt-practice/internal/practice"
	"github.com/stemsi/englishgpt-practice/internal/response"
	"github.com/stemsi/englishgpt-practice/internal/service"
	ws "github.com/stemsi/englishgpt-practice/internal/websocket"
)

var errInvalidPayload = errors.New("invalid payload")

func errMissingField(field string) error {
	return fmt.Errorf("%s required: %w", field, errInvalidPayload)
}

func errUnknownAction(action ws.Action) error {
	return fmt.Errorf("unknown action %q: %w", action, errInvalidPayload)
}

// classify maps a session error onto an HTTP status and API error code.
func classify(err error) (int, response.ErrCode) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound, response.ErrSessionNotFound
	case errors.Is(err, practice.ErrNotFound):
		return http.StatusNotFound, response.ErrCategoryNotFound
	case errors.Is(err, practice.ErrInvalidIndex):
		return http.StatusBadRequest, response.ErrInvalidIndex
	case errors.Is(err, practice.ErrIllegalState):
		return http.StatusConflict, response.ErrIllegalState
	case errors.Is(err, errInvalidPayload):
		return http.StatusBadRequest, response.ErrInvalidPayload
	case errors.Is(err, service.ErrServiceClosed),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, response.ErrServiceUnavailable
	default:
		return http.StatusInternalServerError, response.ErrInternal
	}
}
