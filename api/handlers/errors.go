// ABOUTME: Error handling utilities for API handlers
// ABOUTME: Converts domain errors to appropriate HTTP responses

package handlers

import (
	"errors"

	coreerrors "digests-refresher/core/errors"
	"digests-refresher/core/refresh"
	"github.com/danielgtaylor/huma/v2"
)

// toHumaError converts domain errors to appropriate Huma HTTP errors
func toHumaError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, refresh.ErrRefreshActive), errors.Is(err, refresh.ErrSuspended):
		return huma.Error409Conflict(err.Error())
	case coreerrors.IsNotFound(err):
		return huma.Error404NotFound(err.Error())
	case coreerrors.IsValidation(err):
		return huma.Error400BadRequest(err.Error())
	case coreerrors.IsStorage(err):
		return huma.Error503ServiceUnavailable("Storage unavailable", err)
	}

	// Default to internal server error for unknown errors
	return huma.Error500InternalServerError("Internal server error", err)
}
