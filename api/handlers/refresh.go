// ABOUTME: Refresh control handlers for the Huma API
// ABOUTME: Provides status, manual trigger, suspend and resume endpoints

package handlers

import (
	"context"
	"errors"
	"net/http"

	"digests-refresher/api/dto/mappers"
	"digests-refresher/api/dto/responses"
	"digests-refresher/core/interfaces"
	"digests-refresher/core/refresh"
	"github.com/danielgtaylor/huma/v2"
)

// RefreshController is what the handlers need from the refresh runner
type RefreshController interface {
	Trigger(ctx context.Context) error
	Info() refresh.RunInfo
	Stats() refresh.Stats
	Suspend()
	Resume()
}

// RefreshHandler handles refresh control requests
type RefreshHandler struct {
	controller RefreshController
	logger     interfaces.Logger
}

// NewRefreshHandler creates a new refresh handler
func NewRefreshHandler(controller RefreshController, logger interfaces.Logger) *RefreshHandler {
	return &RefreshHandler{
		controller: controller,
		logger:     logger,
	}
}

// RegisterRoutes registers all refresh control routes
func (h *RefreshHandler) RegisterRoutes(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "getStatus",
		Method:      http.MethodGet,
		Path:        "/status",
		Summary:     "Refresher status",
		Description: "Returns whether work is suspended and the progress of the current or last run",
		Tags:        []string{"Refresh"},
	}, h.Status)

	huma.Register(api, huma.Operation{
		OperationID:   "triggerRefresh",
		Method:        http.MethodPost,
		Path:          "/refresh",
		Summary:       "Start a refresh",
		Description:   "Starts refreshing every subscribed feed unless a refresh is already running",
		Tags:          []string{"Refresh"},
		DefaultStatus: http.StatusAccepted,
	}, h.Trigger)

	huma.Register(api, huma.Operation{
		OperationID: "suspend",
		Method:      http.MethodPost,
		Path:        "/suspend",
		Summary:     "Suspend work",
		Description: "Cancels in-flight downloads and stops parsing, storage and sync until resumed",
		Tags:        []string{"Refresh"},
	}, h.Suspend)

	huma.Register(api, huma.Operation{
		OperationID: "resume",
		Method:      http.MethodPost,
		Path:        "/resume",
		Summary:     "Resume work",
		Description: "Allows later refreshes to do work again",
		Tags:        []string{"Refresh"},
	}, h.Resume)
}

// StatusOutput defines the output for the Status operation
type StatusOutput struct {
	Body responses.StatusResponse
}

// ControlOutput defines the output for control operations
type ControlOutput struct {
	Body responses.ControlResponse
}

// Status handles the GET /status endpoint
func (h *RefreshHandler) Status(ctx context.Context, input *struct{}) (*StatusOutput, error) {
	resp := mappers.ToStatusResponse(h.controller.Info(), h.controller.Stats())
	return &StatusOutput{Body: *resp}, nil
}

// Trigger handles the POST /refresh endpoint
func (h *RefreshHandler) Trigger(ctx context.Context, input *struct{}) (*ControlOutput, error) {
	// The run outlives the request
	err := h.controller.Trigger(context.WithoutCancel(ctx))
	if err != nil {
		if !errors.Is(err, refresh.ErrRefreshActive) && !errors.Is(err, refresh.ErrSuspended) && h.logger != nil {
			h.logger.Error("Failed to start refresh", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return nil, toHumaError(err)
	}

	return &ControlOutput{Body: responses.ControlResponse{
		Accepted: true,
		Message:  "Refresh started",
	}}, nil
}

// Suspend handles the POST /suspend endpoint
func (h *RefreshHandler) Suspend(ctx context.Context, input *struct{}) (*ControlOutput, error) {
	if h.controller.Stats().Suspended {
		return &ControlOutput{Body: responses.ControlResponse{Message: "Already suspended"}}, nil
	}
	h.controller.Suspend()
	return &ControlOutput{Body: responses.ControlResponse{Accepted: true, Message: "Suspended"}}, nil
}

// Resume handles the POST /resume endpoint
func (h *RefreshHandler) Resume(ctx context.Context, input *struct{}) (*ControlOutput, error) {
	if !h.controller.Stats().Suspended {
		return &ControlOutput{Body: responses.ControlResponse{Message: "Not suspended"}}, nil
	}
	h.controller.Resume()
	return &ControlOutput{Body: responses.ControlResponse{Accepted: true, Message: "Resumed"}}, nil
}
