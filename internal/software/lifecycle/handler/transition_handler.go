package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"ride-lifecycle/internal/domain/ride"
	"ride-lifecycle/internal/general/jwt"
	"ride-lifecycle/internal/ports"
)

// TransitionRequest is the body for POST /rides/{ride_id}/transition.
type TransitionRequest struct {
	TargetState    string `json:"target_state"`
	TargetSubState string `json:"target_sub_state,omitempty"`
	// DriverID names the driver being assigned. Only meaningful when the
	// target is ACTIVE_PRE_TRIP and the caller is not the driver itself.
	DriverID       string `json:"driver_id,omitempty"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

func (handler *LifecycleHTTPHandler) handleTransition(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)
	claims := jwt.RequireClaims(r)
	rideID := r.PathValue("ride_id")
	ctx = handler.logger.WithRideID(ctx, rideID)

	var req TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	targetState, err := ride.ParseState(req.TargetState)
	if err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, err.Error(), err)
		return
	}
	targetSub, err := ride.ParseSubState(req.TargetSubState)
	if err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, err.Error(), err)
		return
	}

	result, err := handler.svc.ExecuteTransition(ctx, ports.TransitionInput{
		RideID:         rideID,
		TargetState:    targetState,
		TargetSubState: targetSub,
		ActorType:      claims.ActorType,
		ActorID:        claims.Subject,
		DriverID:       req.DriverID,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		handler.writeServiceError(ctx, w, err)
		return
	}

	handler.jsonResponse(ctx, w, http.StatusOK, result)
}

// CancelRequest is the body for POST /rides/{ride_id}/cancel. The body is
// optional; an empty body cancels without a recorded reason.
type CancelRequest struct {
	Reason         string `json:"reason,omitempty"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

func (handler *LifecycleHTTPHandler) handleCancel(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)
	claims := jwt.RequireClaims(r)
	rideID := r.PathValue("ride_id")
	ctx = handler.logger.WithRideID(ctx, rideID)

	var req CancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		handler.httpError(ctx, w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result, err := handler.svc.ExecuteTransition(ctx, ports.TransitionInput{
		RideID:         rideID,
		TargetState:    ride.StateCancelled,
		ActorType:      claims.ActorType,
		ActorID:        claims.Subject,
		IdempotencyKey: req.IdempotencyKey,
		Reason:         req.Reason,
	})
	if err != nil {
		handler.writeServiceError(ctx, w, err)
		return
	}

	handler.jsonResponse(ctx, w, http.StatusOK, result)
}
