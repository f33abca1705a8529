package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"ride-lifecycle/internal/domain/ride"
	"ride-lifecycle/internal/general/jwt"
	"ride-lifecycle/internal/ports"
)

// CreateRideRequest is the body for POST /rides. The passenger identity
// comes from the token, never from the body.
type CreateRideRequest struct {
	ServiceType   string   `json:"service_type"`
	Timing        string   `json:"timing"`
	PaymentMethod string   `json:"payment_method"`
	EstimatedCost int64    `json:"estimated_cost"`
	TaskTitles    []string `json:"task_titles,omitempty"`
	SeriesID      string   `json:"series_id,omitempty"`
	LegsTotal     int      `json:"legs_total,omitempty"`
}

func (handler *LifecycleHTTPHandler) handleCreateRide(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)
	claims := jwt.RequireClaims(r)

	var req CreateRideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	serviceType, err := ride.ParseServiceType(req.ServiceType)
	if err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, err.Error(), err)
		return
	}
	timing := ride.TimingInstant
	if req.Timing != "" {
		if timing, err = ride.ParseTiming(req.Timing); err != nil {
			handler.httpError(ctx, w, http.StatusBadRequest, err.Error(), err)
			return
		}
	}
	payment, err := ride.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, err.Error(), err)
		return
	}

	result, err := handler.svc.CreateRide(ctx, ports.CreateRideInput{
		PassengerID:   claims.Subject,
		ServiceType:   serviceType,
		Timing:        timing,
		PaymentMethod: payment,
		EstimatedCost: req.EstimatedCost,
		TaskTitles:    req.TaskTitles,
		SeriesID:      req.SeriesID,
		LegsTotal:     req.LegsTotal,
	})
	if err != nil {
		handler.writeServiceError(ctx, w, err)
		return
	}

	handler.jsonResponse(ctx, w, http.StatusCreated, result)
}

// RideResponse is the read-model view of a ride returned by GET /rides/{ride_id}.
type RideResponse struct {
	ID            string     `json:"id"`
	PassengerID   string     `json:"passenger_id"`
	DriverID      *string    `json:"driver_id,omitempty"`
	ServiceType   string     `json:"service_type"`
	Timing        string     `json:"timing"`
	State         string     `json:"state"`
	SubState      string     `json:"sub_state,omitempty"`
	LegacyStatus  string     `json:"legacy_status"`
	PaymentMethod string     `json:"payment_method"`
	PaymentStatus string     `json:"payment_status"`
	EstimatedCost int64      `json:"estimated_cost"`
	LegsTotal     int        `json:"legs_total"`
	LegsCompleted int        `json:"legs_completed"`
	Version       int        `json:"version"`
	Tasks         []TaskView `json:"tasks,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	AcceptedAt    *time.Time `json:"accepted_at,omitempty"`
	ArrivedAt     *time.Time `json:"arrived_at,omitempty"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	EndedAt       *time.Time `json:"ended_at,omitempty"`
	FinalizedAt   *time.Time `json:"finalized_at,omitempty"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty"`
	CancelledBy   string     `json:"cancelled_by,omitempty"`
	CancelReason  string     `json:"cancellation_reason,omitempty"`
}

// TaskView is the API shape of one errand task.
type TaskView struct {
	Index int    `json:"index"`
	Title string `json:"title"`
	State string `json:"state"`
}

func toRideResponse(rd *ride.Ride) RideResponse {
	resp := RideResponse{
		ID:            rd.ID,
		PassengerID:   rd.PassengerID,
		DriverID:      rd.DriverID,
		ServiceType:   rd.ServiceType.String(),
		Timing:        rd.Timing.String(),
		State:         rd.State.String(),
		SubState:      rd.SubState.String(),
		LegacyStatus:  rd.LegacyStatus,
		PaymentMethod: string(rd.PaymentMethod),
		PaymentStatus: string(rd.PaymentStatus),
		EstimatedCost: rd.EstimatedCost,
		LegsTotal:     rd.LegsTotal,
		LegsCompleted: rd.LegsCompleted,
		Version:       rd.Version,
		CreatedAt:     rd.CreatedAt,
		UpdatedAt:     rd.UpdatedAt,
		AcceptedAt:    rd.AcceptedAt,
		ArrivedAt:     rd.ArrivedAt,
		StartedAt:     rd.StartedAt,
		EndedAt:       rd.EndedAt,
		FinalizedAt:   rd.FinalizedAt,
		CancelledAt:   rd.CancelledAt,
		CancelledBy:   rd.CancelledBy.String(),
	}
	if rd.CancellationReason != nil {
		resp.CancelReason = *rd.CancellationReason
	}
	for _, task := range rd.Tasks {
		resp.Tasks = append(resp.Tasks, TaskView{
			Index: task.Index,
			Title: task.Title,
			State: string(task.State),
		})
	}
	return resp
}

func (handler *LifecycleHTTPHandler) handleGetRide(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)
	rideID := r.PathValue("ride_id")

	rd, err := handler.svc.GetRide(ctx, rideID)
	if err != nil {
		handler.writeServiceError(ctx, w, err)
		return
	}

	handler.jsonResponse(ctx, w, http.StatusOK, toRideResponse(rd))
}
