package handler

import (
	"net/http"
	"strconv"

	"ride-lifecycle/internal/general/jwt"
	"ride-lifecycle/internal/ports"
)

func (handler *LifecycleHTTPHandler) handleAdvanceTask(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)
	claims := jwt.RequireClaims(r)
	rideID := r.PathValue("ride_id")
	ctx = handler.logger.WithRideID(ctx, rideID)

	taskIndex, err := strconv.Atoi(r.PathValue("task_index"))
	if err != nil || taskIndex < 0 {
		handler.httpError(ctx, w, http.StatusBadRequest, "task_index must be a non-negative integer", err)
		return
	}

	result, err := handler.svc.AdvanceErrandTask(ctx, ports.AdvanceTaskInput{
		RideID:    rideID,
		TaskIndex: taskIndex,
		ActorType: claims.ActorType,
		ActorID:   claims.Subject,
	})
	if err != nil {
		handler.writeServiceError(ctx, w, err)
		return
	}

	handler.jsonResponse(ctx, w, http.StatusOK, result)
}
