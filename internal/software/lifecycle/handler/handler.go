package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"ride-lifecycle/internal/domain/ride"
	"ride-lifecycle/internal/general/jwt"
	"ride-lifecycle/internal/general/logger"
	"ride-lifecycle/internal/ports"
	"ride-lifecycle/internal/software/lifecycle/service"
)

// LifecycleHTTPHandler adapts HTTP requests to the LifecycleService.
type LifecycleHTTPHandler struct {
	svc    ports.LifecycleService
	logger *logger.Logger
	auth   *jwt.Manager
}

// NewLifecycleHTTPHandler wires an HTTP handler around the LifecycleService.
func NewLifecycleHTTPHandler(svc ports.LifecycleService, logger *logger.Logger, auth *jwt.Manager) *LifecycleHTTPHandler {
	return &LifecycleHTTPHandler{svc: svc, logger: logger, auth: auth}
}

// RegisterRoutes mounts lifecycle endpoints on the provided mux.
func (handler *LifecycleHTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	anyActor := jwt.AuthMiddlewareFunc(handler.auth, ride.ActorPassenger, ride.ActorDriver, ride.ActorSystem)

	mux.HandleFunc("POST /rides",
		jwt.AuthMiddlewareFunc(handler.auth, ride.ActorPassenger)(handler.handleCreateRide),
	)
	mux.HandleFunc("GET /rides/{ride_id}", anyActor(handler.handleGetRide))
	mux.HandleFunc("POST /rides/{ride_id}/transition", anyActor(handler.handleTransition))
	mux.HandleFunc("POST /rides/{ride_id}/cancel", anyActor(handler.handleCancel))
	mux.HandleFunc("POST /rides/{ride_id}/tasks/{task_index}/advance",
		jwt.AuthMiddlewareFunc(handler.auth, ride.ActorDriver, ride.ActorSystem)(handler.handleAdvanceTask),
	)

	mux.HandleFunc("GET /health", handler.handleHealth)
	mux.HandleFunc("POST /tokens", handler.handleCreateToken)
}

func (handler *LifecycleHTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	handler.jsonResponse(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

// ----- token endpoint -----

type TokenRequest struct {
	ActorID   string `json:"actor_id"`
	ActorType string `json:"actor_type"`
}

// TokenResponse represents the response for token generation
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	ActorID   string    `json:"actor_id"`
	ActorType string    `json:"actor_type"`
}

func (handler *LifecycleHTTPHandler) handleCreateToken(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if strings.TrimSpace(req.ActorID) == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "actor_id is required", nil)
		return
	}
	actorType, err := ride.ParseActorType(req.ActorType)
	if err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "invalid actor_type", err)
		return
	}

	tokenString, claims, err := handler.auth.IssueActorToken(req.ActorID, actorType)
	if err != nil {
		handler.httpError(ctx, w, http.StatusInternalServerError, "Failed to generate token", err)
		return
	}

	handler.logger.Info(ctx, "token_generated", "JWT token generated successfully",
		map[string]any{"actor_id": req.ActorID, "actor_type": actorType.String()})

	handler.jsonResponse(ctx, w, http.StatusCreated, TokenResponse{
		Token:     tokenString,
		ExpiresAt: claims.ExpiresAt.Time,
		ActorID:   req.ActorID,
		ActorType: actorType.String(),
	})
}

// ----- general helpers -----

func (handler *LifecycleHTTPHandler) jsonResponse(ctx context.Context, w http.ResponseWriter, status int, data any) {
	// encode to buffer first so we can control status on failure
	var buf []byte
	var err error

	if data != nil {
		buf, err = json.Marshal(data)
		if err != nil {
			handler.logger.Error(ctx, "response_encode_failed", "Failed to encode response", err, nil)
			http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
			return
		}
	} else {
		buf = []byte("{}")
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf)
}

// httpError sends a JSON error response with a message.
func (handler *LifecycleHTTPHandler) httpError(ctx context.Context, w http.ResponseWriter, status int, msg string, err error) {
	action := "request_failed"
	if status >= 500 {
		action = "http_internal_error"
	} else if status == http.StatusBadRequest {
		action = "validation_failed"
	}
	handler.logger.Error(ctx, action, msg, err, nil)

	type errBody struct {
		Error string `json:"error"`
	}
	handler.jsonResponse(ctx, w, status, errBody{Error: msg})
}

// transitionErrorBody is the rejection payload: the reason code lets the
// calling UI react specifically instead of showing a generic failure.
type transitionErrorBody struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// writeServiceError maps service errors onto HTTP statuses:
// rejection 422, conflict 409, missing ride 404, bad input 400, rest 500.
func (handler *LifecycleHTTPHandler) writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	var verr *ride.ValidationError
	switch {
	case errors.As(err, &verr):
		handler.jsonResponse(ctx, w, http.StatusUnprocessableEntity, transitionErrorBody{
			Error:  verr.Error(),
			Reason: string(verr.Reason),
		})

	case errors.Is(err, ride.ErrConflict):
		handler.jsonResponse(ctx, w, http.StatusConflict, transitionErrorBody{
			Error:  "a concurrent update won; refresh and retry",
			Reason: "conflict",
		})

	case errors.Is(err, ride.ErrNotFound):
		handler.httpError(ctx, w, http.StatusNotFound, "ride not found", err)

	case errors.Is(err, service.ErrDriverRequired),
		errors.Is(err, service.ErrNotErrandRide),
		errors.Is(err, service.ErrRideNotActive),
		errors.Is(err, ride.ErrTaskNotActive),
		errors.Is(err, ride.ErrTaskTerminal),
		errors.Is(err, ride.ErrTaskIndexOutOfRange),
		errors.Is(err, ride.ErrNoTasks):
		handler.jsonResponse(ctx, w, http.StatusUnprocessableEntity, transitionErrorBody{Error: err.Error()})

	case errors.Is(err, ride.ErrPassengerRequired),
		errors.Is(err, ride.ErrErrandNeedsTasks),
		errors.Is(err, ride.ErrTasksOnNonErrand),
		errors.Is(err, ride.ErrInvalidServiceType),
		errors.Is(err, ride.ErrInvalidPaymentMethod),
		errors.Is(err, ride.ErrInvalidTiming),
		errors.Is(err, ride.ErrInvalidState),
		errors.Is(err, ride.ErrInvalidSubState):
		handler.httpError(ctx, w, http.StatusBadRequest, err.Error(), err)

	default:
		handler.httpError(ctx, w, http.StatusInternalServerError, "internal error", err)
	}
}

// withReqID extracts or generates a request ID and adds it to the context.
func (handler *LifecycleHTTPHandler) withReqID(ctx context.Context, r *http.Request) context.Context {
	reqID := r.Header.Get("X-Request-ID")
	if strings.TrimSpace(reqID) == "" {
		reqID = randID()
	}
	return handler.logger.WithRequestID(ctx, reqID)
}

// randID generates a random 24-char hex string suitable for request IDs.
func randID() string {
	var b [12]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
