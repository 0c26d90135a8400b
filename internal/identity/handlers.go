package identity

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/healthbridge/healthbridge/pkg/interfaces"
	"github.com/healthbridge/healthbridge/pkg/logger"
	"github.com/healthbridge/healthbridge/pkg/types"
)

// Handlers exposes the identity service over HTTP
type Handlers struct {
	service interfaces.IdentityService
	auth    *AuthMiddleware
	logger  *logger.Logger
}

// NewHandlers creates new identity handlers
func NewHandlers(service interfaces.IdentityService, auth *AuthMiddleware, log *logger.Logger) *Handlers {
	return &Handlers{
		service: service,
		auth:    auth,
		logger:  log,
	}
}

// RegisterRoutes configures the identity routes. The limit middleware keys
// by client address on the anonymous auth routes and by principal on the
// profile routes, where it runs after RequireAuth.
func (h *Handlers) RegisterRoutes(router *mux.Router, limit mux.MiddlewareFunc) {
	auth := router.PathPrefix("/auth").Subrouter()
	auth.Use(limit)
	auth.HandleFunc("/signup", h.signupHandler).Methods("POST")
	auth.HandleFunc("/send-otp", h.sendOTPHandler).Methods("POST")
	auth.HandleFunc("/login", h.loginOTPHandler).Methods("POST")
	auth.HandleFunc("/login-password", h.loginPasswordHandler).Methods("POST")

	profile := router.PathPrefix("/user").Subrouter()
	profile.Use(h.auth.RequireAuth, limit)
	profile.HandleFunc("/profile", h.updateProfileHandler).Methods("PUT")
	profile.HandleFunc("/profile", h.getProfileHandler).Methods("GET")
}

// signupHandler handles user registration
func (h *Handlers) signupHandler(w http.ResponseWriter, r *http.Request) {
	var req types.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, types.NewValidationError(types.ErrCodeInvalidInput, "invalid request body", nil))
		return
	}

	resp, err := h.service.Signup(&req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, resp)
}

// sendOTPHandler handles OTP issuance requests
func (h *Handlers) sendOTPHandler(w http.ResponseWriter, r *http.Request) {
	var req types.OTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, types.NewValidationError(types.ErrCodeInvalidInput, "invalid request body", nil))
		return
	}

	if err := h.service.SendOTP(req.Email); err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"message": "OTP sent"})
}

// loginOTPHandler handles email/OTP logins
func (h *Handlers) loginOTPHandler(w http.ResponseWriter, r *http.Request) {
	var creds types.OTPCredentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		h.writeError(w, types.NewValidationError(types.ErrCodeInvalidInput, "invalid request body", nil))
		return
	}

	resp, err := h.service.LoginOTP(&creds)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// loginPasswordHandler handles email/password logins
func (h *Handlers) loginPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var creds types.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		h.writeError(w, types.NewValidationError(types.ErrCodeInvalidInput, "invalid request body", nil))
		return
	}

	resp, err := h.service.LoginPassword(&creds)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// updateProfileHandler handles partial profile mutations
func (h *Handlers) updateProfileHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		h.writeError(w, types.NewAuthenticationError(types.ErrCodeUnauthorized, "missing credentials"))
		return
	}

	var updates types.ProfileUpdates
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		h.writeError(w, types.NewValidationError(types.ErrCodeInvalidInput, "invalid request body", nil))
		return
	}

	user, err := h.service.UpdateProfile(claims.UserID, &updates)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"principal": user})
}

// getProfileHandler returns the authenticated principal's profile
func (h *Handlers) getProfileHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		h.writeError(w, types.NewAuthenticationError(types.ErrCodeUnauthorized, "missing credentials"))
		return
	}

	user, err := h.service.GetUser(claims.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"principal": user})
}

// writeJSON writes a JSON response
func (h *Handlers) writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.WithError(err).Error("Failed to encode JSON response")
	}
}

// writeError maps an error to its HTTP status and writes the error envelope
func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	hbErr, ok := types.AsHealthBridgeError(err)
	if !ok {
		hbErr = types.NewInternalError(types.ErrCodeInternalError, "internal server error", err)
	}

	if hbErr.Type == types.ErrorTypeInternal {
		h.logger.WithError(err).Error("Request failed")
	}

	response := map[string]interface{}{
		"error":  hbErr.Message,
		"status": hbErr.HTTPStatus(),
	}

	// Detail only surfaces in debug builds
	if h.logger.IsLevelEnabled(logrus.DebugLevel) && hbErr.Cause != nil {
		response["details"] = hbErr.Cause.Error()
	}

	h.writeJSON(w, hbErr.HTTPStatus(), response)
}
