package directory

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/healthbridge/healthbridge/internal/identity"
	"github.com/healthbridge/healthbridge/pkg/interfaces"
	"github.com/healthbridge/healthbridge/pkg/logger"
	"github.com/healthbridge/healthbridge/pkg/types"
)

// Handlers exposes the directory service over HTTP
type Handlers struct {
	service interfaces.DirectoryService
	auth    *identity.AuthMiddleware
	logger  *logger.Logger
}

// NewHandlers creates new directory handlers
func NewHandlers(service interfaces.DirectoryService, auth *identity.AuthMiddleware, log *logger.Logger) *Handlers {
	return &Handlers{
		service: service,
		auth:    auth,
		logger:  log,
	}
}

// RegisterRoutes configures the directory routes. The limit middleware
// runs after RequireAuth so buckets are keyed per principal.
func (h *Handlers) RegisterRoutes(router *mux.Router, limit mux.MiddlewareFunc) {
	directory := router.PathPrefix("/book-appointment").Subrouter()
	directory.Use(h.auth.RequireAuth, limit)

	asPatient := h.auth.RequireRole(types.RolePatient)
	directory.Handle("/users", asPatient(http.HandlerFunc(h.listByRoleHandler))).Methods("GET")
}

// listByRoleHandler lists principals by role for the booking picker
func (h *Handlers) listByRoleHandler(w http.ResponseWriter, r *http.Request) {
	role := r.URL.Query().Get("role")
	if role == "" {
		h.writeError(w, types.NewValidationError(types.ErrCodeInvalidInput, "role query parameter is required", nil))
		return
	}

	entries, err := h.service.ListByRole(role)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"users": entries})
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

	if h.logger.IsLevelEnabled(logrus.DebugLevel) && hbErr.Cause != nil {
		response["details"] = hbErr.Cause.Error()
	}

	h.writeJSON(w, hbErr.HTTPStatus(), response)
}
