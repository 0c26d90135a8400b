package appointment

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

// Handlers exposes the appointment service over HTTP
type Handlers struct {
	service interfaces.AppointmentService
	auth    *identity.AuthMiddleware
	logger  *logger.Logger
}

// NewHandlers creates new appointment handlers
func NewHandlers(service interfaces.AppointmentService, auth *identity.AuthMiddleware, log *logger.Logger) *Handlers {
	return &Handlers{
		service: service,
		auth:    auth,
		logger:  log,
	}
}

// RegisterRoutes configures the appointment routes. The limit middleware
// runs after RequireAuth so buckets are keyed per principal.
func (h *Handlers) RegisterRoutes(router *mux.Router, limit mux.MiddlewareFunc) {
	appointments := router.PathPrefix("/appointments").Subrouter()
	appointments.Use(h.auth.RequireAuth, limit)

	asPatient := h.auth.RequireRole(types.RolePatient)
	asDoctor := h.auth.RequireRole(types.RoleDoctor)

	appointments.Handle("/book", asPatient(http.HandlerFunc(h.bookHandler))).Methods("POST")
	appointments.Handle("/doctorappointment", asDoctor(http.HandlerFunc(h.listForDoctorHandler))).Methods("GET")
	appointments.Handle("/patient-doctors", asPatient(http.HandlerFunc(h.acceptedDoctorsHandler))).Methods("GET")
	appointments.Handle("/doctor-patients", asDoctor(http.HandlerFunc(h.acceptedPatientsHandler))).Methods("GET")
	appointments.Handle("/{id}", asDoctor(http.HandlerFunc(h.setStatusHandler))).Methods("PATCH")
}

// bookHandler handles appointment booking by patients
func (h *Handlers) bookHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := identity.ClaimsFromContext(r.Context())
	if !ok {
		h.writeError(w, types.NewAuthenticationError(types.ErrCodeUnauthorized, "missing credentials"))
		return
	}

	var req types.BookAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, types.NewValidationError(types.ErrCodeInvalidInput, "invalid request body", nil))
		return
	}

	apt, err := h.service.Book(claims.UserID, &req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{"appointment": apt})
}

// listForDoctorHandler lists all appointments assigned to the calling doctor
func (h *Handlers) listForDoctorHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := identity.ClaimsFromContext(r.Context())
	if !ok {
		h.writeError(w, types.NewAuthenticationError(types.ErrCodeUnauthorized, "missing credentials"))
		return
	}

	appointments, err := h.service.ListForDoctor(claims.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if appointments == nil {
		appointments = []*types.Appointment{}
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"appointments": appointments})
}

// setStatusHandler transitions a pending appointment
func (h *Handlers) setStatusHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := identity.ClaimsFromContext(r.Context())
	if !ok {
		h.writeError(w, types.NewAuthenticationError(types.ErrCodeUnauthorized, "missing credentials"))
		return
	}

	var update types.AppointmentStatusUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.writeError(w, types.NewValidationError(types.ErrCodeInvalidInput, "invalid request body", nil))
		return
	}

	apt, err := h.service.SetStatus(mux.Vars(r)["id"], claims.UserID, update.Status)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"appointment": apt})
}

// acceptedDoctorsHandler lists accepted doctors for the calling patient
func (h *Handlers) acceptedDoctorsHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := identity.ClaimsFromContext(r.Context())
	if !ok {
		h.writeError(w, types.NewAuthenticationError(types.ErrCodeUnauthorized, "missing credentials"))
		return
	}

	doctors, err := h.service.AcceptedDoctorsForPatient(claims.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if doctors == nil {
		doctors = []*types.ContactCard{}
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"doctors": doctors})
}

// acceptedPatientsHandler lists accepted patients for the calling doctor
func (h *Handlers) acceptedPatientsHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := identity.ClaimsFromContext(r.Context())
	if !ok {
		h.writeError(w, types.NewAuthenticationError(types.ErrCodeUnauthorized, "missing credentials"))
		return
	}

	patients, err := h.service.AcceptedPatientsForDoctor(claims.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if patients == nil {
		patients = []*types.ContactCard{}
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"patients": patients})
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
