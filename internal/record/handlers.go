package record

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/healthbridge/healthbridge/pkg/interfaces"
	"github.com/healthbridge/healthbridge/pkg/logger"
	"github.com/healthbridge/healthbridge/pkg/types"
)

// Handlers exposes the medical record service over HTTP. Record routes carry
// no bearer auth; ingestion happens from devices that never log in.
type Handlers struct {
	service interfaces.RecordService
	logger  *logger.Logger
}

// NewHandlers creates new record handlers
func NewHandlers(service interfaces.RecordService, log *logger.Logger) *Handlers {
	return &Handlers{
		service: service,
		logger:  log,
	}
}

// RegisterRoutes configures the record routes. With no bearer auth here the
// limit middleware keys by client address.
func (h *Handlers) RegisterRoutes(router *mux.Router, limit mux.MiddlewareFunc) {
	records := router.PathPrefix("/records").Subrouter()
	records.Use(limit)
	records.HandleFunc("/post-symptom", h.ingestHandler).Methods("POST")
	records.HandleFunc("/get-symptom", h.listHandler).Methods("GET")
	records.HandleFunc("/get-symptom/{number}", h.getByNumberHandler).Methods("GET")
}

// ingestHandler stores one clinical payload
func (h *Handlers) ingestHandler(w http.ResponseWriter, r *http.Request) {
	var req types.IngestRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, types.NewValidationError(types.ErrCodeInvalidInput, "invalid request body", nil))
		return
	}

	record, err := h.service.Ingest(&req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{"record": record})
}

// listHandler retrieves records by optional email/number filters
func (h *Handlers) listHandler(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	number := r.URL.Query().Get("number")

	records, err := h.service.List(email, number)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"records": records})
}

// getByNumberHandler retrieves records for one phone number
func (h *Handlers) getByNumberHandler(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.GetByNumber(mux.Vars(r)["number"])
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"records": records})
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
