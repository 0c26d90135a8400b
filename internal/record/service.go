package record

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/healthbridge/healthbridge/pkg/interfaces"
	"github.com/healthbridge/healthbridge/pkg/logger"
	"github.com/healthbridge/healthbridge/pkg/monitoring"
	"github.com/healthbridge/healthbridge/pkg/types"
)

// Service implements the RecordService interface
type Service struct {
	repo    interfaces.RecordRepository
	logger  *logger.Logger
	metrics *monitoring.MetricsCollector
	now     func() time.Time
}

// NewService creates a new medical record service
func NewService(repo interfaces.RecordRepository, log *logger.Logger, metrics *monitoring.MetricsCollector) *Service {
	return &Service{
		repo:    repo,
		logger:  log,
		metrics: metrics,
		now:     time.Now,
	}
}

// Ingest validates, normalizes, and stores one clinical payload
func (s *Service) Ingest(req *types.IngestRecordRequest) (*types.MedicalRecord, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	number := strings.TrimSpace(req.Number)

	if email == "" || number == "" {
		s.metrics.RecordRecordIngest("rejected")
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "email and number are required", nil)
	}
	if req.JSONData == nil || req.JSONData.Empty() {
		s.metrics.RecordRecordIngest("rejected")
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "jsonData must carry at least one source block", nil)
	}

	record := &types.MedicalRecord{
		ID:         uuid.New().String(),
		Email:      email,
		Number:     number,
		Payload:    *req.JSONData,
		Normalized: Normalize(email, number, req.JSONData, s.now()),
	}

	if err := s.repo.Create(record); err != nil {
		s.metrics.RecordRecordIngest("error")
		return nil, err
	}

	s.metrics.RecordRecordIngest("stored")
	s.logger.WithFields(map[string]interface{}{
		"record_id": record.ID,
		"sources":   record.Normalized.Meta.Sources,
	}).Info("Ingested medical record")

	return record, nil
}

// List retrieves records matching the optional email/number filters
func (s *Service) List(email, number string) ([]*types.MedicalRecord, error) {
	records, err := s.repo.List(strings.ToLower(strings.TrimSpace(email)), strings.TrimSpace(number))
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []*types.MedicalRecord{}
	}
	return records, nil
}

// GetByNumber retrieves all records for a phone number; zero matches is NotFound
func (s *Service) GetByNumber(number string) ([]*types.MedicalRecord, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "number is required", nil)
	}

	records, err := s.repo.GetByNumber(number)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, types.NewNotFoundError(types.ErrCodeNotFound, "no records for number")
	}

	return records, nil
}
