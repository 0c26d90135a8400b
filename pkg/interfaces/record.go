package interfaces

import (
	"github.com/healthbridge/healthbridge/pkg/types"
)

// RecordService defines the interface for medical record ingestion and lookup
type RecordService interface {
	Ingest(req *types.IngestRecordRequest) (*types.MedicalRecord, error)
	List(email, number string) ([]*types.MedicalRecord, error)
	GetByNumber(number string) ([]*types.MedicalRecord, error)
}

// RecordRepository defines the interface for medical record persistence
type RecordRepository interface {
	Create(record *types.MedicalRecord) error
	List(email, number string) ([]*types.MedicalRecord, error)
	GetByNumber(number string) ([]*types.MedicalRecord, error)
}
