package record

import (
	"encoding/json"
	"fmt"

	"github.com/healthbridge/healthbridge/pkg/database"
	"github.com/healthbridge/healthbridge/pkg/interfaces"
	"github.com/healthbridge/healthbridge/pkg/logger"
	"github.com/healthbridge/healthbridge/pkg/types"
)

// Repository implements the RecordRepository interface. Payload and
// normalized projections are stored as JSONB columns.
type Repository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewRepository creates a new medical record repository
func NewRepository(db *database.DB, log *logger.Logger) interfaces.RecordRepository {
	return &Repository{
		db:     db,
		logger: log,
	}
}

// Create inserts a new medical record
func (r *Repository) Create(record *types.MedicalRecord) error {
	payload, err := json.Marshal(record.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	normalized, err := json.Marshal(record.Normalized)
	if err != nil {
		return fmt.Errorf("failed to marshal normalized record: %w", err)
	}

	query := `
		INSERT INTO medical_records (id, email, number, payload, normalized)
		VALUES ($1, $2, $3, $4, $5)`

	_, err = r.db.Exec(query, record.ID, record.Email, record.Number, payload, normalized)
	if err != nil {
		r.logger.WithError(err).Error("Failed to create medical record")
		return fmt.Errorf("failed to create medical record: %w", err)
	}

	r.logger.WithField("record_id", record.ID).Info("Created medical record")
	return nil
}

// List retrieves records matching the optional email/number filters, newest first
func (r *Repository) List(email, number string) ([]*types.MedicalRecord, error) {
	query := `
		SELECT id, email, number, payload, normalized, created_at
		FROM medical_records
		WHERE 1=1`

	args := []interface{}{}
	argIndex := 1

	if email != "" {
		query += fmt.Sprintf(" AND email = $%d", argIndex)
		args = append(args, email)
		argIndex++
	}

	if number != "" {
		query += fmt.Sprintf(" AND number = $%d", argIndex)
		args = append(args, number)
		argIndex++
	}

	query += " ORDER BY created_at DESC"

	return r.queryRecords(query, args...)
}

// GetByNumber retrieves all records for a phone number, newest first
func (r *Repository) GetByNumber(number string) ([]*types.MedicalRecord, error) {
	query := `
		SELECT id, email, number, payload, normalized, created_at
		FROM medical_records
		WHERE number = $1
		ORDER BY created_at DESC`

	return r.queryRecords(query, number)
}

func (r *Repository) queryRecords(query string, args ...interface{}) ([]*types.MedicalRecord, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		r.logger.WithError(err).Error("Failed to query medical records")
		return nil, fmt.Errorf("failed to query medical records: %w", err)
	}
	defer rows.Close()

	var records []*types.MedicalRecord
	for rows.Next() {
		record := &types.MedicalRecord{}
		var payload, normalized []byte

		err := rows.Scan(
			&record.ID,
			&record.Email,
			&record.Number,
			&payload,
			&normalized,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan medical record: %w", err)
		}

		if err := json.Unmarshal(payload, &record.Payload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
		}
		if err := json.Unmarshal(normalized, &record.Normalized); err != nil {
			return nil, fmt.Errorf("failed to unmarshal normalized record: %w", err)
		}

		records = append(records, record)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating medical records: %w", err)
	}

	return records, nil
}
