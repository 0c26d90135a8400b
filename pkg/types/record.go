package types

import "time"

// Medication represents one entry of a medication history
type Medication struct {
	Name      string `json:"name,omitempty"`
	Dosage    string `json:"dosage,omitempty"`
	Frequency string `json:"frequency,omitempty"`
	Duration  string `json:"duration,omitempty"`
}

// SourceBlock is one named source of clinical data inside an ingest payload.
// Every field is optional; normalization picks the first non-empty value per
// field across the payload's blocks in precedence order.
type SourceBlock struct {
	PatientName     string            `json:"patient_name,omitempty"`
	Age             string            `json:"age,omitempty"`
	Gender          string            `json:"gender,omitempty"`
	Vitals          map[string]string `json:"vitals,omitempty"`
	Diagnoses       []string          `json:"diagnoses,omitempty"`
	History         []string          `json:"history,omitempty"`
	Medications     []Medication      `json:"medications,omitempty"`
	Recommendations []string          `json:"recommendations,omitempty"`
}

// Empty reports whether the block carries no data at all
func (b *SourceBlock) Empty() bool {
	if b == nil {
		return true
	}
	return b.PatientName == "" && b.Age == "" && b.Gender == "" &&
		len(b.Vitals) == 0 && len(b.Diagnoses) == 0 && len(b.History) == 0 &&
		len(b.Medications) == 0 && len(b.Recommendations) == 0
}

// RecordPayload is the tagged union of source blocks accepted by record
// ingestion. Precedence is fixed: gemini_output, then scan_output, then
// manual_entry.
type RecordPayload struct {
	GeminiOutput *SourceBlock `json:"gemini_output,omitempty"`
	ScanOutput   *SourceBlock `json:"scan_output,omitempty"`
	ManualEntry  *SourceBlock `json:"manual_entry,omitempty"`
}

// SourceNames lists the payload's block names in precedence order
var SourceNames = []string{"gemini_output", "scan_output", "manual_entry"}

// Blocks returns the payload's source blocks in precedence order. Absent
// blocks are returned as nil entries so indexes line up with SourceNames.
func (p *RecordPayload) Blocks() []*SourceBlock {
	if p == nil {
		return []*SourceBlock{nil, nil, nil}
	}
	return []*SourceBlock{p.GeminiOutput, p.ScanOutput, p.ManualEntry}
}

// Empty reports whether none of the payload's blocks carry data
func (p *RecordPayload) Empty() bool {
	for _, b := range p.Blocks() {
		if !b.Empty() {
			return false
		}
	}
	return true
}

// PatientSummary is the identity portion of a normalized record
type PatientSummary struct {
	PatientName string `json:"patient_name"`
	Age         string `json:"age"`
	Gender      string `json:"gender"`
	Email       string `json:"email"`
	Number      string `json:"number"`
}

// IngestMeta records provenance for a normalized record
type IngestMeta struct {
	Sources    []string  `json:"sources"`
	IngestedAt time.Time `json:"ingested_at"`
}

// NormalizedRecord is the projection computed at ingest time. Sections
// missing from every source block default to empty containers, never null.
type NormalizedRecord struct {
	Patient         PatientSummary    `json:"patient"`
	Vitals          map[string]string `json:"vitals"`
	Diagnoses       []string          `json:"diagnoses"`
	History         []string          `json:"history"`
	Medications     []Medication      `json:"medications"`
	Recommendations []string          `json:"recommendations"`
	Meta            IngestMeta        `json:"meta"`
}

// MedicalRecord represents one ingested clinical payload for a patient
// contact. Records are immutable after creation.
type MedicalRecord struct {
	ID         string           `json:"id" db:"id"`
	Email      string           `json:"email" db:"email"`
	Number     string           `json:"number" db:"number"`
	Payload    RecordPayload    `json:"payload" db:"payload"`
	Normalized NormalizedRecord `json:"normalized" db:"normalized"`
	CreatedAt  time.Time        `json:"created_at" db:"created_at"`
}

// IngestRecordRequest is the body of the record ingestion endpoint
type IngestRecordRequest struct {
	Email    string         `json:"email"`
	Number   string         `json:"number"`
	JSONData *RecordPayload `json:"jsonData"`
}
