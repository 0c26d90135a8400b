package record

import (
	"time"

	"github.com/healthbridge/healthbridge/pkg/types"
)

// Normalize computes the fixed projection of an ingest payload. For each
// target field the first non-empty value wins, scanning the payload's source
// blocks in precedence order (gemini_output, scan_output, manual_entry).
// Sections absent from every block come out as empty containers, never nil.
func Normalize(email, number string, payload *types.RecordPayload, now time.Time) types.NormalizedRecord {
	normalized := types.NormalizedRecord{
		Patient: types.PatientSummary{
			Email:  email,
			Number: number,
		},
		Vitals:          map[string]string{},
		Diagnoses:       []string{},
		History:         []string{},
		Medications:     []types.Medication{},
		Recommendations: []string{},
		Meta: types.IngestMeta{
			Sources:    []string{},
			IngestedAt: now,
		},
	}

	blocks := payload.Blocks()
	for i, block := range blocks {
		if block.Empty() {
			continue
		}
		normalized.Meta.Sources = append(normalized.Meta.Sources, types.SourceNames[i])
	}

	for _, block := range blocks {
		if block.Empty() {
			continue
		}

		if normalized.Patient.PatientName == "" {
			normalized.Patient.PatientName = block.PatientName
		}
		if normalized.Patient.Age == "" {
			normalized.Patient.Age = block.Age
		}
		if normalized.Patient.Gender == "" {
			normalized.Patient.Gender = block.Gender
		}
		if len(normalized.Vitals) == 0 && len(block.Vitals) > 0 {
			for k, v := range block.Vitals {
				normalized.Vitals[k] = v
			}
		}
		if len(normalized.Diagnoses) == 0 && len(block.Diagnoses) > 0 {
			normalized.Diagnoses = append(normalized.Diagnoses, block.Diagnoses...)
		}
		if len(normalized.History) == 0 && len(block.History) > 0 {
			normalized.History = append(normalized.History, block.History...)
		}
		if len(normalized.Medications) == 0 && len(block.Medications) > 0 {
			normalized.Medications = append(normalized.Medications, block.Medications...)
		}
		if len(normalized.Recommendations) == 0 && len(block.Recommendations) > 0 {
			normalized.Recommendations = append(normalized.Recommendations, block.Recommendations...)
		}
	}

	return normalized
}
