package record

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthbridge/healthbridge/pkg/types"
)

func TestNormalize_SingleSource(t *testing.T) {
	now := time.Now()
	payload := &types.RecordPayload{
		GeminiOutput: &types.SourceBlock{PatientName: "Jane"},
	}

	n := Normalize("a@x.com", "123", payload, now)

	assert.Equal(t, "Jane", n.Patient.PatientName)
	assert.Equal(t, "a@x.com", n.Patient.Email)
	assert.Equal(t, "123", n.Patient.Number)
	assert.Equal(t, []string{"gemini_output"}, n.Meta.Sources)
	assert.Equal(t, now, n.Meta.IngestedAt)
}

func TestNormalize_PrecedenceOrder(t *testing.T) {
	payload := &types.RecordPayload{
		GeminiOutput: &types.SourceBlock{
			PatientName: "Jane G",
			Diagnoses:   []string{"migraine"},
		},
		ScanOutput: &types.SourceBlock{
			PatientName: "Jane S",
			Age:         "34",
			Diagnoses:   []string{"tension headache"},
		},
		ManualEntry: &types.SourceBlock{
			PatientName: "Jane M",
			Age:         "35",
			Gender:      "female",
		},
	}

	n := Normalize("a@x.com", "123", payload, time.Now())

	// gemini_output wins wherever it has a value
	assert.Equal(t, "Jane G", n.Patient.PatientName)
	assert.Equal(t, []string{"migraine"}, n.Diagnoses)

	// lower-precedence blocks fill only the gaps
	assert.Equal(t, "34", n.Patient.Age)
	assert.Equal(t, "female", n.Patient.Gender)

	assert.Equal(t, []string{"gemini_output", "scan_output", "manual_entry"}, n.Meta.Sources)
}

func TestNormalize_EmptyBlocksSkipped(t *testing.T) {
	payload := &types.RecordPayload{
		GeminiOutput: &types.SourceBlock{},
		ManualEntry:  &types.SourceBlock{PatientName: "Ravi"},
	}

	n := Normalize("r@x.com", "456", payload, time.Now())

	assert.Equal(t, "Ravi", n.Patient.PatientName)
	assert.Equal(t, []string{"manual_entry"}, n.Meta.Sources)
}

func TestNormalize_AbsentSectionsDefaultToEmptyContainers(t *testing.T) {
	payload := &types.RecordPayload{
		ScanOutput: &types.SourceBlock{PatientName: "Jane"},
	}

	n := Normalize("a@x.com", "123", payload, time.Now())

	require.NotNil(t, n.Vitals)
	require.NotNil(t, n.Diagnoses)
	require.NotNil(t, n.History)
	require.NotNil(t, n.Medications)
	require.NotNil(t, n.Recommendations)
	assert.Empty(t, n.Vitals)
	assert.Empty(t, n.Diagnoses)
}

func TestNormalize_VitalsAndMedications(t *testing.T) {
	payload := &types.RecordPayload{
		ScanOutput: &types.SourceBlock{
			Vitals: map[string]string{"bp": "120/80", "pulse": "72"},
			Medications: []types.Medication{
				{Name: "paracetamol", Dosage: "500mg", Frequency: "bid"},
			},
			Recommendations: []string{"hydration"},
		},
		ManualEntry: &types.SourceBlock{
			Vitals: map[string]string{"bp": "130/85"},
		},
	}

	n := Normalize("a@x.com", "123", payload, time.Now())

	// the whole vitals map comes from the highest-precedence block that has one
	assert.Equal(t, "120/80", n.Vitals["bp"])
	assert.Equal(t, "72", n.Vitals["pulse"])
	require.Len(t, n.Medications, 1)
	assert.Equal(t, "paracetamol", n.Medications[0].Name)
	assert.Equal(t, []string{"hydration"}, n.Recommendations)
}
