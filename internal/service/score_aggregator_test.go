package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushq/sis-api/internal/models"
	appErrors "github.com/campushq/sis-api/pkg/errors"
)

func TestAggregateWeighted(t *testing.T) {
	entries := []models.AssessmentEntry{
		{Name: "midterm", MarksObtained: 80, TotalMarks: 100, Weight: 40},
		{Name: "final", MarksObtained: 90, TotalMarks: 100, Weight: 60},
	}
	got, err := AggregateWeighted(entries)
	require.NoError(t, err)
	assert.InDelta(t, 86.0, got, 1e-9)
}

func TestAggregateWeightedNormalizesPartialWeights(t *testing.T) {
	// Weights sum to 50, not 100; the result is relative to weight present.
	entries := []models.AssessmentEntry{
		{Name: "quiz 1", MarksObtained: 10, TotalMarks: 10, Weight: 20},
		{Name: "quiz 2", MarksObtained: 5, TotalMarks: 10, Weight: 30},
	}
	got, err := AggregateWeighted(entries)
	require.NoError(t, err)
	assert.InDelta(t, 70.0, got, 1e-9)
}

func TestAggregateWeightedScalesRawMarks(t *testing.T) {
	entries := []models.AssessmentEntry{
		{Name: "lab", MarksObtained: 18, TotalMarks: 20, Weight: 100},
	}
	got, err := AggregateWeighted(entries)
	require.NoError(t, err)
	assert.InDelta(t, 90.0, got, 1e-9)
}

func TestAggregateWeightedZeroWeight(t *testing.T) {
	entries := []models.AssessmentEntry{
		{Name: "ungraded", MarksObtained: 9, TotalMarks: 10, Weight: 0},
	}
	got, err := AggregateWeighted(entries)
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestAggregateWeightedIgnoresZeroWeightAlongsideWeighted(t *testing.T) {
	// The zero-weight entry neither contributes nor dilutes the result.
	entries := []models.AssessmentEntry{
		{Name: "quiz", MarksObtained: 80, TotalMarks: 100, Weight: 20},
		{Name: "ungraded", MarksObtained: 90, TotalMarks: 100, Weight: 0},
	}
	got, err := AggregateWeighted(entries)
	require.NoError(t, err)
	assert.InDelta(t, 80.0, got, 1e-9)
}

func TestAggregateWeightedEmpty(t *testing.T) {
	got, err := AggregateWeighted(nil)
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestAggregateWeightedRejectsInvalidEntries(t *testing.T) {
	cases := []models.AssessmentEntry{
		{Name: "zero total", MarksObtained: 0, TotalMarks: 0, Weight: 10},
		{Name: "over total", MarksObtained: 11, TotalMarks: 10, Weight: 10},
		{Name: "negative weight", MarksObtained: 5, TotalMarks: 10, Weight: -1},
	}
	for _, entry := range cases {
		_, err := AggregateWeighted([]models.AssessmentEntry{entry})
		require.Error(t, err, entry.Name)
		appErr := appErrors.FromError(err)
		assert.Equal(t, appErrors.ErrInvalidAssessment.Code, appErr.Code, entry.Name)
	}
}
