package service

import (
	"fmt"

	"github.com/campushq/sis-api/internal/models"
	appErrors "github.com/campushq/sis-api/pkg/errors"
)

// AggregateWeighted combines assessment entries into a single percentage.
// Each entry contributes its percentage score weighted by its weight; the
// result is normalized by the total weight present, not by an assumed 100.
// Zero total weight yields 0.
func AggregateWeighted(entries []models.AssessmentEntry) (float64, error) {
	var weightedSum, totalWeight float64
	for _, entry := range entries {
		if err := validateEntry(entry); err != nil {
			return 0, err
		}
		weightedSum += entry.Percentage() * entry.Weight
		totalWeight += entry.Weight
	}
	if totalWeight == 0 {
		return 0, nil
	}
	return weightedSum / totalWeight, nil
}

func validateEntry(entry models.AssessmentEntry) error {
	if entry.TotalMarks <= 0 {
		return appErrors.Clone(appErrors.ErrInvalidAssessment, fmt.Sprintf("assessment %q has non-positive total marks", entry.Name))
	}
	if entry.MarksObtained > entry.TotalMarks {
		return appErrors.Clone(appErrors.ErrInvalidAssessment, fmt.Sprintf("assessment %q marks exceed total marks", entry.Name))
	}
	if entry.Weight < 0 {
		return appErrors.Clone(appErrors.ErrInvalidAssessment, fmt.Sprintf("assessment %q has negative weight", entry.Name))
	}
	return nil
}
