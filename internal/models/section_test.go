package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/campushq/sis-api/pkg/errors"
)

func TestSectionIncrementEnrollment(t *testing.T) {
	s := &Section{MaxCapacity: 2, Status: SectionStatusOpen}

	require.NoError(t, s.IncrementEnrollment())
	assert.Equal(t, 1, s.CurrentEnrollment)
	assert.Equal(t, SectionStatusOpen, s.Status)

	require.NoError(t, s.IncrementEnrollment())
	assert.Equal(t, 2, s.CurrentEnrollment)
	assert.Equal(t, SectionStatusClosed, s.Status)

	err := s.IncrementEnrollment()
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrSectionFull)
	assert.Equal(t, 2, s.CurrentEnrollment)
}

func TestSectionIncrementCancelled(t *testing.T) {
	s := &Section{MaxCapacity: 10, Status: SectionStatusCancelled}

	err := s.IncrementEnrollment()
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrSectionUnavailable)
	assert.Equal(t, 0, s.CurrentEnrollment)
}

func TestSectionDecrementReopens(t *testing.T) {
	s := &Section{MaxCapacity: 1, CurrentEnrollment: 1, Status: SectionStatusClosed}

	s.DecrementEnrollment()
	assert.Equal(t, 0, s.CurrentEnrollment)
	assert.Equal(t, SectionStatusOpen, s.Status)
}

func TestSectionDecrementFloorsAtZero(t *testing.T) {
	s := &Section{MaxCapacity: 5, CurrentEnrollment: 0, Status: SectionStatusOpen}

	s.DecrementEnrollment()
	assert.Equal(t, 0, s.CurrentEnrollment)
}

func TestSectionDecrementKeepsCancelled(t *testing.T) {
	s := &Section{MaxCapacity: 1, CurrentEnrollment: 1, Status: SectionStatusCancelled}

	s.DecrementEnrollment()
	assert.Equal(t, 0, s.CurrentEnrollment)
	assert.Equal(t, SectionStatusCancelled, s.Status)
}

func TestSectionCapacityNeverExceeded(t *testing.T) {
	s := &Section{MaxCapacity: 3, Status: SectionStatusOpen}
	admitted := 0
	for i := 0; i < 10; i++ {
		if err := s.IncrementEnrollment(); err == nil {
			admitted++
		}
	}
	assert.Equal(t, 3, admitted)
	assert.Equal(t, 3, s.CurrentEnrollment)
	assert.Equal(t, SectionStatusClosed, s.Status)
}
