package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/campushq/sis-api/internal/models"
)

func TestMissingPrerequisitesEmptyRequirement(t *testing.T) {
	assert.Empty(t, MissingPrerequisites(nil, nil))
	assert.Empty(t, MissingPrerequisites(nil, map[string]bool{"c1": true}))
}

func TestMissingPrerequisitesAllSatisfied(t *testing.T) {
	prereqs := []models.CourseRef{{ID: "c1", Code: "CS101"}, {ID: "c2", Code: "CS102"}}
	completed := map[string]bool{"c1": true, "c2": true, "c3": true}
	assert.Empty(t, MissingPrerequisites(prereqs, completed))
}

func TestMissingPrerequisitesPartial(t *testing.T) {
	prereqs := []models.CourseRef{
		{ID: "c1", Code: "CS101"},
		{ID: "c2", Code: "CS102"},
		{ID: "c3", Code: "MA201"},
	}
	completed := map[string]bool{"c2": true}

	missing := MissingPrerequisites(prereqs, completed)
	assert.Len(t, missing, 2)
	// Stored order is preserved.
	assert.Equal(t, "c1", missing[0].ID)
	assert.Equal(t, "c3", missing[1].ID)
}

func TestMissingPrerequisitesNoHistory(t *testing.T) {
	prereqs := []models.CourseRef{{ID: "c1", Code: "CS101"}}
	missing := MissingPrerequisites(prereqs, nil)
	assert.Len(t, missing, 1)
}
