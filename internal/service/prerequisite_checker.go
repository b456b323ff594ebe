package service

import "github.com/campushq/sis-api/internal/models"

// MissingPrerequisites returns the prerequisites of a course that are absent
// from the student's completed-course set, preserving the course's stored
// prerequisite order. An empty return means the requirement is satisfied; a
// course without prerequisites always is.
func MissingPrerequisites(prerequisites []models.CourseRef, completedCourseIDs map[string]bool) []models.CourseRef {
	var missing []models.CourseRef
	for _, prereq := range prerequisites {
		if !completedCourseIDs[prereq.ID] {
			missing = append(missing, prereq)
		}
	}
	return missing
}
