package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushq/sis-api/internal/service"
	appErrors "github.com/campushq/sis-api/pkg/errors"
	"github.com/campushq/sis-api/pkg/response"
)

// GradeHandler exposes assessment and grading endpoints.
type GradeHandler struct {
	grades *service.GradeService
}

// NewGradeHandler constructs GradeHandler.
func NewGradeHandler(grades *service.GradeService) *GradeHandler {
	return &GradeHandler{grades: grades}
}

// ListAssessments godoc
// @Summary List assessment entries for an enrollment
// @Tags Grades
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/assessments [get]
func (h *GradeHandler) ListAssessments(c *gin.Context) {
	entries, err := h.grades.ListAssessments(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// RecordAssessment godoc
// @Summary Record an assessment entry
// @Tags Grades
// @Accept json
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param payload body service.RecordAssessmentRequest true "Assessment payload"
// @Success 201 {object} response.Envelope
// @Router /enrollments/{id}/assessments [post]
func (h *GradeHandler) RecordAssessment(c *gin.Context) {
	var req service.RecordAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req.EnrollmentID = c.Param("id")
	if claims := claimsFromContext(c); claims != nil && req.GradedBy == nil {
		req.GradedBy = &claims.UserID
	}
	entry, err := h.grades.RecordAssessment(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// UpdateAssessment godoc
// @Summary Re-mark an assessment entry
// @Tags Grades
// @Accept json
// @Produce json
// @Param id path string true "Assessment entry ID"
// @Param payload body service.UpdateAssessmentRequest true "Assessment payload"
// @Success 200 {object} response.Envelope
// @Router /assessments/{id} [put]
func (h *GradeHandler) UpdateAssessment(c *gin.Context) {
	var req service.UpdateAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	entry, err := h.grades.UpdateAssessment(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// Preview godoc
// @Summary Preview the current weighted grade
// @Tags Grades
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/grade [get]
func (h *GradeHandler) Preview(c *gin.Context) {
	preview, err := h.grades.Preview(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, preview, nil)
}

// FinalizeGradeRequest optionally names the letter grade to record. When
// omitted the grade is computed from the enrollment's assessment entries.
type FinalizeGradeRequest struct {
	Grade string `json:"grade"`
}

// Finalize godoc
// @Summary Finalize the grade for an enrollment
// @Tags Grades
// @Accept json
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param request body FinalizeGradeRequest false "Explicit letter grade"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/grade/finalize [post]
func (h *GradeHandler) Finalize(c *gin.Context) {
	var req FinalizeGradeRequest
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
			return
		}
	}
	enrollment, err := h.grades.Finalize(c.Request.Context(), c.Param("id"), req.Grade)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}
