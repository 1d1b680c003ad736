package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-report-card-api/internal/dto"
	"github.com/noah-isme/sma-report-card-api/internal/models"
	"github.com/noah-isme/sma-report-card-api/internal/service"
	appErrors "github.com/noah-isme/sma-report-card-api/pkg/errors"
	"github.com/noah-isme/sma-report-card-api/pkg/response"
)

type reportCardService interface {
	GetReportCard(ctx context.Context, q service.ReportCardQuery) (*service.ReportCardView, error)
	SaveReportCard(ctx context.Context, req service.SaveReportCardRequest, actorID string) (*service.SaveReportCardResult, error)
	UpsertGrade(ctx context.Context, req service.UpsertGradeRequest, actorID string) (*models.Grade, error)
	DeleteGrade(ctx context.Context, reportID, subjectID, actorID string) error
}

// ReportCardHandler exposes report card read and write endpoints.
type ReportCardHandler struct {
	service reportCardService
}

// NewReportCardHandler constructs the handler.
func NewReportCardHandler(service reportCardService) *ReportCardHandler {
	return &ReportCardHandler{service: service}
}

// Get godoc
// @Summary Student report card for a term
// @Tags ReportCards
// @Produce json
// @Param studentId path string true "Student profile ID"
// @Param term query string true "Term"
// @Param academicYear query string true "Academic year"
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /report-cards/{studentId} [get]
func (h *ReportCardHandler) Get(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	q, err := reportCardQuery(c, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	view, err := h.service.GetReportCard(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewReportCardResponse(view.Student, q.Term, q.AcademicYear, view.Report, view.Rows, view.Summary), nil)
}

// Save godoc
// @Summary Upsert a report and the caller's grades on it
// @Tags ReportCards
// @Accept json
// @Produce json
// @Param studentId path string true "Student profile ID"
// @Param payload body dto.SaveReportCardRequest true "Report card payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /report-cards/{studentId} [put]
func (h *ReportCardHandler) Save(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.SaveReportCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	grades := make([]service.GradeInput, 0, len(req.Grades))
	for _, g := range req.Grades {
		grades = append(grades, gradeInput(g))
	}
	result, err := h.service.SaveReportCard(c.Request.Context(), service.SaveReportCardRequest{
		StudentID:             c.Param("studentId"),
		Term:                  strings.TrimSpace(req.Term),
		AcademicYear:          strings.TrimSpace(req.AcademicYear),
		Attendance:            req.Attendance,
		Conduct:               req.Conduct,
		ClassTeacherRemarks:   req.ClassTeacherRemarks,
		HeadTeacherRemarks:    req.HeadTeacherRemarks,
		ClassTeacherSignature: req.ClassTeacherSignature,
		HeadTeacherSignature:  req.HeadTeacherSignature,
		Grades:                grades,
	}, claims.UserID())
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := dto.SaveReportCardResponse{Report: dto.NewReportView(*result.Report), Grades: make([]dto.GradeView, 0, len(result.Grades))}
	for _, g := range result.Grades {
		resp.Grades = append(resp.Grades, dto.NewGradeView(g))
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// UpsertGrade godoc
// @Summary Upsert one grade on an existing report
// @Tags ReportCards
// @Accept json
// @Produce json
// @Param reportId path string true "Report ID"
// @Param subjectId path string true "Subject (course) ID"
// @Param payload body dto.GradeRequest true "Scores"
// @Success 200 {object} response.Envelope
// @Router /report-cards/reports/{reportId}/grades/{subjectId} [put]
func (h *ReportCardHandler) UpsertGrade(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.GradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	req.SubjectID = c.Param("subjectId")

	grade, err := h.service.UpsertGrade(c.Request.Context(), service.UpsertGradeRequest{
		ReportID:   c.Param("reportId"),
		GradeInput: gradeInput(req),
	}, claims.UserID())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewGradeView(*grade), nil)
}

// DeleteGrade godoc
// @Summary Delete one grade
// @Tags ReportCards
// @Param reportId path string true "Report ID"
// @Param subjectId path string true "Subject (course) ID"
// @Success 204
// @Router /report-cards/reports/{reportId}/grades/{subjectId} [delete]
func (h *ReportCardHandler) DeleteGrade(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	if err := h.service.DeleteGrade(c.Request.Context(), c.Param("reportId"), c.Param("subjectId"), claims.UserID()); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func reportCardQuery(c *gin.Context, claims *models.JWTClaims) (service.ReportCardQuery, error) {
	q := service.ReportCardQuery{
		StudentID:    strings.TrimSpace(c.Param("studentId")),
		Term:         strings.TrimSpace(c.Query("term")),
		AcademicYear: strings.TrimSpace(c.Query("academicYear")),
		ActorID:      claims.UserID(),
	}
	if q.Term == "" || q.AcademicYear == "" {
		return q, appErrors.Clone(appErrors.ErrValidation, "term and academicYear are required")
	}
	if claims.AppRole() == models.RoleStudent && claims.UserID() != q.StudentID {
		return q, appErrors.Clone(appErrors.ErrForbidden, "students may only view their own report card")
	}
	return q, nil
}

func gradeInput(g dto.GradeRequest) service.GradeInput {
	return service.GradeInput{
		SubjectID:        g.SubjectID,
		ClassScore:       g.ClassScore,
		ExamScore:        g.ExamScore,
		Position:         g.Position,
		TeacherRemark:    g.TeacherRemark,
		TeacherSignature: g.TeacherSignature,
	}
}
