package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-report-card-api/internal/dto"
	"github.com/noah-isme/sma-report-card-api/internal/middleware"
	"github.com/noah-isme/sma-report-card-api/internal/models"
	"github.com/noah-isme/sma-report-card-api/internal/service"
	appErrors "github.com/noah-isme/sma-report-card-api/pkg/errors"
	"github.com/noah-isme/sma-report-card-api/pkg/response"
)

type missingGradeService interface {
	Find(ctx context.Context, q service.MissingGradeQuery) ([]models.MissingGradeEntry, bool, error)
}

type missingGradeNotifier interface {
	NotifyMissingGrades(ctx context.Context, q service.MissingGradeQuery) (string, error)
}

// MissingGradeHandler reports grades a teacher has yet to enter.
type MissingGradeHandler struct {
	service  missingGradeService
	notifier missingGradeNotifier
}

// NewMissingGradeHandler constructs the handler. notifier may be nil when notifications are disabled.
func NewMissingGradeHandler(service missingGradeService, notifier missingGradeNotifier) *MissingGradeHandler {
	return &MissingGradeHandler{service: service, notifier: notifier}
}

// List godoc
// @Summary Students missing grades in the caller's courses
// @Tags MissingGrades
// @Produce json
// @Param term query string true "Term"
// @Param academicYear query string true "Academic year"
// @Param teacherId query string false "Teacher to report on (admins only)"
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /missing-grades [get]
func (h *MissingGradeHandler) List(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	teacherID, err := missingGradesTeacher(claims, strings.TrimSpace(c.Query("teacherId")))
	if err != nil {
		response.Error(c, err)
		return
	}
	q := service.MissingGradeQuery{
		TeacherID:    teacherID,
		Term:         strings.TrimSpace(c.Query("term")),
		AcademicYear: strings.TrimSpace(c.Query("academicYear")),
	}

	entries, cacheHit, err := h.service.Find(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	if entries == nil {
		entries = []models.MissingGradeEntry{}
	}
	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ResponseMeta(c)
	response.JSON(c, http.StatusOK, dto.MissingGradesResponse{
		Term:         q.Term,
		AcademicYear: q.AcademicYear,
		Students:     entries,
		Total:        len(entries),
	}, nil, meta)
}

// Notify godoc
// @Summary Queue a missing-grade notification for the caller
// @Tags MissingGrades
// @Accept json
// @Produce json
// @Param payload body dto.NotifyMissingGradesRequest true "Term selection"
// @Success 202 {object} response.Envelope
// @Router /missing-grades/notify [post]
func (h *MissingGradeHandler) Notify(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	if h.notifier == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "notifications are disabled"))
		return
	}
	var req dto.NotifyMissingGradesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	jobID, err := h.notifier.NotifyMissingGrades(c.Request.Context(), service.MissingGradeQuery{
		TeacherID:    claims.UserID(),
		Term:         strings.TrimSpace(req.Term),
		AcademicYear: strings.TrimSpace(req.AcademicYear),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, dto.NotifyMissingGradesResponse{JobID: jobID})
}

// missingGradesTeacher picks whose courses to report on. Admins may name any teacher;
// everyone else only sees their own.
func missingGradesTeacher(claims *models.JWTClaims, requested string) (string, error) {
	if requested == "" || requested == claims.UserID() {
		return claims.UserID(), nil
	}
	if claims.AppRole() != models.RoleAdmin {
		return "", appErrors.Clone(appErrors.ErrForbidden, "only admins may view another teacher's missing grades")
	}
	return requested, nil
}
