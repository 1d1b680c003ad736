package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-report-card-api/internal/dto"
	"github.com/noah-isme/sma-report-card-api/internal/models"
	"github.com/noah-isme/sma-report-card-api/internal/service"
	"github.com/noah-isme/sma-report-card-api/pkg/response"
)

type exportService interface {
	Export(ctx context.Context, q service.ReportCardQuery, format string) (*service.ExportResult, error)
	Download(ctx context.Context, token string, actor *models.JWTClaims) (*service.ExportDownload, error)
}

// ExportHandler serves report card exports.
type ExportHandler struct {
	service exportService
}

// NewExportHandler constructs the handler.
func NewExportHandler(service exportService) *ExportHandler {
	return &ExportHandler{service: service}
}

// Export godoc
// @Summary Export a report card
// @Tags Exports
// @Produce json
// @Param studentId path string true "Student profile ID"
// @Param term query string true "Term"
// @Param academicYear query string true "Academic year"
// @Param format query string false "pdf, csv or xlsx" default(pdf)
// @Success 201 {object} response.Envelope
// @Router /report-cards/{studentId}/export [get]
func (h *ExportHandler) Export(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	q, err := reportCardQuery(c, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	format := strings.TrimSpace(c.DefaultQuery("format", "pdf"))

	result, err := h.service.Export(c.Request.Context(), q, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, dto.ExportResponse{Format: result.Format, URL: result.URL, ExpiresAt: result.ExpiresAt}, nil)
}

// Download godoc
// @Summary Download a stored export by signed token
// @Tags Exports
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /exports/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	result, err := h.service.Download(c.Request.Context(), c.Param("token"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer result.Body.Close() //nolint:errcheck

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", result.Filename))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, -1, result.ContentType, result.Body, nil)
}
