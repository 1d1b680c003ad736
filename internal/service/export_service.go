package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-report-card-api/internal/grading"
	"github.com/noah-isme/sma-report-card-api/internal/models"
	appErrors "github.com/noah-isme/sma-report-card-api/pkg/errors"
	"github.com/noah-isme/sma-report-card-api/pkg/export"
	"github.com/noah-isme/sma-report-card-api/pkg/storage"
)

type reportCardReader interface {
	GetReportCard(ctx context.Context, q ReportCardQuery) (*ReportCardView, error)
}

type downloadSigner interface {
	Generate(subject, key string) (string, time.Time, error)
	Parse(token string) (storage.DownloadClaims, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix  string
	SchoolName string
}

// ExportResult describes a stored export and its signed download link.
type ExportResult struct {
	Key       string    `json:"key"`
	Format    string    `json:"format"`
	Token     string    `json:"token"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ExportDownload bundles a stored export for streaming.
type ExportDownload struct {
	Body        io.ReadCloser
	Filename    string
	ContentType string
}

// ExportService renders report cards, stores them and signs download links.
type ExportService struct {
	reportCards reportCardReader
	store       storage.ObjectStore
	signer      downloadSigner
	metrics     *MetricsService
	logger      *zap.Logger
	cfg         ExportConfig
	now         func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(reportCards reportCardReader, store storage.ObjectStore, signer downloadSigner, metrics *MetricsService, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	return &ExportService{
		reportCards: reportCards,
		store:       store,
		signer:      signer,
		metrics:     metrics,
		logger:      logger,
		cfg:         cfg,
		now:         time.Now,
	}
}

// Export renders the report card in format, uploads it and returns a link signed for the actor.
func (s *ExportService) Export(ctx context.Context, q ReportCardQuery, format string) (*ExportResult, error) {
	renderer, err := export.ForFormat(strings.ToLower(strings.TrimSpace(format)))
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be one of pdf, csv, xlsx")
	}

	view, err := s.reportCards.GetReportCard(ctx, q)
	if err != nil {
		return nil, err
	}

	payload, err := renderer.Render(s.buildDocument(view, q))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report card")
	}

	key := s.objectKey(q, renderer.Extension())
	if err := s.store.Put(ctx, key, bytes.NewReader(payload), renderer.ContentType()); err != nil {
		s.logger.Error("export upload failed", zap.String("key", key), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}

	token, expiresAt, err := s.signer.Generate(q.ActorID, key)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}
	s.metrics.RecordExport(renderer.Extension())
	s.logger.Info("report card exported", zap.String("student_id", q.StudentID), zap.String("format", renderer.Extension()), zap.Int("bytes", len(payload)))

	return &ExportResult{
		Key:       key,
		Format:    renderer.Extension(),
		Token:     token,
		URL:       fmt.Sprintf("%s/exports/%s", strings.TrimRight(s.cfg.APIPrefix, "/"), token),
		ExpiresAt: expiresAt,
	}, nil
}

// Download validates the token and opens the stored export. Only the requester or an admin may use a link.
func (s *ExportService) Download(ctx context.Context, token string, actor *models.JWTClaims) (*ExportDownload, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	claims, err := s.signer.Parse(token)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "download link expired")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid download link")
	}
	if claims.Subject != actor.UserID() && actor.AppRole() != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "download link belongs to another user")
	}

	body, err := s.store.Get(ctx, claims.Key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export")
	}

	filename := path.Base(claims.Key)
	return &ExportDownload{Body: body, Filename: filename, ContentType: contentTypeFor(filename)}, nil
}

func (s *ExportService) buildDocument(view *ReportCardView, q ReportCardQuery) export.Document {
	header := []export.Field{
		{Label: "Student", Value: view.Student.FullName},
		{Label: "Class", Value: view.Student.ClassYear},
		{Label: "Term", Value: q.Term},
		{Label: "Academic Year", Value: q.AcademicYear},
	}
	if view.Student.StudentNumber != nil {
		header = append(header, export.Field{Label: "Student No.", Value: *view.Student.StudentNumber})
	}

	headers := []string{"Subject", "Class Score", "Exam Score", "Total", "Grade", "Remark", "Position", "Teacher's Remark"}
	rows := make([]map[string]string, 0, len(view.Rows))
	for _, row := range view.Rows {
		course := row.Subject()
		cells := map[string]string{"Subject": course.CourseName}
		if existing, ok := row.(models.ExistingRow); ok {
			g := existing.Grade
			total := grading.Total(g.ClassScore, g.ExamScore)
			cells["Class Score"] = formatScore(g.ClassScore)
			cells["Exam Score"] = formatScore(g.ExamScore)
			cells["Total"] = fmt.Sprintf("%.2f", total)
			cells["Grade"] = grading.LetterGrade(total)
			cells["Remark"] = grading.Remark(total)
			cells["Position"] = derefString(g.Position)
			cells["Teacher's Remark"] = derefString(g.TeacherRemark)
		}
		rows = append(rows, cells)
	}

	footer := []export.Field{
		{Label: "Total Score", Value: fmt.Sprintf("%.2f", view.Summary.TotalScore)},
		{Label: "Average", Value: view.Summary.AverageDisplay},
		{Label: "Overall Grade", Value: view.Summary.OverallGrade},
		{Label: "Remark", Value: view.Summary.Remark},
	}
	if r := view.Report; r != nil {
		footer = append(footer,
			export.Field{Label: "Attendance", Value: derefString(r.Attendance)},
			export.Field{Label: "Conduct", Value: derefString(r.Conduct)},
			export.Field{Label: "Class Teacher's Remarks", Value: derefString(r.ClassTeacherRemarks)},
			export.Field{Label: "Head Teacher's Remarks", Value: derefString(r.HeadTeacherRemarks)},
		)
	}

	title := "Terminal Report"
	if s.cfg.SchoolName != "" {
		title = s.cfg.SchoolName + " " + title
	}
	return export.Document{Title: title, Header: header, Table: export.Dataset{Headers: headers, Rows: rows}, Footer: footer}
}

func (s *ExportService) objectKey(q ReportCardQuery, ext string) string {
	name := fmt.Sprintf("%s_%s_%s.%s", sanitizeFilename(q.Term), sanitizeFilename(q.AcademicYear), s.now().UTC().Format("20060102_150405"), ext)
	return path.Join("report-cards", sanitizeFilename(q.StudentID), name)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func contentTypeFor(filename string) string {
	if r, err := export.ForFormat(strings.TrimPrefix(path.Ext(filename), ".")); err == nil {
		return r.ContentType()
	}
	return "application/octet-stream"
}

func formatScore(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *v)
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
