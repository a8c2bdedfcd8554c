package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/fh-academy-api/internal/authoring"
	"github.com/noah-isme/fh-academy-api/internal/models"
	appErrors "github.com/noah-isme/fh-academy-api/pkg/errors"
	"github.com/noah-isme/fh-academy-api/pkg/export"
)

const exportPageSize = 100

var learnerExportHeaders = []string{"Name", "Email", "Joined", "Completed", "In Progress", "Badges", "Progress (%)", "Last Active"}

type learnerSource interface {
	ListLearners(ctx context.Context, filter models.UserFilter) ([]models.LearnerSummary, int, error)
	DashboardStats(ctx context.Context) (*models.DashboardStats, error)
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
	Rows        int
}

// ExportService renders the learner progress report.
type ExportService struct {
	learners  learnerSource
	exporters map[string]export.Exporter
	logger    *zap.Logger
	now       func() time.Time
}

// NewExportService constructs an ExportService with CSV and PDF renderers.
func NewExportService(learners learnerSource, logger *zap.Logger, exporters ...export.Exporter) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(exporters) == 0 {
		exporters = []export.Exporter{export.NewCSVExporter(), export.NewPDFExporter()}
	}
	byFormat := make(map[string]export.Exporter, len(exporters))
	for _, e := range exporters {
		byFormat[e.Extension()] = e
	}
	return &ExportService{learners: learners, exporters: byFormat, logger: logger, now: time.Now}
}

// Learners renders every learner matching filter in the requested format.
func (s *ExportService) Learners(ctx context.Context, actor authoring.Actor, format string, filter models.UserFilter, meta models.LoginRequest) (*ExportFile, error) {
	if _, err := authorize(actor, authoring.TabUsers); err != nil {
		return nil, err
	}
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "csv"
	}
	exporter, ok := s.exporters[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	learners, err := s.collect(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load learners")
	}
	stats, err := s.learners.DashboardStats(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count courses")
	}

	now := s.now().UTC()
	dataset := export.Dataset{
		Title:   fmt.Sprintf("Learner progress %s", now.Format("2006-01-02")),
		Headers: learnerExportHeaders,
		Rows:    make([]map[string]string, 0, len(learners)),
	}
	for _, l := range learners {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Name":         l.DisplayName,
			"Email":        l.Email,
			"Joined":       l.CreatedAt.UTC().Format("2006-01-02"),
			"Completed":    strconv.Itoa(l.CoursesCompleted),
			"In Progress":  strconv.Itoa(l.CoursesInProgress),
			"Badges":       strconv.Itoa(l.BadgesEarned),
			"Progress (%)": strconv.Itoa(percent(l.CoursesCompleted, stats.PublishedCourses)),
			"Last Active":  formatLastActive(l.LastActive),
		})
	}

	data, err := exporter.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	payload, _ := json.Marshal(map[string]interface{}{"format": format, "rows": len(learners), "search": filter.Search})
	if err := s.learners.CreateAuditLog(ctx, &models.AuditLog{
		UserID:    optional(actor.UserID),
		Action:    models.AuditActionExport,
		Resource:  models.AuditResourceUser,
		NewValues: payload,
		IPAddress: meta.IP,
		UserAgent: meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record export audit log", zap.Error(err))
	}

	return &ExportFile{
		Filename:    fmt.Sprintf("learners-%s.%s", now.Format("20060102-150405"), exporter.Extension()),
		ContentType: exporter.ContentType(),
		Data:        data,
		Rows:        len(learners),
	}, nil
}

func (s *ExportService) collect(ctx context.Context, filter models.UserFilter) ([]models.LearnerSummary, error) {
	filter.PageSize = exportPageSize
	var all []models.LearnerSummary
	for page := 1; ; page++ {
		filter.Page = page
		batch, total, err := s.learners.ListLearners(ctx, filter)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < exportPageSize || len(all) >= total {
			return all, nil
		}
	}
}

func formatLastActive(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.UTC().Format(time.RFC3339)
}
