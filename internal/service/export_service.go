package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sitside-api/internal/models"
	appErrors "github.com/noah-isme/sitside-api/pkg/errors"
	"github.com/noah-isme/sitside-api/pkg/export"
)

var bookingExportHeaders = []string{
	"ID", "Date", "Start", "End", "Student", "Parent", "Children",
	"Hourly Rate", "Total", "Status", "Payment", "Created At",
}

type bookingExportRepository interface {
	ListForExport(ctx context.Context, status *models.BookingStatus) ([]models.BookingExportRow, error)
}

type auditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type datasetRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportFile is a rendered export ready to be streamed.
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
	Rows        int
}

// ExportService renders booking exports for administrators.
type ExportService struct {
	bookings  bookingExportRepository
	audit     auditWriter
	renderers map[models.ExportFormat]datasetRenderer
	logger    *zap.Logger
	now       func() time.Time
}

// NewExportService constructs an ExportService with the CSV, PDF and XLSX renderers.
func NewExportService(bookings bookingExportRepository, audit auditWriter, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		bookings: bookings,
		audit:    audit,
		renderers: map[models.ExportFormat]datasetRenderer{
			models.ExportCSV:  export.NewCSVExporter(),
			models.ExportPDF:  export.NewPDFExporter(),
			models.ExportXLSX: export.NewXLSXExporter(),
		},
		logger: logger,
		now:    time.Now,
	}
}

// ExportBookings renders every booking, optionally narrowed by status, in the requested format.
func (s *ExportService) ExportBookings(ctx context.Context, actor models.UserInfo, format, status string, meta models.RequestMeta) (*ExportFile, error) {
	f := models.ExportFormat(strings.ToLower(strings.TrimSpace(format)))
	if f == "" {
		f = models.ExportCSV
	}
	renderer, ok := s.renderers[f]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv, pdf or xlsx")
	}

	var filter *models.BookingStatus
	if status != "" {
		st := models.BookingStatus(status)
		if !st.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid status %q", status))
		}
		filter = &st
	}

	rows, err := s.bookings.ListForExport(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bookings")
	}

	content, err := renderer.Render(bookingDataset(rows), "Bookings")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	s.recordAudit(ctx, actor, f, len(rows), meta)
	return &ExportFile{
		Filename:    fmt.Sprintf("bookings-%s.%s", s.now().UTC().Format("20060102-150405"), f),
		ContentType: f.ContentType(),
		Content:     content,
		Rows:        len(rows),
	}, nil
}

func (s *ExportService) recordAudit(ctx context.Context, actor models.UserInfo, format models.ExportFormat, rows int, meta models.RequestMeta) {
	if s.audit == nil {
		return
	}
	values := []byte(fmt.Sprintf(`{"format":%q,"rows":%d}`, format, rows))
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:    &actor.ID,
		Action:    models.AuditActionBookingsExport,
		Resource:  "booking",
		NewValues: values,
		IPAddress: meta.IP,
		UserAgent: meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record export audit log", zap.Error(err))
	}
}

func bookingDataset(rows []models.BookingExportRow) export.Dataset {
	data := export.Dataset{Headers: bookingExportHeaders, Rows: make([]map[string]string, 0, len(rows))}
	for _, r := range rows {
		data.Rows = append(data.Rows, map[string]string{
			"ID":          r.ID,
			"Date":        r.Date.Format(dateLayout),
			"Start":       r.StartTime,
			"End":         r.EndTime,
			"Student":     r.StudentName,
			"Parent":      r.ParentName,
			"Children":    strconv.Itoa(r.Children),
			"Hourly Rate": strconv.FormatFloat(r.HourlyRate, 'f', 2, 64),
			"Total":       strconv.FormatFloat(r.TotalAmount, 'f', 2, 64),
			"Status":      string(r.Status),
			"Payment":     string(r.PaymentStatus),
			"Created At":  r.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return data
}
