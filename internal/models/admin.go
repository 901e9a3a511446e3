package models

// VerifyStudentRequest records the outcome of sitter vetting.
type VerifyStudentRequest struct {
	Verified              *bool                 `json:"verified" validate:"required"`
	BackgroundCheckStatus BackgroundCheckStatus `json:"backgroundCheckStatus" validate:"omitempty,oneof=pending approved rejected not_required"`
}

// ExportFormat enumerates supported admin export formats.
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportPDF  ExportFormat = "pdf"
	ExportXLSX ExportFormat = "xlsx"
)

// ContentType returns the MIME type served for the format.
func (f ExportFormat) ContentType() string {
	switch f {
	case ExportPDF:
		return "application/pdf"
	case ExportXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv"
	}
}
