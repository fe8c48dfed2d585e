package service

import (
	"fmt"
	"strconv"
	"strings"

	appErrors "github.com/coursedesk/coursedesk-api/pkg/errors"
	"github.com/coursedesk/coursedesk-api/pkg/export"

	"github.com/coursedesk/coursedesk-api/internal/models"
)

// Export formats supported by the grade roster export.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

// ExportFile is a rendered export ready to be served as a download.
type ExportFile struct {
	FileName    string
	ContentType string
	Content     []byte
}

// ExportService renders grade rosters into downloadable documents.
type ExportService struct {
	csv *export.CSVExporter
	pdf *export.PDFExporter
}

// NewExportService constructs ExportService.
func NewExportService() *ExportService {
	return &ExportService{csv: export.NewCSVExporter(), pdf: export.NewPDFExporter()}
}

// RenderCourseGrades renders a course's grade roster in the requested
// format. Unknown formats report a validation error.
func (s *ExportService) RenderCourseGrades(course *models.Course, grades []models.GradeDetail, format string) (*ExportFile, error) {
	dataset := export.Dataset{
		Headers: []string{"Student", "Email", "Grade", "Assigned At"},
		Rows:    make([]map[string]string, 0, len(grades)),
	}
	for _, g := range grades {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Student":     strings.TrimSpace(g.StudentFirstName + " " + g.StudentLastName),
			"Email":       g.StudentEmail,
			"Grade":       strconv.FormatFloat(g.Grade.Grade, 'f', 2, 64),
			"Assigned At": g.CreatedAt.Format("2006-01-02"),
		})
	}

	switch strings.ToLower(format) {
	case ExportFormatCSV, "":
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return &ExportFile{
			FileName:    fmt.Sprintf("grades_%s.csv", course.Code),
			ContentType: "text/csv",
			Content:     content,
		}, nil
	case ExportFormatPDF:
		content, err := s.pdf.Render(dataset, fmt.Sprintf("Grades - %s", course.Title))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return &ExportFile{
			FileName:    fmt.Sprintf("grades_%s.pdf", course.Code),
			ContentType: "application/pdf",
			Content:     content,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}
