package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/camp-registry-api/internal/models"
	appErrors "github.com/noah-isme/camp-registry-api/pkg/errors"
	"github.com/noah-isme/camp-registry-api/pkg/export"
)

// ExportFormat selects the rendered output type.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

type registrationLister interface {
	List(ctx context.Context, campID string) (*RegistrationSet, error)
}

type campGetter interface {
	Get(ctx context.Context, id string) (*models.Camp, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	RenderReport(title string, sections []export.Section) ([]byte, error)
}

// ExportResult carries the rendered file and its download metadata.
type ExportResult struct {
	Payload     []byte
	Filename    string
	ContentType string
}

// ExportService renders a camp's classified history as CSV or as a PDF
// summary report.
type ExportService struct {
	camps         campGetter
	registrations registrationLister
	csv           csvRenderer
	pdf           pdfRenderer
	logger        *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(camps campGetter, registrations registrationLister, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{camps: camps, registrations: registrations, csv: csv, pdf: pdf, logger: logger}
}

// Generate syncs and classifies the camp, then renders it in the requested
// format.
func (s *ExportService) Generate(ctx context.Context, campID string, format ExportFormat) (*ExportResult, error) {
	camp, err := s.camps.Get(ctx, campID)
	if err != nil {
		return nil, err
	}
	set, err := s.registrations.List(ctx, campID)
	if err != nil {
		return nil, err
	}

	var payload []byte
	var contentType string
	switch format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(historyDataset(set.Registrations))
		contentType = "text/csv"
	case ExportFormatPDF:
		payload, err = s.pdf.RenderReport(fmt.Sprintf("%s Registrations", camp.Name), reportSections(set))
		contentType = "application/pdf"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	filename := fmt.Sprintf("%s_registrations_%s.%s", camp.Slug, time.Now().UTC().Format("20060102_150405"), format)
	s.logger.Info("export generated",
		zap.String("camp", camp.Slug),
		zap.String("format", string(format)),
		zap.Int("records", len(set.Registrations)),
	)
	return &ExportResult{Payload: payload, Filename: filename, ContentType: contentType}, nil
}

// historyDataset flattens the history into one table: raw feed columns in
// their original order, followed by the derived record columns.
func historyDataset(history []*models.Registration) export.Dataset {
	derived := []string{"ID", "Status", "Validation Errors", "Duplicate Of", "Acceptance Status", "Created At"}

	var columns []string
	seen := make(map[string]bool, len(derived))
	for _, name := range derived {
		seen[name] = true
	}
	for _, record := range history {
		for _, name := range record.Fields.Names() {
			if !seen[name] {
				seen[name] = true
				columns = append(columns, name)
			}
		}
	}

	headers := append([]string{"ID"}, columns...)
	headers = append(headers, derived[1:]...)

	rows := make([]map[string]string, 0, len(history))
	for _, record := range history {
		row := map[string]string{
			"ID":                strconv.Itoa(record.ID),
			"Status":            string(record.Status),
			"Validation Errors": strings.Join(record.ValidationErrors, "; "),
			"Acceptance Status": string(record.AcceptanceStatus),
			"Created At":        record.CreatedAt.UTC().Format(time.RFC3339),
		}
		if record.DuplicateOf != nil {
			row["Duplicate Of"] = strconv.Itoa(*record.DuplicateOf)
		}
		for _, field := range record.Fields {
			row[field.Name] = field.Value
		}
		rows = append(rows, row)
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

func reportSections(set *RegistrationSet) []export.Section {
	counts := set.Classification
	summary := export.Dataset{
		Headers: []string{"Metric", "Value"},
		Rows: []map[string]string{
			{"Metric": "Total Registrations", "Value": strconv.Itoa(counts.TotalCount)},
			{"Metric": "Valid", "Value": strconv.Itoa(counts.ValidCount)},
			{"Metric": "Invalid", "Value": strconv.Itoa(counts.InvalidCount)},
			{"Metric": "Duplicates", "Value": strconv.Itoa(counts.DuplicateCount)},
			{"Metric": "Sibling Groups", "Value": strconv.Itoa(counts.SiblingGroupsCount)},
		},
	}

	siblingRows := make([]map[string]string, 0, len(set.SiblingGroups))
	for _, group := range set.SiblingGroups {
		siblingRows = append(siblingRows, map[string]string{
			"Parent":   group.ParentName,
			"Children": group.ChildrenNames,
			"Count":    strconv.Itoa(group.ChildCount),
		})
	}

	invalidRows := make([]map[string]string, 0)
	for _, record := range set.Registrations {
		if record.Status != models.RecordStatusInvalid {
			continue
		}
		invalidRows = append(invalidRows, map[string]string{
			"ID":     strconv.Itoa(record.ID),
			"Errors": strings.Join(record.ValidationErrors, "; "),
		})
	}

	return []export.Section{
		{Heading: "Summary", Data: summary},
		{Heading: "Sibling Groups", Data: export.Dataset{Headers: []string{"Parent", "Children", "Count"}, Rows: siblingRows}},
		{Heading: "Invalid Registrations", Data: export.Dataset{Headers: []string{"ID", "Errors"}, Rows: invalidRows}},
	}
}
