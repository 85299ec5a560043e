package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Section is a titled table inside a report.
type Section struct {
	Heading string
	Data    Dataset
}

// PDFExporter renders datasets into a basic tabular PDF.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document with an optional title and table body.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := newDocument(title)
	writeTable(pdf, data)
	return output(pdf)
}

// RenderReport creates a PDF with several titled sections, used for the
// processed-registrations summary (counts, sibling groups, invalid entries).
func (e *PDFExporter) RenderReport(title string, sections []Section) ([]byte, error) {
	if len(sections) == 0 {
		return nil, fmt.Errorf("pdf report requires at least one section")
	}
	pdf := newDocument(title)
	for _, section := range sections {
		if len(section.Data.Headers) == 0 {
			return nil, fmt.Errorf("pdf section %q requires at least one header", section.Heading)
		}
		if section.Heading != "" {
			pdf.SetFont("Arial", "B", 12)
			pdf.CellFormat(0, 9, section.Heading, "", 1, "L", false, 0, "")
			pdf.Ln(1)
		}
		writeTable(pdf, section.Data)
		pdf.Ln(6)
	}
	return output(pdf)
}

func newDocument(title string) *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()
	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(title), "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}
	return pdf
}

func writeTable(pdf *gofpdf.Fpdf, data Dataset) {
	pdf.SetFont("Arial", "B", 10)
	colWidth := 190.0 / float64(len(data.Headers))
	for _, header := range data.Headers {
		pdf.CellFormat(colWidth, 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range data.Rows {
		for _, header := range data.Headers {
			pdf.CellFormat(colWidth, 7, row[header], "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}
}

func output(pdf *gofpdf.Fpdf) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
