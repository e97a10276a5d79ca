// Package document renders printable ticket documents.
package document

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
)

// Field is one labelled line on a ticket.
type Field struct {
	Label string
	Value string
}

// Generator turns ordered fields into an opaque printable document.
type Generator interface {
	Generate(fields []Field) ([]byte, error)
	ContentType() string
	Extension() string
}

// PDFGenerator lays tickets out as a single A4 page.
type PDFGenerator struct {
	title string
}

// NewPDFGenerator returns a generator whose page header reads title.
func NewPDFGenerator(title string) *PDFGenerator {
	if title == "" {
		title = "Ticket"
	}
	return &PDFGenerator{title: title}
}

func (g *PDFGenerator) ContentType() string { return "application/pdf" }

func (g *PDFGenerator) Extension() string { return ".pdf" }

func (g *PDFGenerator) Generate(fields []Field) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	// core fonts are cp1252; translate so accented names survive
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetHeaderFunc(func() {
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 10, tr(g.title), "", 1, "C", false, 0, "")
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	pdf.SetFont("Arial", "", 12)
	for _, field := range fields {
		pdf.CellFormat(190, 10, tr(fmt.Sprintf("%s: %s", field.Label, field.Value)), "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
