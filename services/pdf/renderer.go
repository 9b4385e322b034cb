// Package pdfsvc renders newsletter documents as printable PDFs.
package pdfsvc

import (
	"bytes"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"

	"github.com/nm2tech/classroom/core/newsletter"
)

// ink and highlight match the classroom letterhead colors.
var (
	ink       = [3]int{44, 62, 80}
	highlight = [3]int{241, 196, 15}
	footerInk = [3]int{127, 140, 141}
)

type Renderer struct {
	teacherName  string
	teacherEmail string
	teacherPhone string
}

var _ newsletter.PDFRenderer = (*Renderer)(nil)

func NewRenderer(teacherName, teacherEmail, teacherPhone string) *Renderer {
	return &Renderer{
		teacherName:  teacherName,
		teacherEmail: teacherEmail,
		teacherPhone: teacherPhone,
	}
}

// Render lays the document out top to bottom: title, highlighted date,
// teacher contact block, then each non-empty section under its heading.
func (r *Renderer) Render(doc newsletter.Document) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetMargins(25, 25, 25)
	pdf.AddPage()

	title := doc.Title
	if title == "" {
		title = "Newsletter"
	}
	pdf.SetTextColor(ink[0], ink[1], ink[2])
	pdf.SetFont("Helvetica", "B", 24)
	pdf.MultiCell(0, 10, title, "", "C", false)
	pdf.Ln(4)

	if doc.Date != "" {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.SetFillColor(highlight[0], highlight[1], highlight[2])
		pdf.MultiCell(0, 8, doc.Date, "", "C", true)
		pdf.Ln(6)
	}

	if r.teacherName != "" {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.MultiCell(0, 5, r.teacherName, "", "C", false)
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 5, r.teacherEmail, "", "C", false)
		pdf.MultiCell(0, 5, r.teacherPhone, "", "C", false)
		pdf.Ln(6)
	}

	r.section(pdf, "UPCOMING EVENTS", doc.LeftColumn.UpcomingEvents)
	r.section(pdf, "OUR LEARNING SNAPSHOT", doc.LeftColumn.LearningSnapshot)
	r.section(pdf, "IMPORTANT NEWS", doc.LeftColumn.ImportantNews)
	r.section(pdf, "WORD LIST", doc.RightColumn.WordList)
	r.section(pdf, "PRACTICE @ HOME", doc.RightColumn.PracticeHome)
	r.section(pdf, "MEMORY VERSE", doc.RightColumn.MemoryVerse)

	pdf.Ln(8)
	pdf.SetTextColor(footerInk[0], footerInk[1], footerInk[2])
	pdf.SetFont("Helvetica", "I", 8)
	pdf.MultiCell(0, 4, "THE LANGUAGE OF LEARNING", "", "C", false)
	pdf.Ln(4)
	pdf.MultiCell(0, 4, "Designed by NM2TECH LLC - Technology Simplified", "", "C", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.Wrap(err, "rendering newsletter pdf")
	}
	return buf.Bytes(), nil
}

func (r *Renderer) section(pdf *fpdf.Fpdf, heading, content string) {
	if content == "" {
		return
	}
	pdf.SetTextColor(ink[0], ink[1], ink[2])
	pdf.SetFont("Helvetica", "B", 14)
	pdf.MultiCell(0, 7, heading, "", "L", false)
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, 5, content, "", "L", false)
	pdf.Ln(4)
}
