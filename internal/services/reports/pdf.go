// -----------------------------------------------------------------------
// Markdown to PDF conversion for consensus reports. Parses the markdown
// with goldmark and walks the AST into an fpdf document.
// -----------------------------------------------------------------------

package reports

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/ternarybob/arbor"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/ternarybob/counsel/internal/interfaces"
)

// Service implements interfaces.PDFService for consensus reports.
type Service struct {
	logger arbor.ILogger
}

var _ interfaces.PDFService = (*Service)(nil)

// NewService creates a new report PDF service
func NewService(logger arbor.ILogger) *Service {
	return &Service{logger: logger}
}

// ConvertMarkdownToPDF converts a markdown report to a PDF byte slice.
// The title is set as PDF document metadata; the report's own H1 heading
// is the visible title.
func (s *Service) ConvertMarkdownToPDF(markdown, title string) ([]byte, error) {
	s.logger.Debug().
		Int("markdown_len", len(markdown)).
		Str("title", title).
		Msg("Converting markdown report to PDF")

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 10)
	pdf.AddPage()
	pdf.SetFont("Arial", "", 9)

	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	source := []byte(markdown)
	doc := md.Parser().Parse(text.NewReader(source))

	renderer := &reportRenderer{
		pdf:    pdf,
		source: source,
		font:   "Arial",
		size:   9,
	}
	if err := renderer.render(doc); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF output: %w", err)
	}

	s.logger.Debug().Int("pdf_size", buf.Len()).Msg("Report PDF generated")
	return buf.Bytes(), nil
}

type reportRenderer struct {
	pdf    *fpdf.Fpdf
	source []byte
	font   string
	size   float64
	bold   bool
	italic bool
	inList bool
}

func (r *reportRenderer) render(node ast.Node) error {
	return ast.Walk(node, r.walk)
}

func (r *reportRenderer) restoreFont() {
	style := ""
	if r.bold {
		style += "B"
	}
	if r.italic {
		style += "I"
	}
	r.pdf.SetFont(r.font, style, r.size)
}

func (r *reportRenderer) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node := n.(type) {
	case *ast.Heading:
		r.heading(node, entering)
	case *ast.Paragraph:
		if !entering {
			r.pdf.Ln(7)
		}
	case *ast.Text:
		if entering {
			r.pdf.Write(5, string(node.Text(r.source)))
		}
	case *ast.Emphasis:
		if node.Level == 2 {
			r.bold = entering
		} else {
			r.italic = entering
		}
		r.restoreFont()
	case *ast.CodeSpan:
		return r.codeSpan(node, entering)
	case *ast.List:
		r.inList = entering
		if !entering {
			r.pdf.Ln(2)
		}
	case *ast.ListItem:
		if entering {
			r.pdf.Ln(5)
			r.pdf.SetX(15)
			r.pdf.Write(5, "- ")
		}
	case *ast.ThematicBreak:
		if entering {
			r.pdf.Ln(2)
			r.pdf.Line(15, r.pdf.GetY(), 195, r.pdf.GetY())
			r.pdf.Ln(2)
		}
	case *extast.Table:
		if entering {
			r.table(node)
			return ast.WalkSkipChildren, nil
		}
	}
	return ast.WalkContinue, nil
}

func (r *reportRenderer) heading(n *ast.Heading, entering bool) {
	if entering {
		r.pdf.Ln(6)
		size := 10.0
		switch n.Level {
		case 1:
			size = 14
		case 2:
			size = 12
		case 3:
			size = 11
		}
		r.pdf.SetFont(r.font, "B", size)
		return
	}
	r.pdf.Ln(6)
	r.restoreFont()
}

func (r *reportRenderer) codeSpan(n *ast.CodeSpan, entering bool) (ast.WalkStatus, error) {
	if entering {
		r.pdf.SetFont("Courier", "", r.size)
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if textNode, ok := c.(*ast.Text); ok {
				r.pdf.Write(5, string(textNode.Segment.Value(r.source)))
			}
		}
	} else {
		r.restoreFont()
	}
	return ast.WalkSkipChildren, nil
}

// table renders a markdown table with column widths proportional to the
// longest cell in each column, scaled to the printable page width.
func (r *reportRenderer) table(n *extast.Table) {
	var rows [][]string
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch row := child.(type) {
		case *extast.TableHeader:
			for hr := row.FirstChild(); hr != nil; hr = hr.NextSibling() {
				if tr, ok := hr.(*extast.TableRow); ok {
					rows = append(rows, r.cells(tr))
				}
			}
			// Goldmark may attach the header row's cells directly
			if cells := r.cells(row); len(cells) > 0 {
				rows = append(rows, cells)
			}
		case *extast.TableRow:
			rows = append(rows, r.cells(row))
		}
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return
	}

	const pageWidth = 190.0
	const fontSize = 8.0
	const rowHeight = 6.0

	numCols := len(rows[0])
	widths := r.columnWidths(rows, numCols, pageWidth, fontSize)

	r.pdf.Ln(2)
	for i, row := range rows {
		if i == 0 {
			r.pdf.SetFont(r.font, "B", fontSize)
			r.pdf.SetFillColor(230, 230, 230)
		} else {
			r.pdf.SetFont(r.font, "", fontSize)
			r.pdf.SetFillColor(255, 255, 255)
		}

		for j := 0; j < numCols; j++ {
			cell := ""
			if j < len(row) {
				cell = row[j]
			}
			for r.pdf.GetStringWidth(cell) > widths[j]-2 && len(cell) > 3 {
				cell = cell[:len(cell)-1]
			}
			r.pdf.CellFormat(widths[j], rowHeight, cell, "1", 0, "L", i == 0, 0, "")
		}
		r.pdf.Ln(rowHeight)
	}
	r.pdf.Ln(3)
	r.restoreFont()
}

func (r *reportRenderer) cells(row ast.Node) []string {
	var cells []string
	for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
		if tc, ok := cell.(*extast.TableCell); ok {
			cells = append(cells, string(tc.Text(r.source)))
		}
	}
	return cells
}

func (r *reportRenderer) columnWidths(rows [][]string, numCols int, pageWidth, fontSize float64) []float64 {
	r.pdf.SetFont(r.font, "B", fontSize)

	widths := make([]float64, numCols)
	for _, row := range rows {
		for i, cell := range row {
			if i >= numCols {
				break
			}
			if w := r.pdf.GetStringWidth(cell) + 4; w > widths[i] {
				widths[i] = w
			}
		}
	}

	total := 0.0
	for i := range widths {
		if widths[i] < 12 {
			widths[i] = 12
		}
		total += widths[i]
	}
	if total > 0 {
		scale := pageWidth / total
		for i := range widths {
			widths[i] *= scale
		}
	}
	return widths
}
