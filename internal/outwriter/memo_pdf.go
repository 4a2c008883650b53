package outwriter

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDF layout in millimetres on A4.
const (
	pdfFont       = "Helvetica"
	pdfMargin     = 12.0
	pdfPageWidth  = 210.0 - 2*pdfMargin
	pdfPageBottom = 297.0 - pdfMargin
	pdfLineHeight = 5.0
	pdfBodySize   = 10.0
	pdfTableSize  = 8.0
	pdfTableLine  = 4.0
	pdfMaxCellRow = 6
)

type pdfWriter struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

// RenderMemoPDF lays the markdown memo out as an A4 PDF.
func RenderMemoPDF(markdown, title string) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetCreator("fundscore", true)
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.AddPage()

	w := &pdfWriter{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	for _, b := range parseMemoBlocks(markdown) {
		w.block(b)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func (w *pdfWriter) block(b memoBlock) {
	switch b.Kind {
	case blockHeading:
		size := map[int]float64{1: 16, 2: 13, 3: 11}[b.Level]
		if size == 0 {
			size = pdfBodySize
		}
		w.pdf.Ln(3)
		w.pdf.SetFont(pdfFont, "B", size)
		w.pdf.MultiCell(0, size/2+1, w.tr(b.Plain()), "", "L", false)
		w.pdf.Ln(1)
	case blockParagraph, blockQuote:
		w.runs(b.Runs)
		w.pdf.Ln(pdfLineHeight + 2)
	case blockBullet:
		w.pdf.SetX(pdfMargin + 3)
		w.pdf.SetFont(pdfFont, "", pdfBodySize)
		w.pdf.Write(pdfLineHeight, w.tr("- "))
		w.runs(b.Runs)
		w.pdf.Ln(pdfLineHeight + 1)
	case blockTable:
		w.table(b.Rows)
	}
}

func (w *pdfWriter) runs(runs []textRun) {
	for _, r := range runs {
		style := ""
		if r.Bold {
			style += "B"
		}
		if r.Italic {
			style += "I"
		}
		w.pdf.SetFont(pdfFont, style, pdfBodySize)
		if r.Link != "" {
			w.pdf.SetTextColor(9, 105, 218)
			w.pdf.WriteLinkString(pdfLineHeight, w.tr(r.Text), r.Link)
			w.pdf.SetTextColor(0, 0, 0)
			continue
		}
		w.pdf.Write(pdfLineHeight, w.tr(r.Text))
	}
}

// columnWidths splits the page across columns by their widest cell,
// with no column narrower than 12mm.
func (w *pdfWriter) columnWidths(rows [][]string, cols int) []float64 {
	widest := make([]float64, cols)
	for _, row := range rows {
		for j := 0; j < cols && j < len(row); j++ {
			widest[j] = max(widest[j], min(w.pdf.GetStringWidth(w.tr(row[j]))+3, pdfPageWidth/2))
		}
	}
	total := 0.0
	for j := range widest {
		widest[j] = max(widest[j], 12)
		total += widest[j]
	}
	for j := range widest {
		widest[j] = widest[j] / total * pdfPageWidth
	}
	return widest
}

func (w *pdfWriter) table(rows [][]string) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return
	}
	cols := len(rows[0])
	w.pdf.SetFont(pdfFont, "", pdfTableSize)
	widths := w.columnWidths(rows, cols)
	w.pdf.Ln(1)

	for i, row := range rows {
		style := ""
		if i == 0 {
			style = "B"
		}
		w.pdf.SetFont(pdfFont, style, pdfTableSize)

		lines := make([][]string, cols)
		height := 1
		for j := range cols {
			cell := ""
			if j < len(row) {
				cell = w.tr(row[j])
			}
			lines[j] = w.pdf.SplitText(cell, widths[j]-2)
			if len(lines[j]) > pdfMaxCellRow {
				lines[j] = lines[j][:pdfMaxCellRow]
			}
			height = max(height, len(lines[j]))
		}
		rowHeight := float64(height)*pdfTableLine + 2

		x, y := pdfMargin, w.pdf.GetY()
		if y+rowHeight > pdfPageBottom {
			w.pdf.AddPage()
			y = w.pdf.GetY()
		}
		for j := range cols {
			if i == 0 {
				w.pdf.SetFillColor(235, 238, 241)
				w.pdf.Rect(x, y, widths[j], rowHeight, "FD")
			} else {
				w.pdf.Rect(x, y, widths[j], rowHeight, "D")
			}
			for k, ln := range lines[j] {
				w.pdf.SetXY(x+1, y+1+float64(k)*pdfTableLine)
				w.pdf.CellFormat(widths[j]-2, pdfTableLine, ln, "", 0, "L", false, 0, "")
			}
			x += widths[j]
		}
		w.pdf.SetXY(pdfMargin, y+rowHeight)
	}
	w.pdf.Ln(3)
}

// validateMemoPDF parses a generated PDF and returns its page count.
func validateMemoPDF(data []byte) (int, error) {
	ctx, err := api.ReadContext(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return 0, fmt.Errorf("failed to read PDF: %w", err)
	}
	if err := api.ValidateContext(ctx); err != nil {
		return 0, fmt.Errorf("invalid PDF: %w", err)
	}
	return ctx.PageCount, nil
}
