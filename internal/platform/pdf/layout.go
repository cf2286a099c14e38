package pdf

import (
	"bytes"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Palette shared by both document layouts.
var (
	colTeal    = rgb{16, 185, 129}
	colGray100 = rgb{243, 244, 246}
	colGray200 = rgb{229, 231, 235}
	colGray500 = rgb{107, 114, 128}
	colGray700 = rgb{55, 65, 81}
	colGray800 = rgb{31, 41, 55}
	colText    = rgb{17, 24, 39}
	colGreen   = rgb{6, 95, 70}
	colWhite   = rgb{255, 255, 255}
)

type rgb struct{ r, g, b int }

const (
	pageMargin = 42.0
	panelPad   = 10.0
	panelLineH = 12.0
)

// page wraps a single-page document and its drawing primitives. Vertical
// coordinates grow downward from the top edge; the layouts keep a cursor that
// only ever advances.
type page struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string

	width        float64
	height       float64
	contentWidth float64
}

func newPage() *page {
	doc := gofpdf.New("P", "pt", "A4", "")
	// Sort catalog objects so identical inputs yield identical bytes.
	doc.SetCatalogSort(true)
	doc.SetAutoPageBreak(false, 0)
	doc.AddPage()

	w, h := doc.GetPageSize()
	return &page{
		pdf:          doc,
		tr:           doc.UnicodeTranslatorFromDescriptor(""),
		width:        w,
		height:       h,
		contentWidth: w - pageMargin*2,
	}
}

func (p *page) output() ([]byte, error) {
	var buf bytes.Buffer
	if err := p.pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// text draws a sanitized string with its baseline at y.
func (p *page) text(style string, size float64, c rgb, x, y float64, s string) {
	p.pdf.SetFont("Helvetica", style, size)
	p.pdf.SetTextColor(c.r, c.g, c.b)
	p.pdf.Text(x, y, p.tr(Sanitize(s)))
}

func (p *page) centeredText(style string, size float64, c rgb, y float64, s string) {
	p.pdf.SetFont("Helvetica", style, size)
	textW := p.pdf.GetStringWidth(p.tr(Sanitize(s)))
	p.text(style, size, c, (p.width-textW)/2, y, s)
}

func (p *page) sectionTitle(x, y float64, title string) {
	p.text("B", 12, colGray800, x, y, title)
}

// smallPair draws a bold label and its value, the value starting at a fixed
// column offset so rows line up.
func (p *page) smallPair(x, y float64, label, value string) {
	p.text("B", 10, colGray700, x, y, label)
	p.text("", 10, colGray800, x+56, y, value)
}

func (p *page) strokeLine(x1, y1, x2, y2 float64, c rgb, w float64) {
	p.pdf.SetDrawColor(c.r, c.g, c.b)
	p.pdf.SetLineWidth(w)
	p.pdf.Line(x1, y1, x2, y2)
}

func (p *page) strokeRect(x, y, w, h float64, c rgb, lw float64) {
	p.pdf.SetDrawColor(c.r, c.g, c.b)
	p.pdf.SetLineWidth(lw)
	p.pdf.Rect(x, y, w, h, "D")
}

func (p *page) fillRect(x, y, w, h float64, c rgb) {
	p.pdf.SetFillColor(c.r, c.g, c.b)
	p.pdf.Rect(x, y, w, h, "F")
}

// image registers and draws a raster at the given height preserving aspect
// ratio, anchored by its top-left corner. Reports whether anything was drawn.
func (p *page) image(name string, asset *Asset, x, y, h float64) bool {
	if asset == nil {
		return false
	}
	opts := gofpdf.ImageOptions{ImageType: asset.Type}
	info := p.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(asset.Data))
	if p.pdf.Err() || info == nil || info.Height() <= 0 {
		// A raster the library cannot embed is treated as absent.
		p.pdf.ClearError()
		return false
	}
	w := h * info.Width() / info.Height()
	p.pdf.ImageOptions(name, x, y, w, h, false, opts, 0, "")
	return true
}

// wrap breaks sanitized text into lines no wider than maxWidth using greedy
// accumulation. Words are split on runs of whitespace; a single word wider
// than maxWidth is kept whole on its own line. Blank input wraps to the
// placeholder line.
func (p *page) wrap(style string, size, maxWidth float64, s string) []string {
	t := Sanitize(s)
	if t == Placeholder {
		return []string{Placeholder}
	}

	p.pdf.SetFont("Helvetica", style, size)

	var lines []string
	var line string
	for _, word := range strings.Fields(t) {
		candidate := word
		if line != "" {
			candidate = line + " " + word
		}
		if p.pdf.GetStringWidth(p.tr(candidate)) > maxWidth {
			if line != "" {
				lines = append(lines, line)
			}
			line = word
		} else {
			line = candidate
		}
	}
	if line != "" {
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return []string{Placeholder}
	}
	return lines
}

// paragraphBox renders wrapped text inside a filled, bordered container and
// returns the height consumed. Height is the line count times lineH plus
// inner padding, never less than one line.
func (p *page) paragraphBox(size float64, s string, x, y, w float64, bg, border rgb, lineH float64) float64 {
	lines := p.wrap("", size, w-16, s)
	h := float64(len(lines))*lineH + 16
	if h < lineH {
		h = lineH
	}
	p.fillRect(x, y, w, h, bg)
	p.strokeRect(x, y, w, h, border, 0.8)

	ty := y + 12
	for _, line := range lines {
		p.text("", size, colGray800, x+8, ty, line)
		ty += lineH
	}
	return h
}
