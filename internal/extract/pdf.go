package extract

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	dslipak "github.com/dslipak/pdf"
	ledongthuc "github.com/ledongthuc/pdf"
)

// plainTextEngine reads each page's text stream in content order.
type plainTextEngine struct{}

func (plainTextEngine) Name() string { return "ledongthuc/pdf" }

func (plainTextEngine) Pages(data []byte) ([]string, error) {
	r, err := ledongthuc.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to read pdf: %w", err)
	}

	pages := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, text)
	}
	return pages, nil
}

// rowLayoutEngine rebuilds lines from glyph positions: glyphs sharing a
// baseline form a row, rows run top to bottom and glyphs left to right.
type rowLayoutEngine struct{}

func (rowLayoutEngine) Name() string { return "dslipak/pdf" }

func (rowLayoutEngine) Pages(data []byte) ([]string, error) {
	r, err := dslipak.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to read pdf: %w", err)
	}

	pages := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		pages = append(pages, layoutRows(page.Content().Text))
	}
	return pages, nil
}

type glyph struct {
	x, y, w, size float64
	s             string
}

func layoutRows(texts []dslipak.Text) string {
	glyphs := make([]glyph, 0, len(texts))
	for _, t := range texts {
		glyphs = append(glyphs, glyph{x: t.X, y: t.Y, w: t.W, size: t.FontSize, s: t.S})
	}
	return joinRows(glyphs)
}

// rowTolerance is how far, in points, a glyph's baseline may sit below the
// first baseline of its row.
const rowTolerance = 0.5

// joinRows groups glyphs whose baselines lie within rowTolerance of the
// row's topmost glyph. A space is inserted where the horizontal gap exceeds a
// fifth of the font size.
func joinRows(glyphs []glyph) string {
	if len(glyphs) == 0 {
		return ""
	}

	sorted := append([]glyph(nil), glyphs...)
	// PDF user space grows upwards.
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].y > sorted[j].y })

	var rows [][]glyph
	for _, g := range sorted {
		if n := len(rows); n > 0 && rows[n-1][0].y-g.y <= rowTolerance {
			rows[n-1] = append(rows[n-1], g)
			continue
		}
		rows = append(rows, []glyph{g})
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		sort.SliceStable(row, func(i, j int) bool { return row[i].x < row[j].x })

		var b strings.Builder
		for i, g := range row {
			if i > 0 {
				prev := row[i-1]
				if g.x-(prev.x+prev.w) > prev.size*0.2 && !strings.HasSuffix(b.String(), " ") {
					b.WriteByte(' ')
				}
			}
			b.WriteString(g.s)
		}
		lines = append(lines, strings.TrimRight(b.String(), " "))
	}
	return strings.Join(lines, "\n")
}
