package raffle

import (
	"bytes"
	"fmt"
	"time"

	"rifa/domain/entities"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	log "github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
)

// GridStyle defines the geometry and palette of the page image
type GridStyle struct {
	Columns      int
	CellWidth    float64
	CellHeight   float64
	Gap          float64
	Padding      float64
	HeaderHeight float64
	LegendHeight float64
	Background   [3]float64
	StatusColors map[entities.NumberStatus][3]float64
	TextColors   map[entities.NumberStatus][3]float64
	BlockOutline [3]float64
}

// GridImageGenerator draws one page of the number grid as a PNG
type GridImageGenerator struct {
	style GridStyle
}

// NewGridImageGenerator creates a generator with the default style
func NewGridImageGenerator() *GridImageGenerator {
	return &GridImageGenerator{
		style: GridStyle{
			Columns:      10,
			CellWidth:    48,
			CellHeight:   32,
			Gap:          4,
			Padding:      16,
			HeaderHeight: 36,
			LegendHeight: 32,
			Background:   [3]float64{0.07, 0.08, 0.12},
			StatusColors: map[entities.NumberStatus][3]float64{
				entities.NumberStatusAvailable: {0.92, 0.94, 0.96},
				entities.NumberStatusPurchased: {0.80, 0.24, 0.26},
				entities.NumberStatusSelected:  {0.21, 0.45, 0.95},
			},
			TextColors: map[entities.NumberStatus][3]float64{
				entities.NumberStatusAvailable: {0.15, 0.16, 0.20},
				entities.NumberStatusPurchased: {1.0, 0.88, 0.88},
				entities.NumberStatusSelected:  {1.0, 1.0, 1.0},
			},
			BlockOutline: [3]float64{1.0, 0.84, 0.0},
		},
	}
}

// Size returns the image dimensions for a page with count numbers
func (g *GridImageGenerator) Size(count int) (width, height int) {
	st := g.style
	rows := (max(count, 1) + st.Columns - 1) / st.Columns
	w := 2*st.Padding + float64(st.Columns)*st.CellWidth + float64(st.Columns-1)*st.Gap
	h := st.HeaderHeight + st.Padding + float64(rows)*st.CellHeight + float64(rows-1)*st.Gap + st.LegendHeight
	return int(w), int(h)
}

// RenderPage draws states laid out row by row; numbers inside block get an outline
func (g *GridImageGenerator) RenderPage(states []entities.NumberState, page, block entities.NumberRange) ([]byte, error) {
	start := time.Now()
	defer func() {
		log.WithField("duration_ms", time.Since(start).Milliseconds()).
			WithField("numbers", len(states)).
			Debug("Grid image generation completed")
	}()

	st := g.style
	width, height := g.Size(len(states))
	dc := gg.NewContext(width, height)

	dc.SetRGB(st.Background[0], st.Background[1], st.Background[2])
	dc.Clear()

	headerFace, err := loadFont(gobold.TTF, 15)
	if err != nil {
		return nil, fmt.Errorf("failed to load header font: %w", err)
	}
	cellFace, err := loadFont(gomono.TTF, 14)
	if err != nil {
		return nil, fmt.Errorf("failed to load cell font: %w", err)
	}

	// Header
	dc.SetFontFace(headerFace)
	dc.SetRGB(1, 1, 1)
	dc.DrawStringAnchored(
		fmt.Sprintf("Números %s a %s", entities.FormatTicketNumber(page.Start), entities.FormatTicketNumber(page.End)),
		st.Padding, st.HeaderHeight/2+st.Padding/2, 0, 0.5)

	// Cells
	dc.SetFontFace(cellFace)
	top := st.HeaderHeight + st.Padding/2
	for i, state := range states {
		col := i % st.Columns
		row := i / st.Columns
		x := st.Padding + float64(col)*(st.CellWidth+st.Gap)
		y := top + float64(row)*(st.CellHeight+st.Gap)

		fill := st.StatusColors[state.Status]
		dc.SetRGB(fill[0], fill[1], fill[2])
		dc.DrawRoundedRectangle(x, y, st.CellWidth, st.CellHeight, 5)
		dc.Fill()

		if block.Contains(state.Number) {
			dc.SetRGB(st.BlockOutline[0], st.BlockOutline[1], st.BlockOutline[2])
			dc.SetLineWidth(2)
			dc.DrawRoundedRectangle(x+1, y+1, st.CellWidth-2, st.CellHeight-2, 5)
			dc.Stroke()
		}

		text := st.TextColors[state.Status]
		dc.SetRGB(text[0], text[1], text[2])
		label := entities.FormatTicketNumber(state.Number)
		dc.DrawStringAnchored(label, x+st.CellWidth/2, y+st.CellHeight/2, 0.5, 0.35)

		if state.Status == entities.NumberStatusPurchased {
			dc.SetLineWidth(1.5)
			dc.DrawLine(x+8, y+st.CellHeight/2, x+st.CellWidth-8, y+st.CellHeight/2)
			dc.Stroke()
		}
	}

	g.drawLegend(dc, float64(height)-st.LegendHeight/2)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}

	return buf.Bytes(), nil
}

// drawLegend draws one swatch per status along the bottom edge
func (g *GridImageGenerator) drawLegend(dc *gg.Context, y float64) {
	st := g.style
	entries := []struct {
		status entities.NumberStatus
		label  string
	}{
		{entities.NumberStatusAvailable, "Disponível"},
		{entities.NumberStatusSelected, "Selecionado"},
		{entities.NumberStatusPurchased, "Vendido"},
	}

	x := st.Padding
	for _, e := range entries {
		c := st.StatusColors[e.status]
		dc.SetRGB(c[0], c[1], c[2])
		dc.DrawRoundedRectangle(x, y-7, 14, 14, 3)
		dc.Fill()

		dc.SetRGB(0.85, 0.85, 0.9)
		dc.DrawStringAnchored(e.label, x+20, y, 0, 0.35)
		w, _ := dc.MeasureString(e.label)
		x += 20 + w + 24
	}
}

// loadFont loads a font from byte data
func loadFont(fontData []byte, size float64) (font.Face, error) {
	f, err := truetype.Parse(fontData)
	if err != nil {
		return nil, err
	}
	face := truetype.NewFace(f, &truetype.Options{
		Size:       size,
		DPI:        72,
		Hinting:    font.HintingFull,
		SubPixelsX: 4,
		SubPixelsY: 4,
	})
	return face, nil
}
