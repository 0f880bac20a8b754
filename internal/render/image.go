package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strconv"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/content"
)

var (
	headerBg   = color.RGBA{0x1f, 0x4e, 0x79, 0xff}
	championBg = color.RGBA{0xe8, 0xf5, 0xe8, 0xff}
	relegateBg = color.RGBA{0xff, 0xe8, 0xe8, 0xff}
	stripeBg   = color.RGBA{0xf6, 0xf6, 0xf6, 0xff}
	gridColor  = color.RGBA{0xd0, 0xd0, 0xd0, 0xff}
)

// column widths in cells of the monospace advance
var colCells = []int{3, 14, 4, 4, 4, 4, 4, 4, 4}

const (
	fontSize = 16
	rowH     = 30
	padX     = 16
	titleH   = 52
)

type faces struct {
	regular font.Face
	bold    font.Face
}

var (
	facesOnce sync.Once
	facesVal  faces
	facesErr  error
)

// loadFaces parses the embedded Go Mono fonts once. They cover Cyrillic.
func loadFaces() (faces, error) {
	facesOnce.Do(func() {
		opts := &opentype.FaceOptions{Size: fontSize, DPI: 72, Hinting: font.HintingFull}
		reg, err := opentype.Parse(gomono.TTF)
		if err != nil {
			facesErr = fmt.Errorf("parse font: %w", err)
			return
		}
		bold, err := opentype.Parse(gomonobold.TTF)
		if err != nil {
			facesErr = fmt.Errorf("parse font: %w", err)
			return
		}
		if facesVal.regular, err = opentype.NewFace(reg, opts); err != nil {
			facesErr = fmt.Errorf("font face: %w", err)
			return
		}
		if facesVal.bold, err = opentype.NewFace(bold, opts); err != nil {
			facesErr = fmt.Errorf("font face: %w", err)
		}
	})
	return facesVal, facesErr
}

// PNG draws the standings table. Rows beyond the display limit are dropped.
func PNG(title string, rows []content.Standing) ([]byte, error) {
	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	if title == "" {
		title = DefaultTitle
	}
	ff, err := loadFaces()
	if err != nil {
		return nil, err
	}
	rows = limit(rows)

	adv, ok := ff.regular.GlyphAdvance('0')
	if !ok {
		return nil, fmt.Errorf("font has no digits")
	}
	cell := adv.Ceil()
	colX := make([]int, len(colCells)+1)
	colX[0] = padX
	for i, c := range colCells {
		colX[i+1] = colX[i] + c*cell
	}
	width := colX[len(colCells)] + padX
	height := titleH + rowH*(len(rows)+1) + padX

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	dr := &font.Drawer{Dst: img, Face: ff.bold, Src: image.Black}
	tw := dr.MeasureString(title).Ceil()
	dr.Dot = fixed.P(max(padX, (width-tw)/2), titleH-18)
	dr.DrawString(title)

	y := titleH
	fill(img, image.Rect(padX, y, width-padX, y+rowH), headerBg)
	dr.Face, dr.Src = ff.bold, image.White
	for i, h := range headers {
		drawCell(dr, h, colX[i], colX[i+1], y, i != 1)
	}

	dr.Face, dr.Src = ff.regular, image.Black
	for i, r := range rows {
		y += rowH
		bg := color.Color(color.White)
		switch {
		case r.Position >= 1 && r.Position <= championsZone:
			bg = championBg
		case i >= len(rows)-relegationZone:
			bg = relegateBg
		case i%2 == 1:
			bg = stripeBg
		}
		fill(img, image.Rect(padX, y, width-padX, y+rowH), bg)
		fill(img, image.Rect(padX, y+rowH-1, width-padX, y+rowH), gridColor)

		cells := []string{
			strconv.Itoa(r.Position), pad(r.Team, colCells[1]-1),
			strconv.Itoa(r.Played), strconv.Itoa(r.Won), strconv.Itoa(r.Drawn), strconv.Itoa(r.Lost),
			strconv.Itoa(r.GoalsFor), strconv.Itoa(r.GoalsAgainst), strconv.Itoa(r.Points),
		}
		for c, v := range cells {
			drawCell(dr, v, colX[c], colX[c+1], y, c != 1)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func fill(img draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Src)
}

// drawCell writes s into the column [x0,x1) of the row starting at y.
func drawCell(dr *font.Drawer, s string, x0, x1, y int, center bool) {
	x := x0 + 4
	if center {
		w := dr.MeasureString(s).Ceil()
		x = x0 + (x1-x0-w)/2
	}
	dr.Dot = fixed.P(x, y+rowH-10)
	dr.DrawString(s)
}
