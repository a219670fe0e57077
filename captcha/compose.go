package captcha

import (
	"image"
	"image/color"
	"unicode/utf8"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
)

const (
	// canvasPadding is added to the letter height to get the canvas height.
	canvasPadding = 20
	// minGlyphStep is the smallest horizontal cursor advance between glyphs.
	minGlyphStep = 12
	// glyphJitter bounds both the vertical offset and the font size variation.
	glyphJitter = 2
)

// CellWidth is the horizontal space reserved per glyph for a letter height.
func CellWidth(letterHeight int) int {
	return letterHeight * 4 / 5
}

// CanvasSize returns the challenge image size for a text length and letter height.
func CanvasSize(letters, letterHeight int) (width, height int) {
	return letters * CellWidth(letterHeight), letterHeight + canvasPadding
}

// Compose renders text onto a fresh white canvas with noise lines, jittered
// glyphs, noise points and a light border, in that order.
func Compose(src *Source, fonts *FontSet, text string, letterHeight int, noise NoiseProfile) (*image.RGBA, error) {
	if letterHeight <= 0 {
		return nil, configErrorf("letter height", "must be positive, got %d", letterHeight)
	}
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return nil, configErrorf("text", "must not be empty")
	}
	if fonts == nil || fonts.Len() == 0 {
		return nil, configErrorf("fonts", "no font families")
	}

	w, h := CanvasSize(n, letterHeight)
	im := image.NewRGBA(image.Rect(0, 0, w, h))
	dc := gg.NewContextForRGBA(im)
	dc.SetColor(Background)
	dc.Clear()
	if w == 0 {
		return im, nil
	}

	drawNoiseLines(dc, src, noise.Lines)
	drawGlyphs(dc, src, fonts, text, letterHeight)
	drawNoisePoints(dc, src, noise.Points)

	// 边框
	dc.SetColor(BorderGray)
	dc.SetLineWidth(1)
	dc.DrawRectangle(0.5, 0.5, float64(w-1), float64(letterHeight-1))
	dc.Stroke()

	return im, nil
}

func drawNoiseLines(dc *gg.Context, src *Source, count int) {
	w, h := dc.Width(), dc.Height()
	dc.SetLineWidth(1)
	for i := 0; i < count; i++ {
		x1 := src.Next(w - 1)
		x2 := src.Next(w - 1)
		y1 := src.Next(h - 1)
		y2 := src.Next(h - 1)
		dc.SetColor(Pick(src, lineColors))
		dc.DrawLine(float64(x1), float64(y1), float64(x2), float64(y2))
		dc.Stroke()
	}
}

// drawGlyphs places each rune independently: cursor step, baseline offset,
// size, family and color are all drawn per glyph, so neighbours may overlap.
func drawGlyphs(dc *gg.Context, src *Source, fonts *FontSet, text string, letterHeight int) {
	faces := fonts.newFaceCache()
	defer faces.Close()

	maxStep := CellWidth(letterHeight) - 1
	x := -minGlyphStep
	for _, r := range text {
		if maxStep > minGlyphStep {
			x += src.Between(minGlyphStep, maxStep)
		} else {
			x += minGlyphStep
		}
		dy := src.Between(-glyphJitter, glyphJitter)
		size := letterHeight + src.Between(-glyphJitter, glyphJitter)
		if size < 1 {
			size = 1
		}
		face := faces.face(src.Intn(fonts.Len()), size)
		dc.SetFontFace(face)
		dc.SetColor(Pick(src, glyphColors))

		dc.DrawString(string(r), float64(x), glyphBaseline(face.Metrics(), dc.Height(), dy))
	}
}

// glyphBaseline centres the face's ascent+descent box in the canvas, offset
// by dy, and keeps descenders at least one clear row above the bottom edge.
func glyphBaseline(m font.Metrics, canvasHeight, dy int) float64 {
	ascent := float64(m.Ascent) / 64
	box := ascent + float64(m.Descent)/64
	top := (float64(canvasHeight)-box)/2 + float64(dy)
	if bottom := float64(canvasHeight - 2); top+box > bottom {
		top = bottom - box
	}
	return top + ascent
}

func drawNoisePoints(dc *gg.Context, src *Source, count int) {
	w, h := dc.Width(), dc.Height()
	for i := 0; i < count; i++ {
		x := src.Next(w - 1)
		y := src.Next(h - 1)
		dc.SetColor(color.RGBA{
			R: uint8(src.Next(255)),
			G: uint8(src.Next(255)),
			B: uint8(src.Next(255)),
			A: 0xff,
		})
		dc.SetPixel(x, y)
	}
}
