package display

import (
	"image"
	"image/color"
	"image/draw"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	on  = color.Gray{Y: 255}
	off = color.Gray{Y: 0}
)

// Renderer draws text into a grayscale canvas and packs it to 1-bit rows
type Renderer struct {
	img  *image.Gray
	face font.Face
}

// NewRenderer creates a renderer for a width x height display
func NewRenderer(width, height int) *Renderer {
	return &Renderer{
		img:  image.NewGray(image.Rect(0, 0, width, height)),
		face: basicfont.Face7x13,
	}
}

func (r *Renderer) Width() int  { return r.img.Bounds().Dx() }
func (r *Renderer) Height() int { return r.img.Bounds().Dy() }

// Bounds returns the canvas rectangle
func (r *Renderer) Bounds() image.Rectangle { return r.img.Bounds() }

// LineHeight returns the height of one line of text
func (r *Renderer) LineHeight() int { return r.face.Metrics().Height.Ceil() }

// Clear turns every pixel off
func (r *Renderer) Clear() {
	r.ClearRect(r.img.Bounds())
}

// ClearRect turns off the pixels inside rect
func (r *Renderer) ClearRect(rect image.Rectangle) {
	draw.Draw(r.img, rect.Intersect(r.img.Bounds()), image.Black, image.Point{}, draw.Src)
}

// DrawText draws text with its baseline at y
func (r *Renderer) DrawText(x, y int, text string) {
	r.drawText(r.img, x, y, text)
}

func (r *Renderer) drawText(dst draw.Image, x, y int, text string) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.White,
		Face: r.face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

// DrawTextIn word-wraps text inside rect, dropping lines that do not fit.
// Nothing is drawn outside rect. It returns the number of lines drawn.
func (r *Renderer) DrawTextIn(rect image.Rectangle, text string) int {
	lineHeight := r.LineHeight()
	ascent := r.face.Metrics().Ascent.Ceil()
	maxLines := rect.Dy() / lineHeight
	if maxLines == 0 {
		return 0
	}

	lines := r.wrap(text, rect.Dx())
	if len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	dst := r.img.SubImage(rect).(*image.Gray)
	for i, line := range lines {
		r.drawText(dst, rect.Min.X, rect.Min.Y+ascent+i*lineHeight, line)
	}
	return len(lines)
}

func (r *Renderer) wrap(text string, maxWidth int) []string {
	var lines []string
	line := ""
	for _, word := range strings.Fields(text) {
		candidate := word
		if line != "" {
			candidate = line + " " + word
		}
		if font.MeasureString(r.face, candidate).Ceil() > maxWidth && line != "" {
			lines = append(lines, line)
			line = word
			continue
		}
		line = candidate
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}

// DrawRect draws a rectangle outline
func (r *Renderer) DrawRect(x, y, width, height int) {
	for i := x; i < x+width; i++ {
		r.img.SetGray(i, y, on)
		r.img.SetGray(i, y+height-1, on)
	}
	for i := y; i < y+height; i++ {
		r.img.SetGray(x, i, on)
		r.img.SetGray(x+width-1, i, on)
	}
}

// SetPixel sets a single pixel
func (r *Renderer) SetPixel(x, y int, lit bool) {
	if lit {
		r.img.SetGray(x, y, on)
	} else {
		r.img.SetGray(x, y, off)
	}
}

// Pack returns rect as 1-bit data: row-major, 8 pixels per byte, MSB first
func (r *Renderer) Pack(rect image.Rectangle) []byte {
	rect = rect.Intersect(r.img.Bounds())
	bytesPerRow := (rect.Dx() + 7) / 8
	data := make([]byte, bytesPerRow*rect.Dy())

	for dy := 0; dy < rect.Dy(); dy++ {
		for dx := 0; dx < rect.Dx(); dx++ {
			if r.img.GrayAt(rect.Min.X+dx, rect.Min.Y+dy).Y > 127 {
				data[dy*bytesPerRow+dx/8] |= 1 << (7 - dx%8)
			}
		}
	}

	return data
}

// FrameBuffer packs the whole canvas
func (r *Renderer) FrameBuffer() []byte {
	return r.Pack(r.img.Bounds())
}
