package storyimage

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	canvasWidth  = 1080
	canvasHeight = 1920

	// Text baseline sits near the bottom of the canvas.
	textCenterX   = 540
	textBaselineY = 1800

	fontSize = 80
)

var defaultFontPaths = []string{
	"/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf",
	"/System/Library/Fonts/Supplemental/Arial.ttf",
}

// Compositor turns a source image into a 9:16 story canvas with an
// optional model-name/price caption drawn over it.
type Compositor struct {
	fontPaths []string
}

// NewCompositor builds a compositor. Configured font paths are tried
// first; the bundled bitmap font is the terminal fallback so that
// composing never fails for lack of a font.
func NewCompositor(fontPaths ...string) *Compositor {
	paths := make([]string, 0, len(fontPaths)+len(defaultFontPaths))
	for _, p := range fontPaths {
		if p != "" {
			paths = append(paths, p)
		}
	}
	paths = append(paths, defaultFontPaths...)
	return &Compositor{fontPaths: paths}
}

// OverlayText builds the caption drawn on the story image.
func OverlayText(modelName, price string) string {
	switch {
	case modelName != "" && price != "":
		return fmt.Sprintf("%s - %s", modelName, price)
	case modelName != "":
		return modelName
	case price != "":
		return fmt.Sprintf("Цена: %s", price)
	}
	return ""
}

// Compose crops the source to 9:16, resizes it to 1080x1920, draws the
// overlay text and encodes the result as JPEG. The output is
// deterministic for identical inputs and font availability.
func (c *Compositor) Compose(src []byte, modelName, price string) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("failed to decode source image: %w", err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	// Center-crop to the 9:16 target ratio.
	if width*16 > height*9 {
		img = imaging.CropCenter(img, height*9/16, height)
	} else if width*16 < height*9 {
		img = imaging.CropCenter(img, width, width*16/9)
	}

	canvas := imaging.Resize(img, canvasWidth, canvasHeight, imaging.Lanczos)

	if text := OverlayText(modelName, price); text != "" {
		c.drawText(canvas, text)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, canvas, imaging.JPEG); err != nil {
		return nil, fmt.Errorf("failed to encode story image: %w", err)
	}
	return buf.Bytes(), nil
}

func (c *Compositor) drawText(canvas *image.NRGBA, text string) {
	face := c.loadFace()

	width := font.MeasureString(face, text)
	x := textCenterX - width.Ceil()/2
	y := textBaselineY

	// Dark outline in four directions keeps the caption legible over
	// arbitrary backgrounds.
	for _, offset := range [][2]int{{-2, -2}, {-2, 2}, {2, -2}, {2, 2}} {
		drawString(canvas, face, text, x+offset[0], y+offset[1], color.Black)
	}
	drawString(canvas, face, text, x, y, color.White)
}

func drawString(dst *image.NRGBA, face font.Face, text string, x, y int, col color.Color) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

func (c *Compositor) loadFace() font.Face {
	for _, path := range c.fontPaths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		fnt, err := opentype.Parse(data)
		if err != nil {
			slog.Info(err.Error())
			continue
		}
		face, err := opentype.NewFace(fnt, &opentype.FaceOptions{
			Size:    fontSize,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err != nil {
			slog.Info(err.Error())
			continue
		}
		return face
	}
	return basicfont.Face7x13
}
