// Package annotate renders detection overlays onto scan images: a
// colored box per detection plus a label pill with class and
// confidence.
package annotate

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"

	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/SatvikDB/aegis/internal/domain/detect"
)

const jpegQuality = 92

var tierColors = map[detect.RiskTier]color.RGBA{
	detect.RiskHigh:   {R: 255, G: 0, B: 0, A: 255},
	detect.RiskMedium: {R: 255, G: 140, B: 0, A: 255},
	detect.RiskLow:    {R: 80, G: 200, B: 0, A: 255},
}

// Annotator draws detections onto an image copy and re-encodes it as
// JPEG. The source bytes are never modified.
type Annotator struct {
	font *truetype.Font
}

func New() (*Annotator, error) {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing annotation font: %w", err)
	}
	return &Annotator{font: f}, nil
}

// Annotate decodes the image, draws every detection box and label onto
// a fresh canvas and returns the annotated JPEG bytes.
func (a *Annotator) Annotate(img []byte, detections []detect.Detection) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(img))
	if err != nil {
		return nil, fmt.Errorf("decoding image for annotation: %w", err)
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	minSide := w
	if h < minSide {
		minSide = h
	}
	fontScale := float64(minSide) / 1200
	if fontScale < 0.4 {
		fontScale = 0.4
	}
	thickness := minSide / 400
	if thickness < 1 {
		thickness = 1
	}

	dc := gg.NewContextForImage(src)
	dc.SetFontFace(truetype.NewFace(a.font, &truetype.Options{Size: fontScale * 24}))

	for _, det := range detections {
		clr, ok := tierColors[det.Risk]
		if !ok {
			clr = tierColors[detect.RiskLow]
		}
		drawDetection(dc, det, clr, float64(thickness))
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dc.Image(), &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encoding annotated image: %w", err)
	}
	return buf.Bytes(), nil
}

func drawDetection(dc *gg.Context, det detect.Detection, clr color.RGBA, thickness float64) {
	x1, y1 := float64(det.Box.X1), float64(det.Box.Y1)

	dc.SetColor(clr)
	dc.SetLineWidth(thickness + 1)
	dc.DrawRectangle(x1, y1, float64(det.Box.Width), float64(det.Box.Height))
	dc.Stroke()

	label := fmt.Sprintf("%s  %.0f%%", det.ClassName, det.Confidence*100)
	textW, textH := dc.MeasureString(label)
	pad := 4.0

	// pill sits above the box, clamped to the top edge of the frame
	pillY := y1 - textH - 2*pad
	if pillY < 0 {
		pillY = 0
	}
	dc.SetColor(clr)
	dc.DrawRectangle(x1, pillY, textW+2*pad, textH+2*pad)
	dc.Fill()

	dc.SetRGB(1, 1, 1)
	dc.DrawString(label, x1+pad, pillY+textH+pad/2)
}
