package ai

import (
	"bytes"
	"errors"
	"image"
	"image/color"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultInputSize matches the square input the detector was trained on.
const DefaultInputSize = 640

// Preprocessor turns encoded image bytes into the detector's input tensor.
type Preprocessor struct {
	size   int
	scaler draw.Scaler
}

// NewPreprocessor creates a preprocessor for a size x size detector input.
func NewPreprocessor(size int) *Preprocessor {
	if size <= 0 {
		size = DefaultInputSize
	}
	return &Preprocessor{
		size:   size,
		scaler: draw.BiLinear,
	}
}

// Size returns the square edge length of produced tensors.
func (p *Preprocessor) Size() int {
	return p.size
}

// Preprocess decodes the image, stretches it to the target square (aspect ratio is
// not preserved), drops alpha and writes R, G, B planes scaled from 0..255 to 0..1.
func (p *Preprocessor) Preprocess(imageBytes []byte) (*Tensor, error) {
	if len(imageBytes) == 0 {
		return nil, &ImageDecodeError{Cause: errors.New("empty image payload")}
	}

	src, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return nil, &ImageDecodeError{Cause: err}
	}

	bounds := src.Bounds()
	if bounds.Empty() {
		return nil, &ImageDecodeError{Cause: errors.New("decoded image is empty")}
	}

	dst := image.NewNRGBA(image.Rect(0, 0, p.size, p.size))
	p.scaler.Scale(dst, dst.Bounds(), opaque(src), bounds, draw.Src, nil)

	return &Tensor{
		Data:         planar(dst),
		Width:        p.size,
		Height:       p.size,
		SourceWidth:  bounds.Dx(),
		SourceHeight: bounds.Dy(),
	}, nil
}

// opaque copies src with every alpha forced to 255, keeping the stored colour of
// transparent pixels instead of the premultiplied black the scaler would produce.
func opaque(src image.Image) *image.NRGBA {
	bounds := src.Bounds()
	out := image.NewNRGBA(bounds)

	if nrgba, ok := src.(*image.NRGBA); ok {
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			from := nrgba.Pix[nrgba.PixOffset(bounds.Min.X, y):nrgba.PixOffset(bounds.Max.X, y)]
			to := out.Pix[out.PixOffset(bounds.Min.X, y):out.PixOffset(bounds.Max.X, y)]
			copy(to, from)
			for i := 3; i < len(to); i += 4 {
				to[i] = 0xff
			}
		}
		return out
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			out.SetNRGBA(x, y, straightColor(src.At(x, y)))
		}
	}
	return out
}

// straightColor returns the non-premultiplied RGB of c with full alpha.
func straightColor(c color.Color) color.NRGBA {
	switch v := c.(type) {
	case color.NRGBA:
		return color.NRGBA{R: v.R, G: v.G, B: v.B, A: 0xff}
	case color.NRGBA64:
		return color.NRGBA{R: uint8(v.R >> 8), G: uint8(v.G >> 8), B: uint8(v.B >> 8), A: 0xff}
	case color.NYCbCrA:
		r, g, b := color.YCbCrToRGB(v.Y, v.Cb, v.Cr)
		return color.NRGBA{R: r, G: g, B: b, A: 0xff}
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	n.A = 0xff
	return n
}

// planar converts interleaved RGBA pixels into normalized R, G, B planes.
func planar(img *image.NRGBA) []float32 {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	area := w * h
	data := make([]float32, 3*area)

	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x := 0; x < w; x++ {
			i := y*w + x
			px := row[x*4 : x*4+4]
			data[i] = float32(px[0]) / 255.0
			data[area+i] = float32(px[1]) / 255.0
			data[2*area+i] = float32(px[2]) / 255.0
		}
	}
	return data
}
