// Package imaging converts and persists carrier images
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
)

// ToCarrier returns an NRGBA copy of img that the caller owns exclusively.
func ToCarrier(img image.Image) *image.NRGBA {
	b := img.Bounds()
	if src, ok := img.(*image.NRGBA); ok {
		dst := image.NewNRGBA(b)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			copy(dst.Pix[dst.PixOffset(b.Min.X, y):dst.PixOffset(b.Min.X, y)+4*b.Dx()],
				src.Pix[src.PixOffset(b.Min.X, y):src.PixOffset(b.Min.X, y)+4*b.Dx()])
		}
		return dst
	}
	dst := image.NewNRGBA(b)
	draw.Draw(dst, b, img, b.Min, draw.Src)
	return dst
}

// Clone copies a carrier.
func Clone(c *image.NRGBA) *image.NRGBA {
	return ToCarrier(c)
}

// DecodePNG reads a PNG into a carrier. Only lossless input is accepted
// since recompression destroys the hidden bits.
func DecodePNG(r io.Reader) (*image.NRGBA, error) {
	img, err := png.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode PNG: %v", err)
	}
	return ToCarrier(img), nil
}

// LoadPNG decodes a PNG held in memory.
func LoadPNG(data []byte) (*image.NRGBA, error) {
	return DecodePNG(bytes.NewReader(data))
}

// EncodePNG writes a carrier as PNG.
func EncodePNG(w io.Writer, c *image.NRGBA) error {
	encoder := png.Encoder{CompressionLevel: png.BestCompression}
	if err := encoder.Encode(w, c); err != nil {
		return fmt.Errorf("failed to encode PNG: %v", err)
	}
	return nil
}

// PNGBytes encodes a carrier into memory.
func PNGBytes(c *image.NRGBA) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodePNG(&buf, c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
