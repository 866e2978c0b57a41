package stego

import (
	"fmt"
	"image"
)

const (
	BitsPerPixel = 8
	TagWidth     = 1 // bytes
	MaxCarriers  = 1 << (8 * TagWidth)

	redMask   = 0xF8
	greenMask = 0xF8
	blueMask  = 0xFC
)

// TagChannel is the byte of pixel (0,0) that holds the sequence tag.
type TagChannel int

const (
	// TagAlpha stores the tag in the alpha byte.
	TagAlpha TagChannel = iota
	// TagRed stores the tag in the whole red byte.
	TagRed
)

// ParseTagChannel maps "alpha" and "red" to a tag channel.
func ParseTagChannel(s string) (TagChannel, error) {
	switch s {
	case "", "alpha":
		return TagAlpha, nil
	case "red":
		return TagRed, nil
	}
	return TagAlpha, fmt.Errorf("unknown tag channel %q", s)
}

func (t TagChannel) offset() int {
	if t == TagRed {
		return 0
	}
	return 3
}

// embedByte writes b as 3 bits red, 3 bits green, 2 bits blue, high bits first.
func embedByte(pix []uint8, b byte) {
	pix[0] = pix[0]&redMask | b>>5
	pix[1] = pix[1]&greenMask | (b>>2)&0x07
	pix[2] = pix[2]&blueMask | b&0x03
}

func extractByte(pix []uint8) byte {
	return (pix[0]&0x07)<<5 | (pix[1]&0x07)<<2 | pix[2]&0x03
}

func writeTag(c *image.NRGBA, ch TagChannel, tag int) {
	b := c.Bounds()
	c.Pix[c.PixOffset(b.Min.X, b.Min.Y)+ch.offset()] = uint8(tag)
}

func readTag(c *image.NRGBA, ch TagChannel) int {
	b := c.Bounds()
	return int(c.Pix[c.PixOffset(b.Min.X, b.Min.Y)+ch.offset()])
}

// forEachPixel visits the carrier in row-major order, skipping the tag
// pixel, until fn returns false.
func forEachPixel(c *image.NRGBA, fn func(pix []uint8) bool) {
	b := c.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if x == b.Min.X && y == b.Min.Y {
				continue
			}
			i := c.PixOffset(x, y)
			if !fn(c.Pix[i : i+4 : i+4]) {
				return
			}
		}
	}
}

func validateCarrier(c *image.NRGBA, index int) error {
	if c == nil {
		return &FormatError{Message: fmt.Sprintf("carrier %d is nil", index)}
	}
	b := c.Bounds()
	if b.Dx()*b.Dy() < 2 {
		return &FormatError{Message: fmt.Sprintf("carrier %d is %dx%d, needs at least 2 pixels", index, b.Dx(), b.Dy())}
	}
	return nil
}
