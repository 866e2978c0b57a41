package stego

import (
	"fmt"
	"strings"
)

// CapacityError reports that the carriers cannot hold the payload.
type CapacityError struct {
	RequiredBits  int64
	AvailableBits int64
	// ImagesHint is the approximate number of extra carriers of the last
	// supplied size needed to close the gap. Zero when unknown.
	ImagesHint int
	// CarrierLimit is set when the payload would need more than MaxCarriers images.
	CarrierLimit bool
}

// DeficitBits is how many bits are missing.
func (e *CapacityError) DeficitBits() int64 {
	return e.RequiredBits - e.AvailableBits
}

// DeficitPixels is how many carrier pixels are missing.
func (e *CapacityError) DeficitPixels() int64 {
	return (e.DeficitBits() + BitsPerPixel - 1) / BitsPerPixel
}

func (e *CapacityError) Error() string {
	if e.CarrierLimit {
		return fmt.Sprintf("payload needs more than %d carrier images; each tag is %d byte", MaxCarriers, TagWidth)
	}
	msg := fmt.Sprintf("insufficient carrier capacity: required %d bits, available %d bits (short by %d bits, %d pixels)",
		e.RequiredBits, e.AvailableBits, e.DeficitBits(), e.DeficitPixels())
	if e.ImagesHint > 0 {
		msg += fmt.Sprintf("; you need approximately %d more images of the same size", e.ImagesHint)
	}
	return msg
}

var _ error = (*CapacityError)(nil)

// FormatError reports a carrier or container that fails basic shape checks.
type FormatError struct {
	Message string
}

func (e *FormatError) Error() string {
	return e.Message
}

var _ error = (*FormatError)(nil)

// CorruptionError reports an image set that does not yield a complete payload.
type CorruptionError struct {
	Message        string
	ImagesScanned  int
	BytesRecovered int
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("%s (scanned %d images, recovered %d bytes)", e.Message, e.ImagesScanned, e.BytesRecovered)
}

var _ error = (*CorruptionError)(nil)

// AlignmentError reports audio data that does not end on a frame boundary.
type AlignmentError struct {
	DataLength int
	FrameSize  int
}

// MissingBytes is the zero padding that would complete the last frame.
func (e *AlignmentError) MissingBytes() int {
	return e.FrameSize - e.DataLength%e.FrameSize
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("audio data length %d is not a multiple of frame size %d (%d bytes short)",
		e.DataLength, e.FrameSize, e.MissingBytes())
}

var _ error = (*AlignmentError)(nil)

// AlignmentWarning is returned by the pad policy when zero bytes were appended.
type AlignmentWarning struct {
	PaddedBytes int
	FrameSize   int
}

func (w *AlignmentWarning) String() string {
	return fmt.Sprintf("audio data padded with %d zero bytes to match frame size %d", w.PaddedBytes, w.FrameSize)
}

// PartialWriteError is the embedder's deficit failure after some carriers
// were already produced. Written lists them so the caller can clean up.
type PartialWriteError struct {
	Written []Encoded
	Err     *CapacityError
}

func (e *PartialWriteError) Error() string {
	tags := make([]string, 0, len(e.Written))
	for _, enc := range e.Written {
		tags = append(tags, fmt.Sprintf("%d", enc.Tag))
	}
	return fmt.Sprintf("%v; %d carriers already written (tags %s)", e.Err, len(e.Written), strings.Join(tags, ","))
}

func (e *PartialWriteError) Unwrap() error {
	return e.Err
}

var _ error = (*PartialWriteError)(nil)
