// Package stego hides an audio stream in the low bits of carrier images
package stego

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"imgstego-backend/models"
	"math"
)

const (
	FrameRateBytes   = 4
	SampleWidthBytes = 2
	ChannelsBytes    = 2
	DataLengthBytes  = 4
	HeaderSize       = FrameRateBytes + SampleWidthBytes + ChannelsBytes + DataLengthBytes

	EndMarkerSize = 100
	EndMarkerByte = 0xFF
)

var endMarker = bytes.Repeat([]byte{EndMarkerByte}, EndMarkerSize)

// AlignmentPolicy decides what Unpack does with audio that does not end on a frame boundary.
type AlignmentPolicy int

const (
	// AlignPad appends zero bytes up to the next frame and reports a warning.
	AlignPad AlignmentPolicy = iota
	// AlignStrict fails with an AlignmentError.
	AlignStrict
)

// ParseAlignmentPolicy maps "pad" and "strict" to a policy.
func ParseAlignmentPolicy(s string) (AlignmentPolicy, error) {
	switch s {
	case "", "pad":
		return AlignPad, nil
	case "strict":
		return AlignStrict, nil
	}
	return AlignPad, fmt.Errorf("unknown alignment policy %q", s)
}

// Pack builds the container: big-endian header, samples, end marker.
// data_length counts the samples and the marker together.
func Pack(clip models.AudioClip) ([]byte, error) {
	if clip.FrameRate <= 0 || int64(clip.FrameRate) > math.MaxUint32 {
		return nil, &FormatError{Message: fmt.Sprintf("frame rate %d does not fit the header", clip.FrameRate)}
	}
	if clip.SampleWidth <= 0 || clip.SampleWidth > math.MaxUint16 {
		return nil, &FormatError{Message: fmt.Sprintf("sample width %d does not fit the header", clip.SampleWidth)}
	}
	if clip.Channels <= 0 || clip.Channels > math.MaxUint16 {
		return nil, &FormatError{Message: fmt.Sprintf("channel count %d does not fit the header", clip.Channels)}
	}

	dataLen := int64(len(clip.Samples)) + EndMarkerSize
	if dataLen > math.MaxUint32 {
		return nil, &FormatError{Message: fmt.Sprintf("audio data of %d bytes does not fit the header", len(clip.Samples))}
	}

	container := make([]byte, HeaderSize, HeaderSize+int(dataLen))
	binary.BigEndian.PutUint32(container[0:4], uint32(clip.FrameRate))
	binary.BigEndian.PutUint16(container[4:6], uint16(clip.SampleWidth))
	binary.BigEndian.PutUint16(container[6:8], uint16(clip.Channels))
	binary.BigEndian.PutUint32(container[8:12], uint32(dataLen))

	container = append(container, clip.Samples...)
	container = append(container, endMarker...)
	return container, nil
}

// Unpack decodes a container whose end marker has already been stripped.
// A data_length longer than the bytes present is clamped, since it still
// counts the removed marker.
func Unpack(raw []byte, policy AlignmentPolicy) (*models.AudioClip, *AlignmentWarning, error) {
	if len(raw) < HeaderSize {
		return nil, nil, &FormatError{Message: fmt.Sprintf("container is %d bytes, header needs %d", len(raw), HeaderSize)}
	}

	frameRate := binary.BigEndian.Uint32(raw[0:4])
	sampleWidth := binary.BigEndian.Uint16(raw[4:6])
	channels := binary.BigEndian.Uint16(raw[6:8])
	dataLen := int64(binary.BigEndian.Uint32(raw[8:12]))

	if sampleWidth == 0 || channels == 0 {
		return nil, nil, &FormatError{Message: fmt.Sprintf("invalid header: sample width %d, channels %d", sampleWidth, channels)}
	}

	body := raw[HeaderSize:]
	if dataLen < int64(len(body)) {
		body = body[:dataLen]
	}

	samples := make([]byte, len(body))
	copy(samples, body)

	clip := &models.AudioClip{
		FrameRate:   int(frameRate),
		SampleWidth: int(sampleWidth),
		Channels:    int(channels),
		Samples:     samples,
	}

	frameSize := clip.FrameSize()
	if rem := len(samples) % frameSize; rem != 0 {
		alignErr := &AlignmentError{DataLength: len(samples), FrameSize: frameSize}
		if policy == AlignStrict {
			return nil, nil, alignErr
		}
		padding := alignErr.MissingBytes()
		clip.Samples = append(clip.Samples, make([]byte, padding)...)
		return clip, &AlignmentWarning{PaddedBytes: padding, FrameSize: frameSize}, nil
	}

	return clip, nil, nil
}
