// Package mp3parser to probe MP3 uploads
package mp3parser

import (
	"encoding/binary"
	"fmt"
	"imgstego-backend/models"
)

const (
	id3HeaderSize   = 10
	frameHeaderSize = 4
)

// lookup tables (MPEG1 Layer III only for now)
var (
	bitrateTable = [16]int{
		0, 32, 40, 48, 56, 64, 80, 96,
		112, 128, 160, 192, 224, 256, 320, 0,
	}
	sampleRateTable = [4]int{44100, 48000, 32000, 0}
)

// read syncsafe int for ID3v2 size
func syncSafeToInt(b []byte) int {
	return int(b[0]&0x7F)<<21 |
		int(b[1]&0x7F)<<14 |
		int(b[2]&0x7F)<<7 |
		int(b[3]&0x7F)
}

// ReadID3v2 parses a leading ID3v2 header. It returns nil when data has none.
func ReadID3v2(data []byte) (*ID3v2Header, error) {
	if len(data) < id3HeaderSize || string(data[:3]) != "ID3" {
		return nil, nil
	}
	h := &ID3v2Header{
		Version: [2]byte{data[3], data[4]},
		Flags:   data[5],
		Size:    syncSafeToInt(data[6:10]),
	}
	if id3HeaderSize+h.Size > len(data) {
		return nil, fmt.Errorf("ID3v2 tag of %d bytes overruns file of %d bytes", h.Size, len(data))
	}
	return h, nil
}

// ParseFrameHeader decodes the 4-byte header at the start of b.
func ParseFrameHeader(b []byte) (*FrameHeader, error) {
	if len(b) < frameHeaderSize {
		return nil, fmt.Errorf("short frame header")
	}
	header := binary.BigEndian.Uint32(b)

	// check sync
	if (header & 0xFFE00000) != 0xFFE00000 {
		return nil, fmt.Errorf("invalid sync word: 0x%08X", header)
	}

	versionID := int((header >> 19) & 0x3)
	layer := int((header >> 17) & 0x3)
	prot := ((header >> 16) & 0x1) == 0
	bitrateIdx := int((header >> 12) & 0xF)
	sampleRateIdx := int((header >> 10) & 0x3)
	padding := ((header >> 9) & 0x1) == 1
	channelMode := int((header >> 6) & 0x3)

	if versionID != 3 || layer != 1 {
		return nil, fmt.Errorf("unsupported MPEG version %d layer %d", versionID, layer)
	}

	bitrate := bitrateTable[bitrateIdx] * 1000
	sampleRate := sampleRateTable[sampleRateIdx]

	if bitrate == 0 || sampleRate == 0 {
		return nil, fmt.Errorf("unsupported bitrate or samplerate")
	}

	return &FrameHeader{
		VersionID:     versionID,
		Layer:         layer,
		ProtectionBit: prot,
		Bitrate:       bitrate,
		SampleRate:    sampleRate,
		Padding:       padding,
		ChannelMode:   channelMode,
		FrameLength:   (144*bitrate)/sampleRate + btoi(padding),
	}, nil
}

// Probe walks the frames of an MP3 file, resyncing past junk bytes.
func Probe(data []byte) (*models.MP3Info, error) {
	info := &models.MP3Info{}

	id3, err := ReadID3v2(data)
	if err != nil {
		return nil, fmt.Errorf("failed to read ID3v2: %v", err)
	}
	pos := 0
	if id3 != nil {
		info.HasID3v2 = true
		pos = id3HeaderSize + id3.Size
	}

	for pos+frameHeaderSize <= len(data) {
		h, err := ParseFrameHeader(data[pos:])
		if err != nil || pos+h.FrameLength > len(data) {
			pos++
			continue
		}

		if info.TotalFrames == 0 {
			info.SampleRate = h.SampleRate
			info.Bitrate = h.Bitrate
		} else if h.Bitrate != info.Bitrate {
			info.VBR = true
		}
		info.TotalFrames++
		pos += h.FrameLength
	}

	if info.TotalFrames == 0 {
		return nil, fmt.Errorf("no MPEG-1 Layer III frames found")
	}
	return info, nil
}

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}
