package mp3parser

import (
	"imgstego-backend/models"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// frame builds an MPEG-1 Layer III frame: 128 kbps, 44.1 kHz, no padding.
func frame(bitrateIdx byte) []byte {
	h := []byte{0xFF, 0xFB, bitrateIdx << 4, 0x00}
	bitrate := bitrateTable[bitrateIdx] * 1000
	f := make([]byte, (144*bitrate)/44100)
	copy(f, h)
	return f
}

func TestProbe(t *testing.T) {
	id3 := []byte{'I', 'D', '3', 4, 0, 0, 0, 0, 0, 5, 1, 2, 3, 4, 5}

	tests := []struct {
		name string
		data []byte
		want *models.MP3Info
	}{
		{
			name: "constant bitrate",
			data: append(frame(9), frame(9)...),
			want: &models.MP3Info{TotalFrames: 2, SampleRate: 44100, Bitrate: 128000},
		},
		{
			name: "id3 and junk before frames",
			data: append(append(append(id3, 0x00, 0x13), frame(9)...), frame(11)...),
			want: &models.MP3Info{HasID3v2: true, TotalFrames: 2, SampleRate: 44100, Bitrate: 128000, VBR: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Probe(tt.data)
			if err != nil {
				t.Fatalf("Probe() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Probe() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestProbe_NoFrames(t *testing.T) {
	if _, err := Probe([]byte("RIFF....WAVEfmt ")); err == nil {
		t.Errorf("Probe() accepted data without frames")
	}
}

func TestParseFrameHeader(t *testing.T) {
	h, err := ParseFrameHeader([]byte{0xFF, 0xFB, 0x92, 0x40})
	if err != nil {
		t.Fatalf("ParseFrameHeader() error = %v", err)
	}
	if h.Bitrate != 128000 || h.SampleRate != 44100 || !h.Padding || h.FrameLength != 418 {
		t.Errorf("ParseFrameHeader() = %+v", h)
	}

	if _, err := ParseFrameHeader([]byte{0x12, 0x34, 0x56, 0x78}); err == nil {
		t.Errorf("ParseFrameHeader() accepted a bad sync word")
	}
}
