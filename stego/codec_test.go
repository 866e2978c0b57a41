package stego

import (
	"bytes"
	"context"
	"errors"
	"image"
	"imgstego-backend/models"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		clip     models.AudioClip
		carriers []*image.NRGBA
		opts     Options
	}{
		{
			name:     "8-bit mono in one carrier",
			clip:     models.AudioClip{FrameRate: 8000, SampleWidth: 1, Channels: 1, Samples: randomSamples(500, 1)},
			carriers: newCarriers(1, 32, 32),
		},
		{
			name:     "16-bit stereo across carriers",
			clip:     models.AudioClip{FrameRate: 44100, SampleWidth: 2, Channels: 2, Samples: randomSamples(4000, 2)},
			carriers: newCarriers(4, 30, 40),
		},
		{
			name:     "24-bit mono with red tag",
			clip:     models.AudioClip{FrameRate: 48000, SampleWidth: 3, Channels: 1, Samples: randomSamples(900, 3)},
			carriers: newCarriers(3, 20, 20),
			opts:     Options{TagChannel: TagRed},
		},
		{
			name:     "empty audio",
			clip:     models.AudioClip{FrameRate: 16000, SampleWidth: 2, Channels: 1, Samples: []byte{}},
			carriers: newCarriers(1, 16, 16),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Encode(context.Background(), tt.clip, tt.carriers, nil, tt.opts)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}

			encoded := make([]*image.NRGBA, 0, len(result.Encoded))
			for _, enc := range result.Encoded {
				encoded = append(encoded, enc.Carrier)
			}

			got, warning, err := Decode(encoded, tt.opts)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if warning != nil {
				t.Errorf("unexpected warning: %s", warning)
			}
			if diff := cmp.Diff(&tt.clip, got); diff != "" {
				t.Errorf("Decode() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecode_OrderIndependence(t *testing.T) {
	clip := models.AudioClip{FrameRate: 22050, SampleWidth: 2, Channels: 1, Samples: randomSamples(600, 5)}
	carriers := newCarriers(3, 16, 16) // 255 payload pixels each, 712 bytes need all three

	result, err := Encode(context.Background(), clip, carriers, nil, Options{})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if len(result.Encoded) != 3 {
		t.Fatalf("encoded %d carriers, want 3", len(result.Encoded))
	}

	c := []*image.NRGBA{result.Encoded[0].Carrier, result.Encoded[1].Carrier, result.Encoded[2].Carrier}
	permutations := [][]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}

	for _, perm := range permutations {
		shuffled := []*image.NRGBA{c[perm[0]], c[perm[1]], c[perm[2]]}
		got, _, err := Decode(shuffled, Options{})
		if err != nil {
			t.Fatalf("Decode(%v) error = %v", perm, err)
		}
		if diff := cmp.Diff(&clip, got); diff != "" {
			t.Errorf("Decode(%v) mismatch (-want +got):\n%s", perm, diff)
		}
	}
}

func TestEncode_CapacityGateLeavesCarriersUntouched(t *testing.T) {
	clip := models.AudioClip{FrameRate: 8000, SampleWidth: 1, Channels: 1, Samples: randomSamples(1000, 1)}
	carriers := newCarriers(3, 10, 10)
	before := make([][]byte, len(carriers))
	for i, c := range carriers {
		before[i] = bytes.Clone(c.Pix)
	}

	_, err := Encode(context.Background(), clip, carriers, nil, Options{})
	var capErr *CapacityError
	if !errors.As(err, &capErr) {
		t.Fatalf("Encode() error = %v, want *CapacityError", err)
	}
	var partial *PartialWriteError
	if errors.As(err, &partial) {
		t.Errorf("capacity gate reported a partial write")
	}
	for i, c := range carriers {
		if !bytes.Equal(before[i], c.Pix) {
			t.Errorf("carrier %d modified after capacity failure", i)
		}
	}
}

// A 2x2 carrier has 3 payload pixels; the 12-byte header alone needs more.
func TestEncode_ScenarioTinyCarrier(t *testing.T) {
	clip := models.AudioClip{FrameRate: 8000, SampleWidth: 1, Channels: 1, Samples: nil}

	_, err := Encode(context.Background(), clip, newCarriers(1, 2, 2), nil, Options{})
	var capErr *CapacityError
	if !errors.As(err, &capErr) {
		t.Fatalf("Encode() error = %v, want *CapacityError", err)
	}
	if capErr.AvailableBits != 24 {
		t.Errorf("AvailableBits = %d, want 24", capErr.AvailableBits)
	}
}

func TestEncodeDecode_ScenarioSingleCarrier(t *testing.T) {
	samples := randomSamples(50, 11)
	clip := models.AudioClip{FrameRate: 44100, SampleWidth: 1, Channels: 1, Samples: samples}
	carriers := newCarriers(1, 64, 64)

	result, err := Encode(context.Background(), clip, carriers, nil, Options{})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if result.ContainerBytes != 162 {
		t.Errorf("ContainerBytes = %d, want 162", result.ContainerBytes)
	}
	if len(result.Encoded) != 1 || result.Encoded[0].Tag != 0 || result.Encoded[0].BytesWritten != 162 {
		t.Fatalf("Encoded = %+v, want one carrier tagged 0 with 162 bytes", result.Encoded)
	}

	got, _, err := Decode([]*image.NRGBA{result.Encoded[0].Carrier}, Options{})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if diff := cmp.Diff(samples, got.Samples); diff != "" {
		t.Errorf("samples mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_ScenarioMissingFirstCarrier(t *testing.T) {
	// 300 container bytes over 255-pixel carriers: the marker straddles both.
	clip := models.AudioClip{FrameRate: 8000, SampleWidth: 1, Channels: 1, Samples: randomSamples(188, 4)}
	carriers := newCarriers(2, 16, 16)

	result, err := Encode(context.Background(), clip, carriers, nil, Options{})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if len(result.Encoded) != 2 {
		t.Fatalf("encoded %d carriers, want 2", len(result.Encoded))
	}

	_, _, err = Decode([]*image.NRGBA{result.Encoded[1].Carrier}, Options{})
	var corruptErr *CorruptionError
	if !errors.As(err, &corruptErr) {
		t.Fatalf("Decode() error = %v, want *CorruptionError", err)
	}
}

func TestDecode_AlignmentPolicy(t *testing.T) {
	clip := models.AudioClip{FrameRate: 8000, SampleWidth: 2, Channels: 1, Samples: []byte{1, 2, 3}}

	encode := func() []*image.NRGBA {
		result, err := Encode(context.Background(), clip, newCarriers(1, 16, 16), nil, Options{})
		if err != nil {
			t.Fatalf("Encode() error = %v", err)
		}
		return []*image.NRGBA{result.Encoded[0].Carrier}
	}

	got, warning, err := Decode(encode(), Options{Alignment: AlignPad})
	if err != nil {
		t.Fatalf("Decode(pad) error = %v", err)
	}
	if warning == nil || warning.PaddedBytes != 1 {
		t.Errorf("warning = %v, want 1 padded byte", warning)
	}
	if diff := cmp.Diff([]byte{1, 2, 3, 0}, got.Samples); diff != "" {
		t.Errorf("samples mismatch (-want +got):\n%s", diff)
	}

	_, _, err = Decode(encode(), Options{Alignment: AlignStrict})
	var alignErr *AlignmentError
	if !errors.As(err, &alignErr) {
		t.Errorf("Decode(strict) error = %v, want *AlignmentError", err)
	}
}

func TestEncode_NoCarriers(t *testing.T) {
	clip := models.AudioClip{FrameRate: 8000, SampleWidth: 1, Channels: 1}
	_, err := Encode(context.Background(), clip, nil, nil, Options{})
	var formatErr *FormatError
	if !errors.As(err, &formatErr) {
		t.Errorf("Encode() error = %v, want *FormatError", err)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	got, err := OptionsFromConfig(&models.StegoConfig{TagChannel: "red", Alignment: "strict"})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(Options{TagChannel: TagRed, Alignment: AlignStrict}, got); diff != "" {
		t.Errorf("OptionsFromConfig() mismatch (-want +got):\n%s", diff)
	}

	if _, err := OptionsFromConfig(&models.StegoConfig{TagChannel: "green"}); err == nil {
		t.Errorf("OptionsFromConfig() accepted unknown tag channel")
	}
}
