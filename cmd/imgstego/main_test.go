package main

import (
	"bytes"
	"image"
	"imgstego-backend/audio"
	"imgstego-backend/imaging"
	"imgstego-backend/models"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--log-level", "error"))
	err := cmd.Execute()
	return out.String(), err
}

func writeFixtures(t *testing.T, dir string, carriers int) (*models.AudioClip, string, []string) {
	t.Helper()
	samples := make([]byte, 300)
	for i := range samples {
		samples[i] = byte(i * 7)
	}
	samples[len(samples)-1] = 0x02
	clip := &models.AudioClip{FrameRate: 22050, SampleWidth: 2, Channels: 2, Samples: samples}

	wavData, err := audio.NewAudioDecoder().EncodeWAV(clip)
	if err != nil {
		t.Fatal(err)
	}
	audioPath := filepath.Join(dir, "clip.wav")
	if err := os.WriteFile(audioPath, wavData, 0o644); err != nil {
		t.Fatal(err)
	}

	var paths []string
	for i := range carriers {
		c := image.NewNRGBA(image.Rect(0, 0, 12, 12))
		for p := range c.Pix {
			c.Pix[p] = byte(p + i)
		}
		data, err := imaging.PNGBytes(c)
		if err != nil {
			t.Fatal(err)
		}
		path := filepath.Join(dir, "carrier"+string(rune('a'+i))+".png")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, path)
	}
	return clip, audioPath, paths
}

func TestHideExtractVerify(t *testing.T) {
	dir := t.TempDir()
	clip, audioPath, carriers := writeFixtures(t, dir, 4)
	outDir := filepath.Join(dir, "encoded")

	// 412 container bytes over 143 payload pixels each: three images.
	out, err := run(t, append([]string{"hide", "--audio", audioPath, "--output", outDir}, carriers...)...)
	if err != nil {
		t.Fatalf("hide error = %v, output = %s", err, out)
	}
	encoded := strings.Fields(out)
	if len(encoded) != 3 {
		t.Fatalf("hide wrote %d images, want 3: %v", len(encoded), encoded)
	}

	// Reverse order on purpose.
	reversed := []string{encoded[2], encoded[0], encoded[1]}
	wavOut := filepath.Join(dir, "out.wav")
	if out, err := run(t, append([]string{"extract", "--output", wavOut}, reversed...)...); err != nil {
		t.Fatalf("extract error = %v, output = %s", err, out)
	}

	data, err := os.ReadFile(wavOut)
	if err != nil {
		t.Fatal(err)
	}
	got, err := audio.NewAudioDecoder().DecodeWAV(data)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(clip, got); diff != "" {
		t.Errorf("extracted audio mismatch (-want +got):\n%s", diff)
	}

	if out, err := run(t, append([]string{"verify", audioPath}, reversed...)...); err != nil {
		t.Errorf("verify error = %v, output = %s", err, out)
	}
}

func TestHide_NotEnoughImages(t *testing.T) {
	dir := t.TempDir()
	_, audioPath, carriers := writeFixtures(t, dir, 2)
	outDir := filepath.Join(dir, "encoded")

	if _, err := run(t, append([]string{"hide", "--audio", audioPath, "--output", outDir}, carriers...)...); err == nil {
		t.Fatal("hide succeeded with too few images")
	}
	entries, err := os.ReadDir(outDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("hide left %d files behind", len(entries))
	}
}

func TestExtract_RejectsFormat(t *testing.T) {
	dir := t.TempDir()
	_, _, carriers := writeFixtures(t, dir, 1)
	if _, err := run(t, "extract", "--output", filepath.Join(dir, "out.flac"), carriers[0]); err == nil {
		t.Error("extract accepted flac output")
	}
}

func TestCapacityCommand(t *testing.T) {
	dir := t.TempDir()
	_, audioPath, _ := writeFixtures(t, dir, 0)

	out, err := run(t, "capacity", audioPath, "--width", "12", "--height", "12")
	if err != nil {
		t.Fatalf("capacity error = %v", err)
	}
	if !strings.Contains(out, "Container:       412 bytes") || !strings.Contains(out, "12x12 images: 3 needed") {
		t.Errorf("unexpected capacity output:\n%s", out)
	}
}
