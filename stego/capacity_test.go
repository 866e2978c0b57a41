package stego

import (
	"errors"
	"image"
	"imgstego-backend/models"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAvailableBits(t *testing.T) {
	tests := []struct {
		name     string
		carriers []*image.NRGBA
		want     int64
	}{
		{name: "none", carriers: nil, want: 0},
		{name: "2x2", carriers: newCarriers(1, 2, 2), want: 3 * 8},
		{name: "64x64", carriers: newCarriers(1, 64, 64), want: 4095 * 8},
		{name: "three 10x10", carriers: newCarriers(3, 10, 10), want: 3 * 99 * 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AvailableBits(tt.carriers); got != tt.want {
				t.Errorf("AvailableBits() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRequiredBits(t *testing.T) {
	if got := RequiredBits(make([]byte, 162)); got != 1296 {
		t.Errorf("RequiredBits() = %d, want 1296", got)
	}
}

func TestCheckCapacity_Deficit(t *testing.T) {
	container := make([]byte, 50)
	carriers := newCarriers(2, 4, 4) // 30 usable pixels

	err := CheckCapacity(container, carriers)
	var capErr *CapacityError
	if !errors.As(err, &capErr) {
		t.Fatalf("CheckCapacity() error = %v, want *CapacityError", err)
	}

	want := &CapacityError{RequiredBits: 400, AvailableBits: 240, ImagesHint: 2}
	if diff := cmp.Diff(want, capErr); diff != "" {
		t.Errorf("CapacityError mismatch (-want +got):\n%s", diff)
	}
	if capErr.DeficitPixels() != 20 {
		t.Errorf("DeficitPixels() = %d, want 20", capErr.DeficitPixels())
	}
}

func TestCheckCapacity_Exact(t *testing.T) {
	container := make([]byte, 15)
	if err := CheckCapacity(container, newCarriers(1, 4, 4)); err != nil {
		t.Errorf("CheckCapacity() error = %v, want nil", err)
	}
}

func TestCheckCapacity_TooSmallCarrier(t *testing.T) {
	carriers := []*image.NRGBA{newCarrier(4, 4, 1), newCarrier(1, 1, 2)}

	err := CheckCapacity(make([]byte, 4), carriers)
	var formatErr *FormatError
	if !errors.As(err, &formatErr) {
		t.Errorf("CheckCapacity() error = %v, want *FormatError", err)
	}
}

func TestCheckCapacity_CarrierLimit(t *testing.T) {
	// One payload pixel per carrier, so 300 bytes need 300 carriers.
	container := make([]byte, 300)
	carriers := newCarriers(300, 1, 2)

	err := CheckCapacity(container, carriers)
	var capErr *CapacityError
	if !errors.As(err, &capErr) || !capErr.CarrierLimit {
		t.Fatalf("CheckCapacity() error = %v, want carrier limit", err)
	}
}

func TestRequiredPixels(t *testing.T) {
	if got := RequiredPixels(ContainerSize(50)); got != 162 {
		t.Errorf("RequiredPixels() = %d, want 162", got)
	}
}

func TestImagesRequired(t *testing.T) {
	tests := []struct {
		name        string
		pixels      int64
		width       int
		height      int
		wantImages  int
		wantOverall int64
	}{
		{name: "fits one", pixels: 4095, width: 64, height: 64, wantImages: 1, wantOverall: 4096},
		{name: "spills into third", pixels: 4095*2 + 1, width: 64, height: 64, wantImages: 3, wantOverall: 3 * 4096},
		{name: "degenerate", pixels: 10, width: 1, height: 1, wantImages: 0, wantOverall: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			images, total := ImagesRequired(tt.pixels, tt.width, tt.height)
			if images != tt.wantImages || total != tt.wantOverall {
				t.Errorf("ImagesRequired() = (%d, %d), want (%d, %d)", images, total, tt.wantImages, tt.wantOverall)
			}
		})
	}
}

func TestSuggestDimensions(t *testing.T) {
	got := SuggestDimensions(100)
	want := []models.Dimension{
		{Width: 14, Height: 8},
		{Width: 12, Height: 9},
		{Width: 13, Height: 9},
		{Width: 10, Height: 10},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SuggestDimensions() mismatch (-want +got):\n%s", diff)
	}
}

func TestPlan(t *testing.T) {
	plan := Plan(162, 64, 64)
	if plan.RequiredBits != 1296 || plan.RequiredPixels != 162 {
		t.Errorf("Plan() bits, pixels = %d, %d, want 1296, 162", plan.RequiredBits, plan.RequiredPixels)
	}
	if plan.ImagesNeeded != 1 || plan.TotalPixels != 4096 {
		t.Errorf("Plan() images = (%d, %d), want (1, 4096)", plan.ImagesNeeded, plan.TotalPixels)
	}
	for _, d := range plan.Suggestions {
		if int64(d.Width)*int64(d.Height) < 163 {
			t.Errorf("suggestion %dx%d cannot hold the tag pixel and payload", d.Width, d.Height)
		}
	}

	if got := Plan(512, 0, 0); got.ImagesNeeded != 0 || got.TotalPixels != 0 {
		t.Errorf("Plan() without dimensions = %+v", got)
	}
}
