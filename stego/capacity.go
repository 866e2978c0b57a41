package stego

import (
	"image"
	"imgstego-backend/models"
	"math"
)

// ContainerSize is the packed length for samplesLen bytes of audio.
func ContainerSize(samplesLen int) int {
	return HeaderSize + samplesLen + EndMarkerSize
}

// RequiredBits is the number of carrier bits the container occupies.
func RequiredBits(container []byte) int64 {
	return int64(len(container)) * 8
}

// UsablePixels is the number of payload pixels in a carrier, excluding the tag pixel.
func UsablePixels(c *image.NRGBA) int64 {
	if c == nil {
		return 0
	}
	b := c.Bounds()
	n := int64(b.Dx()) * int64(b.Dy())
	if n < 1 {
		return 0
	}
	return n - 1
}

// AvailableBits sums the payload bits of every carrier.
func AvailableBits(carriers []*image.NRGBA) int64 {
	var total int64
	for _, c := range carriers {
		total += UsablePixels(c) * BitsPerPixel
	}
	return total
}

// CheckCapacity gates an encode before any carrier is touched.
func CheckCapacity(container []byte, carriers []*image.NRGBA) error {
	for i, c := range carriers {
		if err := validateCarrier(c, i); err != nil {
			return err
		}
	}

	required := RequiredBits(container)
	available := AvailableBits(carriers)
	if available < required {
		capErr := &CapacityError{RequiredBits: required, AvailableBits: available}
		if len(carriers) > 0 {
			last := UsablePixels(carriers[len(carriers)-1])
			capErr.ImagesHint = int((capErr.DeficitPixels() + last - 1) / last)
		}
		return capErr
	}

	if used := carriersNeeded(int64(len(container)), carriers); used > MaxCarriers {
		return &CapacityError{RequiredBits: required, AvailableBits: available, CarrierLimit: true}
	}
	return nil
}

// carriersNeeded counts how many leading carriers the embedder will consume.
func carriersNeeded(containerLen int64, carriers []*image.NRGBA) int {
	var filled int64
	for i, c := range carriers {
		if filled >= containerLen {
			return i
		}
		filled += UsablePixels(c)
	}
	return len(carriers)
}

// RequiredPixels is the minimum number of payload pixels for a container.
func RequiredPixels(containerLen int) int64 {
	bits := int64(containerLen) * 8
	return (bits + BitsPerPixel - 1) / BitsPerPixel
}

// ImagesRequired returns how many width x height carriers hold requiredPixels
// payload pixels, and the total pixel count of those carriers.
func ImagesRequired(requiredPixels int64, width, height int) (int, int64) {
	perImage := int64(width)*int64(height) - 1
	if perImage <= 0 {
		return 0, 0
	}
	images := (requiredPixels + perImage - 1) / perImage
	return int(images), images * int64(width) * int64(height)
}

var aspectRatios = [][2]int{{16, 9}, {4, 3}, {3, 2}, {1, 1}}

// SuggestDimensions proposes the smallest carrier for each common aspect
// ratio that has at least requiredPixels pixels.
func SuggestDimensions(requiredPixels int64) []models.Dimension {
	suggestions := make([]models.Dimension, 0, len(aspectRatios))
	for _, ratio := range aspectRatios {
		rw, rh := float64(ratio[0]), float64(ratio[1])
		width := int(math.Ceil(math.Sqrt(float64(requiredPixels) * rw / rh)))
		height := int(math.Ceil(float64(width) * rh / rw))
		for int64(width)*int64(height) < requiredPixels {
			width++
			height = int(math.Ceil(float64(width) * rh / rw))
		}
		suggestions = append(suggestions, models.Dimension{Width: width, Height: height})
	}
	return suggestions
}

// CapacityPlan sizes carriers for a container before any image is chosen.
type CapacityPlan struct {
	ContainerBytes int
	RequiredBits   int64
	RequiredPixels int64
	// Suggestions are single carriers that fit the whole container, tag pixel included.
	Suggestions []models.Dimension
	// ImagesNeeded and TotalPixels are set when a carrier width and height are given.
	ImagesNeeded int
	TotalPixels  int64
}

// Plan sizes carriers for containerLen bytes. width and height are optional;
// zero skips the multi-image estimate.
func Plan(containerLen, width, height int) CapacityPlan {
	pixels := RequiredPixels(containerLen)
	plan := CapacityPlan{
		ContainerBytes: containerLen,
		RequiredBits:   int64(containerLen) * 8,
		RequiredPixels: pixels,
		Suggestions:    SuggestDimensions(pixels + 1),
	}
	if width > 0 && height > 0 {
		plan.ImagesNeeded, plan.TotalPixels = ImagesRequired(pixels, width, height)
	}
	return plan
}
