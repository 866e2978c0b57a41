package stego

import (
	"image"
	"math/rand"
)

func newCarrier(width, height int, seed int64) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	rng := rand.New(rand.NewSource(seed))
	rng.Read(img.Pix)
	return img
}

func newCarriers(count, width, height int) []*image.NRGBA {
	carriers := make([]*image.NRGBA, count)
	for i := range carriers {
		carriers[i] = newCarrier(width, height, int64(i+1))
	}
	return carriers
}

func cloneCarrier(c *image.NRGBA) *image.NRGBA {
	out := image.NewNRGBA(c.Rect)
	copy(out.Pix, c.Pix)
	return out
}

// randomSamples never ends in a marker byte, which would be read as part of the marker.
func randomSamples(n int, seed int64) []byte {
	samples := make([]byte, n)
	rand.New(rand.NewSource(seed)).Read(samples)
	if n > 0 {
		samples[n-1] = 0x00
	}
	return samples
}
