package imaging

import (
	"image"
	"math"
)

// CalculatePSNR compares the red, green and blue bytes of two carriers of
// equal bounds. Alpha is ignored since it may hold the sequence tag.
func CalculatePSNR(original, stego *image.NRGBA) float64 {
	if original == nil || stego == nil || original.Bounds() != stego.Bounds() {
		return 0.0
	}

	b := original.Bounds()
	if b.Empty() {
		return 0.0
	}

	var mse float64
	var n int
	for y := b.Min.Y; y < b.Max.Y; y++ {
		oi := original.PixOffset(b.Min.X, y)
		si := stego.PixOffset(b.Min.X, y)
		for x := 0; x < b.Dx(); x++ {
			for c := range 3 {
				diff := float64(original.Pix[oi+c]) - float64(stego.Pix[si+c])
				mse += diff * diff
			}
			oi += 4
			si += 4
			n += 3
		}
	}
	mse /= float64(n)

	// If MSE is 0, images are identical
	if mse == 0 {
		return math.Inf(1)
	}

	// PSNR = 20 * log10(MAX / sqrt(MSE)), MAX = 255 for 8-bit channels
	maxSignalValue := 255.0
	return 20 * math.Log10(maxSignalValue/math.Sqrt(mse))
}

// MeanPSNR averages the finite PSNR values of several carrier pairs.
// It returns +Inf when every pair is identical.
func MeanPSNR(originals, stegos []*image.NRGBA) float64 {
	var sum float64
	var finite int
	for i := range originals {
		if i >= len(stegos) {
			break
		}
		psnr := CalculatePSNR(originals[i], stegos[i])
		if math.IsInf(psnr, 1) {
			continue
		}
		sum += psnr
		finite++
	}
	if finite == 0 {
		return math.Inf(1)
	}
	return sum / float64(finite)
}

func ValidatePSNR(psnr float64, threshold float64) bool {
	if math.IsInf(psnr, 1) {
		return true // Infinite PSNR is always good
	}
	return psnr >= threshold
}
