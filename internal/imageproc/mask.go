package imageproc

import (
	"image"

	"github.com/disintegration/imaging"
)

const (
	whiteCutoff    = 240 // все что ярче считается фоном
	darkLogoMean   = 50  // логотип на черном фоне
	darkPixelLimit = 50
)

// MaskBackground делает фон логотипа прозрачным жестким порогом по яркости.
// Цветовые каналы не трогаем, итоговая альфа = min(исходная альфа, маска).
func MaskBackground(img image.Image) *image.NRGBA {
	out := imaging.Clone(img)
	gray := imaging.Grayscale(out)

	n := len(gray.Pix) / 4
	if n == 0 {
		return out
	}

	var sum int
	for i := 0; i < len(gray.Pix); i += 4 {
		sum += int(gray.Pix[i])
	}
	darkBackground := sum/n < darkLogoMean

	for i := 0; i < len(out.Pix); i += 4 {
		g := gray.Pix[i]

		mask := uint8(255)
		if g >= whiteCutoff {
			mask = 0
		}
		if darkBackground && g < darkPixelLimit {
			mask = 0
		}

		if out.Pix[i+3] > mask {
			out.Pix[i+3] = mask
		}
	}

	return out
}
