package imageproc

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// FitLogo вписывает логотип в прямоугольник maxW x maxH с сохранением пропорций.
// В отличие от imaging.Fit маленький логотип увеличивается до рамки.
func FitLogo(img image.Image, maxW, maxH int) *image.NRGBA {
	b := img.Bounds()
	if b.Empty() || maxW <= 0 || maxH <= 0 {
		return imaging.Clone(img)
	}

	ratio := math.Min(float64(maxW)/float64(b.Dx()), float64(maxH)/float64(b.Dy()))
	w := max(1, int(math.Round(float64(b.Dx())*ratio)))
	h := max(1, int(math.Round(float64(b.Dy())*ratio)))

	if w == b.Dx() && h == b.Dy() {
		return imaging.Clone(img)
	}
	return imaging.Resize(img, w, h, imaging.Lanczos)
}

// logoSide - сторона квадрата под логотип: доля от меньшей стороны основы
func logoSide(base image.Point, scale float64) int {
	return max(1, int(float64(min(base.X, base.Y))*scale))
}
