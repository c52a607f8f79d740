package imageproc

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/UnendingLoop/WatermarkStamper/internal/model"
)

// BlendLogo накладывает RGBA-логотип на base в точке pos (относительно base.Bounds().Min).
// Прямоугольник логотипа обязан целиком лежать внутри base, иначе ErrPlacementOutOfBounds
// и base не меняется.
func BlendLogo(base, logo *image.NRGBA, pos image.Point, opacity float64) error {
	if base == nil || logo == nil {
		return fmt.Errorf("nil raster passed to BlendLogo: %w", model.ErrMissingRequiredField)
	}
	opacity = clampUnit(opacity)

	lb := logo.Bounds()
	dst := image.Rectangle{Min: pos, Max: pos.Add(lb.Size())}.Add(base.Rect.Min)
	if !dst.In(base.Rect) {
		return fmt.Errorf("logo %v at %v on base %v: %w", lb.Size(), pos, base.Rect.Size(), model.ErrPlacementOutOfBounds)
	}

	for y := 0; y < lb.Dy(); y++ {
		li := logo.PixOffset(lb.Min.X, lb.Min.Y+y)
		bi := base.PixOffset(dst.Min.X, dst.Min.Y+y)
		for x := 0; x < lb.Dx(); x, li, bi = x+1, li+4, bi+4 {
			w := float64(logo.Pix[li+3]) / 255 * opacity
			if w == 0 {
				continue
			}
			for c := 0; c < 3; c++ {
				base.Pix[bi+c] = roundByte(float64(logo.Pix[li+c])*w + float64(base.Pix[bi+c])*(1-w))
			}
		}
	}

	return nil
}

// BlendText рисует через drawFn на полной копии base, затем смешивает копию с base:
// result = overlay*opacity + base*(1-opacity). Меняет base на месте и возвращает его же.
func BlendText(base *image.NRGBA, drawFn func(overlay *image.NRGBA), opacity float64) *image.NRGBA {
	if base == nil {
		return nil
	}
	opacity = clampUnit(opacity)

	overlay := image.NewNRGBA(base.Rect)
	draw.Draw(overlay, overlay.Rect, base, base.Rect.Min, draw.Src)
	if drawFn != nil {
		drawFn(overlay)
	}

	for y := base.Rect.Min.Y; y < base.Rect.Max.Y; y++ {
		bi := base.PixOffset(base.Rect.Min.X, y)
		oi := overlay.PixOffset(base.Rect.Min.X, y)
		for x := base.Rect.Min.X; x < base.Rect.Max.X; x, bi, oi = x+1, bi+4, oi+4 {
			for c := 0; c < 3; c++ {
				if overlay.Pix[oi+c] == base.Pix[bi+c] {
					continue
				}
				base.Pix[bi+c] = roundByte(float64(overlay.Pix[oi+c])*opacity + float64(base.Pix[bi+c])*(1-opacity))
			}
		}
	}

	return base
}

func clampUnit(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// roundByte - округление половины вверх с зажимом в [0, 255]
func roundByte(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v + 0.5)
	}
}
