package imageproc

import (
	"image"
	"math"

	"github.com/disintegration/gift"
	"github.com/disintegration/imaging"
)

const (
	sharpenSigma  = 1.1 // сигма гауссова ядра 5x5
	sharpenAmount = 0.5 // 1.5*orig - 0.5*blur

	nlmStrength     = 10.0
	nlmPatchRadius  = 1
	nlmSearchRadius = 3
)

// Enhancer - предобработка перед наложением: гамма, опционально шумодав, резкость.
// Порядок фиксирован: шумодав до резкости.
type Enhancer struct {
	Gamma   float64
	Denoise bool
	Sharpen bool
}

func NewEnhancer(gamma float64, denoise bool) *Enhancer {
	return &Enhancer{Gamma: gamma, Denoise: denoise, Sharpen: true}
}

// Apply не трогает img, каждая стадия возвращает новый растр
func (e *Enhancer) Apply(img image.Image) *image.NRGBA {
	out := imaging.Clone(img)
	if e == nil {
		return out
	}

	if e.Gamma > 0 && e.Gamma != 1 {
		out = imaging.AdjustGamma(out, e.Gamma)
	}
	if e.Denoise {
		out = denoiseNLM(out, nlmStrength)
	}
	if e.Sharpen {
		out = unsharp(out)
	}

	return out
}

func unsharp(img *image.NRGBA) *image.NRGBA {
	g := gift.New(gift.UnsharpMask(sharpenSigma, sharpenAmount, 0))
	dst := image.NewNRGBA(g.Bounds(img.Bounds()))
	g.Draw(dst, img)
	return dst
}

// denoiseNLM - non-local means по цветным патчам 3x3 в окне поиска 7x7.
// Вес патча exp(-d/h^2), d - средний квадрат разности по каналам RGB. Альфа копируется.
func denoiseNLM(src *image.NRGBA, h float64) *image.NRGBA {
	b := src.Rect
	w, ht := b.Dx(), b.Dy()
	dst := image.NewNRGBA(b)
	if w == 0 || ht == 0 {
		return dst
	}

	h2 := h * h
	patchArea := float64((2*nlmPatchRadius + 1) * (2*nlmPatchRadius + 1) * 3)
	off := func(x, y int) int {
		return src.PixOffset(b.Min.X+clampInt(x, 0, w-1), b.Min.Y+clampInt(y, 0, ht-1))
	}

	for y := 0; y < ht; y++ {
		for x := 0; x < w; x++ {
			var acc [3]float64
			var wsum float64

			for sy := -nlmSearchRadius; sy <= nlmSearchRadius; sy++ {
				for sx := -nlmSearchRadius; sx <= nlmSearchRadius; sx++ {
					var d float64
					for py := -nlmPatchRadius; py <= nlmPatchRadius; py++ {
						for px := -nlmPatchRadius; px <= nlmPatchRadius; px++ {
							p := off(x+px, y+py)
							q := off(x+sx+px, y+sy+py)
							for c := 0; c < 3; c++ {
								diff := float64(src.Pix[p+c]) - float64(src.Pix[q+c])
								d += diff * diff
							}
						}
					}

					wt := math.Exp(-(d / patchArea) / h2)
					q := off(x+sx, y+sy)
					for c := 0; c < 3; c++ {
						acc[c] += wt * float64(src.Pix[q+c])
					}
					wsum += wt
				}
			}

			i := dst.PixOffset(b.Min.X+x, b.Min.Y+y)
			s := off(x, y)
			for c := 0; c < 3; c++ {
				dst.Pix[i+c] = roundByte(acc[c] / wsum)
			}
			dst.Pix[i+3] = src.Pix[s+3]
		}
	}

	return dst
}
