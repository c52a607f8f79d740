package imageproc

import (
	"fmt"
	"image"
	"math"
	"math/cmplx"

	"github.com/UnendingLoop/WatermarkStamper/internal/model"
	"github.com/disintegration/imaging"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/mat"
)

// карта считается на уменьшенной копии, спектральный остаток устойчив как раз на таких размерах
const saliencySide = 64

// SaliencyMap - важность каждого пикселя в [0, 1], размер совпадает с исходником
type SaliencyMap struct {
	w, h int
	data *mat.Dense // h строк, w столбцов
}

func (s *SaliencyMap) Size() image.Point {
	return image.Pt(s.w, s.h)
}

func (s *SaliencyMap) At(x, y int) float64 {
	if s.data == nil || x < 0 || y < 0 || x >= s.w || y >= s.h {
		return 0
	}
	return s.data.At(y, x)
}

// values - построчный срез значений, без копирования
func (s *SaliencyMap) values() []float64 {
	if s.data == nil {
		return nil
	}
	return s.data.RawMatrix().Data
}

// ComputeSaliency - спектральный остаток: лог-амплитуда спектра минус ее локальное среднее,
// обратно с исходной фазой, квадрат модуля, сглаживание, нормировка, растяжение до размера img.
func ComputeSaliency(img image.Image) *SaliencyMap {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return &SaliencyMap{}
	}

	n := saliencySide
	small := imaging.Resize(imaging.Grayscale(img), n, n, imaging.Box)

	spec := make([]complex128, n*n)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			spec[y*n+x] = complex(float64(small.Pix[small.PixOffset(x, y)])/255, 0)
		}
	}

	fft := fourier.NewCmplxFFT(n)
	fft2(fft, spec, n, false)

	logAmp := make([]float64, n*n)
	for i, c := range spec {
		logAmp[i] = math.Log(cmplx.Abs(c) + 1e-9)
	}
	avg := boxMean3(logAmp, n, n)
	for i, c := range spec {
		spec[i] = cmplx.Rect(math.Exp(logAmp[i]-avg[i]), cmplx.Phase(c))
	}

	fft2(fft, spec, n, true)

	sal := make([]float64, n*n)
	for i, c := range spec {
		a := cmplx.Abs(c)
		sal[i] = a * a
	}
	sal = gaussian5(sal, n, n)
	normalizeUnit(sal)

	full := resizeBilinear(sal, n, n, w, h)
	return &SaliencyMap{w: w, h: h, data: mat.NewDense(h, w, full)}
}

// LocateQuietRegion ищет левый верхний угол прямоугольника size, который закрывает наименее
// важную часть img. Метка должна быть строго меньше картинки по обеим осям.
func LocateQuietRegion(img image.Image, size image.Point) (image.Point, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if size.X >= w || size.Y >= h {
		return image.Point{}, fmt.Errorf("watermark %v, image %v: %w", size, b.Size(), model.ErrWatermarkTooLarge)
	}
	if size.X < 0 {
		size.X = 0
	}
	if size.Y < 0 {
		size.Y = 0
	}

	sal := ComputeSaliency(img)
	smooth := gaussian5(sal.values(), w, h)
	for i, v := range smooth {
		smooth[i] = 1 - v
	}

	gw, gh := w-size.X, h-size.Y
	grid := resizeBilinear(smooth, w, h, gw, gh)

	// максимум инвертированной карты = минимум важности; при равенстве первый по строкам
	best, bestVal := 0, math.Inf(-1)
	for i, v := range grid {
		if v > bestVal {
			best, bestVal = i, v
		}
	}

	p := image.Pt(best%gw, best/gw)
	return clampPoint(p, b.Size(), size), nil
}

// fft2 - двумерное БПФ по строкам, затем по столбцам, на месте. Без нормировки.
func fft2(fft *fourier.CmplxFFT, data []complex128, n int, inverse bool) {
	transform := fft.Coefficients
	if inverse {
		transform = fft.Sequence
	}

	for y := 0; y < n; y++ {
		row := data[y*n : (y+1)*n]
		transform(row, row)
	}

	col := make([]complex128, n)
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			col[y] = data[y*n+x]
		}
		transform(col, col)
		for y := 0; y < n; y++ {
			data[y*n+x] = col[y]
		}
	}
}

// boxMean3 - среднее по окну 3x3 с повтором крайних значений
func boxMean3(src []float64, w, h int) []float64 {
	dst := make([]float64, len(src))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var s float64
			for dy := -1; dy <= 1; dy++ {
				yy := clampInt(y+dy, 0, h-1)
				for dx := -1; dx <= 1; dx++ {
					s += src[yy*w+clampInt(x+dx, 0, w-1)]
				}
			}
			dst[y*w+x] = s / 9
		}
	}
	return dst
}

var gaussKernel5 = [5]float64{1.0 / 16, 4.0 / 16, 6.0 / 16, 4.0 / 16, 1.0 / 16}

// gaussian5 - сепарабельное гауссово сглаживание 5x5, края повторяются
func gaussian5(src []float64, w, h int) []float64 {
	tmp := make([]float64, len(src))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var s float64
			for k := -2; k <= 2; k++ {
				s += gaussKernel5[k+2] * src[y*w+clampInt(x+k, 0, w-1)]
			}
			tmp[y*w+x] = s
		}
	}

	dst := make([]float64, len(src))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var s float64
			for k := -2; k <= 2; k++ {
				s += gaussKernel5[k+2] * tmp[clampInt(y+k, 0, h-1)*w+x]
			}
			dst[y*w+x] = s
		}
	}
	return dst
}

// normalizeUnit растягивает значения в [0, 1]; плоская карта становится нулевой
func normalizeUnit(v []float64) {
	if len(v) == 0 {
		return
	}
	lo, hi := v[0], v[0]
	for _, x := range v {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	span := hi - lo
	for i := range v {
		if span <= 0 || math.IsNaN(span) {
			v[i] = 0
			continue
		}
		v[i] = (v[i] - lo) / span
	}
}

// resizeBilinear - билинейная интерполяция с выравниванием по центрам пикселей
func resizeBilinear(src []float64, sw, sh, dw, dh int) []float64 {
	dst := make([]float64, dw*dh)
	if sw == 0 || sh == 0 {
		return dst
	}

	sx := float64(sw) / float64(dw)
	sy := float64(sh) / float64(dh)

	for y := 0; y < dh; y++ {
		fy := math.Max((float64(y)+0.5)*sy-0.5, 0)
		y0 := clampInt(int(fy), 0, sh-1)
		y1 := clampInt(y0+1, 0, sh-1)
		ty := fy - float64(y0)
		if ty > 1 {
			ty = 1
		}

		for x := 0; x < dw; x++ {
			fx := math.Max((float64(x)+0.5)*sx-0.5, 0)
			x0 := clampInt(int(fx), 0, sw-1)
			x1 := clampInt(x0+1, 0, sw-1)
			tx := fx - float64(x0)
			if tx > 1 {
				tx = 1
			}

			top := src[y0*sw+x0]*(1-tx) + src[y0*sw+x1]*tx
			bottom := src[y1*sw+x0]*(1-tx) + src[y1*sw+x1]*tx
			dst[y*dw+x] = top*(1-ty) + bottom*ty
		}
	}
	return dst
}
