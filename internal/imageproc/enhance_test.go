package imageproc

import (
	"image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
)

func TestEnhancer_Gamma(t *testing.T) {
	src := solid(8, 8, color.NRGBA{R: 64, G: 64, B: 64, A: 255})

	out := (&Enhancer{Gamma: 2}).Apply(src)
	require.Equal(t, color.NRGBA{R: 128, G: 128, B: 128, A: 255}, out.NRGBAAt(3, 3))

	same := (&Enhancer{Gamma: 1}).Apply(src)
	requireSamePixels(t, src, same)
}

func TestEnhancer_FlatImageUnchanged(t *testing.T) {
	src := solid(20, 20, color.NRGBA{R: 90, G: 140, B: 30, A: 255})

	out := NewEnhancer(1, true).Apply(src)
	require.Equal(t, src.Rect.Size(), out.Rect.Size())
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			got := out.NRGBAAt(x, y)
			require.InDelta(t, 90, int(got.R), 1)
			require.InDelta(t, 140, int(got.G), 1)
			require.InDelta(t, 30, int(got.B), 1)
		}
	}
}

func TestEnhancer_DoesNotMutateInput(t *testing.T) {
	src := gradient(32, 24)
	before := imaging.Clone(src)

	_ = NewEnhancer(1.2, true).Apply(src)
	requireSamePixels(t, before, src)
}

func TestEnhancer_NilIsClone(t *testing.T) {
	var e *Enhancer
	src := gradient(10, 10)

	out := e.Apply(src)
	requireSamePixels(t, src, out)
	require.NotSame(t, src, out)
}

func TestDenoiseNLM_ReducesNoise(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	src := image.NewNRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			v := uint8(120 + rnd.Intn(21) - 10)
			src.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 200})
		}
	}

	out := denoiseNLM(src, nlmStrength)
	require.Less(t, variance(out), variance(src))
	require.Equal(t, uint8(200), out.NRGBAAt(5, 5).A)
}

func variance(img *image.NRGBA) float64 {
	var sum, sq float64
	n := 0
	for i := 0; i < len(img.Pix); i += 4 {
		v := float64(img.Pix[i])
		sum += v
		sq += v * v
		n++
	}
	mean := sum / float64(n)
	return sq/float64(n) - mean*mean
}
