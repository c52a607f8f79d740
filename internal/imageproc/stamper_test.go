package imageproc

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/UnendingLoop/WatermarkStamper/internal/model"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"
)

var (
	white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	black = color.NRGBA{A: 255}
)

func TestStamp_LogoBottomRight(t *testing.T) {
	base := solid(200, 100, white)
	logo := solid(20, 20, black)

	s, err := NewStamper(LogoMark{Source: logo, Scale: 0.2, Masked: true}, Named(BottomRight), 1, nil)
	require.NoError(t, err)

	out, err := s.Stamp(base)
	require.NoError(t, err)
	require.Equal(t, base.Rect, out.Rect)

	block := image.Rect(180, 80, 200, 100)
	for y := 0; y < 100; y++ {
		for x := 0; x < 200; x++ {
			if image.Pt(x, y).In(block) {
				require.Equal(t, black, out.NRGBAAt(x, y), "pixel %d,%d", x, y)
				continue
			}
			require.Equal(t, white, out.NRGBAAt(x, y), "pixel %d,%d", x, y)
		}
	}

	// исходник не тронут
	require.Equal(t, white, base.NRGBAAt(190, 90))
}

func TestStamp_LogoMaskedBackground(t *testing.T) {
	base := solid(100, 100, color.NRGBA{R: 0, G: 0, B: 255, A: 255})

	// белый фон логотипа должен исчезнуть, красный центр остаться
	logo := solid(20, 20, white)
	for y := 5; y < 15; y++ {
		for x := 5; x < 15; x++ {
			logo.SetNRGBA(x, y, color.NRGBA{R: 200, A: 255})
		}
	}

	s, err := NewStamper(LogoMark{Source: logo, Scale: 0.2}, Named(TopLeft), 1, nil)
	require.NoError(t, err)

	out, err := s.Stamp(base)
	require.NoError(t, err)

	require.Equal(t, color.NRGBA{B: 255, A: 255}, out.NRGBAAt(1, 1))
	require.Equal(t, color.NRGBA{R: 200, A: 255}, out.NRGBAAt(10, 10))
}

func TestStamp_TextTopLeft(t *testing.T) {
	base := gradient(200, 120)
	f, err := ResolveFont("", "")
	require.NoError(t, err)

	mark := TextMark{Content: "TEST", Font: f, Color: BGR{B: 255, G: 255, R: 255}, Thickness: 2, Scale: 1}
	s, err := NewStamper(mark, Named(TopLeft), 0.5, nil)
	require.NoError(t, err)

	out, err := s.Stamp(base)
	require.NoError(t, err)

	// ожидаемое: тот же текст на копии, смешанный 50/50
	tr, err := NewTextRaster(f, 1*120.0/150, 2)
	require.NoError(t, err)
	defer tr.Close()

	overlay := imaging.Clone(base)
	tr.Draw(overlay, image.Pt(textMargin, textMargin), "TEST", white)
	box := image.Rectangle{Min: image.Pt(textMargin, textMargin)}
	box.Max = box.Min.Add(tr.Measure("TEST"))

	changed := 0
	for y := 0; y < 120; y++ {
		for x := 0; x < 200; x++ {
			b, o, got := base.NRGBAAt(x, y), overlay.NRGBAAt(x, y), out.NRGBAAt(x, y)
			want := color.NRGBA{
				R: roundByte(float64(o.R)*0.5 + float64(b.R)*0.5),
				G: roundByte(float64(o.G)*0.5 + float64(b.G)*0.5),
				B: roundByte(float64(o.B)*0.5 + float64(b.B)*0.5),
				A: b.A,
			}
			require.Equal(t, want, got, "pixel %d,%d", x, y)
			if got != b {
				require.True(t, image.Pt(x, y).In(box), "pixel %d,%d outside %v", x, y, box)
				changed++
			}
		}
	}
	require.Positive(t, changed)
}

func TestStamp_AutoInsideBounds(t *testing.T) {
	base := imageWithSquare(160, 120, image.Rect(60, 40, 100, 80))
	f, err := ResolveFont("", "")
	require.NoError(t, err)

	tests := []struct {
		name string
		mark WatermarkSpec
	}{
		{"text", TextMark{Content: "wm", Font: f, Color: BGR{R: 255}, Thickness: 1, Scale: 0.5}},
		{"logo", LogoMark{Source: solid(10, 10, black), Scale: 0.2, Masked: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewStamper(tt.mark, Auto(), 1, nil)
			require.NoError(t, err)

			out, err := s.Stamp(base)
			require.NoError(t, err)
			require.Equal(t, base.Rect, out.Rect)
		})
	}
}

func TestStamp_AutoTooLarge(t *testing.T) {
	base := solid(10, 10, white)

	// логотип 10x10 на основе 10x10 - ни одного допустимого положения
	s, err := NewStamper(LogoMark{Source: solid(5, 5, black), Scale: 1, Masked: true}, Auto(), 1, nil)
	require.NoError(t, err)

	_, err = s.Stamp(base)
	require.ErrorIs(t, err, model.ErrWatermarkTooLarge)
}

func TestStamp_BelowBar(t *testing.T) {
	base := solid(100, 80, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	logo := solid(16, 16, black)

	tests := []struct {
		name    string
		bar     int
		wantH   int
		logoTop int
	}{
		{"fixed bar", 30, 110, 80 + (30-16)/2},
		{"auto bar", 0, 80 + 16 + 2*barMargin, 80 + barMargin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewStamper(LogoMark{Source: logo, Scale: 0.2, Masked: true}, BelowBar(tt.bar), 1, nil)
			require.NoError(t, err)

			out, err := s.Stamp(base)
			require.NoError(t, err)
			require.Equal(t, 100, out.Rect.Dx())
			require.Equal(t, tt.wantH, out.Rect.Dy())

			// исходник сверху без изменений
			require.Equal(t, color.NRGBA{R: 10, G: 20, B: 30, A: 255}, out.NRGBAAt(50, 40))
			// полоса белая, метка по центру
			require.Equal(t, white, out.NRGBAAt(2, tt.wantH-1))
			require.Equal(t, black, out.NRGBAAt(50, tt.logoTop+8))
		})
	}
}

func TestStamp_BelowBarShrinksTallLogo(t *testing.T) {
	base := solid(100, 100, white)
	logo := solid(40, 40, black)

	s, err := NewStamper(LogoMark{Source: logo, Scale: 0.4, Masked: true}, BelowBar(20), 1, nil)
	require.NoError(t, err)

	out, err := s.Stamp(base)
	require.NoError(t, err)
	require.Equal(t, 120, out.Rect.Dy())
	require.Equal(t, black, out.NRGBAAt(50, 110))
	require.Equal(t, white, out.NRGBAAt(5, 110))
}

func TestStamp_BelowBarShrinksTallText(t *testing.T) {
	base := solid(300, 150, white)
	f, err := ResolveFont("", "")
	require.NoError(t, err)

	const bar = 14
	mark := TextMark{Content: "WATERMARK", Font: f, Color: BGR{}, Thickness: 2, Scale: 1}
	s, err := NewStamper(mark, BelowBar(bar), 1, nil)
	require.NoError(t, err)

	// без подгонки текст выше полосы
	full, err := MeasureText(mark.Content, f, 1, 2)
	require.NoError(t, err)
	require.Greater(t, full.Y, bar)

	out, err := s.Stamp(base)
	require.NoError(t, err)
	require.Equal(t, 150+bar, out.Rect.Dy())

	// текст нарисован в полосе, основа не задета
	dark := 0
	for y := 150; y < 150+bar; y++ {
		for x := 0; x < 300; x++ {
			if out.NRGBAAt(x, y).R < 128 {
				dark++
			}
		}
	}
	require.Positive(t, dark)
	requireSamePixels(t, base, imaging.Crop(out, base.Rect))
}

func TestFitTextToBar(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "brand.ttf"), goregular.TTF, 0o600))

	builtin, err := ResolveFont("", "")
	require.NoError(t, err)
	outline, err := ResolveFont("brand", dir)
	require.NoError(t, err)

	tests := []struct {
		name string
		font Font
		bar  int
	}{
		{"builtin", builtin, 16},
		{"builtin tight", builtin, 10},
		{"outline", outline, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := TextMark{Content: "Sample", Font: tt.font, Thickness: 1}
			tr, err := NewTextRaster(tt.font, 3, 1)
			require.NoError(t, err)

			tr, size, err := fitTextToBar(tr, m, 3, tt.bar)
			require.NoError(t, err)
			defer tr.Close()

			require.LessOrEqual(t, size.Y, tt.bar)
			require.Positive(t, size.X)
			require.Equal(t, size, tr.Measure(m.Content))
		})
	}
}

func TestNewStamper_Errors(t *testing.T) {
	f, err := ResolveFont("", "")
	require.NoError(t, err)

	tests := []struct {
		name    string
		mark    WatermarkSpec
		wantErr error
	}{
		{"nil mark", nil, model.ErrMissingRequiredField},
		{"empty text", TextMark{Content: "  ", Font: f}, model.ErrMissingRequiredField},
		{"no font", TextMark{Content: "x"}, model.ErrFontNotFound},
		{"nil logo", LogoMark{}, model.ErrMissingRequiredField},
		{"empty logo", LogoMark{Source: image.NewNRGBA(image.Rect(0, 0, 0, 0))}, model.ErrMissingRequiredField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewStamper(tt.mark, Named(BottomRight), 0.5, nil)
			require.ErrorIs(t, err, tt.wantErr)
			require.Nil(t, s)
		})
	}
}

func TestNewStamper_ClampsOpacity(t *testing.T) {
	s, err := NewStamper(LogoMark{Source: solid(2, 2, black)}, Auto(), 3, nil)
	require.NoError(t, err)
	require.Equal(t, 1.0, s.Opacity())
	require.Equal(t, PlaceAuto, s.Placement().Kind)
}

func TestStamp_EmptyBase(t *testing.T) {
	s, err := NewStamper(LogoMark{Source: solid(2, 2, black)}, Named(MiddleCenter), 1, nil)
	require.NoError(t, err)

	_, err = s.Stamp(image.NewNRGBA(image.Rect(0, 0, 0, 0)))
	require.ErrorIs(t, err, model.ErrMissingRequiredField)
}

func TestParsePlacement(t *testing.T) {
	tests := []struct {
		token string
		want  Placement
	}{
		{"auto", Auto()},
		{"Otomatis", Auto()},
		{"-1", Auto()},
		{"below-bar", BelowBar(40)},
		{"bar", BelowBar(40)},
		{"top-left", Named(TopLeft)},
		{"kanan-bawah", Named(BottomRight)},
		{"4", Named(MiddleCenter)},
		{"nowhere", Named(BottomRight)},
		{"", Named(BottomRight)},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			require.Equal(t, tt.want, ParsePlacement(tt.token, 40))
		})
	}
}

func TestPlacement_String(t *testing.T) {
	require.Equal(t, "auto", Auto().String())
	require.Equal(t, "below-bar(25)", BelowBar(25).String())
	require.Equal(t, "top-right", Named(TopRight).String())
}
