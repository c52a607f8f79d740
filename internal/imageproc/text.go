package imageproc

import (
	"fmt"
	"image"
	"image/color"

	"github.com/UnendingLoop/WatermarkStamper/internal/model"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	builtinPxPerScale = 22 // размер встроенного шрифта в пикселях на единицу масштаба
	outlinePxPerScale = 20 // внешние шрифты масштабируются до целого размера int(scale*20)
	textMargin        = 10 // отступ текста от краев
)

// TextRaster - шрифт, подготовленный под конкретный масштаб и толщину
type TextRaster struct {
	font      Font
	face      font.Face
	thickness int
}

func NewTextRaster(f Font, scale float64, thickness int) (*TextRaster, error) {
	if f.sfnt == nil {
		return nil, fmt.Errorf("font is not resolved: %w", model.ErrFontNotFound)
	}
	if thickness < 1 {
		thickness = 1
	}

	face, err := opentype.NewFace(f.sfnt, &opentype.FaceOptions{
		Size:    pixelSize(f, scale),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create font face %q: %w", f.name, err)
	}

	return &TextRaster{font: f, face: face, thickness: thickness}, nil
}

func pixelSize(f Font, scale float64) float64 {
	var px float64
	if f.builtin {
		px = builtinPxPerScale * scale
	} else {
		px = float64(int(scale * outlinePxPerScale))
	}
	if px < 1 {
		px = 1
	}
	return px
}

func (t *TextRaster) Close() error {
	return t.face.Close()
}

// Measure - размер прямоугольника текста с левым верхним углом в точке привязки.
// Встроенные: ширина = advance + толщина, высота = ascent + descent + толщина.
// Внешние: габаритный прямоугольник глифов.
func (t *TextRaster) Measure(text string) image.Point {
	if t.font.builtin {
		m := t.face.Metrics()
		adv := font.MeasureString(t.face, text).Ceil()
		return image.Pt(adv+t.thickness, m.Ascent.Ceil()+m.Descent.Ceil()+t.thickness)
	}

	b, _ := font.BoundString(t.face, text)
	return image.Pt(b.Max.X.Ceil()-b.Min.X.Floor(), b.Max.Y.Ceil()-b.Min.Y.Floor())
}

// Draw рисует text в прямоугольнике Measure(text) с левым верхним углом pt.
// Все что выходит за этот прямоугольник или за dst, отсекается.
func (t *TextRaster) Draw(dst *image.NRGBA, pt image.Point, text string, c color.Color) {
	box := image.Rectangle{Min: pt, Max: pt.Add(t.Measure(text))}.Add(dst.Rect.Min)
	clip, ok := dst.SubImage(box).(*image.NRGBA)
	if !ok || clip.Rect.Empty() {
		return
	}

	d := &font.Drawer{
		Dst:  clip,
		Src:  image.NewUniform(c),
		Face: t.face,
	}

	if !t.font.builtin {
		b, _ := font.BoundString(t.face, text)
		d.Dot = fixed.P(box.Min.X-b.Min.X.Floor(), box.Min.Y-b.Min.Y.Floor())
		d.DrawString(text)
		return
	}

	// толщину набираем повторной отрисовкой со сдвигом
	ascent := t.face.Metrics().Ascent.Ceil()
	for dy := 0; dy < t.thickness; dy++ {
		for dx := 0; dx < t.thickness; dx++ {
			d.Dot = fixed.P(box.Min.X+dx, box.Min.Y+ascent+dy)
			d.DrawString(text)
		}
	}
}

// MeasureText - разовое измерение без сохранения подготовленного шрифта
func MeasureText(text string, f Font, scale float64, thickness int) (image.Point, error) {
	r, err := NewTextRaster(f, scale, thickness)
	if err != nil {
		return image.Point{}, err
	}
	defer r.Close()

	return r.Measure(text), nil
}

// DrawText - разовая отрисовка
func DrawText(dst *image.NRGBA, pt image.Point, text string, f Font, scale float64, thickness int, c color.Color) error {
	r, err := NewTextRaster(f, scale, thickness)
	if err != nil {
		return err
	}
	defer r.Close()

	r.Draw(dst, pt, text, c)
	return nil
}
