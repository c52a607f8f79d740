package imageproc

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/UnendingLoop/WatermarkStamper/internal/model"
	"github.com/disintegration/imaging"
)

// WatermarkSpec - либо TextMark, либо LogoMark
type WatermarkSpec interface {
	isWatermarkSpec()
}

type TextMark struct {
	Content   string
	Font      Font
	Color     BGR
	Thickness int
	Scale     float64 // масштаб шрифта = Scale*min(W,H)/150
}

type LogoMark struct {
	Source image.Image // логотип; если Masked == false, фон маскируется при штамповке
	Scale  float64     // доля меньшей стороны основы
	Masked bool        // альфа уже готова
}

func (TextMark) isWatermarkSpec() {}
func (LogoMark) isWatermarkSpec() {}

type PlacementKind int

const (
	PlaceNamed PlacementKind = iota
	PlaceAuto
	PlaceBelowBar
)

// Placement - куда ставить метку: фиксированный якорь, авто по карте важности или в полосу снизу
type Placement struct {
	Kind      PlacementKind
	Anchor    Anchor
	BarHeight int // <= 0 - высота по метке
}

func Named(a Anchor) Placement { return Placement{Kind: PlaceNamed, Anchor: a} }
func Auto() Placement          { return Placement{Kind: PlaceAuto} }
func BelowBar(h int) Placement { return Placement{Kind: PlaceBelowBar, BarHeight: h} }

func (p Placement) String() string {
	switch p.Kind {
	case PlaceAuto:
		return "auto"
	case PlaceBelowBar:
		return fmt.Sprintf("below-bar(%d)", p.BarHeight)
	default:
		return p.Anchor.String()
	}
}

// ParsePlacement: auto/otomatis/-1 - авто, below-bar/bar - полоса, остальное через ParseAnchor
func ParsePlacement(token string, barHeight int) Placement {
	t := strings.ToLower(strings.TrimSpace(token))
	switch t {
	case "auto", "otomatis", "-1":
		return Auto()
	case "below-bar", "below bar", "below_bar", "bar":
		return BelowBar(barHeight)
	}
	a, _ := ParseAnchor(t)
	return Named(a)
}

const barMargin = 10

// Stamper - проверенная один раз конфигурация штамповки; Stamp можно вызывать на каждом кадре
type Stamper struct {
	mark      WatermarkSpec
	placement Placement
	opacity   float64
	enhancer  *Enhancer
}

func NewStamper(mark WatermarkSpec, placement Placement, opacity float64, enhancer *Enhancer) (*Stamper, error) {
	switch m := mark.(type) {
	case TextMark:
		if strings.TrimSpace(m.Content) == "" {
			return nil, fmt.Errorf("text watermark without text: %w", model.ErrMissingRequiredField)
		}
		if m.Font.sfnt == nil {
			return nil, fmt.Errorf("text watermark without font: %w", model.ErrFontNotFound)
		}
		if m.Scale <= 0 {
			m.Scale = model.DefaultScale
		}
		if m.Thickness < 1 {
			m.Thickness = 1
		}
		mark = m
	case LogoMark:
		if m.Source == nil || m.Source.Bounds().Empty() {
			return nil, fmt.Errorf("logo watermark without logo: %w", model.ErrMissingRequiredField)
		}
		if m.Scale <= 0 {
			m.Scale = model.DefaultScale
		}
		mark = m
	default:
		return nil, fmt.Errorf("watermark is not set: %w", model.ErrMissingRequiredField)
	}

	return &Stamper{
		mark:      mark,
		placement: placement,
		opacity:   clampUnit(opacity),
		enhancer:  enhancer,
	}, nil
}

func (s *Stamper) Placement() Placement { return s.placement }
func (s *Stamper) Opacity() float64     { return s.opacity }

// Stamp возвращает новый растр, img не меняется. Для BelowBar результат выше исходника.
func (s *Stamper) Stamp(img image.Image) (*image.NRGBA, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("empty base image: %w", model.ErrMissingRequiredField)
	}

	var base *image.NRGBA
	if s.enhancer != nil {
		base = s.enhancer.Apply(img)
	} else {
		base = imaging.Clone(img)
	}

	switch m := s.mark.(type) {
	case TextMark:
		return s.stampText(base, m)
	case LogoMark:
		return s.stampLogo(base, m)
	default:
		return nil, model.ErrMissingRequiredField
	}
}

func (s *Stamper) stampText(base *image.NRGBA, m TextMark) (*image.NRGBA, error) {
	size := base.Rect.Size()
	scale := m.Scale * float64(min(size.X, size.Y)) / 150

	tr, err := NewTextRaster(m.Font, scale, m.Thickness)
	if err != nil {
		return nil, err
	}

	markSize := tr.Measure(m.Content)
	if bar := s.placement.BarHeight; s.placement.Kind == PlaceBelowBar && bar > 0 && markSize.Y > bar {
		tr, markSize, err = fitTextToBar(tr, m, scale, bar)
		if err != nil {
			return nil, err
		}
	}
	defer tr.Close()

	var pos image.Point
	switch s.placement.Kind {
	case PlaceAuto:
		pos, err = LocateQuietRegion(base, markSize)
		if err != nil {
			return nil, err
		}
	case PlaceBelowBar:
		base, pos = extendWithBar(base, markSize, s.placement.BarHeight)
	default:
		pos = ResolvePosition(s.placement.Anchor, size, markSize, textMargin)
	}

	c := m.Color.NRGBA()
	return BlendText(base, func(overlay *image.NRGBA) {
		tr.Draw(overlay, pos, m.Content, c)
	}, s.opacity), nil
}

func (s *Stamper) stampLogo(base *image.NRGBA, m LogoMark) (*image.NRGBA, error) {
	size := base.Rect.Size()
	side := logoSide(size, m.Scale)
	logo := FitLogo(m.Source, side, side)

	var pos image.Point
	var err error
	switch s.placement.Kind {
	case PlaceAuto:
		pos, err = LocateQuietRegion(base, logo.Rect.Size())
		if err != nil {
			return nil, err
		}
	case PlaceBelowBar:
		if bar := s.placement.BarHeight; bar > 0 && logo.Rect.Dy() > bar {
			logo = FitLogo(m.Source, size.X, bar)
		}
		base, pos = extendWithBar(base, logo.Rect.Size(), s.placement.BarHeight)
	default:
		pos = ResolvePosition(s.placement.Anchor, size, logo.Rect.Size(), 0)
	}

	if !m.Masked {
		logo = MaskBackground(logo)
	}
	if err := BlendLogo(base, logo, pos, s.opacity); err != nil {
		return nil, err
	}
	return base, nil
}

// fitTextToBar уменьшает шрифт, пока текст не влезет в полосу заданной высоты, как логотип в stampLogo.
// Размер внешних шрифтов округляется вниз до целого, поэтому может понадобиться несколько шагов.
func fitTextToBar(tr *TextRaster, m TextMark, scale float64, bar int) (*TextRaster, image.Point, error) {
	size := tr.Measure(m.Content)
	for i := 0; i < 8 && size.Y > bar; i++ {
		scale *= float64(bar) / float64(size.Y)
		if i > 0 {
			scale *= 0.95
		}

		next, err := NewTextRaster(m.Font, scale, m.Thickness)
		if err != nil {
			tr.Close()
			return nil, image.Point{}, err
		}
		tr.Close()
		tr = next
		size = tr.Measure(m.Content)
	}
	return tr, size, nil
}

// extendWithBar дописывает снизу белую полосу и возвращает точку метки по центру полосы
func extendWithBar(base *image.NRGBA, mark image.Point, bar int) (*image.NRGBA, image.Point) {
	size := base.Rect.Size()
	if bar <= 0 {
		bar = mark.Y + 2*barMargin
	}

	canvas := imaging.New(size.X, size.Y+bar, color.White)
	canvas = imaging.Paste(canvas, base, image.Pt(0, 0))

	pos := image.Pt((size.X-mark.X)/2, size.Y+(bar-mark.Y)/2)
	pos.X = clampInt(pos.X, 0, size.X-mark.X)
	pos.Y = clampInt(pos.Y, size.Y, size.Y+bar-mark.Y)

	return canvas, pos
}
