package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	MarkText = "text"
	MarkLogo = "logo"
)

// WatermarkOptions - сырые параметры штамповки, как их прислал пользователь; хранятся в JSONB
type WatermarkOptions struct {
	Type         string   `json:"type" mapstructure:"type"`
	Text         string   `json:"text,omitempty" mapstructure:"text"`
	Font         string   `json:"font,omitempty" mapstructure:"font"`
	FontColor    string   `json:"font_color,omitempty" mapstructure:"font_color"`
	Position     string   `json:"position,omitempty" mapstructure:"position"`
	Opacity      *float64 `json:"opacity,omitempty" mapstructure:"opacity"`
	Scale        float64  `json:"scale,omitempty" mapstructure:"scale"`
	Thickness    int      `json:"thickness,omitempty" mapstructure:"thickness"`
	BarHeight    int      `json:"bar_height,omitempty" mapstructure:"bar_height"`
	Enhance      bool     `json:"enhance,omitempty" mapstructure:"enhance"`
	Denoise      bool     `json:"denoise,omitempty" mapstructure:"denoise"`
	Gamma        float64  `json:"gamma,omitempty" mapstructure:"gamma"`
	OutputFormat string   `json:"output_format,omitempty" mapstructure:"output_format"`
}

const (
	DefaultOpacity   = 0.6
	DefaultScale     = 0.3
	DefaultThickness = 2
	DefaultFont      = "hershey simplex"
	DefaultColor     = "white"
	DefaultPosition  = "bottom-right"
	DefaultGamma     = 1.2
)

// SetDefaults заполняет незаданные поля значениями по умолчанию
func (o *WatermarkOptions) SetDefaults() {
	o.Type = strings.ToLower(strings.TrimSpace(o.Type))
	if o.Opacity == nil {
		op := DefaultOpacity
		o.Opacity = &op
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Thickness <= 0 {
		o.Thickness = DefaultThickness
	}
	if o.Font == "" {
		o.Font = DefaultFont
	}
	if o.FontColor == "" {
		o.FontColor = DefaultColor
	}
	if o.Position == "" {
		o.Position = DefaultPosition
	}
	if o.Gamma <= 0 {
		o.Gamma = DefaultGamma
	}
	o.OutputFormat = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(o.OutputFormat)), ".")
}

// Validate проверяет то, что можно проверить без декодирования файлов
func (o *WatermarkOptions) Validate() error {
	switch o.Type {
	case MarkText:
		if strings.TrimSpace(o.Text) == "" {
			return fmt.Errorf("text watermark without text: %w", ErrMissingRequiredField)
		}
	case MarkLogo:
	default:
		return ErrIncorrectMarkType
	}

	if o.Opacity != nil && (*o.Opacity < 0 || *o.Opacity > 1) {
		return ErrIncorrectOpacity
	}
	if o.Scale < 0 {
		return ErrIncorrectScale
	}

	return nil
}

// OpacityValue - непрозрачность с учетом дефолта
func (o WatermarkOptions) OpacityValue() float64 {
	if o.Opacity == nil {
		return DefaultOpacity
	}
	return *o.Opacity
}

func (o *WatermarkOptions) Scan(value any) error {
	if value == nil {
		*o = WatermarkOptions{}
		return nil
	}

	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("invalid type for WatermarkOptions")
	}

	if err := json.Unmarshal(b, o); err != nil {
		return fmt.Errorf("failed to unmarshal JSONB to WatermarkOptions: %w", err)
	}
	return nil
}

func (o WatermarkOptions) Value() (driver.Value, error) {
	res, err := json.Marshal(o)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal WatermarkOptions to JSONB: %w", err)
	}

	return res, nil
}
