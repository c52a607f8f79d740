// Package model provides data-structs for internal app-usage
package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

type (
	Status    string
	MediaKind string
)

const (
	StatusCreated    Status = "created"
	StatusInProgress Status = "in_progress"
	StatusFailed     Status = "failed"
	StatusDone       Status = "done"
)

var StatusMap = map[Status]bool{
	StatusCreated:    true,
	StatusInProgress: true,
	StatusFailed:     true,
	StatusDone:       true,
}

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
	MediaPDF   MediaKind = "pdf"
)

//---------------------

// Job - одна задача на штамповку одного файла
type Job struct {
	UID        uuid.UUID        `json:"uid"`
	SourceKey  string           `json:"-"`
	LogoKey    string           `json:"-"`
	ResultKey  string           `json:"-"`
	PreviewKey string           `json:"-"`
	Media      MediaKind        `json:"media"`
	SourceName string           `json:"source_name,omitempty"`
	Options    WatermarkOptions `json:"options"`
	Status     Status           `json:"status,omitempty"`
	ErrMsg     StringSlice      `json:"error,omitempty"`
	CreatedAt  *time.Time       `json:"created_at,omitempty"`
	UpdatedAt  *time.Time       `json:"updated_at,omitempty"`
}

//-------------------

type ListRequest struct {
	Page  int    `form:"page"`
	Limit int    `form:"limit"`
	Sort  string `form:"sort"`
	Order string `form:"order"`
}

const (
	ByUUID    = "uid"
	ByCreated = "created"
	OrderASC  = "ascend"
	OrderDESC = "descend"
)

type JobCreateData struct {
	Options           WatermarkOptions
	SourceName        string
	Source            multipart.File
	SourceContentType string
	SourceSize        int64
	Logo              multipart.File
	LogoContentType   string
	LogoSize          int64
}

// StampResult - результат обработки одного файла: путь к результату или пусто, текст ошибки или пусто
type StampResult struct {
	Source string `json:"source"`
	Output string `json:"output"`
	Err    string `json:"error"`
}

// ------------------

var (
	ErrCommon500         error = errors.New("something went wrong. Try again later")  // 500
	ErrIncorrectQuery    error = errors.New("incorrect query parameters")             // 400
	ErrIncorrectID       error = errors.New("incorrect job UUID")                     // 400
	ErrJobNotFound       error = errors.New("specified job UUID doesn't exist")       // 404
	ErrResultNotReady    error = errors.New("requested job is not processed yet")     // 404
	ErrEmptySource       error = errors.New("empty/incorrect source file provided")   // 400
	ErrEmptyLogo         error = errors.New("empty/incorrect logo provided")          // 400
	ErrIncorrectStatus   error = errors.New("incorrect status provided")              // 400
	ErrUnsupportedFormat error = errors.New("unsupported source file format")         // 400
	ErrUnsupportedLogo   error = errors.New("unsupported logo format")                // 400
	ErrIncorrectOpacity  error = errors.New("opacity must be within [0, 1]")          // 400
	ErrIncorrectScale    error = errors.New("relative scale must be greater than 0")  // 400
	ErrIncorrectMarkType error = errors.New("watermark type must be `text` or `logo`") // 400
)

// ошибки движка штамповки
var (
	ErrInvalidColorFormat      error = errors.New("color must be a 6-digit hex code (#RRGGBB) or a basic color name")
	ErrFontNotFound            error = errors.New("font not found")
	ErrWatermarkTooLarge       error = errors.New("watermark does not fit into the base image")
	ErrPlacementOutOfBounds    error = errors.New("watermark placement is outside of the base image")
	ErrVideoUnreadable         error = errors.New("video can't be opened or decoded")
	ErrUnsupportedOutputFormat error = errors.New("unsupported output format")
	ErrMissingRequiredField    error = errors.New("required field is missing")
)

//--------------------

const (
	JPEG  = "image/jpeg"
	PNG   = "image/png"
	MP4   = "video/mp4"
	AVI   = "video/x-msvideo"
	MOV   = "video/quicktime"
	PDF   = "application/pdf"
	OCTET = "application/octet-stream"
)

var GetFileExt = map[string]string{
	JPEG: ".jpg",
	PNG:  ".png",
	MP4:  ".mp4",
	AVI:  ".avi",
	MOV:  ".mov",
	PDF:  ".pdf",
}

var GetCTypeByExt = map[string]string{
	".jpg":  JPEG,
	".jpeg": JPEG,
	".png":  PNG,
	".mp4":  MP4,
	".avi":  AVI,
	".mov":  MOV,
	".pdf":  PDF,
}

var GetMediaKind = map[string]MediaKind{
	JPEG: MediaImage,
	PNG:  MediaImage,
	MP4:  MediaVideo,
	AVI:  MediaVideo,
	MOV:  MediaVideo,
	PDF:  MediaPDF,
}

var InLogoTypeMap = map[string]bool{
	JPEG: true,
	PNG:  true,
}

var GetCType = map[imaging.Format]string{
	imaging.JPEG: JPEG,
	imaging.PNG:  PNG,
}

//--------------------

type StringSlice []string

func (s *StringSlice) Scan(value any) error {
	if value == nil {
		*s = []string{}
		return nil
	}

	b, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("invalid type for StringSlice")
	}

	if err := json.Unmarshal(b, s); err != nil {
		return fmt.Errorf("failed to unmarshal JSONB to []StringSlice: %w", err)
	}
	return nil
}

func (s StringSlice) Value() (driver.Value, error) {
	if len(s) == 0 || s == nil {
		return []byte(`[]`), nil
	}
	res, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal []StringSlice to JSONB: %w", err)
	}

	return res, nil
}
