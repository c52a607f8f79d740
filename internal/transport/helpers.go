package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/UnendingLoop/WatermarkStamper/internal/model"
	"github.com/UnendingLoop/WatermarkStamper/internal/mwlogger"
	"github.com/wb-go/wbf/ginext"
)

func errorCodeDefiner(err error) int {
	switch {
	case errors.Is(err, model.ErrCommon500):
		return 500
	case errors.Is(err, model.ErrJobNotFound),
		errors.Is(err, model.ErrResultNotReady):
		return 404
	case errors.Is(err, model.ErrWatermarkTooLarge),
		errors.Is(err, model.ErrPlacementOutOfBounds),
		errors.Is(err, model.ErrVideoUnreadable):
		return 422
	case errors.Is(err, model.ErrIncorrectQuery),
		errors.Is(err, model.ErrIncorrectID),
		errors.Is(err, model.ErrEmptySource),
		errors.Is(err, model.ErrEmptyLogo),
		errors.Is(err, model.ErrIncorrectStatus),
		errors.Is(err, model.ErrUnsupportedFormat),
		errors.Is(err, model.ErrUnsupportedLogo),
		errors.Is(err, model.ErrIncorrectOpacity),
		errors.Is(err, model.ErrIncorrectScale),
		errors.Is(err, model.ErrIncorrectMarkType),
		errors.Is(err, model.ErrInvalidColorFormat),
		errors.Is(err, model.ErrFontNotFound),
		errors.Is(err, model.ErrUnsupportedOutputFormat),
		errors.Is(err, model.ErrMissingRequiredField):
		return 400
	default:
		return 500
	}
}

func formFloat(ctx *ginext.Context, key string) (float64, error) {
	v := strings.TrimSpace(ctx.PostForm(key))
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s %q: %w", key, v, model.ErrIncorrectQuery)
	}
	return f, nil
}

func formInt(ctx *ginext.Context, key string) (int, error) {
	v := strings.TrimSpace(ctx.PostForm(key))
	if v == "" {
		return 0, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s %q: %w", key, v, model.ErrIncorrectQuery)
	}
	return i, nil
}

// чекбоксы формы присылают "on"
func formBool(ctx *ginext.Context, key string) (bool, error) {
	v := strings.ToLower(strings.TrimSpace(ctx.PostForm(key)))
	switch v {
	case "":
		return false, nil
	case "on", "yes":
		return true, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s %q: %w", key, v, model.ErrIncorrectQuery)
	}
	return b, nil
}

func closeFileFlow(ctx context.Context, res io.ReadCloser) {
	if res == nil {
		return
	}
	if err := res.Close(); err != nil {
		logger := mwlogger.LoggerFromContext(ctx)
		logger.Warn().Err(err).Msg("Handler failed to close fileflow")
	}
}
