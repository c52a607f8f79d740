// Package main (in stamp-subfolder) provides the local batch stamper
package main

import (
	"context"
	"encoding/json"
	"image"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/UnendingLoop/WatermarkStamper/internal/batch"
	"github.com/UnendingLoop/WatermarkStamper/internal/model"
	"github.com/UnendingLoop/WatermarkStamper/internal/mwlogger"
	"github.com/UnendingLoop/WatermarkStamper/internal/video/cvstream"
	"github.com/alexflint/go-arg"
	"github.com/wb-go/wbf/zlog"
)

type Args struct {
	Files     []string `arg:"positional,required" help:"images (jpg, png), videos (mp4, avi, mov) or pdf"`
	Out       string   `arg:"-o" default:"." help:"output folder"`
	Type      string   `arg:"-t" default:"text" help:"watermark type: text or logo"`
	Text      string   `help:"watermark text"`
	Logo      string   `help:"logo file (png or jpg)"`
	Font      string   `default:"hershey simplex" help:"builtin font name or ttf/otf file"`
	FontDir   string   `arg:"--font-dir" default:"Font" help:"folder with ttf/otf fonts"`
	Color     string   `arg:"-c" default:"white" help:"text color: #RRGGBB or a basic color name"`
	Position  string   `arg:"-p" default:"bottom-right" help:"anchor (top-left ... bottom-right, 0..8), auto or below-bar"`
	Opacity   float64  `default:"0.6" help:"watermark opacity 0..1"`
	Scale     float64  `arg:"-s" default:"0.3" help:"watermark scale relative to the smaller side"`
	Thickness int      `default:"2" help:"text stroke thickness"`
	BarHeight int      `arg:"--bar-height" help:"bar height for below-bar placement, 0 - by watermark"`
	Enhance   bool     `arg:"-e" help:"gamma correction and sharpening before stamping"`
	Denoise   bool     `help:"denoise before sharpening (with --enhance)"`
	Gamma     float64  `default:"1.2" help:"gamma for --enhance"`
	Format    string   `arg:"-f" help:"output format: png, jpg, mp4, avi, mov; empty - as source"`
	Workers   int      `arg:"-j" help:"files processed in parallel, 0 - number of CPUs"`
	LogLevel  string   `arg:"-l" default:"info" help:"log level (debug, info, warn, error)"`
}

func (Args) Description() string {
	return "Stamps a text or logo watermark onto images, videos and PDF files."
}

func main() {
	var args Args
	arg.MustParse(&args)

	zlog.InitConsole()
	if err := zlog.SetLevel(args.LogLevel); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = mwlogger.WithLogger(ctx, zlog.Logger.With().Str("component", "stamp").Logger())

	var logo image.Image
	if args.Type == model.MarkLogo {
		var err error
		if logo, err = batch.LoadLogo(args.Logo); err != nil {
			zlog.Logger.Fatal().Err(err).Str("logo", args.Logo).Msg("failed to load logo")
		}
	}

	if err := os.MkdirAll(args.Out, 0o755); err != nil {
		zlog.Logger.Fatal().Err(err).Str("out", args.Out).Msg("failed to create output folder")
	}

	workers := args.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	runner := batch.NewRunner(args.FontDir, cvstream.New(), workers)
	results := runner.Run(ctx, args.Files, args.Out, args.options(), logo)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		log.Fatalf("Failed to print results: %v", err)
	}

	for _, r := range results {
		if r.Err != "" {
			os.Exit(1)
		}
	}
}

func (a Args) options() model.WatermarkOptions {
	opacity := a.Opacity
	return model.WatermarkOptions{
		Type:         a.Type,
		Text:         a.Text,
		Font:         a.Font,
		FontColor:    a.Color,
		Position:     a.Position,
		Opacity:      &opacity,
		Scale:        a.Scale,
		Thickness:    a.Thickness,
		BarHeight:    a.BarHeight,
		Enhance:      a.Enhance,
		Denoise:      a.Denoise,
		Gamma:        a.Gamma,
		OutputFormat: a.Format,
	}
}
