// Package cvstream reads and writes video files through OpenCV.
package cvstream

import (
	"errors"
	"fmt"
	"image"
	"image/draw"

	"github.com/UnendingLoop/WatermarkStamper/internal/video"
	"gocv.io/x/gocv"
)

// Backend - реализация video.Backend на VideoCapture/VideoWriter
type Backend struct{}

func New() Backend {
	return Backend{}
}

func (Backend) OpenSource(path string) (video.FrameSource, error) {
	vc, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("open video capture: %w", err)
	}
	if !vc.IsOpened() {
		_ = vc.Close()
		return nil, errors.New("video capture is not opened")
	}

	return &source{vc: vc, frame: gocv.NewMat()}, nil
}

func (Backend) CreateSink(path, codec string, fps float64, size image.Point) (video.FrameSink, error) {
	vw, err := gocv.VideoWriterFile(path, codec, fps, size.X, size.Y, true)
	if err != nil {
		return nil, fmt.Errorf("open video writer: %w", err)
	}
	if !vw.IsOpened() {
		_ = vw.Close()
		return nil, fmt.Errorf("video writer for codec %s is not opened", codec)
	}

	return &sink{vw: vw, size: size}, nil
}

type source struct {
	vc    *gocv.VideoCapture
	frame gocv.Mat
}

func (s *source) Read() (image.Image, bool, error) {
	if ok := s.vc.Read(&s.frame); !ok || s.frame.Empty() {
		return nil, false, nil
	}

	img, err := s.frame.ToImage()
	if err != nil {
		return nil, false, fmt.Errorf("convert frame to image: %w", err)
	}
	return img, true, nil
}

func (s *source) FPS() float64 {
	return s.vc.Get(gocv.VideoCaptureFPS)
}

func (s *source) Close() error {
	return errors.Join(s.frame.Close(), s.vc.Close())
}

type sink struct {
	vw   *gocv.VideoWriter
	size image.Point
}

// Write переводит кадр в BGR; кадры другого размера кодировщик молча пропустил бы, поэтому ошибка
func (s *sink) Write(frame image.Image) error {
	if frame.Bounds().Size() != s.size {
		return fmt.Errorf("frame %v does not match writer size %v", frame.Bounds().Size(), s.size)
	}

	bgr, err := toBGR(frame)
	if err != nil {
		return err
	}
	defer bgr.Close()

	return s.vw.Write(bgr)
}

func (s *sink) Close() error {
	return s.vw.Close()
}

func toBGR(img image.Image) (gocv.Mat, error) {
	b := img.Bounds()

	var pix []byte
	switch v := img.(type) {
	case *image.NRGBA:
		if v.Stride == 4*b.Dx() {
			pix = v.Pix
		}
	case *image.RGBA:
		if v.Stride == 4*b.Dx() {
			pix = v.Pix
		}
	}
	if pix == nil {
		rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Rect, img, b.Min, draw.Src)
		pix = rgba.Pix
	}

	mat, err := gocv.NewMatFromBytes(b.Dy(), b.Dx(), gocv.MatTypeCV8UC4, pix[:4*b.Dx()*b.Dy()])
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("wrap frame pixels: %w", err)
	}
	defer mat.Close()

	bgr := gocv.NewMat()
	gocv.CvtColor(mat, &bgr, gocv.ColorRGBAToBGR)
	return bgr, nil
}
