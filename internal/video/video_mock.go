package video

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"os"
)

var errMockDecode = errors.New("mock decode error")

// MOCK BACKEND

type mockBackend struct {
	openFn   func(path string) (FrameSource, error)
	createFn func(path, codec string, fps float64, size image.Point) (FrameSink, error)
}

func (m *mockBackend) OpenSource(path string) (FrameSource, error) {
	return m.openFn(path)
}

func (m *mockBackend) CreateSink(path, codec string, fps float64, size image.Point) (FrameSink, error) {
	return m.createFn(path, codec, fps, size)
}

//----------------------------------

// movingSquare - n кадров w x h, по серому фону едет черный квадрат
type movingSquare struct {
	w, h, n int
	next    int
	fps     float64
	failAt  int // номер кадра, на котором Read вернет ошибку; < 0 - никогда
	closed  bool
}

func newMovingSquare(w, h, n int) *movingSquare {
	return &movingSquare{w: w, h: h, n: n, fps: 30, failAt: -1}
}

func (m *movingSquare) Read() (image.Image, bool, error) {
	if m.next == m.failAt {
		return nil, false, errMockDecode
	}
	if m.next >= m.n {
		return nil, false, nil
	}

	img := image.NewNRGBA(image.Rect(0, 0, m.w, m.h))
	draw.Draw(img, img.Rect, image.NewUniform(color.NRGBA{R: 128, G: 128, B: 128, A: 255}), image.Point{}, draw.Src)
	sq := image.Rect(m.next*4, 10, m.next*4+12, 22)
	draw.Draw(img, sq, image.NewUniform(color.NRGBA{A: 255}), image.Point{}, draw.Src)

	m.next++
	return img, true, nil
}

func (m *movingSquare) FPS() float64 { return m.fps }

func (m *movingSquare) Close() error {
	m.closed = true
	return nil
}

//----------------------------------

// recordingSink копит кадры в памяти; файл на диске создается, чтобы было что удалять
type recordingSink struct {
	path    string
	codec   string
	fps     float64
	size    image.Point
	frames  []*image.NRGBA
	writeFn func(n int) error
	closed  bool
}

func newRecordingSink(path, codec string, fps float64, size image.Point) (*recordingSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	_ = f.Close()
	return &recordingSink{path: path, codec: codec, fps: fps, size: size}, nil
}

func (r *recordingSink) Write(frame image.Image) error {
	if r.writeFn != nil {
		if err := r.writeFn(len(r.frames)); err != nil {
			return err
		}
	}
	nrgba, ok := frame.(*image.NRGBA)
	if !ok {
		nrgba = image.NewNRGBA(frame.Bounds())
		draw.Draw(nrgba, nrgba.Rect, frame, frame.Bounds().Min, draw.Src)
	}
	r.frames = append(r.frames, nrgba)
	return nil
}

func (r *recordingSink) Close() error {
	r.closed = true
	return nil
}

//----------------------------------

type mockStamper struct {
	stampFn func(img image.Image) (*image.NRGBA, error)
}

func (m *mockStamper) Stamp(img image.Image) (*image.NRGBA, error) {
	return m.stampFn(img)
}
