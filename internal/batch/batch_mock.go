package batch

import (
	"image"
	"image/color"
	"os"

	"github.com/UnendingLoop/WatermarkStamper/internal/video"
	"github.com/disintegration/imaging"
)

// MOCK VIDEO BACKEND

type mockBackend struct {
	frames  int
	openErr error
}

func (m *mockBackend) OpenSource(path string) (video.FrameSource, error) {
	if m.openErr != nil {
		return nil, m.openErr
	}
	return &mockSource{left: m.frames}, nil
}

func (m *mockBackend) CreateSink(path, codec string, fps float64, size image.Point) (video.FrameSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &mockSink{f: f}, nil
}

type mockSource struct {
	left int
}

func (m *mockSource) Read() (image.Image, bool, error) {
	if m.left == 0 {
		return nil, false, nil
	}
	m.left--
	return imaging.New(64, 48, color.NRGBA{R: 90, G: 90, B: 90, A: 255}), true, nil
}

func (m *mockSource) FPS() float64 { return 24 }
func (m *mockSource) Close() error { return nil }

type mockSink struct {
	f *os.File
}

func (m *mockSink) Write(frame image.Image) error {
	_, err := m.f.Write([]byte{0})
	return err
}

func (m *mockSink) Close() error { return m.f.Close() }
