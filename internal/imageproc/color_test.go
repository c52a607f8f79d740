package imageproc

import (
	"testing"

	"github.com/UnendingLoop/WatermarkStamper/internal/model"
	"github.com/stretchr/testify/require"
)

func TestResolveColor(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    BGR
		wantErr bool
	}{
		{name: "hex with hash", input: "#123456", want: BGR{B: 0x56, G: 0x34, R: 0x12}},
		{name: "hex without hash", input: "00ff00", want: BGR{G: 255}},
		{name: "upper case hex", input: "#FFAA00", want: BGR{B: 0, G: 0xaa, R: 0xff}},
		{name: "named red", input: "red", want: BGR{R: 255}},
		{name: "named with spaces and case", input: "  Magenta ", want: BGR{B: 255, R: 255}},
		{name: "named white", input: "white", want: BGR{B: 255, G: 255, R: 255}},
		{name: "five digits", input: "#12345", wantErr: true},
		{name: "seven digits", input: "#1234567", wantErr: true},
		{name: "not hex", input: "#12345g", wantErr: true},
		{name: "unknown name", input: "notacolor", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveColor(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, model.ErrInvalidColorFormat)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestResolveColor_HexEqualsName(t *testing.T) {
	pairs := map[string]string{
		"#FF0000": "red",
		"#00FF00": "green",
		"#0000FF": "blue",
		"#000000": "black",
		"#FFFFFF": "white",
		"#FFFF00": "yellow",
		"#00FFFF": "cyan",
		"#FF00FF": "magenta",
	}

	for hex, name := range pairs {
		byHex, err := ResolveColor(hex)
		require.NoError(t, err)
		byName, err := ResolveColor(name)
		require.NoError(t, err)
		require.Equal(t, byName, byHex, "%s vs %s", hex, name)
	}
}

func TestBGR_NRGBA(t *testing.T) {
	c := BGR{B: 1, G: 2, R: 3}.NRGBA()
	require.Equal(t, uint8(3), c.R)
	require.Equal(t, uint8(2), c.G)
	require.Equal(t, uint8(1), c.B)
	require.Equal(t, uint8(255), c.A)
}
