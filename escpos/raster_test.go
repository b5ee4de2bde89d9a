package escpos

import (
	"image"
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func whiteGray(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	return img
}

func TestEncoder_DecodeBitmap(t *testing.T) {
	dots := whiteGray(10, 2)
	dots.SetGray(0, 0, color.Gray{})
	dots.SetGray(9, 1, color.Gray{})

	offset := image.NewGray(image.Rect(100, 50, 108, 51))

	clear := image.NewNRGBA(image.Rect(0, 0, 8, 1))

	tests := []struct {
		name string
		e    Encoder
		img  image.Image
		want []byte
	}{
		{
			name: "nil",
			img:  nil,
			want: nil,
		},
		{
			name: "empty",
			img:  image.NewGray(image.Rect(0, 0, 0, 5)),
			want: nil,
		},
		{
			name: "one black byte",
			img:  image.NewGray(image.Rect(0, 0, 8, 1)),
			want: []byte{0x1d, 0x76, 0x30, 0x00, 0x01, 0x00, 0x01, 0x00, 0xff},
		},
		{
			name: "rows are padded to bytes, msb first",
			img:  dots,
			want: []byte{
				0x1d, 0x76, 0x30, 0x00, 0x02, 0x00, 0x02, 0x00,
				0x80, 0x00,
				0x00, 0x40,
			},
		},
		{
			name: "bounds offset",
			img:  offset,
			want: []byte{0x1d, 0x76, 0x30, 0x00, 0x01, 0x00, 0x01, 0x00, 0xff},
		},
		{
			name: "transparent is paper",
			img:  clear,
			want: []byte{0x1d, 0x76, 0x30, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00},
		},
		{
			name: "banded",
			e:    Encoder{BandHeight: 1},
			img:  dots,
			want: []byte{
				0x1d, 0x76, 0x30, 0x00, 0x02, 0x00, 0x01, 0x00,
				0x80, 0x00,
				0x1d, 0x76, 0x30, 0x00, 0x02, 0x00, 0x01, 0x00,
				0x00, 0x40,
			},
		},
		{
			name: "band taller than image",
			e:    Encoder{BandHeight: 24},
			img:  dots,
			want: []byte{
				0x1d, 0x76, 0x30, 0x00, 0x02, 0x00, 0x02, 0x00,
				0x80, 0x00,
				0x00, 0x40,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.e.DecodeBitmap(tt.img)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("DecodeBitmap() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEncoder_DecodeBitmap_header(t *testing.T) {
	var e Encoder
	got := e.DecodeBitmap(whiteGray(380, 300))
	assert.Equal(t, []byte{0x1d, 0x76, 0x30, 0x00, 48, 0, 0x2c, 0x01}, got[:rasterHeaderSz])
	assert.Len(t, got, rasterHeaderSz+48*300)
}

func TestEncoder_DecodeBitmap_lastBand(t *testing.T) {
	e := Encoder{BandHeight: 24}
	got := e.DecodeBitmap(whiteGray(8, 50))
	// 24 + 24 + 2
	assert.Len(t, got, 3*rasterHeaderSz+50)
	last := got[2*(rasterHeaderSz+24):]
	assert.Equal(t, []byte{0x1d, 0x76, 0x30, 0x00, 0x01, 0x00, 0x02, 0x00}, last[:rasterHeaderSz])
}

func TestEncoder_DecodeBitmap_tooTall(t *testing.T) {
	var e Encoder
	assert.Nil(t, e.DecodeBitmap(image.NewGray(image.Rect(0, 0, 1, 1<<16))))
}
