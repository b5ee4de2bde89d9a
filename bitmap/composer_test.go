package bitmap

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposer_Append(t *testing.T) {
	src := testColorImage(image.Rect(0, 0, 2, 2), color.White)
	type fields struct {
		dst  *image.RGBA
		sp   image.Point
		crop bool
	}
	tests := []struct {
		name      string
		fields    fields
		img       image.Image
		wantImage image.Image
	}{
		{
			name: "appends image to initial image",
			fields: fields{
				dst: image.NewRGBA(image.Rect(0, 0, 2, 0)),
			},
			img:       src,
			wantImage: src,
		},
		{
			name: "appends image to existing one",
			fields: fields{
				dst: testColorImage(src.Bounds(), color.White),
				sp:  image.Point{0, src.Bounds().Dy()},
			},
			img: testColorImage(src.Bounds(), color.Black),
			wantImage: &image.RGBA{
				Pix: []uint8{
					0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
					0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
					0x0, 0x0, 0x0, 0xff, 0x0, 0x0, 0x0, 0xff,
					0x0, 0x0, 0x0, 0xff, 0x0, 0x0, 0x0, 0xff,
				},
				Stride: 8,
				Rect:   image.Rect(0, 0, 2, 4),
			},
		},
		{
			name: "crops wide image",
			fields: fields{
				dst:  image.NewRGBA(image.Rect(0, 0, 1, 0)),
				crop: true,
			},
			img: testColorImage(image.Rect(0, 0, 2, 1), color.Black),
			wantImage: &image.RGBA{
				Pix:    []uint8{0x0, 0x0, 0x0, 0xff},
				Stride: 4,
				Rect:   image.Rect(0, 0, 1, 1),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Composer{
				dst:      tt.fields.dst,
				sp:       tt.fields.sp,
				crop:     tt.fields.crop,
				pipeline: new(Pipeline),
			}
			require.NoError(t, c.Append(tt.img))
			assert.Equal(t, tt.wantImage, c.dst)
		})
	}
}

func TestComposer_scalesWidePages(t *testing.T) {
	c := NewComposer(100)
	require.NoError(t, c.Append(testColorImage(image.Rect(0, 0, 400, 200), color.Black)))
	require.NoError(t, c.Append(testColorImage(image.Rect(0, 0, 50, 10), color.Black)))
	require.NoError(t, c.Append(nil))
	assert.Equal(t, image.Rect(0, 0, 100, 60), c.Bounds())
	// right half of the narrow page stays paper
	assert.Equal(t, uint8(255), ColorToGray(c.Image().At(75, 55)))
	assert.Equal(t, uint8(0), ColorToGray(c.Image().At(25, 55)))
}

func TestComposer_budget(t *testing.T) {
	c := NewComposer(10, WithComposerPipeline(&Pipeline{MaxPixels: 10}))
	err := c.Append(image.NewGray(image.Rect(0, 0, 100, 100)))
	assert.ErrorIs(t, err, ErrExhausted)
}
