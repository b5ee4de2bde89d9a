package bitmap

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/draw"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testColorImage(image.Rect(0, 0, w, h), color.Black)))
	return buf.Bytes()
}

func TestPipeline_FromResource(t *testing.T) {
	fsys := fstest.MapFS{
		"wide.png":   {Data: pngBytes(t, 1000, 100)},
		"narrow.png": {Data: pngBytes(t, 200, 100)},
		"odd.png":    {Data: pngBytes(t, 500, 50)},
		"empty.png":  {Data: []byte{}},
		"junk.png":   {Data: []byte("this is not an image")},
	}
	tests := []struct {
		name     string
		p        Pipeline
		file     string
		maxWidth int
		wantSize image.Point
		wantErr  error
	}{
		{"subsampled then fitted", Pipeline{}, "wide.png", 380, image.Pt(380, 38), nil},
		{"fitted without subsampling", Pipeline{}, "odd.png", 380, image.Pt(380, 38), nil},
		{"narrow untouched", Pipeline{}, "narrow.png", 380, image.Pt(200, 100), nil},
		{"no width limit", Pipeline{}, "wide.png", 0, image.Pt(1000, 100), nil},
		{"missing", Pipeline{}, "missing.png", 380, image.Point{}, ErrUnavailable},
		{"empty file", Pipeline{}, "empty.png", 380, image.Point{}, ErrUnavailable},
		{"not an image", Pipeline{}, "junk.png", 380, image.Point{}, ErrUnavailable},
		{"over budget", Pipeline{MaxPixels: 10000}, "wide.png", 380, image.Point{}, ErrExhausted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.p.FromResource(fsys, tt.file, tt.maxWidth)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSize, got.Bounds().Size())
		})
	}
}

func TestPipeline_FromResource_nilFS(t *testing.T) {
	var p Pipeline
	_, err := p.FromResource(nil, "x.png", 380)
	assert.ErrorIs(t, err, ErrUnavailable)
}

type fakeDrawable struct {
	size   image.Point
	opaque bool
	drawn  bool
}

func (f *fakeDrawable) Size() image.Point { return f.size }
func (f *fakeDrawable) Opaque() bool      { return f.opaque }
func (f *fakeDrawable) Draw(dst draw.Image) {
	f.drawn = true
	draw.Draw(dst, dst.Bounds(), image.Black, image.Point{}, draw.Src)
}

func TestPipeline_FromDrawable(t *testing.T) {
	tests := []struct {
		name     string
		p        Pipeline
		d        *fakeDrawable
		maxWidth int
		wantSize image.Point
		wantType any
		wantErr  error
	}{
		{"opaque is gray", Pipeline{}, &fakeDrawable{size: image.Pt(100, 20), opaque: true}, 380, image.Pt(100, 20), &image.Gray{}, nil},
		{"translucent keeps alpha", Pipeline{}, &fakeDrawable{size: image.Pt(100, 20)}, 380, image.Pt(100, 20), &image.NRGBA{}, nil},
		{"wide is fitted", Pipeline{}, &fakeDrawable{size: image.Pt(800, 10), opaque: true}, 380, image.Pt(380, 5), nil, nil},
		{"zero width", Pipeline{}, &fakeDrawable{size: image.Pt(0, 10)}, 380, image.Point{}, nil, ErrUnavailable},
		{"zero height", Pipeline{}, &fakeDrawable{size: image.Pt(10, 0)}, 380, image.Point{}, nil, ErrUnavailable},
		{"no intrinsic size", Pipeline{}, &fakeDrawable{size: image.Pt(-1, -1)}, 380, image.Point{}, nil, ErrUnavailable},
		{"over budget", Pipeline{MaxPixels: 50}, &fakeDrawable{size: image.Pt(10, 10)}, 380, image.Point{}, nil, ErrExhausted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.p.FromDrawable(tt.d, tt.maxWidth)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.False(t, tt.d.drawn)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.d.drawn)
			assert.Equal(t, tt.wantSize, got.Bounds().Size())
			if tt.wantType != nil {
				assert.IsType(t, tt.wantType, got)
			}
		})
	}
}

func TestPipeline_FromDrawable_nil(t *testing.T) {
	var p Pipeline
	_, err := p.FromDrawable(nil, 380)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestPipeline_FromBitmap(t *testing.T) {
	tests := []struct {
		name     string
		strict   bool
		size     image.Point
		maxWidth int
		wantSize image.Point
		wantErr  error
	}{
		{"narrow is enlarged to the width", false, image.Pt(100, 10), 380, image.Pt(380, 38), nil},
		{"exact width stays", false, image.Pt(380, 10), 380, image.Pt(380, 10), nil},
		{"wide is not scaled", false, image.Pt(1000, 100), 380, image.Pt(1000, 100), nil},
		{"zero width limit", false, image.Pt(100, 10), 0, image.Point{}, ErrUnavailable},
		{"negative width limit", false, image.Pt(100, 10), -380, image.Point{}, ErrUnavailable},
		{"empty bitmap", false, image.Pt(0, 10), 380, image.Point{}, ErrUnavailable},
		{"strict narrow stays", true, image.Pt(100, 10), 380, image.Pt(100, 10), nil},
		{"strict wide is fitted", true, image.Pt(1000, 100), 380, image.Pt(380, 38), nil},
		{"strict no limit", true, image.Pt(1000, 100), 0, image.Pt(1000, 100), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Pipeline{Strict: tt.strict}
			got, err := p.FromBitmap(image.NewGray(image.Rectangle{Max: tt.size}), tt.maxWidth)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSize, got.Bounds().Size())
		})
	}
}

func TestPipeline_FromBitmap_nil(t *testing.T) {
	var p Pipeline
	_, err := p.FromBitmap(nil, 380)
	assert.ErrorIs(t, err, ErrUnavailable)
}
