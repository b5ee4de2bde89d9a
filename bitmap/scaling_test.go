package bitmap

import (
	"image"
	"image/color"
	"image/draw"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fillColor(dst *image.RGBA, rect image.Rectangle, col color.Color) *image.RGBA {
	draw.Draw(dst, rect, image.NewUniform(col), rect.Min, draw.Src)
	return dst
}

func testColorImage(rect image.Rectangle, col color.Color) *image.RGBA {
	m := image.NewRGBA(rect)
	fillColor(m, m.Bounds(), col)
	return m
}

func TestResizeCanvasY(t *testing.T) {
	type args struct {
		dst       *image.RGBA
		newHeight int
	}
	tests := []struct {
		name string
		args args
		want *image.RGBA
	}{
		{
			name: "resizes canvas",
			args: args{
				dst:       image.NewRGBA(image.Rect(0, 0, 2, 1)),
				newHeight: 2,
			},
			want: fillColor(image.NewRGBA(image.Rect(0, 0, 2, 2)), image.Rect(0, 1, 2, 2), color.White),
		},
		{
			name: "does not shrink",
			args: args{
				dst:       testColorImage(image.Rect(0, 0, 2, 2), color.Black),
				newHeight: 1,
			},
			want: testColorImage(image.Rect(0, 0, 2, 2), color.Black),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResizeCanvasY(tt.args.dst, tt.args.newHeight); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ResizeCanvasY() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPipeline_ScaleBy(t *testing.T) {
	tests := []struct {
		name     string
		p        Pipeline
		size     image.Point
		scale    float64
		wantSize image.Point
		wantErr  error
	}{
		{"half", Pipeline{}, image.Pt(100, 50), 0.5, image.Pt(50, 25), nil},
		{"rounds to nearest", Pipeline{}, image.Pt(3, 3), 0.5, image.Pt(2, 2), nil},
		{"enlarges", Pipeline{}, image.Pt(100, 10), 3.8, image.Pt(380, 38), nil},
		{"identity", Pipeline{}, image.Pt(7, 5), 1, image.Pt(7, 5), nil},
		{"zero scale", Pipeline{}, image.Pt(10, 10), 0, image.Point{}, ErrUnavailable},
		{"negative scale", Pipeline{}, image.Pt(10, 10), -1, image.Point{}, ErrUnavailable},
		{"height rounds to zero", Pipeline{}, image.Pt(1000, 1), 0.1, image.Point{}, ErrUnavailable},
		{"over budget", Pipeline{MaxPixels: 100}, image.Pt(10, 10), 2, image.Point{}, ErrExhausted},
		{"within budget", Pipeline{MaxPixels: 400}, image.Pt(10, 10), 2, image.Pt(20, 20), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := image.NewGray(image.Rectangle{Max: tt.size})
			got, err := tt.p.ScaleBy(img, tt.scale)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSize, got.Bounds().Size())
		})
	}
}

func TestPipeline_FitWidth(t *testing.T) {
	tests := []struct {
		name     string
		size     image.Point
		maxWidth int
		wantSize image.Point
		wantSame bool
	}{
		{"narrower passes through", image.Pt(200, 100), 380, image.Pt(200, 100), true},
		{"exact passes through", image.Pt(380, 100), 380, image.Pt(380, 100), true},
		{"no limit", image.Pt(2000, 100), 0, image.Pt(2000, 100), true},
		{"negative limit", image.Pt(2000, 100), -5, image.Pt(2000, 100), true},
		{"wider is scaled down", image.Pt(1000, 500), 380, image.Pt(380, 190), false},
		{"aspect rounding", image.Pt(500, 3), 380, image.Pt(380, 2), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Pipeline
			img := image.NewGray(image.Rectangle{Max: tt.size})
			got, err := p.FitWidth(img, tt.maxWidth)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSize, got.Bounds().Size())
			if tt.wantSame {
				assert.Same(t, img, got)
			}
		})
	}
}

func TestSubsampleFactor(t *testing.T) {
	tests := []struct {
		w, maxWidth int
		want        int
	}{
		{4000, 380, 10},
		{1000, 380, 2},
		{760, 380, 2},
		{759, 380, 1},
		{381, 380, 1},
		{380, 380, 1},
		{100, 380, 1},
		{1000, 0, 1},
		{1000, -1, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SubsampleFactor(tt.w, tt.maxWidth), "w=%d max=%d", tt.w, tt.maxWidth)
	}
}

func TestSubsample(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 1001, 501))
	assert.Equal(t, image.Pt(501, 251), Subsample(img, 2).Bounds().Size())
	assert.Equal(t, image.Pt(101, 51), Subsample(img, 10).Bounds().Size())
	assert.Same(t, img, Subsample(img, 1))
}

func TestSubsample_keepsSolidColour(t *testing.T) {
	img := testColorImage(image.Rect(0, 0, 64, 64), color.Black)
	got := Subsample(img, 4)
	b := got.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			assert.Equal(t, uint8(0), ColorToGray(got.At(x, y)))
		}
	}
}
