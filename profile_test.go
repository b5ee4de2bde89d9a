package escprint

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfile_LineCharWidth(t *testing.T) {
	p58 := Profile{Rule: 16, Chars: []int{31, 15}, ImageWidth: 380}
	tests := []struct {
		name     string
		p        Profile
		fontSize int
		want     int
	}{
		{"normal", p58, 0, 31},
		{"double", p58, 1, 15},
		{"outside of table", p58, 2, 31},
		{"negative", p58, -1, 31},
		{"empty table", Profile{}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.p.LineCharWidth(tt.fontSize))
		})
	}
}

func TestAllProfiles(t *testing.T) {
	pp, err := AllProfiles()
	require.NoError(t, err)
	assert.Equal(t, []Profile{
		{Name: "58mm", Description: "58 mm roll", Rule: 16, Chars: []int{31, 15}, ImageWidth: 380},
		{Name: "80mm", Description: "80 mm roll", Rule: 24, Chars: []int{47, 23}, ImageWidth: 500},
	}, pp)
}

func TestProfileByName(t *testing.T) {
	p, err := ProfileByName("80mm")
	require.NoError(t, err)
	assert.Equal(t, 24, p.LineWidth())
	assert.Equal(t, 47, p.LineCharWidth(0))
	assert.Equal(t, 23, p.LineCharWidth(1))
	assert.Equal(t, 500, p.ImageMaxWidth())

	_, err = ProfileByName("110mm")
	assert.ErrorIs(t, err, ErrProfileNotFound)

	assert.Equal(t, "58mm", DefaultProfile.Name)
}

func TestReadProfiles(t *testing.T) {
	tests := []struct {
		name    string
		csv     string
		want    []string
		wantErr bool
	}{
		{
			name: "columns in any order",
			csv:  "chars,name,image_width,rule\n\"42 21 10\",76mm,440,20\n",
			want: []string{"76mm"},
		},
		{
			name:    "bad rule",
			csv:     "name,rule,chars,image_width\nx,zero,31,380\n",
			wantErr: true,
		},
		{
			name:    "no chars",
			csv:     "name,rule,chars,image_width\nx,16,,380\n",
			wantErr: true,
		},
		{
			name:    "zero width",
			csv:     "name,rule,chars,image_width\nx,16,31,0\n",
			wantErr: true,
		},
		{
			name:    "no name",
			csv:     "name,rule,chars,image_width\n,16,31,380\n",
			wantErr: true,
		},
		{
			name:    "empty",
			csv:     "",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			err := readProfiles(strings.NewReader(tt.csv), func(p Profile) error {
				got = append(got, p.Name)
				return nil
			})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
