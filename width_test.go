package escprint

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsDoubleWidth(t *testing.T) {
	tests := []struct {
		name string
		r    rune
		want bool
	}{
		{"ascii letter", 'A', false},
		{"ascii space", ' ', false},
		{"latin-1", 'é', false},
		{"box drawing", '─', false},
		{"general punctuation lo", 0x2000, true},
		{"left double quote", '“', true},
		{"general punctuation hi", 0x206f, true},
		{"before general punctuation", 0x1fff, false},
		{"ideographic full stop", '。', true},
		{"cjk symbols hi", 0x303f, true},
		{"hiragana is not in the table", 'あ', false},
		{"extension a", 0x3400, true},
		{"extension a hi", 0x4dbf, true},
		{"unified ideograph", '中', true},
		{"unified ideograph hi", 0x9fff, true},
		{"compatibility ideograph", 0xf900, true},
		{"compatibility ideograph hi", 0xfaff, true},
		{"fullwidth comma", '，', true},
		{"halfwidth katakana", 'ｱ', true},
		{"halfwidth forms hi", 0xffef, true},
		{"after halfwidth forms", 0xfff0, false},
		{"extension b", 0x20000, true},
		{"extension b hi", 0x2a6df, true},
		{"after extension b", 0x2a6e0, false},
		{"hangul syllable", '한', false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDoubleWidth(tt.r))
		})
	}
}

func TestDisplayWidth(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"ascii", "Total", 5},
		{"price", "$10", 3},
		{"chinese", "合计", 4},
		{"mixed", "合计: 10元", 10},
		{"fullwidth punctuation", "，。", 4},
		{"extension b counts per code point", "\U00020000", 2},
		{"rule glyph", strings.Repeat("─", 16), 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayWidth(tt.text))
		})
	}
}

func TestDisplayWidth_printableASCII(t *testing.T) {
	var sb strings.Builder
	for r := rune(0x20); r < 0x7f; r++ {
		sb.WriteRune(r)
		assert.Equal(t, sb.Len(), DisplayWidth(sb.String()))
	}
}

func TestDisplayWidth_doubleWidthOnly(t *testing.T) {
	for _, rng := range doubleWidth.R16 {
		text := string([]rune{rune(rng.Lo), rune(rng.Lo + 1), rune(rng.Hi)})
		assert.Equal(t, 2*3, DisplayWidth(text), "range %04x-%04x", rng.Lo, rng.Hi)
	}
	for _, rng := range doubleWidth.R32 {
		text := string([]rune{rune(rng.Lo), rune(rng.Hi)})
		assert.Equal(t, 2*2, DisplayWidth(text), "range %05x-%05x", rng.Lo, rng.Hi)
	}
}
