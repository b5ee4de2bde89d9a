package cmdinfo

import (
	"bytes"
	"context"
	"testing"
	"testing/fstest"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rusq/escprint"
	"github.com/rusq/escprint/fontmgr"
)

func init() {
	pterm.DisableStyling()
}

func TestPrintProfiles(t *testing.T) {
	pp, err := escprint.AllProfiles()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, printProfiles(&buf, pp))
	out := buf.String()
	assert.Contains(t, out, "58mm *")
	assert.Contains(t, out, "80mm")
	assert.Contains(t, out, "31/15")
	assert.Contains(t, out, "380")
}

func TestCollectFonts(t *testing.T) {
	fsys := fstest.MapFS{
		fontmgr.CatalogueFile: {Data: []byte("name,file,dimx,dimy\n" +
			"tiny,tiny.fnt,8,8\n" +
			"broken,broken.fnt,8,0\n")},
	}
	ff, err := collectFonts(context.Background(), fsys)
	require.NoError(t, err)

	var names []string
	for _, f := range ff {
		names = append(names, f.Name)
	}
	assert.Contains(t, names, "keyrus16")
	assert.Contains(t, names, "tiny")
	assert.NotContains(t, names, "broken")

	var buf bytes.Buffer
	require.NoError(t, printFonts(&buf, ff))
	assert.Contains(t, buf.String(), "tiny.fnt")
	assert.Contains(t, buf.String(), "built-in")
	assert.Contains(t, buf.String(), "8x8")
}

func TestCollectFonts_noCatalogue(t *testing.T) {
	_, err := collectFonts(context.Background(), fstest.MapFS{})
	assert.Error(t, err)
}
