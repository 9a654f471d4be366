package label

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/parttrack/internal/parts"
)

func TestPNGRenderer_Render(t *testing.T) {
	r := NewPNGRenderer()

	var buf bytes.Buffer
	err := r.Render(&buf, parts.Part{Number: "ANT00042", Kind: parts.KindAntenna, Serial: 42})
	require.NoError(t, err)

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, r.Width, img.Bounds().Dx())
	assert.Equal(t, r.Height, img.Bounds().Dy())

	// Corner is background, border is ink.
	cr, _, _, _ := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(0xffff), cr)
	br, _, _, _ := img.At(4, r.Height/2).RGBA()
	assert.Less(t, br, uint32(0x8000))
}

func TestPNGRenderer_EmptyPart(t *testing.T) {
	var buf bytes.Buffer
	err := NewPNGRenderer().Render(&buf, parts.Part{})
	assert.Error(t, err)
}

func TestRenderFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "labels")

	path, err := RenderFile(NewPNGRenderer(), dir, parts.Part{Number: "SNAP00001", Kind: parts.KindSNAP, Serial: 1})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "SNAP00001.png"), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	_, err = png.Decode(f)
	assert.NoError(t, err)
}
