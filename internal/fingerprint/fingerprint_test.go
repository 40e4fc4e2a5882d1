package fingerprint

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/pixelproof/pixelproof/internal/common"
)

func testPattern(t *testing.T) *image.RGBA {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 24, 18))
	for y := 0; y < 18; y++ {
		for x := 0; x < 24; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 10), G: uint8(y * 14), B: uint8(x + y), A: 255})
		}
	}
	return img
}

func TestCompute_FormatIndependent(t *testing.T) {
	img := testPattern(t)

	// Lossless containers only: identical pixels must mean identical
	// fingerprints regardless of encoding.
	var asPNG, asBMP, asTIFF bytes.Buffer
	require.NoError(t, png.Encode(&asPNG, img))
	require.NoError(t, bmp.Encode(&asBMP, img))
	require.NoError(t, tiff.Encode(&asTIFF, img, nil))

	fromPNG, err := Compute(asPNG.Bytes())
	require.NoError(t, err)
	fromBMP, err := Compute(asBMP.Bytes())
	require.NoError(t, err)
	fromTIFF, err := Compute(asTIFF.Bytes())
	require.NoError(t, err)

	assert.Equal(t, fromPNG, fromBMP)
	assert.Equal(t, fromPNG, fromTIFF)
	assert.False(t, fromPNG.IsZero())
}

func TestCompute_SinglePixelChangesFingerprint(t *testing.T) {
	base := testPattern(t)
	modified := testPattern(t)
	modified.Set(11, 7, color.RGBA{R: 1, G: 2, B: 3, A: 255})

	var baseBuf, modifiedBuf bytes.Buffer
	require.NoError(t, png.Encode(&baseBuf, base))
	require.NoError(t, png.Encode(&modifiedBuf, modified))

	fpBase, err := Compute(baseBuf.Bytes())
	require.NoError(t, err)
	fpModified, err := Compute(modifiedBuf.Bytes())
	require.NoError(t, err)

	assert.NotEqual(t, fpBase, fpModified)
}

func TestFromImage_ColorModelIndependent(t *testing.T) {
	// Same pixels held in different in-memory color models must hash the
	// same once normalized to the canonical RGB layout.
	rgba := testPattern(t)
	nrgba := image.NewNRGBA(rgba.Bounds())
	for y := 0; y < 18; y++ {
		for x := 0; x < 24; x++ {
			c := rgba.RGBAAt(x, y)
			nrgba.SetNRGBA(x, y, color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255})
		}
	}

	assert.Equal(t, FromImage(rgba), FromImage(nrgba))
}

func TestDecode_RejectsNonImages(t *testing.T) {
	_, err := Decode([]byte("definitely not an image"))
	require.ErrorIs(t, err, common.ErrDecode)

	_, err = Compute(nil)
	require.ErrorIs(t, err, common.ErrDecode)
}

func TestFromImage_Deterministic(t *testing.T) {
	img := testPattern(t)
	assert.Equal(t, FromImage(img), FromImage(img))
}
