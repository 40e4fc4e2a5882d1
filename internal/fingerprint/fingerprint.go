// Package fingerprint computes deterministic content fingerprints over
// decoded pixel data. Hashing decoded pixels rather than file bytes means a
// re-encoded or re-containered copy of an image keeps its fingerprint, while
// any pixel-level change produces a new one.
package fingerprint

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"image"

	// Registered decoders. Content arrives in whatever container the user
	// had; all of these normalize to the same pixel buffer before hashing.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/pixelproof/pixelproof/internal/common"
	"github.com/pixelproof/pixelproof/internal/model"
)

// Decode parses content bytes into an image. Undecodable content fails with
// common.ErrDecode.
func Decode(content []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDecode, err)
	}
	return img, nil
}

// FromImage computes the fingerprint of an already-decoded image: SHA-256
// over the canonical pixel buffer (8-bit RGB, row-major, no alpha). Pure
// function of the pixel data.
func FromImage(img image.Image) model.Fingerprint {
	h := sha256.New()
	bounds := img.Bounds()

	row := make([]byte, 0, bounds.Dx()*3)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		row = row[:0]
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			// RGBA returns 16-bit channels; the canonical layout is 8-bit.
			row = append(row, byte(r>>8), byte(g>>8), byte(b>>8))
		}
		h.Write(row)
	}

	var fp model.Fingerprint
	copy(fp[:], h.Sum(nil))
	return fp
}

// Compute decodes content and fingerprints it in one step.
func Compute(content []byte) (model.Fingerprint, error) {
	img, err := Decode(content)
	if err != nil {
		return model.Fingerprint{}, err
	}
	return FromImage(img), nil
}
