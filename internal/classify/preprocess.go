package classify

import (
	"image"

	"golang.org/x/image/draw"
)

// Model input geometry: a fixed square RGB tensor with values in [0, 1],
// matching the scorer's training resolution.
const (
	InputSize     = 299
	InputChannels = 3
)

// Tensor is a dense float32 image in HWC layout, normalized to [0, 1].
type Tensor struct {
	Data     []float32
	Width    int
	Height   int
	Channels int
}

// Preprocess converts a decoded image into the scorer's fixed input shape:
// bilinear-resampled to InputSize x InputSize, alpha dropped, channels
// scaled from 8-bit to [0, 1].
func Preprocess(img image.Image) Tensor {
	scaled := image.NewRGBA(image.Rect(0, 0, InputSize, InputSize))
	draw.BiLinear.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Src, nil)

	data := make([]float32, InputSize*InputSize*InputChannels)
	i := 0
	for y := 0; y < InputSize; y++ {
		row := scaled.Pix[y*scaled.Stride : y*scaled.Stride+InputSize*4]
		for x := 0; x < InputSize; x++ {
			data[i] = float32(row[x*4]) / 255
			data[i+1] = float32(row[x*4+1]) / 255
			data[i+2] = float32(row[x*4+2]) / 255
			i += InputChannels
		}
	}

	return Tensor{
		Data:     data,
		Width:    InputSize,
		Height:   InputSize,
		Channels: InputChannels,
	}
}
