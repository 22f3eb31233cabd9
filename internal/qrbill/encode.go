package qrbill

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
)

// DefaultImageSize is the edge length in pixels used when no size is given.
const DefaultImageSize = 552

var ErrImageTooSmall = errors.New("qr image size too small")

// EncodeImage renders payload as a QR code (error correction M) of size×size
// pixels with the Swiss cross in the middle.
func EncodeImage(payload string, size int) (image.Image, error) {
	if size <= 0 {
		size = DefaultImageSize
	}
	code, err := qr.Encode(payload, qr.M, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	if size < code.Bounds().Dx() {
		return nil, fmt.Errorf("%d px for %d modules: %w", size, code.Bounds().Dx(), ErrImageTooSmall)
	}
	code, err = barcode.Scale(code, size, size)
	if err != nil {
		return nil, fmt.Errorf("scale qr: %w", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), code, code.Bounds().Min, draw.Src)
	drawSwissCross(img)
	return img, nil
}

// EncodePNG is EncodeImage followed by PNG encoding.
func EncodePNG(payload string, size int) ([]byte, error) {
	img, err := EncodeImage(payload, size)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("png: %w", err)
	}
	return buf.Bytes(), nil
}

// drawSwissCross paints the 7 mm cross of a 46 mm code: a black square with a
// white margin holding a white cross.
func drawSwissCross(img *image.RGBA) {
	size := img.Bounds().Dx()
	edge := size * 7 / 46
	margin := edge / 14
	if margin < 1 {
		margin = 1
	}
	c := size / 2
	square := func(half int) image.Rectangle {
		return image.Rect(c-half, c-half, c+half, c+half)
	}
	fill := func(r image.Rectangle, col color.Color) {
		draw.Draw(img, r, &image.Uniform{C: col}, image.Point{}, draw.Src)
	}

	fill(square(edge/2+margin), color.White)
	fill(square(edge/2), color.Black)

	arm := edge * 10 / 32
	bar := edge * 3 / 32
	fill(image.Rect(c-bar, c-arm, c+bar, c+arm), color.White)
	fill(image.Rect(c-arm, c-bar, c+arm, c+bar), color.White)
}
