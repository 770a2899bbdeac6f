package localmedia

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	// Decoders for the formats facility phones upload.
	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Downscale decodes data and re-encodes it as JPEG with its longest side at
// most maxSide pixels. Images already within bounds are only re-encoded.
func Downscale(data []byte, maxSide int) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if maxSide <= 0 {
		maxSide = 512
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("empty image")
	}

	dst := image.Image(src)
	if w > maxSide || h > maxSide {
		nw, nh := maxSide, maxSide
		if w >= h {
			nh = max(1, h*maxSide/w)
		} else {
			nw = max(1, w*maxSide/h)
		}
		rgba := image.NewRGBA(image.Rect(0, 0, nw, nh))
		draw.CatmullRom.Scale(rgba, rgba.Bounds(), src, b, draw.Over, nil)
		dst = rgba
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, dst, &jpeg.Options{Quality: 80}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return out.Bytes(), nil
}
