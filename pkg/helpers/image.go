package helpers

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/disintegration/imaging"
)

var ErrUnsupportedImage = errors.New("unsupported image")

// ImageSpec describes how an uploaded image is normalized before storage.
// Fill crops to exactly Width x Height; otherwise the image is only shrunk to fit.
type ImageSpec struct {
	Width  int
	Height int
	Fill   bool
}

var (
	AvatarSpec = ImageSpec{Width: 512, Height: 512, Fill: true}
	CoverSpec  = ImageSpec{Width: 1920, Height: 1080}
)

const NormalizedImageType = "image/jpeg"

// NormalizeImage decodes r, applies s and re-encodes as JPEG.
func NormalizeImage(r io.Reader, s ImageSpec) (*bytes.Reader, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	if s.Fill {
		img = imaging.Fill(img, s.Width, s.Height, imaging.Center, imaging.Lanczos)
	} else {
		b := img.Bounds()
		if b.Dx() > s.Width || b.Dy() > s.Height {
			img = imaging.Fit(img, s.Width, s.Height, imaging.Lanczos)
		}
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, err
	}
	return bytes.NewReader(buf.Bytes()), nil
}
