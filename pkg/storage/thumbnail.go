package storage

import (
	"bytes"
	"io"

	"github.com/disintegration/imaging"
)

// ThumbnailWidth is the width thumbnails are resized to; height keeps the aspect ratio
const ThumbnailWidth = 320

// MakeThumbnail decodes an image and re-encodes it as a JPEG ThumbnailWidth pixels wide
func MakeThumbnail(r io.Reader) ([]byte, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	if img.Bounds().Dx() > ThumbnailWidth {
		img = imaging.Resize(img, ThumbnailWidth, 0, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
