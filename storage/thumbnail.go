package storage

import (
	"bytes"
	"path"

	"github.com/disintegration/imaging"
)

// MakeThumbnail renders a 200px-wide JPEG preview of an uploaded image.
// Best-effort: callers ignore failures (PDFs and corrupt images have no preview).
func MakeThumbnail(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	thumbnail := imaging.Resize(img, 200, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumbnail, imaging.JPEG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func ThumbnailKey(objectKey string) string {
	dir := path.Dir(objectKey)
	filename := path.Base(objectKey)
	return path.Join(dir, "thumbnails", filename)
}
