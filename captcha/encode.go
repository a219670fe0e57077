package captcha

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"io"
)

// WritePNG encodes img as PNG.
func WritePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("%w: encode png: %v", ErrRendering, err)
	}
	return nil
}

// DataURI returns img as a base64 PNG data URI suitable for an <img> src.
func DataURI(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := WritePNG(&buf, img); err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
