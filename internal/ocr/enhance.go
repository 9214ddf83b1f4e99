package ocr

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

// enhanceForOCR sharpens a receipt photo for text recognition:
// grayscale for contrast, then contrast, sharpen, brightness and gamma
// passes. The output is PNG.
func enhanceForOCR(pngData []byte) ([]byte, error) {
	src, err := imaging.Decode(bytes.NewReader(pngData))
	if err != nil {
		return nil, fmt.Errorf("decoding image for enhancement: %w", err)
	}

	img := imaging.Grayscale(src)
	img = imaging.AdjustContrast(img, 30)
	img = imaging.Sharpen(img, 1.5)
	img = imaging.AdjustBrightness(img, 10)
	img = imaging.AdjustGamma(img, 1.2)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encoding enhanced image: %w", err)
	}
	return buf.Bytes(), nil
}
