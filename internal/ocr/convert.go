package ocr

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	"image/png"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
)

// toPNG normalizes any supported upload (PDF, HEIC/HEIF, JPEG, PNG,
// GIF) into PNG bytes so every backend sees one input format.
func toPNG(data []byte, contentType string) ([]byte, error) {
	mime := strings.ToLower(strings.TrimSpace(contentType))

	if mime == "application/pdf" {
		return renderPDF(data)
	}
	if mime == "image/png" && !sniffHEIC(data) {
		return data, nil
	}

	var img image.Image
	var err error
	if sniffHEIC(data) || strings.Contains(mime, "heic") || strings.Contains(mime, "heif") {
		img, err = heic.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC image: %w", err)
		}
	} else {
		img, _, err = image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding image: %w", err)
		}
	}

	return encodePNG(img)
}

// renderPDF rasterizes the first page. Receipts are single page in
// practice; anything past page one is ignored.
func renderPDF(data []byte) ([]byte, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("rendering PDF page: %w", err)
	}
	return encodePNG(img)
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// sniffHEIC checks for an ISO BMFF ftyp box with a HEIC/HEIF brand.
// Phones routinely upload HEIC with a generic or wrong content type.
func sniffHEIC(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heif", "mif1", "msf1":
		return true
	}
	return false
}

// stripFences removes a markdown code fence an LLM backend may wrap the
// transcript in despite the prompt.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```text")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
