package ocr

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/services/cognitiveservices/v3.0/computervision"
	"github.com/Azure/go-autorest/autorest"
)

// Azure implements the Engine interface using the Azure Computer
// Vision printed-text OCR API.
type Azure struct {
	client *computervision.BaseClient
}

// NewAzure creates a new Azure Engine instance
func NewAzure(endpoint, apiKey string) (*Azure, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("azure endpoint is required")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("azure api key is required")
	}

	client := computervision.New(endpoint)
	client.Authorizer = autorest.NewCognitiveServicesAuthorizer(apiKey)

	return &Azure{client: &client}, nil
}

// ExtractText transcribes the receipt into plain text
func (a *Azure) ExtractText(data []byte, contentType string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pngData, err := toPNG(data, contentType)
	if err != nil {
		return "", err
	}

	// crumpled thermal paper photographs badly; contrast and sharpen
	// before submitting
	enhanced, err := enhanceForOCR(pngData)
	if err != nil {
		return "", err
	}

	result, err := a.client.RecognizePrintedTextInStream(
		ctx,
		true,
		io.NopCloser(bytes.NewReader(enhanced)),
		computervision.OcrLanguages(computervision.En),
	)
	if err != nil {
		return "", fmt.Errorf("recognizing text: %w", err)
	}

	return flattenOCRResult(result), nil
}

// flattenOCRResult joins the recognized regions into one transcript,
// words separated by spaces and lines by newlines, in the order the
// service returns them (top to bottom).
func flattenOCRResult(result computervision.OcrResult) string {
	if result.Regions == nil {
		return ""
	}

	var lines []string
	for _, region := range *result.Regions {
		if region.Lines == nil {
			continue
		}
		for _, line := range *region.Lines {
			if line.Words == nil {
				continue
			}
			var words []string
			for _, word := range *line.Words {
				if word.Text != nil && *word.Text != "" {
					words = append(words, *word.Text)
				}
			}
			if len(words) > 0 {
				lines = append(lines, strings.Join(words, " "))
			}
		}
	}

	return strings.Join(lines, "\n")
}

// Close closes the Azure client (no-op for the REST client)
func (a *Azure) Close() error {
	return nil
}
