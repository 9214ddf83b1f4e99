package purchase

import (
	"time"

	"tallyscan/internal/extraction"
)

// Purchase is a processed receipt upload together with the record the
// template engine extracted from its text.
type Purchase struct {
	ID          string            `json:"id"`
	TemplateID  string            `json:"template_id,omitempty"`
	Filename    string            `json:"filename"`
	ContentType string            `json:"content_type"`
	Parsed      extraction.Record `json:"parsed"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Template is a stored, named set of extraction patterns for a vendor
type Template struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Patterns  extraction.Template `json:"patterns"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// Product is a catalog entry accumulated from parsed line items
type Product struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Unit      string    `json:"unit"`
	LastPrice float64   `json:"last_price"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
