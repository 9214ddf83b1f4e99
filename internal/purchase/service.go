package purchase

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"tallyscan/internal/extraction"
	"tallyscan/internal/ocr"
)

// IDGenerator generates unique IDs for stored entities
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates IDs using UnixNano timestamp
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service handles purchase, template and product operations
type Service struct {
	db          DB
	engine      ocr.Engine
	storage     Storage
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source
func NewService(db DB, engine ocr.Engine, storage Storage) *Service {
	return &Service{
		db:          db,
		engine:      engine,
		storage:     storage,
		idGenerator: &defaultIDGenerator{},
		timeSource:  &defaultTimeSource{},
	}
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, engine ocr.Engine, storage Storage, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		engine:      engine,
		storage:     storage,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

var (
	unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	repeatedSpaces      = regexp.MustCompile(`\s+`)
)

// sanitizeFilename cleans up phone-generated filenames: special
// characters removed, whitespace collapsed, length capped.
func sanitizeFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	base = unsafeFilenameChars.ReplaceAllString(base, "")
	base = repeatedSpaces.ReplaceAllString(base, " ")
	base = strings.TrimSpace(base)

	if len(base) > 50 {
		base = base[:50]
	}
	if base == "" {
		base = "receipt"
	}

	return base + ext
}

// Parse runs the template patterns against already-extracted text. It
// never fails for template reasons; broken patterns degrade to empty
// fields in the record.
func (s *Service) Parse(text string, patterns extraction.Template) *extraction.Record {
	return extraction.Extract(text, patterns)
}

// ProcessPurchase stores an uploaded receipt, runs OCR on it, extracts
// a record using the referenced template, and saves the purchase. An
// empty templateID means extraction runs with no patterns and yields a
// record of defaults plus the raw transcript.
func (s *Service) ProcessPurchase(filename string, data []byte, contentType string, templateID string) (*Purchase, error) {
	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	patterns := extraction.Template{}
	if templateID != "" {
		template, err := s.db.GetTemplate(templateID)
		if err != nil {
			return nil, fmt.Errorf("getting template: %w", err)
		}
		patterns = template.Patterns
	}

	cleanFilename := sanitizeFilename(filename)
	savedKey, err := s.storage.Save(fmt.Sprintf("%s_%s", id, cleanFilename), data)
	if err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}

	text, err := s.engine.ExtractText(data, contentType)
	if err != nil {
		slog.Error("Failed to read receipt text",
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		// OCR failed, don't keep the orphaned upload
		s.storage.Delete(savedKey)
		return nil, fmt.Errorf("reading receipt text: %w", err)
	}

	parsed := extraction.Extract(text, patterns)

	purchase := &Purchase{
		ID:          id,
		TemplateID:  templateID,
		Filename:    savedKey,
		ContentType: contentType,
		Parsed:      *parsed,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.db.SavePurchase(purchase); err != nil {
		s.storage.Delete(savedKey)
		return nil, fmt.Errorf("saving purchase to database: %w", err)
	}

	s.recordProducts(parsed.Items, now)

	return purchase, nil
}

// recordProducts upserts catalog entries from parsed line items.
// Failures here are logged, never fatal: the purchase is already saved
// and the catalog is best-effort.
func (s *Service) recordProducts(items []extraction.LineItem, now time.Time) {
	for _, item := range items {
		name := strings.TrimSpace(item.ProductName)
		if name == "" {
			continue
		}

		product, err := s.db.FindProductByName(name)
		if err != nil {
			slog.Warn("Failed to look up product", "name", name, "error", err)
			continue
		}
		if product == nil {
			product = &Product{
				ID:        s.idGenerator.Generate(),
				Name:      name,
				CreatedAt: now,
			}
		}

		if item.Unit != "" {
			product.Unit = item.Unit
		}
		product.LastPrice = item.Price
		product.UpdatedAt = now

		if err := s.db.SaveProduct(product); err != nil {
			slog.Warn("Failed to save product", "name", name, "error", err)
		}
	}
}

// GetPurchase retrieves a purchase by ID
func (s *Service) GetPurchase(id string) (*Purchase, error) {
	purchase, err := s.db.GetPurchase(id)
	if err != nil {
		return nil, fmt.Errorf("getting purchase: %w", err)
	}
	return purchase, nil
}

// ListPurchases returns all purchases
func (s *Service) ListPurchases() ([]*Purchase, error) {
	purchases, err := s.db.ListPurchases()
	if err != nil {
		return nil, fmt.Errorf("listing purchases: %w", err)
	}
	return purchases, nil
}

// DeletePurchase removes a purchase and its stored file
func (s *Service) DeletePurchase(id string) error {
	purchase, err := s.db.GetPurchase(id)
	if err != nil {
		return fmt.Errorf("getting purchase for deletion: %w", err)
	}

	if err := s.storage.Delete(purchase.Filename); err != nil {
		// keep going, the record is what matters
		slog.Warn("Failed to delete file", "filename", purchase.Filename, "error", err)
	}

	if err := s.db.DeletePurchase(id); err != nil {
		return fmt.Errorf("deleting purchase from database: %w", err)
	}
	return nil
}

// GetPurchaseFile retrieves the original uploaded file for a purchase
func (s *Service) GetPurchaseFile(id string) ([]byte, string, error) {
	purchase, err := s.db.GetPurchase(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting purchase: %w", err)
	}

	data, err := s.storage.Get(purchase.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("getting purchase file: %w", err)
	}

	return data, purchase.ContentType, nil
}

// CreateTemplate stores a named set of extraction patterns. The
// patterns themselves are not validated: a pattern that fails to
// compile simply never matches, which lets template authors iterate.
func (s *Service) CreateTemplate(name string, patterns extraction.Template) (*Template, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("template name is required")
	}

	now := s.timeSource.Now()
	template := &Template{
		ID:        s.idGenerator.Generate(),
		Name:      strings.TrimSpace(name),
		Patterns:  patterns,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.db.SaveTemplate(template); err != nil {
		return nil, fmt.Errorf("saving template: %w", err)
	}
	return template, nil
}

// GetTemplate retrieves a template by ID
func (s *Service) GetTemplate(id string) (*Template, error) {
	template, err := s.db.GetTemplate(id)
	if err != nil {
		return nil, fmt.Errorf("getting template: %w", err)
	}
	return template, nil
}

// ListTemplates returns all templates
func (s *Service) ListTemplates() ([]*Template, error) {
	templates, err := s.db.ListTemplates()
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}
	return templates, nil
}

// DeleteTemplate removes a template
func (s *Service) DeleteTemplate(id string) error {
	if _, err := s.db.GetTemplate(id); err != nil {
		return fmt.Errorf("getting template for deletion: %w", err)
	}
	if err := s.db.DeleteTemplate(id); err != nil {
		return fmt.Errorf("deleting template from database: %w", err)
	}
	return nil
}

// ListProducts returns all catalog products
func (s *Service) ListProducts() ([]*Product, error) {
	products, err := s.db.ListProducts()
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return products, nil
}
