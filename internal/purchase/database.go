package purchase

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.etcd.io/bbolt"
)

const (
	purchaseBucket = "purchases"
	templateBucket = "templates"
	productBucket  = "products"
)

// DB defines the interface for database operations
type DB interface {
	// SavePurchase saves a purchase to the database
	SavePurchase(purchase *Purchase) error

	// GetPurchase retrieves a purchase by ID
	GetPurchase(id string) (*Purchase, error)

	// ListPurchases returns all purchases
	ListPurchases() ([]*Purchase, error)

	// DeletePurchase removes a purchase from the database
	DeletePurchase(id string) error

	// SaveTemplate saves a template to the database
	SaveTemplate(template *Template) error

	// GetTemplate retrieves a template by ID
	GetTemplate(id string) (*Template, error)

	// ListTemplates returns all templates
	ListTemplates() ([]*Template, error)

	// DeleteTemplate removes a template from the database
	DeleteTemplate(id string) error

	// SaveProduct saves a product to the database
	SaveProduct(product *Product) error

	// FindProductByName retrieves a product by name, nil when absent
	FindProductByName(name string) (*Product, error)

	// ListProducts returns all products
	ListProducts() ([]*Product, error)

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{purchaseBucket, templateBucket, productBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

func (b *BoltDB) put(bucket, key string, value any) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("marshaling %s: %w", bucket, err)
		}
		return tx.Bucket([]byte(bucket)).Put([]byte(key), data)
	})
}

// SavePurchase saves a purchase to the database
func (b *BoltDB) SavePurchase(purchase *Purchase) error {
	return b.put(purchaseBucket, purchase.ID, purchase)
}

// GetPurchase retrieves a purchase by ID
func (b *BoltDB) GetPurchase(id string) (*Purchase, error) {
	var purchase *Purchase
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(purchaseBucket)).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("purchase not found: %s", id)
		}
		return json.Unmarshal(data, &purchase)
	})
	if err != nil {
		return nil, err
	}
	return purchase, nil
}

// ListPurchases returns all purchases
func (b *BoltDB) ListPurchases() ([]*Purchase, error) {
	purchases := make([]*Purchase, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(purchaseBucket)).ForEach(func(k, v []byte) error {
			var purchase Purchase
			if err := json.Unmarshal(v, &purchase); err != nil {
				return fmt.Errorf("unmarshaling purchase: %w", err)
			}
			purchases = append(purchases, &purchase)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return purchases, nil
}

// DeletePurchase removes a purchase from the database
func (b *BoltDB) DeletePurchase(id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(purchaseBucket)).Delete([]byte(id))
	})
}

// SaveTemplate saves a template to the database
func (b *BoltDB) SaveTemplate(template *Template) error {
	return b.put(templateBucket, template.ID, template)
}

// GetTemplate retrieves a template by ID
func (b *BoltDB) GetTemplate(id string) (*Template, error) {
	var template *Template
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(templateBucket)).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("template not found: %s", id)
		}
		return json.Unmarshal(data, &template)
	})
	if err != nil {
		return nil, err
	}
	return template, nil
}

// ListTemplates returns all templates
func (b *BoltDB) ListTemplates() ([]*Template, error) {
	templates := make([]*Template, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(templateBucket)).ForEach(func(k, v []byte) error {
			var template Template
			if err := json.Unmarshal(v, &template); err != nil {
				return fmt.Errorf("unmarshaling template: %w", err)
			}
			templates = append(templates, &template)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return templates, nil
}

// DeleteTemplate removes a template from the database
func (b *BoltDB) DeleteTemplate(id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(templateBucket)).Delete([]byte(id))
	})
}

// SaveProduct saves a product to the database
func (b *BoltDB) SaveProduct(product *Product) error {
	return b.put(productBucket, product.ID, product)
}

// FindProductByName retrieves a product by name, case-insensitively.
// Returns nil without an error when no product matches.
func (b *BoltDB) FindProductByName(name string) (*Product, error) {
	var found *Product
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(productBucket)).ForEach(func(k, v []byte) error {
			if found != nil {
				return nil
			}
			var product Product
			if err := json.Unmarshal(v, &product); err != nil {
				return fmt.Errorf("unmarshaling product: %w", err)
			}
			if strings.EqualFold(product.Name, name) {
				found = &product
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// ListProducts returns all products
func (b *BoltDB) ListProducts() ([]*Product, error) {
	products := make([]*Product, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(productBucket)).ForEach(func(k, v []byte) error {
			var product Product
			if err := json.Unmarshal(v, &product); err != nil {
				return fmt.Errorf("unmarshaling product: %w", err)
			}
			products = append(products, &product)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return products, nil
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}
