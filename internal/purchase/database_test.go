package purchase

import (
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"tallyscan/internal/extraction"
)

var _ = Describe("BoltDB", func() {
	var (
		dbPath string
		db     *BoltDB
	)

	BeforeEach(func() {
		dbPath = filepath.Join(GinkgoT().TempDir(), "test.db")
		var err error
		db, err = NewBoltDB(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	Describe("purchases", func() {
		var purchase *Purchase

		BeforeEach(func() {
			total := 130.0
			purchase = &Purchase{
				ID:          "p-1",
				TemplateID:  "tmpl-1",
				Filename:    "p-1_receipt.jpg",
				ContentType: "image/jpeg",
				Parsed: extraction.Record{
					Raw:        "Acme Store\nTotal: 130",
					VendorName: "Acme Store",
					Total:      &total,
					Items: []extraction.LineItem{
						{ProductName: "Item A", Qty: 2, Unit: "pcs", Price: 50},
					},
				},
				CreatedAt: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
				UpdatedAt: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			}
		})

		It("round-trips a purchase with its parsed record", func() {
			Expect(db.SavePurchase(purchase)).To(Succeed())

			saved, err := db.GetPurchase("p-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(saved.Filename).To(Equal("p-1_receipt.jpg"))
			Expect(saved.Parsed.VendorName).To(Equal("Acme Store"))
			Expect(saved.Parsed.Total).To(HaveValue(Equal(130.0)))
			Expect(saved.Parsed.Items).To(HaveLen(1))
		})

		It("returns an error for a missing purchase", func() {
			_, err := db.GetPurchase("nope")
			Expect(err).To(MatchError(ContainSubstring("purchase not found")))
		})

		It("lists all purchases", func() {
			Expect(db.SavePurchase(purchase)).To(Succeed())
			other := *purchase
			other.ID = "p-2"
			Expect(db.SavePurchase(&other)).To(Succeed())

			purchases, err := db.ListPurchases()
			Expect(err).NotTo(HaveOccurred())
			Expect(purchases).To(HaveLen(2))
		})

		It("lists an empty database as an empty slice", func() {
			purchases, err := db.ListPurchases()
			Expect(err).NotTo(HaveOccurred())
			Expect(purchases).NotTo(BeNil())
			Expect(purchases).To(BeEmpty())
		})

		It("deletes a purchase", func() {
			Expect(db.SavePurchase(purchase)).To(Succeed())
			Expect(db.DeletePurchase("p-1")).To(Succeed())
			_, err := db.GetPurchase("p-1")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("templates", func() {
		var template *Template

		BeforeEach(func() {
			template = &Template{
				ID:   "tmpl-1",
				Name: "Acme",
				Patterns: extraction.Template{
					VendorRegex: `^(.+)$`,
					TotalRegex:  `Total: (\d+)`,
				},
			}
		})

		It("round-trips a template with its patterns", func() {
			Expect(db.SaveTemplate(template)).To(Succeed())

			saved, err := db.GetTemplate("tmpl-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(saved.Name).To(Equal("Acme"))
			Expect(saved.Patterns.VendorRegex).To(Equal(`^(.+)$`))
		})

		It("returns an error for a missing template", func() {
			_, err := db.GetTemplate("nope")
			Expect(err).To(MatchError(ContainSubstring("template not found")))
		})

		It("lists and deletes templates", func() {
			Expect(db.SaveTemplate(template)).To(Succeed())

			templates, err := db.ListTemplates()
			Expect(err).NotTo(HaveOccurred())
			Expect(templates).To(HaveLen(1))

			Expect(db.DeleteTemplate("tmpl-1")).To(Succeed())
			templates, err = db.ListTemplates()
			Expect(err).NotTo(HaveOccurred())
			Expect(templates).To(BeEmpty())
		})
	})

	Describe("products", func() {
		It("finds a product by name case-insensitively", func() {
			Expect(db.SaveProduct(&Product{ID: "prod-1", Name: "Item A", Unit: "pcs"})).To(Succeed())

			product, err := db.FindProductByName("item a")
			Expect(err).NotTo(HaveOccurred())
			Expect(product).NotTo(BeNil())
			Expect(product.ID).To(Equal("prod-1"))
		})

		It("returns nil without an error when no product matches", func() {
			product, err := db.FindProductByName("nope")
			Expect(err).NotTo(HaveOccurred())
			Expect(product).To(BeNil())
		})

		It("lists all products", func() {
			Expect(db.SaveProduct(&Product{ID: "prod-1", Name: "Item A"})).To(Succeed())
			Expect(db.SaveProduct(&Product{ID: "prod-2", Name: "Item B"})).To(Succeed())

			products, err := db.ListProducts()
			Expect(err).NotTo(HaveOccurred())
			Expect(products).To(HaveLen(2))
		})
	})
})
