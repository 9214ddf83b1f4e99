package extraction

// LineItem is a single purchased item pulled out of the receipt text.
type LineItem struct {
	ProductName string  `json:"productName"`
	Qty         float64 `json:"qty"`
	Unit        string  `json:"unit"`
	Price       float64 `json:"price"`
}

// Record is the result of running a template against receipt text.
// It always carries every field: strings default to empty, amounts to
// nil, items to an empty slice. Raw echoes the input text verbatim.
type Record struct {
	Raw          string     `json:"raw"`
	VendorName   string     `json:"vendorName"`
	PurchaseDate string     `json:"purchaseDate"`
	Subtotal     *float64   `json:"subtotal"`
	Total        *float64   `json:"total"`
	Items        []LineItem `json:"items"`
}
