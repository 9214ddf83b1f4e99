package extraction

import "regexp"

// Template holds the per-vendor patterns a user supplies to describe
// where each field lives in the receipt text. Any pattern may be empty
// or invalid; such a pattern only disables its own field.
type Template struct {
	VendorRegex   string `json:"vendorRegex,omitempty"`
	DateRegex     string `json:"dateRegex,omitempty"`
	TotalRegex    string `json:"totalRegex,omitempty"`
	SubtotalRegex string `json:"subtotalRegex,omitempty"`
	ItemsRegex    string `json:"itemsRegex,omitempty"`
}

// compilePattern builds a case-insensitive, multi-line matcher from a
// user-supplied pattern. Empty and invalid patterns yield nil: a broken
// pattern degrades its field to the default instead of failing the
// whole extraction.
func compilePattern(pattern string) *regexp.Regexp {
	if pattern == "" {
		return nil
	}
	re, err := regexp.Compile("(?im)" + pattern)
	if err != nil {
		return nil
	}
	return re
}
