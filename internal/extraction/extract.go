package extraction

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// nonNumeric matches everything that cannot be part of an amount.
// Currency symbols, labels and whitespace all get stripped before the
// number is parsed.
var nonNumeric = regexp.MustCompile(`[^0-9.,]`)

// Extract runs every pattern of the template against the text and
// assembles the result. Each field is extracted independently: a
// missing, invalid or non-matching pattern leaves only its own field at
// the default. The call is pure and never fails for template reasons.
func Extract(text string, tmpl Template) *Record {
	return &Record{
		Raw:          text,
		VendorName:   extractVendor(text, compilePattern(tmpl.VendorRegex)),
		PurchaseDate: extractDate(text, compilePattern(tmpl.DateRegex)),
		Subtotal:     extractAmount(text, compilePattern(tmpl.SubtotalRegex)),
		Total:        extractAmount(text, compilePattern(tmpl.TotalRegex)),
		Items:        extractItems(text, compilePattern(tmpl.ItemsRegex)),
	}
}

// extractVendor returns the first capture group if it is non-empty
// after trimming, otherwise the trimmed whole match.
func extractVendor(text string, re *regexp.Regexp) string {
	if re == nil {
		return ""
	}
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	if len(m) > 1 {
		if v := strings.TrimSpace(m[1]); v != "" {
			return v
		}
	}
	return strings.TrimSpace(m[0])
}

// extractDate returns the whole matched substring verbatim. The date is
// deliberately not parsed or trimmed; the template decides its shape.
func extractDate(text string, re *regexp.Regexp) string {
	if re == nil {
		return ""
	}
	return re.FindString(text)
}

// extractAmount normalizes the first capture group (or the whole match
// when the group is absent or empty) into a number. Nil means the
// pattern was absent, nothing matched, or the candidate was not
// numeric.
func extractAmount(text string, re *regexp.Regexp) *float64 {
	if re == nil {
		return nil
	}
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	candidate := m[0]
	if len(m) > 1 && m[1] != "" {
		candidate = m[1]
	}
	n, ok := normalizeNumber(candidate)
	if !ok {
		return nil
	}
	return &n
}

// itemCaptures holds the submatch indices of the recognized named
// groups in an items pattern, -1 when a group is not declared.
type itemCaptures struct {
	name  int
	qty   int
	unit  int
	price int
}

func (c itemCaptures) named() bool {
	return c.name >= 0 || c.qty >= 0 || c.unit >= 0 || c.price >= 0
}

// lookupCaptures probes the pattern for the recognized named groups,
// accepting the aliases name/product and qty/quantity.
func lookupCaptures(re *regexp.Regexp) itemCaptures {
	idx := func(names ...string) int {
		for _, n := range names {
			if i := re.SubexpIndex(n); i >= 0 {
				return i
			}
		}
		return -1
	}
	return itemCaptures{
		name:  idx("name", "product"),
		qty:   idx("qty", "quantity"),
		unit:  idx("unit"),
		price: idx("price"),
	}
}

// extractItems finds every non-overlapping match of the items pattern,
// in order of appearance. When the pattern declares any recognized
// named group the named strategy wins, even if positional groups also
// exist; otherwise groups 1-4 are read as [name, qty, unit, price].
// A match with no usable captures still yields an all-default item.
func extractItems(text string, re *regexp.Regexp) []LineItem {
	items := []LineItem{}
	if re == nil {
		return items
	}
	captures := lookupCaptures(re)
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		if captures.named() {
			items = append(items, LineItem{
				ProductName: strings.TrimSpace(group(m, captures.name)),
				Qty:         numberOrZero(group(m, captures.qty)),
				Unit:        group(m, captures.unit),
				Price:       numberOrZero(group(m, captures.price)),
			})
		} else {
			items = append(items, LineItem{
				ProductName: strings.TrimSpace(group(m, 1)),
				Qty:         numberOrZero(group(m, 2)),
				Unit:        group(m, 3),
				Price:       numberOrZero(group(m, 4)),
			})
		}
	}
	return items
}

// group returns submatch i, or the empty string when the group does not
// exist or did not participate in the match.
func group(m []string, i int) string {
	if i < 0 || i >= len(m) {
		return ""
	}
	return m[i]
}

// normalizeNumber turns a noisy OCR amount like "₹1,234.50" or
// "Rs. 2,000" into a number. Commas are always thousands separators.
// A leading dot survives label stripping ("Rs." leaves its dot behind)
// and is junk, not a decimal point.
func normalizeNumber(raw string) (float64, bool) {
	cleaned := nonNumeric.ReplaceAllString(raw, "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimLeft(cleaned, ".")
	if cleaned == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

func numberOrZero(raw string) float64 {
	n, ok := normalizeNumber(raw)
	if !ok {
		return 0
	}
	return n
}
