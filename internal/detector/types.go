package detector

import (
	"encoding/json"
	"fmt"
)

// Category is the kind of PII a match represents.
type Category string

const (
	CategoryEmail         Category = "email"
	CategoryPhone         Category = "phone"
	CategoryNationalID    Category = "national_id"
	CategoryPaymentCard   Category = "payment_card"
	CategoryDate          Category = "date"
	CategoryIBAN          Category = "bank_account_iban"
	CategoryStreetAddress Category = "street_address"
)

// Categories lists the built-in categories in detection order.
var Categories = []Category{
	CategoryEmail,
	CategoryPhone,
	CategoryNationalID,
	CategoryPaymentCard,
	CategoryDate,
	CategoryIBAN,
	CategoryStreetAddress,
}

func (c Category) String() string { return string(c) }

// ParseCategory accepts a category name. The short names ssn,
// credit_card, iban and address are accepted as aliases.
func ParseCategory(s string) (Category, error) {
	switch s {
	case "email":
		return CategoryEmail, nil
	case "phone":
		return CategoryPhone, nil
	case "national_id", "ssn":
		return CategoryNationalID, nil
	case "payment_card", "credit_card":
		return CategoryPaymentCard, nil
	case "date":
		return CategoryDate, nil
	case "bank_account_iban", "iban":
		return CategoryIBAN, nil
	case "street_address", "address":
		return CategoryStreetAddress, nil
	}
	return "", fmt.Errorf("unknown PII category %q", s)
}

// Confidence is a fixed, category-level reliability tag.
type Confidence int

const (
	ConfidenceLow Confidence = iota + 1
	ConfidenceMedium
	ConfidenceHigh
)

func (c Confidence) String() string {
	switch c {
	case ConfidenceHigh:
		return "high"
	case ConfidenceMedium:
		return "medium"
	case ConfidenceLow:
		return "low"
	default:
		return "unknown"
	}
}

// ParseConfidence converts "high", "medium" or "low".
func ParseConfidence(s string) (Confidence, error) {
	switch s {
	case "high":
		return ConfidenceHigh, nil
	case "medium":
		return ConfidenceMedium, nil
	case "low":
		return ConfidenceLow, nil
	}
	return 0, fmt.Errorf("unknown confidence %q", s)
}

func (c Confidence) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Confidence) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := ParseConfidence(s)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// MarshalYAML renders the tag by name.
func (c Confidence) MarshalYAML() (any, error) {
	return c.String(), nil
}

// Match is one detected PII occurrence. Start and End are half-open
// offsets in code points into the scanned text.
type Match struct {
	Category   Category   `json:"category" yaml:"category"`
	Text       string     `json:"matched_text" yaml:"matched_text"`
	Start      int        `json:"start" yaml:"start"`
	End        int        `json:"end" yaml:"end"`
	Confidence Confidence `json:"confidence" yaml:"confidence"`
}

// Span is a byte range [Start, End) reported by a recognizer.
type Span struct {
	Start int
	End   int
}

// Summarize counts matches per category.
func Summarize(matches []Match) map[Category]int {
	out := make(map[Category]int)
	for _, m := range matches {
		out[m.Category]++
	}
	return out
}

// AtLeast filters matches whose confidence is at or above min.
func AtLeast(matches []Match, min Confidence) []Match {
	out := make([]Match, 0, len(matches))
	for _, m := range matches {
		if m.Confidence >= min {
			out = append(out, m)
		}
	}
	return out
}

// Literals returns the distinct matched texts in match order, ready to be
// used as a redaction request.
func Literals(matches []Match) []string {
	seen := make(map[string]bool, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if m.Text == "" || seen[m.Text] {
			continue
		}
		seen[m.Text] = true
		out = append(out, m.Text)
	}
	return out
}
