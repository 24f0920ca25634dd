package moderation

import (
	"context"
	"strings"
)

// Reason is one allowed hide reason as presented to the merchant.
type Reason struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Catalog supplies the set of valid hide reasons for a shop. The catalog is
// administered outside the engine; hiding a review requires one of its values.
type Catalog interface {
	Reasons(ctx context.Context, shop string) ([]Reason, error)
}

// StaticCatalog serves the same reason list to every shop, typically parsed
// from configuration at startup.
type StaticCatalog struct {
	reasons []Reason
}

// NewStaticCatalog creates a catalog backed by a fixed reason list.
func NewStaticCatalog(reasons []Reason) *StaticCatalog {
	return &StaticCatalog{reasons: reasons}
}

// Reasons returns the configured reason list regardless of shop.
func (c *StaticCatalog) Reasons(_ context.Context, _ string) ([]Reason, error) {
	out := make([]Reason, len(c.reasons))
	copy(out, c.reasons)
	return out, nil
}

// ParseReasons parses configuration entries of the form "value:Label" into
// reasons. Entries without a colon use the value as the label. Blank entries
// are skipped.
func ParseReasons(entries []string) []Reason {
	reasons := make([]Reason, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		value, label, found := strings.Cut(entry, ":")
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		label = strings.TrimSpace(label)
		if !found || label == "" {
			label = value
		}

		reasons = append(reasons, Reason{Label: label, Value: value})
	}
	return reasons
}
