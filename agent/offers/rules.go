// Package offers resolves retention offers from the static rule table.
package offers

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	contractx "github.com/techflow-labs/careflow/agent/contract"
)

// Category is the coarse rule-table grouping that multiple fine-grained
// cancellation reasons map onto.
type Category string

const (
	CategoryFinancialHardship Category = "financial_hardship"
	CategoryProductIssues     Category = "product_issues"
	CategoryServiceValue      Category = "service_value"
)

// Segment is the customer loyalty classification used to select
// applicable offers. Unrecognized tiers collapse to SegmentNew so an
// unknown tier can never be granted premium-level offers.
type Segment string

const (
	SegmentPremium Segment = "premium"
	SegmentRegular Segment = "regular"
	SegmentNew     Segment = "new"
)

// ruleEntry is one keyed offer list inside a category table. Entries
// keep their file order; the fallback chain depends on it.
type ruleEntry struct {
	Key    string            `yaml:"key"`
	Offers []contractx.Offer `yaml:"offers"`
}

// Table is the loaded rule table: category -> ordered keyed entries.
type Table struct {
	categories map[Category][]ruleEntry
}

//go:embed rules.yaml
var defaultRulesRaw []byte

// LoadDefault parses the rule table embedded in the binary.
func LoadDefault() (*Table, error) {
	return Parse(defaultRulesRaw)
}

// LoadFile parses a rule table override from disk. A missing or
// malformed file is a configuration error; callers present no offers.
func LoadFile(path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", contractx.ErrRulesUnavailable, path, err)
	}
	return Parse(raw)
}

// Parse decodes rule-table YAML and checks its minimum shape.
func Parse(raw []byte) (*Table, error) {
	var doc map[Category][]ruleEntry
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode rules: %v", contractx.ErrRulesUnavailable, err)
	}
	if len(doc) == 0 {
		return nil, fmt.Errorf("%w: rule table is empty", contractx.ErrRulesUnavailable)
	}
	if _, ok := doc[CategoryFinancialHardship]; !ok {
		// the last-resort fallback lives here; a table without it
		// cannot honor the resolution contract
		return nil, fmt.Errorf("%w: missing %s category", contractx.ErrRulesUnavailable, CategoryFinancialHardship)
	}
	return &Table{categories: doc}, nil
}

// CategoryFor normalizes a fine-grained reason into its rule-table
// category. The mapping is many-to-one and total.
func CategoryFor(reason contractx.Reason) Category {
	switch reason {
	case contractx.ReasonFinancialHardship, contractx.ReasonTooExpensive:
		return CategoryFinancialHardship
	case contractx.ReasonProductDefect:
		return CategoryProductIssues
	default:
		return CategoryServiceValue
	}
}

// SegmentFor normalizes a raw tier string into a customer segment.
func SegmentFor(tier string) Segment {
	switch strings.ToLower(strings.TrimSpace(tier)) {
	case "premium":
		return SegmentPremium
	case "regular":
		return SegmentRegular
	default:
		return SegmentNew
	}
}

// segmentKey maps a segment onto its rule-table lookup key.
func segmentKey(segment Segment) string {
	if segment == SegmentNew {
		return "new_customers"
	}
	return string(segment)
}
