package offers

import (
	"fmt"

	contractx "github.com/techflow-labs/careflow/agent/contract"
)

// Result is the resolved offer package for one (tier, reason) pair.
// Tier and Reason echo the raw inputs for logging.
type Result struct {
	Tier     string                  `json:"tier"`
	Reason   contractx.Reason        `json:"reason"`
	Offers   []contractx.Offer       `json:"offers"`
	Strategy contractx.OfferStrategy `json:"strategy"`
}

// Resolve maps (tier, reason) to an ordered offer list. Lookup
// strategies are tried in sequence, first non-empty result wins:
//
//  1. exact segment key in the category's rule table
//  2. the raw reason as a lookup key
//  3. the first offer list in the category table (entry order is
//     file order, so this is arbitrary but deterministic)
//
// If all three miss, the universal new_customers list under
// financial_hardship applies.
func (t *Table) Resolve(tier string, reason contractx.Reason) (Result, error) {
	if t == nil || len(t.categories) == 0 {
		return Result{}, fmt.Errorf("%w: no rule table loaded", contractx.ErrRulesUnavailable)
	}

	category := CategoryFor(reason)
	segment := SegmentFor(tier)

	resolved := t.lookup(category, segmentKey(segment))
	if len(resolved) == 0 {
		resolved = t.lookup(category, string(reason))
	}
	if len(resolved) == 0 {
		resolved = t.firstList(category)
	}
	if len(resolved) == 0 {
		resolved = t.lookup(CategoryFinancialHardship, "new_customers")
	}
	if len(resolved) == 0 {
		return Result{}, fmt.Errorf("%w: no offers for category=%s segment=%s", contractx.ErrRulesUnavailable, category, segment)
	}

	offers := append([]contractx.Offer(nil), resolved...)

	var strategy contractx.OfferStrategy
	strategy.Primary = offers[0].Type
	if len(offers) > 1 {
		strategy.Secondary = offers[1].Type
	}

	return Result{
		Tier:     tier,
		Reason:   reason,
		Offers:   offers,
		Strategy: strategy,
	}, nil
}

func (t *Table) lookup(category Category, key string) []contractx.Offer {
	for _, entry := range t.categories[category] {
		if entry.Key == key {
			return entry.Offers
		}
	}
	return nil
}

func (t *Table) firstList(category Category) []contractx.Offer {
	for _, entry := range t.categories[category] {
		if len(entry.Offers) > 0 {
			return entry.Offers
		}
	}
	return nil
}
