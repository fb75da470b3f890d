// Package classify holds the pure rule-based text classifiers driving
// the routing decisions. Everything here is synchronous, side-effect
// free, and deterministic.
package classify

import (
	"strings"

	contractx "github.com/techflow-labs/careflow/agent/contract"
)

// Keyword sets are checked in a fixed priority order: cancellation
// first (a customer mentioning a device problem alongside cancelling
// still goes to retention, not hardware triage), then billing, then
// technical. General is the fallback.
var cancellationKeywords = []string{
	"cancel",
	"terminate",
	"stop",
	"end subscription",
	"too expensive",
	"afford",
	"switching",
	"don't need",
	"no longer",
	"get rid of",
	"remove",
	"return it and cancel",
}

var billingKeywords = []string{
	"bill",
	"charged",
	"charges",
	"cost",
	"price",
	"invoice",
	"payment",
	"refund",
	"amount",
	"how much",
	"why was i",
	"fee",
	"extra charge",
}

var techKeywords = []string{
	"broken",
	"not working",
	"screen",
	"battery",
	"charging",
	"charge",
	"won't charge",
	"wont charge",
	"won't turn on",
	"glitch",
	"repair",
	"fix",
	"overheating",
	"crash",
	"freeze",
	"defect",
	"hardware",
	"device issue",
	"phone issue",
	"problem with",
}

// Intent classifies a single message into the closed intent
// vocabulary. Empty or unmatched text yields IntentGeneral; there are
// no error conditions.
func Intent(text string) contractx.Intent {
	lowered := strings.ToLower(text)

	if containsAny(lowered, cancellationKeywords) {
		return contractx.IntentCancellation
	}
	if containsAny(lowered, billingKeywords) {
		return contractx.IntentBilling
	}
	if containsAny(lowered, techKeywords) {
		return contractx.IntentTechnical
	}
	return contractx.IntentGeneral
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
