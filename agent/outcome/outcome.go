// Package outcome decides the final disposition of a conversation.
package outcome

import (
	"fmt"
	"strings"

	contractx "github.com/techflow-labs/careflow/agent/contract"
	statex "github.com/techflow-labs/careflow/agent/state"
)

const keptCoverageDetails = "customer decided to keep current coverage"

// recentWindow bounds the outcome decision to the tail of the
// conversation, where the accept/decline actually happens.
const recentWindow = 5

var acceptKeywords = []string{
	"yes", "accept", "ok", "sure", "sounds good", "take it", "i'll take", "deal",
}

var declineKeywords = []string{
	"no", "cancel", "proceed", "still want to", "decline",
}

// offerMentionOrder is the fixed order in which explicit offer-type
// mentions are checked.
var offerMentionOrder = []contractx.OfferType{
	contractx.OfferTypeDiscount,
	contractx.OfferTypePause,
	contractx.OfferTypeUpgrade,
}

// Determine inspects the last 5 human messages plus the accumulated
// offers and returns (action, details). The decision is one-shot: a
// conversation whose final_action is already set gets the stored
// values back, never a re-derivation from possibly-changed history.
func Determine(conv *statex.Conversation) (contractx.FinalAction, string) {
	if conv.Finalized() {
		return conv.FinalAction, conv.FinalDetails
	}

	recentText := strings.ToLower(strings.Join(conv.LastHumanMessages(recentWindow), " "))

	switch {
	case len(conv.RetentionOffers) > 0 && containsAny(recentText, acceptKeywords):
		return acceptedOffer(conv.RetentionOffers, recentText)
	case containsAny(recentText, declineKeywords):
		reason := conv.Reason
		if reason == "" {
			reason = "customer_request"
		}
		return contractx.ActionCancelledInsurance, fmt.Sprintf("reason: %s", reason)
	default:
		return contractx.ActionKeptCoverage, keptCoverageDetails
	}
}

// acceptedOffer picks which offered type the customer referenced.
// Mentions are checked discount, pause, upgrade in that order but only
// among types actually offered; with no explicit mention the first
// offer in the list wins.
func acceptedOffer(offers []contractx.Offer, recentText string) (contractx.FinalAction, string) {
	for _, offerType := range offerMentionOrder {
		offer, present := findOffer(offers, offerType)
		if !present {
			continue
		}
		mentioned := strings.Contains(recentText, string(offerType))
		if offerType == contractx.OfferTypeDiscount {
			mentioned = mentioned || strings.Contains(recentText, "%")
		}
		if mentioned {
			return acceptAction(offerType), offer.Description
		}
	}

	first := offers[0]
	return acceptAction(first.Type), first.Description
}

func acceptAction(offerType contractx.OfferType) contractx.FinalAction {
	switch offerType {
	case contractx.OfferTypeDiscount:
		return contractx.ActionAcceptedDiscount
	case contractx.OfferTypePause:
		return contractx.ActionAcceptedPause
	case contractx.OfferTypeUpgrade:
		return contractx.ActionAcceptedUpgrade
	default:
		return contractx.ActionKeptCoverage
	}
}

func findOffer(offers []contractx.Offer, offerType contractx.OfferType) (contractx.Offer, bool) {
	for _, o := range offers {
		if o.Type == offerType {
			return o, true
		}
	}
	return contractx.Offer{}, false
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
